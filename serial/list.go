package serial

import (
	"path/filepath"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Description describes a specific serial device.
type Description struct {
	Type    Type
	Path    string
	VID     string
	PID     string
	Product string
}

// Type identifies the kind of device behind a serial port.
type Type string

// The known device types.
const (
	TypeUnknown = Type("unknown")
	TypeUART    = Type("uart")
	TypeUSB     = Type("usb")
	TypeArduino = Type("arduino")
	TypeJetson  = Type("nvidia-jetson")
)

// arduinoVendors are the USB vendor ids Arduino boards enumerate with.
var arduinoVendors = map[string]bool{"2341": true, "2a03": true, "1b4f": true}

// detailedPortsList is a variable so tests can provide their own ports.
var detailedPortsList = enumerator.GetDetailedPortsList

// List enumerates the serial ports present on the system, sorted by path.
func List() ([]Description, error) {
	ports, err := detailedPortsList()
	if err != nil {
		return nil, err
	}
	descs := make([]Description, 0, len(ports))
	for _, port := range ports {
		descs = append(descs, Description{
			Type:    classify(port),
			Path:    port.Name,
			VID:     port.VID,
			PID:     port.PID,
			Product: port.Product,
		})
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Path < descs[j].Path })
	return descs, nil
}

func classify(port *enumerator.PortDetails) Type {
	base := filepath.Base(port.Name)
	switch {
	case strings.HasPrefix(base, "ttyTHS"):
		return TypeJetson
	case port.IsUSB && arduinoVendors[strings.ToLower(port.VID)]:
		return TypeArduino
	case port.IsUSB:
		return TypeUSB
	case strings.HasPrefix(base, "ttyS") || strings.HasPrefix(base, "ttyAMA"):
		return TypeUART
	}
	return TypeUnknown
}
