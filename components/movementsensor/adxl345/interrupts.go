package adxl345

import (
	"context"
	"strings"
)

// addresses relevant to interrupts.
const (
	IntEnable   byte = 0x2E
	IntMap      byte = 0x2F
	IntSource   byte = 0x30
	TapAxes     byte = 0x2A
	ThreshTap   byte = 0x1D
	Dur         byte = 0x21
	Latent      byte = 0x22
	Window      byte = 0x23
	ThreshFf    byte = 0x28
	TimeFf      byte = 0x29
	ThreshAct   byte = 0x24
	ThreshInact byte = 0x25
	TimeInact   byte = 0x26
	ActInactCtl byte = 0x27
)

// Interrupts is a set of interrupt bits as found in IntEnable, IntMap and IntSource.
type Interrupts byte

// types of interrupts.
const (
	DataReady  Interrupts = 1 << 7
	SingleTap  Interrupts = 1 << 6
	DoubleTap  Interrupts = 1 << 5
	Activity   Interrupts = 1 << 4
	Inactivity Interrupts = 1 << 3
	FreeFall   Interrupts = 1 << 2
	Watermark  Interrupts = 1 << 1
	Overrun    Interrupts = 1 << 0
)

var interruptNames = []struct {
	bit  Interrupts
	name string
}{
	{DataReady, "DATA_READY"},
	{SingleTap, "SINGLE_TAP"},
	{DoubleTap, "DOUBLE_TAP"},
	{Activity, "ACTIVITY"},
	{Inactivity, "INACTIVITY"},
	{FreeFall, "FREE_FALL"},
	{Watermark, "WATERMARK"},
	{Overrun, "OVERRUN"},
}

func (in Interrupts) String() string {
	var names []string
	for _, n := range interruptNames {
		if in&n.bit != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

/*
From the data sheet:

In general, a good starting point is to set the Dur register to a value greater
than 0x10 (10 ms), the Latent register to a value greater than0x10 (20 ms), the
Window register to a value greater than 0x40(80 ms), and the ThreshTap register
to a value greater than 0x30 (3 g).
*/
var defaultRegisterValues = []struct {
	register byte
	value    byte
	usedBy   Interrupts
}{
	{ThreshTap, 0x30, SingleTap | DoubleTap},
	{Dur, 0x10, SingleTap | DoubleTap},
	{Latent, 0x10, DoubleTap},
	{Window, 0x40, DoubleTap},
	{TapAxes, xBit | yBit | zBit, SingleTap | DoubleTap},
	{ThreshFf, 0x07, FreeFall},
	{TimeFf, 0x20, FreeFall}, // 0x14 - 0x46 are recommended
	{ThreshAct, 0x80, Activity},
	{ThreshInact, 0x08, Inactivity},
	{TimeInact, 0x10, Inactivity},
	{ActInactCtl, 0x77, Activity | Inactivity}, // enables x, y, z for activity and inactivity
}

const (
	xBit byte = 1 << 0
	yBit      = 1 << 1
	zBit      = 1 << 2
)

// EnableInterrupts writes the recommended thresholds for the requested interrupts, routes those
// in onInt2 to the INT2 pin and the rest to INT1, then enables them.
func (d *Device) EnableInterrupts(ctx context.Context, enabled, onInt2 Interrupts) error {
	// Disable first so nothing fires half configured.
	if err := d.handle.WriteByteData(ctx, IntEnable, 0); err != nil {
		return err
	}
	for _, def := range defaultRegisterValues {
		if enabled&def.usedBy == 0 {
			continue
		}
		if err := d.handle.WriteByteData(ctx, def.register, def.value); err != nil {
			return err
		}
	}
	if err := d.handle.WriteByteData(ctx, IntMap, byte(onInt2&enabled)); err != nil {
		return err
	}
	return d.handle.WriteByteData(ctx, IntEnable, byte(enabled))
}

// InterruptSource reads and thereby clears the interrupts that fired since the last read.
func (d *Device) InterruptSource(ctx context.Context) (Interrupts, error) {
	v, err := d.handle.ReadByteData(ctx, IntSource)
	return Interrupts(v), err
}
