// Package serial opens and talks to UART devices such as /dev/ttyS10 or /dev/ttyUSB0.
package serial

import (
	ser "go.bug.st/serial"

	"go.viam.com/periphery/native"
)

// Options to be passed to OpenAdvanced. Zero values fall back to 8 data bits, no parity and one
// stop bit.
type Options struct {
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits
	// XonXoff and RTSCTS request software or hardware flow control.
	XonXoff bool
	RTSCTS  bool
}

// Parity describes a serial port parity setting.
type Parity int

const (
	// NoParity disable parity control (default).
	NoParity Parity = iota
	// OddParity enable odd-parity check.
	OddParity
	// EvenParity enable even-parity check.
	EvenParity
	// MarkParity enable mark-parity (always 1) check.
	MarkParity
	// SpaceParity enable space-parity (always 0) check.
	SpaceParity
)

// StopBits describe a serial port stop bits setting.
type StopBits int

const (
	// OneStopBit sets 1 stop bit (default).
	OneStopBit StopBits = iota
	// OnePointFiveStopBits sets 1.5 stop bits.
	OnePointFiveStopBits
	// TwoStopBits sets 2 stop bits.
	TwoStopBits
)

func (opts Options) withDefaults() Options {
	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	return opts
}

func (opts Options) validate(device string) error {
	if opts.BaudRate <= 0 {
		return native.Invalid("serial_open", device, "invalid baud rate %d", opts.BaudRate)
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return native.Invalid("serial_open", device, "invalid data bits %d (can be 5,6,7,8)", opts.DataBits)
	}
	if opts.Parity < NoParity || opts.Parity > SpaceParity {
		return native.Invalid("serial_open", device, "invalid parity %d", opts.Parity)
	}
	if opts.StopBits < OneStopBit || opts.StopBits > TwoStopBits {
		return native.Invalid("serial_open", device, "invalid stop bits %d", opts.StopBits)
	}
	// The termios backend has no flow control knobs.
	if opts.XonXoff || opts.RTSCTS {
		return native.Invalid("serial_open", device, "flow control is not supported")
	}
	return nil
}

func (opts Options) mode() *ser.Mode {
	return &ser.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		Parity:   ser.Parity(opts.Parity),
		StopBits: ser.StopBits(opts.StopBits),
	}
}

// An Opener opens the port at a device path.
type Opener func(device string, mode *ser.Mode) (ser.Port, error)

// DefaultOpener is used by Open and OpenAdvanced. It is a variable so tests can swap it out.
var DefaultOpener Opener = ser.Open

// Open opens device at baudRate, 8N1.
func Open(device string, baudRate int) (*Port, error) {
	return OpenAdvanced(device, Options{BaudRate: baudRate})
}

// OpenAdvanced opens device with opts.
func OpenAdvanced(device string, opts Options) (*Port, error) {
	return OpenWith(DefaultOpener, device, opts)
}

// OpenWith opens device through opener.
func OpenWith(opener Opener, device string, opts Options) (*Port, error) {
	opts = opts.withDefaults()
	if err := opts.validate(device); err != nil {
		return nil, err
	}
	conn, err := opener(device, opts.mode())
	if err != nil {
		return nil, native.FromError("serial_open", device, err)
	}
	return &Port{device: device, opts: opts, conn: conn}, nil
}
