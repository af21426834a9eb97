// Package gpio requests lines from Linux GPIO character devices (/dev/gpiochipN) and waits for
// edge events on them.
package gpio

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/periphery/native"
)

// Edge selects which transitions an event line reports. The values are the kernel's
// GPIOEVENT_REQUEST_* flags.
type Edge uint32

// Edges.
const (
	RisingEdge  Edge = 0x1
	FallingEdge Edge = 0x2
	BothEdges        = RisingEdge | FallingEdge
)

func (e Edge) String() string {
	switch e {
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	case BothEdges:
		return "both"
	}
	return fmt.Sprintf("Edge(%d)", uint32(e))
}

// EventType tells a rising edge from a falling one.
type EventType int

// Event types.
const (
	EventRising EventType = iota + 1
	EventFalling
)

func (t EventType) String() string {
	if t == EventRising {
		return "rising"
	}
	return "falling"
}

// Event is an edge seen on a line.
type Event struct {
	Type      EventType
	Offset    uint32
	Timestamp time.Time
}

// LineOptions are the electrical flags applied to a requested line.
type LineOptions struct {
	ActiveLow  bool
	OpenDrain  bool
	OpenSource bool
}

// ChipInfo describes a chip.
type ChipInfo struct {
	Name     string
	Label    string
	NumLines uint32
}

// RawEvent is an edge as reported by a backend.
type RawEvent struct {
	Rising bool
	Time   time.Time
}

// ChipConn is an open chip as provided by a backend.
type ChipConn interface {
	Info() (ChipInfo, error)
	OpenLine(offset uint32, output bool, value byte, opts LineOptions, consumer string) (LineConn, error)
	OpenEventLine(offset uint32, edge Edge, opts LineOptions, consumer string) (EventLineConn, error)
	Close() error
}

// LineConn is a requested input or output line.
type LineConn interface {
	Value() (byte, error)
	SetValue(value byte) error
	Close() error
}

// EventLineConn is a line requested for edge events. The events channel is closed with the line.
type EventLineConn interface {
	Value() (byte, error)
	Events() <-chan RawEvent
	Close() error
}

// An Opener opens chips.
type Opener interface {
	OpenChip(path string) (ChipConn, error)
}

// OpenerFunc adapts a function to an Opener.
type OpenerFunc func(path string) (ChipConn, error)

// OpenChip calls f.
func (f OpenerFunc) OpenChip(path string) (ChipConn, error) {
	return f(path)
}

// DefaultOpener is used by OpenChip and the context-less helpers.
var DefaultOpener Opener = Chardev{}

// Chip is an open GPIO chip.
type Chip struct {
	path  string
	conn  ChipConn
	clock clock.Clock
	lc    native.Lifecycle
}

// OpenChip opens the chip at path, e.g. "/dev/gpiochip0".
func OpenChip(path string) (*Chip, error) {
	return OpenChipWith(DefaultOpener, clock.New(), path)
}

// OpenChipByNumber opens /dev/gpiochipN.
func OpenChipByNumber(n int) (*Chip, error) {
	return OpenChip(ChipPath(n))
}

// ChipPath returns the device path of chip n.
func ChipPath(n int) string {
	return fmt.Sprintf("/dev/gpiochip%d", n)
}

// OpenChipWith opens the chip at path through opener. Event waits on lines of this chip time out
// according to clk.
func OpenChipWith(opener Opener, clk clock.Clock, path string) (*Chip, error) {
	conn, err := opener.OpenChip(path)
	if err != nil {
		return nil, native.FromError("gpiod_chip_open", path, err)
	}
	return &Chip{path: path, conn: conn, clock: clk}, nil
}

// Path returns the device path of the chip.
func (c *Chip) Path() string {
	return c.path
}

// Info returns the chip's name, label and line count.
func (c *Chip) Info() (ChipInfo, error) {
	var info ChipInfo
	err := c.lc.Do(func() error {
		var err error
		info, err = c.conn.Info()
		return native.FromError("gpiod_chip_info", c.path, err)
	})
	return info, err
}

// RequestOutput requests line offset as an output driven to value.
func (c *Chip) RequestOutput(offset uint32, consumer string, value byte, opts LineOptions) (*Line, error) {
	return c.requestLine("gpiod_line_request_output", offset, true, value, opts, consumer)
}

// RequestInput requests line offset as an input.
func (c *Chip) RequestInput(offset uint32, consumer string, opts LineOptions) (*Line, error) {
	return c.requestLine("gpiod_line_request_input", offset, false, 0, opts, consumer)
}

func (c *Chip) requestLine(
	op string, offset uint32, output bool, value byte, opts LineOptions, consumer string,
) (*Line, error) {
	if err := validateOptions(op, c.path, opts); err != nil {
		return nil, err
	}
	var line *Line
	err := c.lc.Do(func() error {
		conn, err := c.conn.OpenLine(offset, output, value, opts, consumer)
		if err != nil {
			return native.FromError(op, c.path, err)
		}
		line = &Line{chip: c.path, offset: offset, output: output, conn: conn}
		return nil
	})
	return line, err
}

// RequestEvents requests line offset as an input reporting the given edges.
func (c *Chip) RequestEvents(offset uint32, consumer string, edge Edge, opts LineOptions) (*EventLine, error) {
	const op = "gpiod_line_request_events"
	if edge&BothEdges == 0 || edge&^BothEdges != 0 {
		return nil, native.Invalid(op, c.path, "invalid edge %v", edge)
	}
	if err := validateOptions(op, c.path, opts); err != nil {
		return nil, err
	}
	var line *EventLine
	err := c.lc.Do(func() error {
		conn, err := c.conn.OpenEventLine(offset, edge, opts, consumer)
		if err != nil {
			return native.FromError(op, c.path, err)
		}
		line = newEventLine(c.path, offset, conn, c.clock)
		return nil
	})
	return line, err
}

func validateOptions(op, path string, opts LineOptions) error {
	if opts.OpenDrain && opts.OpenSource {
		return native.Invalid(op, path, "a line cannot be both open drain and open source")
	}
	return nil
}

// Close releases the chip. Lines already requested stay valid until released. Closing more than
// once is allowed.
func (c *Chip) Close() error {
	return c.lc.Close(func() error {
		return native.FromError("gpiod_chip_close", c.path, c.conn.Close())
	})
}
