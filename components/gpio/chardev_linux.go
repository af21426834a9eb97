//go:build linux

package gpio

import (
	"path/filepath"

	"github.com/mkch/gpio"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// Chardev opens chips through the GPIO character device ioctl interface, by way of mkch's gpio
// package.
type Chardev struct{}

// OpenChip opens a chip given as "/dev/gpiochipN" or "gpiochipN".
func (Chardev) OpenChip(path string) (ChipConn, error) {
	if dir := filepath.Dir(path); dir != "/dev" && dir != "." {
		return nil, errors.Errorf("gpio chips must live in /dev, not %s", dir)
	}
	chip, err := gpio.OpenChip(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return &chardevChip{chip: chip}, nil
}

// ChipDevices lists the chips present on the system, as device paths.
func ChipDevices() []string {
	names := gpio.ChipDevices()
	for i, name := range names {
		names[i] = filepath.Join("/dev", name)
	}
	return names
}

type chardevChip struct {
	chip *gpio.Chip
}

func (c *chardevChip) Info() (ChipInfo, error) {
	info, err := c.chip.Info()
	if err != nil {
		return ChipInfo{}, err
	}
	return ChipInfo{Name: info.Name, Label: info.Label, NumLines: info.NumLines}, nil
}

func lineFlags(output bool, opts LineOptions) gpio.LineFlag {
	flags := gpio.Input
	if output {
		flags = gpio.Output
	}
	if opts.ActiveLow {
		flags |= gpio.ActiveLow
	}
	if opts.OpenDrain {
		flags |= gpio.OpenDrain
	}
	if opts.OpenSource {
		flags |= gpio.OpenSource
	}
	return flags
}

func (c *chardevChip) OpenLine(
	offset uint32, output bool, value byte, opts LineOptions, consumer string,
) (LineConn, error) {
	line, err := c.chip.OpenLine(offset, value, lineFlags(output, opts), consumer)
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (c *chardevChip) OpenEventLine(offset uint32, edge Edge, opts LineOptions, consumer string) (EventLineConn, error) {
	line, err := c.chip.OpenLineWithEvents(offset, lineFlags(false, opts), gpio.EventFlag(edge), consumer)
	if err != nil {
		return nil, err
	}
	events := make(chan RawEvent, 1)
	src := line.Events()
	goutils.PanicCapturingGo(func() {
		defer close(events)
		for ev := range src {
			if ev == nil {
				continue
			}
			raw := RawEvent{Rising: ev.RisingEdge, Time: ev.Time}
			// Keep only the latest edge, like the channel we read from.
			select {
			case events <- raw:
			default:
				select {
				case <-events:
				default:
				}
				events <- raw
			}
		}
	})
	return &chardevEventLine{line: line, events: events}, nil
}

func (c *chardevChip) Close() error {
	return c.chip.Close()
}

type chardevEventLine struct {
	line   *gpio.LineWithEvent
	events chan RawEvent
}

func (l *chardevEventLine) Value() (byte, error) {
	return l.line.Value()
}

func (l *chardevEventLine) Events() <-chan RawEvent {
	return l.events
}

func (l *chardevEventLine) Close() error {
	return l.line.Close()
}
