package gpio

import (
	"context"
	"time"

	"go.uber.org/multierr"
)

// LoopEvent is what an event loop handler is woken up for.
type LoopEvent int

// Loop events.
const (
	LoopTimeout LoopEvent = iota + 1
	LoopRisingEdge
	LoopFallingEdge
)

func (e LoopEvent) String() string {
	switch e {
	case LoopTimeout:
		return "timeout"
	case LoopRisingEdge:
		return "rising edge"
	case LoopFallingEdge:
		return "falling edge"
	}
	return "unknown"
}

// LoopAction is returned by an event loop handler to keep going or finish.
type LoopAction int

// Loop actions.
const (
	LoopContinue LoopAction = iota
	LoopStop
)

// EventHandler is called by an event loop for every edge and every timeout. Returning an error
// ends the loop with that error.
type EventHandler func(ev LoopEvent, offset uint32, ts time.Time) (LoopAction, error)

// LoopConfig describes the line an event loop watches.
type LoopConfig struct {
	Offset   uint32
	Edge     Edge
	Options  LineOptions
	Consumer string
	// Timeout is how long to wait for an edge before the handler is told about a timeout.
	// Negative waits forever.
	Timeout time.Duration
}

// EventLoop requests the configured line and calls handler until it asks to stop, fails, or ctx is
// done. The line is released when the loop ends. Ending because ctx is done is not an error.
func (c *Chip) EventLoop(ctx context.Context, cfg LoopConfig, handler EventHandler) (err error) {
	line, err := c.RequestEvents(cfg.Offset, cfg.Consumer, cfg.Edge, cfg.Options)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, line.Release())
	}()

	for {
		ready, err := line.EventWait(ctx, cfg.Timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var action LoopAction
		if !ready {
			action, err = handler(LoopTimeout, cfg.Offset, c.clock.Now())
		} else {
			ev, readErr := line.EventRead(ctx)
			if readErr != nil {
				if ctx.Err() != nil {
					return nil
				}
				return readErr
			}
			loopEv := LoopFallingEdge
			if ev.Type == EventRising {
				loopEv = LoopRisingEdge
			}
			action, err = handler(loopEv, ev.Offset, ev.Timestamp)
		}
		if err != nil {
			return err
		}
		if action == LoopStop {
			return nil
		}
	}
}

// EventLoop opens chipPath, runs an event loop on it and closes it again.
func EventLoop(ctx context.Context, chipPath string, cfg LoopConfig, handler EventHandler) (err error) {
	chip, err := OpenChip(chipPath)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, chip.Close())
	}()
	return chip.EventLoop(ctx, cfg, handler)
}

// GetValue reads one line of chipPath without keeping anything open.
func GetValue(chipPath string, offset uint32, opts LineOptions, consumer string) (value byte, err error) {
	chip, err := OpenChip(chipPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Combine(err, chip.Close())
	}()
	line, err := chip.RequestInput(offset, consumer, opts)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Combine(err, line.Release())
	}()
	return line.Value()
}

// SetValue drives one line of chipPath to value. The kernel may return the line to its previous
// state once it is released, so hold, when not nil, is called while the line is still held.
func SetValue(chipPath string, offset uint32, value byte, opts LineOptions, consumer string, hold func()) (err error) {
	chip, err := OpenChip(chipPath)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, chip.Close())
	}()
	line, err := chip.RequestOutput(offset, consumer, value, opts)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, line.Release())
	}()
	if hold != nil {
		hold()
	}
	return nil
}
