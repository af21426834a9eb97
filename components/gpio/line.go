package gpio

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/periphery/native"
)

// Line is a requested input or output line.
type Line struct {
	chip   string
	offset uint32
	output bool
	conn   LineConn
	lc     native.Lifecycle
}

// Offset returns the line's offset on its chip.
func (l *Line) Offset() uint32 {
	return l.offset
}

// Value reads the line, 0 or 1.
func (l *Line) Value() (byte, error) {
	var value byte
	err := l.lc.Do(func() error {
		var err error
		value, err = l.conn.Value()
		return native.FromError("gpiod_line_get_value", l.chip, err)
	})
	return value, err
}

// SetValue drives an output line. Any non-zero value is high.
func (l *Line) SetValue(value byte) error {
	if !l.output {
		return native.Invalid("gpiod_line_set_value", l.chip, "line %d is not an output", l.offset)
	}
	if value != 0 {
		value = 1
	}
	return l.lc.Do(func() error {
		return native.FromError("gpiod_line_set_value", l.chip, l.conn.SetValue(value))
	})
}

// Release gives the line back to the kernel. Releasing more than once is allowed.
func (l *Line) Release() error {
	return l.lc.Close(func() error {
		return native.FromError("gpiod_line_release", l.chip, l.conn.Close())
	})
}

// Close is Release.
func (l *Line) Close() error {
	return l.Release()
}

// EventLine is a line requested for edge events.
type EventLine struct {
	chip   string
	offset uint32
	conn   EventLineConn
	events <-chan RawEvent
	clock  clock.Clock
	lc     native.Lifecycle

	mu      sync.Mutex
	pending *Event
}

func newEventLine(chip string, offset uint32, conn EventLineConn, clk clock.Clock) *EventLine {
	return &EventLine{chip: chip, offset: offset, conn: conn, events: conn.Events(), clock: clk}
}

// Offset returns the line's offset on its chip.
func (l *EventLine) Offset() uint32 {
	return l.offset
}

// Value reads the line, 0 or 1.
func (l *EventLine) Value() (byte, error) {
	var value byte
	err := l.lc.Do(func() error {
		var err error
		value, err = l.conn.Value()
		return native.FromError("gpiod_line_get_value", l.chip, err)
	})
	return value, err
}

// EventWait waits up to timeout for an event and reports whether one is ready to be read. A
// negative timeout waits until ctx is done. The backend only keeps the most recent edge, so edges
// that happen while nobody is waiting or reading collapse into one.
func (l *EventLine) EventWait(ctx context.Context, timeout time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waitLocked(ctx, timeout)
}

// EventRead returns the next event, blocking until one happens or ctx is done.
func (l *EventLine) EventRead(ctx context.Context) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.waitLocked(ctx, -1); err != nil {
		return Event{}, err
	}
	ev := *l.pending
	l.pending = nil
	return ev, nil
}

func (l *EventLine) waitLocked(ctx context.Context, timeout time.Duration) (bool, error) {
	if l.lc.Closed() {
		return false, native.ErrClosed
	}
	if l.pending != nil {
		return true, nil
	}
	select {
	case raw, ok := <-l.events:
		return l.receivedLocked(raw, ok)
	default:
	}

	var expired <-chan time.Time
	if timeout >= 0 {
		timer := l.clock.Timer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case raw, ok := <-l.events:
		return l.receivedLocked(raw, ok)
	case <-expired:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (l *EventLine) receivedLocked(raw RawEvent, ok bool) (bool, error) {
	if !ok {
		return false, native.ErrClosed
	}
	l.pending = l.convert(raw)
	return true, nil
}

func (l *EventLine) convert(raw RawEvent) *Event {
	ev := &Event{Type: EventFalling, Offset: l.offset, Timestamp: raw.Time}
	if raw.Rising {
		ev.Type = EventRising
	}
	return ev
}

// Release gives the line back to the kernel, which also ends any wait in progress. Releasing more
// than once is allowed.
func (l *EventLine) Release() error {
	return l.lc.Close(func() error {
		return native.FromError("gpiod_line_release", l.chip, l.conn.Close())
	})
}

// Close is Release.
func (l *EventLine) Close() error {
	return l.Release()
}
