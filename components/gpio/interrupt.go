package gpio

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/periphery/logging"
	"go.viam.com/periphery/native"
	"go.viam.com/periphery/utils"
)

// Tick is one edge seen by a DigitalInterrupt.
type Tick struct {
	Name             string
	High             bool
	TimestampNanosec uint64
}

// DigitalInterrupt watches both edges of a line in the background, counting them and passing them
// on to subscribers.
type DigitalInterrupt struct {
	name    string
	line    *EventLine
	count   atomic.Int64
	workers utils.StoppableWorkers
	logger  logging.Logger

	mu        sync.Mutex
	callbacks []chan<- Tick
}

// NewDigitalInterrupt requests line offset for both edges and starts monitoring it.
func (c *Chip) NewDigitalInterrupt(
	name string, offset uint32, opts LineOptions, logger logging.Logger,
) (*DigitalInterrupt, error) {
	line, err := c.RequestEvents(offset, "periphery-interrupt", BothEdges, opts)
	if err != nil {
		return nil, err
	}
	di := &DigitalInterrupt{name: name, line: line, logger: logger}
	di.workers = utils.NewStoppableWorkers(di.monitor)
	return di, nil
}

func (di *DigitalInterrupt) monitor(ctx context.Context) {
	for {
		ev, err := di.line.EventRead(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, native.ErrClosed) {
				di.logger.Warnw("digital interrupt stopped", "name", di.name, "error", err)
			}
			return
		}
		di.tick(ctx, Tick{
			Name:             di.name,
			High:             ev.Type == EventRising,
			TimestampNanosec: uint64(ev.Timestamp.UnixNano()),
		})
	}
}

func (di *DigitalInterrupt) tick(ctx context.Context, t Tick) {
	di.count.Inc()
	di.mu.Lock()
	callbacks := append([]chan<- Tick(nil), di.callbacks...)
	di.mu.Unlock()
	for _, c := range callbacks {
		select {
		case <-ctx.Done():
			return
		case c <- t:
		}
	}
}

// Name returns the interrupt's name.
func (di *DigitalInterrupt) Name() string {
	return di.name
}

// Value returns the number of edges seen so far.
func (di *DigitalInterrupt) Value() int64 {
	return di.count.Load()
}

// Level reads the current level of the line.
func (di *DigitalInterrupt) Level() (bool, error) {
	v, err := di.line.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// AddCallback subscribes c to every tick. Sends block, so c should be drained promptly.
func (di *DigitalInterrupt) AddCallback(c chan<- Tick) {
	di.mu.Lock()
	defer di.mu.Unlock()
	di.callbacks = append(di.callbacks, c)
}

// RemoveCallback unsubscribes c.
func (di *DigitalInterrupt) RemoveCallback(c chan<- Tick) {
	di.mu.Lock()
	defer di.mu.Unlock()
	for i, cb := range di.callbacks {
		if cb == c {
			di.callbacks = append(di.callbacks[:i], di.callbacks[i+1:]...)
			return
		}
	}
}

// Close stops the monitor and releases the line.
func (di *DigitalInterrupt) Close() error {
	di.workers.Stop()
	return di.line.Release()
}
