package inject

import (
	"sync"

	"go.viam.com/periphery/components/gpio"
)

// GPIOChip is an injected GPIO chip backend.
type GPIOChip struct {
	gpio.ChipConn
	InfoFunc          func() (gpio.ChipInfo, error)
	OpenLineFunc      func(offset uint32, output bool, value byte, opts gpio.LineOptions, consumer string) (gpio.LineConn, error)
	OpenEventLineFunc func(offset uint32, edge gpio.Edge, opts gpio.LineOptions, consumer string) (gpio.EventLineConn, error)
	CloseFunc         func() error
}

// Info calls the injected Info or the real version.
func (c *GPIOChip) Info() (gpio.ChipInfo, error) {
	if c.InfoFunc == nil {
		return c.ChipConn.Info()
	}
	return c.InfoFunc()
}

// OpenLine calls the injected OpenLine or the real version.
func (c *GPIOChip) OpenLine(
	offset uint32, output bool, value byte, opts gpio.LineOptions, consumer string,
) (gpio.LineConn, error) {
	if c.OpenLineFunc == nil {
		return c.ChipConn.OpenLine(offset, output, value, opts, consumer)
	}
	return c.OpenLineFunc(offset, output, value, opts, consumer)
}

// OpenEventLine calls the injected OpenEventLine or the real version.
func (c *GPIOChip) OpenEventLine(
	offset uint32, edge gpio.Edge, opts gpio.LineOptions, consumer string,
) (gpio.EventLineConn, error) {
	if c.OpenEventLineFunc == nil {
		return c.ChipConn.OpenEventLine(offset, edge, opts, consumer)
	}
	return c.OpenEventLineFunc(offset, edge, opts, consumer)
}

// Close calls the injected Close or the real version.
func (c *GPIOChip) Close() error {
	if c.CloseFunc == nil {
		return c.ChipConn.Close()
	}
	return c.CloseFunc()
}

// GPIOOpener returns an opener handing out chip for every path.
func GPIOOpener(chip gpio.ChipConn) gpio.Opener {
	return gpio.OpenerFunc(func(string) (gpio.ChipConn, error) { return chip, nil })
}

// GPIOLine is an injected requested line.
type GPIOLine struct {
	gpio.LineConn
	ValueFunc    func() (byte, error)
	SetValueFunc func(value byte) error
	CloseFunc    func() error
}

// Value calls the injected Value or the real version.
func (l *GPIOLine) Value() (byte, error) {
	if l.ValueFunc == nil {
		return l.LineConn.Value()
	}
	return l.ValueFunc()
}

// SetValue calls the injected SetValue or the real version.
func (l *GPIOLine) SetValue(value byte) error {
	if l.SetValueFunc == nil {
		return l.LineConn.SetValue(value)
	}
	return l.SetValueFunc(value)
}

// Close calls the injected Close or the real version.
func (l *GPIOLine) Close() error {
	if l.CloseFunc == nil {
		return l.LineConn.Close()
	}
	return l.CloseFunc()
}

// NewGPIOLevel returns a line that remembers the last value set on it, starting at value.
func NewGPIOLevel(value byte) *GPIOLine {
	var mu sync.Mutex
	return &GPIOLine{
		ValueFunc: func() (byte, error) {
			mu.Lock()
			defer mu.Unlock()
			return value, nil
		},
		SetValueFunc: func(v byte) error {
			mu.Lock()
			defer mu.Unlock()
			value = v
			return nil
		},
		CloseFunc: func() error { return nil },
	}
}

// GPIOEventLine is an injected line requested for edge events.
type GPIOEventLine struct {
	gpio.EventLineConn
	ValueFunc  func() (byte, error)
	EventsFunc func() <-chan gpio.RawEvent
	CloseFunc  func() error
}

// Value calls the injected Value or the real version.
func (l *GPIOEventLine) Value() (byte, error) {
	if l.ValueFunc == nil {
		return l.EventLineConn.Value()
	}
	return l.ValueFunc()
}

// Events calls the injected Events or the real version.
func (l *GPIOEventLine) Events() <-chan gpio.RawEvent {
	if l.EventsFunc == nil {
		return l.EventLineConn.Events()
	}
	return l.EventsFunc()
}

// Close calls the injected Close or the real version.
func (l *GPIOEventLine) Close() error {
	if l.CloseFunc == nil {
		return l.EventLineConn.Close()
	}
	return l.CloseFunc()
}

// NewGPIOEdgeSource returns an event line whose edges are whatever the test sends on the returned
// channel. Closing the line closes the events channel, like the kernel backend does.
func NewGPIOEdgeSource() (*GPIOEventLine, chan<- gpio.RawEvent) {
	src := make(chan gpio.RawEvent)
	events := make(chan gpio.RawEvent)
	done := make(chan struct{})
	var closeOnce sync.Once
	go func() {
		defer close(events)
		for {
			select {
			case <-done:
				return
			case ev := <-src:
				select {
				case events <- ev:
				case <-done:
					return
				}
			}
		}
	}()
	line := &GPIOEventLine{
		ValueFunc:  func() (byte, error) { return 0, nil },
		EventsFunc: func() <-chan gpio.RawEvent { return events },
		CloseFunc: func() error {
			closeOnce.Do(func() { close(done) })
			return nil
		},
	}
	return line, src
}
