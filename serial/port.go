package serial

import (
	"context"
	"sync"
	"time"

	ser "go.bug.st/serial"

	"go.viam.com/periphery/native"
)

// pollInterval bounds how long a single blocking read runs before the context and the handle are
// checked again.
const pollInterval = 100 * time.Millisecond

// Port is an open serial port.
type Port struct {
	device string
	conn   ser.Port
	lc     native.Lifecycle

	mu   sync.Mutex
	opts Options
}

// Device returns the path the port was opened at.
func (p *Port) Device() string {
	return p.device
}

// Write writes all of data and returns the number of bytes written.
func (p *Port) Write(ctx context.Context, data []byte) (int, error) {
	written := 0
	for written < len(data) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		var n int
		err := p.lc.Do(func() error {
			var err error
			n, err = p.conn.Write(data[written:])
			return native.FromError("serial_write", p.device, err)
		})
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Read reads into buf until it is full or timeout has elapsed, and returns how many bytes arrived.
// A negative timeout waits for as long as it takes and a zero timeout only takes what is already
// buffered. Running out of time is not an error.
func (p *Port) Read(ctx context.Context, buf []byte, timeout time.Duration) (int, error) {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	read := 0
	for read < len(buf) {
		if err := ctx.Err(); err != nil {
			return read, err
		}
		wait := pollInterval
		if timeout >= 0 {
			wait = min(max(time.Until(deadline), 0), pollInterval)
		}
		var n int
		err := p.lc.Do(func() error {
			if err := p.conn.SetReadTimeout(wait); err != nil {
				return native.FromError("serial_read", p.device, err)
			}
			var err error
			n, err = p.conn.Read(buf[read:])
			return native.FromError("serial_read", p.device, err)
		})
		read += n
		if err != nil {
			return read, err
		}
		if timeout >= 0 && !time.Now().Before(deadline) {
			break
		}
	}
	return read, nil
}

// Flush blocks until everything written has been transmitted.
func (p *Port) Flush() error {
	return p.lc.Do(func() error {
		return native.FromError("serial_flush", p.device, p.conn.Drain())
	})
}

// ResetInput discards anything received but not read yet.
func (p *Port) ResetInput() error {
	return p.lc.Do(func() error {
		return native.FromError("serial_input_waiting", p.device, p.conn.ResetInputBuffer())
	})
}

// SetBaudRate changes the baud rate, keeping the rest of the options.
func (p *Port) SetBaudRate(baudRate int) error {
	opts := p.Options()
	opts.BaudRate = baudRate
	if err := opts.validate(p.device); err != nil {
		return err
	}
	return p.lc.Do(func() error {
		if err := p.conn.SetMode(opts.mode()); err != nil {
			return native.FromError("serial_set_baudrate", p.device, err)
		}
		p.mu.Lock()
		p.opts = opts
		p.mu.Unlock()
		return nil
	})
}

// BaudRate returns the current baud rate.
func (p *Port) BaudRate() int {
	return p.Options().BaudRate
}

// Options returns the options the port is configured with.
func (p *Port) Options() Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts
}

// Close releases the port. Closing more than once is allowed.
func (p *Port) Close() error {
	return p.lc.Close(func() error {
		return native.FromError("serial_close", p.device, p.conn.Close())
	})
}
