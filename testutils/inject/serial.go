package inject

import (
	"sync"
	"time"

	ser "go.bug.st/serial"
)

// SerialPort is an injected go.bug.st/serial port.
type SerialPort struct {
	ser.Port
	SetModeFunc          func(mode *ser.Mode) error
	ReadFunc             func(p []byte) (int, error)
	WriteFunc            func(p []byte) (int, error)
	DrainFunc            func() error
	ResetInputBufferFunc func() error
	SetReadTimeoutFunc   func(t time.Duration) error
	CloseFunc            func() error
}

// SetMode calls the injected SetMode or the real version.
func (s *SerialPort) SetMode(mode *ser.Mode) error {
	if s.SetModeFunc == nil {
		return s.Port.SetMode(mode)
	}
	return s.SetModeFunc(mode)
}

// Read calls the injected Read or the real version.
func (s *SerialPort) Read(p []byte) (int, error) {
	if s.ReadFunc == nil {
		return s.Port.Read(p)
	}
	return s.ReadFunc(p)
}

// Write calls the injected Write or the real version.
func (s *SerialPort) Write(p []byte) (int, error) {
	if s.WriteFunc == nil {
		return s.Port.Write(p)
	}
	return s.WriteFunc(p)
}

// Drain calls the injected Drain or the real version.
func (s *SerialPort) Drain() error {
	if s.DrainFunc == nil {
		return s.Port.Drain()
	}
	return s.DrainFunc()
}

// ResetInputBuffer calls the injected ResetInputBuffer or the real version.
func (s *SerialPort) ResetInputBuffer() error {
	if s.ResetInputBufferFunc == nil {
		return s.Port.ResetInputBuffer()
	}
	return s.ResetInputBufferFunc()
}

// SetReadTimeout calls the injected SetReadTimeout or the real version.
func (s *SerialPort) SetReadTimeout(t time.Duration) error {
	if s.SetReadTimeoutFunc == nil {
		return s.Port.SetReadTimeout(t)
	}
	return s.SetReadTimeoutFunc(t)
}

// Close calls the injected Close or the real version.
func (s *SerialPort) Close() error {
	if s.CloseFunc == nil {
		return s.Port.Close()
	}
	return s.CloseFunc()
}

// SerialOpener returns an opener handing out port for every device and recording the mode it was
// opened with into mode when mode is not nil.
func SerialOpener(port ser.Port, mode *ser.Mode) func(string, *ser.Mode) (ser.Port, error) {
	return func(device string, m *ser.Mode) (ser.Port, error) {
		if mode != nil {
			*mode = *m
		}
		return port, nil
	}
}

// SerialLoopback returns a port whose transmit line is wired to its receive line. Reads return
// what was written, or nothing once the read timeout has passed.
func SerialLoopback() *SerialPort {
	var (
		mu      sync.Mutex
		pending []byte
		timeout time.Duration = -1
	)
	return &SerialPort{
		SetModeFunc: func(*ser.Mode) error { return nil },
		WriteFunc: func(p []byte) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			pending = append(pending, p...)
			return len(p), nil
		},
		ReadFunc: func(p []byte) (int, error) {
			mu.Lock()
			n := copy(p, pending)
			pending = pending[n:]
			wait := timeout
			mu.Unlock()
			if n == 0 && wait > 0 {
				time.Sleep(wait)
			}
			return n, nil
		},
		DrainFunc: func() error { return nil },
		ResetInputBufferFunc: func() error {
			mu.Lock()
			defer mu.Unlock()
			pending = nil
			return nil
		},
		SetReadTimeoutFunc: func(t time.Duration) error {
			mu.Lock()
			defer mu.Unlock()
			timeout = t
			return nil
		},
		CloseFunc: func() error { return nil },
	}
}
