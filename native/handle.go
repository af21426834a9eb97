package native

import "sync"

// Lifecycle guards a native handle between its open and close. The zero value is an open handle.
// All operations run through Do are serialized, so a handle can be shared between goroutines even
// though the layer underneath is not safe for concurrent use.
type Lifecycle struct {
	mu     sync.Mutex
	closed bool
}

// Do runs f while holding the handle. It fails with ErrClosed once the handle has been closed.
func (l *Lifecycle) Do(f func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	return f()
}

// Close runs release the first time it is called and marks the handle closed even if release
// fails. Every later call is a no-op returning nil.
func (l *Lifecycle) Close(release func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if release == nil {
		return nil
	}
	return release()
}

// Closed reports whether Close has been called.
func (l *Lifecycle) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
