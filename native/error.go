// Package native holds the conventions every peripheral backend shares: a failing call is
// reported as an *Error carrying a negative code and the backend's own message, and a handle is
// only usable between its open and its first close.
package native

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"
)

// ErrClosed is returned when an operation is attempted on a handle that has been closed.
var ErrClosed = errors.New("handle is closed")

// CodeUnknown is used when the backend failed without an errno.
const CodeUnknown = -1

// Error is a failure reported by the layer underneath a peripheral handle.
type Error struct {
	// Op is the backend call that failed, e.g. "i2c_transfer".
	Op string
	// Device is the path or name of the device the call was made on. May be empty.
	Device string
	// Code is always negative: the negated errno when there is one, CodeUnknown otherwise.
	Code int
	// Msg is the backend's message.
	Msg string
	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Msg, e.Code)
	}
	return fmt.Sprintf("%s %s: %s (%d)", e.Op, e.Device, e.Msg, e.Code)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// FromError converts an error returned by a backend into an *Error. A nil err returns nil, and an
// err that already is an *Error is returned as is.
func FromError(op, device string, err error) error {
	if err == nil {
		return nil
	}
	var nerr *Error
	if errors.As(err, &nerr) {
		return err
	}
	code := CodeUnknown
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		code = -int(errno)
	}
	return &Error{Op: op, Device: device, Code: code, Msg: err.Error(), Err: err}
}

// Check turns a return code into an error the way the C peripheral libraries do: any negative rc
// is a failure described by msg. Non-negative codes are success.
func Check(op, device string, rc int, msg string) error {
	if rc >= 0 {
		return nil
	}
	return &Error{Op: op, Device: device, Code: rc, Msg: msg}
}

// Invalid reports a call that was rejected before it reached the backend, with the code EINVAL
// would have produced.
func Invalid(op, device, format string, args ...interface{}) error {
	return &Error{Op: op, Device: device, Code: -int(syscall.EINVAL), Msg: fmt.Sprintf(format, args...)}
}

// Code returns the negative code carried by err, 0 if err is nil, or CodeUnknown if err did not
// come from a backend.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var nerr *Error
	if errors.As(err, &nerr) {
		return nerr.Code
	}
	return CodeUnknown
}
