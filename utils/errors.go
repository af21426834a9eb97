package utils

import (
	"runtime"

	"github.com/pkg/errors"
)

// NewUnsupportedPlatformError is returned by backends that only exist on Linux.
func NewUnsupportedPlatformError(what string) error {
	return errors.Errorf("%s is not supported on %s", what, runtime.GOOS)
}
