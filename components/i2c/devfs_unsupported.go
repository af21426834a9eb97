//go:build !linux

package i2c

import "github.com/pkg/errors"

// Devfs opens buses through the i2c-dev character devices, which only exist on Linux.
type Devfs struct{}

// Open always fails on this platform.
func (Devfs) Open(device string) (Conn, error) {
	return nil, errors.Errorf("cannot open %s: i2c-dev is only supported on linux", device)
}
