//go:build !linux

package gpio

import (
	"go.viam.com/periphery/utils"
)

// Chardev opens chips through the GPIO character devices, which only exist on Linux.
type Chardev struct{}

// OpenChip always fails on this platform.
func (Chardev) OpenChip(path string) (ChipConn, error) {
	return nil, utils.NewUnsupportedPlatformError("gpio character device " + path)
}

// ChipDevices returns nothing on this platform. Running elsewhere is fine as long as no chip is
// opened, so this does not warn.
func ChipDevices() []string {
	return nil
}
