//go:build linux

package i2c

import (
	"os"
	"runtime"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	ioctlI2CFuncs = 0x0705
	ioctlI2CRdwr  = 0x0707
	funcI2C       = 0x00000001
)

// i2cMsg mirrors struct i2c_msg.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   unsafe.Pointer
}

// i2cRdwrData mirrors struct i2c_rdwr_ioctl_data.
type i2cRdwrData struct {
	msgs  unsafe.Pointer
	nmsgs uint32
}

// Devfs opens buses through the i2c-dev character devices.
type Devfs struct{}

// Open opens device and checks that the adapter supports plain I2C transfers.
func (Devfs) Open(device string) (Conn, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	var funcs uint
	if err := ioctl(f.Fd(), ioctlI2CFuncs, uintptr(unsafe.Pointer(&funcs))); err != nil {
		//nolint:errcheck
		f.Close()
		return nil, errors.Wrap(err, "querying I2C functions")
	}
	if funcs&funcI2C == 0 {
		//nolint:errcheck
		f.Close()
		return nil, errors.Errorf("I2C transfers not supported on %s", device)
	}
	return &devfsConn{f: f}, nil
}

type devfsConn struct {
	f *os.File
}

func (c *devfsConn) Transfer(msgs []Message) error {
	raw := make([]i2cMsg, len(msgs))
	for i, m := range msgs {
		raw[i] = i2cMsg{addr: m.Addr, flags: m.Flags, len: uint16(len(m.Buf))}
		if len(m.Buf) > 0 {
			raw[i].buf = unsafe.Pointer(&m.Buf[0])
		}
	}
	data := i2cRdwrData{msgs: unsafe.Pointer(&raw[0]), nmsgs: uint32(len(raw))}
	err := ioctl(c.f.Fd(), ioctlI2CRdwr, uintptr(unsafe.Pointer(&data)))
	runtime.KeepAlive(raw)
	runtime.KeepAlive(msgs)
	return err
}

func (c *devfsConn) Close() error {
	return c.f.Close()
}

func ioctl(fd, request, data uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, data); errno != 0 {
		return errno
	}
	return nil
}
