package serial_test

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/pkg/errors"
	ser "go.bug.st/serial"
	"go.viam.com/test"

	"go.viam.com/periphery/native"
	"go.viam.com/periphery/serial"
	"go.viam.com/periphery/testutils/inject"
)

func TestOpen(t *testing.T) {
	var mode ser.Mode
	port, err := serial.OpenWith(inject.SerialOpener(inject.SerialLoopback(), &mode), "/dev/ttyS10",
		serial.Options{BaudRate: 115200})
	test.That(t, err, test.ShouldBeNil)
	defer port.Close()

	test.That(t, mode.BaudRate, test.ShouldEqual, 115200)
	test.That(t, mode.DataBits, test.ShouldEqual, 8)
	test.That(t, mode.Parity, test.ShouldEqual, ser.NoParity)
	test.That(t, mode.StopBits, test.ShouldEqual, ser.OneStopBit)
	test.That(t, port.BaudRate(), test.ShouldEqual, 115200)
	test.That(t, port.Device(), test.ShouldEqual, "/dev/ttyS10")
}

func TestOpenInvalid(t *testing.T) {
	opener := inject.SerialOpener(inject.SerialLoopback(), nil)
	for _, tc := range []struct {
		name string
		opts serial.Options
	}{
		{"baud", serial.Options{}},
		{"data bits", serial.Options{BaudRate: 9600, DataBits: 9}},
		{"parity", serial.Options{BaudRate: 9600, Parity: 7}},
		{"stop bits", serial.Options{BaudRate: 9600, StopBits: 3}},
		{"flow control", serial.Options{BaudRate: 9600, RTSCTS: true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := serial.OpenWith(opener, "/dev/ttyS10", tc.opts)
			test.That(t, native.Code(err), test.ShouldEqual, -int(syscall.EINVAL))
		})
	}

	failing := func(string, *ser.Mode) (ser.Port, error) { return nil, syscall.EBUSY }
	_, err := serial.OpenWith(failing, "/dev/ttyS10", serial.Options{BaudRate: 9600})
	test.That(t, native.Code(err), test.ShouldEqual, -int(syscall.EBUSY))
	test.That(t, err.Error(), test.ShouldContainSubstring, "serial_open /dev/ttyS10")
}

func TestLoopbackReadWrite(t *testing.T) {
	ctx := context.Background()
	port, err := serial.OpenWith(inject.SerialOpener(inject.SerialLoopback(), nil), "/dev/ttyS10",
		serial.Options{BaudRate: 115200})
	test.That(t, err, test.ShouldBeNil)
	defer port.Close()

	tx := make([]byte, 128)
	tx[0] = 0xff
	tx[127] = 0x80
	n, err := port.Write(ctx, tx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 128)
	test.That(t, port.Flush(), test.ShouldBeNil)

	rx := make([]byte, 128)
	n, err = port.Read(ctx, rx, 2*time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 128)
	test.That(t, rx, test.ShouldResemble, tx)
}

func TestReadTimeout(t *testing.T) {
	ctx := context.Background()
	port, err := serial.OpenWith(inject.SerialOpener(inject.SerialLoopback(), nil), "/dev/ttyS10",
		serial.Options{BaudRate: 9600})
	test.That(t, err, test.ShouldBeNil)
	defer port.Close()

	_, err = port.Write(ctx, []byte("abc"))
	test.That(t, err, test.ShouldBeNil)

	// Only three bytes ever arrive, so the read gives up after the timeout with what it has.
	buf := make([]byte, 8)
	start := time.Now()
	n, err := port.Read(ctx, buf, 50*time.Millisecond)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 3)
	test.That(t, string(buf[:n]), test.ShouldEqual, "abc")
	test.That(t, time.Since(start), test.ShouldBeGreaterThanOrEqualTo, 50*time.Millisecond)

	// A zero timeout never waits.
	n, err = port.Read(ctx, buf, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 0)

	_, err = port.Write(ctx, []byte("xyz"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, port.ResetInput(), test.ShouldBeNil)
	n, err = port.Read(ctx, buf, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 0)
}

func TestReadBlockingCancelled(t *testing.T) {
	port, err := serial.OpenWith(inject.SerialOpener(inject.SerialLoopback(), nil), "/dev/ttyS10",
		serial.Options{BaudRate: 9600})
	test.That(t, err, test.ShouldBeNil)
	defer port.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	n, err := port.Read(ctx, make([]byte, 4), -1)
	test.That(t, n, test.ShouldEqual, 0)
	test.That(t, errors.Is(err, context.DeadlineExceeded), test.ShouldBeTrue)
}

func TestReadFailure(t *testing.T) {
	fake := inject.SerialLoopback()
	fake.ReadFunc = func(p []byte) (int, error) { return 0, syscall.EIO }
	port, err := serial.OpenWith(inject.SerialOpener(fake, nil), "/dev/ttyUSB0", serial.Options{BaudRate: 9600})
	test.That(t, err, test.ShouldBeNil)
	defer port.Close()

	_, err = port.Read(context.Background(), make([]byte, 1), time.Second)
	test.That(t, native.Code(err), test.ShouldEqual, -int(syscall.EIO))
	test.That(t, err.Error(), test.ShouldContainSubstring, "input/output error")
}

func TestSetBaudRate(t *testing.T) {
	var modes []ser.Mode
	fake := inject.SerialLoopback()
	fake.SetModeFunc = func(mode *ser.Mode) error {
		modes = append(modes, *mode)
		return nil
	}
	port, err := serial.OpenWith(inject.SerialOpener(fake, nil), "/dev/ttyS10",
		serial.Options{BaudRate: 9600, Parity: serial.EvenParity, StopBits: serial.TwoStopBits})
	test.That(t, err, test.ShouldBeNil)
	defer port.Close()

	test.That(t, port.SetBaudRate(57600), test.ShouldBeNil)
	test.That(t, port.BaudRate(), test.ShouldEqual, 57600)
	test.That(t, modes, test.ShouldHaveLength, 1)
	test.That(t, modes[0].BaudRate, test.ShouldEqual, 57600)
	test.That(t, modes[0].Parity, test.ShouldEqual, ser.EvenParity)
	test.That(t, modes[0].StopBits, test.ShouldEqual, ser.TwoStopBits)

	test.That(t, port.SetBaudRate(0), test.ShouldNotBeNil)
	test.That(t, port.BaudRate(), test.ShouldEqual, 57600)
}

func TestClose(t *testing.T) {
	closes := 0
	fake := inject.SerialLoopback()
	fake.CloseFunc = func() error {
		closes++
		return nil
	}
	port, err := serial.OpenWith(inject.SerialOpener(fake, nil), "/dev/ttyS10", serial.Options{BaudRate: 9600})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, port.Close(), test.ShouldBeNil)
	test.That(t, port.Close(), test.ShouldBeNil)
	test.That(t, closes, test.ShouldEqual, 1)

	_, err = port.Write(context.Background(), []byte{1})
	test.That(t, errors.Is(err, native.ErrClosed), test.ShouldBeTrue)
	_, err = port.Read(context.Background(), make([]byte, 1), 0)
	test.That(t, errors.Is(err, native.ErrClosed), test.ShouldBeTrue)
}
