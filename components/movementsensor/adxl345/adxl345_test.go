package adxl345_test

import (
	"context"
	"syscall"
	"testing"

	"go.viam.com/test"

	"go.viam.com/periphery/components/i2c"
	"go.viam.com/periphery/components/movementsensor/adxl345"
	"go.viam.com/periphery/logging"
	"go.viam.com/periphery/native"
	"go.viam.com/periphery/testutils/inject"
)

func newDevice(t *testing.T, regs map[byte]byte) *adxl345.Device {
	t.Helper()
	bus, err := i2c.OpenWith(inject.I2COpener(inject.I2CRegisterMap(adxl345.DefaultAddress, regs)), "/dev/i2c-0")
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { test.That(t, bus.Close(), test.ShouldBeNil) })
	return adxl345.New(bus.Handle(adxl345.DefaultAddress), logging.NewTestLogger(t))
}

func TestStart(t *testing.T) {
	ctx := context.Background()
	// Interrupt invert and SPI bits set, plus a stale 16g range and justify bit.
	regs := map[byte]byte{adxl345.RegDevID: adxl345.DeviceID, adxl345.RegDataFormat: 0xe7, adxl345.RegBWRate: 0x1f}
	dev := newDevice(t, regs)

	test.That(t, dev.Start(ctx, adxl345.Range2G, adxl345.Rate100Hz), test.ShouldBeNil)
	test.That(t, regs[adxl345.RegPowerCtl], test.ShouldEqual, 0x08)
	test.That(t, regs[adxl345.RegDataFormat], test.ShouldEqual, 0xe8)
	test.That(t, regs[adxl345.RegBWRate], test.ShouldEqual, 0x0a)

	r, err := dev.Range(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldEqual, adxl345.Range2G)
	test.That(t, r.G(), test.ShouldEqual, 2)
	rate, err := dev.DataRate(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rate.Hz(), test.ShouldEqual, 100)

	test.That(t, dev.SetRange(ctx, adxl345.Range16G), test.ShouldBeNil)
	test.That(t, regs[adxl345.RegDataFormat], test.ShouldEqual, 0xeb)
	test.That(t, dev.SetRange(ctx, adxl345.Range(4)), test.ShouldNotBeNil)

	test.That(t, dev.Standby(ctx), test.ShouldBeNil)
	test.That(t, regs[adxl345.RegPowerCtl], test.ShouldEqual, 0)
}

func TestProbe(t *testing.T) {
	dev := newDevice(t, map[byte]byte{adxl345.RegDevID: 0x68})
	err := dev.Start(context.Background(), adxl345.Range2G, adxl345.Rate100Hz)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unexpected non-ADXL345 device")

	bus, err := i2c.OpenWith(inject.I2COpener(inject.I2CRegisterMap(adxl345.AlternateAddress, map[byte]byte{})), "/dev/i2c-0")
	test.That(t, err, test.ShouldBeNil)
	defer bus.Close()
	err = adxl345.New(bus.Handle(adxl345.DefaultAddress), logging.NewTestLogger(t)).Probe(context.Background())
	test.That(t, native.Code(err), test.ShouldEqual, -int(syscall.ENXIO))
}

func TestDataRateHz(t *testing.T) {
	test.That(t, adxl345.Rate25Hz.Hz(), test.ShouldEqual, 25)
	test.That(t, adxl345.Rate3200Hz.Hz(), test.ShouldEqual, 3200)
	test.That(t, adxl345.DataRate(0x06).Hz(), test.ShouldEqual, 6.25)
}

func TestRead(t *testing.T) {
	for _, tc := range []struct {
		name     string
		data     []byte
		expected adxl345.Sample
	}{
		{"zero", []byte{0, 0, 0, 0, 0, 0}, adxl345.Sample{}},
		{"little endian", []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, adxl345.Sample{X: 0x0201, Y: 0x0403, Z: 0x0605}},
		{"signed", []byte{0xff, 0xff, 0x00, 0x80, 0x00, 0x01}, adxl345.Sample{X: -1, Y: -32768, Z: 256}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			regs := map[byte]byte{}
			for i, b := range tc.data {
				regs[adxl345.RegDataX0+byte(i)] = b
			}
			s, err := newDevice(t, regs).Read(context.Background())
			test.That(t, err, test.ShouldBeNil)
			test.That(t, s, test.ShouldResemble, tc.expected)
		})
	}
}

func TestReadFailure(t *testing.T) {
	h := &inject.I2CHandle{
		ReadBlockDataFunc: func(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
			return []byte{1, 2}, nil
		},
	}
	_, err := adxl345.New(h, logging.NewTestLogger(t)).Read(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "short read")

	h.ReadBlockDataFunc = func(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
		return nil, native.FromError("i2c_transfer", "/dev/i2c-0", syscall.EIO)
	}
	_, err = adxl345.New(h, logging.NewTestLogger(t)).Read(context.Background())
	test.That(t, native.Code(err), test.ShouldEqual, -int(syscall.EIO))
}

func TestInterrupts(t *testing.T) {
	ctx := context.Background()
	regs := map[byte]byte{}
	dev := newDevice(t, regs)

	t.Run("tap on int2 and freefall on int1", func(t *testing.T) {
		test.That(t, dev.EnableInterrupts(ctx, adxl345.SingleTap|adxl345.FreeFall, adxl345.SingleTap|adxl345.Activity), test.ShouldBeNil)
		test.That(t, regs[adxl345.IntEnable], test.ShouldEqual, byte(adxl345.SingleTap|adxl345.FreeFall))
		test.That(t, regs[adxl345.IntMap], test.ShouldEqual, byte(adxl345.SingleTap))
		test.That(t, regs[adxl345.ThreshTap], test.ShouldEqual, 0x30)
		test.That(t, regs[adxl345.TapAxes], test.ShouldEqual, 0x07)
		test.That(t, regs[adxl345.TimeFf], test.ShouldEqual, 0x20)
		_, ok := regs[adxl345.Window]
		test.That(t, ok, test.ShouldBeFalse)
		_, ok = regs[adxl345.ThreshAct]
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("source", func(t *testing.T) {
		regs[adxl345.IntSource] = byte(adxl345.SingleTap | adxl345.FreeFall)
		src, err := dev.InterruptSource(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, src&adxl345.SingleTap, test.ShouldNotEqual, 0)
		test.That(t, src&adxl345.DoubleTap, test.ShouldEqual, 0)
		test.That(t, src.String(), test.ShouldEqual, "SINGLE_TAP|FREE_FALL")
	})

	t.Run("disabled before configuring", func(t *testing.T) {
		var writes []byte
		h := &inject.I2CHandle{
			WriteByteDataFunc: func(ctx context.Context, register, data byte) error {
				writes = append(writes, register)
				return nil
			},
		}
		test.That(t, adxl345.New(h, logging.NewTestLogger(t)).EnableInterrupts(ctx, adxl345.DataReady, 0), test.ShouldBeNil)
		test.That(t, writes, test.ShouldResemble, []byte{adxl345.IntEnable, adxl345.IntMap, adxl345.IntEnable})
	})
}
