package main

import (
	"context"
	"syscall"
	"testing"

	"go.viam.com/test"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/logging"
	"go.viam.com/periphery/native"
	"go.viam.com/periphery/testutils/inject"
)

func TestBlink(t *testing.T) {
	led := inject.NewGPIOLevel(1)
	var (
		openedPath string
		requested  []uint32
		initial    byte
		closes     int
	)
	chip := &inject.GPIOChip{
		InfoFunc: func() (gpio.ChipInfo, error) {
			return gpio.ChipInfo{Name: "gpiochip0", Label: "1c20800.pinctrl", NumLines: 224}, nil
		},
		OpenLineFunc: func(offset uint32, output bool, value byte, opts gpio.LineOptions, consumer string) (gpio.LineConn, error) {
			test.That(t, output, test.ShouldBeTrue)
			requested = append(requested, offset)
			initial = value
			return led, nil
		},
		CloseFunc: func() error {
			closes++
			return nil
		},
	}
	prev := gpio.DefaultOpener
	gpio.DefaultOpener = gpio.OpenerFunc(func(path string) (gpio.ChipConn, error) {
		openedPath = path
		return chip, nil
	})
	defer func() { gpio.DefaultOpener = prev }()

	logger, logs := logging.NewObservedTestLogger(t)
	err := mainWithArgs(context.Background(), []string{"ledtest", "--on=1"}, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, openedPath, test.ShouldEqual, "/dev/gpiochip0")
	test.That(t, requested, test.ShouldResemble, []uint32{203})
	test.That(t, initial, test.ShouldEqual, 0)
	v, err := led.Value()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 1)
	test.That(t, closes, test.ShouldEqual, 1)

	test.That(t, logs.FilterMessage("Name: gpiochip0, label: 1c20800.pinctrl, lines: 224").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("LED on").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("LED off").Len(), test.ShouldEqual, 1)
}

func TestLineBusy(t *testing.T) {
	chip := &inject.GPIOChip{
		InfoFunc: func() (gpio.ChipInfo, error) { return gpio.ChipInfo{}, nil },
		OpenLineFunc: func(uint32, bool, byte, gpio.LineOptions, string) (gpio.LineConn, error) {
			return nil, syscall.EBUSY
		},
		CloseFunc: func() error { return nil },
	}
	prev := gpio.DefaultOpener
	gpio.DefaultOpener = inject.GPIOOpener(chip)
	defer func() { gpio.DefaultOpener = prev }()

	logger, logs := logging.NewObservedTestLogger(t)
	err := mainWithArgs(context.Background(), []string{"ledtest", "--chip=2", "--line=7"}, logger)
	test.That(t, native.Code(err), test.ShouldEqual, -int(syscall.EBUSY))
	test.That(t, err.Error(), test.ShouldContainSubstring, "/dev/gpiochip2")
	test.That(t, logs.FilterMessage("LED on").Len(), test.ShouldEqual, 0)
}
