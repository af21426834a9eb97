package main

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/periphery/components/i2c"
	"go.viam.com/periphery/logging"
	"go.viam.com/periphery/testutils/inject"
)

func useBus(t *testing.T, conn i2c.Conn) {
	t.Helper()
	prev := i2c.DefaultOpener
	i2c.DefaultOpener = inject.I2COpener(conn)
	t.Cleanup(func() { i2c.DefaultOpener = prev })
}

func TestReadSensor(t *testing.T) {
	regs := map[byte]byte{
		0x6b: 0x40,
		// 1 g on x, -1 g on z at ±2 g.
		0x3b: 0x40, 0x3c: 0x00,
		0x3f: 0xc0, 0x40: 0x00,
		// 131 LSB is 1 °/s at ±250 °/s.
		0x43: 0x00, 0x44: 0x83,
	}
	useBus(t, inject.I2CRegisterMap(0x68, regs))
	logger, logs := logging.NewObservedTestLogger(t)

	err := mainWithArgs(context.Background(), []string{"mpu6050", "--count=3", "--interval=1"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, regs[0x6b], test.ShouldEqual, 0)

	lines := logs.FilterMessageSnippet("°F").All()
	test.That(t, lines, test.ShouldHaveLength, 3)
	test.That(t, lines[0].Message, test.ShouldEqual,
		"97.8 °F | Accel x: +9.81, y: +0.00, z: -9.81 | Gyro  x: +1.00, y: +0.00, z: +0.00")
}

func TestAlternateAddress(t *testing.T) {
	useBus(t, inject.I2CRegisterMap(0x69, map[byte]byte{}))
	logger, logs := logging.NewObservedTestLogger(t)

	err := mainWithArgs(context.Background(), []string{"mpu6050", "--address=0x69", "--count=1"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessageSnippet("°F").Len(), test.ShouldEqual, 1)

	// Nothing answers at the default address.
	err = mainWithArgs(context.Background(), []string{"mpu6050", "--count=1"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBadArguments(t *testing.T) {
	logger := logging.NewTestLogger(t)
	err := mainWithArgs(context.Background(), []string{"mpu6050", "--address=sixty-eight"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bad address")
}

func TestCancelled(t *testing.T) {
	useBus(t, inject.I2CRegisterMap(0x68, map[byte]byte{}))
	logger, logs := logging.NewObservedTestLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mainWithArgs(ctx, []string{"mpu6050"}, logger)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, logs.FilterMessageSnippet("°F").Len(), test.ShouldEqual, 0)
}
