// Package main reads temperature, acceleration and rotation from an MPU-6050.
package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/periphery/components/i2c"
	"go.viam.com/periphery/components/movementsensor/mpu6050"
	"go.viam.com/periphery/logging"
)

var logger = logging.NewDebugLogger("mpu6050")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Device     string `flag:"device,default=/dev/i2c-0,usage=I2C device"`
	Address    string `flag:"address,default=0x68,usage=MPU-6050 address"`
	Count      int    `flag:"count,default=100,usage=number of readings"`
	IntervalMs int    `flag:"interval,default=500,usage=milliseconds between readings"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	addr, err := cast.ToUint16E(argsParsed.Address)
	if err != nil {
		return errors.Wrapf(err, "bad address %q", argsParsed.Address)
	}
	return readSensor(ctx, argsParsed.Device, addr, argsParsed.Count,
		time.Duration(argsParsed.IntervalMs)*time.Millisecond, logger)
}

func readSensor(ctx context.Context, device string, addr uint16, count int, interval time.Duration, logger logging.Logger) (err error) {
	bus, err := i2c.Open(device)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, bus.Close())
	}()

	sensor := mpu6050.New(bus.Handle(addr), logger)
	// The chip powers up asleep.
	if err := sensor.Wake(ctx); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		r, err := sensor.Read(ctx)
		if err != nil {
			return err
		}
		logger.Infof("%2.1f °F | Accel x: %+5.2f, y: %+5.2f, z: %+5.2f | Gyro  x: %+5.2f, y: %+5.2f, z: %+5.2f",
			r.TemperatureF,
			r.Acceleration.X, r.Acceleration.Y, r.Acceleration.Z,
			r.AngularVelocity.X, r.AngularVelocity.Y, r.AngularVelocity.Z)
		if i < count-1 && !goutils.SelectContextOrWait(ctx, interval) {
			return nil
		}
	}
	return nil
}
