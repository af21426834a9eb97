// Package main reads acceleration from an ADXL345.
package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/periphery/components/i2c"
	"go.viam.com/periphery/components/movementsensor/adxl345"
	"go.viam.com/periphery/config"
	"go.viam.com/periphery/logging"
)

var logger = logging.NewDebugLogger("adxl345")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Device     string `flag:"device,default=/dev/i2c-0,usage=I2C device"`
	Address    string `flag:"address,default=0x53,usage=ADXL345 address"`
	GRange     int    `flag:"range,default=2,usage=range in g (2 4 8 or 16)"`
	DataRateHz int    `flag:"rate,default=100,usage=output data rate in Hz"`
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
	cfg := config.ADXL345Config{
		I2CBus:     argsParsed.Device,
		GRange:     argsParsed.GRange,
		DataRateHz: float64(argsParsed.DataRateHz),
	}
	if _, err := cfg.Validate("adxl345"); err != nil {
		return err
	}
	rate, err := cfg.DataRate()
	if err != nil {
		return err
	}
	return readSensor(ctx, argsParsed.Device, addr, cfg.Range(), rate, argsParsed.Count,
		time.Duration(argsParsed.IntervalMs)*time.Millisecond, logger)
}

func readSensor(
	ctx context.Context,
	device string,
	addr uint16,
	r adxl345.Range,
	rate adxl345.DataRate,
	count int,
	interval time.Duration,
	logger logging.Logger,
) (err error) {
	bus, err := i2c.Open(device)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, bus.Close())
	}()

	sensor := adxl345.New(bus.Handle(addr), logger)
	if err := sensor.Probe(ctx); err != nil {
		logger.Info("Not ADXL345?")
		return err
	}
	if err := sensor.Start(ctx, r, rate); err != nil {
		return err
	}
	gotRange, err := sensor.Range(ctx)
	if err != nil {
		return err
	}
	gotRate, err := sensor.DataRate(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Range = %d (±%dg), data rate = %d (%v Hz)", gotRange, gotRange.G(), gotRate, gotRate.Hz())
	for i := 0; i < count; i++ {
		sample, err := sensor.Read(ctx)
		if err != nil {
			return err
		}
		logger.Infof("x: %04d, y: %04d, z: %04d", sample.X, sample.Y, sample.Z)
		if i < count-1 && !goutils.SelectContextOrWait(ctx, interval) {
			return nil
		}
	}
	return nil
}
