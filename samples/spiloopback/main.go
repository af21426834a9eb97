// Package main sends a buffer through an SPI device with MOSI wired to MISO and prints the first
// and last byte that came back.
package main

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/periphery/components/spi"
	"go.viam.com/periphery/logging"
)

var logger = logging.NewDebugLogger("spiloopback")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Device     string `flag:"device,default=/dev/spidev1.0,usage=SPI device"`
	MaxSpeedHz int    `flag:"speed,default=500000,usage=max clock speed in Hz"`
	Mode       int    `flag:"mode,default=0,usage=SPI mode (0-3)"`
	Size       int    `flag:"size,default=128,usage=bytes to transfer"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Size < 2 {
		return errors.Errorf("size must be at least 2, got %d", argsParsed.Size)
	}
	if argsParsed.MaxSpeedHz <= 0 || argsParsed.Mode < 0 || argsParsed.Mode > int(spi.Mode3) {
		return errors.Errorf("invalid speed %d or mode %d", argsParsed.MaxSpeedHz, argsParsed.Mode)
	}

	dev, err := spi.Open(argsParsed.Device, spi.Mode(argsParsed.Mode), uint32(argsParsed.MaxSpeedHz))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, dev.Close())
	}()

	tx := make([]byte, argsParsed.Size)
	tx[0] = 0xff
	tx[len(tx)-1] = 0x80
	rx, err := dev.Xfer(ctx, tx)
	if err != nil {
		return err
	}
	logger.Infof("%02X, %02X", rx[0], rx[len(rx)-1])
	return nil
}
