package cli

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/periphery/components/spi"
)

// SPIXferAction shifts the given bytes out and prints the bytes shifted in while doing so.
func SPIXferAction(c *cli.Context) (err error) {
	tx, err := parseBytes(c.Args().Slice())
	if err != nil {
		return err
	}
	board, err := boardFromContext(c)
	if err != nil {
		return err
	}
	device, cfg, err := spiDevice(board, c.String(spiFlagDevice))
	if err != nil {
		return err
	}
	if mode := c.Int(spiFlagMode); mode >= 0 {
		if mode > int(spi.Mode3) {
			return errors.Errorf("mode %d must be between 0 and 3", mode)
		}
		cfg.Mode = spi.Mode(mode)
	}
	if speed := c.Int(spiFlagSpeed); speed > 0 {
		cfg.MaxSpeedHz = uint32(speed)
	}

	dev, err := spi.OpenAdvanced(device, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, dev.Close())
	}()

	rx, err := dev.Xfer(c.Context, tx)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", hexBytes(rx))
	return nil
}
