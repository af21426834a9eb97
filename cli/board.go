package cli

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/components/spi"
	"go.viam.com/periphery/config"
)

// boardFromContext loads the board description named by --config, or the built-in one.
func boardFromContext(c *cli.Context) (*config.Board, error) {
	path := c.String(generalFlagConfig)
	if path == "" {
		return config.Default(), nil
	}
	return config.Read(path)
}

// isPath tells device paths from names in the board description.
func isPath(name string) bool {
	return strings.Contains(name, "/")
}

func unknownName(kind, name string, known []string) error {
	if len(known) == 0 {
		return errors.Errorf("no %s named %q: the board description has none", kind, name)
	}
	return errors.Errorf("no %s named %q, expected one of %s", kind, name, strings.Join(known, ", "))
}

func i2cBusDevice(board *config.Board, name string) (string, error) {
	if isPath(name) {
		return name, nil
	}
	if cfg, ok := board.I2CByName(name); ok {
		return cfg.Bus, nil
	}
	return "", unknownName("i2c bus", name, lo.Map(board.I2Cs, func(c config.I2CConfig, _ int) string { return c.Name }))
}

// spiDevice returns the device and how to clock it. Paths get mode 0 at 500 kHz.
func spiDevice(board *config.Board, name string) (string, spi.Config, error) {
	if isPath(name) {
		return name, spi.Config{Mode: spi.Mode0, MaxSpeedHz: 500000, BitOrder: spi.MSBFirst, BitsPerWord: 8}, nil
	}
	if cfg, ok := board.SPIByName(name); ok {
		return cfg.Device, cfg.SPI(), nil
	}
	return "", spi.Config{}, unknownName("spi device", name,
		lo.Map(board.SPIs, func(c config.SPIConfig, _ int) string { return c.Name }))
}

// serialDevice returns the device and its baud rate. Paths get 115200 baud.
func serialDevice(board *config.Board, name string) (string, int, error) {
	if isPath(name) {
		return name, 115200, nil
	}
	if cfg, ok := board.SerialByName(name); ok {
		return cfg.Device, cfg.BaudRate, nil
	}
	return "", 0, unknownName("serial port", name,
		lo.Map(board.Serials, func(c config.SerialConfig, _ int) string { return c.Name }))
}

// gpioLine resolves --chip and --offset when given, or --line otherwise.
func gpioLine(c *cli.Context, board *config.Board) (config.GPIOConfig, error) {
	if chip := c.String(gpioFlagChip); chip != "" {
		offset := c.Int(gpioFlagOffset)
		if offset < 0 {
			return config.GPIOConfig{}, errors.Errorf("--%s is required with --%s", gpioFlagOffset, gpioFlagChip)
		}
		if n, err := cast.ToIntE(chip); err == nil {
			chip = gpio.ChipPath(n)
		}
		return config.GPIOConfig{Name: chip, Chip: chip, Line: offset, ActiveLow: c.Bool(gpioFlagActiveLow)}, nil
	}
	name := c.String(gpioFlagLine)
	cfg, ok := board.GPIOByName(name)
	if !ok {
		return config.GPIOConfig{}, unknownName("gpio line", name,
			lo.Map(board.GPIOs, func(c config.GPIOConfig, _ int) string { return c.Name }))
	}
	if c.Bool(gpioFlagActiveLow) {
		cfg.ActiveLow = true
	}
	return cfg, nil
}

// parseUint parses decimal, 0x hex or 0 octal numbers no larger than limit.
func parseUint(what, s string, limit int) (int, error) {
	v, err := cast.ToIntE(s)
	if err != nil || v < 0 || v > limit {
		return 0, errors.Errorf("bad %s %q, expected a number from 0 to %#x", what, s, limit)
	}
	return v, nil
}

func parseAddress(s string) (uint16, error) {
	v, err := parseUint("address", s, 0x7f)
	return uint16(v), err
}

func parseByte(s string) (byte, error) {
	v, err := parseUint("byte", s, 0xff)
	return byte(v), err
}

func parseBytes(args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, errors.New("no bytes given")
	}
	var errs error
	data := lo.Map(args, func(s string, _ int) byte {
		b, err := parseByte(s)
		errs = multierr.Append(errs, err)
		return b
	})
	return data, errs
}
