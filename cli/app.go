// Package cli contains the periphctl command line interface.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

// Flags shared by several commands.
const (
	generalFlagConfig   = "config"
	generalFlagDebug    = "debug"
	generalFlagLogLevel = "log-level"

	i2cFlagBus    = "bus"
	i2cFlagFirst  = "first"
	i2cFlagLast   = "last"
	i2cFlagCount  = "count"
	i2cFlagPeriph = "periph"

	spiFlagDevice = "device"
	spiFlagMode   = "mode"
	spiFlagSpeed  = "speed"

	serialFlagPort    = "port"
	serialFlagBaud    = "baud"
	serialFlagRead    = "read"
	serialFlagTimeout = "timeout"

	gpioFlagLine      = "line"
	gpioFlagChip      = "chip"
	gpioFlagOffset    = "offset"
	gpioFlagActiveLow = "active-low"
	gpioFlagHold      = "hold"
	gpioFlagInterrupt = "interrupt"
	gpioFlagDuration  = "duration"

	pwmFlagName      = "pwm"
	pwmFlagFrequency = "frequency"
	pwmFlagDuty      = "duty"
	pwmFlagPolarity  = "polarity"
	pwmFlagDisable   = "disable"
	pwmFlagSoftware  = "software"
	pwmFlagHold      = "hold"
)

var app = &cli.App{
	Name:            "periphctl",
	Usage:           "poke at the I2C, SPI, serial, GPIO and PWM peripherals of a Linux board",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    generalFlagConfig,
			Aliases: []string{"c"},
			Usage:   "load the board description from `FILE` instead of using the built-in NanoPi Duo one",
		},
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  generalFlagLogLevel,
			Value: "info",
			Usage: "level background workers log at: debug, info, warn or error",
		},
	},
	Commands: []*cli.Command{
		{
			Name:            "i2c",
			Usage:           "work with I2C buses",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{
					Name:  "detect",
					Usage: "scan a bus for devices that acknowledge their address",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  i2cFlagBus,
							Value: "i2c0",
							Usage: "bus name from the board description, or a device path",
						},
						i2cPeriphFlag,
						&cli.StringFlag{
							Name:  i2cFlagFirst,
							Value: "0x03",
							Usage: "first address to probe",
						},
						&cli.StringFlag{
							Name:  i2cFlagLast,
							Value: "0x77",
							Usage: "last address to probe",
						},
					},
					Action: I2CDetectAction,
				},
				{
					Name:      "get",
					Usage:     "read registers of a device",
					ArgsUsage: "<address> <register>",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  i2cFlagBus,
							Value: "i2c0",
							Usage: "bus name from the board description, or a device path",
						},
						i2cPeriphFlag,
						&cli.IntFlag{
							Name:  i2cFlagCount,
							Value: 1,
							Usage: "number of consecutive registers to read",
						},
					},
					Action: I2CGetAction,
				},
				{
					Name:      "set",
					Usage:     "write registers of a device",
					ArgsUsage: "<address> <register> <byte>...",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  i2cFlagBus,
							Value: "i2c0",
							Usage: "bus name from the board description, or a device path",
						},
						i2cPeriphFlag,
					},
					Action: I2CSetAction,
				},
			},
		},
		{
			Name:            "spi",
			Usage:           "work with SPI devices",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{
					Name:      "xfer",
					Usage:     "shift bytes out and print what was shifted in",
					ArgsUsage: "<byte>...",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  spiFlagDevice,
							Value: "spi1",
							Usage: "SPI device name from the board description, or a device path",
						},
						&cli.IntFlag{
							Name:  spiFlagMode,
							Value: -1,
							Usage: "override the SPI mode (0-3)",
						},
						&cli.IntFlag{
							Name:  spiFlagSpeed,
							Usage: "override the maximum clock speed in Hz",
						},
					},
					Action: SPIXferAction,
				},
			},
		},
		{
			Name:            "serial",
			Usage:           "work with serial ports",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{
					Name:   "list",
					Usage:  "list the serial ports of this system",
					Action: SerialListAction,
				},
				{
					Name:      "xfer",
					Usage:     "write bytes and print what comes back",
					ArgsUsage: "<byte>...",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  serialFlagPort,
							Value: "uart1",
							Usage: "port name from the board description, or a device path",
						},
						&cli.IntFlag{
							Name:  serialFlagBaud,
							Usage: "override the baud rate",
						},
						&cli.IntFlag{
							Name:  serialFlagRead,
							Value: -1,
							Usage: "bytes to read back, defaults to as many as were written",
						},
						&cli.DurationFlag{
							Name:  serialFlagTimeout,
							Value: defaultSerialTimeout,
							Usage: "how long to wait for the bytes to come back",
						},
					},
					Action: SerialXferAction,
				},
			},
		},
		{
			Name:            "gpio",
			Usage:           "work with GPIO lines",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{
					Name:   "get",
					Usage:  "read the level of a line",
					Flags:  gpioLineFlags("button"),
					Action: GPIOGetAction,
				},
				{
					Name:      "set",
					Usage:     "drive an output line",
					ArgsUsage: "<0|1>",
					Flags:     gpioSetFlags(),
					Action:    GPIOSetAction,
				},
				{
					Name:  "watch",
					Usage: "print edges seen by a digital interrupt",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  gpioFlagInterrupt,
							Value: "motion",
							Usage: "digital interrupt name from the board description",
						},
						&cli.DurationFlag{
							Name:  gpioFlagDuration,
							Value: defaultWatchDuration,
							Usage: "how long to watch, or until interrupted",
						},
					},
					Action: GPIOWatchAction,
				},
			},
		},
		{
			Name:            "pwm",
			Usage:           "work with PWM channels",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{
					Name:  "set",
					Usage: "configure and enable a channel",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  pwmFlagName,
							Value: "pwm0",
							Usage: "PWM name from the board description",
						},
						&cli.Float64Flag{
							Name:  pwmFlagFrequency,
							Usage: "frequency in Hz, defaults to the one in the board description",
						},
						&cli.Float64Flag{
							Name:  pwmFlagDuty,
							Value: 0.5,
							Usage: "duty cycle between 0 and 1",
						},
						&cli.StringFlag{
							Name:  pwmFlagPolarity,
							Usage: "normal or inversed",
						},
						&cli.BoolFlag{
							Name:  pwmFlagDisable,
							Usage: "disable and unexport the channel instead",
						},
						&cli.StringFlag{
							Name:  pwmFlagSoftware,
							Usage: "toggle this GPIO line from software instead of using a PWM channel",
						},
						&cli.DurationFlag{
							Name:  pwmFlagHold,
							Usage: "keep running this long, then switch off (required with --software)",
						},
					},
					Action: PWMSetAction,
				},
			},
		},
		{
			Name:            "config",
			Usage:           "work with board descriptions",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{
					Name:   "show",
					Usage:  "validate the board description and print it",
					Action: ConfigShowAction,
				},
			},
		},
	},
}

var i2cPeriphFlag = &cli.BoolFlag{
	Name:  i2cFlagPeriph,
	Usage: "open the bus through periph.io's registry, which also accepts names such as I2C1",
}

func gpioLineFlags(defaultLine string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  gpioFlagLine,
			Value: defaultLine,
			Usage: "line name from the board description",
		},
		&cli.StringFlag{
			Name:  gpioFlagChip,
			Usage: "chip device, together with --offset instead of --line",
		},
		&cli.IntFlag{
			Name:  gpioFlagOffset,
			Value: -1,
			Usage: "line offset on --chip",
		},
		&cli.BoolFlag{
			Name:  gpioFlagActiveLow,
			Usage: "treat the line as active low",
		},
	}
}

func gpioSetFlags() []cli.Flag {
	return append(gpioLineFlags("led"), &cli.DurationFlag{
		Name:  gpioFlagHold,
		Usage: "keep the line requested this long before releasing it",
	})
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
