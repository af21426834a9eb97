package cli

import (
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/config"
)

const (
	lineConsumer         = "periphctl"
	defaultWatchDuration = 10 * time.Second
)

// GPIOGetAction prints the level of a line.
func GPIOGetAction(c *cli.Context) error {
	board, err := boardFromContext(c)
	if err != nil {
		return err
	}
	line, err := gpioLine(c, board)
	if err != nil {
		return err
	}
	v, err := gpio.GetValue(line.Chip, uint32(line.Line), gpio.LineOptions{ActiveLow: line.ActiveLow}, lineConsumer)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%d", v)
	return nil
}

// GPIOSetAction drives a line, optionally holding it for a while before handing it back.
func GPIOSetAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("expected the value to set, 0 or 1")
	}
	value, err := parseUint("value", c.Args().First(), 1)
	if err != nil {
		return err
	}
	board, err := boardFromContext(c)
	if err != nil {
		return err
	}
	line, err := gpioLine(c, board)
	if err != nil {
		return err
	}
	var hold func()
	if d := c.Duration(gpioFlagHold); d > 0 {
		hold = func() { goutils.SelectContextOrWait(c.Context, d) }
	}
	if err := gpio.SetValue(line.Chip, uint32(line.Line), byte(value),
		gpio.LineOptions{ActiveLow: line.ActiveLow}, lineConsumer, hold); err != nil {
		return err
	}
	printf(c.App.Writer, "Set %s:%d to %d", line.Chip, line.Line, value)
	return nil
}

// GPIOWatchAction prints the edges a digital interrupt sees until the duration passes or the
// command is interrupted, then how many there were.
func GPIOWatchAction(c *cli.Context) (err error) {
	board, err := boardFromContext(c)
	if err != nil {
		return err
	}
	name := c.String(gpioFlagInterrupt)
	cfg, ok := board.DigitalInterruptByName(name)
	if !ok {
		return unknownName("digital interrupt", name, lo.Map(board.DigitalInterrupts,
			func(c config.DigitalInterruptConfig, _ int) string { return c.Name }))
	}
	edge, err := config.ParseEdge(cfg.Edge)
	if err != nil {
		return err
	}

	logger, err := loggerFromContext(c)
	if err != nil {
		return err
	}

	chip, err := gpio.OpenChip(cfg.Chip)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, chip.Close())
	}()
	di, err := chip.NewDigitalInterrupt(cfg.Name, uint32(cfg.Line), gpio.LineOptions{}, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, di.Close())
	}()
	ticks := make(chan gpio.Tick)
	di.AddCallback(ticks)
	defer di.RemoveCallback(ticks)

	printf(c.App.Writer, "Watching %s (%s:%d) for %s edges", cfg.Name, cfg.Chip, cfg.Line, edge)
	timer := time.NewTimer(c.Duration(gpioFlagDuration))
	defer timer.Stop()
	seen := 0
	for {
		select {
		case <-c.Context.Done():
			printf(c.App.Writer, "%d edges", seen)
			return nil
		case <-timer.C:
			printf(c.App.Writer, "%d edges", seen)
			return nil
		case t := <-ticks:
			if (t.High && edge&gpio.RisingEdge == 0) || (!t.High && edge&gpio.FallingEdge == 0) {
				continue
			}
			seen++
			kind := "Falling"
			if t.High {
				kind = "Rising "
			}
			ts := time.Unix(0, int64(t.TimestampNanosec)).Local().Format(timestampLayout)
			printf(c.App.Writer, "%s edge %s", kind, ts)
		}
	}
}
