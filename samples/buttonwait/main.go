// Package main waits for a falling edge from a push button.
package main

import (
	"context"
	"time"

	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/logging"
)

const timestampLayout = "01/02/2006 15:04:05"

var logger = logging.NewDebugLogger("buttonwait")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Chip      int `flag:"chip,default=1,usage=GPIO chip number"`
	Line      int `flag:"line,default=3,usage=GPIO line number"`
	TimeoutMs int `flag:"timeout,default=5000,usage=milliseconds to wait for a press"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	chip, err := gpio.OpenChipByNumber(argsParsed.Chip)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, chip.Close())
	}()
	info, err := chip.Info()
	if err != nil {
		return err
	}
	logger.Infof("Name: %s, label: %s, lines: %d", info.Name, info.Label, info.NumLines)

	line, err := chip.RequestEvents(uint32(argsParsed.Line), "buttonwait", gpio.FallingEdge, gpio.LineOptions{})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, line.Release())
	}()

	timeout := time.Duration(argsParsed.TimeoutMs) * time.Millisecond
	logger.Infof("Press button within %v", timeout)
	ready, err := line.EventWait(ctx, timeout)
	if err != nil {
		return err
	}
	if !ready {
		logger.Info("Timed out")
		return nil
	}
	ev, err := line.EventRead(ctx)
	if err != nil {
		return err
	}
	if ev.Type == gpio.EventRising {
		logger.Infof("Rising edge timestamp %s", ev.Timestamp.Local().Format(timestampLayout))
	} else {
		logger.Infof("Falling edge timestamp %s", ev.Timestamp.Local().Format(timestampLayout))
	}
	return nil
}
