// Package main turns an LED wired between 3.3 V and a GPIO line on, then off again. The line sinks
// the current, so driving it low lights the LED.
package main

import (
	"context"
	"time"

	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/logging"
)

var logger = logging.NewDebugLogger("ledtest")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Chip   int `flag:"chip,default=0,usage=GPIO chip number"`
	Line   int `flag:"line,default=203,usage=GPIO line number"`
	OnTime int `flag:"on,default=3000,usage=milliseconds to keep the LED on"`
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

	line, err := chip.RequestOutput(uint32(argsParsed.Line), "ledtest", 0, gpio.LineOptions{})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, line.Release())
	}()

	logger.Info("LED on")
	goutils.SelectContextOrWait(ctx, time.Duration(argsParsed.OnTime)*time.Millisecond)
	if err := line.SetValue(1); err != nil {
		return err
	}
	logger.Info("LED off")
	return nil
}
