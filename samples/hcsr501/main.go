// Package main reports motion from an HC-SR501 PIR sensor: its output goes high when motion is
// detected and low again once it stops.
package main

import (
	"context"
	"time"

	goutils "go.viam.com/utils"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/config"
	"go.viam.com/periphery/logging"
)

const timestampLayout = "01/02/2006 15:04:05"

var logger = logging.NewDebugLogger("hcsr501")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Chip      string `flag:"chip,default=/dev/gpiochip0,usage=GPIO chip device"`
	Line      int    `flag:"line,default=203,usage=GPIO line number"`
	Edge      string `flag:"edge,default=both,usage=edges to report (rising falling or both)"`
	TimeoutMs int    `flag:"timeout,default=300000,usage=milliseconds without an edge before stopping"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	edge, err := config.ParseEdge(argsParsed.Edge)
	if err != nil {
		return err
	}

	timeout := time.Duration(argsParsed.TimeoutMs) * time.Millisecond
	logger.Infof("HC-SR501 motion detector, timeout in %v", timeout)
	cfg := gpio.LoopConfig{
		Offset:   uint32(argsParsed.Line),
		Edge:     edge,
		Consumer: "hcsr501",
		Timeout:  timeout,
	}
	return gpio.EventLoop(ctx, argsParsed.Chip, cfg,
		func(ev gpio.LoopEvent, offset uint32, ts time.Time) (gpio.LoopAction, error) {
			switch ev {
			case gpio.LoopTimeout:
				logger.Info("Timeout")
				return gpio.LoopStop, nil
			case gpio.LoopRisingEdge:
				logger.Infof("Motion detected %s", ts.Local().Format(timestampLayout))
			case gpio.LoopFallingEdge:
				logger.Infof("No motion       %s", ts.Local().Format(timestampLayout))
			}
			return gpio.LoopContinue, nil
		})
}
