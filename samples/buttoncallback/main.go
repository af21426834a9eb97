// Package main reports button presses and releases from a callback until no edge arrives for a
// while.
package main

import (
	"context"
	"time"

	goutils "go.viam.com/utils"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/logging"
)

const timestampLayout = "01/02/2006 15:04:05"

var logger = logging.NewDebugLogger("buttoncallback")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Chip      string `flag:"chip,default=/dev/gpiochip1,usage=GPIO chip device"`
	Line      int    `flag:"line,default=3,usage=GPIO line number"`
	TimeoutMs int    `flag:"timeout,default=10000,usage=milliseconds without an edge before stopping"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	timeout := time.Duration(argsParsed.TimeoutMs) * time.Millisecond
	logger.Infof("Press and release button, timeout in %v", timeout)
	cfg := gpio.LoopConfig{
		Offset:   uint32(argsParsed.Line),
		Edge:     gpio.BothEdges,
		Consumer: "buttoncallback",
		Timeout:  timeout,
	}
	return gpio.EventLoop(ctx, argsParsed.Chip, cfg, buttonHandler(logger))
}

func buttonHandler(logger logging.Logger) gpio.EventHandler {
	return func(ev gpio.LoopEvent, offset uint32, ts time.Time) (gpio.LoopAction, error) {
		switch ev {
		case gpio.LoopTimeout:
			logger.Info("Timeout")
			return gpio.LoopStop, nil
		case gpio.LoopRisingEdge:
			logger.Infof("Rising  edge timestamp %s", ts.Local().Format(timestampLayout))
		case gpio.LoopFallingEdge:
			logger.Infof("Falling edge timestamp %s", ts.Local().Format(timestampLayout))
		}
		return gpio.LoopContinue, nil
	}
}
