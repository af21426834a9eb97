// Package main watches a button from a background worker while the main goroutine keeps busy.
package main

import (
	"context"
	"time"

	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/logging"
	"go.viam.com/periphery/utils"
)

const timestampLayout = "01/02/2006 15:04:05"

var logger = logging.NewDebugLogger("buttonthread")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Chip       int `flag:"chip,default=1,usage=GPIO chip number"`
	Line       int `flag:"line,default=3,usage=GPIO line number"`
	TimeoutMs  int `flag:"timeout,default=5000,usage=milliseconds the worker waits for an edge before giving up"`
	Iterations int `flag:"iterations,default=30,usage=how many times the main goroutine does its work"`
	IntervalMs int `flag:"interval,default=1000,usage=milliseconds each unit of main work takes"`
	WaitMs     int `flag:"wait,default=5000,usage=milliseconds to wait for the worker before stopping it"`
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

	line, err := chip.RequestEvents(uint32(argsParsed.Line), "buttonthread", gpio.BothEdges, gpio.LineOptions{})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, line.Release())
	}()

	done := make(chan struct{})
	watch := waitForEdges(line, time.Duration(argsParsed.TimeoutMs)*time.Millisecond, logger)
	workers := utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		defer close(done)
		watch(ctx)
	})
	defer workers.Stop()

	interval := time.Duration(argsParsed.IntervalMs) * time.Millisecond
	for i := 0; i < argsParsed.Iterations; i++ {
		select {
		case <-done:
			return nil
		default:
		}
		logger.Info("Main program doing stuff, press button")
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}

	select {
	case <-done:
		return nil
	default:
	}
	logger.Info("Waiting for thread to finish")
	if !workers.WaitTimeout(time.Duration(argsParsed.WaitMs) * time.Millisecond) {
		logger.Info("Thread still running, stopping it")
	}
	return nil
}

// waitForEdges reports edges until none arrives within timeout or ctx is done.
func waitForEdges(line *gpio.EventLine, timeout time.Duration, logger logging.Logger) func(context.Context) {
	return func(ctx context.Context) {
		logger.Info("Thread running")
		defer logger.Info("Thread exit")
		for {
			ready, err := line.EventWait(ctx, timeout)
			if err != nil {
				if ctx.Err() == nil {
					logger.Errorw("event wait failed", "error", err)
				}
				return
			}
			if !ready {
				logger.Info("Thread timed out")
				return
			}
			ev, err := line.EventRead(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Errorw("event read failed", "error", err)
				}
				return
			}
			if ev.Type == gpio.EventRising {
				logger.Infof("Rising  edge timestamp %s", ev.Timestamp.Local().Format(timestampLayout))
			} else {
				logger.Infof("Falling edge timestamp %s", ev.Timestamp.Local().Format(timestampLayout))
			}
		}
	}
}
