// Package main ramps the brightness of an LED on a hardware PWM channel up and down.
package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/periphery/components/pwm"
	"go.viam.com/periphery/logging"
)

var logger = logging.NewDebugLogger("ledflash")

// openChannel is swapped out by tests.
var openChannel = pwm.Open

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Chip     int `flag:"chip,default=0,usage=PWM chip number"`
	Channel  int `flag:"channel,default=0,usage=PWM channel number"`
	PeriodNs int `flag:"period,default=1000,usage=period in nanoseconds"`
	Step     int `flag:"step,default=10,usage=duty cycle change per step in nanoseconds"`
	SleepMs  int `flag:"sleep,default=5,usage=milliseconds between steps"`
	Cycles   int `flag:"cycles,default=10,usage=number of up and down ramps"`
}

type ramp struct {
	period uint64
	start  int64
	inc    int64
	count  int
	sleep  time.Duration
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.PeriodNs <= 0 || argsParsed.Step <= 0 || argsParsed.Step > argsParsed.PeriodNs {
		return errors.Errorf("period %d and step %d must be positive, with step no larger than period",
			argsParsed.PeriodNs, argsParsed.Step)
	}

	ch, err := openChannel(argsParsed.Chip, argsParsed.Channel)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err,
			ch.SetDutyCycle(0),
			ch.SetPeriod(0),
			ch.Disable(),
			ch.Close())
	}()
	if err := ch.Enable(); err != nil {
		return err
	}

	period := int64(argsParsed.PeriodNs)
	steps := argsParsed.PeriodNs / argsParsed.Step
	sleep := time.Duration(argsParsed.SleepMs) * time.Millisecond
	up := ramp{period: uint64(period), start: 0, inc: int64(argsParsed.Step), count: steps, sleep: sleep}
	down := ramp{period: uint64(period), start: period, inc: -int64(argsParsed.Step), count: steps, sleep: sleep}
	logger.Infof("Flashing pwm%d on pwmchip%d, period %d ns", ch.Channel(), ch.Chip(), period)
	for i := 0; i < argsParsed.Cycles; i++ {
		for _, r := range []ramp{up, down} {
			if err := changeBrightness(ctx, ch, r); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

// changeBrightness sets the period, then steps the duty cycle from r.start by r.inc.
func changeBrightness(ctx context.Context, ch *pwm.Channel, r ramp) error {
	if err := ch.SetPeriod(r.period); err != nil {
		return err
	}
	duty := r.start
	for i := 0; i < r.count; i++ {
		if err := ch.SetDutyCycle(uint64(duty)); err != nil {
			return err
		}
		if !goutils.SelectContextOrWait(ctx, r.sleep) {
			return ctx.Err()
		}
		duty += r.inc
	}
	return nil
}
