package cli

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/periphery/components/gpio"
	"go.viam.com/periphery/components/pwm"
	"go.viam.com/periphery/config"
)

// openPWM is swapped out by tests.
var openPWM = pwm.Open

func parsePolarity(s string) (pwm.Polarity, error) {
	switch s {
	case "normal":
		return pwm.Normal, nil
	case "inversed":
		return pwm.Inversed, nil
	}
	return 0, errors.Errorf("unknown polarity %q, expected normal or inversed", s)
}

// PWMSetAction configures a hardware PWM channel, or runs a software one on a GPIO line.
func PWMSetAction(c *cli.Context) error {
	duty := c.Float64(pwmFlagDuty)
	if duty < 0 || duty > 1 {
		return errors.Errorf("duty cycle %v must be between 0 and 1", duty)
	}
	board, err := boardFromContext(c)
	if err != nil {
		return err
	}
	if line := c.String(pwmFlagSoftware); line != "" {
		return softwarePWM(c, board, line, duty)
	}

	name := c.String(pwmFlagName)
	cfg, ok := board.PWMByName(name)
	if !ok {
		return unknownName("pwm", name, lo.Map(board.PWMs, func(c config.PWMConfig, _ int) string { return c.Name }))
	}
	ch, err := openPWM(cfg.Chip, cfg.Channel)
	if err != nil {
		return err
	}
	if c.Bool(pwmFlagDisable) {
		if err := multierr.Combine(ch.SetDutyCycle(0), ch.Disable(), ch.Close()); err != nil {
			return err
		}
		printf(c.App.Writer, "Disabled %s", cfg.Name)
		return nil
	}

	freq := c.Float64(pwmFlagFrequency)
	if freq == 0 {
		freq = cfg.FrequencyHz
	}
	if freq <= 0 {
		return errors.Errorf("no frequency given for %s and none in the board description", cfg.Name)
	}
	if s := c.String(pwmFlagPolarity); s != "" {
		polarity, err := parsePolarity(s)
		if err != nil {
			return err
		}
		if err := ch.SetPolarity(polarity); err != nil {
			return err
		}
	}
	if err := ch.SetPWM(freq, duty); err != nil {
		return err
	}
	if err := ch.Enable(); err != nil {
		return err
	}
	printf(c.App.Writer, "%s running at %v Hz with a %v duty cycle", cfg.Name, freq, duty)

	hold := c.Duration(pwmFlagHold)
	if hold <= 0 {
		// Left exported so the channel keeps running after we exit.
		return nil
	}
	goutils.SelectContextOrWait(c.Context, hold)
	return multierr.Combine(ch.SetDutyCycle(0), ch.Disable(), ch.Close())
}

// softwarePWM toggles a GPIO line for as long as --hold asks, since nothing keeps toggling it
// once we exit.
func softwarePWM(c *cli.Context, board *config.Board, name string, duty float64) (err error) {
	hold := c.Duration(pwmFlagHold)
	if hold <= 0 {
		return errors.Errorf("--%s is required with --%s", pwmFlagHold, pwmFlagSoftware)
	}
	freq := c.Float64(pwmFlagFrequency)
	if freq < 1 {
		return errors.Errorf("software pwm needs a --%s of at least 1 Hz", pwmFlagFrequency)
	}
	cfg, ok := board.GPIOByName(name)
	if !ok {
		return unknownName("gpio line", name, lo.Map(board.GPIOs, func(c config.GPIOConfig, _ int) string { return c.Name }))
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
	line, err := chip.RequestOutput(uint32(cfg.Line), lineConsumer, 0, gpio.LineOptions{ActiveLow: cfg.ActiveLow})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, line.Release())
	}()

	soft := gpio.NewSoftwarePWM(line, logger)
	if err := multierr.Combine(soft.SetPWMFreq(uint(freq)), soft.SetPWM(duty)); err != nil {
		return multierr.Combine(err, soft.Close())
	}
	printf(c.App.Writer, "%s toggling at %d Hz with a %v duty cycle for %v", cfg.Name, uint(freq), duty, hold)
	goutils.SelectContextOrWait(c.Context, hold)
	return soft.Close()
}
