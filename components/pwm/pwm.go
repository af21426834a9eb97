// Package pwm drives hardware PWM channels through the Linux sysfs interface
// (/sys/class/pwm/pwmchipN/pwmM).
package pwm

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/periphery/native"
	"go.viam.com/periphery/utils"
)

// sysfsRoot is where PWM chips are exposed. It is a variable so tests can point it at a temp dir.
var sysfsRoot = "/sys/class/pwm"

// exportTimeout bounds how long Open waits for udev to create and chmod a freshly exported channel.
var exportTimeout = time.Second

// Polarity is the level a channel holds during the active part of the period.
type Polarity int

// Polarities.
const (
	Normal Polarity = iota
	Inversed
)

func (p Polarity) String() string {
	if p == Inversed {
		return "inversed"
	}
	return "normal"
}

// Channel is an exported PWM channel.
type Channel struct {
	chip     int
	channel  int
	chipPath string
	linePath string
	lc       native.Lifecycle
}

// Open exports channel of chip and waits for it to become usable.
func Open(chip, channel int) (*Channel, error) {
	return OpenAt(sysfsRoot, chip, channel)
}

// OpenAt is Open for a pwm class directory mounted somewhere other than /sys/class/pwm.
func OpenAt(root string, chip, channel int) (*Channel, error) {
	if chip < 0 || channel < 0 {
		return nil, native.Invalid("pwm_open", "", "invalid chip %d or channel %d", chip, channel)
	}
	chipPath := filepath.Join(root, fmt.Sprintf("pwmchip%d", chip))
	pwm := &Channel{
		chip:     chip,
		channel:  channel,
		chipPath: chipPath,
		linePath: filepath.Join(chipPath, fmt.Sprintf("pwm%d", channel)),
	}
	if _, err := os.Stat(pwm.linePath); err == nil {
		return pwm, nil
	}
	if err := writeValue(filepath.Join(chipPath, "export"), strconv.Itoa(channel)); err != nil {
		return nil, native.FromError("pwm_open", chipPath, errors.Wrap(err, "exporting channel"))
	}
	guard := utils.NewGuard(func() {
		//nolint:errcheck
		writeValue(filepath.Join(chipPath, "unexport"), strconv.Itoa(channel))
	})
	defer guard.OnFail()
	if err := waitWritable(filepath.Join(pwm.linePath, "period"), exportTimeout); err != nil {
		return nil, native.FromError("pwm_open", chipPath, err)
	}
	guard.Success()
	return pwm, nil
}

// waitWritable polls until path can be opened for writing.
func waitWritable(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err == nil {
			return f.Close()
		}
		if time.Now().After(deadline) {
			return errors.Wrap(err, "waiting for exported channel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func writeValue(path, value string) error {
	// The mode only matters if the file needs to be created, which sysfs never does.
	return os.WriteFile(path, []byte(value), 0o660)
}

func readValue(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (pwm *Channel) write(op, attr, value string) error {
	return pwm.lc.Do(func() error {
		return native.FromError(op, pwm.linePath, writeValue(filepath.Join(pwm.linePath, attr), value))
	})
}

func (pwm *Channel) read(op, attr string) (string, error) {
	var value string
	err := pwm.lc.Do(func() error {
		var err error
		value, err = readValue(filepath.Join(pwm.linePath, attr))
		return native.FromError(op, pwm.linePath, err)
	})
	return value, err
}

func (pwm *Channel) readUint(op, attr string) (uint64, error) {
	s, err := pwm.read(op, attr)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, native.FromError(op, pwm.linePath, err)
	}
	return v, nil
}

// Chip returns the chip number.
func (pwm *Channel) Chip() int {
	return pwm.chip
}

// Channel returns the channel number.
func (pwm *Channel) Channel() int {
	return pwm.channel
}

// Enable starts the output.
func (pwm *Channel) Enable() error {
	return pwm.write("pwm_enable", "enable", "1")
}

// Disable stops the output.
func (pwm *Channel) Disable() error {
	return pwm.write("pwm_disable", "enable", "0")
}

// Enabled reports whether the output is running.
func (pwm *Channel) Enabled() (bool, error) {
	v, err := pwm.readUint("pwm_get_enabled", "enable")
	return v != 0, err
}

// SetPolarity sets the polarity. Most controllers only allow this while disabled.
func (pwm *Channel) SetPolarity(p Polarity) error {
	if p != Normal && p != Inversed {
		return native.Invalid("pwm_set_polarity", pwm.linePath, "invalid polarity %d", p)
	}
	return pwm.write("pwm_set_polarity", "polarity", p.String())
}

// Polarity reads the polarity back.
func (pwm *Channel) Polarity() (Polarity, error) {
	s, err := pwm.read("pwm_get_polarity", "polarity")
	if err != nil {
		return Normal, err
	}
	switch s {
	case "normal":
		return Normal, nil
	case "inversed":
		return Inversed, nil
	}
	return Normal, native.Invalid("pwm_get_polarity", pwm.linePath, "unknown polarity %q", s)
}

// SetPeriod sets the period in nanoseconds. It must not be shorter than the duty cycle.
func (pwm *Channel) SetPeriod(ns uint64) error {
	return pwm.write("pwm_set_period", "period", strconv.FormatUint(ns, 10))
}

// Period returns the period in nanoseconds.
func (pwm *Channel) Period() (uint64, error) {
	return pwm.readUint("pwm_get_period", "period")
}

// SetDutyCycle sets the active time per period in nanoseconds. It must not exceed the period.
func (pwm *Channel) SetDutyCycle(ns uint64) error {
	return pwm.write("pwm_set_duty_cycle", "duty_cycle", strconv.FormatUint(ns, 10))
}

// DutyCycle returns the active time per period in nanoseconds.
func (pwm *Channel) DutyCycle() (uint64, error) {
	return pwm.readUint("pwm_get_duty_cycle", "duty_cycle")
}

// SetPWM sets the frequency and the duty cycle as a fraction between 0 and 1 together. The writes
// are ordered so the duty cycle never exceeds the period in between.
func (pwm *Channel) SetPWM(freqHz, dutyCyclePct float64) error {
	if freqHz <= 0 || math.IsInf(freqHz, 0) || math.IsNaN(freqHz) {
		return native.Invalid("pwm_set_frequency", pwm.linePath, "invalid frequency %v", freqHz)
	}
	if dutyCyclePct < 0 || dutyCyclePct > 1 || math.IsNaN(dutyCyclePct) {
		return native.Invalid("pwm_set_duty_cycle", pwm.linePath, "duty cycle %v must be between 0 and 1", dutyCyclePct)
	}
	period := math.Round(1e9 / freqHz)
	if period < 1 || period >= math.MaxUint64 {
		return native.Invalid("pwm_set_frequency", pwm.linePath, "frequency %v Hz gives a period out of range", freqHz)
	}
	periodNs := uint64(period)
	activeNs := uint64(math.Round(float64(periodNs) * dutyCyclePct))
	return pwm.setPeriodAndDuty(periodNs, activeNs)
}

func (pwm *Channel) setPeriodAndDuty(periodNs, activeNs uint64) error {
	current, err := pwm.DutyCycle()
	if err != nil {
		return err
	}
	if periodNs < current {
		// The new period is smaller than the old active duration, so shrink that first.
		if err := pwm.SetDutyCycle(activeNs); err != nil {
			return err
		}
		return pwm.SetPeriod(periodNs)
	}
	if err := pwm.SetPeriod(periodNs); err != nil {
		return err
	}
	return pwm.SetDutyCycle(activeNs)
}

// SetFrequency changes the period, keeping the duty cycle fraction.
func (pwm *Channel) SetFrequency(freqHz float64) error {
	pct, err := pwm.DutyCyclePct()
	if err != nil {
		return err
	}
	return pwm.SetPWM(freqHz, pct)
}

// Frequency returns the frequency in Hz.
func (pwm *Channel) Frequency() (float64, error) {
	period, err := pwm.Period()
	if err != nil {
		return 0, err
	}
	if period == 0 {
		return 0, nil
	}
	return 1e9 / float64(period), nil
}

// SetDutyCyclePct sets the duty cycle as a fraction of the current period.
func (pwm *Channel) SetDutyCyclePct(dutyCyclePct float64) error {
	if dutyCyclePct < 0 || dutyCyclePct > 1 || math.IsNaN(dutyCyclePct) {
		return native.Invalid("pwm_set_duty_cycle", pwm.linePath, "duty cycle %v must be between 0 and 1", dutyCyclePct)
	}
	period, err := pwm.Period()
	if err != nil {
		return err
	}
	return pwm.SetDutyCycle(uint64(math.Round(float64(period) * dutyCyclePct)))
}

// DutyCyclePct returns the duty cycle as a fraction of the period, 0 while no period is set.
func (pwm *Channel) DutyCyclePct() (float64, error) {
	period, err := pwm.Period()
	if err != nil || period == 0 {
		return 0, err
	}
	duty, err := pwm.DutyCycle()
	if err != nil {
		return 0, err
	}
	return float64(duty) / float64(period), nil
}

// Close unexports the channel. Closing more than once is allowed.
func (pwm *Channel) Close() error {
	return pwm.lc.Close(func() error {
		return native.FromError("pwm_close", pwm.chipPath,
			writeValue(filepath.Join(pwm.chipPath, "unexport"), strconv.Itoa(pwm.channel)))
	})
}
