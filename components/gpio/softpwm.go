package gpio

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/periphery/logging"
	"go.viam.com/periphery/utils"
)

// SoftwarePWM toggles an output line from a background goroutine, for chips without a PWM
// controller behind the pin.
type SoftwarePWM struct {
	line    *Line
	workers utils.StoppableWorkers
	logger  logging.Logger

	mu              sync.Mutex
	generation      int
	pwmRunning      bool
	pwmFreqHz       uint
	pwmDutyCyclePct float64
}

// NewSoftwarePWM drives line. The line stays owned by the caller, but must not be set while the
// PWM is running.
func NewSoftwarePWM(line *Line, logger logging.Logger) *SoftwarePWM {
	return &SoftwarePWM{line: line, workers: utils.NewStoppableWorkers(), logger: logger}
}

// PWM returns the duty cycle, between 0 and 1.
func (pwm *SoftwarePWM) PWM() float64 {
	pwm.mu.Lock()
	defer pwm.mu.Unlock()
	return pwm.pwmDutyCyclePct
}

// SetPWM sets the duty cycle, between 0 and 1.
func (pwm *SoftwarePWM) SetPWM(dutyCyclePct float64) error {
	if dutyCyclePct < 0 || dutyCyclePct > 1 {
		return errors.Errorf("duty cycle %v must be between 0 and 1", dutyCyclePct)
	}
	pwm.mu.Lock()
	defer pwm.mu.Unlock()
	pwm.pwmDutyCyclePct = dutyCyclePct
	return pwm.startLocked()
}

// PWMFreq returns the frequency in Hz.
func (pwm *SoftwarePWM) PWMFreq() uint {
	pwm.mu.Lock()
	defer pwm.mu.Unlock()
	return pwm.pwmFreqHz
}

// SetPWMFreq sets the frequency in Hz.
func (pwm *SoftwarePWM) SetPWMFreq(freqHz uint) error {
	pwm.mu.Lock()
	defer pwm.mu.Unlock()
	pwm.pwmFreqHz = freqHz
	return pwm.startLocked()
}

// startLocked starts the toggling goroutine once both parameters are set, and stops it and drives
// the line low when either is cleared.
func (pwm *SoftwarePWM) startLocked() error {
	if pwm.pwmDutyCyclePct == 0 || pwm.pwmFreqHz == 0 {
		pwm.pwmRunning = false
		return pwm.line.SetValue(0)
	}
	if pwm.pwmRunning {
		return nil
	}
	pwm.pwmRunning = true
	pwm.generation++
	generation := pwm.generation
	pwm.workers.AddWorkers(func(ctx context.Context) {
		for pwm.halfCycle(ctx, generation, true) && pwm.halfCycle(ctx, generation, false) {
		}
	})
	return nil
}

// halfCycle drives the line and sleeps for its share of the period. It returns whether the loop
// started as generation should keep going.
func (pwm *SoftwarePWM) halfCycle(ctx context.Context, generation int, on bool) bool {
	pwm.mu.Lock()
	if !pwm.pwmRunning || pwm.generation != generation {
		pwm.mu.Unlock()
		return false
	}
	share := pwm.pwmDutyCyclePct
	freqHz := pwm.pwmFreqHz
	var value byte
	if on {
		value = 1
	} else {
		share = 1 - share
	}
	// A half with no share of the period is skipped so a full duty cycle never dips low.
	if share <= 0 {
		pwm.mu.Unlock()
		return ctx.Err() == nil
	}
	// A failed toggle does not end the loop; the next one may succeed.
	if err := pwm.line.SetValue(value); err != nil {
		pwm.logger.Debugw("software pwm toggle failed", "offset", pwm.line.Offset(), "error", err)
	}
	pwm.mu.Unlock()

	return goutils.SelectContextOrWait(ctx, time.Duration(float64(time.Second)*share/float64(freqHz)))
}

// Close stops toggling and leaves the line low.
func (pwm *SoftwarePWM) Close() error {
	pwm.mu.Lock()
	pwm.pwmRunning = false
	pwm.mu.Unlock()
	pwm.workers.Stop()
	return pwm.line.SetValue(0)
}
