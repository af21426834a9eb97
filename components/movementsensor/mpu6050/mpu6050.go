// Package mpu6050 reads an MPU-6050 6-axis accelerometer and gyroscope over I2C. A description of
// the I2C registers is at
// https://download.datasheets.com/pdfs/2015/3/19/8/3/59/59/invse_/manual/5rm-mpu-6000a-00v4.2.pdf
//
// The chip has two possible I2C addresses, which can be selected by wiring the AD0 pin to either
// hot or ground:
//   - if AD0 is wired to ground, it uses the default I2C address of 0x68
//   - if AD0 is wired to hot, it uses the alternate I2C address of 0x69
package mpu6050

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/periphery/components/i2c"
	"go.viam.com/periphery/logging"
)

// Addresses selected by the AD0 pin.
const (
	DefaultAddress   uint16 = 0x68
	AlternateAddress uint16 = 0x69
)

// Registers.
const (
	RegGyroConfig  byte = 0x1B
	RegAccelConfig byte = 0x1C
	RegAccelXOut   byte = 0x3B
	RegAccelYOut   byte = 0x3D
	RegAccelZOut   byte = 0x3F
	RegTempOut     byte = 0x41
	RegGyroXOut    byte = 0x43
	RegGyroYOut    byte = 0x45
	RegGyroZOut    byte = 0x47
	RegPowerMgmt1  byte = 0x6B
	RegWhoAmI      byte = 0x75
)

// StandardGravity in m/s².
const StandardGravity = 9.80665

// sleepBit is bit 6 of the power management register.
const sleepBit = 1 << 6

// AccelRange is the accelerometer full scale as written to RegAccelConfig.
type AccelRange byte

// Accelerometer ranges.
const (
	AccelRange2G  AccelRange = 0x00
	AccelRange4G  AccelRange = 0x08
	AccelRange8G  AccelRange = 0x10
	AccelRange16G AccelRange = 0x18
)

// G returns the range in g, or -1 for a value the chip does not define.
func (r AccelRange) G() int {
	switch r {
	case AccelRange2G:
		return 2
	case AccelRange4G:
		return 4
	case AccelRange8G:
		return 8
	case AccelRange16G:
		return 16
	}
	return -1
}

// lsbPerG is the sensitivity for the range, 0 when the range is unknown.
func (r AccelRange) lsbPerG() float64 {
	switch r {
	case AccelRange2G:
		return 16384
	case AccelRange4G:
		return 8192
	case AccelRange8G:
		return 4096
	case AccelRange16G:
		return 2048
	}
	return 0
}

// GyroRange is the gyroscope full scale as written to RegGyroConfig.
type GyroRange byte

// Gyroscope ranges.
const (
	GyroRange250  GyroRange = 0x00
	GyroRange500  GyroRange = 0x08
	GyroRange1000 GyroRange = 0x10
	GyroRange2000 GyroRange = 0x18
)

// DegreesPerSecond returns the range in °/s, or -1 for a value the chip does not define.
func (r GyroRange) DegreesPerSecond() int {
	switch r {
	case GyroRange250:
		return 250
	case GyroRange500:
		return 500
	case GyroRange1000:
		return 1000
	case GyroRange2000:
		return 2000
	}
	return -1
}

func (r GyroRange) lsbPerDegree() float64 {
	switch r {
	case GyroRange250:
		return 131
	case GyroRange500:
		return 65.5
	case GyroRange1000:
		return 32.8
	case GyroRange2000:
		return 16.4
	}
	return 0
}

// Vector is a reading on the three axes.
type Vector struct {
	X, Y, Z float64
}

// Readings is everything the chip measures, read in one go.
type Readings struct {
	TemperatureF float64
	// Acceleration is in m/s².
	Acceleration Vector
	// AngularVelocity is in °/s.
	AngularVelocity Vector
}

// Device is an MPU-6050 on an I2C bus.
type Device struct {
	handle i2c.Handle
	logger logging.Logger
}

// New returns the device behind handle. Nothing is sent to the chip.
func New(handle i2c.Handle, logger logging.Logger) *Device {
	return &Device{handle: handle, logger: logger}
}

// Probe checks that the chip answers WHO_AM_I with its default address, which it does whatever
// AD0 is wired to.
func (d *Device) Probe(ctx context.Context) error {
	id, err := d.handle.ReadByteData(ctx, RegWhoAmI)
	if err != nil {
		return errors.Wrapf(err, "can't read from I2C address %#02x", d.handle.Address())
	}
	if uint16(id) != DefaultAddress {
		return errors.Errorf("unexpected non-MPU6050 device at address %#02x: response %#02x", d.handle.Address(), id)
	}
	return nil
}

// Wake takes the chip out of sleep mode, which it starts in.
func (d *Device) Wake(ctx context.Context) error {
	return errors.Wrap(d.handle.WriteByteData(ctx, RegPowerMgmt1, 0), "unable to wake up MPU6050")
}

// Sleep puts the chip back in sleep mode.
func (d *Device) Sleep(ctx context.Context) error {
	return d.handle.WriteByteData(ctx, RegPowerMgmt1, sleepBit)
}

// TemperatureCelsius reads the on-chip thermometer.
func (d *Device) TemperatureCelsius(ctx context.Context) (float64, error) {
	raw, err := d.handle.ReadWordData(ctx, RegTempOut)
	if err != nil {
		return 0, err
	}
	// From the register map, section 4.18.
	return float64(raw)/340 + 36.53, nil
}

// TemperatureFahrenheit reads the on-chip thermometer.
func (d *Device) TemperatureFahrenheit(ctx context.Context) (float64, error) {
	c, err := d.TemperatureCelsius(ctx)
	if err != nil {
		return 0, err
	}
	return 1.8*c + 32, nil
}

// SetAccelRange changes the accelerometer range. The register is cleared first so no stale bits
// survive.
func (d *Device) SetAccelRange(ctx context.Context, r AccelRange) error {
	if err := d.handle.WriteByteData(ctx, RegAccelConfig, 0); err != nil {
		return err
	}
	return d.handle.WriteByteData(ctx, RegAccelConfig, byte(r))
}

// AccelRange reads the accelerometer range. Self-test bits left set make it read as unknown.
func (d *Device) AccelRange(ctx context.Context) (AccelRange, error) {
	raw, err := d.handle.ReadByteData(ctx, RegAccelConfig)
	return AccelRange(raw), err
}

// SetGyroRange changes the gyroscope range, clearing the register first.
func (d *Device) SetGyroRange(ctx context.Context, r GyroRange) error {
	if err := d.handle.WriteByteData(ctx, RegGyroConfig, 0); err != nil {
		return err
	}
	return d.handle.WriteByteData(ctx, RegGyroConfig, byte(r))
}

// GyroRange reads the gyroscope range.
func (d *Device) GyroRange(ctx context.Context) (GyroRange, error) {
	raw, err := d.handle.ReadByteData(ctx, RegGyroConfig)
	return GyroRange(raw), err
}

func (d *Device) readAxes(ctx context.Context, x, y, z byte) ([3]int16, error) {
	var raw [3]int16
	for i, reg := range []byte{x, y, z} {
		v, err := d.handle.ReadWordData(ctx, reg)
		if err != nil {
			return raw, err
		}
		raw[i] = v
	}
	return raw, nil
}

// Acceleration reads the accelerometer, scaled by the configured range, in g when inG is set and
// in m/s² otherwise.
func (d *Device) Acceleration(ctx context.Context, inG bool) (Vector, error) {
	raw, err := d.readAxes(ctx, RegAccelXOut, RegAccelYOut, RegAccelZOut)
	if err != nil {
		return Vector{}, err
	}
	r, err := d.AccelRange(ctx)
	if err != nil {
		return Vector{}, err
	}
	scale := r.lsbPerG()
	if scale == 0 {
		d.logger.Warnf("unknown accelerometer range %#02x, assuming ±2g", byte(r))
		scale = AccelRange2G.lsbPerG()
	}
	if !inG {
		scale /= StandardGravity
	}
	return Vector{X: float64(raw[0]) / scale, Y: float64(raw[1]) / scale, Z: float64(raw[2]) / scale}, nil
}

// AngularVelocity reads the gyroscope in °/s, scaled by the configured gyroscope range.
func (d *Device) AngularVelocity(ctx context.Context) (Vector, error) {
	raw, err := d.readAxes(ctx, RegGyroXOut, RegGyroYOut, RegGyroZOut)
	if err != nil {
		return Vector{}, err
	}
	r, err := d.GyroRange(ctx)
	if err != nil {
		return Vector{}, err
	}
	scale := r.lsbPerDegree()
	if scale == 0 {
		d.logger.Warnf("unknown gyroscope range %#02x, assuming ±250°/s", byte(r))
		scale = GyroRange250.lsbPerDegree()
	}
	return Vector{X: float64(raw[0]) / scale, Y: float64(raw[1]) / scale, Z: float64(raw[2]) / scale}, nil
}

// Read takes the temperature, acceleration in m/s² and angular velocity.
func (d *Device) Read(ctx context.Context) (Readings, error) {
	var r Readings
	var err error
	if r.TemperatureF, err = d.TemperatureFahrenheit(ctx); err != nil {
		return r, err
	}
	if r.Acceleration, err = d.Acceleration(ctx, false); err != nil {
		return r, err
	}
	r.AngularVelocity, err = d.AngularVelocity(ctx)
	return r, err
}
