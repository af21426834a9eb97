// Package adxl345 reads an ADXL345 3-axis digital accelerometer over I2C. The ±2/±4/±8/±16 g
// ranges are supported, always in full resolution mode.
package adxl345

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/periphery/components/i2c"
	"go.viam.com/periphery/logging"
)

// Addresses selected by the ALT ADDRESS pin.
const (
	DefaultAddress   uint16 = 0x53
	AlternateAddress uint16 = 0x1D
)

// DeviceID is the fixed content of RegDevID.
const DeviceID byte = 0xE5

// Registers.
const (
	RegDevID      byte = 0x00
	RegBWRate     byte = 0x2C
	RegPowerCtl   byte = 0x2D
	RegDataFormat byte = 0x31
	RegDataX0     byte = 0x32
)

const (
	measureBit = 0x08
	fullResBit = 0x08
	rangeBits  = 0x03
	rateBits   = 0x0f
	// formatBits are the DataFormat bits owned by SetRange: justify, full resolution and range.
	formatBits = 0x0f
)

// Range is the measurement range.
type Range byte

// Ranges.
const (
	Range2G Range = iota
	Range4G
	Range8G
	Range16G
)

// G returns the range in g.
func (r Range) G() int {
	return 2 << r
}

// DataRate is the output data rate code of RegBWRate.
type DataRate byte

// A few of the output data rates.
const (
	Rate25Hz   DataRate = 0x08
	Rate50Hz   DataRate = 0x09
	Rate100Hz  DataRate = 0x0A
	Rate200Hz  DataRate = 0x0B
	Rate400Hz  DataRate = 0x0C
	Rate800Hz  DataRate = 0x0D
	Rate1600Hz DataRate = 0x0E
	Rate3200Hz DataRate = 0x0F
)

// Hz returns the output data rate in Hz.
func (r DataRate) Hz() float64 {
	// Rate 0x0A is 100 Hz and each step doubles it.
	return math.Ldexp(100, int(r&rateBits)-int(Rate100Hz))
}

// Sample is one raw reading. In full resolution mode one unit is about 3.9 mg on every range.
type Sample struct {
	X, Y, Z int16
}

// Device is an ADXL345 on an I2C bus.
type Device struct {
	handle i2c.Handle
	format *i2c.Register
	logger logging.Logger
}

// New returns the device behind handle. Nothing is sent to the chip.
func New(handle i2c.Handle, logger logging.Logger) *Device {
	return &Device{
		handle: handle,
		format: &i2c.Register{Handle: handle, Register: RegDataFormat},
		logger: logger,
	}
}

// Probe checks the device id.
func (d *Device) Probe(ctx context.Context) error {
	id, err := d.handle.ReadByteData(ctx, RegDevID)
	if err != nil {
		return errors.Wrapf(err, "can't read from I2C address %#02x", d.handle.Address())
	}
	if id != DeviceID {
		return errors.Errorf("unexpected non-ADXL345 device at address %#02x: device id %#02x", d.handle.Address(), id)
	}
	return nil
}

// Enable starts measuring.
func (d *Device) Enable(ctx context.Context) error {
	return d.handle.WriteByteData(ctx, RegPowerCtl, measureBit)
}

// Standby stops measuring.
func (d *Device) Standby(ctx context.Context) error {
	return d.handle.WriteByteData(ctx, RegPowerCtl, 0)
}

// Range reads the configured range.
func (d *Device) Range(ctx context.Context) (Range, error) {
	v, err := d.format.ReadByteData(ctx)
	return Range(v & rangeBits), err
}

// SetRange sets the range and full resolution mode, keeping the interrupt and SPI bits of the
// data format register.
func (d *Device) SetRange(ctx context.Context, r Range) error {
	if r > Range16G {
		return errors.Errorf("invalid range %d", r)
	}
	return d.format.Update(ctx, formatBits, byte(r)|fullResBit)
}

// DataRate reads the output data rate.
func (d *Device) DataRate(ctx context.Context) (DataRate, error) {
	v, err := d.handle.ReadByteData(ctx, RegBWRate)
	return DataRate(v & rateBits), err
}

// SetDataRate sets the output data rate. The low power bit is cleared, the device always runs in
// normal mode.
func (d *Device) SetDataRate(ctx context.Context, rate DataRate) error {
	return d.handle.WriteByteData(ctx, RegBWRate, byte(rate)&rateBits)
}

// Read returns the latest sample, read as six little-endian bytes from RegDataX0.
func (d *Device) Read(ctx context.Context) (Sample, error) {
	data, err := d.handle.ReadBlockData(ctx, RegDataX0, 6)
	if err != nil {
		return Sample{}, err
	}
	if len(data) < 6 {
		return Sample{}, errors.Errorf("short read of %d bytes from data registers", len(data))
	}
	return Sample{
		X: int16(binary.LittleEndian.Uint16(data[0:2])),
		Y: int16(binary.LittleEndian.Uint16(data[2:4])),
		Z: int16(binary.LittleEndian.Uint16(data[4:6])),
	}, nil
}

// Start probes the chip, enables measurement and applies the range and data rate.
func (d *Device) Start(ctx context.Context, r Range, rate DataRate) error {
	if err := d.Probe(ctx); err != nil {
		return err
	}
	if err := d.Enable(ctx); err != nil {
		return err
	}
	if err := d.SetRange(ctx, r); err != nil {
		return err
	}
	if err := d.SetDataRate(ctx, rate); err != nil {
		return err
	}
	d.logger.Debugf("ADXL345 at %#02x measuring at ±%dg, %v Hz", d.handle.Address(), r.G(), rate.Hz())
	return nil
}
