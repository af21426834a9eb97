// Package spi provides full duplex transfers on Linux spidev devices.
package spi

import (
	"context"

	"go.viam.com/periphery/native"
)

// Mode is the SPI clock mode, CPOL in bit 1 and CPHA in bit 0.
type Mode uint8

// The four SPI modes.
const (
	Mode0 Mode = iota
	Mode1
	Mode2
	Mode3
)

// BitOrder selects which end of each word is shifted out first.
type BitOrder int

// Bit orders.
const (
	MSBFirst BitOrder = iota
	LSBFirst
)

func (o BitOrder) String() string {
	if o == LSBFirst {
		return "lsb"
	}
	return "msb"
}

// Extra mode flags, using the kernel's SPI_* values.
const (
	FlagCSHigh uint32 = 0x04
	Flag3Wire  uint32 = 0x10
	FlagLoop   uint32 = 0x20
	FlagNoCS   uint32 = 0x40
)

// Config describes how a device is clocked.
type Config struct {
	Mode        Mode
	MaxSpeedHz  uint32
	BitOrder    BitOrder
	BitsPerWord uint8
	ExtraFlags  uint32
}

func (cfg Config) validate(device string) error {
	if cfg.Mode > Mode3 {
		return native.Invalid("spi_open", device, "invalid mode %d (can be 0,1,2,3)", cfg.Mode)
	}
	if cfg.BitOrder != MSBFirst && cfg.BitOrder != LSBFirst {
		return native.Invalid("spi_open", device, "invalid bit order %d", cfg.BitOrder)
	}
	if cfg.BitsPerWord == 0 {
		return native.Invalid("spi_open", device, "bits per word cannot be 0")
	}
	return nil
}

// Conn is an open device as provided by a backend.
type Conn interface {
	// Tx shifts w out while filling r. Either may be nil.
	Tx(w, r []byte) error
	Close() error
}

// An Opener opens a device with the given configuration.
type Opener interface {
	Open(device string, cfg Config) (Conn, error)
}

// OpenerFunc adapts a function to an Opener.
type OpenerFunc func(device string, cfg Config) (Conn, error)

// Open calls f.
func (f OpenerFunc) Open(device string, cfg Config) (Conn, error) {
	return f(device, cfg)
}

// DefaultOpener is used by Open and OpenAdvanced.
var DefaultOpener Opener = Periph{}

// Device is an open SPI device such as /dev/spidev1.0.
type Device struct {
	device string
	cfg    Config
	conn   Conn
	lc     native.Lifecycle
}

// Open opens device with 8 bit words, most significant bit first.
func Open(device string, mode Mode, maxSpeedHz uint32) (*Device, error) {
	return OpenAdvanced(device, Config{Mode: mode, MaxSpeedHz: maxSpeedHz, BitOrder: MSBFirst, BitsPerWord: 8})
}

// OpenAdvanced opens device with a full configuration.
func OpenAdvanced(device string, cfg Config) (*Device, error) {
	return OpenWith(DefaultOpener, device, cfg)
}

// OpenWith opens device through opener.
func OpenWith(opener Opener, device string, cfg Config) (*Device, error) {
	if err := cfg.validate(device); err != nil {
		return nil, err
	}
	conn, err := opener.Open(device, cfg)
	if err != nil {
		return nil, native.FromError("spi_open", device, err)
	}
	return &Device{device: device, cfg: cfg, conn: conn}, nil
}

// Transfer shifts tx out while reading the same number of bytes into rx. Either buffer may be nil,
// in which case the length of the other one is used.
func (d *Device) Transfer(ctx context.Context, tx, rx []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx == nil && rx == nil {
		return native.Invalid("spi_transfer", d.device, "tx and rx buffer cannot both be nil")
	}
	if tx != nil && rx != nil && len(tx) != len(rx) {
		return native.Invalid("spi_transfer", d.device, "tx is %d bytes but rx is %d", len(tx), len(rx))
	}
	return d.lc.Do(func() error {
		return native.FromError("spi_transfer", d.device, d.conn.Tx(tx, rx))
	})
}

// Xfer shifts tx out and returns what was read back.
func (d *Device) Xfer(ctx context.Context, tx []byte) ([]byte, error) {
	rx := make([]byte, len(tx))
	if err := d.Transfer(ctx, tx, rx); err != nil {
		return nil, err
	}
	return rx, nil
}

// Device returns the path the device was opened at.
func (d *Device) Device() string {
	return d.device
}

// Mode returns the clock mode.
func (d *Device) Mode() Mode {
	return d.cfg.Mode
}

// MaxSpeed returns the maximum clock speed in Hz.
func (d *Device) MaxSpeed() uint32 {
	return d.cfg.MaxSpeedHz
}

// BitOrder returns the bit order.
func (d *Device) BitOrder() BitOrder {
	return d.cfg.BitOrder
}

// BitsPerWord returns the word size.
func (d *Device) BitsPerWord() uint8 {
	return d.cfg.BitsPerWord
}

// ExtraFlags returns the extra mode flags.
func (d *Device) ExtraFlags() uint32 {
	return d.cfg.ExtraFlags
}

// Close releases the device. Closing more than once is allowed.
func (d *Device) Close() error {
	return d.lc.Close(func() error {
		return native.FromError("spi_close", d.device, d.conn.Close())
	})
}
