package spi

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/physic"
	periphspi "periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Periph opens devices through periph.io's registry, by path ("/dev/spidev1.0") or name ("SPI1.0").
type Periph struct{}

// Open initializes the periph host drivers and connects to the named port.
func (Periph) Open(device string, cfg Config) (Conn, error) {
	mode, err := periphMode(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing periph host drivers")
	}
	port, err := spireg.Open(device)
	if err != nil {
		return nil, err
	}
	conn, err := port.Connect(physic.Frequency(cfg.MaxSpeedHz)*physic.Hertz, mode, int(cfg.BitsPerWord))
	if err != nil {
		return nil, multierr.Combine(err, port.Close())
	}
	return &periphConn{port: port, conn: conn}, nil
}

// periphMode translates cfg to periph's mode bits. Flags periph cannot express are rejected.
func periphMode(cfg Config) (periphspi.Mode, error) {
	mode := periphspi.Mode(cfg.Mode)
	if cfg.BitOrder == LSBFirst {
		mode |= periphspi.LSBFirst
	}
	flags := cfg.ExtraFlags
	if flags&Flag3Wire != 0 {
		mode |= periphspi.HalfDuplex
		flags &^= Flag3Wire
	}
	if flags&FlagNoCS != 0 {
		mode |= periphspi.NoCS
		flags &^= FlagNoCS
	}
	if flags != 0 {
		return 0, errors.Errorf("extra flags %#x not supported by periph backend", flags)
	}
	return mode, nil
}

type periphConn struct {
	port periphspi.PortCloser
	conn periphspi.Conn
}

func (c *periphConn) Tx(w, r []byte) error {
	return c.conn.Tx(w, r)
}

func (c *periphConn) Close() error {
	return c.port.Close()
}
