package i2c

import (
	"github.com/pkg/errors"
	periphi2c "periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// PeriphOpener opens buses through periph.io's registry, accepting either a device path or a
// registered name such as "I2C1". Only what periph can express is supported: a write, a read, or
// a write followed by a read from the same address.
type PeriphOpener struct{}

// Open initializes the periph host drivers and opens the named bus.
func (PeriphOpener) Open(device string) (Conn, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing periph host drivers")
	}
	bus, err := i2creg.Open(device)
	if err != nil {
		return nil, err
	}
	return &periphConn{bus: bus}, nil
}

type periphConn struct {
	bus periphi2c.BusCloser
}

func (c *periphConn) Transfer(msgs []Message) error {
	for _, m := range msgs {
		if m.Flags&^FlagRead != 0 {
			return errors.Errorf("flags %#04x not supported by periph backend", m.Flags)
		}
	}
	switch {
	case len(msgs) == 1 && msgs[0].Flags&FlagRead != 0:
		return c.bus.Tx(msgs[0].Addr, nil, msgs[0].Buf)
	case len(msgs) == 1:
		return c.bus.Tx(msgs[0].Addr, msgs[0].Buf, nil)
	case len(msgs) == 2 && msgs[0].Flags&FlagRead == 0 && msgs[1].Flags&FlagRead != 0 &&
		msgs[0].Addr == msgs[1].Addr:
		return c.bus.Tx(msgs[0].Addr, msgs[0].Buf, msgs[1].Buf)
	}
	return errors.Errorf("periph backend cannot run a %d message transaction of this shape", len(msgs))
}

func (c *periphConn) Close() error {
	return c.bus.Close()
}
