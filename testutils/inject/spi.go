package inject

import (
	"go.viam.com/periphery/components/spi"
)

// SPIConn is an injected SPI backend connection.
type SPIConn struct {
	spi.Conn
	TxFunc    func(w, r []byte) error
	CloseFunc func() error
}

// Tx calls the injected Tx or the real version.
func (c *SPIConn) Tx(w, r []byte) error {
	if c.TxFunc == nil {
		return c.Conn.Tx(w, r)
	}
	return c.TxFunc(w, r)
}

// Close calls the injected Close or the real version.
func (c *SPIConn) Close() error {
	if c.CloseFunc == nil {
		return c.Conn.Close()
	}
	return c.CloseFunc()
}

// SPIOpener returns an opener handing out conn for every device and recording the configuration
// it was asked for into cfg when cfg is not nil.
func SPIOpener(conn spi.Conn, cfg *spi.Config) spi.Opener {
	return spi.OpenerFunc(func(device string, c spi.Config) (spi.Conn, error) {
		if cfg != nil {
			*cfg = c
		}
		return conn, nil
	})
}

// SPILoopback returns a connection that echoes every byte written back into the read buffer, like
// a device with MOSI wired to MISO.
func SPILoopback() *SPIConn {
	return &SPIConn{
		TxFunc: func(w, r []byte) error {
			copy(r, w)
			return nil
		},
		CloseFunc: func() error { return nil },
	}
}
