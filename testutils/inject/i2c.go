package inject

import (
	"context"
	"sync"
	"syscall"

	"go.viam.com/periphery/components/i2c"
)

// I2CConn is an injected I2C backend connection.
type I2CConn struct {
	i2c.Conn
	TransferFunc func(msgs []i2c.Message) error
	CloseFunc    func() error

	mu           sync.Mutex
	transferCaps [][]i2c.Message
}

// Transfer calls the injected Transfer or the real version.
func (c *I2CConn) Transfer(msgs []i2c.Message) error {
	c.mu.Lock()
	c.transferCaps = append(c.transferCaps, msgs)
	c.mu.Unlock()
	if c.TransferFunc == nil {
		return c.Conn.Transfer(msgs)
	}
	return c.TransferFunc(msgs)
}

// TransferCap returns every transaction received by Transfer, and then clears them.
func (c *I2CConn) TransferCap() [][]i2c.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	caps := c.transferCaps
	c.transferCaps = nil
	return caps
}

// Close calls the injected Close or the real version.
func (c *I2CConn) Close() error {
	if c.CloseFunc == nil {
		return c.Conn.Close()
	}
	return c.CloseFunc()
}

// I2COpener returns an opener handing out conn for every device.
func I2COpener(conn i2c.Conn) i2c.Opener {
	return i2c.OpenerFunc(func(string) (i2c.Conn, error) { return conn, nil })
}

// I2CHandle is an injected I2C device handle.
type I2CHandle struct {
	i2c.Handle
	WriteFunc          func(ctx context.Context, tx []byte) error
	ReadFunc           func(ctx context.Context, count int) ([]byte, error)
	ReadByteDataFunc   func(ctx context.Context, register byte) (byte, error)
	WriteByteDataFunc  func(ctx context.Context, register, data byte) error
	ReadWordDataFunc   func(ctx context.Context, register byte) (int16, error)
	ReadBlockDataFunc  func(ctx context.Context, register byte, numBytes uint8) ([]byte, error)
	WriteBlockDataFunc func(ctx context.Context, register byte, data []byte) error
	AddressFunc        func() uint16
}

// Write calls the injected Write or the real version.
func (h *I2CHandle) Write(ctx context.Context, tx []byte) error {
	if h.WriteFunc == nil {
		return h.Handle.Write(ctx, tx)
	}
	return h.WriteFunc(ctx, tx)
}

// Read calls the injected Read or the real version.
func (h *I2CHandle) Read(ctx context.Context, count int) ([]byte, error) {
	if h.ReadFunc == nil {
		return h.Handle.Read(ctx, count)
	}
	return h.ReadFunc(ctx, count)
}

// ReadByteData calls the injected ReadByteData or the real version.
func (h *I2CHandle) ReadByteData(ctx context.Context, register byte) (byte, error) {
	if h.ReadByteDataFunc == nil {
		return h.Handle.ReadByteData(ctx, register)
	}
	return h.ReadByteDataFunc(ctx, register)
}

// WriteByteData calls the injected WriteByteData or the real version.
func (h *I2CHandle) WriteByteData(ctx context.Context, register, data byte) error {
	if h.WriteByteDataFunc == nil {
		return h.Handle.WriteByteData(ctx, register, data)
	}
	return h.WriteByteDataFunc(ctx, register, data)
}

// ReadWordData calls the injected ReadWordData or the real version.
func (h *I2CHandle) ReadWordData(ctx context.Context, register byte) (int16, error) {
	if h.ReadWordDataFunc == nil {
		return h.Handle.ReadWordData(ctx, register)
	}
	return h.ReadWordDataFunc(ctx, register)
}

// ReadBlockData calls the injected ReadBlockData or the real version.
func (h *I2CHandle) ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
	if h.ReadBlockDataFunc == nil {
		return h.Handle.ReadBlockData(ctx, register, numBytes)
	}
	return h.ReadBlockDataFunc(ctx, register, numBytes)
}

// WriteBlockData calls the injected WriteBlockData or the real version.
func (h *I2CHandle) WriteBlockData(ctx context.Context, register byte, data []byte) error {
	if h.WriteBlockDataFunc == nil {
		return h.Handle.WriteBlockData(ctx, register, data)
	}
	return h.WriteBlockDataFunc(ctx, register, data)
}

// Address calls the injected Address or the real version.
func (h *I2CHandle) Address() uint16 {
	if h.AddressFunc == nil {
		return h.Handle.Address()
	}
	return h.AddressFunc()
}

// I2CRegisterMap returns a connection answering at addr the way a register based device does: a
// write selects a register and stores any following bytes from there on, and a read returns
// consecutive registers from the selected one. Other addresses do not acknowledge.
func I2CRegisterMap(addr uint16, regs map[byte]byte) *I2CConn {
	var mu sync.Mutex
	return &I2CConn{
		TransferFunc: func(msgs []i2c.Message) error {
			mu.Lock()
			defer mu.Unlock()
			var reg byte
			for _, m := range msgs {
				if m.Addr != addr {
					return syscall.ENXIO
				}
				if m.Flags&i2c.FlagRead == 0 {
					reg = m.Buf[0]
					for i, b := range m.Buf[1:] {
						regs[reg+byte(i)] = b
					}
					continue
				}
				for i := range m.Buf {
					m.Buf[i] = regs[reg+byte(i)]
				}
			}
			return nil
		},
		CloseFunc: func() error { return nil },
	}
}
