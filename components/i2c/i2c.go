// Package i2c talks to devices on a Linux I2C bus through combined read/write transactions.
package i2c

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/periphery/native"
)

// Message flag bits, identical to the kernel's struct i2c_msg flags.
const (
	FlagRead        uint16 = 0x0001
	FlagTen         uint16 = 0x0010
	FlagRecvLen     uint16 = 0x0400
	FlagNoRdAck     uint16 = 0x0800
	FlagIgnoreNak   uint16 = 0x1000
	FlagRevDirAddr  uint16 = 0x2000
	FlagNoStart     uint16 = 0x4000
	FlagStop        uint16 = 0x8000
	maxMessageBytes        = math.MaxUint16
)

// A Message is one segment of a combined transaction. Buf is written out, or filled in when Flags
// carries FlagRead.
type Message struct {
	Addr  uint16
	Flags uint16
	Buf   []byte
}

// WriteMessage returns a message writing data to addr.
func WriteMessage(addr uint16, data ...byte) Message {
	return Message{Addr: addr, Buf: data}
}

// ReadMessage returns a message reading n bytes from addr. A negative n reads nothing.
func ReadMessage(addr uint16, n int) Message {
	return Message{Addr: addr, Flags: FlagRead, Buf: make([]byte, max(n, 0))}
}

// Conn is an open bus as provided by a backend.
type Conn interface {
	// Transfer runs all msgs as one transaction with repeated starts between them.
	Transfer(msgs []Message) error
	Close() error
}

// An Opener opens the bus at a device path.
type Opener interface {
	Open(device string) (Conn, error)
}

// OpenerFunc adapts a function to an Opener.
type OpenerFunc func(device string) (Conn, error)

// Open calls f.
func (f OpenerFunc) Open(device string) (Conn, error) {
	return f(device)
}

// DefaultOpener is used by Open.
var DefaultOpener Opener = Devfs{}

// Bus is an open I2C bus such as /dev/i2c-0. It is safe for concurrent use; transfers are
// serialized.
type Bus struct {
	device string
	conn   Conn
	lc     native.Lifecycle
}

// Open opens the bus at device with the default backend.
func Open(device string) (*Bus, error) {
	return OpenWith(DefaultOpener, device)
}

// OpenWith opens the bus at device through opener.
func OpenWith(opener Opener, device string) (*Bus, error) {
	conn, err := opener.Open(device)
	if err != nil {
		return nil, native.FromError("i2c_open", device, err)
	}
	return &Bus{device: device, conn: conn}, nil
}

// Device returns the path the bus was opened at.
func (b *Bus) Device() string {
	return b.device
}

// Transfer runs msgs as one combined transaction. Read messages have their buffers filled in.
func (b *Bus) Transfer(ctx context.Context, msgs ...Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return native.Invalid("i2c_transfer", b.device, "no messages to transfer")
	}
	for i, m := range msgs {
		if len(m.Buf) > maxMessageBytes {
			return native.Invalid("i2c_transfer", b.device, "message %d is %d bytes long", i, len(m.Buf))
		}
	}
	return b.lc.Do(func() error {
		return native.FromError("i2c_transfer", b.device, b.conn.Transfer(msgs))
	})
}

// WriteReg writes value to register reg of the device at addr.
func (b *Bus) WriteReg(ctx context.Context, addr uint16, reg, value byte) error {
	return b.Transfer(ctx, WriteMessage(addr, reg, value))
}

// ReadReg reads register reg of the device at addr: the register number is written and a single
// byte read back within the same transaction.
func (b *Bus) ReadReg(ctx context.Context, addr uint16, reg byte) (byte, error) {
	data, err := b.ReadArray(ctx, addr, reg, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// ReadWord reads the big-endian signed word held in registers reg (high byte) and reg+1 (low byte).
func (b *Bus) ReadWord(ctx context.Context, addr uint16, reg byte) (int16, error) {
	high, err := b.ReadReg(ctx, addr, reg)
	if err != nil {
		return 0, err
	}
	low, err := b.ReadReg(ctx, addr, reg+1)
	if err != nil {
		return 0, err
	}
	return CombineWord(high, low), nil
}

// ReadArray reads n consecutive registers starting at reg.
func (b *Bus) ReadArray(ctx context.Context, addr uint16, reg byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, native.Invalid("i2c_transfer", b.device, "cannot read %d bytes", n)
	}
	msgs := []Message{WriteMessage(addr, reg), ReadMessage(addr, n)}
	if err := b.Transfer(ctx, msgs...); err != nil {
		return nil, errors.Wrapf(err, "reading register %#02x of device %#02x", reg, addr)
	}
	return msgs[1].Buf, nil
}

// Close releases the bus. Closing more than once is allowed.
func (b *Bus) Close() error {
	return b.lc.Close(func() error {
		return native.FromError("i2c_close", b.device, b.conn.Close())
	})
}

// CombineWord joins two register bytes into a two's complement 16 bit value.
func CombineWord(high, low byte) int16 {
	return int16(uint16(high)<<8 | uint16(low))
}
