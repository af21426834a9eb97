package i2c

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/periphery/native"
)

// Handle is a device at a fixed address on a bus. Sensor drivers take a Handle rather than a bus.
type Handle interface {
	Write(ctx context.Context, tx []byte) error
	Read(ctx context.Context, count int) ([]byte, error)

	ReadByteData(ctx context.Context, register byte) (byte, error)
	WriteByteData(ctx context.Context, register, data byte) error

	ReadWordData(ctx context.Context, register byte) (int16, error)

	ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error)
	WriteBlockData(ctx context.Context, register byte, data []byte) error

	// Address returns the device address.
	Address() uint16
}

// Handle returns the device at addr on this bus. The handle shares the bus and needs no closing
// of its own.
func (b *Bus) Handle(addr uint16) Handle {
	return &addrHandle{bus: b, addr: addr}
}

type addrHandle struct {
	bus  *Bus
	addr uint16
}

func (h *addrHandle) Address() uint16 {
	return h.addr
}

func (h *addrHandle) Write(ctx context.Context, tx []byte) error {
	return h.bus.Transfer(ctx, WriteMessage(h.addr, tx...))
}

func (h *addrHandle) Read(ctx context.Context, count int) ([]byte, error) {
	if count < 0 {
		return nil, native.Invalid("i2c_transfer", h.bus.device, "cannot read %d bytes", count)
	}
	msg := ReadMessage(h.addr, count)
	if err := h.bus.Transfer(ctx, msg); err != nil {
		return nil, err
	}
	return msg.Buf, nil
}

func (h *addrHandle) ReadByteData(ctx context.Context, register byte) (byte, error) {
	return h.bus.ReadReg(ctx, h.addr, register)
}

func (h *addrHandle) WriteByteData(ctx context.Context, register, data byte) error {
	return h.bus.WriteReg(ctx, h.addr, register, data)
}

func (h *addrHandle) ReadWordData(ctx context.Context, register byte) (int16, error) {
	return h.bus.ReadWord(ctx, h.addr, register)
}

func (h *addrHandle) ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
	return h.bus.ReadArray(ctx, h.addr, register, int(numBytes))
}

func (h *addrHandle) WriteBlockData(ctx context.Context, register byte, data []byte) error {
	if len(data) == 0 {
		return errors.Errorf("no data to write to register %#02x", register)
	}
	tx := make([]byte, 0, len(data)+1)
	tx = append(tx, register)
	tx = append(tx, data...)
	return h.Write(ctx, tx)
}

// A Register is a lightweight wrapper around a handle for a particular register.
type Register struct {
	Handle   Handle
	Register byte
}

// ReadByteData reads a byte from the register.
func (reg *Register) ReadByteData(ctx context.Context) (byte, error) {
	return reg.Handle.ReadByteData(ctx, reg.Register)
}

// WriteByteData writes a byte to the register.
func (reg *Register) WriteByteData(ctx context.Context, data byte) error {
	return reg.Handle.WriteByteData(ctx, reg.Register, data)
}

// Update replaces the bits of the register selected by mask with value, leaving the rest intact.
func (reg *Register) Update(ctx context.Context, mask, value byte) error {
	current, err := reg.ReadByteData(ctx)
	if err != nil {
		return err
	}
	return reg.WriteByteData(ctx, current&^mask|value&mask)
}
