// Package register implements byte-wide register access on I2C devices using
// the "write register index, then transfer data" idiom, and the command word
// used to describe such transfers on a control channel.
package register

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/barometer"
)

// Address names one byte-wide register of a device.
type Address byte

type Config struct {
	Name string
}

type Option func(*Config)

// WithName sets the device name used in error messages and logs.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// Access performs register operations on one device. A single Access must be
// shared by everything talking to the same physical device: it serializes
// every logical operation so the index write of one caller never lands between
// the phases of another.
type Access struct {
	mx        sync.Mutex
	transport barometer.I2CBus
	combined  barometer.Transactor
	address   byte
	name      string
}

// NewAccess binds register operations to the device at the given 7-bit
// address. If the transport implements barometer.Transactor every read is a
// single combined transaction.
func NewAccess(trans barometer.I2CBus, address byte, opts ...Option) *Access {
	config := &Config{Name: "i2c"}
	for _, opt := range opts {
		opt(config)
	}
	a := &Access{
		transport: trans,
		address:   address,
		name:      config.Name,
	}
	if tx, ok := trans.(barometer.Transactor); ok {
		a.combined = tx
	}
	return a
}

func (a *Access) DeviceAddress() byte {
	return a.address
}

func (a *Access) Name() string {
	return a.name
}

// ReadRegister reads one register.
func (a *Access) ReadRegister(ctx context.Context, reg Address) (byte, error) {
	buf := make([]byte, 1)
	if err := a.read(ctx, "read", reg, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadRegisterPair reads reg and reg+1 and composes them little endian
// (low byte at the lower address).
func (a *Access) ReadRegisterPair(ctx context.Context, reg Address) (uint16, error) {
	buf := make([]byte, 2)
	if err := a.read(ctx, "read pair", reg, buf); err != nil {
		return 0, err
	}
	return uint16(buf[1])<<8 | uint16(buf[0]), nil
}

// ReadSequential reads n consecutive registers starting at reg. The first
// returned byte belongs to reg.
func (a *Access) ReadSequential(ctx context.Context, reg Address, n byte) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if err := a.read(ctx, "read sequential", reg, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadInto fills buf with consecutive registers starting at reg.
func (a *Access) ReadInto(ctx context.Context, reg Address, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return a.read(ctx, "read sequential", reg, buf)
}

// WriteRegister writes value to reg as one bus write of [reg, value].
func (a *Access) WriteRegister(ctx context.Context, reg Address, value byte) error {
	a.mx.Lock()
	defer a.mx.Unlock()
	slog.Debug("register write", "device", a.name, "reg", fmt.Sprintf("%#02x", byte(reg)), "value", fmt.Sprintf("%#02x", value))
	err := a.transport.WriteToAddr(ctx, a.address, []byte{byte(reg), value})
	if err != nil {
		return a.fail("write", reg, err)
	}
	return nil
}

func (a *Access) read(ctx context.Context, op string, reg Address, buf []byte) error {
	a.mx.Lock()
	defer a.mx.Unlock()
	slog.Debug("register "+op, "device", a.name, "reg", fmt.Sprintf("%#02x", byte(reg)), "len", len(buf))
	if a.combined != nil {
		err := a.combined.Tx(ctx, a.address, []byte{byte(reg)}, buf)
		if err != nil {
			return a.fail(op, reg, err)
		}
		return nil
	}
	// the transport cannot restart; both phases still run under the lock
	err := a.transport.WriteToAddr(ctx, a.address, []byte{byte(reg)})
	if err != nil {
		return a.fail(op+" (index)", reg, err)
	}
	err = a.transport.ReadFromAddr(ctx, a.address, buf)
	if err != nil {
		return a.fail(op+" (data)", reg, err)
	}
	return nil
}

func (a *Access) fail(op string, reg Address, err error) error {
	return &barometer.TransportError{
		Op:       a.name + ": " + op,
		Address:  a.address,
		Register: byte(reg),
		Err:      err,
	}
}
