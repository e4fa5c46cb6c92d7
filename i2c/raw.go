package i2c

import (
	"context"
	"fmt"
	"sync"

	di2c "github.com/d2r2/go-i2c"
	"github.com/d2r2/go-logger"

	"github.com/mklimuk/barometer"
)

var _ barometer.CombinedBus = &RawBus{}

// RawBus uses the d2r2/go-i2c ioctl wrapper around /dev/i2c-N. A file
// descriptor is opened lazily for every device address.
type RawBus struct {
	mx      sync.Mutex
	bus     int
	devices map[byte]*di2c.I2C
	open    func(address byte, bus int) (*di2c.I2C, error)
}

func NewRawBus(bus int) *RawBus {
	// go-i2c logs every transfer at debug level
	logger.ChangePackageLogLevel("i2c", logger.InfoLevel)
	return &RawBus{
		bus:     bus,
		devices: make(map[byte]*di2c.I2C),
		open: func(address byte, bus int) (*di2c.I2C, error) {
			return di2c.NewI2C(address, bus)
		},
	}
}

func (b *RawBus) device(address byte) (*di2c.I2C, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if dev, ok := b.devices[address]; ok {
		return dev, nil
	}
	dev, err := b.open(address, b.bus)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c-%d device %x: %w", b.bus, address, err)
	}
	b.devices[address] = dev
	return dev, nil
}

func (b *RawBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	dev, err := b.device(address)
	if err != nil {
		return err
	}
	n, err := dev.ReadBytes(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from %x: %d of %d", address, n, len(buffer))
	}
	return nil
}

func (b *RawBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	dev, err := b.device(address)
	if err != nil {
		return err
	}
	_, err = dev.WriteBytes(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// Tx reads a register block with ReadRegBytes when w is a single register
// index and falls back to a write followed by a read otherwise.
func (b *RawBus) Tx(ctx context.Context, address byte, w, r []byte) error {
	if len(w) != 1 || len(r) == 0 {
		if err := b.WriteToAddr(ctx, address, w); err != nil {
			return err
		}
		if len(r) == 0 {
			return nil
		}
		return b.ReadFromAddr(ctx, address, r)
	}
	dev, err := b.device(address)
	if err != nil {
		return err
	}
	data, n, err := dev.ReadRegBytes(w[0], len(r))
	if err != nil {
		return fmt.Errorf("could not read register %#02x from %x: %w", w[0], address, err)
	}
	if n != len(r) {
		return fmt.Errorf("short read from %x: %d of %d", address, n, len(r))
	}
	copy(r, data)
	return nil
}

func (b *RawBus) Release(ctx context.Context) error {
	return nil
}

func (b *RawBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var first error
	for address, dev := range b.devices {
		if err := dev.Close(); err != nil && first == nil {
			first = fmt.Errorf("could not close device %x: %w", address, err)
		}
		delete(b.devices, address)
	}
	return first
}
