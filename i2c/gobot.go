package i2c

import (
	"context"
	"fmt"
	"sync"

	gi2c "gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/barometer"
)

var _ barometer.CombinedBus = &GobotBus{}

// GobotBus talks to devices through a gobot I2C connector. One connection is
// opened per device address and kept until Close.
type GobotBus struct {
	mx          sync.Mutex
	connector   gi2c.Connector
	bus         int
	connections map[byte]gi2c.Connection
	finalize    func() error
}

type GobotBusOption func(*GobotBus)

// WithGobotBus selects the bus number. The connector default is used otherwise.
func WithGobotBus(bus int) GobotBusOption {
	return func(b *GobotBus) {
		b.bus = bus
	}
}

func NewGobotBus(connector gi2c.Connector, opts ...GobotBusOption) *GobotBus {
	b := &GobotBus{
		connector:   connector,
		bus:         connector.DefaultI2cBus(),
		connections: make(map[byte]gi2c.Connection),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewNanoPiBus connects the I2C adaptor of a FriendlyELEC NanoPi NEO.
func NewNanoPiBus(opts ...GobotBusOption) (*GobotBus, error) {
	npi := nanopi.NewNeoAdaptor()
	err := npi.I2cBusAdaptor.Connect()
	if err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	b := NewGobotBus(npi, opts...)
	b.finalize = npi.I2cBusAdaptor.Finalize
	return b, nil
}

func (b *GobotBus) connection(address byte) (gi2c.Connection, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if conn, ok := b.connections[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.bus)
	if err != nil {
		return nil, fmt.Errorf("could not open connection to %x on bus %d: %w", address, b.bus, err)
	}
	b.connections[address] = conn
	return conn, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from %x: %d of %d", address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	err = conn.WriteBytes(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// Tx maps a one byte register index followed by a read to an SMBus block
// read, which the kernel runs as a single combined transaction.
func (b *GobotBus) Tx(ctx context.Context, address byte, w, r []byte) error {
	if len(w) != 1 || len(r) == 0 {
		if err := b.WriteToAddr(ctx, address, w); err != nil {
			return err
		}
		if len(r) == 0 {
			return nil
		}
		return b.ReadFromAddr(ctx, address, r)
	}
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	err = conn.ReadBlockData(w[0], r)
	if err != nil {
		return fmt.Errorf("could not read block %#02x from %x: %w", w[0], address, err)
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var first error
	for address, conn := range b.connections {
		if err := conn.Close(); err != nil && first == nil {
			first = fmt.Errorf("could not close connection to %x: %w", address, err)
		}
		delete(b.connections, address)
	}
	if b.finalize != nil {
		if err := b.finalize(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
