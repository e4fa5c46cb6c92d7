package barometer

import (
	"context"
)

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus addresses 7-bit targets on a single I2C bus.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// Transactor is implemented by transports able to run a combined transaction:
// write w, repeated start, read len(r) bytes, stop. No other traffic on the bus
// may happen between the two phases.
type Transactor interface {
	Tx(ctx context.Context, address byte, w, r []byte) error
}

// CombinedBus is a bus that also supports combined transactions.
type CombinedBus interface {
	I2CBus
	Transactor
}
