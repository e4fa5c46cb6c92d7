package telemetry

import (
	"context"
	"time"

	"github.com/mklimuk/barometer"
)

type instrumentedBus struct {
	bus     barometer.I2CBus
	name    string
	metrics *Metrics
}

type instrumentedCombinedBus struct {
	*instrumentedBus
	tx barometer.Transactor
}

// InstrumentBus counts and times every transaction on bus. The result
// supports combined transactions only when bus does.
func InstrumentBus(bus barometer.I2CBus, name string, m *Metrics) barometer.I2CBus {
	ib := &instrumentedBus{bus: bus, name: name, metrics: m}
	if tx, ok := bus.(barometer.Transactor); ok {
		return &instrumentedCombinedBus{instrumentedBus: ib, tx: tx}
	}
	return ib
}

func (b *instrumentedBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	start := time.Now()
	err := b.bus.ReadFromAddr(ctx, address, buffer)
	b.metrics.observeTransaction(b.name, "read", start, err)
	return err
}

func (b *instrumentedBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	start := time.Now()
	err := b.bus.WriteToAddr(ctx, address, buffer)
	b.metrics.observeTransaction(b.name, "write", start, err)
	return err
}

func (b *instrumentedBus) Release(ctx context.Context) error {
	return b.bus.Release(ctx)
}

func (b *instrumentedCombinedBus) Tx(ctx context.Context, address byte, w, r []byte) error {
	start := time.Now()
	err := b.tx.Tx(ctx, address, w, r)
	b.metrics.observeTransaction(b.name, "tx", start, err)
	return err
}
