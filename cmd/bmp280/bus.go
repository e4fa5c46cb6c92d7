package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/barometer"
	"github.com/mklimuk/barometer/adapter"
	"github.com/mklimuk/barometer/chardev"
	"github.com/mklimuk/barometer/cmd/bmp280/console"
	"github.com/mklimuk/barometer/config"
	"github.com/mklimuk/barometer/environment"
	"github.com/mklimuk/barometer/i2c"
	"github.com/mklimuk/barometer/snsctx"
)

// target is an opened bus with one attached sensor.
type target struct {
	cfg      config.Config
	bus      barometer.I2CBus
	busName  string
	dev      *environment.BMP280
	registry *chardev.Registry
	id       string
	close    func() error
}

func (t *target) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}

func commandContext(c *cli.Context) context.Context {
	return snsctx.SetVerbose(c.Context, c.Bool("verbose"))
}

func openBus(ctx context.Context, cfg config.Config) (barometer.I2CBus, string, func() error, error) {
	switch cfg.Adapter {
	case config.AdapterMCP2221:
		a := adapter.NewMCP2221()
		err := a.SetSpeed(ctx, 100_000)
		if err != nil {
			return nil, "", nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return a, "mcp2221", nil, nil
	case config.AdapterGeneric:
		b, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, "", nil, err
		}
		name := cfg.Device
		if name == "" {
			name = "i2c"
		}
		return b, name, b.Close, nil
	case config.AdapterNanoPi:
		b, err := i2c.NewNanoPiBus(i2c.WithGobotBus(cfg.Bus))
		if err != nil {
			return nil, "", nil, err
		}
		return b, fmt.Sprintf("i2c-%d", cfg.Bus), b.Close, nil
	case config.AdapterRaw:
		b := i2c.NewRawBus(cfg.Bus)
		return b, fmt.Sprintf("i2c-%d", cfg.Bus), b.Close, nil
	case config.AdapterSim:
		return adapter.NewSimulator(adapter.WithSimulatorAddress(cfg.Sensor.Address)), "sim", nil, nil
	}
	return nil, "", nil, fmt.Errorf("%w: unknown adapter %q", config.ErrInvalid, cfg.Adapter)
}

// openTarget opens the configured bus and attaches the sensor. wrap, when
// given, decorates the bus before the sensor is bound to it.
func openTarget(c *cli.Context, wrap func(barometer.I2CBus, string) barometer.I2CBus) (*target, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, console.Fail("configuration error", err)
	}
	bus, name, closer, err := openBus(commandContext(c), cfg)
	if err != nil {
		return nil, console.Fail("could not open bus", err)
	}
	if wrap != nil {
		bus = wrap(bus, name)
	}
	dev := environment.NewBMP280(bus, cfg.SensorOptions()...)
	registry := chardev.NewRegistry()
	id, err := registry.Attach(name, dev)
	if err != nil {
		return nil, console.Fail("could not attach sensor", err)
	}
	return &target{
		cfg:      cfg,
		bus:      bus,
		busName:  name,
		dev:      dev,
		registry: registry,
		id:       id,
		close:    closer,
	}, nil
}
