package environment

import (
	"context"
)

// Barometer is implemented by anything producing compensated temperature and
// pressure readings, a BMP280 session or a mock.
type Barometer interface {
	// SampleTemperature returns the temperature in °C.
	SampleTemperature(ctx context.Context) (float64, error)
	// SamplePressure returns the pressure in Pa.
	SamplePressure(ctx context.Context) (float64, error)
}

var _ Barometer = &Session{}
var _ Barometer = &MockBarometer{}

// Reading is one temperature and pressure pair.
type Reading struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Pressure    float64 `json:"pressure" yaml:"pressure"`
}

// Read samples temperature then pressure, the order the compensation needs.
func Read(ctx context.Context, b Barometer) (Reading, error) {
	t, err := b.SampleTemperature(ctx)
	if err != nil {
		return Reading{}, err
	}
	p, err := b.SamplePressure(ctx)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Temperature: t, Pressure: p}, nil
}
