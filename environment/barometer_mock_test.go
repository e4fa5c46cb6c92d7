package environment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/barometer"
)

func TestMockBarometer_Read(t *testing.T) {
	calls := 0
	b := NewMockBarometer(
		func(ctx context.Context) (float64, error) {
			calls++
			return 20 + float64(calls), nil
		},
		func(ctx context.Context) (float64, error) { return 101325, nil },
	)
	ctx := context.Background()

	r, err := Read(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, Reading{Temperature: 21, Pressure: 101325}, r)

	r, err = Read(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 22.0, r.Temperature)
}

func TestMockBarometer_PressureFirst(t *testing.T) {
	b := NewMockBarometer(
		func(ctx context.Context) (float64, error) { return 20, nil },
		func(ctx context.Context) (float64, error) { return 101325, nil },
	)
	_, err := b.SamplePressure(context.Background())
	assert.ErrorIs(t, err, barometer.ErrNoTemperature)
}

func TestMockBarometer_Errors(t *testing.T) {
	boom := errors.New("sensor error")
	b := NewMockBarometer(
		func(ctx context.Context) (float64, error) { return 0, boom },
		func(ctx context.Context) (float64, error) { return 101325, nil },
	)
	_, err := Read(context.Background(), b)
	assert.ErrorIs(t, err, boom)
	// a failed temperature does not unlock pressure
	_, err = b.SamplePressure(context.Background())
	assert.ErrorIs(t, err, barometer.ErrNoTemperature)
}
