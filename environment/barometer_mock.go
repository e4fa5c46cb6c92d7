package environment

import (
	"context"
	"sync"

	"github.com/mklimuk/barometer"
)

// SampleBehaviorFunc produces one reading of a mocked quantity.
type SampleBehaviorFunc func(ctx context.Context) (float64, error)

// MockBarometer is a Barometer driven by behavior functions. Like the real
// sensor it refuses pressure until a temperature was sampled.
//
// Example usage:
//
//	b := NewMockBarometer(
//		func(ctx context.Context) (float64, error) { return 21.5, nil },
//		func(ctx context.Context) (float64, error) { return 101325, nil },
//	)
type MockBarometer struct {
	mx            sync.Mutex
	tempBehavior  SampleBehaviorFunc
	pressBehavior SampleBehaviorFunc
	hasTemp       bool
}

func NewMockBarometer(tempBehavior, pressBehavior SampleBehaviorFunc) *MockBarometer {
	return &MockBarometer{
		tempBehavior:  tempBehavior,
		pressBehavior: pressBehavior,
	}
}

func (m *MockBarometer) SampleTemperature(ctx context.Context) (float64, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	t, err := m.tempBehavior(ctx)
	if err != nil {
		return 0, err
	}
	m.hasTemp = true
	return t, nil
}

func (m *MockBarometer) SamplePressure(ctx context.Context) (float64, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	if !m.hasTemp {
		return 0, barometer.ErrNoTemperature
	}
	return m.pressBehavior(ctx)
}
