package environment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/barometer/register"
)

type MockRegisterReader struct {
	mock.Mock
}

func (m *MockRegisterReader) ReadRegisterPair(ctx context.Context, reg register.Address) (uint16, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(uint16), args.Error(1)
}

func (m *MockRegisterReader) ReadInto(ctx context.Context, reg register.Address, buf []byte) error {
	args := m.Called(ctx, reg, len(buf))
	if data, ok := args.Get(0).([]byte); ok {
		copy(buf, data)
	}
	return args.Error(1)
}

func TestLoadCalibration_Order(t *testing.T) {
	r := new(MockRegisterReader)
	var order []register.Address
	values := map[register.Address]uint16{
		0x88: 27504, 0x8A: 26435, 0x8C: uint16(0xFC18), // -1000
		0x8E: 36477, 0x90: uint16(0xD643), 0x92: 3024, 0x94: 2855, 0x96: 140,
		0x98: uint16(0xFFF9), 0x9A: 15500, 0x9C: uint16(0xC6F8), 0x9E: 6000,
	}
	for reg, v := range values {
		r.On("ReadRegisterPair", mock.Anything, reg).Return(v, nil).Run(func(args mock.Arguments) {
			order = append(order, args.Get(1).(register.Address))
		}).Once()
	}

	calib, err := LoadCalibration(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, []register.Address{0x88, 0x8A, 0x8C, 0x8E, 0x90, 0x92, 0x94, 0x96, 0x98, 0x9A, 0x9C, 0x9E}, order)
	if diff := cmp.Diff(datasheetCalibration, *calib); diff != "" {
		t.Errorf("unexpected calibration (-want +got):\n%s", diff)
	}
	r.AssertExpectations(t)
}

func TestLoadCalibration_StopsOnError(t *testing.T) {
	r := new(MockRegisterReader)
	busErr := errors.New("nack")
	r.On("ReadRegisterPair", mock.Anything, RegCalibT1).Return(uint16(27504), nil).Once()
	r.On("ReadRegisterPair", mock.Anything, RegCalibT2).Return(uint16(0), busErr).Once()

	calib, err := LoadCalibration(context.Background(), r)
	assert.Nil(t, calib)
	assert.ErrorIs(t, err, busErr)
	assert.Contains(t, err.Error(), "0x8a")
	r.AssertExpectations(t)
	r.AssertNumberOfCalls(t, "ReadRegisterPair", 2)
}

func TestLoadCalibrationBurst(t *testing.T) {
	r := new(MockRegisterReader)
	block := datasheetCalibration.Bytes()
	r.On("ReadInto", mock.Anything, RegCalibT1, 24).Return(block[:], nil).Once()

	calib, err := LoadCalibrationBurst(context.Background(), r)
	require.NoError(t, err)
	if diff := cmp.Diff(datasheetCalibration, *calib); diff != "" {
		t.Errorf("unexpected calibration (-want +got):\n%s", diff)
	}
}

func TestParseCalibration(t *testing.T) {
	block := [24]byte{
		0x70, 0x6B, 0x43, 0x67, 0x18, 0xFC, 0x7D, 0x8E, 0x43, 0xD6, 0xD0, 0x0B,
		0x27, 0x0B, 0x8C, 0x00, 0xF9, 0xFF, 0x8C, 0x3C, 0xF8, 0xC6, 0x70, 0x17,
	}
	calib := ParseCalibration(block)
	if diff := cmp.Diff(datasheetCalibration, *calib); diff != "" {
		t.Errorf("unexpected calibration (-want +got):\n%s", diff)
	}
	assert.Equal(t, block, calib.Bytes())
}
