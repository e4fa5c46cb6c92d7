package chardev

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/barometer"
	"github.com/mklimuk/barometer/adapter"
	"github.com/mklimuk/barometer/environment"
	"github.com/mklimuk/barometer/register"
)

var _ io.ReadWriteCloser = &File{}

func openSimulated(t *testing.T) (*adapter.Simulator, *File) {
	t.Helper()
	sim := adapter.NewSimulator()
	r := NewRegistry()
	id, err := r.Attach("sim", environment.NewBMP280(sim))
	require.NoError(t, err)
	f, err := r.Open(id)
	require.NoError(t, err)
	return sim, f
}

func TestRegistry(t *testing.T) {
	sim := adapter.NewSimulator()
	r := NewRegistry()

	id, err := r.Attach("i2c-1", environment.NewBMP280(sim))
	require.NoError(t, err)
	assert.Equal(t, "i2c-1:0x76", id)

	_, err = r.Attach("i2c-1", environment.NewBMP280(sim))
	assert.ErrorIs(t, err, ErrAlreadyAttached)

	id2, err := r.Attach("i2c-0", environment.NewBMP280(sim, environment.WithAddress(0x77)))
	require.NoError(t, err)
	assert.Equal(t, []string{"i2c-0:0x77", "i2c-1:0x76"}, r.List())

	f, err := r.Open(id)
	require.NoError(t, err)
	assert.Equal(t, id, f.Name())

	require.NoError(t, r.Detach(id))
	assert.ErrorIs(t, r.Detach(id), ErrNotAttached)
	_, err = r.Open(id)
	assert.ErrorIs(t, err, ErrNotAttached)
	assert.Equal(t, []string{id2}, r.List())

	// an open file outlives the detach
	buf := []byte{0xD0}
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(0x58), buf[0])
}

func TestFile_OpenSessionsAreIndependent(t *testing.T) {
	sim := adapter.NewSimulator()
	r := NewRegistry()
	id, err := r.Attach("sim", environment.NewBMP280(sim))
	require.NoError(t, err)
	a, err := r.Open(id)
	require.NoError(t, err)
	b, err := r.Open(id)
	require.NoError(t, err)
	assert.NotEqual(t, a.Session().ID(), b.Session().ID())
}

func TestFile_ReadWrite(t *testing.T) {
	sim, f := openSimulated(t)

	n, err := f.Write([]byte{0xF5, 0xA0})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, byte(0xA0), sim.Register(0xF5))

	buf := []byte{0xF5, 0xEE}
	n, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{0xA0, 0xEE}, buf)
}

func TestFile_BufferFaults(t *testing.T) {
	sim, f := openSimulated(t)
	tests := []struct {
		name string
		op   func() (int, error)
	}{
		{"empty read", func() (int, error) { return f.Read(nil) }},
		{"short write", func() (int, error) { return f.Write([]byte{0xF5}) }},
		{"long write", func() (int, error) { return f.Write([]byte{0xF5, 0x00, 0x00}) }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			n, err := test.op()
			assert.Equal(t, 0, n)
			assert.ErrorIs(t, err, barometer.ErrBufferFault)
		})
	}
	assert.Equal(t, 0, sim.Transactions())
}

func TestFile_Control(t *testing.T) {
	_, f := openSimulated(t)
	ctx := context.Background()

	data, err := f.Control(ctx, register.DirRead, register.Encode(0, 0xD0, 0))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x58}, data)

	data, err = f.Control(ctx, register.DirRead, register.Encode(2, 0x88, 0))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x70, 0x6B}, data)

	data, err = f.Control(ctx, register.DirWrite, register.Encode(1, 0xF5, 0x10))
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = f.Control(ctx, register.Direction(3), register.Encode(1, 0xD0, 0))
	assert.ErrorIs(t, err, barometer.ErrUnsupportedCommand)
}

func TestFile_Ioctl(t *testing.T) {
	sim, f := openSimulated(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		dir      uint
		arg      uint32
		expected uint32
	}{
		{"chip id", 0, uint32(register.Encode(1, 0xD0, 0)), 0x58},
		{"calibration T1", 0, uint32(register.Encode(2, 0x88, 0)), 27504},
		{"four bytes max", 0, uint32(register.Encode(6, 0x88, 0)), 0x6743_6B70},
		{"write", 1, uint32(register.Encode(1, 0xF5, 0x40)), 0},
		{"unsupported", 9, uint32(register.Encode(1, 0xF5, 0xFF)), 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, err := f.Ioctl(ctx, test.dir, test.arg)
			require.NoError(t, err)
			assert.Equal(t, test.expected, res)
		})
	}
	// the unsupported command did not touch the register
	assert.Equal(t, byte(0x40), sim.Register(0xF5))
}

func TestFile_IoctlTransportError(t *testing.T) {
	sim, f := openSimulated(t)
	boom := errors.New("nack")
	sim.FailNext(boom)
	_, err := f.Ioctl(context.Background(), 0, uint32(register.Encode(1, 0xD0, 0)))
	assert.ErrorIs(t, err, boom)
	var terr *barometer.TransportError
	assert.ErrorAs(t, err, &terr)
}

func TestFile_Close(t *testing.T) {
	_, f := openSimulated(t)
	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Close(), ErrClosed)
	_, err := f.Read([]byte{0xD0})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.Ioctl(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrClosed)
}
