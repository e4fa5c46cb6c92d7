package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/barometer"
)

// fakeHID records every report written and answers with queued responses.
type fakeHID struct {
	requests  [][]byte
	responses [][]byte
	opened    int
	closed    int
}

func (f *fakeHID) Write(b []byte) (int, error) {
	f.requests = append(f.requests, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakeHID) Read(b []byte) (int, error) {
	if len(f.responses) == 0 {
		return 0, errors.New("no response queued")
	}
	copy(b, f.responses[0])
	f.responses = f.responses[1:]
	return 64, nil
}

func (f *fakeHID) Close() error {
	f.closed++
	return nil
}

func (f *fakeHID) queue(prefix ...byte) {
	r := make([]byte, 64)
	copy(r, prefix)
	f.responses = append(f.responses, r)
}

func newTestMCP2221(f *fakeHID) *MCP2221 {
	d := NewMCP2221(WithResponseWait(0))
	d.open = func(index int) (hidDevice, error) {
		f.opened++
		return f, nil
	}
	return d
}

func TestMCP2221_WriteToAddr(t *testing.T) {
	f := &fakeHID{}
	f.queue(0x90, 0x00)
	d := newTestMCP2221(f)

	require.NoError(t, d.WriteToAddr(context.Background(), 0x76, []byte{0xF4, 0x25}))
	require.Len(t, f.requests, 1)
	assert.Equal(t, []byte{0x90, 0x02, 0x00, 0xEC, 0xF4, 0x25, 0x00}, f.requests[0][:7])
	assert.Equal(t, 1, f.opened)
	assert.Equal(t, 1, f.closed)
}

func TestMCP2221_WriteBusy(t *testing.T) {
	f := &fakeHID{}
	f.queue(0x90, 0x01)
	d := newTestMCP2221(f)

	err := d.WriteToAddr(context.Background(), 0x76, []byte{0xD0})
	assert.ErrorIs(t, err, barometer.ErrBusBusy)
}

func TestMCP2221_Tx(t *testing.T) {
	f := &fakeHID{}
	f.queue(0x94, 0x00)
	f.queue(0x93, 0x00)
	f.queue(0x40, 0x00, 0x00, 0x02, 0x70, 0x6B)
	d := newTestMCP2221(f)

	buf := make([]byte, 2)
	require.NoError(t, d.Tx(context.Background(), 0x76, []byte{0x88}, buf))
	assert.Equal(t, []byte{0x70, 0x6B}, buf)

	require.Len(t, f.requests, 3)
	assert.Equal(t, []byte{0x94, 0x01, 0x00, 0xEC, 0x88}, f.requests[0][:5])
	assert.Equal(t, []byte{0x93, 0x02, 0x00, 0xED}, f.requests[1][:4])
	assert.Equal(t, byte(0x40), f.requests[2][0])
}

func TestMCP2221_ReadErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"engine failure", []byte{0x40, 0x41}, "I2C engine"},
		{"size mismatch", []byte{0x40, 0x00, 0x00, 0x01}, "expected 2, got 1"},
		{"invalid size", []byte{0x40, 0x00, 0x00, 127}, "got 127"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := &fakeHID{}
			f.queue(0x91, 0x00)
			f.queue(test.data...)
			d := newTestMCP2221(f)
			err := d.ReadFromAddr(context.Background(), 0x76, make([]byte, 2))
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.expected)
		})
	}
}

func TestMCP2221_BufferTooLarge(t *testing.T) {
	f := &fakeHID{}
	d := newTestMCP2221(f)
	err := d.WriteToAddr(context.Background(), 0x76, make([]byte, 61))
	assert.ErrorIs(t, err, barometer.ErrBufferFault)
	assert.Empty(t, f.requests)
}

func TestMCP2221_SetSpeed(t *testing.T) {
	f := &fakeHID{}
	f.queue(0x10, 0x00, 0x00, 0x20)
	d := newTestMCP2221(f)
	require.NoError(t, d.SetSpeed(context.Background(), 100_000))
	assert.Equal(t, []byte{0x10, 0x00, 0x00, 0x20, 117}, f.requests[0][:5])

	f.queue(0x10, 0x00, 0x00, 0x21)
	err := d.SetSpeed(context.Background(), 100_000)
	assert.ErrorIs(t, err, barometer.ErrBusBusy)

	assert.Error(t, d.SetSpeed(context.Background(), 1_000_000))
}

func TestMCP2221_Status(t *testing.T) {
	f := &fakeHID{}
	r := make([]byte, 64)
	r[0] = 0x10
	r[9], r[10] = 0x02, 0x00
	r[11], r[12] = 0x01, 0x00
	r[14] = 117
	r[16], r[17] = 0xEC, 0x00
	f.responses = append(f.responses, r)
	d := newTestMCP2221(f)

	status, err := d.ReleaseBus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0x10), f.requests[0][2])
	assert.Equal(t, &MCP2221Status{
		I2CSpeedDivider:        117,
		CurrentAddress:         "ec00",
		LastWriteRequestedSize: 2,
		LastWriteSentSize:      1,
	}, status)
}

func TestMCP2221_Canceled(t *testing.T) {
	f := &fakeHID{}
	f.queue(0x90, 0x00)
	d := newTestMCP2221(f)
	d.responseWait = 1 << 40
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.WriteToAddr(ctx, 0x76, []byte{0xD0})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.closed)
}
