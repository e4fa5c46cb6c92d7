package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gi2c "gobot.io/x/gobot/v2/drivers/i2c"
)

type fakeConnection struct {
	gi2c.Connection
	regs    [256]byte
	pointer byte
	written [][]byte
	blocks  int
	closed  bool
}

func (c *fakeConnection) Read(b []byte) (int, error) {
	for i := range b {
		b[i] = c.regs[c.pointer+byte(i)]
	}
	return len(b), nil
}

func (c *fakeConnection) WriteBytes(b []byte) error {
	c.written = append(c.written, append([]byte(nil), b...))
	if len(b) > 0 {
		c.pointer = b[0]
	}
	if len(b) == 2 {
		c.regs[b[0]] = b[1]
	}
	return nil
}

func (c *fakeConnection) ReadBlockData(reg uint8, b []byte) error {
	c.blocks++
	c.pointer = reg
	_, err := c.Read(b)
	return err
}

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	conns map[int]*fakeConnection
	buses []int
	err   error
}

func (f *fakeConnector) GetI2cConnection(address int, bus int) (gi2c.Connection, error) {
	f.buses = append(f.buses, bus)
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.conns[address]
	if !ok {
		c = &fakeConnection{}
		f.conns[address] = c
	}
	return c, nil
}

func (f *fakeConnector) DefaultI2cBus() int {
	return 0
}

func TestGobotBus_Tx(t *testing.T) {
	conn := &fakeConnection{}
	conn.regs[0xD0] = 0x58
	f := &fakeConnector{conns: map[int]*fakeConnection{0x76: conn}}
	b := NewGobotBus(f, WithGobotBus(2))
	ctx := context.Background()

	id := make([]byte, 1)
	require.NoError(t, b.Tx(ctx, 0x76, []byte{0xD0}, id))
	assert.Equal(t, byte(0x58), id[0])
	assert.Equal(t, 1, conn.blocks)

	require.NoError(t, b.WriteToAddr(ctx, 0x76, []byte{0xF4, 0x25}))
	assert.Equal(t, byte(0x25), conn.regs[0xF4])

	require.NoError(t, b.WriteToAddr(ctx, 0x76, []byte{0xF4}))
	require.NoError(t, b.ReadFromAddr(ctx, 0x76, id))
	assert.Equal(t, byte(0x25), id[0])

	// the connection is opened once, on the selected bus
	assert.Equal(t, []int{2}, f.buses)

	require.NoError(t, b.Close())
	assert.True(t, conn.closed)
}

func TestGobotBus_ConnectionError(t *testing.T) {
	boom := errors.New("no such device")
	f := &fakeConnector{conns: map[int]*fakeConnection{}, err: boom}
	b := NewGobotBus(f)
	err := b.ReadFromAddr(context.Background(), 0x76, make([]byte, 1))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{0}, f.buses)
}
