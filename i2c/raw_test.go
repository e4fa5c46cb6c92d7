package i2c

import (
	"context"
	"errors"
	"testing"

	di2c "github.com/d2r2/go-i2c"
	"github.com/stretchr/testify/assert"
)

func TestRawBus_OpenError(t *testing.T) {
	b := NewRawBus(7)
	boom := errors.New("no such file or directory")
	var opened []byte
	b.open = func(address byte, bus int) (*di2c.I2C, error) {
		opened = append(opened, address)
		assert.Equal(t, 7, bus)
		return nil, boom
	}
	ctx := context.Background()

	err := b.Tx(ctx, 0x76, []byte{0xD0}, make([]byte, 1))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "i2c-7")

	err = b.WriteToAddr(ctx, 0x77, []byte{0xE0, 0xB6})
	assert.ErrorIs(t, err, boom)
	// failed opens are not cached
	err = b.ReadFromAddr(ctx, 0x76, make([]byte, 1))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []byte{0x76, 0x77, 0x76}, opened)
	assert.NoError(t, b.Close())
}
