package register

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommand_RoundTrip(t *testing.T) {
	for l := 0; l < 256; l++ {
		for r := 0; r < 256; r++ {
			for v := 0; v < 256; v += 15 {
				cmd := Encode(byte(l), Address(r), byte(v))
				gotL, gotR, gotV := cmd.Decode()
				if gotL != byte(l) || gotR != Address(r) || gotV != byte(v) {
					t.Fatalf("round trip (%d,%d,%d) gave (%d,%d,%d)", l, r, v, gotL, gotR, gotV)
				}
			}
		}
	}
	for v := 0; v < 256; v++ {
		_, _, gotV := Encode(0xFF, 0xFF, byte(v)).Decode()
		assert.Equal(t, byte(v), gotV)
	}
}

func TestCommand_Layout(t *testing.T) {
	tests := []struct {
		length byte
		reg    Address
		value  byte
		word   Command
	}{
		{1, 0xD0, 0x00, 0x0000D001},
		{3, 0xFA, 0x00, 0x0000FA03},
		{1, 0xF4, 0x27, 0x0027F401},
		{0, 0x00, 0x00, 0x00000000},
		{0xFF, 0xFF, 0xFF, 0x00FFFFFF},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#08x", uint32(test.word)), func(t *testing.T) {
			assert.Equal(t, test.word, Encode(test.length, test.reg, test.value))
			assert.Equal(t, test.length, test.word.Length())
			assert.Equal(t, test.reg, test.word.Register())
			assert.Equal(t, test.value, test.word.Value())
		})
	}
}

func TestCommand_DecodeIgnoresHighByte(t *testing.T) {
	l, r, v := Command(0xAB27F401).Decode()
	assert.Equal(t, byte(1), l)
	assert.Equal(t, Address(0xF4), r)
	assert.Equal(t, byte(0x27), v)
}

func TestEncodeInts_Truncates(t *testing.T) {
	assert.Equal(t, Encode(0x01, 0xF4, 0x27), EncodeInts(0x101, 0x3F4, -217))
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "read", DirRead.String())
	assert.Equal(t, "write", DirWrite.String())
	assert.Equal(t, "unknown(7)", Direction(7).String())
}
