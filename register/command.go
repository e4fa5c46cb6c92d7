package register

import "fmt"

// Direction of a control channel command. It travels next to the command
// word, never inside it.
type Direction uint

const (
	DirRead  Direction = 0
	DirWrite Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirRead:
		return "read"
	case DirWrite:
		return "write"
	default:
		return fmt.Sprintf("unknown(%d)", uint(d))
	}
}

// Command packs a register transfer into one word:
//
//	bits  7:0  length
//	bits 15:8  register address
//	bits 23:16 value (writes) or 0 (reads)
type Command uint32

func Encode(length byte, reg Address, value byte) Command {
	return Command(uint32(length) | uint32(reg)<<8 | uint32(value)<<16)
}

// EncodeInts is Encode for callers holding wider integers; every field is
// truncated to its low 8 bits.
func EncodeInts(length, reg, value int) Command {
	return Encode(byte(length&0xFF), Address(reg&0xFF), byte(value&0xFF))
}

func (c Command) Decode() (length byte, reg Address, value byte) {
	return c.Length(), c.Register(), c.Value()
}

func (c Command) Length() byte {
	return byte(c)
}

func (c Command) Register() Address {
	return Address(c >> 8)
}

func (c Command) Value() byte {
	return byte(c >> 16)
}

func (c Command) String() string {
	return fmt.Sprintf("len=%d reg=%#02x val=%#02x", c.Length(), byte(c.Register()), c.Value())
}
