package environment

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mklimuk/barometer/register"
)

// CalibrationData holds the factory trimming coefficients of one sensor.
// Every coefficient is stored little endian across two registers.
type CalibrationData struct {
	T1 uint16 `yaml:"dig_T1"`
	T2 int16  `yaml:"dig_T2"`
	T3 int16  `yaml:"dig_T3"`
	P1 uint16 `yaml:"dig_P1"`
	P2 int16  `yaml:"dig_P2"`
	P3 int16  `yaml:"dig_P3"`
	P4 int16  `yaml:"dig_P4"`
	P5 int16  `yaml:"dig_P5"`
	P6 int16  `yaml:"dig_P6"`
	P7 int16  `yaml:"dig_P7"`
	P8 int16  `yaml:"dig_P8"`
	P9 int16  `yaml:"dig_P9"`
}

// RegisterReader is the subset of register.Access the calibration loader needs.
type RegisterReader interface {
	ReadRegisterPair(ctx context.Context, reg register.Address) (uint16, error)
	ReadInto(ctx context.Context, reg register.Address, buf []byte) error
}

// LoadCalibration reads the twelve coefficients pair by pair in the order
// T1, T2, T3, P1..P9.
func LoadCalibration(ctx context.Context, access RegisterReader) (*CalibrationData, error) {
	var raw [12]uint16
	for i, reg := range calibrationRegisters {
		v, err := access.ReadRegisterPair(ctx, reg)
		if err != nil {
			return nil, fmt.Errorf("bmp280: could not read calibration register %#02x: %w", byte(reg), err)
		}
		raw[i] = v
	}
	return &CalibrationData{
		T1: raw[0],
		T2: int16(raw[1]),
		T3: int16(raw[2]),
		P1: raw[3],
		P2: int16(raw[4]),
		P3: int16(raw[5]),
		P4: int16(raw[6]),
		P5: int16(raw[7]),
		P6: int16(raw[8]),
		P7: int16(raw[9]),
		P8: int16(raw[10]),
		P9: int16(raw[11]),
	}, nil
}

// LoadCalibrationBurst reads the whole 24 byte block in one transfer.
func LoadCalibrationBurst(ctx context.Context, access RegisterReader) (*CalibrationData, error) {
	var block [calibrationBlockSize]byte
	if err := access.ReadInto(ctx, RegCalibT1, block[:]); err != nil {
		return nil, fmt.Errorf("bmp280: could not read calibration block: %w", err)
	}
	return ParseCalibration(block), nil
}

// ParseCalibration decodes the 24 byte block starting at 0x88.
func ParseCalibration(block [calibrationBlockSize]byte) *CalibrationData {
	le := binary.LittleEndian
	return &CalibrationData{
		T1: le.Uint16(block[0:2]),
		T2: int16(le.Uint16(block[2:4])),
		T3: int16(le.Uint16(block[4:6])),
		P1: le.Uint16(block[6:8]),
		P2: int16(le.Uint16(block[8:10])),
		P3: int16(le.Uint16(block[10:12])),
		P4: int16(le.Uint16(block[12:14])),
		P5: int16(le.Uint16(block[14:16])),
		P6: int16(le.Uint16(block[16:18])),
		P7: int16(le.Uint16(block[18:20])),
		P8: int16(le.Uint16(block[20:22])),
		P9: int16(le.Uint16(block[22:24])),
	}
}

// Bytes returns the register image of the coefficients, the inverse of
// ParseCalibration.
func (c *CalibrationData) Bytes() [calibrationBlockSize]byte {
	var block [calibrationBlockSize]byte
	le := binary.LittleEndian
	le.PutUint16(block[0:2], c.T1)
	le.PutUint16(block[2:4], uint16(c.T2))
	le.PutUint16(block[4:6], uint16(c.T3))
	le.PutUint16(block[6:8], c.P1)
	le.PutUint16(block[8:10], uint16(c.P2))
	le.PutUint16(block[10:12], uint16(c.P3))
	le.PutUint16(block[12:14], uint16(c.P4))
	le.PutUint16(block[14:16], uint16(c.P5))
	le.PutUint16(block[16:18], uint16(c.P6))
	le.PutUint16(block[18:20], uint16(c.P7))
	le.PutUint16(block[20:22], uint16(c.P8))
	le.PutUint16(block[22:24], uint16(c.P9))
	return block
}
