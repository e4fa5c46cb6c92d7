package environment

import (
	"github.com/mklimuk/barometer"
)

// RawSample is an uncompensated 20 bit ADC value.
type RawSample int32

// DecodeRawSample assembles msb, lsb and xlsb registers (in that order) into
// a 20 bit sample.
func DecodeRawSample(b []byte) RawSample {
	return RawSample(int32(b[0])<<12 | int32(b[1])<<4 | int32(b[2])>>4)
}

// Bytes returns the msb, lsb, xlsb register image of the sample.
func (r RawSample) Bytes() [3]byte {
	return [3]byte{byte(r >> 12), byte(r >> 4), byte(r<<4) & 0xF0}
}

// CompensationState carries t_fine from temperature to pressure compensation.
// The zero value holds no temperature.
type CompensationState struct {
	tFine int32
	valid bool
}

// TFine returns the stored t_fine and whether a temperature was compensated.
func (s *CompensationState) TFine() (int32, bool) {
	return s.tFine, s.valid
}

// Reset forgets the stored temperature.
func (s *CompensationState) Reset() {
	s.tFine = 0
	s.valid = false
}

// CompensateTemperatureInt returns the temperature in hundredths of °C
// (5123 equals 51.23 °C) and stores t_fine in state.
//
// Fixed point as in BST-BMP280-DS001 section 3.11.3. Intermediates are kept in
// 64 bits so out of range inputs cannot wrap; in range results are identical
// to the 32 bit reference.
func CompensateTemperatureInt(raw RawSample, c *CalibrationData, state *CompensationState) (int32, error) {
	if c == nil {
		return 0, barometer.ErrNotCalibrated
	}
	adc := int64(raw)
	t1 := int64(c.T1)
	var1 := (((adc >> 3) - (t1 << 1)) * int64(c.T2)) >> 11
	var2 := (((((adc >> 4) - t1) * ((adc >> 4) - t1)) >> 12) * int64(c.T3)) >> 14
	tFine := int32(var1 + var2)
	if state != nil {
		state.tFine = tFine
		state.valid = true
	}
	return (tFine*5 + 128) >> 8, nil
}

// CompensateTemperature returns the temperature in °C.
func CompensateTemperature(raw RawSample, c *CalibrationData, state *CompensationState) (float64, error) {
	t, err := CompensateTemperatureInt(raw, c, state)
	if err != nil {
		return 0, err
	}
	return float64(t) / 100.0, nil
}

// CompensatePressureQ24_8 returns the pressure in Pa as unsigned Q24.8
// (24674867 equals 24674867/256 = 96386.2 Pa). It requires t_fine from a
// temperature compensation of the same sample.
//
// 64 bit fixed point, BST-BMP280-DS001 section 3.11.3.
func CompensatePressureQ24_8(raw RawSample, c *CalibrationData, state *CompensationState) (uint32, error) {
	if c == nil {
		return 0, barometer.ErrNotCalibrated
	}
	if state == nil || !state.valid {
		return 0, barometer.ErrNoTemperature
	}
	var1 := int64(state.tFine) - 128000
	var2 := var1 * var1 * int64(c.P6)
	var2 = var2 + ((var1 * int64(c.P5)) << 17)
	var2 = var2 + (int64(c.P4) << 35)
	var1 = ((var1 * var1 * int64(c.P3)) >> 8) + ((var1 * int64(c.P2)) << 12)
	var1 = (((int64(1) << 47) + var1) * int64(c.P1)) >> 33
	if var1 == 0 {
		return 0, barometer.ErrZeroDivisor
	}
	p := 1048576 - int64(raw)
	p = (((p << 31) - var2) * 3125) / var1
	var1 = (int64(c.P9) * (p >> 13) * (p >> 13)) >> 25
	var2 = (int64(c.P8) * p) >> 19
	p = ((p + var1 + var2) >> 8) + (int64(c.P7) << 4)
	return uint32(p), nil
}

// CompensatePressure returns the pressure in Pa.
func CompensatePressure(raw RawSample, c *CalibrationData, state *CompensationState) (float64, error) {
	p, err := CompensatePressureQ24_8(raw, c, state)
	if err != nil {
		return 0, err
	}
	return float64(p) / 256.0, nil
}
