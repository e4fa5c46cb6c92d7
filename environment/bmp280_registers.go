package environment

import "github.com/mklimuk/barometer/register"

// BMP280 7-bit I2C addresses, selected by the SDO pin.
const (
	BMP280AddrLow  = 0x76
	BMP280AddrHigh = 0x77
)

// BMP280ChipID is the content of the id register on a genuine BMP280.
const BMP280ChipID = 0x58

// Register map, see BST-BMP280-DS001 section 4.
const (
	RegCalibT1 register.Address = 0x88
	RegCalibT2 register.Address = 0x8A
	RegCalibT3 register.Address = 0x8C
	RegCalibP1 register.Address = 0x8E
	RegCalibP2 register.Address = 0x90
	RegCalibP3 register.Address = 0x92
	RegCalibP4 register.Address = 0x94
	RegCalibP5 register.Address = 0x96
	RegCalibP6 register.Address = 0x98
	RegCalibP7 register.Address = 0x9A
	RegCalibP8 register.Address = 0x9C
	RegCalibP9 register.Address = 0x9E

	RegChipID    register.Address = 0xD0
	RegVersion   register.Address = 0xD1
	RegSoftReset register.Address = 0xE0
	RegStatus    register.Address = 0xF3
	RegCtrlMeas  register.Address = 0xF4
	RegConfig    register.Address = 0xF5
	RegPressData register.Address = 0xF7
	RegTempData  register.Address = 0xFA
)

// calibrationRegisters lists the coefficient base addresses in load order.
var calibrationRegisters = [12]register.Address{
	RegCalibT1, RegCalibT2, RegCalibT3,
	RegCalibP1, RegCalibP2, RegCalibP3, RegCalibP4, RegCalibP5,
	RegCalibP6, RegCalibP7, RegCalibP8, RegCalibP9,
}

const calibrationBlockSize = 24

const softResetCommand = 0xB6

// status register bits
const (
	statusMeasuring = 0x08
	statusImUpdate  = 0x01
)

// Mode is the power mode written to ctrl_meas[1:0].
type Mode byte

const (
	ModeSleep  Mode = 0b00
	ModeForced Mode = 0b01
	ModeNormal Mode = 0b11
)

func (m Mode) String() string {
	switch m {
	case ModeSleep:
		return "sleep"
	case ModeForced:
		return "forced"
	case ModeNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// ParseMode maps a mode name to Mode.
func ParseMode(name string) (Mode, bool) {
	switch name {
	case "sleep":
		return ModeSleep, true
	case "forced", "":
		return ModeForced, true
	case "normal":
		return ModeNormal, true
	}
	return 0, false
}

// oversampling x1 for both temperature (ctrl_meas[7:5]) and pressure ([4:2])
const ctrlMeasOversampling = 0b001<<5 | 0b001<<2

func ctrlMeas(m Mode) byte {
	return ctrlMeasOversampling | byte(m)
}
