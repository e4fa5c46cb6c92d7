package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/barometer"
)

var _ barometer.CombinedBus = &Simulator{}

var ErrNoAck = errors.New("no acknowledge from device")

// Datasheet example values (BST-BMP280-DS001 section 8.1).
var (
	SimulatorCalibration = []byte{
		0x70, 0x6B, 0x43, 0x67, 0x18, 0xFC, 0x7D, 0x8E, 0x43, 0xD6, 0xD0, 0x0B,
		0x27, 0x0B, 0x8C, 0x00, 0xF9, 0xFF, 0x8C, 0x3C, 0xF8, 0xC6, 0x70, 0x17,
	}
	SimulatorRawTemperature uint32 = 519888
	SimulatorRawPressure    uint32 = 415148
)

const (
	simRegCalib     = 0x88
	simRegChipID    = 0xD0
	simRegSoftReset = 0xE0
	simRegStatus    = 0xF3
	simRegCtrlMeas  = 0xF4
	simRegConfig    = 0xF5
	simRegPress     = 0xF7
	simRegTemp      = 0xFA
)

// Simulator emulates a BMP280 register file on an I2C bus. It is used by the
// cli "sim" adapter and by tests.
//
// Writing the forced mode to ctrl_meas latches the current raw values into the
// data registers and returns the device to sleep, as the real sensor does once
// the conversion completes.
type Simulator struct {
	mx           sync.Mutex
	address      byte
	regs         [256]byte
	pointer      byte
	rawTemp      uint32
	rawPress     uint32
	busyPolls    int
	pendingBusy  int
	failures     []error
	transactions int
	conversions  int
}

type SimulatorOpt func(*Simulator)

func WithSimulatorAddress(address byte) SimulatorOpt {
	return func(s *Simulator) {
		s.address = address
	}
}

// WithBusyPolls makes the status register report "measuring" for n reads
// after every forced conversion.
func WithBusyPolls(n int) SimulatorOpt {
	return func(s *Simulator) {
		s.busyPolls = n
	}
}

func NewSimulator(opts ...SimulatorOpt) *Simulator {
	s := &Simulator{
		address:  0x76,
		rawTemp:  SimulatorRawTemperature,
		rawPress: SimulatorRawPressure,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.powerOn()
	return s
}

func (s *Simulator) powerOn() {
	s.regs = [256]byte{}
	copy(s.regs[simRegCalib:], SimulatorCalibration)
	s.regs[simRegChipID] = 0x58
	s.regs[0xD1] = 0x0C
	s.regs[simRegPress] = 0x80
	s.regs[simRegTemp] = 0x80
}

// SetCalibration replaces the 24 byte calibration block at 0x88.
func (s *Simulator) SetCalibration(block []byte) {
	s.mx.Lock()
	defer s.mx.Unlock()
	copy(s.regs[simRegCalib:simRegCalib+24], block)
}

// SetRaw sets the 20 bit ADC values latched by the next conversion.
func (s *Simulator) SetRaw(temp, press uint32) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.rawTemp = temp & 0xFFFFF
	s.rawPress = press & 0xFFFFF
}

// SetRegister overwrites a single register.
func (s *Simulator) SetRegister(reg, value byte) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.regs[reg] = value
}

// Register returns the content of a register without bus traffic.
func (s *Simulator) Register(reg byte) byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.regs[reg]
}

// FailNext makes the next bus call return err.
func (s *Simulator) FailNext(err error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.failures = append(s.failures, err)
}

func (s *Simulator) Transactions() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.transactions
}

func (s *Simulator) Conversions() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.conversions
}

func (s *Simulator) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.begin(address); err != nil {
		return err
	}
	s.write(buffer)
	return nil
}

func (s *Simulator) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.begin(address); err != nil {
		return err
	}
	s.read(buffer)
	return nil
}

func (s *Simulator) Tx(ctx context.Context, address byte, w, r []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.begin(address); err != nil {
		return err
	}
	s.write(w)
	s.read(r)
	return nil
}

func (s *Simulator) Release(ctx context.Context) error {
	return nil
}

func (s *Simulator) begin(address byte) error {
	s.transactions++
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return err
	}
	if address != s.address {
		return fmt.Errorf("simulator: address %#02x: %w", address, ErrNoAck)
	}
	return nil
}

func (s *Simulator) write(buffer []byte) {
	if len(buffer) == 0 {
		return
	}
	s.pointer = buffer[0]
	// the BMP280 takes register/value pairs on multi byte writes
	for i := 0; i+1 < len(buffer); i += 2 {
		s.store(buffer[i], buffer[i+1])
	}
}

func (s *Simulator) store(reg, value byte) {
	switch reg {
	case simRegSoftReset:
		if value == 0xB6 {
			s.powerOn()
		}
	case simRegCtrlMeas:
		s.regs[reg] = value
		mode := value & 0x03
		if mode == 0x01 || mode == 0x02 {
			s.convert()
			s.regs[reg] = value &^ 0x03
		} else if mode == 0x03 {
			s.convert()
		}
	case simRegConfig:
		s.regs[reg] = value
	default:
		// calibration, id and data registers are read only
	}
}

func (s *Simulator) convert() {
	s.conversions++
	s.pendingBusy = s.busyPolls
	put := func(base byte, raw uint32) {
		s.regs[base] = byte(raw >> 12)
		s.regs[base+1] = byte(raw >> 4)
		s.regs[base+2] = byte(raw<<4) & 0xF0
	}
	put(simRegPress, s.rawPress)
	put(simRegTemp, s.rawTemp)
}

func (s *Simulator) read(buffer []byte) {
	for i := range buffer {
		reg := s.pointer + byte(i)
		if reg == simRegStatus && s.pendingBusy > 0 {
			s.pendingBusy--
			buffer[i] = 0x08
			continue
		}
		buffer[i] = s.regs[reg]
	}
}
