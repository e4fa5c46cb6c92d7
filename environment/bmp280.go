package environment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/barometer"
	"github.com/mklimuk/barometer/register"
	"github.com/mklimuk/barometer/snsctx"
)

// BMP280 represents a Bosch BMP280 digital pressure sensor
// See: https://www.bosch-sensortec.com/media/boschsensortec/downloads/datasheets/bst-bmp280-ds001.pdf
//
// BMP280 is the shared handle of one physical sensor. Clients sample through
// sessions, each owning its calibration and compensation state:
//
//	dev := NewBMP280(bus)
//	s := dev.NewSession()
//	err := s.Calibrate(ctx)
//	t, err := s.SampleTemperature(ctx)
//	p, err := s.SamplePressure(ctx)
type BMP280 struct {
	access   *register.Access
	config   BMP280Config
	sessions atomic.Uint64
}

type BMP280Config struct {
	Address byte
	// Mode is written to ctrl_meas before every sample in forced mode and
	// once by Configure otherwise.
	Mode           Mode
	MeasureTimeout time.Duration
	PollInterval   time.Duration
	// AutoCalibrate loads calibration on the first sample instead of failing.
	AutoCalibrate bool
	// BurstCalibration reads the 24 byte calibration block in one transfer.
	BurstCalibration bool
}

type BMP280ConfigOption func(*BMP280Config)

func WithAddress(address byte) BMP280ConfigOption {
	return func(c *BMP280Config) {
		c.Address = address
	}
}

func WithMode(mode Mode) BMP280ConfigOption {
	return func(c *BMP280Config) {
		c.Mode = mode
	}
}

func WithMeasureTimeout(timeout time.Duration) BMP280ConfigOption {
	return func(c *BMP280Config) {
		c.MeasureTimeout = timeout
	}
}

func WithPollInterval(interval time.Duration) BMP280ConfigOption {
	return func(c *BMP280Config) {
		c.PollInterval = interval
	}
}

func WithAutoCalibrate(enabled bool) BMP280ConfigOption {
	return func(c *BMP280Config) {
		c.AutoCalibrate = enabled
	}
}

func WithBurstCalibration(enabled bool) BMP280ConfigOption {
	return func(c *BMP280Config) {
		c.BurstCalibration = enabled
	}
}

// NewBMP280 creates a new BMP280 connector on the given transport.
// Default address is 0x76, default mode is forced.
func NewBMP280(trans barometer.I2CBus, opts ...BMP280ConfigOption) *BMP280 {
	config := BMP280Config{
		Address:        BMP280AddrLow,
		Mode:           ModeForced,
		MeasureTimeout: 50 * time.Millisecond,
		PollInterval:   2 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&config)
	}
	name := fmt.Sprintf("bmp280@%#02x", config.Address)
	return &BMP280{
		access: register.NewAccess(trans, config.Address, register.WithName(name)),
		config: config,
	}
}

// Access exposes the register layer shared by all sessions of the device.
func (d *BMP280) Access() *register.Access {
	return d.access
}

func (d *BMP280) Config() BMP280Config {
	return d.config
}

func (d *BMP280) Name() string {
	return d.access.Name()
}

// ChipID reads the id register (0xD0).
func (d *BMP280) ChipID(ctx context.Context) (byte, error) {
	id, err := d.access.ReadRegister(ctx, RegChipID)
	if err != nil {
		return 0, fmt.Errorf("bmp280: could not read chip id: %w", err)
	}
	return id, nil
}

// Check verifies that the device answers with the BMP280 chip id.
func (d *BMP280) Check(ctx context.Context) error {
	id, err := d.ChipID(ctx)
	if err != nil {
		return err
	}
	if id != BMP280ChipID {
		return fmt.Errorf("bmp280: %w: expected %#02x, got %#02x", barometer.ErrChipID, BMP280ChipID, id)
	}
	return nil
}

// Reset issues a soft reset and waits for the calibration NVM copy to finish.
func (d *BMP280) Reset(ctx context.Context) error {
	err := d.access.WriteRegister(ctx, RegSoftReset, softResetCommand)
	if err != nil {
		return fmt.Errorf("bmp280: soft reset failed: %w", err)
	}
	// start-up time after reset is 2ms
	if err := sleep(ctx, 2*time.Millisecond); err != nil {
		return err
	}
	return d.waitStatusClear(ctx, statusImUpdate)
}

// Configure writes the configured mode to ctrl_meas. In forced mode every
// sample triggers its own conversion so this is only needed for normal or
// sleep mode.
func (d *BMP280) Configure(ctx context.Context) error {
	err := d.access.WriteRegister(ctx, RegCtrlMeas, ctrlMeas(d.config.Mode))
	if err != nil {
		return fmt.Errorf("bmp280: could not write ctrl_meas: %w", err)
	}
	return nil
}

// NewSession returns a new sampling session. Sessions are cheap and must not
// be shared between clients.
func (d *BMP280) NewSession() *Session {
	n := d.sessions.Add(1)
	return &Session{
		id:  fmt.Sprintf("%s/%d", d.Name(), n),
		dev: d,
	}
}

// trigger starts a conversion in forced mode and waits for it to finish.
func (d *BMP280) trigger(ctx context.Context) error {
	if d.config.Mode != ModeForced {
		return nil
	}
	err := d.access.WriteRegister(ctx, RegCtrlMeas, ctrlMeas(ModeForced))
	if err != nil {
		return fmt.Errorf("bmp280: could not trigger measurement: %w", err)
	}
	return d.waitStatusClear(ctx, statusMeasuring)
}

func (d *BMP280) waitStatusClear(ctx context.Context, mask byte) error {
	deadline := time.NewTimer(d.config.MeasureTimeout)
	defer deadline.Stop()
	for {
		status, err := d.access.ReadRegister(ctx, RegStatus)
		if err != nil {
			return fmt.Errorf("bmp280: could not read status: %w", err)
		}
		if status&mask == 0 {
			return nil
		}
		poll := time.NewTimer(d.config.PollInterval)
		select {
		case <-poll.C:
		case <-deadline.C:
			poll.Stop()
			return fmt.Errorf("bmp280: status %#02x did not clear within %s", mask, d.config.MeasureTimeout)
		case <-ctx.Done():
			poll.Stop()
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session is one client's view of a BMP280. It owns the calibration read at
// the start of the session and the t_fine coupling temperature and pressure.
type Session struct {
	mx    sync.Mutex
	id    string
	dev   *BMP280
	calib *CalibrationData
	state CompensationState
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Device() *BMP280 {
	return s.dev
}

// Calibrate reads the calibration coefficients from the device. It must run
// before any sample unless the device was built WithAutoCalibrate.
func (s *Session) Calibrate(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.calibrate(ctx)
}

func (s *Session) calibrate(ctx context.Context) error {
	ctx = snsctx.SetSession(ctx, s.id)
	var calib *CalibrationData
	var err error
	if s.dev.config.BurstCalibration {
		calib, err = LoadCalibrationBurst(ctx, s.dev.access)
	} else {
		calib, err = LoadCalibration(ctx, s.dev.access)
	}
	if err != nil {
		return err
	}
	s.calib = calib
	s.state.Reset()
	slog.Debug("bmp280 calibration loaded", "session", s.id, "T1", calib.T1, "P1", calib.P1)
	return nil
}

// Calibration returns a copy of the loaded coefficients.
func (s *Session) Calibration() (CalibrationData, bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.calib == nil {
		return CalibrationData{}, false
	}
	return *s.calib, true
}

func (s *Session) ensureCalibrated(ctx context.Context) error {
	if s.calib != nil {
		return nil
	}
	if !s.dev.config.AutoCalibrate {
		return barometer.ErrNotCalibrated
	}
	return s.calibrate(ctx)
}

// SampleTemperature measures the temperature in °C and updates t_fine.
func (s *Session) SampleTemperature(ctx context.Context) (float64, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	ctx = snsctx.SetSession(ctx, s.id)
	if err := s.ensureCalibrated(ctx); err != nil {
		return 0, err
	}
	raw, err := s.readSample(ctx, RegTempData)
	if err != nil {
		return 0, err
	}
	return CompensateTemperature(raw, s.calib, &s.state)
}

// SamplePressure measures the pressure in Pa. Temperature must have been
// sampled in this session first; sample it right before pressure for an
// accurate result.
func (s *Session) SamplePressure(ctx context.Context) (float64, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	ctx = snsctx.SetSession(ctx, s.id)
	if err := s.ensureCalibrated(ctx); err != nil {
		return 0, err
	}
	if _, ok := s.state.TFine(); !ok {
		return 0, barometer.ErrNoTemperature
	}
	raw, err := s.readSample(ctx, RegPressData)
	if err != nil {
		return 0, err
	}
	return CompensatePressure(raw, s.calib, &s.state)
}

// Sense reads temperature and pressure of the same conversion in one burst.
func (s *Session) Sense(ctx context.Context, e *physic.Env) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	ctx = snsctx.SetSession(ctx, s.id)
	if err := s.ensureCalibrated(ctx); err != nil {
		return err
	}
	if err := s.dev.trigger(ctx); err != nil {
		return err
	}
	// press_msb..press_xlsb, temp_msb..temp_xlsb
	buf, err := s.dev.access.ReadSequential(ctx, RegPressData, 6)
	if err != nil {
		return fmt.Errorf("bmp280: could not read measurement: %w", err)
	}
	t, err := CompensateTemperatureInt(DecodeRawSample(buf[3:6]), s.calib, &s.state)
	if err != nil {
		return err
	}
	p, err := CompensatePressureQ24_8(DecodeRawSample(buf[0:3]), s.calib, &s.state)
	if err != nil {
		return err
	}
	// centi-Celsius to Kelvin
	e.Temperature = physic.Temperature(t)*10*physic.MilliCelsius + physic.ZeroCelsius
	// Q24.8 Pa, 1/256 Pa = 15625/4 µPa
	e.Pressure = physic.Pressure(p) * 15625 * physic.MicroPascal / 4
	return nil
}

func (s *Session) readSample(ctx context.Context, reg register.Address) (RawSample, error) {
	if err := s.dev.trigger(ctx); err != nil {
		return 0, err
	}
	buf, err := s.dev.access.ReadSequential(ctx, reg, 3)
	if err != nil {
		return 0, fmt.Errorf("bmp280: could not read measurement: %w", err)
	}
	return DecodeRawSample(buf), nil
}
