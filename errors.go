package barometer

import (
	"errors"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// ErrBufferFault is returned when a caller supplied buffer cannot be used for
// the requested transfer.
var ErrBufferFault = errors.New("buffer fault")

// ErrUnsupportedCommand is returned for unknown control channel directions.
var ErrUnsupportedCommand = errors.New("unsupported command")

// ErrDomain is the parent of every arithmetic or state error raised by the
// compensation code. Use errors.Is(err, ErrDomain) to test for the whole family.
var ErrDomain = errors.New("domain error")

var (
	ErrNotCalibrated = fmt.Errorf("%w: calibration not loaded", ErrDomain)
	ErrNoTemperature = fmt.Errorf("%w: temperature must be sampled before pressure", ErrDomain)
	ErrZeroDivisor   = fmt.Errorf("%w: pressure compensation divisor is zero", ErrDomain)
)

var ErrChipID = errors.New("unexpected chip id")

// TransportError reports a failed bus transaction.
type TransportError struct {
	Op       string
	Address  byte
	Register byte
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s register %#02x on device %#02x: %v", e.Op, e.Register, e.Address, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
