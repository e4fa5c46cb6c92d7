package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/barometer"
	"github.com/mklimuk/barometer/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

var _ barometer.CombinedBus = &MCP2221{}

var ErrCommandUnsupported = errors.New("unsupported command")
var ErrCommandFailed = errors.New("command failed")

// MCP2221 command codes, see DS20005565 section 3.1.
const (
	cmdStatusSet          = 0x10
	cmdReadData           = 0x40
	cmdWriteData          = 0x90
	cmdReadDataI2C        = 0x91
	cmdReadRepeatedStart  = 0x93
	cmdWriteDataNoStop    = 0x94
	statusCancelTransfer  = 0x10
	statusSetSpeed        = 0x20
	statusSpeedNotSet     = 0x21
	readDataEngineFailure = 0x41
	maxTransferSize       = 60
	mcp2221ClockHz        = 12_000_000
)

// hidDevice is the part of hid.Device used by the adapter.
type hidDevice interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

// MCP2221 drives an I2C bus through a Microchip MCP2221(A) USB bridge. Every
// call opens the HID device, exchanges 64 byte reports and closes it again.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	index        int
	open         func(index int) (hidDevice, error)
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"buffer_counter"`
	I2CSpeedDivider        int    `yaml:"speed_divider"`
	I2CTimeout             int    `yaml:"timeout"`
	CurrentAddress         string `yaml:"address"`
	LastWriteRequestedSize uint16 `yaml:"requested_size"`
	LastWriteSentSize      uint16 `yaml:"sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type MCP2221Option func(*MCP2221)

// WithDeviceIndex selects one of several connected bridges.
func WithDeviceIndex(index int) MCP2221Option {
	return func(d *MCP2221) {
		d.index = index
	}
}

// WithResponseWait sets the delay between a request and reading its response.
func WithResponseWait(wait time.Duration) MCP2221Option {
	return func(d *MCP2221) {
		d.responseWait = wait
	}
}

func NewMCP2221(opts ...MCP2221Option) *MCP2221 {
	d := &MCP2221{
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
		index:        -1,
		open:         openHID,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Devices lists the connected MCP2221 bridges.
func Devices() []hid.DeviceInfo {
	return hid.Enumerate(VendorID, ProductID)
}

func openHID(index int) (hidDevice, error) {
	devs := Devices()
	if len(devs) == 0 {
		return nil, fmt.Errorf("MCP2221 device not found")
	}
	if index < 0 {
		if len(devs) > 1 {
			return nil, fmt.Errorf("ambiguous device identification, %d bridges connected", len(devs))
		}
		index = 0
	}
	if index >= len(devs) {
		return nil, fmt.Errorf("no device with id %d", index)
	}
	dev, err := devs[index].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

// SetSpeed sets the I2C clock. The bridge refuses it while a transfer is in
// progress.
func (d *MCP2221) SetSpeed(ctx context.Context, hz int) error {
	if hz <= 0 || hz > 400_000 {
		return fmt.Errorf("unsupported i2c speed %d Hz", hz)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSet
	d.request[3] = statusSetSpeed
	d.request[4] = byte(mcp2221ClockHz/hz - 3)
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("set speed request failed: %w", err)
	}
	if d.response[3] == statusSpeedNotSet {
		return fmt.Errorf("could not set speed: %w", barometer.ErrBusBusy)
	}
	return nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.write(ctx, cmdWriteData, address, buffer)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.read(ctx, cmdReadDataI2C, address, buffer)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	return nil
}

// Tx writes w without a stop condition then reads r after a repeated start.
func (d *MCP2221) Tx(ctx context.Context, address byte, w, r []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.write(ctx, cmdWriteDataNoStop, address, w)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	if len(r) == 0 {
		return nil
	}
	err = d.read(ctx, cmdReadRepeatedStart, address, r)
	if err != nil {
		return fmt.Errorf("repeated start read from %x failed: %w", address, err)
	}
	return nil
}

func (d *MCP2221) write(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > maxTransferSize {
		return fmt.Errorf("%w: %d bytes exceed a single report", barometer.ErrBufferFault, len(buffer))
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx, true)
	if err != nil {
		return err
	}
	// write could not be performed
	if d.response[1] == 0x01 {
		slog.Debug("adapter busy", "cmd", fmt.Sprintf("%#02x", cmd))
		return barometer.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) read(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > maxTransferSize {
		return fmt.Errorf("%w: %d bytes exceed a single report", barometer.ErrBufferFault, len(buffer))
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx, true)
	if err != nil {
		return err
	}
	if d.response[1] == 0x01 {
		return barometer.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdReadData
	err = d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == readDataEngineFailure {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSet
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

// Release cancels any pending transfer and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	_, err := d.releaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.releaseBus(ctx)
}

func (d *MCP2221) releaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = cmdStatusSet
	d.request[2] = statusCancelTransfer
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) send(ctx context.Context, response bool) error {
	dev, err := d.open(d.index)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Debug("could not close adapter", "error", err)
		}
	}()
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter", "session", snsctx.Session(ctx), "dump", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	if !response {
		return nil
	}
	timer := time.NewTimer(d.responseWait)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.Debug("read message from adapter", "session", snsctx.Session(ctx), "dump", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
