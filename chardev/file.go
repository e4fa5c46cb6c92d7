// Package chardev exposes BMP280 devices the way a character device node
// does: a byte-stream read/write surface where the first byte selects the
// register, and a control channel taking packed register commands.
package chardev

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/barometer"
	"github.com/mklimuk/barometer/environment"
	"github.com/mklimuk/barometer/register"
	"github.com/mklimuk/barometer/snsctx"
)

var ErrClosed = errors.New("file already closed")

// File is one open handle on a device. Every handle owns its own sampling
// session; register traffic of all handles is serialized by the device.
type File struct {
	mx      sync.Mutex
	id      string
	dev     *environment.BMP280
	session *environment.Session
	closed  bool
}

func newFile(id string, dev *environment.BMP280) *File {
	return &File{
		id:      id,
		dev:     dev,
		session: dev.NewSession(),
	}
}

// Name returns the registry id the file was opened with.
func (f *File) Name() string {
	return f.id
}

// Session gives access to temperature and pressure sampling.
func (f *File) Session() *environment.Session {
	return f.session
}

// Read reads the register named by p[0] and stores its content in p[0].
func (f *File) Read(p []byte) (int, error) {
	return f.ReadContext(context.Background(), p)
}

func (f *File) ReadContext(ctx context.Context, p []byte) (int, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, fmt.Errorf("%s: read: %w", f.id, barometer.ErrBufferFault)
	}
	ctx = snsctx.SetSession(ctx, f.session.ID())
	value, err := f.dev.Access().ReadRegister(ctx, register.Address(p[0]))
	if err != nil {
		return 0, err
	}
	p[0] = value
	return 1, nil
}

// Write takes exactly [register, value] and writes it in one bus transaction.
func (f *File) Write(p []byte) (int, error) {
	return f.WriteContext(context.Background(), p)
}

func (f *File) WriteContext(ctx context.Context, p []byte) (int, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	if len(p) != 2 {
		return 0, fmt.Errorf("%s: write of %d bytes: %w", f.id, len(p), barometer.ErrBufferFault)
	}
	ctx = snsctx.SetSession(ctx, f.session.ID())
	err := f.dev.Access().WriteRegister(ctx, register.Address(p[0]), p[1])
	if err != nil {
		return 0, err
	}
	return 2, nil
}

// Control runs one packed register command. Reads return length bytes
// starting at the command register, a zero length reads one byte. Writes
// return no data.
func (f *File) Control(ctx context.Context, dir register.Direction, cmd register.Command) ([]byte, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	ctx = snsctx.SetSession(ctx, f.session.ID())
	length, reg, value := cmd.Decode()
	slog.Debug("control command", "file", f.id, "dir", dir, "cmd", cmd)
	switch dir {
	case register.DirRead:
		if length == 0 {
			length = 1
		}
		return f.dev.Access().ReadSequential(ctx, reg, length)
	case register.DirWrite:
		return nil, f.dev.Access().WriteRegister(ctx, reg, value)
	default:
		return nil, fmt.Errorf("%s: direction %s: %w", f.id, dir, barometer.ErrUnsupportedCommand)
	}
}

// Ioctl is the raw control channel entry point. Up to four bytes read are
// packed little endian into the result. Unsupported commands do nothing and
// return zero.
func (f *File) Ioctl(ctx context.Context, dir uint, arg uint32) (uint32, error) {
	data, err := f.Control(ctx, register.Direction(dir), register.Command(arg))
	if errors.Is(err, barometer.ErrUnsupportedCommand) {
		slog.Debug("ignoring unsupported command", "file", f.id, "dir", dir, "arg", arg)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var packed [4]byte
	copy(packed[:], data)
	return binary.LittleEndian.Uint32(packed[:]), nil
}

func (f *File) Close() error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.closed = true
	return nil
}

func (f *File) check() error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if f.closed {
		return ErrClosed
	}
	return nil
}
