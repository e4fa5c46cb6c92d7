package chardev

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mklimuk/barometer/environment"
)

var (
	ErrAlreadyAttached = errors.New("device already attached")
	ErrNotAttached     = errors.New("device not attached")
)

// Registry names attached devices by bus and address, e.g. "i2c-1:0x76".
// The id does not depend on attach order, so it is stable across restarts.
type Registry struct {
	mx      sync.RWMutex
	devices map[string]*environment.BMP280
}

func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]*environment.BMP280),
	}
}

// DeviceID returns the id a device at address on the named bus is attached as.
func DeviceID(bus string, address byte) string {
	return fmt.Sprintf("%s:%#02x", bus, address)
}

// Attach registers dev and returns its id.
func (r *Registry) Attach(bus string, dev *environment.BMP280) (string, error) {
	id := DeviceID(bus, dev.Access().DeviceAddress())
	r.mx.Lock()
	defer r.mx.Unlock()
	if _, ok := r.devices[id]; ok {
		return "", fmt.Errorf("%s: %w", id, ErrAlreadyAttached)
	}
	r.devices[id] = dev
	return id, nil
}

// Detach removes a device. Files already open keep working.
func (r *Registry) Detach(id string) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	if _, ok := r.devices[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrNotAttached)
	}
	delete(r.devices, id)
	return nil
}

// Open returns a new handle with its own session on the device.
func (r *Registry) Open(id string) (*File, error) {
	r.mx.RLock()
	dev, ok := r.devices[id]
	r.mx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotAttached)
	}
	return newFile(id, dev), nil
}

func (r *Registry) Device(id string) (*environment.BMP280, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()
	dev, ok := r.devices[id]
	return dev, ok
}

// List returns the attached ids in sorted order.
func (r *Registry) List() []string {
	r.mx.RLock()
	defer r.mx.RUnlock()
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
