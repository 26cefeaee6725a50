package gpu

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/openfluke/doubler/kernels"
)

// Backend is implemented by accelerator backends (WebGPU, CPU reference).
// It is responsible for device discovery.
type Backend interface {
	Name() string
	// RequestDevice acquires a device. It fails with ErrDeviceUnavailable
	// when no accelerator is present.
	RequestDevice(ctx context.Context) (Device, error)
}

// Device is an acquired accelerator.
type Device interface {
	Info() DeviceInfo
	// NewQueue opens an ordered submission channel on the device.
	NewQueue() (Queue, error)
	// CompileKernel builds an execution pipeline for the descriptor.
	CompileKernel(desc kernels.Descriptor) (Kernel, error)
	// NewBuffer allocates a device-resident buffer holding a copy of data.
	NewBuffer(data []float32) (Buffer, error)
	// MaxWorkgroupsPerDimension bounds each axis of a dispatch.
	MaxWorkgroupsPerDimension() uint32
	Release()
}

// Queue is an ordered command channel bound to a device.
type Queue interface {
	// NewWork opens one unit of submitted work.
	NewWork() (Work, error)
	Release()
}

// Work is a single recorded dispatch. Calls must happen in the order
// SetKernel, SetBuffer, Dispatch, Commit, Wait.
type Work interface {
	SetKernel(k Kernel) error
	SetBuffer(index int, b Buffer) error
	Dispatch(g Geometry) error
	Commit() error
	// Wait blocks until the device signals completion. There is no timeout.
	Wait() error
	Release()
}

// Buffer is a device-resident float32 buffer.
type Buffer interface {
	Len() int
	// Read copies the buffer contents into a new host slice.
	Read() ([]float32, error)
	Release()
}

// Kernel is a compiled pipeline for a kernel descriptor.
type Kernel interface {
	Descriptor() kernels.Descriptor
	Release()
}

// DeviceInfo describes the selected accelerator.
type DeviceInfo struct {
	Name        string
	Vendor      string
	Backend     string
	AdapterType string
}

func (i DeviceInfo) String() string {
	return fmt.Sprintf("%s (%s, %s/%s)", i.Name, i.Vendor, i.Backend, i.AdapterType)
}

// Factory builds a backend by name.
type Factory func() Backend

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	RegisterBackend("wgpu", func() Backend { return NewWGPUBackend(WGPUOptions{}) })
	RegisterBackend("cpu", func() Backend { return NewCPUBackend(CPUOptions{}) })
}

// RegisterBackend makes a backend available to Lookup. Passing a nil factory
// removes the name.
func RegisterBackend(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f == nil {
		delete(registry, name)
		return
	}
	registry[name] = f
}

// Lookup builds the backend registered under name.
func Lookup(name string) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return f(), nil
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
