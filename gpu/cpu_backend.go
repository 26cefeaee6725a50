package gpu

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/openfluke/doubler/kernels"
)

// CPUFaults selects which resource acquisitions a CPU backend refuses.
type CPUFaults struct {
	NoDevice    bool
	FailQueue   bool
	FailCompile bool
	FailBuffer  bool
	FailWork    bool
	FailBind    bool
}

// CPUOptions configures a CPUBackend.
type CPUOptions struct {
	Faults CPUFaults
	// Workers bounds the goroutines used per dispatch; 0 means GOMAXPROCS.
	Workers int
	// MaxWorkgroupsPerDimension overrides the reported device limit.
	MaxWorkgroupsPerDimension uint32
}

// CPUBackend executes kernels with their host reference on the CPU. It
// behaves like a device for development and tests, and can be told to fail
// any acquisition step.
type CPUBackend struct {
	mu   sync.Mutex
	opts CPUOptions
}

// NewCPUBackend returns a CPU-backed backend with a single device.
func NewCPUBackend(opts CPUOptions) *CPUBackend {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.MaxWorkgroupsPerDimension == 0 {
		opts.MaxWorkgroupsPerDimension = DefaultMaxWorkgroupsPerDimension
	}
	return &CPUBackend{opts: opts}
}

// SetFaults replaces the active fault set. Devices already handed out see
// the change on their next call.
func (b *CPUBackend) SetFaults(f CPUFaults) {
	b.mu.Lock()
	b.opts.Faults = f
	b.mu.Unlock()
}

func (b *CPUBackend) faults() CPUFaults {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts.Faults
}

func (b *CPUBackend) Name() string { return "cpu" }

func (b *CPUBackend) RequestDevice(ctx context.Context) (Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if b.faults().NoDevice {
		return nil, fmt.Errorf("%w: cpu backend has no device", ErrDeviceUnavailable)
	}
	return &cpuDevice{backend: b}, nil
}

type cpuDevice struct {
	backend  *CPUBackend
	released bool
}

func (d *cpuDevice) Info() DeviceInfo {
	return DeviceInfo{
		Name:        "CPU reference",
		Vendor:      runtime.GOARCH,
		Backend:     "cpu",
		AdapterType: "cpu",
	}
}

func (d *cpuDevice) MaxWorkgroupsPerDimension() uint32 {
	return d.backend.opts.MaxWorkgroupsPerDimension
}

func (d *cpuDevice) NewQueue() (Queue, error) {
	if d.released {
		return nil, fmt.Errorf("%w: %w", ErrChannelCreationFailed, ErrReleased)
	}
	if d.backend.faults().FailQueue {
		return nil, fmt.Errorf("%w: injected fault", ErrChannelCreationFailed)
	}
	return &cpuQueue{device: d}, nil
}

func (d *cpuDevice) CompileKernel(desc kernels.Descriptor) (Kernel, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKernelCompilationFailed, err)
	}
	if d.backend.faults().FailCompile {
		return nil, fmt.Errorf("%w: %s: injected fault", ErrKernelCompilationFailed, desc.ID())
	}
	return &cpuKernel{desc: desc}, nil
}

func (d *cpuDevice) NewBuffer(data []float32) (Buffer, error) {
	if d.released {
		return nil, fmt.Errorf("%w: %w", ErrBufferAllocationFailed, ErrReleased)
	}
	if d.backend.faults().FailBuffer {
		return nil, fmt.Errorf("%w: injected fault", ErrBufferAllocationFailed)
	}
	buf := &cpuBuffer{data: make([]float32, len(data))}
	copy(buf.data, data)
	return buf, nil
}

func (d *cpuDevice) Release() { d.released = true }

type cpuQueue struct {
	device *cpuDevice
}

func (q *cpuQueue) NewWork() (Work, error) {
	if q.device.backend.faults().FailWork {
		return nil, fmt.Errorf("%w: injected fault", ErrWorkSubmissionFailed)
	}
	return &cpuWork{device: q.device}, nil
}

func (q *cpuQueue) Release() {}

type cpuKernel struct {
	desc kernels.Descriptor
}

func (k *cpuKernel) Descriptor() kernels.Descriptor { return k.desc }
func (k *cpuKernel) Release()                       {}

type cpuBuffer struct {
	data []float32
}

func (b *cpuBuffer) Len() int { return len(b.data) }

func (b *cpuBuffer) Read() ([]float32, error) {
	if b.data == nil {
		return nil, ErrReleased
	}
	out := make([]float32, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (b *cpuBuffer) Release() { b.data = nil }

type cpuWork struct {
	device *cpuDevice
	kernel *cpuKernel
	buffer *cpuBuffer
	geom   Geometry
	wg     sync.WaitGroup
	state  int
}

const (
	workRecording = iota
	workDispatched
	workPending
	workDone
)

func (w *cpuWork) SetKernel(k Kernel) error {
	ck, ok := k.(*cpuKernel)
	if !ok {
		return fmt.Errorf("%w: kernel does not belong to a CPU device", ErrWorkSubmissionFailed)
	}
	if w.device.backend.faults().FailBind {
		return fmt.Errorf("%w: bind kernel: injected fault", ErrWorkSubmissionFailed)
	}
	w.kernel = ck
	return nil
}

func (w *cpuWork) SetBuffer(index int, b Buffer) error {
	cb, ok := b.(*cpuBuffer)
	if !ok || cb.data == nil {
		return fmt.Errorf("%w: buffer does not belong to a CPU device", ErrWorkSubmissionFailed)
	}
	if index != 0 {
		return fmt.Errorf("%w: binding %d out of range", ErrWorkSubmissionFailed, index)
	}
	w.buffer = cb
	return nil
}

func (w *cpuWork) Dispatch(g Geometry) error {
	if w.kernel == nil || w.buffer == nil {
		return fmt.Errorf("%w: dispatch before binding", ErrWorkSubmissionFailed)
	}
	w.geom = g
	w.state = workDispatched
	return nil
}

// Commit starts execution: the covered range of the buffer is split across
// workers and each chunk runs the host reference in place.
func (w *cpuWork) Commit() error {
	if w.state != workDispatched {
		return fmt.Errorf("%w: commit before dispatch", ErrWorkSubmissionFailed)
	}
	n := min(w.geom.Invocations(), len(w.buffer.data))
	workers := w.device.backend.opts.Workers
	chunk := (n + workers - 1) / max(workers, 1)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		w.wg.Add(1)
		go func(part []float32) {
			defer w.wg.Done()
			w.kernel.desc.Host(part)
		}(w.buffer.data[lo:hi])
	}
	w.state = workPending
	return nil
}

func (w *cpuWork) Wait() error {
	if w.state < workPending {
		return fmt.Errorf("%w: wait before commit", ErrWorkSubmissionFailed)
	}
	w.wg.Wait()
	w.state = workDone
	return nil
}

func (w *cpuWork) Release() {
	w.wg.Wait()
	w.kernel = nil
	w.buffer = nil
}
