// Package compute runs a fixed elementwise kernel over a float32 slice on an
// accelerator, one synchronous round-trip per call.
//
// A Dispatcher is built once with New and owns its device, queue and compiled
// kernel until Close. Transform blocks until the device has finished and
// never fails from the caller's point of view: per-call errors are logged,
// passed to the failure hook, and masked by returning the input unchanged.
// TryTransform runs the same round-trip but returns the error.
//
// Calls on one Dispatcher are serialized. The wait for completion has no
// timeout; a hung device hangs the caller, so this is not suitable for large
// or long-running kernels.
package compute

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/openfluke/doubler/gpu"
	"github.com/openfluke/doubler/internal/ctxlog"
	"github.com/openfluke/doubler/kernels"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger failures are reported to. The default is the
// logger carried by the context passed to New.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithFailureHook registers a function called once for every failed call.
func WithFailureHook(fn func(error)) Option {
	return func(d *Dispatcher) { d.onFailure = fn }
}

// Dispatcher owns a device, one submission queue and one compiled kernel.
type Dispatcher struct {
	mu     sync.Mutex
	device gpu.Device
	queue  gpu.Queue
	kernel gpu.Kernel
	desc   kernels.Descriptor
	info   gpu.DeviceInfo
	closed bool

	logger    *slog.Logger
	onFailure func(error)
	failures  atomic.Uint64
}

// New acquires a device from backend, opens a queue on it and compiles desc.
// Errors wrap gpu.ErrDeviceUnavailable, gpu.ErrChannelCreationFailed or
// gpu.ErrKernelCompilationFailed. Resources acquired before a failing step
// are released; no partially built Dispatcher is ever returned.
func New(ctx context.Context, backend gpu.Backend, desc kernels.Descriptor, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{desc: desc, logger: ctxlog.FromContext(ctx)}
	for _, o := range opts {
		o(d)
	}
	log := d.logger.With("kernel", desc.ID())

	if backend == nil {
		return nil, fmt.Errorf("compute: acquire device: %w: no backend", gpu.ErrDeviceUnavailable)
	}
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("compute: %w: %w", gpu.ErrKernelCompilationFailed, err)
	}

	device, err := backend.RequestDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute: acquire device from %s: %w", backend.Name(), err)
	}
	log.Debug("device acquired", "backend", backend.Name(), "device", device.Info().String())

	queue, err := device.NewQueue()
	if err != nil {
		device.Release()
		return nil, fmt.Errorf("compute: open queue: %w", err)
	}
	log.Debug("queue opened")

	kernel, err := device.CompileKernel(desc)
	if err != nil {
		queue.Release()
		device.Release()
		return nil, fmt.Errorf("compute: compile kernel: %w", err)
	}
	log.Debug("kernel compiled")

	d.device = device
	d.queue = queue
	d.kernel = kernel
	d.info = device.Info()
	return d, nil
}

// Kernel returns the descriptor the dispatcher was built with.
func (d *Dispatcher) Kernel() kernels.Descriptor { return d.desc }

// Device describes the accelerator in use.
func (d *Dispatcher) Device() gpu.DeviceInfo { return d.info }

// Failures counts calls that fell back to returning their input.
func (d *Dispatcher) Failures() uint64 { return d.failures.Load() }

// Transform applies the kernel to input and returns a new slice of the same
// length. On any per-call failure it returns input unchanged.
func (d *Dispatcher) Transform(input []float32) []float32 {
	out, _ := d.TryTransform(input)
	return out
}

// TryTransform is Transform with the failure visible. On error the returned
// slice is input itself and the error wraps gpu.ErrBufferAllocationFailed,
// gpu.ErrWorkSubmissionFailed or gpu.ErrReleased.
func (d *Dispatcher) TryTransform(input []float32) ([]float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out, err := d.dispatch(input)
	if err != nil {
		d.report(len(input), err)
		return input, err
	}
	return out, nil
}

// dispatch performs allocate, bind, dispatch, wait and read back. The caller
// holds d.mu.
func (d *Dispatcher) dispatch(input []float32) ([]float32, error) {
	if d.closed {
		return nil, fmt.Errorf("compute: dispatch: %w", gpu.ErrReleased)
	}
	if len(input) == 0 {
		return []float32{}, nil
	}

	buf, err := d.device.NewBuffer(input)
	if err != nil {
		return nil, fmt.Errorf("compute: allocate buffer of %d floats: %w", len(input), err)
	}
	defer buf.Release()

	work, err := d.queue.NewWork()
	if err != nil {
		return nil, fmt.Errorf("compute: create work: %w", err)
	}
	defer work.Release()

	if err := work.SetKernel(d.kernel); err != nil {
		return nil, fmt.Errorf("compute: bind kernel: %w", err)
	}
	if err := work.SetBuffer(0, buf); err != nil {
		return nil, fmt.Errorf("compute: bind buffer: %w", err)
	}

	geom, err := gpu.PlanGeometry(len(input), d.desc.WorkgroupSize, d.device.MaxWorkgroupsPerDimension())
	if err != nil {
		return nil, fmt.Errorf("compute: %w: %w", gpu.ErrWorkSubmissionFailed, err)
	}
	if err := work.Dispatch(geom); err != nil {
		return nil, fmt.Errorf("compute: dispatch: %w", err)
	}
	if err := work.Commit(); err != nil {
		return nil, fmt.Errorf("compute: commit: %w", err)
	}
	if err := work.Wait(); err != nil {
		return nil, fmt.Errorf("compute: wait: %w", err)
	}

	out, err := buf.Read()
	if err != nil {
		return nil, fmt.Errorf("compute: read back: %w", err)
	}
	if len(out) != len(input) {
		return nil, fmt.Errorf("compute: %w: read back %d floats, want %d", gpu.ErrWorkSubmissionFailed, len(out), len(input))
	}
	return out, nil
}

func (d *Dispatcher) report(n int, err error) {
	d.failures.Add(1)
	d.logger.Error("transform failed, returning input unchanged",
		"kernel", d.desc.ID(), "count", n, "err", err)
	if d.onFailure != nil {
		d.onFailure(err)
	}
}

// Close releases the kernel, queue and device. It is safe to call more than
// once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.kernel.Release()
	d.queue.Release()
	d.device.Release()
}
