package gpu

import (
	"context"
	"fmt"

	"github.com/openfluke/doubler/kernels"
	"github.com/openfluke/webgpu/wgpu"
)

// WGPUBackend runs kernels through WebGPU.
type WGPUBackend struct {
	opts WGPUOptions
}

// NewWGPUBackend returns a WebGPU backend. No device is touched until
// RequestDevice.
func NewWGPUBackend(opts WGPUOptions) *WGPUBackend {
	return &WGPUBackend{opts: opts}
}

func (b *WGPUBackend) Name() string { return "wgpu" }

func (b *WGPUBackend) RequestDevice(ctx context.Context) (Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	c, err := openContext(b.opts)
	if err != nil {
		return nil, err
	}
	return &wgpuDevice{ctx: c}, nil
}

type wgpuDevice struct {
	ctx *Context
}

func (d *wgpuDevice) Info() DeviceInfo {
	r := d.ctx.Report
	if r == nil {
		return DeviceInfo{Backend: "wgpu"}
	}
	return DeviceInfo{Name: r.Name, Vendor: r.VendorID, Backend: r.Backend, AdapterType: r.AdapterType}
}

func (d *wgpuDevice) MaxWorkgroupsPerDimension() uint32 {
	if r := d.ctx.Report; r != nil && r.Limits.MaxComputeWorkgroupsPerDimension > 0 {
		return r.Limits.MaxComputeWorkgroupsPerDimension
	}
	return DefaultMaxWorkgroupsPerDimension
}

func (d *wgpuDevice) NewQueue() (Queue, error) {
	if d.ctx.Device == nil {
		return nil, fmt.Errorf("%w: %w", ErrChannelCreationFailed, ErrReleased)
	}
	q, err := d.ctx.openQueue()
	if err != nil {
		return nil, err
	}
	return &wgpuQueue{ctx: d.ctx, q: q}, nil
}

func (d *wgpuDevice) CompileKernel(desc kernels.Descriptor) (Kernel, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKernelCompilationFailed, err)
	}
	label := desc.ID()
	module, err := d.ctx.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + "_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKernelCompilationFailed, label, err)
	}
	defer module.Release()

	pipeline, err := d.ctx.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   label + "_pipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: desc.EntryPoint},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKernelCompilationFailed, label, err)
	}
	return &wgpuKernel{desc: desc, pipeline: pipeline}, nil
}

func (d *wgpuDevice) NewBuffer(data []float32) (Buffer, error) {
	if d.ctx.Device == nil {
		return nil, fmt.Errorf("%w: %w", ErrBufferAllocationFailed, ErrReleased)
	}
	return newFloatBuffer(d.ctx, data, "doubler_data")
}

func (d *wgpuDevice) Release() {
	d.ctx.release()
}

type wgpuQueue struct {
	ctx *Context
	q   *wgpu.Queue
}

func (q *wgpuQueue) NewWork() (Work, error) {
	enc, err := q.ctx.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "doubler_enc"})
	if err != nil {
		return nil, fmt.Errorf("%w: create command encoder: %v", ErrWorkSubmissionFailed, err)
	}
	return &wgpuWork{ctx: q.ctx, q: q.q, enc: enc}, nil
}

// Release is a no-op: the queue belongs to the device and goes with it.
func (q *wgpuQueue) Release() {}

type wgpuKernel struct {
	desc     kernels.Descriptor
	pipeline *wgpu.ComputePipeline
}

func (k *wgpuKernel) Descriptor() kernels.Descriptor { return k.desc }

func (k *wgpuKernel) Release() {
	if k.pipeline != nil {
		k.pipeline.Release()
		k.pipeline = nil
	}
}

type wgpuWork struct {
	ctx       *Context
	q         *wgpu.Queue
	enc       *wgpu.CommandEncoder
	kernel    *wgpuKernel
	bindGroup *wgpu.BindGroup
	cmd       *wgpu.CommandBuffer
	submitted bool
}

func (w *wgpuWork) SetKernel(k Kernel) error {
	wk, ok := k.(*wgpuKernel)
	if !ok || wk.pipeline == nil {
		return fmt.Errorf("%w: kernel does not belong to a WebGPU device", ErrWorkSubmissionFailed)
	}
	w.kernel = wk
	return nil
}

func (w *wgpuWork) SetBuffer(index int, b Buffer) error {
	wb, ok := b.(*wgpuBuffer)
	if !ok || wb.buf == nil {
		return fmt.Errorf("%w: buffer does not belong to a WebGPU device", ErrWorkSubmissionFailed)
	}
	if w.kernel == nil {
		return fmt.Errorf("%w: no kernel bound", ErrWorkSubmissionFailed)
	}
	bg, err := w.ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  w.kernel.desc.ID() + "_bind",
		Layout: w.kernel.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: uint32(index), Buffer: wb.buf, Size: wb.buf.GetSize()},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create bind group: %v", ErrWorkSubmissionFailed, err)
	}
	w.bindGroup = bg
	return nil
}

func (w *wgpuWork) Dispatch(g Geometry) error {
	if w.kernel == nil || w.bindGroup == nil {
		return fmt.Errorf("%w: dispatch before binding", ErrWorkSubmissionFailed)
	}
	pass := w.enc.BeginComputePass(&wgpu.ComputePassDescriptor{Label: w.kernel.desc.ID() + "_pass"})
	pass.SetPipeline(w.kernel.pipeline)
	pass.SetBindGroup(0, w.bindGroup, nil)
	pass.DispatchWorkgroups(g.Groups[0], g.Groups[1], g.Groups[2])
	pass.End()
	return nil
}

func (w *wgpuWork) Commit() error {
	cmd, err := w.enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("%w: finish: %v", ErrWorkSubmissionFailed, err)
	}
	w.cmd = cmd
	w.q.Submit(cmd)
	w.submitted = true
	return nil
}

// Wait blocks on Device.Poll until the queue drains.
func (w *wgpuWork) Wait() error {
	if !w.submitted {
		return fmt.Errorf("%w: wait before commit", ErrWorkSubmissionFailed)
	}
	for !w.ctx.Device.Poll(true, nil) {
	}
	return nil
}

func (w *wgpuWork) Release() {
	if w.cmd != nil {
		w.cmd.Release()
		w.cmd = nil
	}
	if w.bindGroup != nil {
		w.bindGroup.Release()
		w.bindGroup = nil
	}
	if w.enc != nil {
		w.enc.Release()
		w.enc = nil
	}
}
