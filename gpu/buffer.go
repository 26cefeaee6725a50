package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// wgpuBuffer is a storage buffer that kernels read and write in place.
type wgpuBuffer struct {
	ctx *Context
	buf *wgpu.Buffer
	n   int
}

// newFloatBuffer creates a storage buffer initialized with data.
func newFloatBuffer(c *Context, data []float32, label string) (*wgpuBuffer, error) {
	buf, err := c.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: wgpu.ToBytes(data),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBufferAllocationFailed, err)
	}
	if buf == nil {
		return nil, fmt.Errorf("%w: device returned no buffer", ErrBufferAllocationFailed)
	}
	return &wgpuBuffer{ctx: c, buf: buf, n: len(data)}, nil
}

func (b *wgpuBuffer) Len() int { return b.n }

// Read copies the buffer through a map-read staging buffer. It blocks until
// the map completes.
func (b *wgpuBuffer) Read() ([]float32, error) {
	if b.buf == nil {
		return nil, ErrReleased
	}
	c := b.ctx
	sizeBytes := uint64(b.n * 4)
	staging, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "doubler_read_staging",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create staging buffer: %v", ErrWorkSubmissionFailed, err)
	}
	defer staging.Release()
	defer staging.Destroy()

	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create command encoder: %v", ErrWorkSubmissionFailed, err)
	}
	encoder.CopyBufferToBuffer(b.buf, 0, staging, 0, sizeBytes)
	cmd, err := encoder.Finish(nil)
	encoder.Release()
	if err != nil {
		return nil, fmt.Errorf("%w: finish copy: %v", ErrWorkSubmissionFailed, err)
	}
	c.Queue.Submit(cmd)
	cmd.Release()

	done := make(chan struct{})
	var mapErr error
	err = staging.MapAsync(wgpu.MapModeRead, 0, sizeBytes, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("%w: map failed: %v", ErrWorkSubmissionFailed, status)
		}
		close(done)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: MapAsync: %v", ErrWorkSubmissionFailed, err)
	}

Loop:
	for {
		c.Device.Poll(true, nil)
		select {
		case <-done:
			break Loop
		default:
		}
	}
	if mapErr != nil {
		return nil, mapErr
	}

	data := staging.GetMappedRange(0, uint(sizeBytes))
	if data == nil {
		return nil, fmt.Errorf("%w: failed to get mapped range", ErrWorkSubmissionFailed)
	}
	result := make([]float32, b.n)
	copy(result, wgpu.FromBytes[float32](data))
	staging.Unmap()
	return result, nil
}

func (b *wgpuBuffer) Release() {
	if b.buf == nil {
		return
	}
	b.buf.Destroy()
	b.buf.Release()
	b.buf = nil
}
