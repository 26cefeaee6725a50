package gpu

import "errors"

var (
	// ErrDeviceUnavailable is returned when no accelerator can be acquired.
	ErrDeviceUnavailable = errors.New("gpu: device unavailable")

	// ErrChannelCreationFailed is returned when the device refuses to open a
	// command queue.
	ErrChannelCreationFailed = errors.New("gpu: channel creation failed")

	// ErrKernelCompilationFailed is returned when a kernel is missing, does not
	// compile, or the device refuses to build a pipeline from it.
	ErrKernelCompilationFailed = errors.New("gpu: kernel compilation failed")

	// ErrBufferAllocationFailed is returned when a device buffer cannot be created.
	ErrBufferAllocationFailed = errors.New("gpu: buffer allocation failed")

	// ErrWorkSubmissionFailed is returned when a unit of work cannot be
	// created, bound, submitted or read back.
	ErrWorkSubmissionFailed = errors.New("gpu: work submission failed")

	// ErrGeometryTooLarge is returned when a dispatch does not fit the device limits.
	ErrGeometryTooLarge = errors.New("gpu: dispatch geometry exceeds device limits")

	// ErrUnknownBackend is returned by Lookup for unregistered names.
	ErrUnknownBackend = errors.New("gpu: unknown backend")

	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("gpu: resource released")
)
