// Package kernels describes the elementwise compute kernels a dispatcher can
// run. A Descriptor is named and versioned so new kernels are added next to
// the existing ones instead of replacing them.
package kernels

import (
	"errors"
	"fmt"
)

// ErrInvalidDescriptor is returned by Validate.
var ErrInvalidDescriptor = errors.New("kernels: invalid descriptor")

// Descriptor is a precompiled-kernel recipe.
type Descriptor struct {
	Name    string
	Version int
	// EntryPoint is the WGSL compute entry point.
	EntryPoint string
	// WorkgroupSize is the invocation count per execution group and must match
	// the @workgroup_size in Source.
	WorkgroupSize uint32
	// Source is the WGSL module. It binds one read_write f32 storage buffer at
	// @group(0) @binding(0).
	Source string
	// Host applies the kernel in place on the CPU. It must be elementwise so
	// any sub-slice can be processed independently.
	Host func(data []float32)
}

// ID renders the descriptor as name@vN.
func (d Descriptor) ID() string {
	return fmt.Sprintf("%s@v%d", d.Name, d.Version)
}

// Validate reports whether the descriptor can be compiled.
func (d Descriptor) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
	case d.Version < 1:
		return fmt.Errorf("%w: %s: version must be >= 1", ErrInvalidDescriptor, d.Name)
	case d.Source == "":
		return fmt.Errorf("%w: %s: missing source", ErrInvalidDescriptor, d.ID())
	case d.EntryPoint == "":
		return fmt.Errorf("%w: %s: missing entry point", ErrInvalidDescriptor, d.ID())
	case d.WorkgroupSize == 0:
		return fmt.Errorf("%w: %s: zero workgroup size", ErrInvalidDescriptor, d.ID())
	case d.Host == nil:
		return fmt.Errorf("%w: %s: missing host reference", ErrInvalidDescriptor, d.ID())
	}
	return nil
}
