package kernels

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownKernel is returned by Lookup for unregistered names.
var ErrUnknownKernel = errors.New("kernels: unknown kernel")

var (
	mu       sync.RWMutex
	registry = map[string][]Descriptor{}
)

// Register adds a descriptor. Registering the same name and version again
// replaces the earlier entry.
func Register(d Descriptor) {
	mu.Lock()
	defer mu.Unlock()
	list := registry[d.Name]
	for i, e := range list {
		if e.Version == d.Version {
			list[i] = d
			return
		}
	}
	list = append(list, d)
	sort.Slice(list, func(i, j int) bool { return list[i].Version < list[j].Version })
	registry[d.Name] = list
}

// Lookup returns the latest version of the named kernel.
func Lookup(name string) (Descriptor, error) {
	return LookupVersion(name, 0)
}

// LookupVersion returns a specific version; version 0 means latest.
func LookupVersion(name string, version int) (Descriptor, error) {
	mu.RLock()
	defer mu.RUnlock()
	list := registry[name]
	if len(list) == 0 {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownKernel, name)
	}
	if version == 0 {
		return list[len(list)-1], nil
	}
	for _, d := range list {
		if d.Version == version {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownKernel, Descriptor{Name: name, Version: version}.ID())
}

// Names lists registered kernel names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
