// Package app holds the state behind the doubling demo: the current values,
// how many times they have been doubled, and the actions a front end can
// trigger.
package app

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultInitial is the starting array.
var DefaultInitial = []float32{1, 2, 3, 4, 5}

// Transformer is the accelerated operation the model drives.
// *compute.Dispatcher satisfies it.
type Transformer interface {
	Transform(input []float32) []float32
}

// Model is safe for use by one UI goroutine plus readers.
type Model struct {
	mu        sync.RWMutex
	t         Transformer
	initial   []float32
	values    []float32
	iteration int
}

// NewModel returns a model starting at initial (DefaultInitial when empty).
// A nil transformer leaves the Double action unavailable.
func NewModel(t Transformer, initial []float32) *Model {
	if len(initial) == 0 {
		initial = DefaultInitial
	}
	m := &Model{t: t, initial: clone(initial)}
	m.values = clone(initial)
	return m
}

// Available reports whether Double does anything.
func (m *Model) Available() bool {
	return m.t != nil
}

// Double transforms the current values and bumps the iteration counter. It
// returns false without changing state when no transformer is available.
func (m *Model) Double() bool {
	if m.t == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = m.t.Transform(m.values)
	m.iteration++
	return true
}

// Reset restores the initial values and zeroes the counter.
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = clone(m.initial)
	m.iteration = 0
}

// Values returns a copy of the current values.
func (m *Model) Values() []float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.values)
}

func (m *Model) Iteration() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.iteration
}

// FormatValues renders the values with one decimal, comma separated.
func (m *Model) FormatValues() string {
	return FormatValues(m.Values())
}

// FormatValues renders vs as "1.0, 2.0, 3.0".
func FormatValues(vs []float32) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%.1f", v)
	}
	return strings.Join(parts, ", ")
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
