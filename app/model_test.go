package app

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/openfluke/doubler/compute"
	"github.com/openfluke/doubler/gpu"
	"github.com/openfluke/doubler/kernels"
)

func TestDoubleAndReset(t *testing.T) {
	d, err := compute.New(context.Background(), gpu.NewCPUBackend(gpu.CPUOptions{}), kernels.Double)
	require.NoError(t, err)
	defer d.Close()

	m := NewModel(d, nil)
	require.True(t, m.Available())
	require.Equal(t, 0, m.Iteration())

	steps := []struct {
		want []float32
		iter int
	}{
		{[]float32{2, 4, 6, 8, 10}, 1},
		{[]float32{4, 8, 12, 16, 20}, 2},
	}
	for _, s := range steps {
		require.True(t, m.Double())
		if diff := cmp.Diff(s.want, m.Values()); diff != "" {
			t.Fatalf("after iteration %d (-want +got):\n%s", s.iter, diff)
		}
		require.Equal(t, s.iter, m.Iteration())
	}
	require.Equal(t, "4.0, 8.0, 12.0, 16.0, 20.0", m.FormatValues())

	m.Reset()
	require.Equal(t, []float32{1, 2, 3, 4, 5}, m.Values())
	require.Equal(t, 0, m.Iteration())
}

func TestUnavailable(t *testing.T) {
	m := NewModel(nil, []float32{7})
	require.False(t, m.Available())
	require.False(t, m.Double())
	require.Equal(t, []float32{7}, m.Values())
	require.Equal(t, 0, m.Iteration())
}

func TestFailedDispatchLeavesValues(t *testing.T) {
	backend := gpu.NewCPUBackend(gpu.CPUOptions{})
	d, err := compute.New(context.Background(), backend, kernels.Double)
	require.NoError(t, err)
	defer d.Close()

	m := NewModel(d, nil)
	backend.SetFaults(gpu.CPUFaults{FailBuffer: true})
	require.True(t, m.Double())
	require.Equal(t, []float32{1, 2, 3, 4, 5}, m.Values())
	require.Equal(t, uint64(1), d.Failures())
}

func TestValuesAreCopies(t *testing.T) {
	initial := []float32{1, 2}
	m := NewModel(nil, initial)
	initial[0] = 50
	v := m.Values()
	v[1] = 60
	require.Equal(t, []float32{1, 2}, m.Values())
}

func TestFormatValues(t *testing.T) {
	require.Equal(t, "", FormatValues(nil))
	require.Equal(t, "1.0, 2.5, -3.0", FormatValues([]float32{1, 2.5, -3}))
}
