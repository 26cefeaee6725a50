package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFull(t *testing.T) {
	src := `
backend = "cpu"
initial = [0.5, 2, -3]

kernel "double_array" {
  version = 1
}

adapter {
  prefer_vendor = "nvidia"
  power         = "low-power"
}
`
	cfg, err := Parse([]byte(src), "test.hcl")
	require.NoError(t, err)
	require.Equal(t, &Config{
		Backend:       "cpu",
		Kernel:        "double_array",
		KernelVersion: 1,
		Initial:       []float32{0.5, 2, -3},
		PreferVendor:  "nvidia",
		Power:         "low-power",
	}, cfg)
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""), "empty.hcl")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"syntax":        `backend = `,
		"unknown attr":  `colour = "red"`,
		"bad power":     "adapter {\n  power = \"turbo\"\n}\n",
		"bad initial":   `initial = ["a", "b"]`,
		"bad version":   "kernel \"double_array\" {\n  version = -1\n}\n",
		"empty backend": `backend = ""`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), name+".hcl")
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doubler.hcl")
	require.NoError(t, os.WriteFile(path, []byte("initial = [10, 20]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []float32{10, 20}, cfg.Initial)
	require.Equal(t, "wgpu", cfg.Backend)

	_, err = Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadmeConfigParses(t *testing.T) {
	readme, err := os.ReadFile(filepath.Join("..", "..", "README.md"))
	require.NoError(t, err)

	_, rest, ok := strings.Cut(string(readme), "```hcl\n")
	require.True(t, ok, "README has no hcl block")
	src, _, ok := strings.Cut(rest, "```")
	require.True(t, ok, "README hcl block is not closed")

	cfg, err := Parse([]byte(src), "README.md")
	require.NoError(t, err)
	require.Equal(t, "double_array", cfg.Kernel)
	require.Equal(t, 1, cfg.KernelVersion)
	require.Equal(t, "nvidia", cfg.PreferVendor)
	require.Equal(t, "high-performance", cfg.Power)
}
