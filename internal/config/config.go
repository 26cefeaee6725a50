// Package config loads the doubler configuration from an HCL file.
//
//	backend = "wgpu"
//	initial = [1, 2, 3, 4, 5]
//
//	kernel "double_array" {
//	  version = 1
//	}
//
//	adapter {
//	  prefer_vendor = "nvidia"
//	  power         = "high-performance"
//	}
//
// Every field is optional; Default supplies the missing ones.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Config is the resolved configuration.
type Config struct {
	Backend       string
	Kernel        string
	KernelVersion int // 0 selects the latest registered version
	Initial       []float32
	PreferVendor  string
	Power         string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: "wgpu",
		Kernel:  "double_array",
		Initial: []float32{1, 2, 3, 4, 5},
		Power:   "high-performance",
	}
}

// fileModel mirrors the HCL layout for gohcl.
type fileModel struct {
	Backend *string       `hcl:"backend,optional"`
	Initial cty.Value     `hcl:"initial,optional"`
	Kernel  *kernelBlock  `hcl:"kernel,block"`
	Adapter *adapterBlock `hcl:"adapter,block"`
}

type kernelBlock struct {
	Name    string `hcl:"name,label"`
	Version *int   `hcl:"version,optional"`
}

type adapterBlock struct {
	PreferVendor *string `hcl:"prefer_vendor,optional"`
	Power        *string `hcl:"power,optional"`
}

// Load reads and decodes the file at path on top of Default.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes HCL source. filename is used in diagnostics only.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: %w", diags)
	}

	var m fileModel
	if diags := gohcl.DecodeBody(file.Body, nil, &m); diags.HasErrors() {
		return nil, fmt.Errorf("config: %w", diags)
	}

	cfg := Default()
	if m.Backend != nil {
		cfg.Backend = *m.Backend
	}
	if m.Kernel != nil {
		cfg.Kernel = m.Kernel.Name
		if m.Kernel.Version != nil {
			cfg.KernelVersion = *m.Kernel.Version
		}
	}
	if m.Adapter != nil {
		if m.Adapter.PreferVendor != nil {
			cfg.PreferVendor = *m.Adapter.PreferVendor
		}
		if m.Adapter.Power != nil {
			cfg.Power = *m.Adapter.Power
		}
	}
	if !m.Initial.IsNull() {
		initial, err := floats(m.Initial)
		if err != nil {
			return nil, fmt.Errorf("config: %s: initial: %w", filename, err)
		}
		cfg.Initial = initial
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks fields that have a closed set of values.
func (c *Config) Validate() error {
	var diags hcl.Diagnostics
	switch c.Power {
	case "", "high-performance", "low-power":
	default:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid power preference",
			Detail:   fmt.Sprintf("power must be \"high-performance\" or \"low-power\", got %q", c.Power),
		})
	}
	if c.KernelVersion < 0 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid kernel version",
			Detail:   fmt.Sprintf("version must be >= 1, got %d", c.KernelVersion),
		})
	}
	if c.Backend == "" {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing backend",
		})
	}
	if diags.HasErrors() {
		return fmt.Errorf("config: %w", diags)
	}
	return nil
}

func floats(v cty.Value) ([]float32, error) {
	list, err := convert.Convert(v, cty.List(cty.Number))
	if err != nil {
		return nil, err
	}
	if !list.IsWhollyKnown() {
		return nil, fmt.Errorf("value must be known")
	}
	out := make([]float32, 0, list.LengthInt())
	for it := list.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		if ev.IsNull() {
			return nil, fmt.Errorf("null element")
		}
		var f float32
		if err := gocty.FromCtyValue(ev, &f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
