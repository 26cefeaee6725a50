package kernels

import "fmt"

// DoubleName is the name of the built-in doubling kernel.
const DoubleName = "double_array"

// Double multiplies every element by two, one invocation per element.
var Double = Scale(DoubleName, 1, 2, 1)

func init() {
	Register(Double)
}

// Scale builds an elementwise multiply-by-factor kernel.
func Scale(name string, version int, factor float32, workgroupSize uint32) Descriptor {
	return Descriptor{
		Name:          name,
		Version:       version,
		EntryPoint:    "main",
		WorkgroupSize: workgroupSize,
		Source:        scaleShader(factor, workgroupSize),
		Host:          func(data []float32) { scale(data, factor) },
	}
}

// scaleShader folds the X/Y group grid back into a flat element index.
func scaleShader(factor float32, wgx uint32) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read_write> data : array<f32>;

const FACTOR: f32 = %s;
const WGX: u32 = %du;

@compute @workgroup_size(%d, 1, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>,
        @builtin(num_workgroups) groups: vec3<u32>) {
    let i = gid.x + gid.y * groups.x * WGX;
    if (i >= arrayLength(&data)) { return; }
    data[i] = data[i] * FACTOR;
}
`, wgslFloat(factor), wgx, wgx)
}

// wgslFloat always renders a decimal point so WGSL types the literal as f32.
func wgslFloat(f float32) string {
	s := fmt.Sprintf("%g", f)
	for _, c := range s {
		if c == '.' || c == 'e' {
			return s
		}
	}
	return s + ".0"
}
