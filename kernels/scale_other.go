//go:build !amd64

package kernels

func scale(data []float32, factor float32) {
	for i := range data {
		data[i] *= factor
	}
}
