package kernels

import "github.com/ziutek/blas"

func scale(data []float32, factor float32) {
	if len(data) == 0 {
		return
	}
	blas.Sscal(len(data), factor, data, 1)
}
