package nn

import (
	"math"

	"github.com/veil-ml/veil/internal/tensor"
)

// Xavier initializes a tensor with Xavier/Glorot uniform values in
// [-limit, limit) where limit = sqrt(6 / (fanIn + fanOut)).
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	t := tensor.Rand[float32](shape, backend)
	return t.MulScalar(2 * limit).AddScalar(-limit)
}

// Zeros creates a float32 tensor of zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a float32 tensor of ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}
