package cpu

import (
	"golang.org/x/exp/constraints"

	"github.com/veil-ml/veil/internal/tensor"
)

// ReLU applies max(x, 0) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	checkFloat("relu", x)
	out := tensor.MustNewRaw(x.Shape(), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		reluInto[float32](out, x)
	case tensor.Float64:
		reluInto[float64](out, x)
	}
	return out
}

func reluInto[T constraints.Float](out, x *tensor.RawTensor) {
	od := floatData[T](out)
	xd := floatData[T](x)
	for i, v := range xd {
		if v > 0 {
			od[i] = v
		}
	}
}

// ReLUBackward masks the output gradient by the sign of the forward input:
// d(ReLU(x))/dx is 1 where x > 0 and 0 elsewhere.
func (cpu *CPUBackend) ReLUBackward(x, grad *tensor.RawTensor) *tensor.RawTensor {
	checkFloat("relu backward", grad)
	out := tensor.MustNewRaw(x.Shape(), grad.DType(), cpu.device)
	switch grad.DType() {
	case tensor.Float32:
		reluBackwardInto[float32](out, x, grad)
	case tensor.Float64:
		reluBackwardInto[float64](out, x, grad)
	}
	return out
}

func reluBackwardInto[T constraints.Float](out, x, grad *tensor.RawTensor) {
	od := floatData[T](out)
	xd := floatData[T](x)
	gd := floatData[T](grad)
	for i, v := range xd {
		if v > 0 {
			od[i] = gd[i]
		}
	}
}
