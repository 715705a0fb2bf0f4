package cpu

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/veil-ml/veil/internal/tensor"
)

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// binary dispatches a broadcasting binary op by dtype.
func (cpu *CPUBackend) binary(op string, a, b *tensor.RawTensor,
	f32 func(x, y float32) float32, f64 func(x, y float64) float64) *tensor.RawTensor {

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %s: %v", op, err))
	}
	out := tensor.MustNewRaw(outShape, a.DType(), cpu.device)

	switch a.DType() {
	case tensor.Float32:
		binaryInto(out, a, b, f32)
	case tensor.Float64:
		binaryInto(out, a, b, f64)
	default:
		panic(fmt.Sprintf("cpu: %s: unsupported dtype %s", op, a.DType()))
	}
	return out
}

// binaryInto evaluates f element-wise into out, broadcasting a and b to
// out's shape.
func binaryInto[T constraints.Float](out, a, b *tensor.RawTensor, f func(x, y T) T) {
	od := floatData[T](out)
	ad := floatData[T](a)
	bd := floatData[T](b)

	if a.Shape().Equal(b.Shape()) {
		for i := range od {
			od[i] = f(ad[i], bd[i])
		}
		return
	}

	outShape := out.Shape()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	idx := make([]int, len(outShape))
	for i := range od {
		ai, bi := 0, 0
		for d := range idx {
			ai += idx[d] * aStrides[d]
			bi += idx[d] * bStrides[d]
		}
		od[i] = f(ad[ai], bd[bi])
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
}

// broadcastStrides right-aligns shape s against the output shape and
// returns per-output-dimension strides, with 0 for broadcast dimensions.
func broadcastStrides(s, out tensor.Shape) []int {
	strides := make([]int, len(out))
	sStrides := s.ComputeStrides()
	offset := len(out) - len(s)
	for d := range out {
		sd := d - offset
		if sd >= 0 && s[sd] != 1 {
			strides[d] = sStrides[sd]
		}
	}
	return strides
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("addscalar", x, scalar,
		func(v, s float32) float32 { return v + s },
		func(v, s float64) float64 { return v + s })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mulscalar", x, scalar,
		func(v, s float32) float32 { return v * s },
		func(v, s float64) float64 { return v * s })
}

func (cpu *CPUBackend) scalarOp(op string, x *tensor.RawTensor, scalar any,
	f32 func(v, s float32) float32, f64 func(v, s float64) float64) *tensor.RawTensor {

	out := tensor.MustNewRaw(x.Shape(), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		s := toFloat64(op, scalar)
		scalarInto(out, x, float32(s), f32)
	case tensor.Float64:
		scalarInto(out, x, toFloat64(op, scalar), f64)
	default:
		panic(fmt.Sprintf("cpu: %s: unsupported dtype %s", op, x.DType()))
	}
	return out
}

func scalarInto[T constraints.Float](out, x *tensor.RawTensor, s T, f func(v, s T) T) {
	od := floatData[T](out)
	xd := floatData[T](x)
	for i := range od {
		od[i] = f(xd[i], s)
	}
}

// toFloat64 widens any supported numeric scalar argument.
func toFloat64(op string, scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		panic(fmt.Sprintf("cpu: %s: unsupported scalar type %T", op, scalar))
	}
}
