package cpu

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/veil-ml/veil/internal/tensor"
)

// Reshape returns a view of x with a new shape. The data buffer is shared;
// the element count must match.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return x.Reshaped(shape)
}

// Transpose permutes the axes of x, copying into a new contiguous tensor.
// With no axes given, the axis order is reversed.
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	rank := len(shape)
	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("cpu: transpose: %d axes for rank-%d tensor", len(axes), rank))
	}
	seen := make([]bool, rank)
	outShape := make(tensor.Shape, rank)
	for i, ax := range axes {
		if ax < 0 || ax >= rank || seen[ax] {
			panic(fmt.Sprintf("cpu: transpose: invalid axis permutation %v for rank %d", axes, rank))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	out := tensor.MustNewRaw(outShape, x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		transposeInto[float32](out, x, axes)
	case tensor.Float64:
		transposeInto[float64](out, x, axes)
	default:
		panic(fmt.Sprintf("cpu: transpose: unsupported dtype %s", x.DType()))
	}
	return out
}

func transposeInto[T constraints.Float](out, x *tensor.RawTensor, axes []int) {
	inShape := x.Shape()
	inStrides := inShape.ComputeStrides()
	outShape := out.Shape()

	od := floatData[T](out)
	xd := floatData[T](x)

	idx := make([]int, len(outShape))
	for i := range od {
		src := 0
		for d, ax := range axes {
			src += idx[d] * inStrides[ax]
		}
		od[i] = xd[src]
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
}

// Sum reduces x to its total sum, shaped [1].
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	checkFloat("sum", x)
	out := tensor.MustNewRaw(tensor.Shape{1}, x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		sumInto[float32](out, x)
	case tensor.Float64:
		sumInto[float64](out, x)
	}
	return out
}

func sumInto[T constraints.Float](out, x *tensor.RawTensor) {
	var acc T
	for _, v := range floatData[T](x) {
		acc += v
	}
	floatData[T](out)[0] = acc
}

// SumDim sums along one dimension, optionally keeping it with size 1.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	checkFloat("sumdim", x)
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu: sumdim: dimension %d out of range for shape %v", dim, shape))
	}

	keptShape := shape.Clone()
	keptShape[dim] = 1
	out := tensor.MustNewRaw(keptShape, x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		sumDimInto[float32](out, x, dim)
	case tensor.Float64:
		sumDimInto[float64](out, x, dim)
	}

	if !keepDim {
		squeezed := make(tensor.Shape, 0, len(shape)-1)
		for d, size := range shape {
			if d != dim {
				squeezed = append(squeezed, size)
			}
		}
		if len(squeezed) == 0 {
			squeezed = tensor.Shape{1}
		}
		return out.Reshaped(squeezed)
	}
	return out
}

func sumDimInto[T constraints.Float](out, x *tensor.RawTensor, dim int) {
	shape := x.Shape()
	// Decompose the index space as [outer, dim, inner].
	outer, inner := 1, 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	size := shape[dim]

	od := floatData[T](out)
	xd := floatData[T](x)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var acc T
			base := o*size*inner + i
			for s := 0; s < size; s++ {
				acc += xd[base+s*inner]
			}
			od[o*inner+i] = acc
		}
	}
}
