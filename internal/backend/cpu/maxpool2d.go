package cpu

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/veil-ml/veil/internal/tensor"
)

// MaxPool2D performs 2D max pooling over NCHW input.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	out, _ := cpu.MaxPool2DWithIndices(input, kernelSize, stride)
	return out
}

// MaxPool2DWithIndices performs max pooling and records, per output element,
// the flat index into the input of the selected maximum. The indices are
// consumed by MaxPool2DBackward.
func (cpu *CPUBackend) MaxPool2DWithIndices(input *tensor.RawTensor, kernelSize, stride int) (*tensor.RawTensor, []int) {
	checkFloat("maxpool2d", input)
	in := input.Shape()
	if len(in) != 4 {
		panic(fmt.Sprintf("cpu: maxpool2d: expected 4D input, got %v", in))
	}
	hOut := (in[2]-kernelSize)/stride + 1
	wOut := (in[3]-kernelSize)/stride + 1
	out := tensor.MustNewRaw(tensor.Shape{in[0], in[1], hOut, wOut}, input.DType(), cpu.device)
	indices := make([]int, out.NumElements())

	switch input.DType() {
	case tensor.Float32:
		maxPool2D[float32](out, input, indices, kernelSize, stride)
	case tensor.Float64:
		maxPool2D[float64](out, input, indices, kernelSize, stride)
	}
	return out, indices
}

func maxPool2D[T constraints.Float](out, input *tensor.RawTensor, indices []int, kernelSize, stride int) {
	in, on := input.Shape(), out.Shape()
	n, c, h, w := in[0], in[1], in[2], in[3]
	hOut, wOut := on[2], on[3]

	od := floatData[T](out)
	id := floatData[T](input)

	for batch := 0; batch < n; batch++ {
		for ch := 0; ch < c; ch++ {
			planeOffset := (batch*c + ch) * h * w
			outOffset := (batch*c + ch) * hOut * wOut
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					bestIdx := planeOffset + (oh*stride)*w + ow*stride
					best := id[bestIdx]
					for kh := 0; kh < kernelSize; kh++ {
						ih := oh*stride + kh
						for kw := 0; kw < kernelSize; kw++ {
							iw := ow*stride + kw
							idx := planeOffset + ih*w + iw
							if id[idx] > best {
								best = id[idx]
								bestIdx = idx
							}
						}
					}
					oi := outOffset + oh*wOut + ow
					od[oi] = best
					indices[oi] = bestIdx
				}
			}
		}
	}
}

// MaxPool2DBackward scatters the output gradient back to the argmax
// positions recorded by the forward pass.
func (cpu *CPUBackend) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	checkFloat("maxpool2d backward", grad)
	if len(maxIndices) != grad.NumElements() {
		panic(fmt.Sprintf("cpu: maxpool2d backward: %d indices for %d gradient elements",
			len(maxIndices), grad.NumElements()))
	}
	out := tensor.MustNewRaw(input.Shape(), grad.DType(), cpu.device)
	switch grad.DType() {
	case tensor.Float32:
		maxPool2DBackward[float32](out, grad, maxIndices)
	case tensor.Float64:
		maxPool2DBackward[float64](out, grad, maxIndices)
	}
	return out
}

func maxPool2DBackward[T constraints.Float](inputGrad, grad *tensor.RawTensor, maxIndices []int) {
	igd := floatData[T](inputGrad)
	gd := floatData[T](grad)
	for i, idx := range maxIndices {
		igd[idx] += gd[i]
	}
}
