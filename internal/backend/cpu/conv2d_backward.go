package cpu

import (
	"golang.org/x/exp/constraints"

	"github.com/veil-ml/veil/internal/tensor"
)

// Conv2DInputBackward computes the convolution gradient w.r.t. the input:
// every output-gradient element is distributed back to the input positions
// that contributed to it (a transposed convolution).
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	checkFloat("conv2d input backward", grad)
	out := tensor.MustNewRaw(input.Shape(), grad.DType(), cpu.device)
	switch grad.DType() {
	case tensor.Float32:
		conv2dInputBackward[float32](out, kernel, grad, stride, padding)
	case tensor.Float64:
		conv2dInputBackward[float64](out, kernel, grad, stride, padding)
	}
	return out
}

func conv2dInputBackward[T constraints.Float](inputGrad, kernel, grad *tensor.RawTensor, stride, padding int) {
	in, kn, gn := inputGrad.Shape(), kernel.Shape(), grad.Shape()
	n, cIn, h, w := in[0], in[1], in[2], in[3]
	cOut, kH, kW := kn[0], kn[2], kn[3]
	hOut, wOut := gn[2], gn[3]

	igd := floatData[T](inputGrad)
	kd := floatData[T](kernel)
	gd := floatData[T](grad)

	for batch := 0; batch < n; batch++ {
		igBatch := igd[batch*cIn*h*w:]
		gBatch := gd[batch*cOut*hOut*wOut:]
		for oc := 0; oc < cOut; oc++ {
			kOC := kd[oc*cIn*kH*kW:]
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					gv := gBatch[oc*hOut*wOut+oh*wOut+ow]
					if gv == 0 {
						continue
					}
					for ic := 0; ic < cIn; ic++ {
						igC := igBatch[ic*h*w:]
						kC := kOC[ic*kH*kW:]
						for kh := 0; kh < kH; kh++ {
							ih := oh*stride + kh - padding
							if ih < 0 || ih >= h {
								continue
							}
							for kw := 0; kw < kW; kw++ {
								iw := ow*stride + kw - padding
								if iw < 0 || iw >= w {
									continue
								}
								igC[ih*w+iw] += gv * kC[kh*kW+kw]
							}
						}
					}
				}
			}
		}
	}
}

// Conv2DKernelBackward computes the convolution gradient w.r.t. the kernel:
// a correlation of the input with the output gradient.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	checkFloat("conv2d kernel backward", grad)
	out := tensor.MustNewRaw(kernel.Shape(), grad.DType(), cpu.device)
	switch grad.DType() {
	case tensor.Float32:
		conv2dKernelBackward[float32](out, input, grad, stride, padding)
	case tensor.Float64:
		conv2dKernelBackward[float64](out, input, grad, stride, padding)
	}
	return out
}

func conv2dKernelBackward[T constraints.Float](kernelGrad, input, grad *tensor.RawTensor, stride, padding int) {
	in, kn, gn := input.Shape(), kernelGrad.Shape(), grad.Shape()
	n, cIn, h, w := in[0], in[1], in[2], in[3]
	cOut, kH, kW := kn[0], kn[2], kn[3]
	hOut, wOut := gn[2], gn[3]

	kgd := floatData[T](kernelGrad)
	id := floatData[T](input)
	gd := floatData[T](grad)

	for batch := 0; batch < n; batch++ {
		inBatch := id[batch*cIn*h*w:]
		gBatch := gd[batch*cOut*hOut*wOut:]
		for oc := 0; oc < cOut; oc++ {
			kgOC := kgd[oc*cIn*kH*kW:]
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					gv := gBatch[oc*hOut*wOut+oh*wOut+ow]
					if gv == 0 {
						continue
					}
					for ic := 0; ic < cIn; ic++ {
						inC := inBatch[ic*h*w:]
						kgC := kgOC[ic*kH*kW:]
						for kh := 0; kh < kH; kh++ {
							ih := oh*stride + kh - padding
							if ih < 0 || ih >= h {
								continue
							}
							for kw := 0; kw < kW; kw++ {
								iw := ow*stride + kw - padding
								if iw < 0 || iw >= w {
									continue
								}
								kgC[kh*kW+kw] += gv * inC[ih*w+iw]
							}
						}
					}
				}
			}
		}
	}
}
