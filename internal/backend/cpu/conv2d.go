package cpu

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/veil-ml/veil/internal/parallel"
	"github.com/veil-ml/veil/internal/tensor"
)

// Conv2D performs a 2D convolution over NCHW input.
//
// Input shape: [N, CIn, H, W], kernel shape: [COut, CIn, KH, KW].
// Output shape: [N, COut, (H+2p-KH)/stride+1, (W+2p-KW)/stride+1].
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	checkFloat("conv2d", input)
	in, kn := input.Shape(), kernel.Shape()
	if len(in) != 4 || len(kn) != 4 {
		panic(fmt.Sprintf("cpu: conv2d: expected 4D input and kernel, got %v and %v", in, kn))
	}
	if in[1] != kn[1] {
		panic(fmt.Sprintf("cpu: conv2d: input channels %d do not match kernel channels %d", in[1], kn[1]))
	}
	hOut := (in[2]+2*padding-kn[2])/stride + 1
	wOut := (in[3]+2*padding-kn[3])/stride + 1
	out := tensor.MustNewRaw(tensor.Shape{in[0], kn[0], hOut, wOut}, input.DType(), cpu.device)

	switch input.DType() {
	case tensor.Float32:
		conv2dForward[float32](out, input, kernel, stride, padding, cpu.parallel)
	case tensor.Float64:
		conv2dForward[float64](out, input, kernel, stride, padding, cpu.parallel)
	}
	return out
}

func conv2dForward[T constraints.Float](out, input, kernel *tensor.RawTensor, stride, padding int, cfg parallel.Config) {
	in, kn, on := input.Shape(), kernel.Shape(), out.Shape()
	cIn, h, w := in[1], in[2], in[3]
	cOut, kH, kW := kn[0], kn[2], kn[3]
	hOut, wOut := on[2], on[3]

	od := floatData[T](out)
	id := floatData[T](input)
	kd := floatData[T](kernel)

	cfg.Planes(in[0], cOut, func(batch, oc int) {
		inBatch := id[batch*cIn*h*w:]
		outPlane := od[batch*cOut*hOut*wOut+oc*hOut*wOut:]
		kOC := kd[oc*cIn*kH*kW:]
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				var acc T
				for ic := 0; ic < cIn; ic++ {
					inC := inBatch[ic*h*w:]
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
							acc += inC[ih*w+iw] * kC[kh*kW+kw]
						}
					}
				}
				outPlane[oh*wOut+ow] = acc
			}
		}
	})
}
