// Package autodiff provides reverse-mode differentiation primitives.
//
// Every primitive evaluates its forward operation and returns the result
// paired with a pullback: a closure mapping an output-space tangent to the
// input-space tangents via the operation's vector-Jacobian product. Layers
// compose these pullbacks in reverse to implement their own gradient rules.
//
// Pullbacks close over their forward operands. Backend operations always
// allocate fresh outputs and never write through their operands, so a
// captured tensor stays valid for as long as the pullback is retained.
//
// Example:
//
//	y, pb := autodiff.MatMul(x, w)
//	gx, gw := pb(outputGrad)
package autodiff

import (
	"github.com/veil-ml/veil/internal/tensor"
)

// Value is the float32 tensor type the differentiation primitives operate on.
type Value[B tensor.Backend] = *tensor.Tensor[float32, B]

// Pullback maps an output tangent to the tangents of the operation's inputs.
type Pullback[B tensor.Backend] func(grad Value[B]) []Value[B]

// MatMul computes a @ b and its pullback:
//
//	d(a@b)/da = grad @ b^T
//	d(a@b)/db = a^T @ grad
func MatMul[B tensor.Backend](a, b Value[B]) (Value[B], func(grad Value[B]) (ga, gb Value[B])) {
	out := a.MatMul(b)
	return out, func(grad Value[B]) (Value[B], Value[B]) {
		return grad.MatMul(b.T()), a.T().MatMul(grad)
	}
}

// AddBias adds a rank-1 bias [features] to x [batch, features], broadcasting
// over the batch dimension. The bias gradient sums the output gradient over
// the batch.
func AddBias[B tensor.Backend](x, bias Value[B]) (Value[B], func(grad Value[B]) (gx, gbias Value[B])) {
	features := bias.Shape()[0]
	out := x.Add(bias.Reshape(1, features))
	return out, func(grad Value[B]) (Value[B], Value[B]) {
		return grad, grad.SumDim(0, false)
	}
}

// AddChannelBias adds a per-channel bias [channels] to x [N, C, H, W]. The
// bias gradient sums the output gradient over batch and spatial dimensions.
func AddChannelBias[B tensor.Backend](x, bias Value[B]) (Value[B], func(grad Value[B]) (gx, gbias Value[B])) {
	channels := bias.Shape()[0]
	out := x.Add(bias.Reshape(1, channels, 1, 1))
	return out, func(grad Value[B]) (Value[B], Value[B]) {
		gbias := grad.SumDim(0, false).SumDim(1, false).SumDim(1, false)
		return grad, gbias
	}
}

// Conv2D computes a 2D convolution and its pullback. The input gradient is
// the transposed convolution of the output gradient with the kernel; the
// kernel gradient correlates the input with the output gradient.
func Conv2D[B tensor.Backend](x, kernel Value[B], stride, padding int) (Value[B], func(grad Value[B]) (gx, gkernel Value[B])) {
	backend := x.Backend()
	out := tensor.New[float32, B](backend.Conv2D(x.Raw(), kernel.Raw(), stride, padding), backend)
	return out, func(grad Value[B]) (Value[B], Value[B]) {
		gx := tensor.New[float32, B](backend.Conv2DInputBackward(x.Raw(), kernel.Raw(), grad.Raw(), stride, padding), backend)
		gk := tensor.New[float32, B](backend.Conv2DKernelBackward(x.Raw(), kernel.Raw(), grad.Raw(), stride, padding), backend)
		return gx, gk
	}
}

// MaxPool2D computes 2D max pooling and its pullback. The forward pass
// records argmax indices; the pullback scatters the output gradient back to
// those positions.
func MaxPool2D[B tensor.Backend](x Value[B], kernelSize, stride int) (Value[B], func(grad Value[B]) Value[B]) {
	backend := x.Backend()
	raw, indices := backend.MaxPool2DWithIndices(x.Raw(), kernelSize, stride)
	out := tensor.New[float32, B](raw, backend)
	return out, func(grad Value[B]) Value[B] {
		return tensor.New[float32, B](backend.MaxPool2DBackward(x.Raw(), grad.Raw(), indices, kernelSize, stride), backend)
	}
}

// ReLU computes max(x, 0) and its pullback, which masks the output gradient
// by the sign of the forward input.
func ReLU[B tensor.Backend](x Value[B]) (Value[B], func(grad Value[B]) Value[B]) {
	backend := x.Backend()
	out := tensor.New[float32, B](backend.ReLU(x.Raw()), backend)
	return out, func(grad Value[B]) Value[B] {
		return tensor.New[float32, B](backend.ReLUBackward(x.Raw(), grad.Raw()), backend)
	}
}

// Reshape views x with a new shape; the pullback restores the original shape.
func Reshape[B tensor.Backend](x Value[B], dims ...int) (Value[B], func(grad Value[B]) Value[B]) {
	original := x.Shape().Clone()
	out := x.Reshape(dims...)
	return out, func(grad Value[B]) Value[B] {
		return grad.Reshape(original...)
	}
}
