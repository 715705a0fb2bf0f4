// Copyright 2026 Veil ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode differentiation primitives.
//
// Each primitive evaluates an operation and returns the result paired with
// a pullback closure computing the operation's vector-Jacobian product.
// Layers compose these pullbacks in reverse order to implement their own
// gradient rules; there is no global tape.
//
// Example:
//
//	y, pb := autodiff.MatMul(x, w)
//	gx, gw := pb(outputGrad)
package autodiff

import (
	"github.com/veil-ml/veil/internal/autodiff"
	"github.com/veil-ml/veil/tensor"
)

// Value is the float32 tensor type the primitives operate on.
type Value[B tensor.Backend] = autodiff.Value[B]

// MatMul computes a @ b and its pullback.
func MatMul[B tensor.Backend](a, b Value[B]) (Value[B], func(grad Value[B]) (ga, gb Value[B])) {
	return autodiff.MatMul(a, b)
}

// AddBias adds a rank-1 bias to a [batch, features] tensor, broadcasting
// over the batch dimension.
func AddBias[B tensor.Backend](x, bias Value[B]) (Value[B], func(grad Value[B]) (gx, gbias Value[B])) {
	return autodiff.AddBias(x, bias)
}

// AddChannelBias adds a per-channel bias to an NCHW tensor.
func AddChannelBias[B tensor.Backend](x, bias Value[B]) (Value[B], func(grad Value[B]) (gx, gbias Value[B])) {
	return autodiff.AddChannelBias(x, bias)
}

// Conv2D computes a 2D convolution and its pullback.
func Conv2D[B tensor.Backend](x, kernel Value[B], stride, padding int) (Value[B], func(grad Value[B]) (gx, gkernel Value[B])) {
	return autodiff.Conv2D(x, kernel, stride, padding)
}

// MaxPool2D computes 2D max pooling and its pullback.
func MaxPool2D[B tensor.Backend](x Value[B], kernelSize, stride int) (Value[B], func(grad Value[B]) Value[B]) {
	return autodiff.MaxPool2D(x, kernelSize, stride)
}

// ReLU computes max(x, 0) and its pullback.
func ReLU[B tensor.Backend](x Value[B]) (Value[B], func(grad Value[B]) Value[B]) {
	return autodiff.ReLU(x)
}

// Reshape views x with a new shape; the pullback restores the original.
func Reshape[B tensor.Backend](x Value[B], dims ...int) (Value[B], func(grad Value[B]) Value[B]) {
	return autodiff.Reshape(x, dims...)
}
