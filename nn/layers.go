// Copyright 2026 Veil ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/veil-ml/veil/internal/nn"
	"github.com/veil-ml/veil/tensor"
)

// Dense is a fully connected layer: y = x @ W^T + b.
type Dense[B tensor.Backend] = nn.Dense[B]

// DenseTangent is the tangent space of Dense.
type DenseTangent[B tensor.Backend] = nn.DenseTangent[B]

// NewDense creates a Dense layer with Xavier-initialized weights.
func NewDense[B tensor.Backend](inFeatures, outFeatures int, backend B) Dense[B] {
	return nn.NewDense(inFeatures, outFeatures, backend)
}

// Conv2D is a 2D convolutional layer over NCHW input with a square kernel.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// Conv2DTangent is the tangent space of Conv2D.
type Conv2DTangent[B tensor.Backend] = nn.Conv2DTangent[B]

// NewConv2D creates a Conv2D layer with Xavier-initialized weights.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, backend B) Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, backend)
}

// MaxPool2D is a 2D max pooling layer with a square window.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a max pooling layer. A stride of 0 defaults to the
// kernel size.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, backend)
}

// ReLU applies max(x, 0) element-wise.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation layer.
func NewReLU[B tensor.Backend](backend B) ReLU[B] {
	return nn.NewReLU(backend)
}

// Flatten collapses every dimension after the batch dimension into one.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a Flatten layer.
func NewFlatten[B tensor.Backend]() Flatten[B] {
	return nn.NewFlatten[B]()
}

// Sequential chains type-erased layers, feeding each stage's output to the
// next.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// SequentialTangent is the per-stage tangent of a Sequential.
type SequentialTangent[B tensor.Backend] = nn.SequentialTangent[B]

// NewSequential chains the given erased layers in order.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewConv2D(1, 6, 5, 1, 2, backend).Erased(),
//	    nn.NewReLU(backend).Erased(),
//	    nn.NewMaxPool2D(2, 2, backend).Erased(),
//	    nn.NewFlatten[*cpu.Backend]().Erased(),
//	    nn.NewDense(1176, 10, backend).Erased(),
//	)
func NewSequential[B tensor.Backend](stages ...AnyLayer[Value[B], Value[B]]) Sequential[B] {
	return nn.NewSequential(stages...)
}

// LoadSequentialStateDict rebuilds the stages of a Sequential from a state
// dictionary exported by its StateDict method.
func LoadSequentialStateDict[B tensor.Backend](s Sequential[B], stateDict map[string]*tensor.RawTensor, backend B) (Sequential[B], error) {
	return nn.LoadSequentialStateDict(s, stateDict, backend)
}

// Xavier initializes a tensor with Xavier/Glorot uniform values.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}
