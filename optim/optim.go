// Copyright 2026 Veil ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers over layer tangent spaces.
//
// Optimizers never mutate parameter tensors in place: each step builds an
// update tangent from the gradient and returns layer.Moved(update). Any
// value satisfying the layer contract can be optimized, including
// Sequential chains and type-erased AnyLayer values.
package optim

import (
	"github.com/veil-ml/veil/internal/optim"
	"github.com/veil-ml/veil/nn"
)

// SGD is stochastic gradient descent with optional momentum.
type SGD[L nn.Layer[L, T, In, Out], T nn.Tangent[T], In, Out any] = optim.SGD[L, T, In, Out]

// SGDConfig holds SGD hyperparameters.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer for one layer's tangent space.
//
// Example:
//
//	type Model = nn.Sequential[*cpu.Backend]
//	type Grad = nn.SequentialTangent[*cpu.Backend]
//	sgd := optim.NewSGD[Model, Grad, nn.Value[*cpu.Backend], nn.Value[*cpu.Backend]](
//	    optim.SGDConfig{LR: 0.01, Momentum: 0.9})
//	model = sgd.Step(model, grad)
func NewSGD[L nn.Layer[L, T, In, Out], T nn.Tangent[T], In, Out any](config SGDConfig) *SGD[L, T, In, Out] {
	return optim.NewSGD[L, T, In, Out](config)
}
