// Package optim implements optimizers over layer tangent spaces.
//
// Instead of mutating parameter tensors in place, optimizers here move a
// layer value along a tangent: each step builds an update tangent from the
// gradient and returns layer.Moved(update). This works uniformly for concrete
// layers, Sequential chains and type-erased AnyLayer values, since all of
// them satisfy the same layer contract.
package optim

import (
	"github.com/veil-ml/veil/internal/nn"
)

// SGD implements stochastic gradient descent with optional momentum, working
// in the tangent space of a layer.
//
// Update rule without momentum:
//
//	layer = layer.Moved(grad.Scale(-lr))
//
// Update rule with momentum:
//
//	velocity = velocity.Scale(momentum).Add(grad)
//	layer = layer.Moved(velocity.Scale(-lr))
//
// Example:
//
//	sgd := optim.NewSGD[Model, ModelTangent, Input, Output](optim.SGDConfig{LR: 0.01, Momentum: 0.9})
//	for _, batch := range batches {
//	    _, pullback := model.ForwardWithPullback(batch.Input)
//	    grad, _ := pullback(lossGrad)
//	    model = sgd.Step(model, grad)
//	}
type SGD[L nn.Layer[L, T, In, Out], T nn.Tangent[T], In, Out any] struct {
	lr          float32
	momentum    float32
	velocity    T
	hasVelocity bool
}

// SGDConfig holds SGD hyperparameters.
type SGDConfig struct {
	LR       float32 // learning rate (default 0.01)
	Momentum float32 // momentum factor, in [0, 1)
}

// NewSGD creates an SGD optimizer for one layer's tangent space.
func NewSGD[L nn.Layer[L, T, In, Out], T nn.Tangent[T], In, Out any](config SGDConfig) *SGD[L, T, In, Out] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[L, T, In, Out]{lr: config.LR, momentum: config.Momentum}
}

// Step applies one descent update and returns the moved layer. The input
// layer value is left untouched.
func (s *SGD[L, T, In, Out]) Step(layer L, grad T) L {
	if s.momentum == 0 {
		return layer.Moved(grad.Scale(-s.lr))
	}
	if !s.hasVelocity {
		s.velocity = layer.ZeroTangent()
		s.hasVelocity = true
	}
	s.velocity = s.velocity.Scale(s.momentum).Add(grad)
	return layer.Moved(s.velocity.Scale(-s.lr))
}

// GetLR returns the current learning rate.
func (s *SGD[L, T, In, Out]) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate, for scheduling during training.
func (s *SGD[L, T, In, Out]) SetLR(lr float32) {
	s.lr = lr
}
