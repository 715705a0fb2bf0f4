package nn

import (
	"github.com/veil-ml/veil/internal/autodiff"
	"github.com/veil-ml/veil/internal/tensor"
)

// Flatten collapses every dimension after the batch dimension into one:
// [batch, d1, d2, ...] becomes [batch, d1*d2*...]. The layer has no
// parameters, so its tangent space is EmptyTangent.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten layer.
func NewFlatten[B tensor.Backend]() Flatten[B] {
	return Flatten[B]{}
}

// Forward reshapes the input to rank 2, keeping the batch dimension.
func (f Flatten[B]) Forward(x Value[B]) Value[B] {
	return x.Reshape(x.Shape()[0], -1)
}

// ForwardWithPullback reshapes and returns a pullback restoring the original
// shape.
func (f Flatten[B]) ForwardWithPullback(x Value[B]) (Value[B], Pullback[EmptyTangent, Value[B], Value[B]]) {
	y, pb := autodiff.Reshape(x, x.Shape()[0], -1)
	return y, func(grad Value[B]) (EmptyTangent, Value[B]) {
		return EmptyTangent{}, pb(grad)
	}
}

// Moved returns the layer unchanged; there are no parameters to perturb.
func (f Flatten[B]) Moved(EmptyTangent) Flatten[B] { return f }

// TangentVector returns the empty tangent.
func (f Flatten[B]) TangentVector() EmptyTangent { return EmptyTangent{} }

// ZeroTangent returns the empty tangent.
func (f Flatten[B]) ZeroTangent() EmptyTangent { return EmptyTangent{} }

// Duplicated returns the layer; it holds no mutable state.
func (f Flatten[B]) Duplicated() Flatten[B] { return f }

// CopiedTo returns the layer; it holds no tensors to relocate.
func (f Flatten[B]) CopiedTo(tensor.Device) Flatten[B] { return f }

// Erased wraps the layer in an AnyLayer.
func (f Flatten[B]) Erased() AnyLayer[Value[B], Value[B]] {
	return Erase[Flatten[B], EmptyTangent, Value[B], Value[B]](f)
}
