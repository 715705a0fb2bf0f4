package nn

import (
	"github.com/veil-ml/veil/internal/autodiff"
	"github.com/veil-ml/veil/internal/tensor"
)

// ReLU applies max(x, 0) element-wise. The layer has no parameters, so its
// tangent space is EmptyTangent.
type ReLU[B tensor.Backend] struct {
	backend B
}

// NewReLU creates a ReLU activation layer.
func NewReLU[B tensor.Backend](backend B) ReLU[B] {
	return ReLU[B]{backend: backend}
}

// Forward rectifies the input.
func (r ReLU[B]) Forward(x Value[B]) Value[B] {
	return tensor.New[float32, B](r.backend.ReLU(x.Raw()), r.backend)
}

// ForwardWithPullback rectifies and returns a pullback masking the output
// gradient by the sign of the forward input.
func (r ReLU[B]) ForwardWithPullback(x Value[B]) (Value[B], Pullback[EmptyTangent, Value[B], Value[B]]) {
	y, pb := autodiff.ReLU(x)
	return y, func(grad Value[B]) (EmptyTangent, Value[B]) {
		return EmptyTangent{}, pb(grad)
	}
}

// Moved returns the layer unchanged; there are no parameters to perturb.
func (r ReLU[B]) Moved(EmptyTangent) ReLU[B] { return r }

// TangentVector returns the empty tangent.
func (r ReLU[B]) TangentVector() EmptyTangent { return EmptyTangent{} }

// ZeroTangent returns the empty tangent.
func (r ReLU[B]) ZeroTangent() EmptyTangent { return EmptyTangent{} }

// Duplicated returns the layer; it holds no mutable state.
func (r ReLU[B]) Duplicated() ReLU[B] { return r }

// CopiedTo returns the layer; it holds no tensors to relocate.
func (r ReLU[B]) CopiedTo(tensor.Device) ReLU[B] { return r }

// Erased wraps the layer in an AnyLayer.
func (r ReLU[B]) Erased() AnyLayer[Value[B], Value[B]] {
	return Erase[ReLU[B], EmptyTangent, Value[B], Value[B]](r)
}
