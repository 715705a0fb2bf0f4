// Package nn implements the differentiable layer contract, the example
// layers, and the type-erased layer wrapper AnyLayer.
package nn

import (
	"github.com/veil-ml/veil/internal/tensor"
)

// Scalar is the standardized tangent scalar kind. All layer parameter
// spaces in this toolkit are float32 vector spaces.
type Scalar = float32

// Value is the tensor type layers map between.
type Value[B tensor.Backend] = *tensor.Tensor[float32, B]

// Tangent is the contract of an additive-vector-space value representing a
// parameter delta of a differentiable layer.
//
// Implementations are value types: every operation returns a new tangent
// and leaves its operands untouched.
type Tangent[T any] interface {
	// Add returns the element-wise sum of the two tangents.
	Add(T) T

	// Sub returns the element-wise difference of the two tangents.
	Sub(T) T

	// Scale returns the tangent multiplied by a scalar.
	Scale(Scalar) T

	// AddScalar returns the tangent with a scalar broadcast-added to every
	// coordinate. It resolves uniform-scalar tangents against a concrete
	// tangent space: zero.AddScalar(s) is the broadcast of s.
	AddScalar(Scalar) T
}

// Pullback maps an output-space tangent to the layer's own parameter
// tangent and the tangent of the layer input. The input and output types
// are never erased; only the layer's parameter space is.
type Pullback[T, In, Out any] func(outputTangent Out) (T, In)

// Layer is the contract a concrete layer must satisfy to participate in
// forward evaluation and reverse-mode gradient propagation, and to be
// erasable behind AnyLayer.
//
// L is the layer's own type, T its tangent type. Layers are value types:
// Moved, Duplicated and CopiedTo return new values and never mutate the
// receiver.
type Layer[L, T, In, Out any] interface {
	// Forward evaluates the layer on an input.
	Forward(In) Out

	// ForwardWithPullback evaluates the layer and additionally returns the
	// pullback implementing one step of reverse-mode differentiation.
	ForwardWithPullback(In) (Out, Pullback[T, In, Out])

	// Moved returns the layer with its parameters perturbed by the tangent.
	Moved(along T) L

	// TangentVector returns the layer's current differentiable state as a
	// tangent value.
	TangentVector() T

	// ZeroTangent returns the zero element of the layer's tangent space.
	ZeroTangent() T

	// Duplicated returns a deep copy sharing no mutable state with the
	// receiver.
	Duplicated() L

	// CopiedTo returns a device-local copy of the layer with all internal
	// tensors relocated to the target device. Copying to the current
	// device returns an equivalent layer.
	CopiedTo(tensor.Device) L
}
