package nn

import (
	"github.com/veil-ml/veil/internal/tensor"
)

// AnyLayer is a type-erased differentiable layer: it stores any concrete
// layer mapping In to Out behind a uniform contract, hiding the layer's
// type and its tangent type. AnyLayer's own tangent is always AnyTangent,
// never the wrapped layer's tangent, which is what lets heterogeneous
// layers be stored and differentiated uniformly.
//
// AnyLayer preserves value semantics over an internally shared box:
// Clone is a cheap shallow copy, and the first mutation through MoveAlong
// duplicates a shared box so the change is observed by exactly one wrapper
// (copy-on-write). The zero value is not usable; construct with Erase.
//
// Sharing follows the single-threaded value-semantics discipline of the
// rest of the toolkit: concurrent mutation of wrappers sharing one box is
// not supported.
type AnyLayer[In, Out any] struct {
	box layerBox[In, Out]
}

// Erase wraps a concrete layer value, allocating a fresh box bound to the
// layer's type.
func Erase[L Layer[L, T, In, Out], T Tangent[T], In, Out any](layer L) AnyLayer[In, Out] {
	return AnyLayer[In, Out]{box: newConcreteBox[L, T, In, Out](layer)}
}

// Unbox attempts to recover the wrapped layer as concrete type L. It
// returns false, and never panics, when the box is bound to a different type.
func Unbox[L, In, Out any](a AnyLayer[In, Out]) (L, bool) {
	var zero L
	if a.box == nil {
		return zero, false
	}
	layer, ok := a.box.base().(L)
	if !ok {
		return zero, false
	}
	return layer, true
}

// Base returns the wrapped layer with its identity erased, for
// introspection and debugging only.
func (a AnyLayer[In, Out]) Base() any {
	return a.box.base()
}

// Forward evaluates the wrapped layer.
func (a AnyLayer[In, Out]) Forward(in In) Out {
	return a.box.forward(in)
}

// ForwardWithPullback evaluates the wrapped layer and returns a pullback
// producing the reboxed parameter tangent alongside the input tangent in
// the input's own, non-erased representation. It is deliberately a distinct
// entry point from Forward: its gradient rule carries the erased tangent,
// which must not leak into the plain call path.
func (a AnyLayer[In, Out]) ForwardWithPullback(in In) (Out, Pullback[AnyTangent, In, Out]) {
	return a.box.forwardWithPullback(in)
}

// Clone returns a wrapper sharing this wrapper's box. The copy is cheap;
// the box is duplicated lazily by the first MoveAlong through either
// wrapper.
func (a AnyLayer[In, Out]) Clone() AnyLayer[In, Out] {
	a.box.retain()
	return AnyLayer[In, Out]{box: a.box}
}

// MoveAlong perturbs the wrapped layer by a type-erased tangent, in place.
// If the box is shared with another wrapper, it is duplicated first so the
// mutation is observed only through this wrapper.
func (a *AnyLayer[In, Out]) MoveAlong(along AnyTangent) {
	if a.box.shared() {
		duplicate := a.box.duplicate()
		a.box.release()
		a.box = duplicate
	}
	a.box.move(along)
}

// Moved returns a new wrapper whose layer is perturbed by the tangent,
// leaving the receiver untouched. Together with the other methods this
// makes AnyLayer itself satisfy the Layer contract with tangent AnyTangent,
// so erased layers compose and nest like any other layer.
func (a AnyLayer[In, Out]) Moved(along AnyTangent) AnyLayer[In, Out] {
	moved := a.Clone()
	moved.MoveAlong(along)
	return moved
}

// TangentVector returns the wrapped layer's differentiable state, reboxed.
func (a AnyLayer[In, Out]) TangentVector() AnyTangent {
	return a.box.tangentView()
}

// ZeroTangent returns the zero element, valid for every wrapped type.
func (a AnyLayer[In, Out]) ZeroTangent() AnyTangent {
	return AnyTangent{}
}

// Duplicated returns a wrapper around a deep copy of the wrapped layer.
func (a AnyLayer[In, Out]) Duplicated() AnyLayer[In, Out] {
	return AnyLayer[In, Out]{box: a.box.duplicate()}
}

// CopiedTo returns a wrapper whose layer has been copied to the target
// device. Copying to the current device yields an equivalent wrapper.
func (a AnyLayer[In, Out]) CopiedTo(device tensor.Device) AnyLayer[In, Out] {
	return AnyLayer[In, Out]{box: a.box.copyTo(device)}
}

// AnyLayer satisfies its own layer contract.
var _ Layer[AnyLayer[int, int], AnyTangent, int, int] = AnyLayer[int, int]{}
