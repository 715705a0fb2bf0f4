package nn

import (
	"sync/atomic"

	"github.com/veil-ml/veil/internal/tensor"
)

// layerBox is the internal polymorphic holder concealing a layer's concrete
// type behind a uniform interface. A box's runtime type is permanently
// bound to one concrete layer type; recovering a different type through the
// base value fails by absence, never by crash.
//
// The reference count backs AnyLayer's copy-on-write discipline: Clone
// retains, mutation paths duplicate when the box is shared.
type layerBox[In, Out any] interface {
	// base returns the wrapped layer with its identity erased, for
	// introspection and optional unboxing.
	base() any

	// move perturbs the wrapped layer by a type-erased tangent. Scalar
	// broadcasts resolve through the bound type's zero tangent; concrete
	// tangents must unwrap to the bound type's own tangent representation
	// or the operation is fatal.
	move(along AnyTangent)

	// tangentView returns the wrapped layer's differentiable state,
	// reboxed.
	tangentView() AnyTangent

	forward(In) Out
	forwardWithPullback(In) (Out, Pullback[AnyTangent, In, Out])

	// copyTo returns a new box of the same concrete type holding a
	// device-local copy of the wrapped layer.
	copyTo(device tensor.Device) layerBox[In, Out]

	// duplicate returns a new box wrapping a deep copy of the wrapped
	// layer. It exists solely to implement copy-on-write at the wrapper
	// level.
	duplicate() layerBox[In, Out]

	retain()
	release()
	shared() bool
}

// concreteBox is the single generic realization of layerBox. It owns one
// concrete layer value and implements every operation by direct delegation,
// translating only at the AnyTangent boundary.
type concreteBox[L Layer[L, T, In, Out], T Tangent[T], In, Out any] struct {
	refs  atomic.Int32
	layer L
}

func newConcreteBox[L Layer[L, T, In, Out], T Tangent[T], In, Out any](layer L) *concreteBox[L, T, In, Out] {
	b := &concreteBox[L, T, In, Out]{layer: layer}
	b.refs.Store(1)
	return b
}

func (b *concreteBox[L, T, In, Out]) base() any {
	return b.layer
}

func (b *concreteBox[L, T, In, Out]) move(along AnyTangent) {
	if along.IsZero() {
		return
	}
	if s, ok := along.OpaqueScalar(); ok {
		// Resolve the uniform broadcast through the bound type's zero
		// tangent.
		b.layer = b.layer.Moved(b.layer.ZeroTangent().AddScalar(s))
		return
	}
	delta, ok := UnboxTangent[T](along)
	if !ok {
		var want T
		throwMismatch("AnyLayer.MoveAlong", typeNameOf(want), along.String())
	}
	b.layer = b.layer.Moved(delta)
}

func (b *concreteBox[L, T, In, Out]) tangentView() AnyTangent {
	return WrapTangent[T](b.layer.TangentVector())
}

func (b *concreteBox[L, T, In, Out]) forward(in In) Out {
	return b.layer.Forward(in)
}

func (b *concreteBox[L, T, In, Out]) forwardWithPullback(in In) (Out, Pullback[AnyTangent, In, Out]) {
	out, pullback := b.layer.ForwardWithPullback(in)
	return out, func(outputTangent Out) (AnyTangent, In) {
		t, inputTangent := pullback(outputTangent)
		return WrapTangent[T](t), inputTangent
	}
}

func (b *concreteBox[L, T, In, Out]) copyTo(device tensor.Device) layerBox[In, Out] {
	return newConcreteBox[L, T, In, Out](b.layer.CopiedTo(device))
}

func (b *concreteBox[L, T, In, Out]) duplicate() layerBox[In, Out] {
	return newConcreteBox[L, T, In, Out](b.layer.Duplicated())
}

func (b *concreteBox[L, T, In, Out]) retain() {
	b.refs.Add(1)
}

func (b *concreteBox[L, T, In, Out]) release() {
	b.refs.Add(-1)
}

func (b *concreteBox[L, T, In, Out]) shared() bool {
	return b.refs.Load() > 1
}
