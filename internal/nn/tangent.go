package nn

import "fmt"

// tangentKind tags the variants of AnyTangent.
type tangentKind uint8

const (
	tangentZero tangentKind = iota
	tangentOne
	tangentScalar
	tangentConcrete
)

// AnyTangent is the type-erased tangent of an erased layer: a closed sum
// over the zero element, the one element, a uniform scalar broadcast of
// unspecified dimensionality, and a wrapped concrete tangent value.
//
// The zero value of AnyTangent is the zero tangent. Non-zero, non-scalar
// variants carry a type tag: they combine only with tangents of the same
// underlying type, and mismatches are fatal (TypeMismatchError), since a
// mismatched tangent means a gradient flowed into the wrong layer instance.
type AnyTangent struct {
	kind   tangentKind
	scalar Scalar
	box    tangentBox
}

// ZeroTangentValue returns the additive identity, valid for every tangent
// space.
func ZeroTangentValue() AnyTangent {
	return AnyTangent{}
}

// OneTangentValue returns the one element, behaving as a uniform broadcast
// of 1 under the additive rules.
func OneTangentValue() AnyTangent {
	return AnyTangent{kind: tangentOne}
}

// ScalarTangent returns a uniform scalar broadcast across an unspecified
// dimensionality. It resolves against a concrete tangent space through that
// space's zero element.
func ScalarTangent(s Scalar) AnyTangent {
	return AnyTangent{kind: tangentScalar, scalar: s}
}

// WrapTangent erases a concrete tangent value.
func WrapTangent[T Tangent[T]](value T) AnyTangent {
	return AnyTangent{kind: tangentConcrete, box: tangentAdapter[T]{value: value}}
}

// UnboxTangent recovers the concrete tangent as type T. It returns false,
// and never panics, when the tangent is not a concrete variant of exactly
// type T.
func UnboxTangent[T any](t AnyTangent) (T, bool) {
	var zero T
	if t.kind != tangentConcrete {
		return zero, false
	}
	v, ok := t.box.base().(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// IsZero reports whether this is the zero tangent.
func (t AnyTangent) IsZero() bool {
	return t.kind == tangentZero
}

// OpaqueScalar returns the broadcast scalar for the uniform-scalar and one
// variants, and false otherwise. It is the query that decides whether a
// move is a scalar broadcast or a concrete-type delta.
func (t AnyTangent) OpaqueScalar() (Scalar, bool) {
	switch t.kind {
	case tangentOne:
		return 1, true
	case tangentScalar:
		return t.scalar, true
	default:
		return 0, false
	}
}

// Base returns the wrapped concrete tangent with its identity erased, for
// introspection only. It returns nil for the non-concrete variants.
func (t AnyTangent) Base() any {
	if t.kind != tangentConcrete {
		return nil
	}
	return t.box.base()
}

// String names the variant for diagnostics.
func (t AnyTangent) String() string {
	switch t.kind {
	case tangentZero:
		return "AnyTangent(zero)"
	case tangentOne:
		return "AnyTangent(one)"
	case tangentScalar:
		return fmt.Sprintf("AnyTangent(scalar %v)", t.scalar)
	case tangentConcrete:
		return fmt.Sprintf("AnyTangent(%s)", t.box.typeName())
	default:
		return "AnyTangent(invalid)"
	}
}

// Add combines two tangents. Zero is the identity in both orders; scalar
// broadcasts combine additively; a scalar broadcast resolves into a
// concrete operand through that operand's own space; two concrete tangents
// must wrap the same underlying type, otherwise the operation is fatal.
func (t AnyTangent) Add(other AnyTangent) AnyTangent {
	if t.kind == tangentZero {
		return other
	}
	if other.kind == tangentZero {
		return t
	}
	ts, tScalar := t.OpaqueScalar()
	os, oScalar := other.OpaqueScalar()
	switch {
	case tScalar && oScalar:
		return ScalarTangent(ts + os)
	case tScalar:
		return AnyTangent{kind: tangentConcrete, box: other.box.addScalar(ts)}
	case oScalar:
		return AnyTangent{kind: tangentConcrete, box: t.box.addScalar(os)}
	default:
		return AnyTangent{kind: tangentConcrete, box: t.box.add(other.box)}
	}
}

// Sub combines two tangents under subtraction, with the same variant rules
// as Add.
func (t AnyTangent) Sub(other AnyTangent) AnyTangent {
	if other.kind == tangentZero {
		return t
	}
	if t.kind == tangentZero {
		return other.Scale(-1)
	}
	ts, tScalar := t.OpaqueScalar()
	os, oScalar := other.OpaqueScalar()
	switch {
	case tScalar && oScalar:
		return ScalarTangent(ts - os)
	case oScalar:
		return AnyTangent{kind: tangentConcrete, box: t.box.addScalar(-os)}
	case tScalar:
		return AnyTangent{kind: tangentConcrete, box: other.box.scale(-1).addScalar(ts)}
	default:
		return AnyTangent{kind: tangentConcrete, box: t.box.sub(other.box)}
	}
}

// Scale multiplies the tangent by a scalar.
func (t AnyTangent) Scale(s Scalar) AnyTangent {
	switch t.kind {
	case tangentZero:
		return t
	case tangentOne:
		return ScalarTangent(s)
	case tangentScalar:
		return ScalarTangent(t.scalar * s)
	default:
		return AnyTangent{kind: tangentConcrete, box: t.box.scale(s)}
	}
}

// AddScalar broadcast-adds a scalar to the tangent.
func (t AnyTangent) AddScalar(s Scalar) AnyTangent {
	switch t.kind {
	case tangentZero:
		return ScalarTangent(s)
	case tangentOne:
		return ScalarTangent(1 + s)
	case tangentScalar:
		return ScalarTangent(t.scalar + s)
	default:
		return AnyTangent{kind: tangentConcrete, box: t.box.addScalar(s)}
	}
}

// tangentBox is the internal polymorphic holder of a concrete tangent.
// Exactly one generic realization exists; its operations are closed over
// the bound underlying type.
type tangentBox interface {
	base() any
	add(other tangentBox) tangentBox
	sub(other tangentBox) tangentBox
	scale(s Scalar) tangentBox
	addScalar(s Scalar) tangentBox
	typeName() string
}

// tangentAdapter binds a tangentBox to one concrete tangent type.
type tangentAdapter[T Tangent[T]] struct {
	value T
}

func (a tangentAdapter[T]) base() any {
	return a.value
}

func (a tangentAdapter[T]) typeName() string {
	return typeNameOf(a.value)
}

func (a tangentAdapter[T]) add(other tangentBox) tangentBox {
	o, ok := other.(tangentAdapter[T])
	if !ok {
		throwMismatch("AnyTangent.Add", a.typeName(), other.typeName())
	}
	return tangentAdapter[T]{value: a.value.Add(o.value)}
}

func (a tangentAdapter[T]) sub(other tangentBox) tangentBox {
	o, ok := other.(tangentAdapter[T])
	if !ok {
		throwMismatch("AnyTangent.Sub", a.typeName(), other.typeName())
	}
	return tangentAdapter[T]{value: a.value.Sub(o.value)}
}

func (a tangentAdapter[T]) scale(s Scalar) tangentBox {
	return tangentAdapter[T]{value: a.value.Scale(s)}
}

func (a tangentAdapter[T]) addScalar(s Scalar) tangentBox {
	return tangentAdapter[T]{value: a.value.AddScalar(s)}
}
