// Copyright 2026 Veil ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/veil-ml/veil/internal/nn"
	"github.com/veil-ml/veil/tensor"
)

// Scalar is the standardized tangent scalar kind. All layer parameter
// spaces in Veil are float32 vector spaces.
type Scalar = nn.Scalar

// Value is the tensor type layers map between.
type Value[B tensor.Backend] = nn.Value[B]

// Tangent is the contract of an additive-vector-space value representing a
// parameter delta of a differentiable layer.
type Tangent[T any] = nn.Tangent[T]

// Pullback maps an output-space tangent to a layer's parameter tangent and
// the tangent of the layer input.
type Pullback[T, In, Out any] = nn.Pullback[T, In, Out]

// Layer is the contract a concrete layer satisfies to participate in
// forward evaluation and reverse-mode gradient propagation, and to be
// erasable behind AnyLayer. See the package documentation for the full
// contract.
type Layer[L, T, In, Out any] = nn.Layer[L, T, In, Out]

// EmptyTangent is the tangent of parameter-free layers.
type EmptyTangent = nn.EmptyTangent

// AnyLayer is a type-erased differentiable layer wrapping any concrete
// layer that maps In to Out. Its tangent is always AnyTangent.
//
// Example:
//
//	layer := nn.NewDense(784, 128, backend)
//	erased := layer.Erased()
//	out, pullback := erased.ForwardWithPullback(x)
//	paramGrad, inputGrad := pullback(outGrad)
//	trained := erased.Moved(paramGrad.Scale(-0.01))
type AnyLayer[In, Out any] = nn.AnyLayer[In, Out]

// AnyTangent is the type-erased tangent of an erased layer: a closed sum
// over zero, one, a uniform scalar broadcast, and a wrapped concrete
// tangent value. The zero value is the zero tangent.
type AnyTangent = nn.AnyTangent

// TypeMismatchError reports a fatal type confusion: a tangent or layer of
// one concrete type reached an operation bound to another. It is thrown
// through the exceptions package, not returned.
type TypeMismatchError = nn.TypeMismatchError

// Erase wraps a concrete layer value in an AnyLayer.
func Erase[L Layer[L, T, In, Out], T Tangent[T], In, Out any](layer L) AnyLayer[In, Out] {
	return nn.Erase[L, T, In, Out](layer)
}

// Unbox attempts to recover the wrapped layer as concrete type L. It
// returns false, never panics, when the wrapper holds a different type.
func Unbox[L, In, Out any](a AnyLayer[In, Out]) (L, bool) {
	return nn.Unbox[L, In, Out](a)
}

// ZeroTangentValue returns the additive identity, valid for every tangent
// space.
func ZeroTangentValue() AnyTangent {
	return nn.ZeroTangentValue()
}

// OneTangentValue returns the one element, a uniform broadcast of 1.
func OneTangentValue() AnyTangent {
	return nn.OneTangentValue()
}

// ScalarTangent returns a uniform scalar broadcast across an unspecified
// dimensionality.
func ScalarTangent(s Scalar) AnyTangent {
	return nn.ScalarTangent(s)
}

// WrapTangent erases a concrete tangent value.
func WrapTangent[T Tangent[T]](value T) AnyTangent {
	return nn.WrapTangent(value)
}

// UnboxTangent recovers a concrete tangent as type T. It returns false,
// never panics, when the tangent is not a concrete variant of exactly T.
func UnboxTangent[T any](t AnyTangent) (T, bool) {
	return nn.UnboxTangent[T](t)
}

// StateDicter is implemented by layers with exportable parameters.
type StateDicter = nn.StateDicter

// StateLoader is implemented by layers whose parameters can be replaced
// from an exported state dictionary.
type StateLoader = nn.StateLoader

// StateDictOf exports the parameters of an erased layer. It returns false
// when the wrapped layer has no parameters.
func StateDictOf[In, Out any](a AnyLayer[In, Out]) (map[string]*tensor.RawTensor, bool) {
	return nn.StateDictOf(a)
}
