// Copyright 2026 Veil ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides differentiable layers and the type-erased layer
// wrapper AnyLayer.
//
// # Overview
//
// A concrete layer is a value type satisfying the Layer contract: it can
// evaluate inputs (Forward), produce reverse-mode gradients
// (ForwardWithPullback), and move through its parameter space (Moved).
// Each layer has its own tangent type, the vector space of its parameter
// deltas.
//
// AnyLayer erases the layer type and the tangent type while preserving all
// of that behavior, so heterogeneous layers can live in one slice and be
// trained uniformly:
//
//	model := nn.NewSequential(
//	    nn.NewConv2D(1, 6, 5, 1, 2, backend).Erased(),
//	    nn.NewReLU(backend).Erased(),
//	    nn.NewMaxPool2D(2, 2, backend).Erased(),
//	    nn.NewFlatten[*cpu.Backend]().Erased(),
//	    nn.NewDense(1176, 10, backend).Erased(),
//	)
//
// # Gradients
//
// ForwardWithPullback returns the output together with a pullback closure.
// Applying the pullback to an output-space tangent yields the layer's
// parameter tangent and the input tangent, implementing one step of
// reverse-mode differentiation. Erased layers return their parameter
// tangent as AnyTangent; input and output tangents keep their concrete
// representation.
//
// # Value semantics
//
// AnyLayer values behave like values over an internally shared box:
// Clone is cheap, and a MoveAlong through one wrapper never changes what
// another wrapper observes (copy-on-write). Moved returns a new wrapper
// and leaves the receiver untouched.
//
// # Type identity
//
// Recovering a concrete layer (Unbox) or tangent (UnboxTangent) uses Go's
// nominal type identity and fails by returning false. Mixing tangents of
// different concrete types in arithmetic, or moving a layer along a tangent
// of the wrong type, is a programming error and panics with
// TypeMismatchError via the exceptions package.
package nn
