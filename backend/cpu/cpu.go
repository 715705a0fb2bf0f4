// Copyright 2026 Veil ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for tensor operations.
//
// Float32 matrix multiplication uses gonum's BLAS implementation; the
// remaining operations are direct Go loops with NumPy-compatible
// broadcasting. The backend never mutates its operands, which is what
// the differentiation layer's captured pullback inputs rely on.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
package cpu

import (
	internalcpu "github.com/veil-ml/veil/internal/backend/cpu"
	"github.com/veil-ml/veil/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return internalcpu.New()
}
