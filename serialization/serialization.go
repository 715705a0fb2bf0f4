// Copyright 2026 Veil ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package serialization provides saving and loading of model parameters in
// the .veil file format.
//
// A .veil file is a JSON header describing the stored tensors followed by
// their raw data, with a CRC-32 checksum verified on load. State
// dictionaries come from a layer's StateDict method.
//
// Example:
//
//	err := serialization.Save("model.veil", model.StateDict(), "Sequential", nil)
//	...
//	header, stateDict, err := serialization.Load("model.veil")
//	model, err = nn.LoadSequentialStateDict(model, stateDict, backend)
package serialization

import (
	"io"

	"github.com/veil-ml/veil/internal/serialization"
	"github.com/veil-ml/veil/tensor"
)

// Header is the JSON header of a .veil file.
type Header = serialization.Header

// TensorMeta describes one stored tensor.
type TensorMeta = serialization.TensorMeta

// Save writes a state dictionary to path in .veil format.
func Save(path string, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	return serialization.WriteFile(path, stateDict, modelType, metadata)
}

// Load reads a .veil file, verifies its checksum and returns the header
// and state dictionary. Tensors are materialized on the CPU device.
func Load(path string) (Header, map[string]*tensor.RawTensor, error) {
	return serialization.ReadFile(path)
}

// Write writes a state dictionary in .veil format to a stream.
func Write(w io.Writer, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	return serialization.Write(w, stateDict, modelType, metadata)
}

// Read reads a .veil stream.
func Read(r io.Reader) (Header, map[string]*tensor.RawTensor, error) {
	return serialization.Read(r)
}
