// Package serialization implements the .veil model file format: a JSON
// header describing the tensors, followed by 64-byte-aligned raw tensor
// data, with a CRC-32 checksum of the data section in the fixed header.
package serialization

import (
	"time"

	"github.com/veil-ml/veil/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "VEIL"
	FormatVersion   = 1
	FixedHeaderSize = 40 // magic, version, flags, reserved, header size, data size, CRC-32, padding
	HeaderAlignment = 64 // tensor data starts on a 64-byte boundary
	ChecksumOffset  = 0x20
)

// Allocation limits applied to the sizes read from the fixed header,
// checked before any buffer is allocated.
const (
	MaxHeaderSize = 64 << 20 // JSON header
	MaxDataSize   = 64 << 30 // tensor data section
)

// Data type string constants for the JSON header.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeFloat16 = "float16"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
	DTypeBool    = "bool"
)

// Header is the JSON header of a .veil file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	VeilVersion   string            `json:"veil_version"`
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Float16:
		return DTypeFloat16
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
	case tensor.Uint8:
		return DTypeUint8
	case tensor.Bool:
		return DTypeBool
	default:
		return "unknown"
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeFloat16:
		return tensor.Float16, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	case DTypeUint8:
		return tensor.Uint8, true
	case DTypeBool:
		return tensor.Bool, true
	default:
		return 0, false
	}
}
