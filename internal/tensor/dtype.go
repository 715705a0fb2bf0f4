// Package tensor provides the core tensor types for the veil toolkit.
package tensor

import "github.com/x448/float16"

// DType is a constraint for element types a Tensor can be instantiated with.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8 | ~bool
}

// DataType carries runtime type information for tensor storage.
type DataType int

// Supported storage types.
//
// Float16 is storage-only: there is no native Go half type, so half tensors
// are accessed through AsFloat16 or converted with CastTo.
const (
	Float32 DataType = iota
	Float64
	Float16
	Int32
	Int64
	Uint8
	Bool
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Float16:
		return 2
	case Uint8, Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// inferDataType maps a generic element type to its runtime DataType.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case bool:
		return Bool
	default:
		panic("unsupported type")
	}
}

// halfToFloat32 widens a float16 payload into a float32 slice.
func halfToFloat32(src []float16.Float16, dst []float32) {
	for i, h := range src {
		dst[i] = h.Float32()
	}
}

// float32ToHalf narrows a float32 payload into a float16 slice,
// rounding to nearest even.
func float32ToHalf(src []float32, dst []float16.Float16) {
	for i, f := range src {
		dst[i] = float16.Fromfloat32(f)
	}
}
