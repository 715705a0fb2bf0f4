package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(fmt.Sprintf("Zeros: %v", err))
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	var one T
	switch any(one).(type) {
	case bool:
		for i := range data {
			data[i] = any(true).(T)
		}
		return t
	case float32:
		one = any(float32(1)).(T)
	case float64:
		one = any(float64(1)).(T)
	case int32:
		one = any(int32(1)).(T)
	case int64:
		one = any(int64(1)).(T)
	case uint8:
		one = any(uint8(1)).(T)
	}
	for i := range data {
		data[i] = one
	}
	return t
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float tensor with values drawn from the standard normal
// distribution. Only Float32 and Float64 element types are supported.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	var dummy T
	switch any(dummy).(type) {
	case float32:
		for i := range data {
			data[i] = any(float32(rand.NormFloat64())).(T)
		}
	case float64:
		for i := range data {
			data[i] = any(rand.NormFloat64()).(T)
		}
	default:
		panic("Randn: only float32 and float64 are supported")
	}
	return t
}

// Rand creates a float tensor with values drawn uniformly from [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	var dummy T
	switch any(dummy).(type) {
	case float32:
		for i := range data {
			data[i] = any(rand.Float32()).(T)
		}
	case float64:
		for i := range data {
			data[i] = any(rand.Float64()).(T)
		}
	default:
		panic("Rand: only float32 and float64 are supported")
	}
	return t
}
