// Package cpu implements the CPU compute backend.
//
// Kernels are pure Go, generic over the float element types; float32 matrix
// multiplication is routed through gonum's BLAS implementation.
package cpu

import (
	"fmt"

	"golang.org/x/exp/constraints"
	"k8s.io/klog/v2"

	"github.com/veil-ml/veil/internal/parallel"
	"github.com/veil-ml/veil/internal/tensor"
)

// CPUBackend implements tensor.Backend on the host CPU.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	cfg := parallel.DefaultConfig()
	klog.V(2).Infof("cpu: backend initialized, %d workers", cfg.Workers)
	return &CPUBackend{device: tensor.CPU, parallel: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// CopyTo returns a device-local deep copy of x. Only CPU residency is
// supported by this backend; copying to the current device is idempotent.
func (cpu *CPUBackend) CopyTo(x *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	if device != tensor.CPU {
		panic(fmt.Sprintf("cpu: cannot copy tensor to device %s (no %s backend linked in)", device, device))
	}
	return x.DeepCopy(device)
}

// floatData returns the typed element slice of a float tensor.
func floatData[T constraints.Float](r *tensor.RawTensor) []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(r.AsFloat32()).([]T)
	case float64:
		return any(r.AsFloat64()).([]T)
	default:
		panic("unsupported float type")
	}
}

// checkFloat panics unless the tensor holds float32 or float64 elements.
func checkFloat(op string, x *tensor.RawTensor) {
	if x.DType() != tensor.Float32 && x.DType() != tensor.Float64 {
		panic(fmt.Sprintf("cpu: %s: unsupported dtype %s", op, x.DType()))
	}
}
