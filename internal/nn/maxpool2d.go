package nn

import (
	"fmt"

	"github.com/veil-ml/veil/internal/autodiff"
	"github.com/veil-ml/veil/internal/tensor"
)

// MaxPool2D implements 2D max pooling over NCHW input with a square window.
// The layer has no parameters, so its tangent space is EmptyTangent.
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	backend    B
}

// NewMaxPool2D creates a max pooling layer. A stride of 0 defaults to the
// kernel size.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) MaxPool2D[B] {
	if stride == 0 {
		stride = kernelSize
	}
	return MaxPool2D[B]{kernelSize: kernelSize, stride: stride, backend: backend}
}

// Forward pools each window to its maximum.
func (m MaxPool2D[B]) Forward(x Value[B]) Value[B] {
	m.checkInput(x)
	return tensor.New[float32, B](m.backend.MaxPool2D(x.Raw(), m.kernelSize, m.stride), m.backend)
}

// ForwardWithPullback pools and returns a pullback that scatters the output
// gradient back to the argmax positions.
func (m MaxPool2D[B]) ForwardWithPullback(x Value[B]) (Value[B], Pullback[EmptyTangent, Value[B], Value[B]]) {
	m.checkInput(x)
	y, pb := autodiff.MaxPool2D(x, m.kernelSize, m.stride)
	return y, func(grad Value[B]) (EmptyTangent, Value[B]) {
		return EmptyTangent{}, pb(grad)
	}
}

// Moved returns the layer unchanged; there are no parameters to perturb.
func (m MaxPool2D[B]) Moved(EmptyTangent) MaxPool2D[B] { return m }

// TangentVector returns the empty tangent.
func (m MaxPool2D[B]) TangentVector() EmptyTangent { return EmptyTangent{} }

// ZeroTangent returns the empty tangent.
func (m MaxPool2D[B]) ZeroTangent() EmptyTangent { return EmptyTangent{} }

// Duplicated returns the layer; it holds no mutable state.
func (m MaxPool2D[B]) Duplicated() MaxPool2D[B] { return m }

// CopiedTo returns the layer; it holds no tensors to relocate.
func (m MaxPool2D[B]) CopiedTo(tensor.Device) MaxPool2D[B] { return m }

// Erased wraps the layer in an AnyLayer.
func (m MaxPool2D[B]) Erased() AnyLayer[Value[B], Value[B]] {
	return Erase[MaxPool2D[B], EmptyTangent, Value[B], Value[B]](m)
}

func (m MaxPool2D[B]) checkInput(x Value[B]) {
	if shape := x.Shape(); len(shape) != 4 {
		panic(fmt.Sprintf("MaxPool2D.Forward: expected 4D input [batch, channels, h, w], got shape %v", shape))
	}
}
