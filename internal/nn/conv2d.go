package nn

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/veil-ml/veil/internal/autodiff"
	"github.com/veil-ml/veil/internal/tensor"
)

// Conv2D implements a 2D convolutional layer over NCHW input with a square
// kernel and a per-channel bias.
//
// Input shape: [batch, inChannels, H, W]; output shape:
// [batch, outChannels, (H+2p-k)/stride+1, (W+2p-k)/stride+1].
type Conv2D[B tensor.Backend] struct {
	weight      *tensor.Tensor[float32, B] // [outChannels, inChannels, k, k]
	bias        *tensor.Tensor[float32, B] // [outChannels]
	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int
	backend     B
}

// Conv2DTangent is the additive tangent space of Conv2D.
type Conv2DTangent[B tensor.Backend] struct {
	DW *tensor.Tensor[float32, B]
	DB *tensor.Tensor[float32, B]
}

// Add returns the element-wise sum of two convolution tangents.
func (t Conv2DTangent[B]) Add(o Conv2DTangent[B]) Conv2DTangent[B] {
	return Conv2DTangent[B]{DW: t.DW.Add(o.DW), DB: t.DB.Add(o.DB)}
}

// Sub returns the element-wise difference of two convolution tangents.
func (t Conv2DTangent[B]) Sub(o Conv2DTangent[B]) Conv2DTangent[B] {
	return Conv2DTangent[B]{DW: t.DW.Sub(o.DW), DB: t.DB.Sub(o.DB)}
}

// Scale returns the tangent scaled by s.
func (t Conv2DTangent[B]) Scale(s Scalar) Conv2DTangent[B] {
	return Conv2DTangent[B]{DW: t.DW.MulScalar(s), DB: t.DB.MulScalar(s)}
}

// AddScalar broadcast-adds s to every coordinate of the tangent.
func (t Conv2DTangent[B]) AddScalar(s Scalar) Conv2DTangent[B] {
	return Conv2DTangent[B]{DW: t.DW.AddScalar(s), DB: t.DB.AddScalar(s)}
}

// NewConv2D creates a Conv2D layer with Xavier-initialized weights.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, backend B) Conv2D[B] {
	fanIn := inChannels * kernelSize * kernelSize
	fanOut := outChannels * kernelSize * kernelSize
	return Conv2D[B]{
		weight: Xavier(fanIn, fanOut,
			tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}, backend),
		bias:        Zeros(tensor.Shape{outChannels}, backend),
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     padding,
		backend:     backend,
	}
}

// Forward computes the convolution plus bias.
func (c Conv2D[B]) Forward(x Value[B]) Value[B] {
	c.checkInput(x)
	out := tensor.New[float32, B](c.backend.Conv2D(x.Raw(), c.weight.Raw(), c.stride, c.padding), c.backend)
	return out.Add(c.bias.Reshape(1, c.outChannels, 1, 1))
}

// ForwardWithPullback computes the output and a pullback yielding the
// kernel/bias tangent and the input gradient.
func (c Conv2D[B]) ForwardWithPullback(x Value[B]) (Value[B], Pullback[Conv2DTangent[B], Value[B], Value[B]]) {
	c.checkInput(x)
	h, pbConv := autodiff.Conv2D(x, c.weight, c.stride, c.padding)
	y, pbBias := autodiff.AddChannelBias(h, c.bias)
	return y, func(grad Value[B]) (Conv2DTangent[B], Value[B]) {
		gh, db := pbBias(grad)
		gx, dw := pbConv(gh)
		return Conv2DTangent[B]{DW: dw, DB: db}, gx
	}
}

// Moved returns the layer with kernel and bias perturbed by the tangent.
func (c Conv2D[B]) Moved(t Conv2DTangent[B]) Conv2D[B] {
	moved := c
	moved.weight = c.weight.Add(t.DW)
	moved.bias = c.bias.Add(t.DB)
	return moved
}

// TangentVector returns the current parameters viewed as a tangent.
func (c Conv2D[B]) TangentVector() Conv2DTangent[B] {
	return Conv2DTangent[B]{DW: c.weight, DB: c.bias}
}

// ZeroTangent returns the zero element of the layer's tangent space.
func (c Conv2D[B]) ZeroTangent() Conv2DTangent[B] {
	return Conv2DTangent[B]{
		DW: tensor.Zeros[float32](c.weight.Shape(), c.backend),
		DB: tensor.Zeros[float32](c.bias.Shape(), c.backend),
	}
}

// Duplicated returns a deep copy of the layer.
func (c Conv2D[B]) Duplicated() Conv2D[B] {
	duplicate := c
	duplicate.weight = c.weight.DeepCopy()
	duplicate.bias = c.bias.DeepCopy()
	return duplicate
}

// CopiedTo returns a device-local copy of the layer.
func (c Conv2D[B]) CopiedTo(device tensor.Device) Conv2D[B] {
	copied := c
	copied.weight = c.weight.CopyTo(device)
	copied.bias = c.bias.CopyTo(device)
	return copied
}

// Erased wraps the layer in an AnyLayer.
func (c Conv2D[B]) Erased() AnyLayer[Value[B], Value[B]] {
	return Erase[Conv2D[B], Conv2DTangent[B], Value[B], Value[B]](c)
}

// Weight returns the kernel tensor.
func (c Conv2D[B]) Weight() *tensor.Tensor[float32, B] {
	return c.weight
}

// Bias returns the bias tensor.
func (c Conv2D[B]) Bias() *tensor.Tensor[float32, B] {
	return c.bias
}

// StateDict exports the layer's parameters.
func (c Conv2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": c.weight.Raw(),
		"bias":   c.bias.Raw(),
	}
}

// LoadStateDict replaces the layer's parameters from a state dictionary.
func (c *Conv2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	weight, ok := stateDict["weight"]
	if !ok {
		return errors.New("conv2d: missing parameter \"weight\"")
	}
	bias, ok := stateDict["bias"]
	if !ok {
		return errors.New("conv2d: missing parameter \"bias\"")
	}
	if !weight.Shape().Equal(c.weight.Shape()) {
		return errors.Errorf("conv2d: weight shape %v does not match %v", weight.Shape(), c.weight.Shape())
	}
	if !bias.Shape().Equal(c.bias.Shape()) {
		return errors.Errorf("conv2d: bias shape %v does not match %v", bias.Shape(), c.bias.Shape())
	}
	c.weight = tensor.New[float32, B](weight, c.backend)
	c.bias = tensor.New[float32, B](bias, c.backend)
	return nil
}

func (c Conv2D[B]) checkInput(x Value[B]) {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("Conv2D.Forward: expected 4D input [batch, channels, h, w], got shape %v", shape))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("Conv2D.Forward: expected %d input channels, got %d", c.inChannels, shape[1]))
	}
}
