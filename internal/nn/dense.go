package nn

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/veil-ml/veil/internal/autodiff"
	"github.com/veil-ml/veil/internal/tensor"
)

// Dense implements a fully connected layer: y = x @ W^T + b.
//
// Input shape: [batch, inFeatures], output shape: [batch, outFeatures].
// Weights use Xavier initialization, biases start at zero.
//
// Dense is a value type: Moved, Duplicated and CopiedTo return new layers.
type Dense[B tensor.Backend] struct {
	weight      *tensor.Tensor[float32, B] // [outFeatures, inFeatures]
	bias        *tensor.Tensor[float32, B] // [outFeatures]
	inFeatures  int
	outFeatures int
	backend     B
}

// DenseTangent is the additive tangent space of Dense: deltas for the
// weight matrix and the bias vector.
type DenseTangent[B tensor.Backend] struct {
	DW *tensor.Tensor[float32, B]
	DB *tensor.Tensor[float32, B]
}

// Add returns the element-wise sum of two dense tangents.
func (t DenseTangent[B]) Add(o DenseTangent[B]) DenseTangent[B] {
	return DenseTangent[B]{DW: t.DW.Add(o.DW), DB: t.DB.Add(o.DB)}
}

// Sub returns the element-wise difference of two dense tangents.
func (t DenseTangent[B]) Sub(o DenseTangent[B]) DenseTangent[B] {
	return DenseTangent[B]{DW: t.DW.Sub(o.DW), DB: t.DB.Sub(o.DB)}
}

// Scale returns the tangent scaled by s.
func (t DenseTangent[B]) Scale(s Scalar) DenseTangent[B] {
	return DenseTangent[B]{DW: t.DW.MulScalar(s), DB: t.DB.MulScalar(s)}
}

// AddScalar broadcast-adds s to every coordinate of the tangent.
func (t DenseTangent[B]) AddScalar(s Scalar) DenseTangent[B] {
	return DenseTangent[B]{DW: t.DW.AddScalar(s), DB: t.DB.AddScalar(s)}
}

// NewDense creates a Dense layer with Xavier-initialized weights.
func NewDense[B tensor.Backend](inFeatures, outFeatures int, backend B) Dense[B] {
	return Dense[B]{
		weight:      Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend),
		bias:        Zeros(tensor.Shape{outFeatures}, backend),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		backend:     backend,
	}
}

// Forward computes y = x @ W^T + b.
func (d Dense[B]) Forward(x Value[B]) Value[B] {
	d.checkInput(x)
	return x.MatMul(d.weight.T()).Add(d.bias.Reshape(1, d.outFeatures))
}

// ForwardWithPullback computes the output and a pullback yielding the
// weight/bias tangent and the input gradient.
func (d Dense[B]) ForwardWithPullback(x Value[B]) (Value[B], Pullback[DenseTangent[B], Value[B], Value[B]]) {
	d.checkInput(x)
	h, pbMatMul := autodiff.MatMul(x, d.weight.T())
	y, pbBias := autodiff.AddBias(h, d.bias)
	return y, func(grad Value[B]) (DenseTangent[B], Value[B]) {
		gh, db := pbBias(grad)
		gx, gwT := pbMatMul(gh)
		return DenseTangent[B]{DW: gwT.T(), DB: db}, gx
	}
}

// Moved returns the layer with weights and bias perturbed by the tangent.
func (d Dense[B]) Moved(t DenseTangent[B]) Dense[B] {
	moved := d
	moved.weight = d.weight.Add(t.DW)
	moved.bias = d.bias.Add(t.DB)
	return moved
}

// TangentVector returns the current parameters viewed as a tangent.
func (d Dense[B]) TangentVector() DenseTangent[B] {
	return DenseTangent[B]{DW: d.weight, DB: d.bias}
}

// ZeroTangent returns the zero element of the layer's tangent space.
func (d Dense[B]) ZeroTangent() DenseTangent[B] {
	return DenseTangent[B]{
		DW: tensor.Zeros[float32](d.weight.Shape(), d.backend),
		DB: tensor.Zeros[float32](d.bias.Shape(), d.backend),
	}
}

// Duplicated returns a deep copy of the layer.
func (d Dense[B]) Duplicated() Dense[B] {
	duplicate := d
	duplicate.weight = d.weight.DeepCopy()
	duplicate.bias = d.bias.DeepCopy()
	return duplicate
}

// CopiedTo returns a device-local copy of the layer.
func (d Dense[B]) CopiedTo(device tensor.Device) Dense[B] {
	copied := d
	copied.weight = d.weight.CopyTo(device)
	copied.bias = d.bias.CopyTo(device)
	return copied
}

// Erased wraps the layer in an AnyLayer.
func (d Dense[B]) Erased() AnyLayer[Value[B], Value[B]] {
	return Erase[Dense[B], DenseTangent[B], Value[B], Value[B]](d)
}

// Weight returns the weight tensor.
func (d Dense[B]) Weight() *tensor.Tensor[float32, B] {
	return d.weight
}

// Bias returns the bias tensor.
func (d Dense[B]) Bias() *tensor.Tensor[float32, B] {
	return d.bias
}

// InFeatures returns the number of input features.
func (d Dense[B]) InFeatures() int {
	return d.inFeatures
}

// OutFeatures returns the number of output features.
func (d Dense[B]) OutFeatures() int {
	return d.outFeatures
}

// StateDict exports the layer's parameters.
func (d Dense[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": d.weight.Raw(),
		"bias":   d.bias.Raw(),
	}
}

// LoadStateDict replaces the layer's parameters from a state dictionary.
func (d *Dense[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	weight, ok := stateDict["weight"]
	if !ok {
		return errors.New("dense: missing parameter \"weight\"")
	}
	bias, ok := stateDict["bias"]
	if !ok {
		return errors.New("dense: missing parameter \"bias\"")
	}
	if !weight.Shape().Equal(d.weight.Shape()) {
		return errors.Errorf("dense: weight shape %v does not match %v", weight.Shape(), d.weight.Shape())
	}
	if !bias.Shape().Equal(d.bias.Shape()) {
		return errors.Errorf("dense: bias shape %v does not match %v", bias.Shape(), d.bias.Shape())
	}
	d.weight = tensor.New[float32, B](weight, d.backend)
	d.bias = tensor.New[float32, B](bias, d.backend)
	return nil
}

func (d Dense[B]) checkInput(x Value[B]) {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Dense.Forward: expected 2D input [batch, features], got shape %v", shape))
	}
	if shape[1] != d.inFeatures {
		panic(fmt.Sprintf("Dense.Forward: expected input with %d features, got %d", d.inFeatures, shape[1]))
	}
}
