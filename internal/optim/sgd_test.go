package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veil-ml/veil/internal/backend/cpu"
	"github.com/veil-ml/veil/internal/nn"
	"github.com/veil-ml/veil/internal/tensor"
)

type cpuDense = nn.Dense[*cpu.CPUBackend]
type cpuDenseTangent = nn.DenseTangent[*cpu.CPUBackend]
type cpuValue = nn.Value[*cpu.CPUBackend]

func denseWith(t *testing.T, backend *cpu.CPUBackend, weight, bias []float32) cpuDense {
	t.Helper()
	d := nn.NewDense(2, 2, backend)

	w := tensor.MustNewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)
	copy(w.AsFloat32(), weight)
	b := tensor.MustNewRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)
	copy(b.AsFloat32(), bias)

	require.NoError(t, d.LoadStateDict(map[string]*tensor.RawTensor{"weight": w, "bias": b}))
	return d
}

func gradOf(t *testing.T, backend *cpu.CPUBackend, dw, db []float32) cpuDenseTangent {
	t.Helper()
	w, err := tensor.FromSlice(dw, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice(db, tensor.Shape{2}, backend)
	require.NoError(t, err)
	return cpuDenseTangent{DW: w, DB: b}
}

func assertClose(t *testing.T, got cpuValue, want []float32) {
	t.Helper()
	data := got.Raw().AsFloat32()
	require.Len(t, data, len(want))
	for i := range want {
		assert.InDelta(t, want[i], data[i], 1e-5, "element %d", i)
	}
}

func TestSGDStepWithoutMomentum(t *testing.T) {
	backend := cpu.New()
	layer := denseWith(t, backend, []float32{1, 1, 1, 1}, []float32{0, 0})
	grad := gradOf(t, backend, []float32{1, 2, 3, 4}, []float32{10, 20})

	sgd := NewSGD[cpuDense, cpuDenseTangent, cpuValue, cpuValue](SGDConfig{LR: 0.1})
	updated := sgd.Step(layer, grad)

	// layer - lr * grad.
	assertClose(t, updated.Weight(), []float32{0.9, 0.8, 0.7, 0.6})
	assertClose(t, updated.Bias(), []float32{-1, -2})

	// The input layer value stays untouched.
	assertClose(t, layer.Weight(), []float32{1, 1, 1, 1})
	assertClose(t, layer.Bias(), []float32{0, 0})
}

func TestSGDDefaultLearningRate(t *testing.T) {
	sgd := NewSGD[cpuDense, cpuDenseTangent, cpuValue, cpuValue](SGDConfig{})
	assert.Equal(t, float32(0.01), sgd.GetLR())

	sgd.SetLR(0.5)
	assert.Equal(t, float32(0.5), sgd.GetLR())
}

func TestSGDMomentumAccumulates(t *testing.T) {
	backend := cpu.New()
	layer := denseWith(t, backend, []float32{0, 0, 0, 0}, []float32{0, 0})
	grad := gradOf(t, backend, []float32{1, 1, 1, 1}, []float32{1, 1})

	sgd := NewSGD[cpuDense, cpuDenseTangent, cpuValue, cpuValue](SGDConfig{LR: 1, Momentum: 0.5})

	// Step 1: velocity = grad, update = -1.
	layer = sgd.Step(layer, grad)
	assertClose(t, layer.Weight(), []float32{-1, -1, -1, -1})

	// Step 2: velocity = 0.5*grad + grad = 1.5, cumulative -2.5.
	layer = sgd.Step(layer, grad)
	assertClose(t, layer.Weight(), []float32{-2.5, -2.5, -2.5, -2.5})

	// Step 3: velocity = 1.75, cumulative -4.25.
	layer = sgd.Step(layer, grad)
	assertClose(t, layer.Weight(), []float32{-4.25, -4.25, -4.25, -4.25})
}

func TestSGDStepsErasedLayer(t *testing.T) {
	backend := cpu.New()
	layer := denseWith(t, backend, []float32{1, 0, 0, 1}, []float32{0, 0}).Erased()
	grad := gradOf(t, backend, []float32{1, 1, 1, 1}, []float32{1, 1})

	type anyLayer = nn.AnyLayer[cpuValue, cpuValue]
	sgd := NewSGD[anyLayer, nn.AnyTangent, cpuValue, cpuValue](SGDConfig{LR: 0.5})
	updated := sgd.Step(layer, nn.WrapTangent(grad))

	dense, ok := nn.Unbox[cpuDense](updated)
	require.True(t, ok)
	assertClose(t, dense.Weight(), []float32{0.5, -0.5, -0.5, 0.5})
	assertClose(t, dense.Bias(), []float32{-0.5, -0.5})

	// Original erased wrapper still holds the old parameters.
	original, ok := nn.Unbox[cpuDense](layer)
	require.True(t, ok)
	assertClose(t, original.Weight(), []float32{1, 0, 0, 1})
}
