package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veil-ml/veil/internal/backend/cpu"
	"github.com/veil-ml/veil/internal/tensor"
)

func rawOf(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw := tensor.MustNewRaw(shape, tensor.Float32, tensor.CPU)
	copy(raw.AsFloat32(), data)
	return raw
}

func valueOf(t *testing.T, data []float32, shape tensor.Shape, backend *cpu.CPUBackend) Value[*cpu.CPUBackend] {
	t.Helper()
	out, err := tensor.FromSlice(data, shape, backend)
	require.NoError(t, err)
	return out
}

func assertValues(t *testing.T, got Value[*cpu.CPUBackend], want []float32) {
	t.Helper()
	data := got.Raw().AsFloat32()
	require.Len(t, data, len(want))
	for i := range want {
		assert.InDelta(t, want[i], data[i], 1e-5, "element %d", i)
	}
}

// denseWith builds a 2-in 2-out dense layer with fixed parameters.
func denseWith(t *testing.T, backend *cpu.CPUBackend, weight, bias []float32) Dense[*cpu.CPUBackend] {
	t.Helper()
	d := NewDense(2, 2, backend)
	require.NoError(t, d.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": rawOf(t, weight, tensor.Shape{2, 2}),
		"bias":   rawOf(t, bias, tensor.Shape{2}),
	}))
	return d
}

func TestDenseForwardKnownValues(t *testing.T) {
	backend := cpu.New()
	d := denseWith(t, backend, []float32{1, 2, 3, 4}, []float32{10, 20})

	x := valueOf(t, []float32{1, 2}, tensor.Shape{1, 2}, backend)
	// y = x @ W^T + b.
	assertValues(t, d.Forward(x), []float32{15, 31})
}

func TestDensePullbackKnownValues(t *testing.T) {
	backend := cpu.New()
	d := denseWith(t, backend, []float32{1, 2, 3, 4}, []float32{0, 0})

	x := valueOf(t, []float32{1, 2}, tensor.Shape{1, 2}, backend)
	out, pb := d.ForwardWithPullback(x)
	assertValues(t, out, []float32{5, 11})

	grad := valueOf(t, []float32{3, 5}, tensor.Shape{1, 2}, backend)
	delta, gx := pb(grad)

	// dL/dW[o][i] = g[o] * x[i].
	assertValues(t, delta.DW, []float32{3, 6, 5, 10})
	assertValues(t, delta.DB, []float32{3, 5})
	// dL/dx = g @ W.
	assertValues(t, gx, []float32{18, 26})
}

func TestDenseMovedLeavesReceiver(t *testing.T) {
	backend := cpu.New()
	d := denseWith(t, backend, []float32{1, 2, 3, 4}, []float32{0, 0})

	delta := DenseTangent[*cpu.CPUBackend]{
		DW: valueOf(t, []float32{10, 10, 10, 10}, tensor.Shape{2, 2}, backend),
		DB: valueOf(t, []float32{1, 1}, tensor.Shape{2}, backend),
	}
	moved := d.Moved(delta)

	assertValues(t, d.Weight(), []float32{1, 2, 3, 4})
	assertValues(t, d.Bias(), []float32{0, 0})
	assertValues(t, moved.Weight(), []float32{11, 12, 13, 14})
	assertValues(t, moved.Bias(), []float32{1, 1})
}

func TestDenseStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	d := denseWith(t, backend, []float32{1, 2, 3, 4}, []float32{5, 6})

	loaded := NewDense(2, 2, backend)
	require.NoError(t, loaded.LoadStateDict(d.StateDict()))

	x := valueOf(t, []float32{0.5, -1}, tensor.Shape{1, 2}, backend)
	assertValues(t, loaded.Forward(x), d.Forward(x).Raw().AsFloat32())
}

func TestDenseLoadStateDictRejectsBadInput(t *testing.T) {
	backend := cpu.New()
	d := NewDense(2, 2, backend)

	err := d.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": rawOf(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}),
	})
	assert.ErrorContains(t, err, "bias")

	err = d.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": rawOf(t, []float32{1, 2, 3}, tensor.Shape{3, 1}),
		"bias":   rawOf(t, []float32{0, 0}, tensor.Shape{2}),
	})
	assert.ErrorContains(t, err, "shape")
}

func TestDenseErasedGradientsMatchConcrete(t *testing.T) {
	backend := cpu.New()
	d := denseWith(t, backend, []float32{1, -2, 0.5, 4}, []float32{1, -1})
	erased := d.Erased()

	x := valueOf(t, []float32{2, 3}, tensor.Shape{1, 2}, backend)
	grad := valueOf(t, []float32{1, -1}, tensor.Shape{1, 2}, backend)

	concreteOut, concretePB := d.ForwardWithPullback(x)
	concreteDelta, concreteGX := concretePB(grad)

	erasedOut, erasedPB := erased.ForwardWithPullback(x)
	erasedParam, erasedGX := erasedPB(grad)

	assertValues(t, erasedOut, concreteOut.Raw().AsFloat32())
	assertValues(t, erasedGX, concreteGX.Raw().AsFloat32())

	erasedDelta, ok := UnboxTangent[DenseTangent[*cpu.CPUBackend]](erasedParam)
	require.True(t, ok)
	assertValues(t, erasedDelta.DW, concreteDelta.DW.Raw().AsFloat32())
	assertValues(t, erasedDelta.DB, concreteDelta.DB.Raw().AsFloat32())
}

func TestDenseRejectsWrongInputShape(t *testing.T) {
	backend := cpu.New()
	d := NewDense(2, 2, backend)

	x := valueOf(t, []float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	assert.Panics(t, func() { d.Forward(x) })
}
