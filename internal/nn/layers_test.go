package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veil-ml/veil/internal/backend/cpu"
	"github.com/veil-ml/veil/internal/tensor"
)

func TestConv2DForwardKnownValues(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D(1, 1, 2, 1, 0, backend)
	require.NoError(t, conv.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": rawOf(t, []float32{1, 0, 0, 1}, tensor.Shape{1, 1, 2, 2}),
		"bias":   rawOf(t, []float32{100}, tensor.Shape{1}),
	}))

	x := valueOf(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3}, backend)

	// Diagonal kernel sums x[i][j] + x[i+1][j+1], then the bias shifts all.
	assertValues(t, conv.Forward(x), []float32{106, 108, 112, 114})
}

func TestConv2DErasedPullbackMatchesConcrete(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D(1, 2, 3, 1, 1, backend)
	erased := conv.Erased()

	x := valueOf(t, []float32{
		1, -2, 3,
		0, 5, -6,
		7, 8, -9,
	}, tensor.Shape{1, 1, 3, 3}, backend)
	out, pb := erased.ForwardWithPullback(x)
	require.True(t, out.Shape().Equal(tensor.Shape{1, 2, 3, 3}))

	concreteOut, concretePB := conv.ForwardWithPullback(x)
	assertValues(t, out, concreteOut.Raw().AsFloat32())

	grad := Ones(out.Shape(), backend)
	param, gx := pb(grad)
	concreteDelta, concreteGX := concretePB(grad)

	assertValues(t, gx, concreteGX.Raw().AsFloat32())
	delta, ok := UnboxTangent[Conv2DTangent[*cpu.CPUBackend]](param)
	require.True(t, ok)
	assertValues(t, delta.DW, concreteDelta.DW.Raw().AsFloat32())
	assertValues(t, delta.DB, concreteDelta.DB.Raw().AsFloat32())
}

func TestConv2DRejectsWrongChannels(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D(3, 1, 1, 1, 0, backend)

	x := valueOf(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, backend)
	assert.Panics(t, func() { conv.Forward(x) })
}

func TestMaxPool2DLayerForward(t *testing.T) {
	backend := cpu.New()
	// Stride 0 defaults to the kernel size.
	pool := NewMaxPool2D(2, 0, backend)

	x := valueOf(t, []float32{
		1, 3, 2, 4,
		5, 7, 6, 8,
		9, 11, 10, 12,
		13, 15, 14, 16,
	}, tensor.Shape{1, 1, 4, 4}, backend)

	out := pool.Forward(x)
	require.True(t, out.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assertValues(t, out, []float32{7, 8, 15, 16})
}

func TestMaxPool2DPullbackRoutesToArgmax(t *testing.T) {
	backend := cpu.New()
	pool := NewMaxPool2D(2, 2, backend)

	x := valueOf(t, []float32{
		1, 3,
		2, 4,
	}, tensor.Shape{1, 1, 2, 2}, backend)

	out, pb := pool.ForwardWithPullback(x)
	assertValues(t, out, []float32{4})

	grad := valueOf(t, []float32{10}, tensor.Shape{1, 1, 1, 1}, backend)
	_, gx := pb(grad)
	assertValues(t, gx, []float32{0, 0, 0, 10})
}

func TestFlattenForwardAndPullback(t *testing.T) {
	backend := cpu.New()
	flatten := NewFlatten[*cpu.CPUBackend]()

	x := valueOf(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 1, 2, 2}, backend)
	out, pb := flatten.ForwardWithPullback(x)
	require.True(t, out.Shape().Equal(tensor.Shape{2, 4}))

	grad := Ones(out.Shape(), backend)
	_, gx := pb(grad)
	require.True(t, gx.Shape().Equal(tensor.Shape{2, 1, 2, 2}))
	assertValues(t, gx, []float32{1, 1, 1, 1, 1, 1, 1, 1})
}

func TestParameterFreeLayersShareNoState(t *testing.T) {
	backend := cpu.New()
	relu := NewReLU(backend)

	x := valueOf(t, []float32{-1, 2}, tensor.Shape{1, 2}, backend)
	assertValues(t, relu.Forward(x), []float32{0, 2})
	assertValues(t, relu.Moved(EmptyTangent{}).Forward(x), []float32{0, 2})
	assertValues(t, relu.Duplicated().Forward(x), []float32{0, 2})
}
