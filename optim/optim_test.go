package optim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veil-ml/veil/backend/cpu"
	"github.com/veil-ml/veil/nn"
	"github.com/veil-ml/veil/optim"
	"github.com/veil-ml/veil/tensor"
)

// The optimizer facade is usable with the public nn and backend packages
// alone, with no reference to internal paths.
func TestSGDThroughPublicAPI(t *testing.T) {
	backend := cpu.New()

	type layer = nn.Dense[*cpu.Backend]
	type grad = nn.DenseTangent[*cpu.Backend]
	type value = nn.Value[*cpu.Backend]

	d := nn.NewDense(2, 2, backend)
	before := append([]float32(nil), d.Weight().Raw().AsFloat32()...)

	dw, err := tensor.FromSlice([]float32{1, 1, 1, 1}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	db, err := tensor.FromSlice([]float32{1, 1}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	sgd := optim.NewSGD[layer, grad, value, value](optim.SGDConfig{LR: 0.1})
	updated := sgd.Step(d, grad{DW: dw, DB: db})

	for i, w := range updated.Weight().Raw().AsFloat32() {
		assert.InDelta(t, before[i]-0.1, w, 1e-6, "weight %d", i)
	}
	for _, b := range updated.Bias().Raw().AsFloat32() {
		assert.InDelta(t, -0.1, b, 1e-6)
	}
}
