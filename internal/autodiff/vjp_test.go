package autodiff

import (
	"math/rand"
	"testing"

	"github.com/veil-ml/veil/internal/backend/cpu"
	"github.com/veil-ml/veil/internal/tensor"
)

// lossOf projects a tensor to a scalar with a fixed random seed vector, so
// the full analytic gradient can be compared against finite differences.
func lossOf(out Value[*cpu.CPUBackend], seed []float32) float32 {
	var total float32
	for i, v := range out.Raw().AsFloat32() {
		total += v * seed[i]
	}
	return total
}

func seedTensor(rng *rand.Rand, n int) []float32 {
	seed := make([]float32, n)
	for i := range seed {
		seed[i] = float32(rng.NormFloat64())
	}
	return seed
}

func randTensor(t *testing.T, rng *rand.Rand, shape tensor.Shape, backend *cpu.CPUBackend) Value[*cpu.CPUBackend] {
	t.Helper()
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	out, err := tensor.FromSlice(data, shape, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return out
}

// checkGradient compares an analytic input gradient against central finite
// differences of forward, perturbing x one element at a time.
func checkGradient(t *testing.T, x Value[*cpu.CPUBackend], analytic Value[*cpu.CPUBackend], forward func(Value[*cpu.CPUBackend]) float32) {
	t.Helper()
	const eps = 1e-2
	const tol = 1e-2

	backend := x.Backend()
	base := x.Raw().AsFloat32()
	grad := analytic.Raw().AsFloat32()
	for i := range base {
		perturbed := make([]float32, len(base))

		copy(perturbed, base)
		perturbed[i] += eps
		plus, err := tensor.FromSlice(perturbed, x.Shape(), backend)
		if err != nil {
			t.Fatalf("FromSlice: %v", err)
		}

		copy(perturbed, base)
		perturbed[i] -= eps
		minus, err := tensor.FromSlice(perturbed, x.Shape(), backend)
		if err != nil {
			t.Fatalf("FromSlice: %v", err)
		}

		numeric := (forward(plus) - forward(minus)) / (2 * eps)
		if diff := grad[i] - numeric; diff > tol || diff < -tol {
			t.Fatalf("gradient [%d] = %v, finite difference %v", i, grad[i], numeric)
		}
	}
}

func TestMatMulGradients(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	a := randTensor(t, rng, tensor.Shape{2, 3}, backend)
	b := randTensor(t, rng, tensor.Shape{3, 4}, backend)

	out, pb := MatMul(a, b)
	seed := seedTensor(rng, out.NumElements())
	seedT, err := tensor.FromSlice(seed, out.Shape(), backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	ga, gb := pb(seedT)

	checkGradient(t, a, ga, func(x Value[*cpu.CPUBackend]) float32 {
		return lossOf(x.MatMul(b), seed)
	})
	checkGradient(t, b, gb, func(x Value[*cpu.CPUBackend]) float32 {
		return lossOf(a.MatMul(x), seed)
	})
}

func TestPullbackOperandsStayLive(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(7))

	a := randTensor(t, rng, tensor.Shape{2, 2}, backend)
	b := randTensor(t, rng, tensor.Shape{2, 2}, backend)

	out, pb := MatMul(a, b)

	// The forward pass leaves no lingering references on its operands.
	if !a.Raw().IsUnique() || !b.Raw().IsUnique() {
		t.Fatal("forward pass must not hold extra buffer references")
	}

	// Using the operands in unrelated work before pulling back must not
	// disturb the captured values.
	_ = a.Add(b)
	_ = b.MulScalar(2)

	seed := seedTensor(rng, out.NumElements())
	seedT, err := tensor.FromSlice(seed, out.Shape(), backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	ga, gb := pb(seedT)

	checkGradient(t, a, ga, func(x Value[*cpu.CPUBackend]) float32 {
		return lossOf(x.MatMul(b), seed)
	})
	checkGradient(t, b, gb, func(x Value[*cpu.CPUBackend]) float32 {
		return lossOf(a.MatMul(x), seed)
	})
}

func TestAddBiasGradients(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(2))

	x := randTensor(t, rng, tensor.Shape{4, 3}, backend)
	bias := randTensor(t, rng, tensor.Shape{3}, backend)

	out, pb := AddBias(x, bias)
	seed := seedTensor(rng, out.NumElements())
	seedT, err := tensor.FromSlice(seed, out.Shape(), backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	gx, gbias := pb(seedT)

	checkGradient(t, x, gx, func(v Value[*cpu.CPUBackend]) float32 {
		y, _ := AddBias(v, bias)
		return lossOf(y, seed)
	})
	checkGradient(t, bias, gbias, func(v Value[*cpu.CPUBackend]) float32 {
		y, _ := AddBias(x, v)
		return lossOf(y, seed)
	})
}

func TestConv2DGradients(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(3))

	x := randTensor(t, rng, tensor.Shape{1, 2, 5, 5}, backend)
	kernel := randTensor(t, rng, tensor.Shape{3, 2, 3, 3}, backend)

	out, pb := Conv2D(x, kernel, 1, 1)
	seed := seedTensor(rng, out.NumElements())
	seedT, err := tensor.FromSlice(seed, out.Shape(), backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	gx, gk := pb(seedT)

	checkGradient(t, x, gx, func(v Value[*cpu.CPUBackend]) float32 {
		y, _ := Conv2D(v, kernel, 1, 1)
		return lossOf(y, seed)
	})
	checkGradient(t, kernel, gk, func(v Value[*cpu.CPUBackend]) float32 {
		y, _ := Conv2D(x, v, 1, 1)
		return lossOf(y, seed)
	})
}

func TestReLUGradient(t *testing.T) {
	backend := cpu.New()
	// Avoid finite differencing across the kink at zero.
	x, err := tensor.FromSlice([]float32{-2, -1, 0.5, 3}, tensor.Shape{4}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	out, pb := ReLU(x)
	seed := []float32{1, 1, 1, 1}
	seedT, err := tensor.FromSlice(seed, out.Shape(), backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	gx := pb(seedT)

	want := []float32{0, 0, 1, 1}
	for i, w := range want {
		if got := gx.Raw().AsFloat32()[i]; got != w {
			t.Errorf("gradient [%d] = %v, want %v", i, got, w)
		}
	}
}

func TestReshapePullbackRestoresShape(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(4))

	x := randTensor(t, rng, tensor.Shape{2, 3, 4}, backend)
	out, pb := Reshape(x, 6, 4)
	if !out.Shape().Equal(tensor.Shape{6, 4}) {
		t.Fatalf("shape = %v, want [6 4]", out.Shape())
	}

	grad := randTensor(t, rng, tensor.Shape{6, 4}, backend)
	gx := pb(grad)
	if !gx.Shape().Equal(tensor.Shape{2, 3, 4}) {
		t.Fatalf("gradient shape = %v, want [2 3 4]", gx.Shape())
	}
	for i, w := range grad.Raw().AsFloat32() {
		if got := gx.Raw().AsFloat32()[i]; got != w {
			t.Fatalf("gradient data [%d] = %v, want %v", i, got, w)
		}
	}
}

func TestMaxPool2DGradientScatters(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{
		1, 5, 2, 6,
		3, 7, 4, 8,
		9, 13, 10, 14,
		11, 15, 12, 16,
	}, tensor.Shape{1, 1, 4, 4}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	out, pb := MaxPool2D(x, 2, 2)
	grad, err := tensor.FromSlice([]float32{1, 2, 3, 4}, out.Shape(), backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	gx := pb(grad)

	want := []float32{
		0, 0, 0, 0,
		0, 1, 0, 2,
		0, 0, 0, 0,
		0, 3, 0, 4,
	}
	for i, w := range want {
		if got := gx.Raw().AsFloat32()[i]; got != w {
			t.Fatalf("gradient [%d] = %v, want %v", i, got, w)
		}
	}
}
