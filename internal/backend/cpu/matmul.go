package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/veil-ml/veil/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [m, k] @ [k, n] -> [m, n].
//
// Float32 inputs go through gonum's BLAS sgemm; float64 falls back to a
// cache-friendly ikj loop.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("cpu: matmul: expected 2D tensors, got %v and %v", aShape, bShape))
	}
	m, k, n := aShape[0], aShape[1], bShape[1]
	if bShape[0] != k {
		panic(fmt.Sprintf("cpu: matmul: inner dimensions do not match: %v @ %v", aShape, bShape))
	}

	out := tensor.MustNewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)

	switch a.DType() {
	case tensor.Float32:
		am := blas32.General{Rows: m, Cols: k, Stride: k, Data: a.AsFloat32()}
		bm := blas32.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat32()}
		cm := blas32.General{Rows: m, Cols: n, Stride: n, Data: out.AsFloat32()}
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, am, bm, 0, cm)
	case tensor.Float64:
		matmulFloat64(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n)
	default:
		panic(fmt.Sprintf("cpu: matmul: unsupported dtype %s", a.DType()))
	}
	return out
}

// matmulFloat64 computes c = a @ b with an ikj loop order so the inner loop
// walks both b and c contiguously.
func matmulFloat64(c, a, b []float64, m, k, n int) {
	for i := 0; i < m; i++ {
		ci := c[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			if av == 0 {
				continue
			}
			bp := b[p*n : (p+1)*n]
			for j := 0; j < n; j++ {
				ci[j] += av * bp[j]
			}
		}
	}
}
