package tensor

import (
	"testing"
)

func TestNewRawRejectsInvalidShape(t *testing.T) {
	if _, err := NewRaw(Shape{2, 0}, Float32, CPU); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestRawCloneSharesBuffer(t *testing.T) {
	raw := MustNewRaw(Shape{2, 3}, Float32, CPU)
	if !raw.IsUnique() {
		t.Error("fresh tensor should own its buffer uniquely")
	}

	clone := raw.Clone()
	if raw.IsUnique() || clone.IsUnique() {
		t.Error("clone should share the buffer")
	}

	// Writes through either reference are visible in both.
	raw.AsFloat32()[0] = 42
	if clone.AsFloat32()[0] != 42 {
		t.Error("clone does not see write through original")
	}

	clone.Release()
	if !raw.IsUnique() {
		t.Error("releasing the clone should restore unique ownership")
	}
}

func TestRawDeepCopyIsIndependent(t *testing.T) {
	raw := MustNewRaw(Shape{4}, Float32, CPU)
	raw.AsFloat32()[1] = 5

	dup := raw.DeepCopy(CPU)
	dup.AsFloat32()[1] = 9
	if raw.AsFloat32()[1] != 5 {
		t.Error("deep copy must not alias the original buffer")
	}
	if !dup.Shape().Equal(raw.Shape()) {
		t.Errorf("deep copy shape %v, want %v", dup.Shape(), raw.Shape())
	}
}

func TestRawReshaped(t *testing.T) {
	raw := MustNewRaw(Shape{2, 6}, Float32, CPU)
	raw.AsFloat32()[7] = 3

	view := raw.Reshaped(Shape{3, 4})
	if !view.Shape().Equal(Shape{3, 4}) {
		t.Errorf("view shape %v, want [3 4]", view.Shape())
	}
	if view.AsFloat32()[7] != 3 {
		t.Error("reshaped view must share the buffer")
	}

	inferred := raw.Reshaped(Shape{4, -1})
	if !inferred.Shape().Equal(Shape{4, 3}) {
		t.Errorf("inferred shape %v, want [4 3]", inferred.Shape())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for element count mismatch")
		}
	}()
	raw.Reshaped(Shape{5, 5})
}

func TestRawCastToFloat16RoundTrip(t *testing.T) {
	raw := MustNewRaw(Shape{4}, Float32, CPU)
	data := raw.AsFloat32()
	copy(data, []float32{0, 1, -2.5, 0.25})

	half, err := raw.CastTo(Float16)
	if err != nil {
		t.Fatalf("CastTo(Float16): %v", err)
	}
	if half.DType() != Float16 {
		t.Fatalf("dtype = %s, want float16", half.DType())
	}

	back, err := half.CastTo(Float32)
	if err != nil {
		t.Fatalf("CastTo(Float32): %v", err)
	}
	for i, want := range []float32{0, 1, -2.5, 0.25} {
		if got := back.AsFloat32()[i]; got != want {
			t.Errorf("round trip [%d] = %v, want %v", i, got, want)
		}
	}
}
