package nn

import (
	"fmt"
	"strconv"

	"github.com/gomlx/exceptions"

	"github.com/veil-ml/veil/internal/tensor"
)

// Sequential chains type-erased layers, feeding each stage's output to the
// next. Because the stages are AnyLayer values, a single Sequential can mix
// convolutions, activations, poolings and dense layers freely.
//
// Its tangent is SequentialTangent, one erased tangent per stage.
type Sequential[B tensor.Backend] struct {
	stages []AnyLayer[Value[B], Value[B]]
}

// SequentialTangent is the per-stage tangent of a Sequential. Stage i of the
// tangent pairs with stage i of the layer; combining tangents of different
// lengths is fatal.
type SequentialTangent[B tensor.Backend] struct {
	Stages []AnyTangent
}

func (t SequentialTangent[B]) checkLen(op string, o SequentialTangent[B]) {
	if len(t.Stages) != len(o.Stages) {
		exceptions.Panicf("%s: stage count mismatch: %d vs %d", op, len(t.Stages), len(o.Stages))
	}
}

// Add combines two sequential tangents stage by stage.
func (t SequentialTangent[B]) Add(o SequentialTangent[B]) SequentialTangent[B] {
	t.checkLen("SequentialTangent.Add", o)
	out := make([]AnyTangent, len(t.Stages))
	for i := range t.Stages {
		out[i] = t.Stages[i].Add(o.Stages[i])
	}
	return SequentialTangent[B]{Stages: out}
}

// Sub combines two sequential tangents stage by stage under subtraction.
func (t SequentialTangent[B]) Sub(o SequentialTangent[B]) SequentialTangent[B] {
	t.checkLen("SequentialTangent.Sub", o)
	out := make([]AnyTangent, len(t.Stages))
	for i := range t.Stages {
		out[i] = t.Stages[i].Sub(o.Stages[i])
	}
	return SequentialTangent[B]{Stages: out}
}

// Scale scales every stage tangent by s.
func (t SequentialTangent[B]) Scale(s Scalar) SequentialTangent[B] {
	out := make([]AnyTangent, len(t.Stages))
	for i := range t.Stages {
		out[i] = t.Stages[i].Scale(s)
	}
	return SequentialTangent[B]{Stages: out}
}

// AddScalar broadcast-adds s to every stage tangent.
func (t SequentialTangent[B]) AddScalar(s Scalar) SequentialTangent[B] {
	out := make([]AnyTangent, len(t.Stages))
	for i := range t.Stages {
		out[i] = t.Stages[i].AddScalar(s)
	}
	return SequentialTangent[B]{Stages: out}
}

// NewSequential chains the given erased layers in order.
func NewSequential[B tensor.Backend](stages ...AnyLayer[Value[B], Value[B]]) Sequential[B] {
	return Sequential[B]{stages: stages}
}

// Len returns the number of stages.
func (s Sequential[B]) Len() int {
	return len(s.stages)
}

// Stage returns stage i.
func (s Sequential[B]) Stage(i int) AnyLayer[Value[B], Value[B]] {
	return s.stages[i]
}

// Forward evaluates the stages in order.
func (s Sequential[B]) Forward(x Value[B]) Value[B] {
	for _, stage := range s.stages {
		x = stage.Forward(x)
	}
	return x
}

// ForwardWithPullback evaluates the stages in order and returns a pullback
// that runs the stage pullbacks in reverse, collecting one erased tangent per
// stage.
func (s Sequential[B]) ForwardWithPullback(x Value[B]) (Value[B], Pullback[SequentialTangent[B], Value[B], Value[B]]) {
	pullbacks := make([]Pullback[AnyTangent, Value[B], Value[B]], len(s.stages))
	for i, stage := range s.stages {
		x, pullbacks[i] = stage.ForwardWithPullback(x)
	}
	return x, func(grad Value[B]) (SequentialTangent[B], Value[B]) {
		tangents := make([]AnyTangent, len(pullbacks))
		for i := len(pullbacks) - 1; i >= 0; i-- {
			tangents[i], grad = pullbacks[i](grad)
		}
		return SequentialTangent[B]{Stages: tangents}, grad
	}
}

// Moved returns the chain with each stage perturbed by its paired stage
// tangent. A tangent with a different stage count is fatal.
func (s Sequential[B]) Moved(t SequentialTangent[B]) Sequential[B] {
	if len(t.Stages) != len(s.stages) {
		exceptions.Panicf("Sequential.Moved: tangent has %d stages, layer has %d", len(t.Stages), len(s.stages))
	}
	moved := make([]AnyLayer[Value[B], Value[B]], len(s.stages))
	for i, stage := range s.stages {
		moved[i] = stage.Moved(t.Stages[i])
	}
	return Sequential[B]{stages: moved}
}

// TangentVector returns the differentiable state of every stage.
func (s Sequential[B]) TangentVector() SequentialTangent[B] {
	out := make([]AnyTangent, len(s.stages))
	for i, stage := range s.stages {
		out[i] = stage.TangentVector()
	}
	return SequentialTangent[B]{Stages: out}
}

// ZeroTangent returns a zero tangent for every stage.
func (s Sequential[B]) ZeroTangent() SequentialTangent[B] {
	return SequentialTangent[B]{Stages: make([]AnyTangent, len(s.stages))}
}

// Duplicated returns a chain of deep copies of the stages.
func (s Sequential[B]) Duplicated() Sequential[B] {
	out := make([]AnyLayer[Value[B], Value[B]], len(s.stages))
	for i, stage := range s.stages {
		out[i] = stage.Duplicated()
	}
	return Sequential[B]{stages: out}
}

// CopiedTo returns a chain with every stage copied to the target device.
func (s Sequential[B]) CopiedTo(device tensor.Device) Sequential[B] {
	out := make([]AnyLayer[Value[B], Value[B]], len(s.stages))
	for i, stage := range s.stages {
		out[i] = stage.CopiedTo(device)
	}
	return Sequential[B]{stages: out}
}

// Erased wraps the chain in an AnyLayer, so sequences nest inside other
// sequences.
func (s Sequential[B]) Erased() AnyLayer[Value[B], Value[B]] {
	return Erase[Sequential[B], SequentialTangent[B], Value[B], Value[B]](s)
}

// StateDict exports the parameters of every parameterized stage, keyed by
// stage index: "0.weight", "0.bias", "2.weight", ...
func (s Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for i, stage := range s.stages {
		dicter, ok := stage.Base().(StateDicter)
		if !ok {
			continue
		}
		prefix := strconv.Itoa(i)
		for name, raw := range dicter.StateDict() {
			out[prefix+"."+name] = raw
		}
	}
	return out
}

// LoadSequentialStateDict rebuilds the stages of a Sequential from a state
// dictionary exported by StateDict. Parameter-free stages are kept as-is;
// parameterized stages are unboxed, loaded and re-erased, so the returned
// chain shares no boxes with the original.
func LoadSequentialStateDict[B tensor.Backend](s Sequential[B], stateDict map[string]*tensor.RawTensor, backend B) (Sequential[B], error) {
	stages := make([]AnyLayer[Value[B], Value[B]], len(s.stages))
	for i, stage := range s.stages {
		loaded, err := loadStage(stage, stageDict(stateDict, i), backend)
		if err != nil {
			return Sequential[B]{}, fmt.Errorf("sequential: stage %d: %w", i, err)
		}
		stages[i] = loaded
	}
	return Sequential[B]{stages: stages}, nil
}

func stageDict(stateDict map[string]*tensor.RawTensor, i int) map[string]*tensor.RawTensor {
	prefix := strconv.Itoa(i) + "."
	out := make(map[string]*tensor.RawTensor)
	for name, raw := range stateDict {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			out[name[len(prefix):]] = raw
		}
	}
	return out
}

func loadStage[B tensor.Backend](stage AnyLayer[Value[B], Value[B]], params map[string]*tensor.RawTensor, backend B) (AnyLayer[Value[B], Value[B]], error) {
	if _, ok := stage.Base().(StateDicter); !ok {
		return stage, nil
	}
	if dense, ok := Unbox[Dense[B]](stage); ok {
		if err := dense.LoadStateDict(params); err != nil {
			return AnyLayer[Value[B], Value[B]]{}, err
		}
		return dense.Erased(), nil
	}
	if conv, ok := Unbox[Conv2D[B]](stage); ok {
		if err := conv.LoadStateDict(params); err != nil {
			return AnyLayer[Value[B], Value[B]]{}, err
		}
		return conv.Erased(), nil
	}
	return AnyLayer[Value[B], Value[B]]{}, fmt.Errorf("cannot load parameters into %s", typeNameOf(stage.Base()))
}
