package nn

import (
	"github.com/veil-ml/veil/internal/tensor"
)

// StateDicter is implemented by layers with exportable parameters.
type StateDicter interface {
	StateDict() map[string]*tensor.RawTensor
}

// StateLoader is implemented by layers whose parameters can be replaced from
// an exported state dictionary.
type StateLoader interface {
	LoadStateDict(map[string]*tensor.RawTensor) error
}

// StateDictOf exports the parameters of an erased layer. It returns false
// when the wrapped layer has no parameters to export.
func StateDictOf[In, Out any](a AnyLayer[In, Out]) (map[string]*tensor.RawTensor, bool) {
	dicter, ok := a.Base().(StateDicter)
	if !ok {
		return nil, false
	}
	return dicter.StateDict(), true
}
