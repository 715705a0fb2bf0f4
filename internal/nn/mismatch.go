package nn

import (
	"fmt"
)

// TypeMismatchError reports a type-identity violation of the erasure
// contract: a tangent or layer of one concrete type was applied where a
// different bound type was required.
//
// It is thrown as a panic (see package exceptions), never returned: such a
// mismatch is a programming defect (gradient flowing into the wrong layer
// instance), not a recoverable runtime condition. Callers that cannot
// statically guarantee type agreement must use the optional unboxing
// queries instead.
type TypeMismatchError struct {
	Op       string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: type mismatch: expected %s, got %s", e.Op, e.Expected, e.Actual)
}

// throwMismatch aborts the current operation with a TypeMismatchError.
func throwMismatch(op, expected, actual string) {
	panic(TypeMismatchError{Op: op, Expected: expected, Actual: actual})
}

// typeNameOf names a value's dynamic type for mismatch diagnostics.
func typeNameOf(v any) string {
	return fmt.Sprintf("%T", v)
}
