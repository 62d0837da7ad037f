package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError is an error created from a recovered panic. Gonum factorizations
// panic on ill-conditioned input; estimators convert that into an error the
// pipeline can report.
type PanicError struct {
	PanicValue interface{}
	StackTrace string
	Operation  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String includes the captured stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a PanicError capturing the current stack.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover converts a panic into an error. Use with defer and a pointer to the
// named error return:
//
//	func (p *PCA) Fit(X mat.Matrix) (err error) {
//	    defer errors.Recover(&err, "PCA.Fit")
//	    ...
//	}
func Recover(errPtr *error, operation string) {
	if r := recover(); r != nil {
		*errPtr = WithStack(NewPanicError(operation, r))
	}
}
