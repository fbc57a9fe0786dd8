package transform

import (
	"errors"
	"fmt"
)

// OperationError is raised by the few operations defined to fail hard
// (substring, length, assert) and by malformed operation arguments. It
// aborts the whole chain and the enclosing step.
type OperationError struct {
	// Op is the operation name that failed.
	Op string

	// Message describes the failure.
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("transform %s: %s", e.Op, e.Message)
}

// UnknownFunctionError is raised when a template names an operation that is
// not registered.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q", e.Name)
}

// IsUnknownFunction reports whether err is an UnknownFunctionError,
// unwrapping as needed.
func IsUnknownFunction(err error) bool {
	var ue *UnknownFunctionError
	return errors.As(err, &ue)
}

func opErrf(op, format string, args ...any) *OperationError {
	return &OperationError{Op: op, Message: fmt.Sprintf(format, args...)}
}
