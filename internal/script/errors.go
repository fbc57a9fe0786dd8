package script

import (
	"errors"
	"fmt"
)

// Definition error codes.
const (
	ErrCodeMissingName    = "MISSING_NAME"
	ErrCodeMissingSteps   = "MISSING_STEPS"
	ErrCodeInvalidStep    = "INVALID_STEP"
	ErrCodeDuplicateLabel = "DUPLICATE_LABEL"
	ErrCodeUnknownLabel   = "UNKNOWN_LABEL"
	ErrCodeSchema         = "SCHEMA_VIOLATION"
	ErrCodeParse          = "PARSE_ERROR"
)

// DefinitionError is raised when a script definition cannot be loaded or
// compiled: missing name or steps, malformed YAML, schema violations,
// duplicate labels, unresolvable jump targets. Definition errors are never
// retried; they surface to the caller of create/run unchanged.
type DefinitionError struct {
	// Code identifies the error category.
	Code string

	// Script is the script name, when known.
	Script string

	// Message is a human-readable description.
	Message string
}

func (e *DefinitionError) Error() string {
	if e.Script != "" {
		return fmt.Sprintf("%s: %s (script=%s)", e.Code, e.Message, e.Script)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDefinitionError reports whether err is a DefinitionError, unwrapping as
// needed.
func IsDefinitionError(err error) bool {
	var de *DefinitionError
	return errors.As(err, &de)
}

// NewDefinitionError creates a DefinitionError.
func NewDefinitionError(code, script, format string, args ...any) *DefinitionError {
	return &DefinitionError{Code: code, Script: script, Message: fmt.Sprintf(format, args...)}
}
