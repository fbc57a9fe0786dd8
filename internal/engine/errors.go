package engine

import (
	"errors"
	"fmt"
)

// ReentrancyError is returned immediately when Run is called on a Program
// whose previous run has not settled. It is not a queueing mechanism; the
// caller decides whether to retry later or use a Clone.
type ReentrancyError struct {
	// Script is the name of the busy script.
	Script string
}

func (e *ReentrancyError) Error() string {
	return fmt.Sprintf("script %q is already running", e.Script)
}

// IsReentrancy reports whether err is a ReentrancyError, unwrapping as
// needed.
func IsReentrancy(err error) bool {
	var re *ReentrancyError
	return errors.As(err, &re)
}

// StepsExceededError is returned when a run processes more steps than its
// budget allows. It is treated as a runaway-loop fault and never retried by
// the engine.
type StepsExceededError struct {
	Script string // the offending script
	Steps  int    // steps processed when the budget tripped
	Limit  int    // the configured budget
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("script %q exceeded max steps: %d steps > %d limit",
		e.Script, e.Steps, e.Limit)
}

// IsStepsExceeded reports whether err is a StepsExceededError, unwrapping
// as needed.
func IsStepsExceeded(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
