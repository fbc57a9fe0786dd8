package schedule

import "fmt"

// ScheduleError reports a cron expression that failed to parse.
type ScheduleError struct {
	Script     string
	Expression string
	Err        error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("script %q: invalid schedule %q: %v", e.Script, e.Expression, e.Err)
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}
