package prayer

import (
	"errors"
	"fmt"
)

var (
	// ErrInput covers invalid coordinates, dates, names and statuses.
	ErrInput = errors.New("invalid input")
	// ErrTimeValidation marks a time prayed that cannot fall inside the prayer's window.
	ErrTimeValidation = errors.New("time outside prayer window")
	// ErrCalculationUnavailable means prayer times could not be obtained.
	ErrCalculationUnavailable = errors.New("prayer times unavailable")
	// ErrPersistence wraps store write failures.
	ErrPersistence = errors.New("persistence failure")
	ErrNotFound    = errors.New("not found")
)

// TimeValidationError describes why a time prayed was rejected.
type TimeValidationError struct {
	Name      Name
	Time      Clock
	IsNextDay bool
	Reason    string
}

func (e *TimeValidationError) Error() string {
	when := e.Time.String()
	if e.IsNextDay {
		when += " (next day)"
	}
	return fmt.Sprintf("%s at %s: %s", e.Name, when, e.Reason)
}

func (e *TimeValidationError) Unwrap() error {
	return ErrTimeValidation
}
