package performance

import (
	"errors"
	"fmt"
)

var (
	ErrCycleNotFound    = errors.New("performance cycle not found")
	ErrNoActiveCycle    = errors.New("no active performance cycle")
	ErrCycleClosed      = errors.New("performance cycle is closed")
	ErrCycleAlreadyDone = errors.New("performance cycle already closed")
	ErrReviewNotFound   = errors.New("performance review not found")
	ErrSummaryNotFound  = errors.New("performance summary not found")
	ErrMonthFull        = errors.New("review cap reached for employee and month")
)

// ValidationError rejects a payload before any persistence happens.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
