package service

import (
	"fmt"
	"time"
)

// ValidationError reports malformed input or an unmet business precondition.
// Surfaced to the user with actionable text; never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ErrDepositRequired gates scheduling when the company requires a recorded
// deposit first. A ValidationError so handlers classify it as such, but also
// matchable with errors.Is for its specific message path.
var ErrDepositRequired = &ValidationError{
	Reason: "deposit required before scheduling; record a deposit on the quote or invoice first",
}

// ConflictError reports that the commit-time re-check found an overlapping
// booking. The caller must refresh availability before retrying.
type ConflictError struct {
	TechnicianID string
	BookingTitle string
	Start        time.Time
	End          time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("technician %s is already booked from %s to %s",
		e.TechnicianID, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}
