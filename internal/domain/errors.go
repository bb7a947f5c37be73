package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrEditConflict        = errors.New("edit conflict")
	ErrValidation          = errors.New("validation failed")
	ErrSeatUnavailable     = errors.New("seat(s) are not available")
	ErrHoldExpired         = errors.New("your hold has expired, please select your seats again")
	ErrHoldReleased        = errors.New("hold has already been released")
	ErrShowNotBookable     = errors.New("show is not open for booking")
	ErrTransientDependency = errors.New("dependency temporarily unavailable")
)

// ValidationError rejects malformed input before any state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SeatUnavailableError lists every requested seat that was not free.
type SeatUnavailableError struct {
	Seats []string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat(s) are not available: %s", strings.Join(e.Seats, ", "))
}

func (e *SeatUnavailableError) Is(target error) bool {
	return target == ErrSeatUnavailable
}
