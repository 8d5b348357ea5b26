// Package services defines the business logic for natal charts and the coin
// economy around them. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Validation errors. All of them wrap ErrValidation so handlers can map the
// whole family to 422 with a single errors.Is check.
var (
	// ErrValidation is the parent of every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when birth_date or birth_time do not match
	// YYYY-MM-DD / HH:MM.
	ErrInvalidFormat = fmt.Errorf("%w: invalid date or time format", ErrValidation)

	// ErrInvalidTimezone is returned for an unknown IANA zone name.
	ErrInvalidTimezone = fmt.Errorf("%w: invalid timezone", ErrValidation)

	// ErrAmbiguousLocalTime is returned when the local wall clock falls in a
	// DST gap or fold and does not map to exactly one instant.
	ErrAmbiguousLocalTime = fmt.Errorf("%w: local time is ambiguous or does not exist", ErrValidation)

	// ErrCoordinatesOutOfRange is returned for latitude outside [-90,90] or
	// longitude outside [-180,180].
	ErrCoordinatesOutOfRange = fmt.Errorf("%w: coordinates out of range", ErrValidation)

	// ErrInvalidLanguage is returned for a language other than en or zh.
	ErrInvalidLanguage = errors.New("invalid language code")

	// ErrInvalidAmount is returned for non-positive coin amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrEmptyUsername is returned when creating a user without a name.
	ErrEmptyUsername = errors.New("username is required")

	// ErrInvalidSource is returned for a blank or overlong balance source.
	ErrInvalidSource = errors.New("invalid balance source")

	// ErrInvalidReading is returned for a reading without a spread type or
	// with cards that are not a JSON array.
	ErrInvalidReading = errors.New("spread_type and a JSON array of cards are required")

	// ErrInvalidDateRange is returned when a summary window ends before it
	// starts.
	ErrInvalidDateRange = errors.New("end date is before start date")
)

// Lookup errors.
var (
	// ErrChartNotFound indicates that the requested chart does not exist.
	ErrChartNotFound = errors.New("chart not found")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrProductNotFound indicates that the requested product does not exist.
	ErrProductNotFound = errors.New("product not found")
)

// Business rule errors.
var (
	// ErrInsufficientBalance is returned when a debit would take the balance
	// below zero. No state changes when it is returned.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAlreadyOwned is returned when purchasing a product the user owns.
	ErrAlreadyOwned = errors.New("user already owns this product")
)

// ComputationError wraps a failure of the astronomy or solar-time math. It
// is a server-side error and retrying the same input will fail again.
type ComputationError struct {
	Stage string
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed (%s): %v", e.Stage, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// IsComputation reports whether err is or wraps a *ComputationError.
func IsComputation(err error) bool {
	var ce *ComputationError
	return errors.As(err, &ce)
}
