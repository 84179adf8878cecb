package country

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup matches no record
var ErrNotFound = errors.New("country not found")

// ValidationError reports a malformed or missing field
type ValidationError struct {
	Field   string // Field key, empty when the error is not tied to one field
	Value   string // Offending raw value
	Message string // Human-readable reason
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// RangeError reports a range whose lower bound is above its upper bound
type RangeError struct {
	Field string
	Min   string
	Max   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s range: minimum %s is greater than maximum %s", e.Field, e.Min, e.Max)
}

// IsValidation reports whether err carries a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRange reports whether err carries a RangeError
func IsRange(err error) bool {
	var re *RangeError
	return errors.As(err, &re)
}
