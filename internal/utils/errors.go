package utils

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError represents an error occurring during request decoding,
// before any engine parameters exist.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidParameterError reports a numeric parameter that violates its
// constraint. It is returned before any simulation work is done.
type InvalidParameterError struct {
	Field   string
	Message string
}

// Error returns the error message string.
func (e *InvalidParameterError) Error() string {
	return e.Message
}

// NewInvalidParameter creates an InvalidParameterError for field.
func NewInvalidParameter(field, message string) error {
	return &InvalidParameterError{Field: field, Message: message}
}

// NewInvalidParameterf creates an InvalidParameterError with a formatted message.
func NewInvalidParameterf(field, format string, args ...interface{}) error {
	return &InvalidParameterError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConfigLookupError reports an identifier with no configured model and
// not enough overrides to stand in for one.
type ConfigLookupError struct {
	Identifier string
}

// Error returns the error message string.
func (e *ConfigLookupError) Error() string {
	return fmt.Sprintf("No model config found for stock identifier: %s", e.Identifier)
}

// NewConfigLookupError creates a ConfigLookupError for identifier.
func NewConfigLookupError(identifier string) error {
	return &ConfigLookupError{Identifier: identifier}
}

// NonFiniteResultError reports a computation whose inputs were valid but
// whose output overflowed to Inf or NaN.
type NonFiniteResultError struct {
	Field string
	Index int
	Value float64
}

// Error returns the error message string.
func (e *NonFiniteResultError) Error() string {
	return fmt.Sprintf("Result %s[%d] is not a finite number (%v); reduce the drift, rate or horizon", e.Field, e.Index, e.Value)
}

// RequireFinite returns an InvalidParameterError unless v is a finite number.
func RequireFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NewInvalidParameterf(field, "Parameter %s must be a finite number. Got %v", field, v)
	}
	return nil
}

// CheckFiniteResult returns a NonFiniteResultError for the first value in
// values that is Inf or NaN.
func CheckFiniteResult(field string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &NonFiniteResultError{Field: field, Index: i, Value: v}
		}
	}
	return nil
}

// IsInvalidParameter reports whether err wraps an InvalidParameterError.
func IsInvalidParameter(err error) bool {
	var target *InvalidParameterError
	return errors.As(err, &target)
}

// IsConfigLookupFailure reports whether err wraps a ConfigLookupError.
func IsConfigLookupFailure(err error) bool {
	var target *ConfigLookupError
	return errors.As(err, &target)
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNonFiniteResult reports whether err wraps a NonFiniteResultError.
func IsNonFiniteResult(err error) bool {
	var target *NonFiniteResultError
	return errors.As(err, &target)
}

// IsClientError reports whether err is caused by the caller's input.
// Non-finite results are deterministic in the inputs, so they count too.
func IsClientError(err error) bool {
	return IsInvalidParameter(err) || IsConfigLookupFailure(err) || IsValidationError(err) || IsNonFiniteResult(err)
}
