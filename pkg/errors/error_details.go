package errors

import "fmt"

// ErrorDetails is an error carrying a machine-readable code and the field
// or operation that produced it.
type ErrorDetails struct {
	Message string
	Code    string
	Field   string
}

// NewErrorDetails creates a new ErrorDetails.
func NewErrorDetails(message, code, field string) *ErrorDetails {
	return &ErrorDetails{
		Message: message,
		Code:    code,
		Field:   field,
	}
}

// Error implements the error interface.
func (e *ErrorDetails) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
}
