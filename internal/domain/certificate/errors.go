package certificate

import (
	"errors"
	"fmt"
	"strings"
)

// Field error codes
const (
	CodeUnknown  = "UNKNOWN_FIELD"
	CodeRequired = "REQUIRED"
	CodeInvalid  = "INVALID"
)

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError reports every field that failed the schema.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.String())
	}
	return "invalid certificate fields: " + strings.Join(parts, "; ")
}

// Fields returns the names of the rejected fields.
func (e *ValidationError) Fields() []string {
	names := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		names = append(names, fe.Field)
	}
	return names
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
