package deli

import (
	"errors"
	"fmt"
)

// ErrorClass classifies an error for the orchestrator's handling policy.
type ErrorClass string

const (
	// ClassValidation indicates bad user input: unknown field, type
	// mismatch, enum violation, out-of-range value. Surfaced verbatim to
	// the operator and never retried.
	ClassValidation ErrorClass = "validation"

	// ClassReference indicates a composite resource references an
	// identifier that does not resolve or whose computed fields are not
	// ready. The orchestrator retries after satisfying the dependency.
	ClassReference ErrorClass = "reference"

	// ClassInconsistency indicates a packaging defect, e.g. the schema
	// permits an enum value the pricing table does not cover, or a Read
	// recomputation diverged from stored state. Not user-recoverable.
	ClassInconsistency ErrorClass = "inconsistency"
)

// Error is the structured error returned across the plugin boundary.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Kind is the resource kind the error relates to, if known.
	Kind Kind `json:"kind,omitempty"`

	// Field is the offending attribute for validation errors.
	Field string `json:"field,omitempty"`

	// Role is the reference role for reference errors.
	Role string `json:"role,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("[%s] %s (field=%s)", e.Class, e.Message, e.Field)
	} else if e.Role != "" {
		msg = fmt.Sprintf("[%s] %s (role=%s)", e.Class, e.Message, e.Role)
	}
	if e.Kind != "" {
		msg += fmt.Sprintf(" [kind=%s]", e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by class, so errors.Is(err, &Error{Class: ...}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// WithKind attaches a resource kind to the error.
func (e *Error) WithKind(kind Kind) *Error {
	e.Kind = kind
	return e
}

// NewValidationError creates a field-scoped user-input error. field may be
// empty for errors spanning the whole attribute set.
func NewValidationError(field, format string, args ...any) *Error {
	return &Error{
		Class:   ClassValidation,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewReferenceError creates a dependency-not-ready error for the given
// reference role.
func NewReferenceError(role, format string, args ...any) *Error {
	return &Error{
		Class:   ClassReference,
		Role:    role,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInconsistencyError creates an internal packaging-defect error.
func NewInconsistencyError(format string, args ...any) *Error {
	return &Error{
		Class:   ClassInconsistency,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidation reports whether err is classified as a validation error.
func IsValidation(err error) bool {
	return hasClass(err, ClassValidation)
}

// IsReference reports whether err is classified as a reference error.
func IsReference(err error) bool {
	return hasClass(err, ClassReference)
}

// IsInconsistency reports whether err is classified as a configuration
// inconsistency.
func IsInconsistency(err error) bool {
	return hasClass(err, ClassInconsistency)
}

func hasClass(err error, class ErrorClass) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}
