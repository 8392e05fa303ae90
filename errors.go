package crudl

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors.
var (
	// ErrRequired is reported when a required argument is missing.
	ErrRequired = errors.New("is required")

	// ErrForbidden is reported when a forbidden argument is present.
	ErrForbidden = errors.New("is not allowed")

	// ErrUnknownField is reported when an argument is not declared.
	ErrUnknownField = errors.New("is not a declared field")

	// ErrPipelineFrozen is returned when steps are registered on a pipeline
	// that was already mounted into a schema.
	ErrPipelineFrozen = errors.New("crudl: pipeline is frozen")

	// ErrNextCalledTwice is returned when a step invokes next more than once.
	ErrNextCalledTwice = errors.New("crudl: next called multiple times")

	// ErrNoCollection is returned by the persistence steps when the
	// operation is not bound to a store.
	ErrNoCollection = errors.New("crudl: no collection bound")
)

// ValidationError represents a validation error for an argument value.
type ValidationError struct {
	Name string // Argument path, e.g. "user.email"
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("crudl: validator failed for field %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is or wraps a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "crudl: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("crudl: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors, so errors.Is and errors.As look
// into each of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil. A single error is returned as is.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// InvalidOperationError is returned for unknown operation names or
// operation values that do not denote a single operation.
type InvalidOperationError struct {
	Name string
	Op   Op
}

// Error returns the error string.
func (e *InvalidOperationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("crudl: invalid operation %q", e.Name)
	}
	return fmt.Sprintf("crudl: invalid operation %s", e.Op)
}

// IsInvalidOperation returns true if the error is an InvalidOperationError.
func IsInvalidOperation(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidOperationError
	return errors.As(err, &e)
}

// DeclarationError is reported at setup time for a malformed field
// declaration.
type DeclarationError struct {
	Field string
	Err   error
}

// Error returns the error string.
func (e *DeclarationError) Error() string {
	return fmt.Sprintf("crudl: field %q: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeclarationError) Unwrap() error {
	return e.Err
}

// IsDeclarationError returns true if the error is a DeclarationError.
func IsDeclarationError(err error) bool {
	if err == nil {
		return false
	}
	var e *DeclarationError
	return errors.As(err, &e)
}

// NamingConflictError is returned when two operations are mounted under
// the same name in a schema namespace.
type NamingConflictError struct {
	Namespace string // "query" or "mutation"
	Name      string
}

// Error returns the error string.
func (e *NamingConflictError) Error() string {
	return fmt.Sprintf("crudl: %s %q is already defined", e.Namespace, e.Name)
}

// IsNamingConflict returns true if the error is a NamingConflictError.
func IsNamingConflict(err error) bool {
	if err == nil {
		return false
	}
	var e *NamingConflictError
	return errors.As(err, &e)
}

// PrivacyError represents a privacy policy violation.
type PrivacyError struct {
	Entity string // Model or definition name
	Op     Op     // Operation being executed
	Err    error  // Deny decision
}

// Error returns the error string.
func (e *PrivacyError) Error() string {
	return fmt.Sprintf("crudl: privacy denied %s on %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the deny decision.
func (e *PrivacyError) Unwrap() error {
	return e.Err
}

// NewPrivacyError returns a new PrivacyError.
func NewPrivacyError(entity string, op Op, err error) *PrivacyError {
	return &PrivacyError{Entity: entity, Op: op, Err: err}
}

// IsPrivacyError returns true if the error is a PrivacyError.
func IsPrivacyError(err error) bool {
	if err == nil {
		return false
	}
	var e *PrivacyError
	return errors.As(err, &e)
}

// NotFoundError is returned when a document expected to exist is missing.
type NotFoundError struct {
	Collection string
	ID         string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("crudl: %s %q not found", e.Collection, e.ID)
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e)
}
