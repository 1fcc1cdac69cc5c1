package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind sentinels. Every domain error matches exactly one of them with errors.Is.
var (
	ErrValidation = stderrors.New("validation failed")
	ErrNotFound   = stderrors.New("not found")
	ErrConflict   = stderrors.New("conflict")
)

// FieldViolation is one failed constraint on one field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated constraint of an input, not just the first.
type ValidationError struct {
	Violations []FieldViolation
}

func NewValidationError() *ValidationError {
	return &ValidationError{}
}

// Invalid is a shortcut for a single-field ValidationError.
func Invalid(field, message string) *ValidationError {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: message})
}

func (e *ValidationError) HasViolations() bool {
	return e != nil && len(e.Violations) > 0
}

// OrNil returns nil when nothing was recorded so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if !e.HasViolations() {
		return nil
	}
	return e
}

// Fields returns violations keyed by field; multiple messages are joined.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		if prev, ok := fields[v.Field]; ok {
			fields[v.Field] = prev + "; " + v.Message
			continue
		}
		fields[v.Field] = v.Message
	}
	return fields
}

// Has reports whether field has at least one violation.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError reports a missing record. A NotFoundError without ID acts as
// a per-resource sentinel: errors.Is(NotFound("sale", 7), ErrSaleNotFound).
type NotFoundError struct {
	Resource string
	ID       interface{}
	Code     string
}

func NotFound(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id, Code: strings.ToUpper(resource) + "_NOT_FOUND"}
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	t, ok := target.(*NotFoundError)
	return ok && t.Resource == e.Resource && (t.ID == nil || t.ID == e.ID)
}

// ConflictError reports an operation rejected by the current state.
// Code identifies the rule; two ConflictErrors match when their codes match.
type ConflictError struct {
	Code    string
	Message string
}

func Conflict(code, message string) *ConflictError {
	return &ConflictError{Code: code, Message: message}
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Is(target error) bool {
	if target == ErrConflict {
		return true
	}
	t, ok := target.(*ConflictError)
	return ok && t.Code == e.Code
}

// Is and As re-export the standard helpers so callers importing this
// package as apperrors do not need both imports.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }
