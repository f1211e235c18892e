package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents different categories of errors
type ErrorCode string

const (
	// ErrCodeValidation indicates input validation errors
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeParse indicates a raw event record could not be decoded
	ErrCodeParse ErrorCode = "PARSE"

	// ErrCodeDatabase indicates database operation errors
	ErrCodeDatabase ErrorCode = "DATABASE"

	// ErrCodeNonMonotonic indicates an update that does not advance a monotonic field
	ErrCodeNonMonotonic ErrorCode = "NON_MONOTONIC"

	// ErrCodeInvariant indicates a status transition outside the message lattice
	ErrCodeInvariant ErrorCode = "INVARIANT"

	// ErrCodeUniqueness indicates a duplicate primary key on create
	ErrCodeUniqueness ErrorCode = "UNIQUENESS"

	// ErrCodeConfig indicates configuration errors
	ErrCodeConfig ErrorCode = "CONFIG"

	// ErrCodeInternal indicates internal system errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// Sentinels matched through errors.Is against any FacilitatorError of the same code.
var (
	ErrNonMonotonicUpdate  = errors.New("non-monotonic update")
	ErrInvariantViolation  = errors.New("invariant violation")
	ErrUniquenessViolation = errors.New("uniqueness violation")
	ErrParse               = errors.New("parse error")
)

var sentinelCodes = map[error]ErrorCode{
	ErrNonMonotonicUpdate:  ErrCodeNonMonotonic,
	ErrInvariantViolation:  ErrCodeInvariant,
	ErrUniquenessViolation: ErrCodeUniqueness,
	ErrParse:               ErrCodeParse,
}

// FacilitatorError is an error raised by the repositories or handlers.
// Entity names the entity type (or event kind) the error concerns.
type FacilitatorError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Entity   string                 `json:"entity,omitempty"`
	Severity Severity               `json:"severity"`
	Cause    error                  `json:"-"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

// NewFacilitatorError creates a new FacilitatorError
func NewFacilitatorError(code ErrorCode, entity, message string, cause error) *FacilitatorError {
	return &FacilitatorError{
		Code:     code,
		Message:  message,
		Entity:   entity,
		Severity: determineSeverity(code),
		Cause:    cause,
		Context:  make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *FacilitatorError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Entity != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Entity, e.Code, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause
func (e *FacilitatorError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's code.
func (e *FacilitatorError) Is(target error) bool {
	code, ok := sentinelCodes[target]
	return ok && code == e.Code
}

// WithContext adds context to the error
func (e *FacilitatorError) WithContext(key string, value interface{}) *FacilitatorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity overrides the default severity
func (e *FacilitatorError) WithSeverity(severity Severity) *FacilitatorError {
	e.Severity = severity
	return e
}

// IsRetryable returns true if the error is retryable
func (e *FacilitatorError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeDatabase:
		return e.Severity != SeverityCritical
	default:
		return false
	}
}

func determineSeverity(code ErrorCode) Severity {
	switch code {
	case ErrCodeInternal:
		return SeverityCritical
	case ErrCodeDatabase, ErrCodeInvariant:
		return SeverityHigh
	case ErrCodeNonMonotonic, ErrCodeParse:
		return SeverityMedium
	case ErrCodeValidation, ErrCodeConfig, ErrCodeUniqueness:
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// NewValidationError creates a validation error
func NewValidationError(entity, message string) *FacilitatorError {
	return NewFacilitatorError(ErrCodeValidation, entity, message, nil)
}

// NewParseError reports a raw record that is missing or has a malformed field.
func NewParseError(kind, field, message string) *FacilitatorError {
	return NewFacilitatorError(ErrCodeParse, kind, fmt.Sprintf("field %q: %s", field, message), nil).
		WithContext("field", field)
}

// NewDatabaseError creates a database error
func NewDatabaseError(entity, message string, cause error) *FacilitatorError {
	return NewFacilitatorError(ErrCodeDatabase, entity, message, cause)
}

// NewNonMonotonicUpdateError reports an update that would not strictly advance field.
func NewNonMonotonicUpdateError(entity, key, field string, stored, proposed uint64) *FacilitatorError {
	return NewFacilitatorError(ErrCodeNonMonotonic, entity,
		fmt.Sprintf("%s %s: %s %d does not advance stored %d", entity, key, field, proposed, stored), nil).
		WithContext("key", key).
		WithContext("stored", stored).
		WithContext("proposed", proposed)
}

// NewInvariantViolationError reports a status transition the lattice does not allow.
func NewInvariantViolationError(entity, key, field, from, to string) *FacilitatorError {
	return NewFacilitatorError(ErrCodeInvariant, entity,
		fmt.Sprintf("%s %s: %s cannot move from %s to %s", entity, key, field, from, to), nil).
		WithContext("key", key).
		WithContext("from", from).
		WithContext("to", to)
}

// NewUniquenessViolationError reports a create for a key that already exists.
func NewUniquenessViolationError(entity, key string) *FacilitatorError {
	return NewFacilitatorError(ErrCodeUniqueness, entity,
		fmt.Sprintf("%s %s already exists", entity, key), nil).
		WithContext("key", key)
}

// NewConfigError creates a configuration error
func NewConfigError(message string) *FacilitatorError {
	return NewFacilitatorError(ErrCodeConfig, "", message, nil)
}

// NewInternalError creates an internal error
func NewInternalError(entity, message string, cause error) *FacilitatorError {
	return NewFacilitatorError(ErrCodeInternal, entity, message, cause)
}
