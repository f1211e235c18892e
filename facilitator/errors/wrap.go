package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// WrapFacilitatorError wraps an error as a FacilitatorError if it isn't already one
func WrapFacilitatorError(err error, code ErrorCode, entity, message string) *FacilitatorError {
	if err == nil {
		return nil
	}

	var fErr *FacilitatorError
	if errors.As(err, &fErr) {
		fErr.WithContext("wrapped_message", message)
		if entity != "" && fErr.Entity == "" {
			fErr.Entity = entity
		}
		return fErr
	}

	return NewFacilitatorError(code, entity, message, err)
}

// Is checks if an error is of a specific type
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// As checks if an error can be assigned to a target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// HasCode checks if an error is a FacilitatorError with specific code
func HasCode(err error, code ErrorCode) bool {
	var fErr *FacilitatorError
	if errors.As(err, &fErr) {
		return fErr.Code == code
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var fErr *FacilitatorError
	if errors.As(err, &fErr) {
		return fErr.IsRetryable()
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"database is locked", "busy", "timeout", "temporary failure"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// ErrorGroup represents a collection of errors
type ErrorGroup struct {
	Errors []error
}

// NewErrorGroup creates a new error group
func NewErrorGroup() *ErrorGroup {
	return &ErrorGroup{
		Errors: make([]error, 0),
	}
}

// Add adds an error to the group
func (eg *ErrorGroup) Add(err error) {
	if err != nil {
		eg.Errors = append(eg.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (eg *ErrorGroup) HasErrors() bool {
	return len(eg.Errors) > 0
}

// ErrorOrNil returns the group as an error, or nil when it is empty.
func (eg *ErrorGroup) ErrorOrNil() error {
	if !eg.HasErrors() {
		return nil
	}
	return eg
}

// Error implements the error interface
func (eg *ErrorGroup) Error() string {
	if len(eg.Errors) == 0 {
		return ""
	}
	if len(eg.Errors) == 1 {
		return eg.Errors[0].Error()
	}
	msgs := make([]string, len(eg.Errors))
	for i, err := range eg.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors occurred: %s", len(eg.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the grouped errors to errors.Is and errors.As.
func (eg *ErrorGroup) Unwrap() []error {
	return eg.Errors
}
