// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds. Every engine operation fails with exactly one of the four
// kinds below so the transport layer can map errors to externally visible codes
// with errors.Is().
var (
	// ErrValidation - malformed or out-of-range input (negative XP, rating outside [1,5]).
	ErrValidation = errors.New("validation error")

	// ErrNotFound - a referenced user/course/module/gig/application/badge is absent.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict - an invariant would be violated: duplicate application,
	// attempt limit exceeded, badge already earned, concurrent-acceptance race lost.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState - the operation is invalid for the current lifecycle state,
	// e.g. completing a gig that is not in progress.
	ErrInvalidState = errors.New("invalid state")
)

// Secondary sentinels layered on the base kinds.
var (
	// ErrOptimisticLock - a compare-and-swap write lost to a concurrent writer.
	// The caller decides whether to retry with fresh state; the engine never does.
	ErrOptimisticLock = fmt.Errorf("optimistic lock failure: %w", ErrConflict)

	// ErrExpired - a time-bounded entity is past its deadline.
	ErrExpired = fmt.Errorf("expired: %w", ErrInvalidState)
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g. "progression", "badge", "course", "gig"
	Op      string // operation that failed, e.g. "AwardXP", "AddApplication"
	Kind    error  // base kind for errors.Is() checking
	Message string // human-readable message
	Err     error  // underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both the kind and the cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Validationf builds a validation-kind domain error from a format string.
func Validationf(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrValidation, fmt.Sprintf(format, args...))
}

// Conflictf builds a conflict-kind domain error from a format string.
func Conflictf(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrConflict, fmt.Sprintf(format, args...))
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidState checks if the error is a lifecycle-state error.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
