/*
errors.go - Error taxonomy for the payment engine

ERROR CATEGORIES:
  ValidationError    missing or malformed input            -> 400
  NotFoundError      unknown payment/lease/landlord         -> 404
  AuthorizationError lease ownership mismatch, cron secret  -> 401/403
  ConflictError      optimistic version mismatch            -> 409
  PolicyError        penalty on a payment not yet due       -> 400
  DependencyError    notification sink failure              -> never fatal

USAGE:
  Structured errors unwrap to a sentinel so callers can branch with
  errors.Is without caring about the details:

    if errors.Is(err, payments.ErrConflict) {
        // reload and retry
    }

SEE ALSO:
  - api/handlers.go: statusFor maps these to HTTP codes
*/
package payments

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("concurrent modification detected")
	ErrPolicy       = errors.New("policy violation")
	ErrDependency   = errors.New("dependency failed")

	// ErrNotOverdue is returned when a penalty is requested for a payment
	// whose due date has not passed.
	ErrNotOverdue = fmt.Errorf("%w: payment is not overdue", ErrPolicy)
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for a field-level ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Kind string // "payment", "lease", "landlord", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AuthorizationError is a 403 when Forbidden is set, 401 otherwise.
type AuthorizationError struct {
	Reason    string
	Forbidden bool
}

func (e *AuthorizationError) Error() string { return e.Reason }

func (e *AuthorizationError) Unwrap() error {
	if e.Forbidden {
		return ErrForbidden
	}
	return ErrUnauthorized
}

type ConflictError struct {
	PaymentID       string
	ExpectedVersion int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("payment %s was modified concurrently (expected version %d)",
		e.PaymentID, e.ExpectedVersion)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

type PolicyError struct {
	PaymentID   string
	DaysOverdue int
	Err         error
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("payment %s: %v (days overdue: %d)", e.PaymentID, e.Err, e.DaysOverdue)
}

func (e *PolicyError) Unwrap() error { return e.Err }

// DependencyError wraps a NotificationSink failure. It is reported
// alongside a successful mutation, never instead of one.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() []error { return []error{ErrDependency, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrPolicy)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool { return errors.Is(err, ErrConflict) }
