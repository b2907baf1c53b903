// Package apperrors defines the typed failures the deal engine returns to callers.
//
// Business errors (validation, not-found, tenant violation, vehicle availability,
// duplicate deal number, illegal state transition) are deterministic: the
// transaction manager never retries them. RetryExhaustedError wraps the last
// transient engine failure once the retry budget is spent.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError malformed caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// ResourceNotFoundError the referenced row does not exist in any tenant
type ResourceNotFoundError struct {
	Resource string
	ID       string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// MultiTenantViolationError the referenced row exists but belongs to another tenant.
// OwnerTenantID is kept for audit and is deliberately left out of Error().
type MultiTenantViolationError struct {
	Resource      string
	ID            string
	TenantID      string
	OwnerTenantID string
}

func (e *MultiTenantViolationError) Error() string {
	return fmt.Sprintf("%s %s does not belong to tenant %s", e.Resource, e.ID, e.TenantID)
}

// VehicleNotAvailableError the vehicle exists in the tenant but is not available
type VehicleNotAvailableError struct {
	VehicleID string
	Status    string
}

func (e *VehicleNotAvailableError) Error() string {
	return fmt.Sprintf("vehicle %s is not available (status=%s)", e.VehicleID, e.Status)
}

// DuplicateDealNumberError a deal number collided with an existing one in the tenant
type DuplicateDealNumberError struct {
	TenantID   string
	DealNumber string
}

func (e *DuplicateDealNumberError) Error() string {
	return fmt.Sprintf("duplicate deal number %s for tenant %s", e.DealNumber, e.TenantID)
}

// StateTransitionError a deal cannot move between the given states
type StateTransitionError struct {
	DealID string
	From   string
	To     string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("deal %s cannot transition from %s to %s", e.DealID, e.From, e.To)
}

// RetryExhaustedError a transient failure persisted past the retry budget
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("transaction failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// Kind coarse classification for callers and audit records
type Kind string

const (
	KindNone            Kind = ""
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindTenantViolation Kind = "tenant_violation"
	KindConflict        Kind = "conflict"
	KindTransient       Kind = "transient"
	KindInternal        Kind = "internal"
)

// KindOf maps err to its Kind. nil maps to KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		validationErr *ValidationError
		notFoundErr   *ResourceNotFoundError
		tenantErr     *MultiTenantViolationError
		vehicleErr    *VehicleNotAvailableError
		duplicateErr  *DuplicateDealNumberError
		transitionErr *StateTransitionError
		exhaustedErr  *RetryExhaustedError
	)
	switch {
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &notFoundErr):
		return KindNotFound
	case errors.As(err, &tenantErr):
		return KindTenantViolation
	case errors.As(err, &vehicleErr), errors.As(err, &transitionErr):
		return KindConflict
	case errors.As(err, &duplicateErr):
		return KindInternal
	case errors.As(err, &exhaustedErr):
		return KindTransient
	default:
		return KindInternal
	}
}

// IsBusiness reports whether err is a deterministic business failure that must not be retried
func IsBusiness(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindNotFound, KindTenantViolation, KindConflict:
		return true
	}
	var duplicateErr *DuplicateDealNumberError
	return errors.As(err, &duplicateErr)
}

// Validation is a shorthand constructor
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound is a shorthand constructor
func NotFound(resource, id string) error {
	return &ResourceNotFoundError{Resource: resource, ID: id}
}
