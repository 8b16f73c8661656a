package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Checkout / entitlement errors
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidTransition = errors.New("payment request already decided")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCourseIsFree      = errors.New("course is free")
	ErrCourseNotFree     = errors.New("course is not free")
	ErrAlreadyOwned      = errors.New("course already owned")
	ErrAlreadyEnrolled   = errors.New("already enrolled in course")
	ErrCheckoutInFlight  = errors.New("checkout already in progress")
	ErrRateLimited       = errors.New("too many requests")
	ErrLockHeld          = errors.New("lock held by another holder")
	ErrRequestPending    = errors.New("a payment request for this item is already pending")

	// ErrStorage marks failures of the persistence layer. They are retryable.
	ErrStorage = errors.New("storage failure")
)

// StorageError wraps a persistence failure so that it matches ErrStorage while
// still unwrapping to the underlying driver error.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
