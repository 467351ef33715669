// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input provided")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientItems    = errors.New("insufficient item quantity")
	ErrDuplicateEntry       = errors.New("duplicate entry") // For cases like creating an account that already exists
	ErrStorageBusy          = errors.New("storage busy")
	ErrStorageBusyExhausted = errors.New("storage busy: retries exhausted")
	ErrLockTimeout          = errors.New("lock wait abandoned")
)
