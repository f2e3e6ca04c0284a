package domain

import "errors"

// Store-level error kinds shared by every repository implementation.
// Wrap them with fmt.Errorf("%w") and check with errors.Is.
var (
	// ErrValidation indicates a required field is missing or malformed.
	// Raised before the store is touched.
	ErrValidation = errors.New("validation failed")

	// ErrOperation indicates the store rejected a write.
	ErrOperation = errors.New("store operation failed")

	// ErrDuplicateKey indicates a unique key already exists.
	// Always returned together with ErrOperation.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrCascadeIncomplete indicates a user was deleted but its sessions
	// were not. Only returned when deletes run outside a transaction.
	ErrCascadeIncomplete = errors.New("cascade incomplete")
)
