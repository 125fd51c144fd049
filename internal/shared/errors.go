package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates the caller supplied a malformed or out-of-range value.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate indicates a uniqueness violation (e.g. email already registered).
	ErrDuplicate = errors.New("duplicate entry")
	// ErrTxConflict indicates the storage layer detected a concurrent-modification
	// conflict. The whole operation is safe to retry from scratch.
	ErrTxConflict = errors.New("transaction conflict")
)
