package chat

import (
	"errors"
	"fmt"
)

// Domain errors. These are expected outcomes and are mapped to status codes
// by the transport layer.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrEmptyContent    = errors.New("empty message")
	ErrMessageNotFound = errors.New("message not found")
	ErrForbidden       = errors.New("only the author may change this message")
	ErrUserNotFound    = errors.New("user not found")
	ErrEmptyUsername   = errors.New("username is required")
	ErrInvalidUsername = errors.New("username must be 2 to 20 characters")
	ErrUsernameTaken   = errors.New("username is already taken")
	ErrStorage         = errors.New("storage failure")
)

// StorageError reports a fault in the persistence layer. Any partial write
// has been rolled back by the time it is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// NewStorageError wraps err unless it is nil or already a domain error.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) || IsDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsDomainError reports whether err is one of the expected chat outcomes.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrEmptyUsername) ||
		errors.Is(err, ErrInvalidUsername) ||
		errors.Is(err, ErrUsernameTaken)
}
