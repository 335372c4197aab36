package contact

import (
	"errors"
	"strings"
)

// ErrRateLimited rejects a submission before any side effect.
var ErrRateLimited = errors.New("too many requests, please try again later")

// ValidationError carries every violated rule for one submission.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, ". ")
}

// StorageError means the submission was not persisted and is lost.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "failed to store submission: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
