// Package pipeline provides the uniform transform contract and the
// pipeline runner that chains embedding-generation stages together.
package pipeline

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrInvalidArgument indicates that a stage was configured or invoked
	// with an out-of-range argument (e.g. a vocabulary size below 1).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingColumn indicates that a required named column is absent
	// from the input table.
	ErrMissingColumn = errors.New("missing required column")

	// ErrInvalidInput indicates that a stage received an input value of
	// an unsupported type or shape.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotFound indicates that a requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrFactorizationFailed indicates that a matrix factorization did not
	// converge or could not be computed for the given input.
	ErrFactorizationFailed = errors.New("factorization failed")

	// ErrTrainingFailed indicates that embedding training failed.
	ErrTrainingFailed = errors.New("embedding training failed")

	// ErrStorageOperation indicates that a storage operation failed.
	ErrStorageOperation = errors.New("storage operation failed")
)

// PipelineError wraps errors with the name of the stage or operation
// that produced them.
//
// Example:
//
//	err := &PipelineError{
//	    Op:  "vocabulary",
//	    Err: ErrInvalidArgument,
//	}
//	// Error() returns: "hidim: vocabulary: invalid argument"
type PipelineError struct {
	// Op is the name of the stage or operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "hidim: <Op>: <Err>"
func (e *PipelineError) Error() string {
	return fmt.Sprintf("hidim: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with PipelineError.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewPipelineError("serialize", err)
//	}
func NewPipelineError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PipelineError{
		Op:  op,
		Err: err,
	}
}
