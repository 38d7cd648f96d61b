package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrClosed            = errors.New("reader is closed")
	ErrNotFound          = errors.New("tensor not found")
	ErrDTypeMismatch     = errors.New("dtype mismatch")
	ErrUnsupportedDType  = errors.New("unsupported dtype")
	ErrOffsetOverlap     = errors.New("tensor offsets overlap")
	ErrOutOfBounds       = errors.New("tensor extends beyond data section")
	ErrSizeMismatch      = errors.New("byte range does not match shape")
	ErrInvalidTensorName = errors.New("invalid tensor name")
	ErrHeaderTooLarge    = errors.New("header exceeds maximum size")
	ErrFileTooSmall      = errors.New("file too small")
	ErrViewsLive         = errors.New("views still reference the mapping")
	ErrChecksumMismatch  = errors.New("checksum mismatch: file may be corrupted")
)

// ValidationError provides detailed information about header validation
// failures. It unwraps to one of the sentinels above.
type ValidationError struct {
	Err     error  // Sentinel classifying the failure
	Tensor  string // Primary tensor name involved
	Tensor2 string // Secondary tensor name (for overlap errors)
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("%v: tensors %q and %q: %s", e.Err, e.Tensor, e.Tensor2, e.Details)
	}
	if e.Tensor != "" {
		return fmt.Sprintf("%v: tensor %q: %s", e.Err, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Details)
}

// Unwrap returns the classifying sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
