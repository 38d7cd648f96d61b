package tensor

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrArity         = errors.New("index arity does not match tensor dimensionality")
	ErrOutOfBounds   = errors.New("index out of bounds")
	ErrShapeMismatch = errors.New("shape does not fit storage")
	ErrReleased      = errors.New("storage already released")
	ErrInvalidShape  = errors.New("invalid shape")
	ErrMisaligned    = errors.New("buffer is not aligned for element type")
)

// IndexKind classifies an IndexError.
type IndexKind int

// Index error kinds.
const (
	KindArity IndexKind = iota
	KindBounds
)

// IndexError describes a rejected index.
type IndexError struct {
	Kind IndexKind

	// Arity errors.
	Arity int // Number of coordinates supplied
	Want  int // Tensor dimensionality

	// Bounds errors. Dim is -1 for flat storage offsets.
	Dim    int
	Index  int
	Extent int
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if e.Kind == KindArity {
		return fmt.Sprintf("%s: got %d indices, tensor has %d dimensions", ErrArity, e.Arity, e.Want)
	}
	if e.Dim < 0 {
		return fmt.Sprintf("%s: offset %d, storage length %d", ErrOutOfBounds, e.Index, e.Extent)
	}
	return fmt.Sprintf("%s: index %d for dimension %d (size %d)", ErrOutOfBounds, e.Index, e.Dim, e.Extent)
}

// Unwrap returns the sentinel matching the error kind.
func (e *IndexError) Unwrap() error {
	if e.Kind == KindArity {
		return ErrArity
	}
	return ErrOutOfBounds
}
