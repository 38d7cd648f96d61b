//go:build !cgo

package native

import "fmt"

// Malloc needs cgo; without it NewMalloc reports ErrUnavailable.
type Malloc struct{ Heap }

// NewMalloc reports ErrUnavailable in builds without cgo.
func NewMalloc(_ ...Option) (*Malloc, error) {
	return nil, fmt.Errorf("malloc: %w (built without cgo)", ErrUnavailable)
}
