//go:build !unix

package native

import "fmt"

// Mmap is unavailable off unix; NewMmap reports ErrUnavailable.
type Mmap struct{ Heap }

// NewMmap reports ErrUnavailable on this platform.
func NewMmap(_ ...Option) (*Mmap, error) {
	return nil, fmt.Errorf("mmap: %w", ErrUnavailable)
}

func mapAnon(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func unmap(_ []byte) error { return nil }

// Default returns the preferred allocator for this platform.
func Default(opts ...Option) Allocator {
	return NewHeap(opts...)
}
