//go:build cgo

package native

/*
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"log/slog"
	"unsafe"
)

// Malloc allocates with the C library's malloc and releases with free.
// Contents of fresh buffers are indeterminate.
type Malloc struct {
	logger *slog.Logger
}

// NewMalloc creates a C heap allocator.
func NewMalloc(opts ...Option) (*Malloc, error) {
	return &Malloc{logger: applyOptions(opts).logger}, nil
}

// Name implements Allocator.
func (m *Malloc) Name() string { return "malloc" }

// Zeroed implements Allocator.
func (m *Malloc) Zeroed() bool { return false }

// Alloc implements Allocator.
func (m *Malloc) Alloc(size int) (*Buffer, error) {
	if err := checkSize(m.Name(), size); err != nil {
		return nil, err
	}
	if size == 0 {
		return NewBuffer(nil, m.Name(), m.logger, nil), nil
	}
	ptr := C.malloc(C.size_t(size))
	if ptr == nil {
		return nil, fmt.Errorf("%s: out of memory allocating %d bytes", m.Name(), size)
	}
	m.logger.Debug("native buffer allocated", slog.String("allocator", m.Name()), slog.Int("bytes", size))
	//nolint:gosec // unsafe.Slice over a C allocation of exactly size bytes
	data := unsafe.Slice((*byte)(ptr), size)
	return NewBuffer(data, m.Name(), m.logger, cfree), nil
}

func cfree(data []byte) error {
	C.free(unsafe.Pointer(&data[0]))
	return nil
}
