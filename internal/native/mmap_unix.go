//go:build unix

package native

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// Mmap allocates anonymous private mappings. Pages come back zeroed from
// the kernel and live outside the Go heap.
type Mmap struct {
	logger *slog.Logger
}

// NewMmap creates an mmap allocator.
func NewMmap(opts ...Option) (*Mmap, error) {
	return &Mmap{logger: applyOptions(opts).logger}, nil
}

// Name implements Allocator.
func (m *Mmap) Name() string { return "mmap" }

// Zeroed implements Allocator.
func (m *Mmap) Zeroed() bool { return true }

// Alloc implements Allocator.
func (m *Mmap) Alloc(size int) (*Buffer, error) {
	if err := checkSize(m.Name(), size); err != nil {
		return nil, err
	}
	if size == 0 {
		return NewBuffer(nil, m.Name(), m.logger, nil), nil
	}
	data, err := mapAnon(size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}
	m.logger.Debug("native buffer allocated", slog.String("allocator", m.Name()), slog.Int("bytes", size))
	return NewBuffer(data, m.Name(), m.logger, unmap), nil
}

// mapAnon maps size bytes of anonymous read-write memory.
func mapAnon(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func unmap(data []byte) error {
	return unix.Munmap(data)
}

// Default returns the preferred allocator for this platform.
func Default(opts ...Option) Allocator {
	m, _ := NewMmap(opts...)
	return m
}
