// Package native is the allocation boundary between tensor storage and the
// memory it lives in.
//
// An Allocator hands out Buffers: raw byte regions that are owned by some
// routine outside the Go heap (mmap, C malloc, a WebGPU mapping) or by the
// Go heap itself. A Buffer releases its region exactly once, through an
// explicit Free. Buffers the garbage collector finds unreachable before
// Free are logged as leaks and never released.
package native

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// Common errors.
var (
	ErrNegativeSize   = errors.New("native: negative allocation size")
	ErrFreed          = errors.New("native: buffer already freed")
	ErrArenaExhausted = errors.New("native: arena exhausted")
	ErrUnavailable    = errors.New("native: allocator not available on this platform")
)

// Allocator allocates native buffers.
type Allocator interface {
	// Name identifies the allocator in logs and CLI flags.
	Name() string

	// Alloc returns a buffer of exactly size bytes.
	Alloc(size int) (*Buffer, error)

	// Zeroed reports whether fresh buffers are guaranteed to read as zero.
	Zeroed() bool
}

// ReleaseFunc returns a region to whoever allocated it.
type ReleaseFunc func(data []byte) error

// Buffer is an owning handle to a native byte region.
type Buffer struct {
	data    []byte
	release ReleaseFunc
	owner   string
	logger  *slog.Logger

	once    sync.Once
	freeErr error
	freed   bool
	mu      sync.Mutex

	cleanup runtime.Cleanup
}

// leakReport is what the GC cleanup logs for a buffer dropped without
// Free. It must not reference the Buffer itself.
type leakReport struct {
	owner  string
	bytes  int
	logger *slog.Logger
}

// NewBuffer wraps data owned by an allocator. release may be nil for
// regions that need no explicit release (Go heap, arena slices).
//
// Free is the only path that runs release. Slices of the region handed
// out by Bytes may outlive the Buffer, so a Buffer that becomes
// unreachable without Free is reported as leaked and its region stays
// mapped.
func NewBuffer(data []byte, owner string, logger *slog.Logger, release ReleaseFunc) *Buffer {
	b := &Buffer{
		data:    data,
		release: release,
		owner:   owner,
		logger:  logger,
	}
	if release != nil && len(data) > 0 {
		b.cleanup = runtime.AddCleanup(b, func(r leakReport) {
			r.logger.Warn("native buffer leaked without Free",
				slog.String("allocator", r.owner), slog.Int("bytes", r.bytes))
		}, leakReport{owner: owner, bytes: len(data), logger: logger})
	}
	return b
}

// Bytes returns the region. It returns nil once the buffer is freed.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freed {
		return nil
	}
	return b.data
}

// Len returns the region size in bytes (0 after Free).
func (b *Buffer) Len() int {
	return len(b.Bytes())
}

// Freed reports whether Free has run.
func (b *Buffer) Freed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.freed
}

// Owner returns the name of the allocator that produced the buffer.
func (b *Buffer) Owner() string {
	return b.owner
}

// Free releases the region. Only the first call reaches the native release
// routine; later calls return the first call's result.
func (b *Buffer) Free() error {
	b.once.Do(func() {
		b.mu.Lock()
		data := b.data
		b.data = nil
		b.freed = true
		b.mu.Unlock()

		if b.release == nil || len(data) == 0 {
			return
		}
		b.cleanup.Stop()
		if err := b.release(data); err != nil {
			b.freeErr = fmt.Errorf("%s: release %d bytes: %w", b.owner, len(data), err)
			return
		}
		b.logger.Debug("native buffer freed",
			slog.String("allocator", b.owner), slog.Int("bytes", len(data)))
	})
	return b.freeErr
}

// Option configures an allocator.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for allocation and release events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// LoggerFrom resolves the logger carried by opts, defaulting to slog.Default.
func LoggerFrom(opts ...Option) *slog.Logger {
	return applyOptions(opts).logger
}

func applyOptions(opts []Option) *options {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func checkSize(name string, size int) error {
	if size < 0 {
		return fmt.Errorf("%s: %w: %d", name, ErrNegativeSize, size)
	}
	return nil
}

// Heap allocates from the Go heap. Buffers are zeroed.
type Heap struct {
	logger *slog.Logger
}

// NewHeap creates a heap allocator.
func NewHeap(opts ...Option) *Heap {
	return &Heap{logger: applyOptions(opts).logger}
}

// Name implements Allocator.
func (h *Heap) Name() string { return "heap" }

// Zeroed implements Allocator.
func (h *Heap) Zeroed() bool { return true }

// Alloc implements Allocator.
func (h *Heap) Alloc(size int) (*Buffer, error) {
	if err := checkSize(h.Name(), size); err != nil {
		return nil, err
	}
	return NewBuffer(make([]byte, size), h.Name(), h.logger, nil), nil
}

// Lookup returns the allocator registered under name.
// Known names: heap, mmap, malloc. Arena and GPU allocators carry state and
// are constructed explicitly.
func Lookup(name string, opts ...Option) (Allocator, error) {
	switch name {
	case "", "default":
		return Default(opts...), nil
	case "heap":
		return NewHeap(opts...), nil
	case "mmap":
		m, err := NewMmap(opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "malloc":
		m, err := NewMalloc(opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("native: unknown allocator %q", name)
	}
}
