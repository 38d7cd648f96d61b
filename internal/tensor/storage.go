package tensor

import (
	"fmt"
	"iter"
	"math"
	"unsafe"

	"github.com/born-ml/thtensor/internal/native"
)

// Storage is an owning handle to a contiguous native buffer of T.
// It is not safe for concurrent use.
type Storage[T Float] struct {
	buffer   *native.Buffer
	data     []T
	released bool
}

// NewStorage creates an empty storage.
func NewStorage[T Float](opts ...Option) (*Storage[T], error) {
	return SizedStorage[T](0, opts...)
}

// SizedStorage allocates a storage of n elements. The initial contents are
// whatever the allocator provides; see native.Allocator.Zeroed.
func SizedStorage[T Float](n int, opts ...Option) (*Storage[T], error) {
	if n < 0 {
		return nil, fmt.Errorf("sized storage: %w: %d", native.ErrNegativeSize, n)
	}
	if n > math.MaxInt/elemSize[T]() {
		return nil, fmt.Errorf("sized storage: %w: %d elements overflow", ErrInvalidShape, n)
	}
	o := applyOptions(opts)
	buf, err := o.allocator.Alloc(n * elemSize[T]())
	if err != nil {
		return nil, fmt.Errorf("sized storage of %d %s: %w", n, DataTypeOf[T](), err)
	}
	s, err := StorageFromBuffer[T](buf)
	if err != nil {
		_ = buf.Free()
		return nil, err
	}
	return s, nil
}

// StorageFromBuffer takes ownership of buf and views it as T elements.
// Trailing bytes that do not form a whole element are ignored.
func StorageFromBuffer[T Float](buf *native.Buffer) (*Storage[T], error) {
	b := buf.Bytes()
	size := elemSize[T]()
	s := &Storage[T]{buffer: buf}
	if len(b) < size {
		return s, nil
	}
	if uintptr(unsafe.Pointer(&b[0]))%uintptr(size) != 0 {
		return nil, fmt.Errorf("%w: %s from %s", ErrMisaligned, DataTypeOf[T](), buf.Owner())
	}
	//nolint:gosec // unsafe.Slice over the owned buffer, length bounded by its byte size
	s.data = unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/size)
	return s, nil
}

// Len returns the number of elements (0 after Release).
func (s *Storage[T]) Len() int {
	return len(s.data)
}

// DType returns the storage's data type.
func (s *Storage[T]) DType() DataType {
	return DataTypeOf[T]()
}

// Allocator returns the name of the allocator that owns the buffer.
func (s *Storage[T]) Allocator() string {
	return s.buffer.Owner()
}

// check validates a flat index.
func (s *Storage[T]) check(i int) error {
	if s.released {
		return ErrReleased
	}
	if i < 0 || i >= len(s.data) {
		return &IndexError{Kind: KindBounds, Dim: -1, Index: i, Extent: len(s.data)}
	}
	return nil
}

// At returns the element at flat index i.
func (s *Storage[T]) At(i int) (T, error) {
	if err := s.check(i); err != nil {
		var zero T
		return zero, err
	}
	return s.data[i], nil
}

// Set stores v at flat index i.
func (s *Storage[T]) Set(i int, v T) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.data[i] = v
	return nil
}

// Slice returns the elements as a slice aliasing the native buffer.
// The slice must not be used after Release.
//
// WARNING: Modifications to the returned slice modify the storage.
func (s *Storage[T]) Slice() []T {
	return s.data
}

// All iterates over every element in buffer order.
func (s *Storage[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range s.data {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Fill sets every element to v.
func (s *Storage[T]) Fill(v T) {
	for i := range s.data {
		s.data[i] = v
	}
}

// Released reports whether Release has been called.
func (s *Storage[T]) Released() bool {
	return s.released
}

// Release frees the native buffer. Calling it again is a no-op.
func (s *Storage[T]) Release() error {
	if s.released {
		return nil
	}
	s.released = true
	s.data = nil
	return s.buffer.Free()
}

// Option configures storage and tensor construction.
type Option func(*options)

type options struct {
	allocator native.Allocator
}

var defaultAllocator = native.Default()

// WithAllocator selects the allocator for new storage.
func WithAllocator(a native.Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.allocator = a
		}
	}
}

func applyOptions(opts []Option) *options {
	o := &options{allocator: defaultAllocator}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
