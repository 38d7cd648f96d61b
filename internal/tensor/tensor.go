package tensor

import (
	"fmt"
	"log/slog"
)

// Tensor is a shaped, row-major view over a Storage it owns.
// Element (i0, ..., in-1) lives at Σ ik*strides[k] in the storage.
//
// Example:
//
//	t, _ := tensor.SizedTensor[float32](Shape{2, 3})
//	defer t.Release()
//	_ = t.Set(1.5, 1, 2) // row 1, column 2 -> offset 5
type Tensor[T Float] struct {
	shape   Shape
	strides []int
	storage *Storage[T]
}

// NewTensor creates a zero-dimensional tensor over an empty storage.
// Any access fails with ErrOutOfBounds until it is given storage.
func NewTensor[T Float](opts ...Option) (*Tensor[T], error) {
	storage, err := NewStorage[T](opts...)
	if err != nil {
		return nil, err
	}
	return &Tensor[T]{shape: Shape{}, strides: []int{}, storage: storage}, nil
}

// SizedTensor allocates a tensor with room for exactly shape.NumElements().
func SizedTensor[T Float](shape Shape, opts ...Option) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	storage, err := SizedStorage[T](shape.NumElements(), opts...)
	if err != nil {
		return nil, err
	}
	return &Tensor[T]{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		storage: storage,
	}, nil
}

// FromStorage wraps storage in a tensor of the given shape and takes
// ownership of it. The shape must not address more elements than the
// storage holds.
func FromStorage[T Float](storage *Storage[T], shape Shape) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if storage.Released() {
		return nil, ErrReleased
	}
	if shape.NumElements() > storage.Len() {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, storage has %d",
			ErrShapeMismatch, shape, shape.NumElements(), storage.Len())
	}
	return &Tensor[T]{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		storage: storage,
	}, nil
}

// FromSlice allocates a tensor and copies data into it.
func FromSlice[T Float](data []T, shape Shape, opts ...Option) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(data))
	}
	t, err := SizedTensor[T](shape, opts...)
	if err != nil {
		return nil, err
	}
	copy(t.storage.Slice(), data)
	return t, nil
}

// Shape returns the tensor's extents.
func (t *Tensor[T]) Shape() Shape {
	return t.shape
}

// Strides returns the tensor's row-major strides.
func (t *Tensor[T]) Strides() []int {
	return t.strides
}

// Dim returns the number of dimensions.
func (t *Tensor[T]) Dim() int {
	return len(t.shape)
}

// NumElements returns the number of addressable elements.
func (t *Tensor[T]) NumElements() int {
	return t.shape.NumElements()
}

// DType returns the tensor's data type.
func (t *Tensor[T]) DType() DataType {
	return DataTypeOf[T]()
}

// Storage returns the owned storage.
func (t *Tensor[T]) Storage() *Storage[T] {
	return t.storage
}

// Data returns the addressable elements in row-major order, aliasing the
// storage.
func (t *Tensor[T]) Data() []T {
	data := t.storage.Slice()
	if n := t.NumElements(); n < len(data) {
		return data[:n]
	}
	return data
}

// Offset resolves idx to a flat storage offset.
//
// It fails with an *IndexError wrapping ErrArity when len(idx) != Dim(),
// and with one wrapping ErrOutOfBounds when any coordinate is negative or
// not below its extent, or the resolved offset falls outside the storage.
func (t *Tensor[T]) Offset(idx ...int) (int, error) {
	if t.storage.Released() {
		return 0, ErrReleased
	}
	offset, err := t.shape.Offset(t.strides, idx...)
	if err != nil {
		return 0, err
	}
	if offset >= t.storage.Len() {
		return 0, &IndexError{Kind: KindBounds, Dim: -1, Index: offset, Extent: t.storage.Len()}
	}
	return offset, nil
}

// At returns the element at idx.
func (t *Tensor[T]) At(idx ...int) (T, error) {
	offset, err := t.Offset(idx...)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.storage.data[offset], nil
}

// Set stores value at idx.
func (t *Tensor[T]) Set(value T, idx ...int) error {
	offset, err := t.Offset(idx...)
	if err != nil {
		return err
	}
	t.storage.data[offset] = value
	return nil
}

// MustAt is At that panics on a bad index.
//
// Example:
//
//	value := t.MustAt(1, 2) // Row 1, column 2
func (t *Tensor[T]) MustAt(idx ...int) T {
	v, err := t.At(idx...)
	if err != nil {
		panic(err)
	}
	return v
}

// MustSet is Set that panics on a bad index.
func (t *Tensor[T]) MustSet(value T, idx ...int) {
	if err := t.Set(value, idx...); err != nil {
		panic(err)
	}
}

// Fill sets every addressable element to value.
func (t *Tensor[T]) Fill(value T) {
	data := t.Data()
	for i := range data {
		data[i] = value
	}
}

// Release frees the owned storage. Calling it again is a no-op.
func (t *Tensor[T]) Release() error {
	return t.storage.Release()
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[T]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.DType(), t.shape, t.storage.Allocator())
}

// LogValue implements slog.LogValuer.
func (t *Tensor[T]) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("dtype", t.DType().String()),
		slog.Any("shape", []int(t.shape)),
		slog.String("allocator", t.storage.Allocator()),
		slog.Int("len", t.storage.Len()),
	)
}
