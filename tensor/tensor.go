// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/thtensor/internal/native"
	"github.com/born-ml/thtensor/internal/tensor"
)

// Type aliases for public API

// Float is the constraint for element types: float32 or float64.
type Float = tensor.Float

// DataType represents the underlying data type of a storage.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Storage is a contiguous run of elements in a native buffer.
type Storage[T Float] = tensor.Storage[T]

// Tensor is a shaped, row-major view over a Storage it owns.
//
// Example:
//
//	x, err := tensor.SizedTensor[float32](tensor.Shape{2, 3})
//	if err != nil {
//	    return err
//	}
//	defer x.Release()
//	_ = x.Set(1, 1, 2) // offset 1*3 + 2 = 5
type Tensor[T Float] = tensor.Tensor[T]

// IndexError describes a rejected multi-dimensional index.
type IndexError = tensor.IndexError

// Generator is a seeded source of random samples.
type Generator = tensor.Generator

// Option configures storage and tensor construction.
type Option = tensor.Option

// Allocator allocates the native buffers behind storages.
type Allocator = native.Allocator

// Errors.
var (
	ErrArity         = tensor.ErrArity
	ErrOutOfBounds   = tensor.ErrOutOfBounds
	ErrShapeMismatch = tensor.ErrShapeMismatch
	ErrReleased      = tensor.ErrReleased
	ErrInvalidShape  = tensor.ErrInvalidShape
)

// WithAllocator selects the allocator for new storage.
func WithAllocator(a Allocator) Option {
	return tensor.WithAllocator(a)
}

// LookupAllocator returns a stateless allocator by name: "heap", "mmap",
// "malloc", or "" for the platform default.
func LookupAllocator(name string) (Allocator, error) {
	return native.Lookup(name)
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return tensor.NewGenerator(seed)
}

// Creation functions

// NewStorage creates an empty storage.
func NewStorage[T Float](opts ...Option) (*Storage[T], error) {
	return tensor.NewStorage[T](opts...)
}

// SizedStorage allocates a storage of n elements.
func SizedStorage[T Float](n int, opts ...Option) (*Storage[T], error) {
	return tensor.SizedStorage[T](n, opts...)
}

// NewTensor creates a zero-dimensional tensor over an empty storage.
func NewTensor[T Float](opts ...Option) (*Tensor[T], error) {
	return tensor.NewTensor[T](opts...)
}

// SizedTensor allocates a tensor with room for exactly shape.NumElements().
func SizedTensor[T Float](shape Shape, opts ...Option) (*Tensor[T], error) {
	return tensor.SizedTensor[T](shape, opts...)
}

// FromStorage wraps storage in a tensor of the given shape, taking
// ownership of it.
func FromStorage[T Float](storage *Storage[T], shape Shape) (*Tensor[T], error) {
	return tensor.FromStorage(storage, shape)
}

// FromSlice creates a tensor from a Go slice.
//
// Example:
//
//	data := []float32{1, 2, 3, 4, 5, 6}
//	x, err := tensor.FromSlice(data, tensor.Shape{2, 3})
func FromSlice[T Float](data []T, shape Shape, opts ...Option) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape, opts...)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T Float](shape Shape, opts ...Option) (*Tensor[T], error) {
	return tensor.Zeros[T](shape, opts...)
}

// Full creates a tensor filled with a specific value.
func Full[T Float](shape Shape, value T, opts ...Option) (*Tensor[T], error) {
	return tensor.Full(shape, value, opts...)
}

// Randn creates a tensor filled with samples from the standard normal
// distribution N(0, 1). A nil generator is replaced by a randomly seeded one.
//
// Example:
//
//	x, err := tensor.Randn[float32](tensor.Shape{2, 3}, tensor.NewGenerator(42))
func Randn[T Float](shape Shape, g *Generator, opts ...Option) (*Tensor[T], error) {
	return tensor.Randn[T](shape, g, opts...)
}

// Rand creates a tensor filled with samples from the uniform distribution U[0, 1).
func Rand[T Float](shape Shape, g *Generator, opts ...Option) (*Tensor[T], error) {
	return tensor.Rand[T](shape, g, opts...)
}
