package tensor

import (
	"fmt"
	"math"
)

// Shape represents the extents of a tensor, outermost first.
type Shape []int

// NumElements returns the total number of elements addressed by the shape.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that every extent is non-negative and that the element
// count fits in an int.
func (s Shape) Validate() error {
	n := 1
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("%w: dimension %d has extent %d (must be >= 0)", ErrInvalidShape, i, dim)
		}
		if dim != 0 && n > math.MaxInt/dim {
			return fmt.Errorf("%w: %v overflows element count", ErrInvalidShape, s)
		}
		n *= dim
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// stride[n-1] = 1 and stride[i] = stride[i+1] * extent[i+1].
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Offset resolves a multi-index against the shape and its strides.
// The index arity must equal len(s) and every coordinate must lie in
// [0, extent). The result is Σ idx[i]*strides[i].
func (s Shape) Offset(strides []int, idx ...int) (int, error) {
	if len(idx) != len(s) {
		return 0, &IndexError{Kind: KindArity, Arity: len(idx), Want: len(s)}
	}

	offset := 0
	for i, x := range idx {
		if x < 0 || x >= s[i] {
			return 0, &IndexError{Kind: KindBounds, Dim: i, Index: x, Extent: s[i]}
		}
		offset += x * strides[i]
	}
	return offset, nil
}
