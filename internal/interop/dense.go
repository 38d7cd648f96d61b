// Package interop converts tensors to and from gorgonia.org/tensor dense
// tensors.
//
// Both directions copy. A Dense produced by ToDense lives on the Go heap
// and stays valid after the source tensor is released.
package interop

import (
	"errors"
	"fmt"

	gtensor "gorgonia.org/tensor"

	"github.com/born-ml/thtensor/internal/tensor"
)

// ErrUnsupportedDtype is returned by FromDense for non-float dense tensors.
var ErrUnsupportedDtype = errors.New("interop: unsupported dense dtype")

// ToDense copies t into a new *gtensor.Dense of the same shape.
// A zero-dimensional tensor becomes a scalar Dense.
func ToDense[T tensor.Float](t *tensor.Tensor[T]) (*gtensor.Dense, error) {
	if t.Storage().Released() {
		return nil, tensor.ErrReleased
	}
	data := t.Data()
	if len(data) != t.NumElements() {
		return nil, fmt.Errorf("%w: shape %v over %d elements", tensor.ErrShapeMismatch, t.Shape(), len(data))
	}

	if t.DType() == tensor.Float32 {
		backing := make([]float32, len(data))
		for i, v := range data {
			backing[i] = float32(v)
		}
		if t.Dim() == 0 {
			return gtensor.New(gtensor.FromScalar(backing[0])), nil
		}
		return gtensor.New(gtensor.WithShape(t.Shape()...), gtensor.WithBacking(backing)), nil
	}

	backing := make([]float64, len(data))
	for i, v := range data {
		backing[i] = float64(v)
	}
	if t.Dim() == 0 {
		return gtensor.New(gtensor.FromScalar(backing[0])), nil
	}
	return gtensor.New(gtensor.WithShape(t.Shape()...), gtensor.WithBacking(backing)), nil
}

// FromDense copies d into a new tensor allocated with opts, converting
// between float32 and float64 when T differs from d's dtype. Views
// (transposed or sliced) are materialised first so elements are copied in
// logical row-major order.
func FromDense[T tensor.Float](d *gtensor.Dense, opts ...tensor.Option) (*tensor.Tensor[T], error) {
	if d.IsMaterializable() {
		m, ok := d.Materialize().(*gtensor.Dense)
		if !ok {
			return nil, fmt.Errorf("%w: materialized view is not dense", ErrUnsupportedDtype)
		}
		d = m
	}

	var src []T
	switch v := d.Data().(type) {
	case []float32:
		src = convert[T](v)
	case []float64:
		src = convert[T](v)
	case float32:
		src = []T{T(v)}
	case float64:
		src = []T{T(v)}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedDtype, d.Dtype())
	}

	var shape tensor.Shape
	if !d.IsScalar() {
		shape = tensor.Shape(d.Shape().Clone())
	}
	if shape.NumElements() != len(src) {
		return nil, fmt.Errorf("%w: dense shape %v over %d elements",
			tensor.ErrShapeMismatch, shape, len(src))
	}
	return tensor.FromSlice(src, shape, opts...)
}

func convert[T tensor.Float, S float32 | float64](in []S) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}
