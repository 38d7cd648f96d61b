package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/thtensor/internal/autograd"
	"github.com/born-ml/thtensor/internal/tensor"
)

// ErrNoInput is returned by Backward when Forward has not cached an input.
var ErrNoInput = errors.New("nn: backward called before forward")

// Scale multiplies its input by a single learnable weight: y = w * x.
//
// Example:
//
//	s, _ := nn.NewScale[float32](2)
//	y, _ := s.Forward(x) // every element doubled
type Scale[T tensor.Float] struct {
	Module[T]

	weight *Parameter[T]
	opts   []tensor.Option
	fn     *autograd.Scale[T]
	input  *tensor.Tensor[T]
}

// NewScale creates a Scale module with weight initialised to init.
// Tensors it allocates use opts.
func NewScale[T tensor.Float](init T, opts ...tensor.Option) (*Scale[T], error) {
	w, err := tensor.Full[T](tensor.Shape{1}, init, opts...)
	if err != nil {
		return nil, fmt.Errorf("scale weight: %w", err)
	}
	s := &Scale[T]{weight: NewParameter("weight", w), opts: opts}
	if err := s.RegisterParameter(s.weight); err != nil {
		_ = w.Release()
		return nil, err
	}
	return s, nil
}

// Weight returns the weight parameter.
func (s *Scale[T]) Weight() *Parameter[T] {
	return s.weight
}

// Forward computes w * input. In training mode the input is kept for
// Backward; the caller still owns it and must keep it alive until then.
func (s *Scale[T]) Forward(input *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	w, err := s.weight.Tensor().At(0)
	if err != nil {
		return nil, fmt.Errorf("scale weight: %w", err)
	}
	s.fn = autograd.NewScale(w, s.opts...)
	out, err := autograd.Apply[T](s.fn, input)
	if err != nil {
		return nil, err
	}
	s.input = nil
	if s.Training() {
		s.input = input
	}
	return out[0], nil
}

// Backward returns the gradient with respect to the input and accumulates
// sum(gradOutput * input) into the weight gradient.
func (s *Scale[T]) Backward(gradOutput *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	if gradOutput == nil {
		return nil, fmt.Errorf("scale backward: %w", autograd.ErrNilInput)
	}
	if s.fn == nil || s.input == nil {
		return nil, ErrNoInput
	}
	if !gradOutput.Shape().Equal(s.input.Shape()) {
		return nil, fmt.Errorf("%w: grad %v vs input %v",
			tensor.ErrShapeMismatch, gradOutput.Shape(), s.input.Shape())
	}

	grads, err := autograd.Backward[T](s.fn, gradOutput)
	if err != nil {
		return nil, err
	}

	var dw T
	x := s.input.Data()
	for i, g := range gradOutput.Data() {
		dw += g * x[i]
	}
	if err := s.weight.AccumulateGrad([]T{dw}, s.opts...); err != nil {
		_ = grads[0].Release()
		return nil, err
	}
	return grads[0], nil
}

var _ Layer[float32] = (*Scale[float32])(nil)
