package nn

import (
	"fmt"

	"github.com/born-ml/thtensor/internal/tensor"
)

// Parameter represents a trainable parameter in a module.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
type Parameter[T tensor.Float] struct {
	name   string            // Parameter name (e.g., "weight", "bias")
	tensor *tensor.Tensor[T] // The parameter tensor
	grad   *tensor.Tensor[T] // Accumulated gradient, nil until the first backward pass
}

// NewParameter creates a new trainable parameter that owns t.
func NewParameter[T tensor.Float](name string, t *tensor.Tensor[T]) *Parameter[T] {
	return &Parameter[T]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[T]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[T]) Tensor() *tensor.Tensor[T] {
	return p.tensor
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been computed yet (before backward pass).
func (p *Parameter[T]) Grad() *tensor.Tensor[T] {
	return p.grad
}

// AccumulateGrad adds g into the parameter's gradient, allocating it on
// first use with opts. g must hold one value per parameter element.
func (p *Parameter[T]) AccumulateGrad(g []T, opts ...tensor.Option) error {
	if n := p.tensor.NumElements(); len(g) != n {
		return fmt.Errorf("grad for %s: %w: got %d values, want %d",
			p.name, tensor.ErrShapeMismatch, len(g), n)
	}
	if p.grad == nil {
		grad, err := tensor.Zeros[T](p.tensor.Shape(), opts...)
		if err != nil {
			return err
		}
		p.grad = grad
	}
	dst := p.grad.Data()
	for i, v := range g {
		dst[i] += v
	}
	return nil
}

// ZeroGrad releases the gradient tensor.
func (p *Parameter[T]) ZeroGrad() {
	if p.grad != nil {
		_ = p.grad.Release()
		p.grad = nil
	}
}

// Release frees the parameter tensor and its gradient.
func (p *Parameter[T]) Release() error {
	p.ZeroGrad()
	return p.tensor.Release()
}
