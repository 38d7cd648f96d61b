package autograd

import (
	"fmt"

	"github.com/born-ml/thtensor/internal/parallel"
	"github.com/born-ml/thtensor/internal/tensor"
)

// Scale multiplies its single input by Factor.
// d(a*x)/dx = a.
type Scale[T tensor.Float] struct {
	Function[T]
	Factor  T
	Inplace bool
}

// NewScale creates a Scale function.
func NewScale[T tensor.Float](factor T, opts ...tensor.Option) *Scale[T] {
	return &Scale[T]{Function: newFunction[T](opts), Factor: factor}
}

// Forward implements FuncIntf.
func (s *Scale[T]) Forward(inputs []*tensor.Tensor[T]) ([]*tensor.Tensor[T], error) {
	if err := expectInputs(inputs, 1); err != nil {
		return nil, err
	}
	x := inputs[0]

	out := x
	if s.Inplace {
		s.MarkDirty(x)
	} else {
		var err error
		if out, err = s.like(x); err != nil {
			return nil, err
		}
	}

	parallel.Map(out.Data(), x.Data(), s.Parallel, s.scale)
	return []*tensor.Tensor[T]{out}, nil
}

// Backward implements FuncIntf.
func (s *Scale[T]) Backward(gradOutputs []*tensor.Tensor[T]) ([]*tensor.Tensor[T], error) {
	if err := expectInputs(gradOutputs, 1); err != nil {
		return nil, err
	}
	if !s.NeedsInputGrad(0) {
		return []*tensor.Tensor[T]{nil}, nil
	}
	g := gradOutputs[0]
	grad, err := s.like(g)
	if err != nil {
		return nil, err
	}
	parallel.Map(grad.Data(), g.Data(), s.Parallel, s.scale)
	return []*tensor.Tensor[T]{grad}, nil
}

func (s *Scale[T]) scale(v T) T {
	return v * s.Factor
}

// Add sums two tensors of equal shape.
// d(a+b)/da = d(a+b)/db = 1.
type Add[T tensor.Float] struct {
	Function[T]
}

// NewAdd creates an Add function.
func NewAdd[T tensor.Float](opts ...tensor.Option) *Add[T] {
	return &Add[T]{Function: newFunction[T](opts)}
}

// Forward implements FuncIntf.
func (a *Add[T]) Forward(inputs []*tensor.Tensor[T]) ([]*tensor.Tensor[T], error) {
	if err := expectInputs(inputs, 2); err != nil {
		return nil, err
	}
	out, err := a.zip(inputs[0], inputs[1], func(x, y T) T { return x + y })
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor[T]{out}, nil
}

// Backward implements FuncIntf.
func (a *Add[T]) Backward(gradOutputs []*tensor.Tensor[T]) ([]*tensor.Tensor[T], error) {
	if err := expectInputs(gradOutputs, 1); err != nil {
		return nil, err
	}
	grads := make([]*tensor.Tensor[T], 2)
	for i := range grads {
		if !a.NeedsInputGrad(i) {
			continue
		}
		g, err := a.copyOf(gradOutputs[0])
		if err != nil {
			releaseAll(grads)
			return nil, err
		}
		grads[i] = g
	}
	return grads, nil
}

// Mul multiplies two tensors of equal shape element-wise.
// d(a*b)/da = b, d(a*b)/db = a.
type Mul[T tensor.Float] struct {
	Function[T]
}

// NewMul creates a Mul function.
func NewMul[T tensor.Float](opts ...tensor.Option) *Mul[T] {
	return &Mul[T]{Function: newFunction[T](opts)}
}

// Forward implements FuncIntf.
func (m *Mul[T]) Forward(inputs []*tensor.Tensor[T]) ([]*tensor.Tensor[T], error) {
	if err := expectInputs(inputs, 2); err != nil {
		return nil, err
	}
	out, err := m.zip(inputs[0], inputs[1], func(x, y T) T { return x * y })
	if err != nil {
		return nil, err
	}
	m.SaveForBackward(inputs[0], inputs[1])
	return []*tensor.Tensor[T]{out}, nil
}

// Backward implements FuncIntf.
func (m *Mul[T]) Backward(gradOutputs []*tensor.Tensor[T]) ([]*tensor.Tensor[T], error) {
	if err := expectInputs(gradOutputs, 1); err != nil {
		return nil, err
	}
	saved := m.SavedTensors()
	if len(saved) != 2 {
		return nil, ErrNoForward
	}
	g := gradOutputs[0]
	mul := func(x, y T) T { return x * y }

	grads := make([]*tensor.Tensor[T], 2)
	for i := range grads {
		if !m.NeedsInputGrad(i) {
			continue
		}
		// Gradient for input i is g times the other input.
		other := saved[1-i]
		grad, err := m.zip(g, other, mul)
		if err != nil {
			releaseAll(grads)
			return nil, err
		}
		grads[i] = grad
	}
	return grads, nil
}

// like allocates a tensor shaped like t.
func (f *Function[T]) like(t *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	return tensor.SizedTensor[T](t.Shape(), f.Options...)
}

// copyOf allocates a copy of t.
func (f *Function[T]) copyOf(t *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	out, err := f.like(t)
	if err != nil {
		return nil, err
	}
	copy(out.Data(), t.Data())
	return out, nil
}

// zip applies op element-wise to two tensors of equal shape.
func (f *Function[T]) zip(a, b *tensor.Tensor[T], op func(x, y T) T) (*tensor.Tensor[T], error) {
	if !a.Shape().Equal(b.Shape()) {
		return nil, fmt.Errorf("%w: %v vs %v", tensor.ErrShapeMismatch, a.Shape(), b.Shape())
	}
	out, err := f.like(a)
	if err != nil {
		return nil, err
	}
	parallel.Zip(out.Data(), a.Data(), b.Data(), f.Parallel, op)
	return out, nil
}

func expectInputs[T tensor.Float](ts []*tensor.Tensor[T], n int) error {
	if len(ts) != n {
		return fmt.Errorf("%w: got %d, want %d", ErrInputCount, len(ts), n)
	}
	return nil
}

func releaseAll[T tensor.Float](ts []*tensor.Tensor[T]) {
	for _, t := range ts {
		if t != nil {
			_ = t.Release()
		}
	}
}

// Compile-time checks.
var (
	_ Func[float32] = (*Scale[float32])(nil)
	_ Func[float32] = (*Add[float32])(nil)
	_ Func[float64] = (*Mul[float64])(nil)
)
