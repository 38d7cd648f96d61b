// Package autograd defines the delegate shared by differentiable functions.
//
// A concrete function embeds Function[T] to gain the bookkeeping every
// function needs (tensors saved for the backward pass, which inputs need
// gradients, which inputs were modified in place) and implements FuncIntf
// for its own forward and backward rules:
//
//	type Scale[T tensor.Float] struct {
//	    autograd.Function[T]
//	    Factor T
//	}
//
// Embedding promotes Function.Delegate, so every such type satisfies
// FuncDelegate without generated code. No computation graph is recorded:
// callers run Backward themselves with the output gradients.
package autograd

import (
	"errors"
	"fmt"

	"github.com/born-ml/thtensor/internal/parallel"
	"github.com/born-ml/thtensor/internal/tensor"
)

// Common errors.
var (
	ErrInputCount    = errors.New("autograd: wrong number of inputs")
	ErrNilInput      = errors.New("autograd: nil input tensor")
	ErrNoForward     = errors.New("autograd: backward called before forward")
	ErrReleasedInput = errors.New("autograd: input tensor already released")
)

// Function carries the state shared by every differentiable function.
type Function[T tensor.Float] struct {
	saved          []*tensor.Tensor[T]
	needsInputGrad []bool
	dirty          map[*tensor.Tensor[T]]struct{}
	ran            bool

	// Options are used for tensors the function allocates.
	Options []tensor.Option

	// Parallel splits element-wise loops. The zero value runs them on the
	// calling goroutine.
	Parallel parallel.Config
}

func newFunction[T tensor.Float](opts []tensor.Option) Function[T] {
	return Function[T]{Options: opts, Parallel: parallel.DefaultConfig()}
}

// Delegate returns f. Types embedding Function inherit it and so satisfy
// FuncDelegate.
func (f *Function[T]) Delegate() *Function[T] {
	return f
}

// SaveForBackward records tensors the backward pass will need.
// Saved tensors are borrowed; Function never releases them.
func (f *Function[T]) SaveForBackward(ts ...*tensor.Tensor[T]) {
	f.saved = append(f.saved[:0], ts...)
}

// SavedTensors returns the tensors recorded by SaveForBackward.
func (f *Function[T]) SavedTensors() []*tensor.Tensor[T] {
	return f.saved
}

// MarkDirty records inputs that the forward pass modified in place.
func (f *Function[T]) MarkDirty(ts ...*tensor.Tensor[T]) {
	if f.dirty == nil {
		f.dirty = make(map[*tensor.Tensor[T]]struct{}, len(ts))
	}
	for _, t := range ts {
		f.dirty[t] = struct{}{}
	}
}

// IsDirty reports whether t was marked dirty.
func (f *Function[T]) IsDirty(t *tensor.Tensor[T]) bool {
	_, ok := f.dirty[t]
	return ok
}

// SetNeedsInputGrad sets, per input, whether Backward should produce a
// gradient for it.
func (f *Function[T]) SetNeedsInputGrad(flags ...bool) {
	f.needsInputGrad = append(f.needsInputGrad[:0], flags...)
}

// NeedsInputGrad reports whether input i needs a gradient. Inputs without
// an explicit flag default to true.
func (f *Function[T]) NeedsInputGrad(i int) bool {
	if i < 0 || i >= len(f.needsInputGrad) {
		return true
	}
	return f.needsInputGrad[i]
}

// Ran reports whether a forward pass has completed.
func (f *Function[T]) Ran() bool {
	return f.ran
}

// reset clears per-call state before a new forward pass.
func (f *Function[T]) reset() {
	f.saved = f.saved[:0]
	clear(f.dirty)
	f.ran = false
}

// FuncDelegate is implemented by every type that embeds Function.
type FuncDelegate[T tensor.Float] interface {
	Delegate() *Function[T]
}

// FuncIntf holds a function's own forward and backward rules.
type FuncIntf[T tensor.Float] interface {
	// Forward computes outputs from inputs.
	Forward(inputs []*tensor.Tensor[T]) ([]*tensor.Tensor[T], error)

	// Backward maps output gradients to input gradients. The result has
	// one entry per input; entries are nil for inputs that need no
	// gradient.
	Backward(gradOutputs []*tensor.Tensor[T]) ([]*tensor.Tensor[T], error)
}

// Func is a complete differentiable function.
type Func[T tensor.Float] interface {
	FuncDelegate[T]
	FuncIntf[T]
}

// Apply runs fn's forward pass on inputs.
func Apply[T tensor.Float](fn Func[T], inputs ...*tensor.Tensor[T]) ([]*tensor.Tensor[T], error) {
	for i, in := range inputs {
		if in == nil {
			return nil, fmt.Errorf("%w at position %d", ErrNilInput, i)
		}
		if in.Storage().Released() {
			return nil, fmt.Errorf("%w at position %d", ErrReleasedInput, i)
		}
	}

	d := fn.Delegate()
	d.reset()
	outputs, err := fn.Forward(inputs)
	if err != nil {
		return nil, err
	}
	d.ran = true
	return outputs, nil
}

// Backward runs fn's backward pass after checking a forward pass ran and
// that no gradient or saved tensor has been released.
func Backward[T tensor.Float](fn Func[T], gradOutputs ...*tensor.Tensor[T]) ([]*tensor.Tensor[T], error) {
	if !fn.Delegate().Ran() {
		return nil, ErrNoForward
	}
	for i, g := range gradOutputs {
		if g == nil {
			return nil, fmt.Errorf("%w: gradient at position %d", ErrNilInput, i)
		}
		if g.Storage().Released() {
			return nil, fmt.Errorf("%w: gradient at position %d", ErrReleasedInput, i)
		}
	}
	for i, s := range fn.Delegate().SavedTensors() {
		if s != nil && s.Storage().Released() {
			return nil, fmt.Errorf("%w: saved tensor %d", ErrReleasedInput, i)
		}
	}
	return fn.Backward(gradOutputs)
}
