// Package nn implements the module delegate for the thtensor framework.
//
// A concrete module embeds Module[T] to gain parameter registration,
// child bookkeeping and the train/eval flag, and implements Forwarder for
// its own computation:
//
//	type Scale[T tensor.Float] struct {
//	    nn.Module[T]
//	    weight *nn.Parameter[T]
//	}
//
// Embedding promotes Module.Delegate, so every such type satisfies
// ModDelegate.
package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/thtensor/internal/tensor"
)

// Common errors.
var (
	ErrDuplicateName = errors.New("nn: duplicate name")
	ErrEmptyName     = errors.New("nn: empty name")
)

// ModDelegate is implemented by every type that embeds Module.
type ModDelegate[T tensor.Float] interface {
	Delegate() *Module[T]
}

// Forwarder computes a module's output.
type Forwarder[T tensor.Float] interface {
	Forward(input *tensor.Tensor[T]) (*tensor.Tensor[T], error)
}

// Layer is a complete module.
type Layer[T tensor.Float] interface {
	ModDelegate[T]
	Forwarder[T]
}

type namedChild[T tensor.Float] struct {
	name   string
	module ModDelegate[T]
}

// Module carries the state shared by every module.
// The zero value is an empty module in evaluation mode.
type Module[T tensor.Float] struct {
	params   []*Parameter[T]
	children []namedChild[T]
	training bool
}

// Delegate returns m. Types embedding Module inherit it and so satisfy
// ModDelegate.
func (m *Module[T]) Delegate() *Module[T] {
	return m
}

// RegisterParameter adds p to the module. Names must be unique among the
// module's parameters and children.
func (m *Module[T]) RegisterParameter(p *Parameter[T]) error {
	if err := m.checkName(p.Name()); err != nil {
		return fmt.Errorf("register parameter: %w", err)
	}
	m.params = append(m.params, p)
	return nil
}

// AddChild registers a submodule under name.
func (m *Module[T]) AddChild(name string, child ModDelegate[T]) error {
	if err := m.checkName(name); err != nil {
		return fmt.Errorf("add child: %w", err)
	}
	m.children = append(m.children, namedChild[T]{name: name, module: child})
	return nil
}

func (m *Module[T]) checkName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	for _, p := range m.params {
		if p.Name() == name {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	for _, c := range m.children {
		if c.name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	return nil
}

// Children returns the direct submodules in registration order.
func (m *Module[T]) Children() []ModDelegate[T] {
	out := make([]ModDelegate[T], len(m.children))
	for i, c := range m.children {
		out[i] = c.module
	}
	return out
}

// Parameters returns this module's parameters followed by those of its
// children, depth first.
func (m *Module[T]) Parameters() []*Parameter[T] {
	params := append([]*Parameter[T](nil), m.params...)
	for _, c := range m.children {
		params = append(params, c.module.Delegate().Parameters()...)
	}
	return params
}

// NamedParameters returns every parameter keyed by its dotted path,
// e.g. "0.weight" for the weight of the first child.
func (m *Module[T]) NamedParameters() map[string]*Parameter[T] {
	out := make(map[string]*Parameter[T])
	m.collect("", out)
	return out
}

func (m *Module[T]) collect(prefix string, out map[string]*Parameter[T]) {
	for _, p := range m.params {
		out[prefix+p.Name()] = p
	}
	for _, c := range m.children {
		c.module.Delegate().collect(prefix+c.name+".", out)
	}
}

// StateDict returns every parameter tensor keyed by its dotted path.
func (m *Module[T]) StateDict() map[string]*tensor.Tensor[T] {
	named := m.NamedParameters()
	out := make(map[string]*tensor.Tensor[T], len(named))
	for name, p := range named {
		out[name] = p.Tensor()
	}
	return out
}

// Train puts the module and its children in training mode.
func (m *Module[T]) Train() {
	m.setTraining(true)
}

// Eval puts the module and its children in evaluation mode.
func (m *Module[T]) Eval() {
	m.setTraining(false)
}

func (m *Module[T]) setTraining(on bool) {
	m.training = on
	for _, c := range m.children {
		c.module.Delegate().setTraining(on)
	}
}

// Training reports whether the module is in training mode.
func (m *Module[T]) Training() bool {
	return m.training
}

// ZeroGrad drops accumulated gradients of every parameter.
func (m *Module[T]) ZeroGrad() {
	for _, p := range m.Parameters() {
		p.ZeroGrad()
	}
}

// Release frees every parameter, including those of children.
func (m *Module[T]) Release() error {
	var errs []error
	for _, p := range m.Parameters() {
		if err := p.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
