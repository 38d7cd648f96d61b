package nn

import (
	"fmt"
	"strconv"

	"github.com/born-ml/thtensor/internal/tensor"
)

// Sequential is a container module that chains multiple layers together.
//
// Each layer's output becomes the next layer's input. Layers are registered
// as children named "0", "1", ... so their parameters appear in
// NamedParameters as "0.weight", "1.weight" and so on.
//
// Example:
//
//	a, _ := nn.NewScale[float32](2)
//	b, _ := nn.NewScale[float32](3)
//	model, _ := nn.NewSequential[float32](a, b)
//	output, _ := model.Forward(input) // 6 * input
type Sequential[T tensor.Float] struct {
	Module[T]
	layers []Layer[T]
}

// NewSequential creates a new Sequential container.
func NewSequential[T tensor.Float](layers ...Layer[T]) (*Sequential[T], error) {
	s := &Sequential[T]{}
	for _, l := range layers {
		if err := s.Add(l); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a layer to the sequence.
func (s *Sequential[T]) Add(l Layer[T]) error {
	if err := s.AddChild(strconv.Itoa(len(s.layers)), l); err != nil {
		return err
	}
	s.layers = append(s.layers, l)
	return nil
}

// Len returns the number of layers.
func (s *Sequential[T]) Len() int {
	return len(s.layers)
}

// Forward applies all layers in sequence. Intermediate outputs that are
// not cached by a training layer are released; the input is never
// released.
func (s *Sequential[T]) Forward(input *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	output := input
	for i, l := range s.layers {
		next, err := l.Forward(output)
		if err != nil {
			if output != input && !s.Training() {
				_ = output.Release()
			}
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if output != input && output != next && !s.Training() {
			_ = output.Release()
		}
		output = next
	}
	return output, nil
}

var _ Layer[float32] = (*Sequential[float32])(nil)
