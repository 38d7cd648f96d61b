package nn

import (
	"testing"

	"github.com/born-ml/thtensor/internal/autograd"
	"github.com/born-ml/thtensor/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleForward(t *testing.T) {
	s := newScale(t, 2)
	t.Cleanup(func() { _ = s.Release() })

	x := fromSlice(t, []float32{1, -2, 3}, tensor.Shape{3})
	y, err := s.Forward(x)
	require.NoError(t, err)
	defer y.Release()

	assert.Equal(t, tensor.Shape{3}, y.Shape())
	assert.Equal(t, []float32{2, -4, 6}, y.Data())
}

func TestScaleBackward(t *testing.T) {
	s := newScale(t, 2)
	t.Cleanup(func() { _ = s.Release() })
	s.Train()

	x := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3})
	y, err := s.Forward(x)
	require.NoError(t, err)
	defer y.Release()

	g := fromSlice(t, []float32{1, 1, 1}, tensor.Shape{3})
	dx, err := s.Backward(g)
	require.NoError(t, err)
	defer dx.Release()

	assert.Equal(t, []float32{2, 2, 2}, dx.Data())
	require.NotNil(t, s.Weight().Grad())
	assert.Equal(t, float32(6), s.Weight().Grad().MustAt(0))

	dx2, err := s.Backward(g)
	require.NoError(t, err)
	defer dx2.Release()
	assert.Equal(t, float32(12), s.Weight().Grad().MustAt(0))
}

func TestScaleBackwardNeedsTrainingForward(t *testing.T) {
	s := newScale(t, 2)
	t.Cleanup(func() { _ = s.Release() })

	g := fromSlice(t, []float32{1}, tensor.Shape{1})
	_, err := s.Backward(g)
	require.ErrorIs(t, err, ErrNoInput)

	x := fromSlice(t, []float32{1}, tensor.Shape{1})
	y, err := s.Forward(x)
	require.NoError(t, err)
	defer y.Release()

	// Eval mode does not keep the input.
	_, err = s.Backward(g)
	require.ErrorIs(t, err, ErrNoInput)
}

func TestScaleBackwardShapeMismatch(t *testing.T) {
	s := newScale(t, 1)
	t.Cleanup(func() { _ = s.Release() })
	s.Train()

	x := fromSlice(t, []float32{1, 2}, tensor.Shape{2})
	y, err := s.Forward(x)
	require.NoError(t, err)
	defer y.Release()

	g := fromSlice(t, []float32{1}, tensor.Shape{1})
	_, err = s.Backward(g)
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestScaleBackwardNilGradient(t *testing.T) {
	s := newScale(t, 2)
	t.Cleanup(func() { _ = s.Release() })
	s.Train()

	x := fromSlice(t, []float32{1, 2}, tensor.Shape{2})
	y, err := s.Forward(x)
	require.NoError(t, err)
	defer y.Release()

	_, err = s.Backward(nil)
	require.ErrorIs(t, err, autograd.ErrNilInput)
}
