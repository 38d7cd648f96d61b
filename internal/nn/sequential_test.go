package nn

import (
	"testing"

	"github.com/born-ml/thtensor/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialForward(t *testing.T) {
	model, err := NewSequential[float32](newScale(t, 2), newScale(t, 3))
	require.NoError(t, err)
	t.Cleanup(func() { _ = model.Release() })
	assert.Equal(t, 2, model.Len())

	x := fromSlice(t, []float32{1, 2}, tensor.Shape{2})
	y, err := model.Forward(x)
	require.NoError(t, err)
	defer y.Release()

	assert.Equal(t, []float32{6, 12}, y.Data())
	assert.False(t, x.Storage().Released())
}

func TestSequentialParameters(t *testing.T) {
	a, b := newScale(t, 1), newScale(t, 1)
	model, err := NewSequential[float32](a, b)
	require.NoError(t, err)
	t.Cleanup(func() { _ = model.Release() })

	named := model.NamedParameters()
	assert.Same(t, a.Weight(), named["0.weight"])
	assert.Same(t, b.Weight(), named["1.weight"])
	assert.Len(t, model.Parameters(), 2)
}

func TestSequentialEmpty(t *testing.T) {
	model, err := NewSequential[float32]()
	require.NoError(t, err)

	x := fromSlice(t, []float32{1}, tensor.Shape{1})
	y, err := model.Forward(x)
	require.NoError(t, err)
	assert.Same(t, x, y)
}
