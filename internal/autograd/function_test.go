package autograd

import (
	"testing"

	"github.com/born-ml/thtensor/internal/native"
	"github.com/born-ml/thtensor/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heap() tensor.Option {
	return tensor.WithAllocator(native.NewHeap())
}

func fromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.Tensor[float32] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, heap())
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Release() })
	return x
}

func TestFunctionDelegateIsPromoted(t *testing.T) {
	s := NewScale[float32](2, heap())
	var d FuncDelegate[float32] = s
	assert.Same(t, &s.Function, d.Delegate())
}

func TestFunctionBookkeeping(t *testing.T) {
	var f Function[float32]
	a := fromSlice(t, []float32{1}, tensor.Shape{1})
	b := fromSlice(t, []float32{2}, tensor.Shape{1})

	assert.True(t, f.NeedsInputGrad(0), "unset flags default to true")
	f.SetNeedsInputGrad(false, true)
	assert.False(t, f.NeedsInputGrad(0))
	assert.True(t, f.NeedsInputGrad(1))
	assert.True(t, f.NeedsInputGrad(5))

	f.SaveForBackward(a, b)
	assert.Equal(t, []*tensor.Tensor[float32]{a, b}, f.SavedTensors())
	f.SaveForBackward(b)
	assert.Equal(t, []*tensor.Tensor[float32]{b}, f.SavedTensors())

	f.MarkDirty(a)
	assert.True(t, f.IsDirty(a))
	assert.False(t, f.IsDirty(b))

	f.reset()
	assert.Empty(t, f.SavedTensors())
	assert.False(t, f.IsDirty(a))
}

func TestApplyRejectsNilAndReleasedInputs(t *testing.T) {
	s := NewScale[float32](2, heap())
	_, err := Apply[float32](s, nil)
	require.ErrorIs(t, err, ErrNilInput)

	x, err := tensor.SizedTensor[float32](tensor.Shape{2}, heap())
	require.NoError(t, err)
	require.NoError(t, x.Release())
	_, err = Apply[float32](s, x)
	require.ErrorIs(t, err, ErrReleasedInput)
}

func TestBackwardBeforeForward(t *testing.T) {
	s := NewScale[float32](2, heap())
	g := fromSlice(t, []float32{1}, tensor.Shape{1})
	_, err := Backward[float32](s, g)
	require.ErrorIs(t, err, ErrNoForward)
}
