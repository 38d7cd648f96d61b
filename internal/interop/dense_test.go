package interop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gtensor "gorgonia.org/tensor"

	"github.com/born-ml/thtensor/internal/native"
	"github.com/born-ml/thtensor/internal/tensor"
)

func heap() tensor.Option {
	return tensor.WithAllocator(native.NewHeap())
}

func TestDenseRoundTrip(t *testing.T) {
	src, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, heap())
	require.NoError(t, err)
	defer src.Release()

	d, err := ToDense(src)
	require.NoError(t, err)
	assert.Equal(t, gtensor.Float32, d.Dtype())
	assert.Equal(t, []int{2, 3}, []int(d.Shape()))

	v, err := d.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(6), v)

	back, err := FromDense[float32](d, heap())
	require.NoError(t, err)
	defer back.Release()
	assert.Equal(t, tensor.Shape{2, 3}, back.Shape())
	assert.Equal(t, src.Data(), back.Data())
}

func TestToDenseCopies(t *testing.T) {
	src, err := tensor.FromSlice([]float64{1, 2}, tensor.Shape{2}, heap())
	require.NoError(t, err)

	d, err := ToDense(src)
	require.NoError(t, err)
	src.MustSet(9, 0)
	require.NoError(t, src.Release())

	assert.Equal(t, []float64{1, 2}, d.Data())
}

func TestFromDenseConverts(t *testing.T) {
	d := gtensor.New(gtensor.WithShape(2), gtensor.WithBacking([]float64{0.5, -1.5}))

	got, err := FromDense[float32](d, heap())
	require.NoError(t, err)
	defer got.Release()
	assert.Equal(t, []float32{0.5, -1.5}, got.Data())
}

func TestScalar(t *testing.T) {
	src, err := tensor.FromSlice([]float64{2.5}, tensor.Shape{}, heap())
	require.NoError(t, err)
	defer src.Release()

	d, err := ToDense(src)
	require.NoError(t, err)
	assert.True(t, d.IsScalar())

	back, err := FromDense[float64](d, heap())
	require.NoError(t, err)
	defer back.Release()
	assert.Equal(t, 0, back.Dim())
	assert.Equal(t, 2.5, back.MustAt())
}

func TestFromDenseRejectsInts(t *testing.T) {
	d := gtensor.New(gtensor.WithShape(2), gtensor.WithBacking([]int{1, 2}))
	_, err := FromDense[float32](d, heap())
	require.ErrorIs(t, err, ErrUnsupportedDtype)
}

func TestToDenseReleased(t *testing.T) {
	src, err := tensor.FromSlice([]float32{1}, tensor.Shape{1}, heap())
	require.NoError(t, err)
	require.NoError(t, src.Release())

	_, err = ToDense(src)
	require.ErrorIs(t, err, tensor.ErrReleased)
}

func TestFromDenseTransposed(t *testing.T) {
	d := gtensor.New(gtensor.WithShape(2, 3), gtensor.WithBacking([]float32{1, 2, 3, 4, 5, 6}))
	require.NoError(t, d.T())

	want, err := d.At(0, 1)
	require.NoError(t, err)

	got, err := FromDense[float32](d, heap())
	require.NoError(t, err)
	defer got.Release()

	assert.Equal(t, tensor.Shape{3, 2}, got.Shape())
	assert.Equal(t, want, got.MustAt(0, 1))
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, got.Data())
}

func TestFromDenseColumnSlice(t *testing.T) {
	d := gtensor.New(gtensor.WithShape(2, 3), gtensor.WithBacking([]float64{1, 2, 3, 4, 5, 6}))
	view, err := d.Slice(nil, gtensor.S(1))
	require.NoError(t, err)
	col, ok := view.(*gtensor.Dense)
	require.True(t, ok)

	got, err := FromDense[float64](col, heap())
	require.NoError(t, err)
	defer got.Release()

	assert.Equal(t, tensor.Shape{2}, got.Shape())
	assert.Equal(t, []float64{2, 5}, got.Data())
}
