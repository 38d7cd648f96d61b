package tensor

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/born-ml/thtensor/internal/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heap() Option {
	return WithAllocator(native.NewHeap())
}

func TestSizedTensor(t *testing.T) {
	x, err := SizedTensor[float32](Shape{2, 3}, heap())
	require.NoError(t, err)
	defer x.Release()

	assert.Equal(t, Shape{2, 3}, x.Shape())
	assert.Equal(t, []int{3, 1}, x.Strides())
	assert.Equal(t, 2, x.Dim())
	assert.Equal(t, 6, x.NumElements())
	assert.Equal(t, 6, x.Storage().Len())
	assert.Equal(t, Float32, x.DType())
}

func TestSizedTensorCopiesShape(t *testing.T) {
	shape := Shape{2, 3}
	x, err := SizedTensor[float32](shape, heap())
	require.NoError(t, err)
	defer x.Release()

	shape[0] = 10
	assert.Equal(t, Shape{2, 3}, x.Shape())
}

func TestSizedTensorInvalidShape(t *testing.T) {
	_, err := SizedTensor[float32](Shape{2, -3}, heap())
	require.ErrorIs(t, err, ErrInvalidShape)
}

func TestTensorOffsetRowMajor(t *testing.T) {
	x, err := SizedTensor[float32](Shape{2, 3}, heap())
	require.NoError(t, err)
	defer x.Release()

	tests := []struct {
		idx  []int
		want int
		err  error
	}{
		{[]int{0, 0}, 0, nil},
		{[]int{0, 2}, 2, nil},
		{[]int{1, 0}, 3, nil},
		{[]int{1, 2}, 5, nil},
		{[]int{2, 0}, 0, ErrOutOfBounds},
		{[]int{0, 3}, 0, ErrOutOfBounds},
		{[]int{-1, 0}, 0, ErrOutOfBounds},
		{[]int{1}, 0, ErrArity},
		{[]int{1, 2, 0}, 0, ErrArity},
		{nil, 0, ErrArity},
	}
	for _, tt := range tests {
		got, err := x.Offset(tt.idx...)
		if tt.err != nil {
			require.ErrorIs(t, err, tt.err, "index %v", tt.idx)
			continue
		}
		require.NoError(t, err, "index %v", tt.idx)
		assert.Equal(t, tt.want, got, "index %v", tt.idx)
	}
}

// The extent-scaled accumulation (idx[i]*shape[i]) would send [1,0] of a
// 2x3 tensor to offset 2, colliding with [0,2].
func TestTensorSetAtDistinctCells(t *testing.T) {
	x, err := SizedTensor[float64](Shape{2, 3}, heap())
	require.NoError(t, err)
	defer x.Release()

	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			require.NoError(t, x.Set(float64(10*i+j), i, j))
		}
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			v, err := x.At(i, j)
			require.NoError(t, err)
			assert.Equal(t, float64(10*i+j), v)
		}
	}
	assert.Equal(t, []float64{0, 1, 2, 10, 11, 12}, x.Data())
}

func TestTensorMustAtPanics(t *testing.T) {
	x, err := SizedTensor[float32](Shape{2, 2}, heap())
	require.NoError(t, err)
	defer x.Release()

	x.MustSet(3, 1, 1)
	assert.Equal(t, float32(3), x.MustAt(1, 1))
	assert.Panics(t, func() { x.MustAt(2, 0) })
	assert.Panics(t, func() { x.MustSet(1, 0) })
}

func TestNewTensorIsScalarWithoutStorage(t *testing.T) {
	x, err := NewTensor[float32](heap())
	require.NoError(t, err)
	defer x.Release()

	assert.Equal(t, 0, x.Dim())
	_, err = x.At()
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = x.At(0)
	require.ErrorIs(t, err, ErrArity)
}

func TestScalarTensor(t *testing.T) {
	x, err := SizedTensor[float32](Shape{}, heap())
	require.NoError(t, err)
	defer x.Release()

	require.NoError(t, x.Set(7))
	v, err := x.At()
	require.NoError(t, err)
	assert.Equal(t, float32(7), v)
}

func TestFromStorage(t *testing.T) {
	s, err := SizedStorage[float32](12, heap())
	require.NoError(t, err)

	x, err := FromStorage(s, Shape{3, 4})
	require.NoError(t, err)
	require.NoError(t, x.Set(1, 2, 3))
	v, _ := s.At(11)
	assert.Equal(t, float32(1), v)

	// A smaller shape over a larger storage is allowed.
	y, err := FromStorage(s, Shape{2, 2})
	require.NoError(t, err)
	assert.Len(t, y.Data(), 4)

	_, err = FromStorage(s, Shape{13})
	require.ErrorIs(t, err, ErrShapeMismatch)

	require.NoError(t, x.Release())
	_, err = FromStorage(s, Shape{1})
	require.ErrorIs(t, err, ErrReleased)
}

func TestFromSlice(t *testing.T) {
	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{3, 2}, heap())
	require.NoError(t, err)
	defer x.Release()

	assert.Equal(t, float32(4), x.MustAt(1, 1))

	_, err = FromSlice([]float32{1, 2}, Shape{3}, heap())
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestTensorReleaseExactlyOnce(t *testing.T) {
	alloc := &countingAllocator{}
	x, err := SizedTensor[float32](Shape{4, 4}, WithAllocator(alloc))
	require.NoError(t, err)

	require.NoError(t, x.Release())
	require.NoError(t, x.Release())
	_, releases := alloc.counts()
	assert.Equal(t, 1, releases)

	_, err = x.At(0, 0)
	require.ErrorIs(t, err, ErrReleased)
}

func TestTensorZeroExtent(t *testing.T) {
	x, err := SizedTensor[float32](Shape{0, 5}, heap())
	require.NoError(t, err)
	defer x.Release()

	assert.Equal(t, 0, x.NumElements())
	_, err = x.At(0, 0)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestTensorStringAndLogValue(t *testing.T) {
	x, err := SizedTensor[float64](Shape{2, 3}, heap())
	require.NoError(t, err)
	defer x.Release()

	assert.Equal(t, "Tensor[float64][2 3] on heap", x.String())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("created", slog.Any("tensor", x))
	out := buf.String()
	assert.Contains(t, out, "tensor.dtype=float64")
	assert.Contains(t, out, "tensor.allocator=heap")
	assert.Contains(t, out, "tensor.len=6")
}

func TestFullAndZeros(t *testing.T) {
	alloc := &countingAllocator{fill: 0xff}
	z, err := Zeros[float32](Shape{3}, WithAllocator(alloc))
	require.NoError(t, err)
	defer z.Release()
	assert.Equal(t, []float32{0, 0, 0}, z.Data())

	f, err := Full[float64](Shape{2, 2}, 1.5, heap())
	require.NoError(t, err)
	defer f.Release()
	assert.Equal(t, []float64{1.5, 1.5, 1.5, 1.5}, f.Data())
}
