package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandnIsSeeded(t *testing.T) {
	a, err := Randn[float32](Shape{4, 5}, NewGenerator(42), heap())
	require.NoError(t, err)
	defer a.Release()
	b, err := Randn[float32](Shape{4, 5}, NewGenerator(42), heap())
	require.NoError(t, err)
	defer b.Release()
	c, err := Randn[float32](Shape{4, 5}, NewGenerator(43), heap())
	require.NoError(t, err)
	defer c.Release()

	assert.Equal(t, a.Data(), b.Data())
	assert.NotEqual(t, a.Data(), c.Data())
}

func TestRandnMoments(t *testing.T) {
	x, err := Randn[float64](Shape{100, 100}, NewGenerator(7), heap())
	require.NoError(t, err)
	defer x.Release()

	var sum, sumSq float64
	for _, v := range x.Data() {
		sum += v
		sumSq += v * v
	}
	n := float64(x.NumElements())
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)

	assert.InDelta(t, 0, mean, 0.05)
	assert.InDelta(t, 1, std, 0.05)
}

func TestRandRange(t *testing.T) {
	x, err := Rand[float32](Shape{1000}, NewGenerator(1), heap())
	require.NoError(t, err)
	defer x.Release()

	for _, v := range x.Data() {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(1))
	}
}

func TestRandnNilGenerator(t *testing.T) {
	x, err := Randn[float32](Shape{8}, nil, heap())
	require.NoError(t, err)
	defer x.Release()
	assert.Len(t, x.Data(), 8)
}
