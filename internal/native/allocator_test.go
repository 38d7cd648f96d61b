package native

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAlloc(t *testing.T) {
	h := NewHeap()
	buf, err := h.Alloc(32)
	require.NoError(t, err)

	assert.Equal(t, 32, buf.Len())
	assert.Equal(t, "heap", buf.Owner())
	for _, b := range buf.Bytes() {
		assert.Zero(t, b)
	}

	require.NoError(t, buf.Free())
	assert.True(t, buf.Freed())
	assert.Nil(t, buf.Bytes())
	assert.Equal(t, 0, buf.Len())

	// Second free is a no-op.
	require.NoError(t, buf.Free())
}

func TestNegativeSize(t *testing.T) {
	allocators := []Allocator{NewHeap()}
	if m, err := NewMmap(); err == nil {
		allocators = append(allocators, m)
	}
	if m, err := NewMalloc(); err == nil {
		allocators = append(allocators, m)
	}

	for _, a := range allocators {
		t.Run(a.Name(), func(t *testing.T) {
			_, err := a.Alloc(-1)
			require.ErrorIs(t, err, ErrNegativeSize)
		})
	}
}

func TestBufferFreeOnce(t *testing.T) {
	calls := 0
	buf := NewBuffer(make([]byte, 8), "test", LoggerFrom(), func([]byte) error {
		calls++
		return nil
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, buf.Free())
	}
	assert.Equal(t, 1, calls)
}

func TestBufferFreeErrorIsSticky(t *testing.T) {
	boom := errors.New("boom")
	buf := NewBuffer(make([]byte, 8), "test", LoggerFrom(), func([]byte) error {
		return boom
	})

	require.ErrorIs(t, buf.Free(), boom)
	require.ErrorIs(t, buf.Free(), boom)
}

func TestEmptyBufferSkipsRelease(t *testing.T) {
	buf := NewBuffer(nil, "test", LoggerFrom(), func([]byte) error {
		t.Fatal("release called for empty buffer")
		return nil
	})
	require.NoError(t, buf.Free())
}

func TestMmapAlloc(t *testing.T) {
	m, err := NewMmap()
	if err != nil {
		t.Skipf("mmap allocator unavailable: %v", err)
	}
	assert.True(t, m.Zeroed())

	buf, err := m.Alloc(4096 + 3)
	require.NoError(t, err)
	data := buf.Bytes()
	require.Len(t, data, 4099)
	for _, b := range data {
		require.Zero(t, b)
	}
	data[4098] = 7
	assert.Equal(t, byte(7), buf.Bytes()[4098])

	require.NoError(t, buf.Free())
	require.NoError(t, buf.Free())

	empty, err := m.Alloc(0)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	require.NoError(t, empty.Free())
}

func TestLookup(t *testing.T) {
	a, err := Lookup("heap")
	require.NoError(t, err)
	assert.Equal(t, "heap", a.Name())

	a, err = Lookup("")
	require.NoError(t, err)
	assert.NotNil(t, a)

	_, err = Lookup("tcmalloc")
	require.Error(t, err)
}
