package tensor

import (
	"sync"

	"github.com/born-ml/thtensor/internal/native"
)

// countingAllocator wraps the heap and records native releases.
type countingAllocator struct {
	mu       sync.Mutex
	allocs   int
	releases int
	fill     byte
}

func (c *countingAllocator) Name() string { return "counting" }

func (c *countingAllocator) Zeroed() bool { return c.fill == 0 }

func (c *countingAllocator) Alloc(size int) (*native.Buffer, error) {
	c.mu.Lock()
	c.allocs++
	c.mu.Unlock()

	data := make([]byte, size)
	for i := range data {
		data[i] = c.fill
	}
	return native.NewBuffer(data, c.Name(), native.LoggerFrom(), func([]byte) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.releases++
		return nil
	}), nil
}

func (c *countingAllocator) counts() (allocs, releases int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allocs, c.releases
}
