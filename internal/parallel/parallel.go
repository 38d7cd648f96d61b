// Package parallel splits element-wise loops over worker goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum elements per goroutine to avoid overhead.
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 16 << 10,
	}
}

// Range calls f on disjoint half-open chunks covering [0, n).
// Chunks run concurrently unless parallelism is disabled or n is below
// two chunks' worth, in which case f(0, n) runs on the caller.
func Range(n int, cfg Config, f func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2*cfg.MinChunkSize {
		f(0, n)
		return
	}

	chunk := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(lo, hi)
		}()
	}
	wg.Wait()
}

// Map writes op(src[i]) to dst[i] for every i < len(dst).
func Map[T any](dst, src []T, cfg Config, op func(T) T) {
	Range(len(dst), cfg, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = op(src[i])
		}
	})
}

// Zip writes op(a[i], b[i]) to dst[i] for every i < len(dst).
func Zip[T any](dst, a, b []T, cfg Config, op func(x, y T) T) {
	Range(len(dst), cfg, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = op(a[i], b[i])
		}
	})
}
