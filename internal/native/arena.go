package native

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is the alignment of every arena allocation.
const CacheLineSize = int(unsafe.Sizeof(cpu.CacheLinePad{}))

// ErrArenaBusy is returned when an arena is reset or closed while buffers
// carved from it are still live.
var ErrArenaBusy = errors.New("native: arena has live buffers")

// alignUp rounds size up to the next multiple of CacheLineSize.
func alignUp(size int) int {
	return (size + CacheLineSize - 1) &^ (CacheLineSize - 1)
}

// Arena is a bump allocator over one mapped region. Individual buffers
// are released by Close (or recycled by Reset), never one at a time.
type Arena struct {
	mu     sync.Mutex
	region []byte
	off    int
	live   int
	closed bool
	logger *slog.Logger
}

// NewArena maps capacity bytes (rounded up to a cache line) for bump
// allocation.
func NewArena(capacity int, opts ...Option) (*Arena, error) {
	if err := checkSize("arena", capacity); err != nil {
		return nil, err
	}
	capacity = alignUp(capacity)
	var region []byte
	if capacity > 0 {
		var err error
		if region, err = mapAnon(capacity); err != nil {
			return nil, fmt.Errorf("arena: map %d bytes: %w", capacity, err)
		}
	}
	return &Arena{region: region, logger: applyOptions(opts).logger}, nil
}

// Name implements Allocator.
func (a *Arena) Name() string { return "arena" }

// Zeroed implements Allocator. Reset does not clear recycled memory.
func (a *Arena) Zeroed() bool { return false }

// Cap returns the mapped capacity in bytes.
func (a *Arena) Cap() int { return len(a.region) }

// Used returns the number of bytes handed out, including alignment padding.
func (a *Arena) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.off
}

// Alloc implements Allocator.
func (a *Arena) Alloc(size int) (*Buffer, error) {
	if err := checkSize(a.Name(), size); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, fmt.Errorf("%s: %w", a.Name(), ErrFreed)
	}
	if size == 0 {
		return NewBuffer(nil, a.Name(), a.logger, nil), nil
	}
	end := a.off + alignUp(size)
	if end > len(a.region) {
		return nil, fmt.Errorf("%s: %w: need %d bytes, %d free", a.Name(), ErrArenaExhausted, size, len(a.region)-a.off)
	}
	data := a.region[a.off : a.off+size : a.off+size]
	a.off = end
	a.live++
	return NewBuffer(data, a.Name(), a.logger, a.giveBack), nil
}

// giveBack marks one buffer as dead. The memory stays mapped.
func (a *Arena) giveBack(_ []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.live--
	return nil
}

// Reset recycles the whole region. All buffers must have been freed.
func (a *Arena) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.live > 0 {
		return fmt.Errorf("%s reset: %w (%d)", a.Name(), ErrArenaBusy, a.live)
	}
	a.off = 0
	return nil
}

// Close unmaps the region. All buffers must have been freed.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	if a.live > 0 {
		return fmt.Errorf("%s close: %w (%d)", a.Name(), ErrArenaBusy, a.live)
	}
	a.closed = true
	region := a.region
	a.region = nil
	if len(region) == 0 {
		return nil
	}
	return unmap(region)
}
