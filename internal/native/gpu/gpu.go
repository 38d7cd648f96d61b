// Package gpu provides a native allocator backed by host-mapped WebGPU
// buffers. Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO
// WebGPU bindings.
//
// Each allocation is a MapWrite|CopySrc buffer created mapped. The mapped
// range stays valid until the buffer is freed, so storage can address it
// directly and the buffer can later be used as a copy source for uploads.
package gpu

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/born-ml/thtensor/internal/native"
	"github.com/go-webgpu/webgpu/wgpu"
)

// mapAlignment is the WebGPU requirement for mappedAtCreation sizes.
const mapAlignment = 4

// Allocator hands out host-mapped WebGPU buffers.
type Allocator struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device

	mu      sync.Mutex
	buffers map[uintptr]*wgpu.Buffer
	logger  *slog.Logger
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// New acquires a device for allocation.
// Returns native.ErrUnavailable if WebGPU cannot be initialised.
func New(opts ...native.Option) (a *Allocator, err error) {
	defer func() {
		if r := recover(); r != nil {
			a = nil
			err = fmt.Errorf("gpu: %w: native library not available: %v", native.ErrUnavailable, r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("gpu: %w: create instance: %w", native.ErrUnavailable, instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("gpu: %w: request adapter: %w", native.ErrUnavailable, adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("gpu: %w: request device: %w", native.ErrUnavailable, deviceErr)
	}

	return &Allocator{
		instance: instance,
		adapter:  adapter,
		device:   device,
		buffers:  make(map[uintptr]*wgpu.Buffer),
		logger:   native.LoggerFrom(opts...),
	}, nil
}

// Name implements native.Allocator.
func (a *Allocator) Name() string { return "webgpu" }

// Zeroed implements native.Allocator. WebGPU zero-initialises buffers.
func (a *Allocator) Zeroed() bool { return true }

// Alloc implements native.Allocator.
func (a *Allocator) Alloc(size int) (*native.Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("%s: %w: %d", a.Name(), native.ErrNegativeSize, size)
	}
	if size == 0 {
		return native.NewBuffer(nil, a.Name(), a.logger, nil), nil
	}

	//nolint:gosec // G115: size checked non-negative above
	mapped := uint64((size + mapAlignment - 1) &^ (mapAlignment - 1))
	buffer := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageMapWrite | wgpu.BufferUsageCopySrc,
		Size:             mapped,
		MappedAtCreation: wgpu.True,
	})
	if buffer == nil {
		return nil, fmt.Errorf("%s: create buffer of %d bytes failed", a.Name(), mapped)
	}

	ptr := buffer.GetMappedRange(0, mapped)
	if ptr == nil {
		buffer.Release()
		return nil, fmt.Errorf("%s: buffer of %d bytes is not mapped", a.Name(), mapped)
	}
	//nolint:gosec // unsafe.Slice over the mapped range, valid until Unmap
	data := unsafe.Slice((*byte)(ptr), size)

	a.mu.Lock()
	a.buffers[uintptr(ptr)] = buffer
	a.mu.Unlock()

	a.logger.Debug("native buffer allocated", slog.String("allocator", a.Name()), slog.Int("bytes", size))
	return native.NewBuffer(data, a.Name(), a.logger, a.release), nil
}

// release unmaps and releases the WebGPU buffer behind data.
func (a *Allocator) release(data []byte) error {
	key := uintptr(unsafe.Pointer(&data[0]))

	a.mu.Lock()
	buffer, ok := a.buffers[key]
	delete(a.buffers, key)
	a.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: unknown mapping %#x", a.Name(), key)
	}
	buffer.Unmap()
	buffer.Release()
	return nil
}

// Live returns the number of buffers not yet freed.
func (a *Allocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buffers)
}

// Close releases the device. Buffers still live are released first.
func (a *Allocator) Close() {
	a.mu.Lock()
	for key, buffer := range a.buffers {
		buffer.Unmap()
		buffer.Release()
		delete(a.buffers, key)
	}
	a.mu.Unlock()

	if a.device != nil {
		a.device.Release()
		a.device = nil
	}
	if a.adapter != nil {
		a.adapter.Release()
		a.adapter = nil
	}
	if a.instance != nil {
		a.instance.Release()
		a.instance = nil
	}
}
