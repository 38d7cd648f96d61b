// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides float storages and tensors over native buffers.
//
// # Overview
//
// A Storage owns one buffer obtained from an Allocator: the Go heap, an
// anonymous mmap, C malloc or a caller-supplied arena or GPU allocator. A
// Tensor owns a Storage and addresses it through a shape and row-major
// strides.
//
// # Basic Usage
//
//	import "github.com/born-ml/thtensor/tensor"
//
//	func main() {
//	    x, err := tensor.Randn[float32](tensor.Shape{2, 3}, tensor.NewGenerator(1))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer x.Release()
//
//	    off, _ := x.Offset(1, 2) // 5
//	    v, _ := x.At(1, 2)
//	}
//
// # Indexing
//
// Offset, At and Set return an *IndexError instead of panicking. It
// matches ErrArity when the index has the wrong number of coordinates and
// ErrOutOfBounds when a coordinate is negative or not below its extent:
//
//	if _, err := x.At(2, 0); errors.Is(err, tensor.ErrOutOfBounds) {
//	    ...
//	}
//
// MustAt and MustSet panic with the same error.
//
// # Memory
//
// Release frees the native buffer exactly once and is the only way its
// memory is returned. Slices from Data or Storage.Slice alias the buffer
// and must not be used after Release. A tensor dropped without Release is
// logged as a leak and its buffer stays allocated.
package tensor
