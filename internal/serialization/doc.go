// Package serialization reads and writes tensors in the SafeTensors format.
//
//	Format Structure:
//	  [8 bytes: Header Size N (uint64 LE)]
//	  [N bytes: JSON header, space padded so the data section is 8-byte aligned]
//	  [Tensor data: raw little-endian bytes]
//
// The JSON header maps each tensor name to its dtype, shape and
// [begin, end) byte range inside the data section. The optional
// "__metadata__" entry holds free-form string pairs.
//
// Reading goes through a memory mapping of the file. Load copies a tensor
// into fresh native storage; View returns a storage over the mapping
// itself, valid until the reader is closed.
//
// Example usage:
//
//	// Save
//	err := serialization.WriteSafeTensors("model.safetensors", model.StateDict(), nil)
//
//	// Load
//	r, err := serialization.OpenSafeTensors("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	w, err := serialization.Load[float32](r, "0.weight")
package serialization
