// Package tensor provides float storage and shaped tensors over buffers
// owned by a native allocator.
package tensor

import "unsafe"

// Float is the constraint for storage element types.
type Float interface {
	~float32 | ~float64
}

// DataType represents runtime type information for storages.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// DataTypeOf returns the DataType for T.
func DataTypeOf[T Float]() DataType {
	var dummy T
	if unsafe.Sizeof(dummy) == 4 {
		return Float32
	}
	return Float64
}

// elemSize returns the byte size of one T.
func elemSize[T Float]() int {
	var dummy T
	return int(unsafe.Sizeof(dummy))
}
