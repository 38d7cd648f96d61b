package serialization

import (
	"fmt"

	"github.com/born-ml/thtensor/internal/tensor"
)

// Format constants.
const (
	HeaderSizeLen = 8         // Length prefix of the JSON header
	DataAlignment = 8         // Data section alignment, enough for F64 views
	MetadataKey   = "__metadata__"
)

// Data type strings used in the header.
const (
	DTypeF32 = "F32"
	DTypeF64 = "F64"
)

// headerEntry is one tensor in the JSON header.
type headerEntry struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// TensorInfo describes a tensor stored in a file.
type TensorInfo struct {
	Name  string
	DType tensor.DataType
	Shape tensor.Shape
	Begin int64 // Byte offset of the first element, relative to the data section
	End   int64 // Byte offset one past the last element
}

// Size returns the tensor's size in bytes.
func (ti TensorInfo) Size() int64 {
	return ti.End - ti.Begin
}

// dtypeToSafeTensors converts tensor.DataType to SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeF32
	case tensor.Float64:
		return DTypeF64
	default:
		return ""
	}
}

// safeTensorsToDtype converts a SafeTensors dtype string to tensor.DataType.
func safeTensorsToDtype(s string) (tensor.DataType, error) {
	switch s {
	case DTypeF32:
		return tensor.Float32, nil
	case DTypeF64:
		return tensor.Float64, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedDType, s)
	}
}
