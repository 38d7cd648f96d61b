package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length
)

// ValidateTensorName rejects empty, oversized and NUL-containing names,
// and the reserved metadata key.
func ValidateTensorName(name string) error {
	if name == "" || name == MetadataKey {
		return &ValidationError{
			Err:     ErrInvalidTensorName,
			Tensor:  name,
			Details: "empty or reserved",
		}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Err:     ErrInvalidTensorName,
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}
	if strings.Contains(name, "\x00") {
		return &ValidationError{
			Err:     ErrInvalidTensorName,
			Tensor:  name,
			Details: "contains null byte",
		}
	}
	return nil
}

// ValidateTensorOffsets checks every byte range against its shape and the
// data section, and rejects overlapping ranges.
func ValidateTensorOffsets(infos []TensorInfo, dataSize int64) error {
	if len(infos) > MaxTensorCount {
		return &ValidationError{
			Err:     ErrOutOfBounds,
			Details: fmt.Sprintf("got %d tensors, max %d", len(infos), MaxTensorCount),
		}
	}

	sorted := make([]TensorInfo, len(infos))
	copy(sorted, infos)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Begin != sorted[j].Begin {
			return sorted[i].Begin < sorted[j].Begin
		}
		return sorted[i].End < sorted[j].End
	})

	for i, t := range sorted {
		if t.Begin < 0 || t.End < t.Begin || t.End > dataSize {
			return &ValidationError{
				Err:     ErrOutOfBounds,
				Tensor:  t.Name,
				Details: fmt.Sprintf("range [%d, %d) outside data size %d", t.Begin, t.End, dataSize),
			}
		}
		if err := t.Shape.Validate(); err != nil {
			return &ValidationError{
				Err:     ErrSizeMismatch,
				Tensor:  t.Name,
				Details: err.Error(),
			}
		}
		want := int64(t.Shape.NumElements()) * int64(t.DType.Size())
		if t.Size() != want {
			return &ValidationError{
				Err:     ErrSizeMismatch,
				Tensor:  t.Name,
				Details: fmt.Sprintf("%d bytes for shape %v of %s, want %d", t.Size(), t.Shape, t.DType, want),
			}
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.End > next.Begin {
				return &ValidationError{
					Err:     ErrOffsetOverlap,
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Begin, t.End, next.Begin, next.End),
				}
			}
		}
	}
	return nil
}
