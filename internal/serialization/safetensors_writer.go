package serialization

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/born-ml/thtensor/internal/tensor"
)

// ChecksumKey is the metadata key under which the writer records the
// SHA-256 of the data section.
const ChecksumKey = "sha256"

// WriteSafeTensors writes tensors to a SafeTensors file.
//
// Tensors are written in alphabetical order by name. The metadata map is
// stored under "__metadata__" together with the data checksum.
func WriteSafeTensors[T tensor.Float](path string, tensors map[string]*tensor.Tensor[T], metadata map[string]string) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	bw := bufio.NewWriter(file)
	if err := Encode(bw, tensors, metadata); err != nil {
		return err
	}
	return bw.Flush()
}

// Encode writes tensors in SafeTensors layout to w.
func Encode[T tensor.Float](w io.Writer, tensors map[string]*tensor.Tensor[T], metadata map[string]string) error {
	// Sort tensor names alphabetically (SafeTensors requirement)
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	hash := sha256.New()
	dtype := tensor.DataTypeOf[T]()

	var offset int64
	for _, name := range names {
		t := tensors[name]
		data := t.Data()
		if len(data) != t.NumElements() {
			return fmt.Errorf("tensor %s: %w: shape %v over %d elements",
				name, tensor.ErrShapeMismatch, t.Shape(), len(data))
		}
		size := int64(len(data) * dtype.Size())

		shape := make([]int64, t.Dim())
		for i, dim := range t.Shape() {
			shape[i] = int64(dim)
		}
		header[name] = headerEntry{
			DType:       dtypeToSafeTensors(dtype),
			Shape:       shape,
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size

		if err := encodeData(hash, data); err != nil {
			return err
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[ChecksumKey] = hex.EncodeToString(hash.Sum(nil))
	header[MetadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	// Pad with spaces so the data section starts aligned.
	if rem := (HeaderSizeLen + len(headerJSON)) % DataAlignment; rem != 0 {
		headerJSON = append(headerJSON, strings.Repeat(" ", DataAlignment-rem)...)
	}

	// Write header size (8 bytes, little-endian uint64)
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, name := range names {
		if err := encodeData(w, tensors[name].Data()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return nil
}

// encodeData writes data as little-endian bytes in fixed-size chunks.
func encodeData[T tensor.Float](w io.Writer, data []T) error {
	const chunk = 4096
	size := tensor.DataTypeOf[T]().Size()
	buf := make([]byte, 0, chunk*size)
	for len(data) > 0 {
		n := min(chunk, len(data))
		buf = buf[:0]
		for _, v := range data[:n] {
			if size == 4 {
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v)))
			} else {
				buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(float64(v)))
			}
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
