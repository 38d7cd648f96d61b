package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/born-ml/thtensor/internal/native"
	"github.com/born-ml/thtensor/internal/tensor"
)

// Reader provides memory-mapped access to a SafeTensors file.
// Only the header is parsed on open; tensor data is paged in on demand.
//
// Important: Always call Close() when done to unmap the file (use defer).
type Reader struct {
	file       *os.File
	data       []byte // mmap'd region, private copy-on-write
	size       int64
	dataOffset int64
	infos      map[string]TensorInfo
	names      []string
	metadata   map[string]string
	logger     *slog.Logger

	mu     sync.Mutex
	views  int
	closed bool
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for open, close and view events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// OpenSafeTensors maps the file at path and parses its header.
func OpenSafeTensors(path string, opts ...Option) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.Size() < HeaderSizeLen {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooSmall, stat.Size())
	}

	// Memory map the file (platform-specific implementation)
	data, err := mmapFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	r := &Reader{
		file:   file,
		data:   data,
		size:   stat.Size(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.parseHeader(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	r.logger.Debug("safetensors opened",
		slog.String("path", path), slog.Int("tensors", len(r.names)), slog.Int64("bytes", r.size))
	return r, nil
}

func (r *Reader) parseHeader() error {
	headerSize := binary.LittleEndian.Uint64(r.data[:HeaderSizeLen])
	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}
	headerEnd := int64(HeaderSizeLen) + int64(headerSize) //nolint:gosec // bounded by MaxHeaderSize
	if headerEnd > r.size {
		return fmt.Errorf("%w: header_end=%d, file_size=%d", ErrFileTooSmall, headerEnd, r.size)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(r.data[HeaderSizeLen:headerEnd], &raw); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	r.dataOffset = headerEnd
	r.infos = make(map[string]TensorInfo, len(raw))
	infos := make([]TensorInfo, 0, len(raw))
	for name, msg := range raw {
		if name == MetadataKey {
			if err := json.Unmarshal(msg, &r.metadata); err != nil {
				return fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		info, err := decodeEntry(name, msg)
		if err != nil {
			return err
		}
		r.infos[name] = info
		r.names = append(r.names, name)
		infos = append(infos, info)
	}
	sort.Strings(r.names)

	return ValidateTensorOffsets(infos, r.size-r.dataOffset)
}

func decodeEntry(name string, msg json.RawMessage) (TensorInfo, error) {
	var e headerEntry
	if err := json.Unmarshal(msg, &e); err != nil {
		return TensorInfo{}, fmt.Errorf("tensor %s: %w", name, err)
	}
	dtype, err := safeTensorsToDtype(e.DType)
	if err != nil {
		return TensorInfo{}, fmt.Errorf("tensor %s: %w", name, err)
	}
	shape := make(tensor.Shape, len(e.Shape))
	for i, d := range e.Shape {
		if d < 0 || d > math.MaxInt32 {
			return TensorInfo{}, &ValidationError{
				Err:     ErrSizeMismatch,
				Tensor:  name,
				Details: fmt.Sprintf("extent %d at dim %d", d, i),
			}
		}
		shape[i] = int(d)
	}
	return TensorInfo{
		Name:  name,
		DType: dtype,
		Shape: shape,
		Begin: e.DataOffsets[0],
		End:   e.DataOffsets[1],
	}, nil
}

// Close unmaps and closes the file. It fails with ErrViewsLive while
// storages returned by View are still unreleased. Closing twice is a no-op.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if r.views > 0 {
		return fmt.Errorf("%w: %d", ErrViewsLive, r.views)
	}
	r.closed = true

	var err error
	if r.data != nil {
		err = munmapFile(r.data)
		r.data = nil
	}
	if closeErr := r.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	r.logger.Debug("safetensors closed", slog.String("path", r.file.Name()))
	return err
}

// Names returns the tensor names in alphabetical order.
func (r *Reader) Names() []string {
	return append([]string(nil), r.names...)
}

// Metadata returns the free-form metadata, or nil if the file has none.
func (r *Reader) Metadata() map[string]string {
	return r.metadata
}

// Info returns metadata about a specific tensor.
func (r *Reader) Info(name string) (TensorInfo, error) {
	info, ok := r.infos[name]
	if !ok {
		return TensorInfo{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return info, nil
}

// region returns the mapped bytes of name, capacity-limited.
func (r *Reader) region(name string) (TensorInfo, []byte, error) {
	if r.closed {
		return TensorInfo{}, nil, ErrClosed
	}
	info, err := r.Info(name)
	if err != nil {
		return TensorInfo{}, nil, err
	}
	start := r.dataOffset + info.Begin
	end := r.dataOffset + info.End
	return info, r.data[start:end:end], nil
}

// Checksum computes the SHA-256 of the data section.
func (r *Reader) Checksum() ([32]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return [32]byte{}, ErrClosed
	}
	return sha256.Sum256(r.data[r.dataOffset:]), nil
}

// Verify checks the data section against the checksum recorded in the
// metadata. Files without a recorded checksum verify trivially.
func (r *Reader) Verify() error {
	stored, ok := r.metadata[ChecksumKey]
	if !ok {
		return nil
	}
	sum, err := r.Checksum()
	if err != nil {
		return err
	}
	if err := ValidateChecksum(sum, stored); err != nil {
		return fmt.Errorf("%w: got %s, recorded %s", err, hex.EncodeToString(sum[:]), stored)
	}
	return nil
}

func checkDType[T tensor.Float](info TensorInfo) error {
	if want := tensor.DataTypeOf[T](); info.DType != want {
		return fmt.Errorf("tensor %s: %w: file has %s, requested %s",
			info.Name, ErrDTypeMismatch, info.DType, want)
	}
	return nil
}

// Load copies the named tensor into fresh native storage allocated with
// opts. The result stays valid after the reader is closed.
func Load[T tensor.Float](r *Reader, name string, opts ...tensor.Option) (*tensor.Tensor[T], error) {
	r.mu.Lock()
	info, region, err := r.region(name)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := checkDType[T](info); err != nil {
		return nil, err
	}

	t, err := tensor.SizedTensor[T](info.Shape, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor %s: %w", name, err)
	}
	decodeData(t.Data(), region)
	return t, nil
}

// View returns a tensor whose storage aliases the mapping. Writes to it
// stay private to this process. The reader cannot be closed until every
// view has been released.
func View[T tensor.Float](r *Reader, name string) (*tensor.Tensor[T], error) {
	if !littleEndian() {
		return nil, fmt.Errorf("view %s: host is big endian, use Load", name)
	}

	r.mu.Lock()
	info, region, err := r.region(name)
	if err == nil {
		err = checkDType[T](info)
	}
	var release native.ReleaseFunc
	if err == nil && len(region) > 0 {
		r.views++
		release = r.releaseView
	}
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	buf := native.NewBuffer(region, "safetensors", r.logger, release)
	storage, err := tensor.StorageFromBuffer[T](buf)
	if err != nil {
		_ = buf.Free()
		return nil, fmt.Errorf("view %s: %w", name, err)
	}
	t, err := tensor.FromStorage(storage, info.Shape)
	if err != nil {
		_ = storage.Release()
		return nil, err
	}
	return t, nil
}

func (r *Reader) releaseView([]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views--
	return nil
}

// decodeData fills dst from little-endian src.
func decodeData[T tensor.Float](dst []T, src []byte) {
	if tensor.DataTypeOf[T]() == tensor.Float32 {
		for i := range dst {
			dst[i] = T(math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:])))
		}
		return
	}
	for i := range dst {
		dst[i] = T(math.Float64frombits(binary.LittleEndian.Uint64(src[i*8:])))
	}
}

func littleEndian() bool {
	return binary.NativeEndian.Uint16([]byte{1, 0}) == 1
}
