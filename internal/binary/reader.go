// Package binary provides bounds-checked big-endian reading and writing
// primitives for MP4 atom payloads.
package binary

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/simonhull/mp4meta/internal/types"
)

// SafeReader wraps io.ReaderAt with bounds checking. Every read is validated
// against the total source size before touching the underlying reader, so a
// corrupt size field can never trigger a read (or an allocation sized) past
// the end of the source.
type SafeReader struct {
	r    io.ReaderAt
	path string
	size int64
}

// NewSafeReader creates a new SafeReader.
func NewSafeReader(r io.ReaderAt, size int64, path string) *SafeReader {
	return &SafeReader{
		r:    r,
		size: size,
		path: path,
	}
}

// Path returns the source path associated with this reader.
func (sr *SafeReader) Path() string {
	return sr.path
}

// Size returns the total size of the source in bytes.
func (sr *SafeReader) Size() int64 {
	return sr.size
}

// ReadAt reads len(b) bytes at the given offset. The what string names the
// field being read for error messages.
func (sr *SafeReader) ReadAt(b []byte, off int64, what string) error {
	if off < 0 || off > sr.size || int64(len(b)) > sr.size-off {
		return &types.TruncatedError{
			Path:   sr.path,
			What:   what,
			Offset: off,
			Need:   int64(len(b)),
			Have:   max(sr.size-off, 0),
		}
	}

	n, err := sr.r.ReadAt(b, off)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%s: read %s at offset %d: %w", sr.path, what, off, err)
	}
	if n < len(b) {
		return &types.TruncatedError{
			Path:   sr.path,
			What:   what,
			Offset: off,
			Need:   int64(len(b)),
			Have:   int64(n),
		}
	}
	return nil
}

// ReadBytes allocates and reads n bytes at the given offset. The bounds
// check runs before the allocation, so n must already be scope-validated
// only to avoid a pointless error, never to stay within memory limits.
func (sr *SafeReader) ReadBytes(off, n int64, what string) ([]byte, error) {
	if off < 0 || off > sr.size || n > sr.size-off {
		return nil, &types.TruncatedError{
			Path:   sr.path,
			What:   what,
			Offset: off,
			Need:   n,
			Have:   max(sr.size-off, 0),
		}
	}
	b := make([]byte, n)
	if err := sr.ReadAt(b, off, what); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteSection copies n bytes starting at off to the given writer without
// buffering the whole section in memory.
func (sr *SafeReader) WriteSection(w io.Writer, off, n int64, what string) error {
	if off < 0 || off > sr.size || n > sr.size-off {
		return &types.TruncatedError{
			Path:   sr.path,
			What:   what,
			Offset: off,
			Need:   n,
			Have:   max(sr.size-off, 0),
		}
	}
	written, err := io.Copy(w, io.NewSectionReader(sr.r, off, n))
	if err != nil {
		return fmt.Errorf("%s: copy %s at offset %d: %w", sr.path, what, off, err)
	}
	if written < n {
		return &types.TruncatedError{
			Path:   sr.path,
			What:   what,
			Offset: off,
			Need:   n,
			Have:   written,
		}
	}
	return nil
}

// Read reads a big-endian value of type T from the given offset.
func Read[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	var zero T

	buf := make([]byte, sizeOf(zero))
	if err := sr.ReadAt(buf, off, what); err != nil {
		return zero, err
	}

	var val T
	switch any(zero).(type) {
	case uint8:
		val = T(buf[0])
	case uint16:
		val = T(binary.BigEndian.Uint16(buf))
	case uint32:
		val = T(binary.BigEndian.Uint32(buf))
	case uint64:
		val = T(binary.BigEndian.Uint64(buf))
	}
	return val, nil
}

func sizeOf[T uint8 | uint16 | uint32 | uint64](zero T) int {
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// Reader provides sequential reading with automatic offset tracking.
type Reader struct {
	*SafeReader
	offset int64
}

// NewReader creates a new Reader starting at the given offset.
func NewReader(sr *SafeReader, offset int64) *Reader {
	return &Reader{
		SafeReader: sr,
		offset:     offset,
	}
}

// ReadValue reads a big-endian value and advances the offset.
func ReadValue[T uint8 | uint16 | uint32 | uint64](r *Reader, what string) (T, error) {
	val, err := Read[T](r.SafeReader, r.offset, what)
	if err != nil {
		var zero T
		return zero, err
	}

	var zero T
	r.offset += int64(sizeOf(zero))
	return val, nil
}

// ReadString reads a string of the given length and advances the offset.
func (r *Reader) ReadString(length int64, what string) (string, error) {
	buf, err := r.SafeReader.ReadBytes(r.offset, length, what)
	if err != nil {
		return "", err
	}
	r.offset += length
	return string(buf), nil
}

// ReadBytes reads length bytes and advances the offset.
func (r *Reader) ReadBytes(length int64, what string) ([]byte, error) {
	buf, err := r.SafeReader.ReadBytes(r.offset, length, what)
	if err != nil {
		return nil, err
	}
	r.offset += length
	return buf, nil
}

// Skip advances the offset by n bytes without reading.
func (r *Reader) Skip(n int64) {
	r.offset += n
}

// Offset returns the current offset.
func (r *Reader) Offset() int64 {
	return r.offset
}
