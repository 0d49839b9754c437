// Package blockio provides the positioned, byte-addressable primitive that
// every filesystem backend reads through: a single "read N bytes at offset"
// call, with no hidden cursor exposed to callers.
package blockio

import (
	"errors"
	"fmt"
	"io"
)

// These errors may occur while reading from a volume's underlying block
// device or image.
var (
	ErrShort = errors.New("short read from block device")
	ErrRange = errors.New("read past end of volume")
)

// BlockReader is a positioned byte-addressable reader over a volume. It is
// the only primitive the rest of this module uses to touch storage: read N
// bytes at an absolute byte offset. Implementations must not retain any
// cursor state between calls.
type BlockReader interface {
	// ReadAt reads exactly length bytes starting at the given absolute byte
	// offset. It fails with an error wrapping ErrRange if offset+length
	// exceeds the volume size, or ErrShort if fewer bytes than requested
	// could be read for any other reason.
	ReadAt(offset int64, length int) ([]byte, error)

	// Size returns the total size of the volume in bytes.
	Size() int64
}

// reader adapts an io.ReaderAt plus a known size into a BlockReader.
type reader struct {
	ra   io.ReaderAt
	size int64
}

// New wraps an io.ReaderAt of known size as a BlockReader. Use this to open
// a raw device or disk image that has already been opened for reading
// elsewhere (os.Open, a test fixture, a caller-managed handle) - this
// package never opens anything itself.
func New(ra io.ReaderAt, size int64) BlockReader {
	return &reader{ra: ra, size: size}
}

func (r *reader) Size() int64 {
	return r.size
}

func (r *reader) ReadAt(offset int64, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+int64(length) > r.size {
		return nil, fmt.Errorf("%w: offset %d length %d volume size %d", ErrRange, offset, length, r.size)
	}

	buf := make([]byte, length)
	n, err := r.ra.ReadAt(buf, offset)
	if err != nil && !(err == io.EOF && n == length) {
		return nil, fmt.Errorf("%w: offset %d length %d: %v", ErrShort, offset, length, err)
	}
	if n != length {
		return nil, fmt.Errorf("%w: offset %d wanted %d got %d", ErrShort, offset, length, n)
	}

	return buf, nil
}
