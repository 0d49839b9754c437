package blockio

import (
	"io"
	"sync"

	"github.com/xaionaro-go/bytesextra"
)

// seekReaderAt adapts an io.ReadSeeker lacking a native ReadAt into one by
// serializing seek+read pairs behind a mutex. bytesextra's in-memory
// ReadWriteSeeker is cheap to seek, so this costs nothing beyond the lock.
type seekReaderAt struct {
	mu sync.Mutex
	rs io.ReadSeeker
}

func (s *seekReaderAt) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(s.rs, p)
}

// FromBytes wraps an already-loaded disk image as a BlockReader, for callers
// that have a full image in memory instead of an *os.File - synthetic test
// volumes being the common case.
func FromBytes(image []byte) BlockReader {
	rws := bytesextra.NewReadWriteSeeker(image)
	return New(&seekReaderAt{rs: rws}, int64(len(image)))
}
