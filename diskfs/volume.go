package diskfs

import (
	"strings"
	"unicode/utf8"

	"github.com/Triszz/Project-2-NTFS-FAT32/blockio"
	"github.com/Triszz/Project-2-NTFS-FAT32/checkpoint"
	"github.com/Triszz/Project-2-NTFS-FAT32/fat32"
	"github.com/Triszz/Project-2-NTFS-FAT32/fsmodel"
	"github.com/Triszz/Project-2-NTFS-FAT32/ntfs"
)

// Volume is the filesystem-agnostic façade: open a BlockReader once, then
// stat/list/read/chdir by path without the caller ever knowing whether the
// underlying filesystem is FAT32 or NTFS.
//
// A Volume owns its BlockReader and backend for its whole lifetime; it is
// not safe to share across goroutines without external synchronization,
// matching the single-threaded, synchronous design of the backends it
// dispatches to.
type Volume struct {
	br       blockio.BlockReader
	backend  fsmodel.Backend
	resolver *PathResolver
}

// Open reads br's boot sector and selects a backend: FAT32 if bytes
// [0x52:0x5A] of the first sector read "FAT32   ", NTFS if bytes [0x03:0x0B]
// read "NTFS    ". Anything else fails with ErrUnknownFilesystem. Backend
// construction re-validates the full boot sector, so a false-positive
// signature match still surfaces as ErrBadBootSector rather than opening a
// corrupt volume.
func Open(br blockio.BlockReader) (*Volume, error) {
	sector, err := br.ReadAt(0, 512)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrOpenVolume)
	}

	var backend fsmodel.Backend
	switch {
	case string(sector[0x52:0x5A]) == "FAT32   ":
		backend, err = fat32.Open(br)
	case string(sector[0x03:0x0B]) == "NTFS    ":
		backend, err = ntfs.Open(br)
	default:
		return nil, checkpoint.From(ErrUnknownFilesystem)
	}

	if err != nil {
		return nil, checkpoint.Wrap(err, ErrBadBootSector)
	}

	volumeName := strings.TrimSpace(backend.RootEntry().Name)

	return &Volume{
		br:       br,
		backend:  backend,
		resolver: NewPathResolver(backend, volumeName),
	}, nil
}

// Describe returns the volume's geometry, as reported by whichever backend
// is open.
func (v *Volume) Describe() fsmodel.GeometryInfo {
	return v.backend.Describe()
}

// Cwd returns the current working directory as a "/"-joined path.
func (v *Volume) Cwd() string {
	return v.resolver.Cwd()
}

// Chdir changes the current working directory.
func (v *Volume) Chdir(path string) error {
	if path == "" {
		return checkpoint.From(ErrInvalidPath)
	}
	return v.resolver.Chdir(path)
}

// Stat resolves path to the EntryInfo it names.
func (v *Volume) Stat(path string) (fsmodel.EntryInfo, error) {
	if path == "" {
		return fsmodel.EntryInfo{}, checkpoint.From(ErrInvalidPath)
	}
	return v.resolver.Resolve(path)
}

// List resolves path to a directory and returns its entries.
func (v *Volume) List(path string) ([]fsmodel.EntryInfo, error) {
	dir, err := v.Stat(path)
	if err != nil {
		return nil, err
	}
	if !dir.IsDir {
		return nil, fsmodel.ErrNotADirectory
	}
	return v.backend.List(dir)
}

// ReadText resolves path to a file and decodes its full content as UTF-8,
// substituting U+FFFD for any invalid byte sequence rather than failing -
// file content is arbitrary bytes, not guaranteed text, so this is a
// best-effort rendering for display rather than a strict decode.
func (v *Volume) ReadText(path string) (string, error) {
	entry, err := v.Stat(path)
	if err != nil {
		return "", err
	}
	if entry.IsDir {
		return "", fsmodel.ErrIsDirectory
	}

	data, err := v.backend.ReadFile(entry)
	if err != nil {
		return "", err
	}

	return sanitizeUTF8(data), nil
}

// sanitizeUTF8 decodes raw bytes as UTF-8, replacing every invalid sequence
// with U+FFFD instead of rejecting the input.
func sanitizeUTF8(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		b.WriteRune(r)
		data = data[size:]
	}

	return b.String()
}
