package diskfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/Triszz/Project-2-NTFS-FAT32/fsmodel"
)

// ErrReadOnly is returned by every mutating afero.Fs method: a Volume only
// ever inspects an existing image, per this package's read-only scope.
var ErrReadOnly = errors.New("diskfs volumes are read-only")

// entryFileInfo adapts an fsmodel.EntryInfo to fs.FileInfo/os.FileInfo.
type entryFileInfo struct {
	entry fsmodel.EntryInfo
}

func (e entryFileInfo) Name() string { return e.entry.Name }
func (e entryFileInfo) Size() int64  { return int64(e.entry.Size) }
func (e entryFileInfo) Mode() os.FileMode {
	if e.entry.IsDir {
		return os.ModeDir | 0555
	}
	return 0444
}
func (e entryFileInfo) ModTime() time.Time { return e.entry.Modified }
func (e entryFileInfo) IsDir() bool        { return e.entry.IsDir }
func (e entryFileInfo) Sys() interface{}   { return e.entry }

// dirEntry adapts entryFileInfo to fs.DirEntry for ReadDir results.
type dirEntry struct {
	entryFileInfo
}

func (d dirEntry) Type() fs.FileMode          { return d.Mode().Type() }
func (d dirEntry) Info() (fs.FileInfo, error) { return d.entryFileInfo, nil }

// FS adapts a Volume to afero.Fs (and, through GoFS, to io/fs.FS), so
// existing code written against either interface (an afero.Walk call, an
// http.FileServer) can browse a FAT32 or NTFS image without caring which.
type FS struct {
	vol *Volume
}

var (
	_ afero.Fs   = (*FS)(nil)
	_ afero.File = (*fsFile)(nil)
)

// NewFS wraps vol for afero.Fs consumers; NewGoFS wraps it for io/fs.FS.
func NewFS(vol *Volume) *FS {
	return &FS{vol: vol}
}

func (f *FS) Name() string { return "diskfs" }

// Open implements afero.Fs.Open; GoFS.Open exposes it as fs.FS.Open.
func (f *FS) Open(name string) (afero.File, error) {
	path := filepath.ToSlash(name)
	entry, err := f.vol.Stat(path)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: toFsErr(err)}
	}

	handle := &fsFile{vol: f.vol, entry: entry, name: path}

	if !entry.IsDir {
		data, err := f.vol.backend.ReadFile(entry)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: toFsErr(err)}
		}
		handle.data = data
	}

	return handle, nil
}

func (f *FS) OpenFile(name string, _ int, _ os.FileMode) (afero.File, error) {
	return f.Open(name)
}

func (f *FS) Stat(name string) (os.FileInfo, error) {
	entry, err := f.vol.Stat(filepath.ToSlash(name))
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: toFsErr(err)}
	}
	return entryFileInfo{entry}, nil
}

func (f *FS) Create(string) (afero.File, error)          { return nil, ErrReadOnly }
func (f *FS) Mkdir(string, os.FileMode) error            { return ErrReadOnly }
func (f *FS) MkdirAll(string, os.FileMode) error         { return ErrReadOnly }
func (f *FS) Remove(string) error                        { return ErrReadOnly }
func (f *FS) RemoveAll(string) error                     { return ErrReadOnly }
func (f *FS) Rename(string, string) error                { return ErrReadOnly }
func (f *FS) Chmod(string, os.FileMode) error            { return ErrReadOnly }
func (f *FS) Chown(string, int, int) error               { return ErrReadOnly }
func (f *FS) Chtimes(string, time.Time, time.Time) error { return ErrReadOnly }

// toFsErr maps the package's lookup-phase sentinels to the stdlib errors
// fs.PathError callers (afero.Walk, http.FileServer) check for.
func toFsErr(err error) error {
	switch {
	case errors.Is(err, fsmodel.ErrNotFound):
		return os.ErrNotExist
	case errors.Is(err, fsmodel.ErrNotADirectory), errors.Is(err, fsmodel.ErrIsDirectory):
		return os.ErrInvalid
	default:
		return err
	}
}

// fsFile is the open-file handle both afero.File and fs.File need.
type fsFile struct {
	vol      *Volume
	entry    fsmodel.EntryInfo
	name     string
	data     []byte
	pos      int64
	children []fsmodel.EntryInfo
	listed   bool
}

func (h *fsFile) Stat() (os.FileInfo, error) { return entryFileInfo{h.entry}, nil }
func (h *fsFile) Close() error               { return nil }

func (h *fsFile) Read(p []byte) (int, error) {
	if h.entry.IsDir {
		return 0, &fs.PathError{Op: "read", Path: h.name, Err: os.ErrInvalid}
	}
	if h.pos >= int64(len(h.data)) {
		return 0, io.EOF
	}
	n := copy(p, h.data[h.pos:])
	h.pos += int64(n)
	return n, nil
}

func (h *fsFile) ReadAt(p []byte, off int64) (int, error) {
	if h.entry.IsDir {
		return 0, &fs.PathError{Op: "read", Path: h.name, Err: os.ErrInvalid}
	}
	if off >= int64(len(h.data)) {
		return 0, io.EOF
	}
	n := copy(p, h.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (h *fsFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		h.pos = offset
	case io.SeekCurrent:
		h.pos += offset
	case io.SeekEnd:
		h.pos = int64(len(h.data)) + offset
	}
	return h.pos, nil
}

func (h *fsFile) Write([]byte) (int, error)          { return 0, ErrReadOnly }
func (h *fsFile) WriteAt([]byte, int64) (int, error) { return 0, ErrReadOnly }
func (h *fsFile) WriteString(string) (int, error)    { return 0, ErrReadOnly }
func (h *fsFile) Truncate(int64) error               { return ErrReadOnly }
func (h *fsFile) Sync() error                        { return nil }

func (h *fsFile) Name() string { return strings.TrimPrefix(h.name, "/") }

func (h *fsFile) ensureChildren() error {
	if h.listed {
		return nil
	}
	entries, err := h.vol.backend.List(h.entry)
	if err != nil {
		return err
	}
	h.children = entries
	h.listed = true
	return nil
}

// Readdir implements afero.File / os.File's directory-listing method.
func (h *fsFile) Readdir(count int) ([]os.FileInfo, error) {
	if err := h.ensureChildren(); err != nil {
		return nil, err
	}
	infos := make([]os.FileInfo, 0, len(h.children))
	for _, c := range h.children {
		infos = append(infos, entryFileInfo{c})
	}
	if count > 0 && count < len(infos) {
		infos = infos[:count]
	}
	return infos, nil
}

func (h *fsFile) Readdirnames(n int) ([]string, error) {
	infos, err := h.Readdir(n)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, fi := range infos {
		names[i] = fi.Name()
	}
	return names, nil
}

// ReadDir implements fs.ReadDirFile, completing this type's fs.FS surface.
func (h *fsFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if err := h.ensureChildren(); err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, 0, len(h.children))
	for _, c := range h.children {
		entries = append(entries, dirEntry{entryFileInfo{c}})
	}
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}

// GoFS wraps FS to satisfy fs.FS, whose Open must return fs.File rather
// than the broader afero.File FS.Open returns.
type GoFS struct {
	*FS
}

// NewGoFS wraps vol for fs.FS consumers (fs.WalkDir, http.FileServerFS).
func NewGoFS(vol *Volume) GoFS {
	return GoFS{NewFS(vol)}
}

func (g GoFS) Open(name string) (fs.File, error) {
	f, err := g.FS.Open(name)
	if err != nil {
		return nil, err
	}
	return f.(*fsFile), nil
}

var _ fs.FS = GoFS{}
