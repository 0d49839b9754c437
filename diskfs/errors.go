// Package diskfs is the filesystem-agnostic facade over the FAT32 and NTFS
// backends: it owns path resolution, dispatches boot-sector detection to the
// right backend, and exposes the read-only Volume contract that external
// collaborators (a GUI, a CLI) are written against.
package diskfs

import "errors"

// These errors may occur while opening a volume, before any backend exists
// to report a lookup-phase error of its own (see fsmodel for those).
var (
	ErrUnknownFilesystem = errors.New("not a recognized FAT32 or NTFS volume")
	ErrBadBootSector     = errors.New("boot sector failed validation")
	ErrInvalidPath       = errors.New("invalid path")
	ErrOpenVolume        = errors.New("could not open volume")
)
