// Package fsmodel holds the types shared between the diskfs facade and the
// fat32/ntfs backends: the value snapshots callers see (EntryInfo,
// GeometryInfo), the Backend contract each filesystem implements, and the
// lookup-phase error sentinels both backends and the facade raise. It exists
// purely to break the import cycle a facade-dispatches-to-backend design
// would otherwise have (diskfs -> fat32 -> diskfs).
package fsmodel

import (
	"errors"
	"time"
)

// These errors may occur during path lookup, shared between the facade's
// PathResolver and both backends' Lookup/ReadFile implementations.
var (
	ErrNotFound      = errors.New("path not found")
	ErrIsDirectory   = errors.New("path is a directory")
	ErrNotADirectory = errors.New("path is not a directory")
)

// EntryInfo is a value snapshot of one directory entry or MFT record,
// returned by List and Stat. Callers never see a live reference into parsed
// buffers - names, flags, size, and location are copied out.
type EntryInfo struct {
	Name         string
	IsDir        bool
	Flags        uint32
	Size         uint64
	Created      time.Time
	Modified     time.Time
	FirstCluster uint32 // FAT32: start cluster. NTFS: MFT record index, truncated to 32 bits.
	Sector       uint64 // Display-only; formula documented per backend in GeometryInfo's owner.
}

// GeometryInfo is the read-only snapshot returned by Volume.Describe. Only
// the fields relevant to the open backend are populated; the rest are zero.
type GeometryInfo struct {
	FSType string // "FAT32   " or "NTFS    ", padded as the on-disk OEM ID is.

	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	VolumeSize        uint64

	// FAT32-specific.
	SectorsPerFAT uint32
	NumFATs         uint8
	RootCluster     uint32
	DataStartSector uint32

	// NTFS-specific.
	SerialNumber     string // formatted XXXX-XXXX, uppercase hex
	MFTCluster       uint64
	MFTMirrorCluster uint64
	RecordSize       uint32
}

// Backend is the filesystem-specific engine a Volume dispatches to. FAT32
// and NTFS each implement it as a tagged variant rather than through a
// shared base type - Volume holds exactly one Backend for the lifetime of
// the open volume.
type Backend interface {
	// Describe returns this backend's geometry.
	Describe() GeometryInfo

	// RootEntry returns the synthetic entry identifying the root directory,
	// usable as the starting point for List/lookups.
	RootEntry() EntryInfo

	// List returns the active entries of the directory identified by dir
	// (as returned by RootEntry or a previous List/Lookup call).
	List(dir EntryInfo) ([]EntryInfo, error)

	// Lookup finds a single entry named name within dir, case-insensitively.
	Lookup(dir EntryInfo, name string) (EntryInfo, error)

	// ReadFile reads up to entry.Size bytes of a non-directory entry's
	// content.
	ReadFile(entry EntryInfo) ([]byte, error)
}
