// Package ntfs implements the NTFS backend: boot-sector geometry, MFT
// record and attribute decoding with update-sequence fixup, directory-tree
// construction from FILE_NAME attributes, and read-only data-run resolution
// for unfragmented files.
package ntfs

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-restruct/restruct"

	"github.com/Triszz/Project-2-NTFS-FAT32/checkpoint"
)

// defaultEncoding is the byte order every on-disk NTFS structure uses.
var defaultEncoding = binary.LittleEndian

// These errors may occur while validating an NTFS boot sector.
var (
	ErrNotNTFS      = errors.New("not an NTFS boot sector")
	ErrBadBootBytes = errors.New("boot sector failed validation")
)

// bootSector mirrors the NTFS BIOS Parameter Block extension.
type bootSector struct {
	Jump                [3]byte
	OEMName             [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   uint8
	ReservedSectors     uint16
	Unused0             [3]byte
	Unused1             uint16
	MediaDescriptor     uint8
	Unused2             uint16
	SectorsPerTrack     uint16
	NumHeads            uint16
	HiddenSectors       uint32
	Unused3             uint32
	Unused4             uint32
	TotalSectors        uint64
	MFTCluster          uint64
	MFTMirrorCluster    uint64
	ClustersPerMFTRec   int8
	Unused5             [3]byte
	ClustersPerIndexRec int8
	Unused6             [3]byte
	VolumeSerial        uint64
}

// geometry is the derived layout record.go and attr.go need.
type geometry struct {
	bytesPerSector    uint16
	sectorsPerCluster uint8
	reservedSectors   uint16
	clusterSize       uint32
	mftRecordSize     uint32
	mftStart          int64
	mftMirrorStart    int64
	totalSectors      uint64
	volumeSerial      uint64
}

// parseBootSector validates sector as an NTFS boot sector ("NTFS    " at
// offset 3, 0x55AA signature) and derives cluster/record geometry,
// including the signed-clusters-per-record encoding used when the MFT
// record size isn't a whole number of clusters.
func parseBootSector(sector []byte) (geometry, error) {
	if len(sector) < 512 {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: short boot sector", ErrBadBootBytes))
	}

	if string(sector[3:11]) != "NTFS    " {
		return geometry{}, checkpoint.From(ErrNotNTFS)
	}

	if sector[510] != 0x55 || sector[511] != 0xAA {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: missing 0x55AA signature", ErrBadBootBytes))
	}

	var b bootSector
	if err := restruct.Unpack(sector, defaultEncoding, &b); err != nil {
		return geometry{}, checkpoint.Wrap(err, ErrBadBootBytes)
	}

	switch b.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return geometry{}, checkpoint.From(fmt.Errorf("%w: invalid bytes per sector %d", ErrBadBootBytes, b.BytesPerSector))
	}

	if b.SectorsPerCluster == 0 || b.SectorsPerCluster&(b.SectorsPerCluster-1) != 0 {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: sectors per cluster not a power of two", ErrBadBootBytes))
	}

	clusterSize := uint32(b.SectorsPerCluster) * uint32(b.BytesPerSector)

	var mftRecordSize uint32
	if b.ClustersPerMFTRec < 0 {
		mftRecordSize = 1 << uint(-b.ClustersPerMFTRec)
	} else {
		mftRecordSize = uint32(b.ClustersPerMFTRec) * clusterSize
	}

	if mftRecordSize == 0 {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: zero-sized MFT record", ErrBadBootBytes))
	}

	return geometry{
		bytesPerSector:    b.BytesPerSector,
		sectorsPerCluster: b.SectorsPerCluster,
		reservedSectors:   b.ReservedSectors,
		clusterSize:       clusterSize,
		mftRecordSize:     mftRecordSize,
		mftStart:          int64(b.MFTCluster) * int64(clusterSize),
		mftMirrorStart:    int64(b.MFTMirrorCluster) * int64(clusterSize),
		totalSectors:      b.TotalSectors,
		volumeSerial:      b.VolumeSerial,
	}, nil
}
