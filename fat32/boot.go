// Package fat32 implements the FAT32 backend: boot-sector geometry,
// cluster-chain following, directory-entry decoding with long-filename
// composition, and read-only file content assembly.
package fat32

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Triszz/Project-2-NTFS-FAT32/checkpoint"
)

// These errors may occur while validating a FAT32 boot sector.
var (
	ErrNotFAT32     = errors.New("not a FAT32 boot sector")
	ErrBadBootBytes = errors.New("boot sector failed validation")
)

// bpb mirrors the BIOS Parameter Block common to every FAT revision. Bytes
// 36..89 hold either FAT16SpecificData or, for FAT32, fat32SpecificData.
type bpb struct {
	BSJumpBoot          [3]byte
	BSOEMName           [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   byte
	ReservedSectorCount uint16
	NumFATs             byte
	RootEntryCount      uint16
	TotalSectors16      uint16
	Media               byte
	FATSize16           uint16
	SectorsPerTrack     uint16
	NumberOfHeads       uint16
	HiddenSectors       uint32
	TotalSectors32      uint32
	FATSpecificData     [54]byte
}

// fat32SpecificData is the FAT32-only tail of the boot sector, overlaying
// bpb.FATSpecificData once FATSize16 is 0.
type fat32SpecificData struct {
	FATSize          uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfo           uint16
	BkBootSector     uint16
	Reserved         [12]byte
	BSDriveNumber    byte
	BSReserved1      byte
	BSBootSig        byte
	BSVolumeID       uint32
	BSVolumeLabel    [11]byte
	BSFileSystemType [8]byte
}

// geometry holds the derived layout a FatTable and directory reader need,
// computed once in parseBootSector.
type geometry struct {
	bytesPerSector    uint16
	sectorsPerCluster uint8
	reservedSectors   uint16
	numFATs           uint8
	sectorsPerFAT     uint32
	rootCluster       uint32
	firstDataSector   uint32
	volumeLabel       string
	volumeSerial      uint32
	totalSectors      uint32
}

// parseBootSector reads and validates the first sector of a volume as a
// FAT32 boot sector, returning the derived geometry. Validation covers the
// jump instruction, sector size, cluster size, reserved/FAT counts, media
// byte and the 0x55 0xAA signature, plus FAT32's own
// root-entry-count-must-be-0 and non-zero FATSize32 requirements.
func parseBootSector(sector []byte) (geometry, error) {
	var b bpb
	if err := binary.Read(bytes.NewReader(sector), binary.LittleEndian, &b); err != nil {
		return geometry{}, checkpoint.Wrap(err, ErrBadBootBytes)
	}

	if !(b.BSJumpBoot[0] == 0xEB && b.BSJumpBoot[2] == 0x90) && b.BSJumpBoot[0] != 0xE9 {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: no valid jump instruction", ErrBadBootBytes))
	}

	switch b.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return geometry{}, checkpoint.From(fmt.Errorf("%w: invalid bytes per sector %d", ErrBadBootBytes, b.BytesPerSector))
	}

	if b.SectorsPerCluster == 0 || b.SectorsPerCluster&(b.SectorsPerCluster-1) != 0 {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: sectors per cluster not a power of two", ErrBadBootBytes))
	}

	if b.ReservedSectorCount == 0 {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: reserved sector count is 0", ErrBadBootBytes))
	}

	if b.NumFATs < 1 {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: FAT count is 0", ErrBadBootBytes))
	}

	if b.Media != 0xF0 && !(b.Media >= 0xF8 && b.Media <= 0xFF) {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: invalid media byte 0x%02X", ErrBadBootBytes, b.Media))
	}

	if sector[510] != 0x55 || sector[511] != 0xAA {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: missing 0x55AA signature", ErrBadBootBytes))
	}

	if b.FATSize16 != 0 || b.RootEntryCount != 0 {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: FAT16-shaped BPB, not FAT32", ErrNotFAT32))
	}

	var f32 fat32SpecificData
	if err := binary.Read(bytes.NewReader(b.FATSpecificData[:]), binary.LittleEndian, &f32); err != nil {
		return geometry{}, checkpoint.Wrap(err, ErrBadBootBytes)
	}

	if f32.FATSize == 0 {
		return geometry{}, checkpoint.From(fmt.Errorf("%w: FATSize32 is 0", ErrBadBootBytes))
	}

	totalSectors := b.TotalSectors32
	if totalSectors == 0 {
		totalSectors = uint32(b.TotalSectors16)
	}

	firstDataSector := uint32(b.ReservedSectorCount) + uint32(b.NumFATs)*f32.FATSize

	return geometry{
		bytesPerSector:    b.BytesPerSector,
		sectorsPerCluster: b.SectorsPerCluster,
		reservedSectors:   b.ReservedSectorCount,
		numFATs:           b.NumFATs,
		sectorsPerFAT:     f32.FATSize,
		rootCluster:       f32.RootCluster,
		firstDataSector:   firstDataSector,
		volumeLabel:       string(f32.BSVolumeLabel[:]),
		volumeSerial:      f32.BSVolumeID,
		totalSectors:      totalSectors,
	}, nil
}
