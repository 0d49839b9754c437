package ntfs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Triszz/Project-2-NTFS-FAT32/blockio"
	"github.com/Triszz/Project-2-NTFS-FAT32/checkpoint"
	"github.com/Triszz/Project-2-NTFS-FAT32/fsmodel"
)

// ErrOpen wraps failures while opening a volume as NTFS.
var ErrOpen = errors.New("could not open NTFS volume")

// Backend is the NTFS implementation of fsmodel.Backend.
type Backend struct {
	br   blockio.BlockReader
	geo  geometry
	tree *DirectoryTree
}

// Open validates br's first sector as an NTFS boot sector, scans the MFT
// and builds the directory tree. The diskfs facade only calls this after
// matching the NTFS signature bytes, so a failure here means a corrupt
// NTFS volume, not some other filesystem.
func Open(br blockio.BlockReader) (*Backend, error) {
	sector, err := br.ReadAt(0, 512)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrOpen)
	}

	geo, err := parseBootSector(sector)
	if err != nil {
		return nil, err
	}

	scanner := newRecordScanner(br, geo)

	recordCount, err := mftRecordCount(scanner, br.Size(), geo)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrOpen)
	}

	tree, err := buildTree(scanner, recordCount)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrOpen)
	}

	return &Backend{br: br, geo: geo, tree: tree}, nil
}

// mftRecordCount derives how many MFT records to scan from the $MFT
// record's own DATA attribute size, falling back to the volume size if
// that record can't be read.
func mftRecordCount(scanner *RecordScanner, volumeSize int64, geo geometry) (uint64, error) {
	mftSelf, err := scanner.Read(0)
	if err == nil && mftSelf.DataSize > 0 {
		return mftSelf.DataSize / uint64(geo.mftRecordSize), nil
	}

	return uint64(volumeSize) / uint64(geo.mftRecordSize), nil
}

// Diagnostics returns the non-fatal MFT scan errors accumulated while
// opening this volume, or nil if the scan was clean.
func (b *Backend) Diagnostics() error {
	return b.tree.Diagnostics()
}

// Describe implements fsmodel.Backend.
func (b *Backend) Describe() fsmodel.GeometryInfo {
	return fsmodel.GeometryInfo{
		FSType:            "NTFS    ",
		BytesPerSector:    b.geo.bytesPerSector,
		SectorsPerCluster: b.geo.sectorsPerCluster,
		ReservedSectors:   b.geo.reservedSectors,
		VolumeSize:        b.geo.totalSectors * uint64(b.geo.bytesPerSector),
		SerialNumber:      fmt.Sprintf("%04X-%04X", b.geo.volumeSerial>>16&0xFFFF, b.geo.volumeSerial&0xFFFF),
		MFTCluster:        uint64(b.geo.mftStart) / uint64(b.geo.clusterSize),
		MFTMirrorCluster:  uint64(b.geo.mftMirrorStart) / uint64(b.geo.clusterSize),
		RecordSize:        b.geo.mftRecordSize,
	}
}

// RootEntry implements fsmodel.Backend.
func (b *Backend) RootEntry() fsmodel.EntryInfo {
	return fsmodel.EntryInfo{
		IsDir:        true,
		FirstCluster: uint32(b.tree.Root()),
	}
}

// List implements fsmodel.Backend.
func (b *Backend) List(dir fsmodel.EntryInfo) ([]fsmodel.EntryInfo, error) {
	if !dir.IsDir {
		return nil, fsmodel.ErrNotADirectory
	}
	return b.tree.list(uint64(dir.FirstCluster)), nil
}

// Lookup implements fsmodel.Backend. NTFS names are matched
// case-insensitively here, mirroring the case-insensitive default collation
// Windows itself applies to NTFS names.
func (b *Backend) Lookup(dir fsmodel.EntryInfo, name string) (fsmodel.EntryInfo, error) {
	entries, err := b.List(dir)
	if err != nil {
		return fsmodel.EntryInfo{}, err
	}

	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}

	return fsmodel.EntryInfo{}, fmt.Errorf("%w: %s", fsmodel.ErrNotFound, name)
}

// ReadFile implements fsmodel.Backend. Only resident data and
// single-run non-resident data are supported; a fragmented file's data
// fails with ErrFragmentedUnsupported.
func (b *Backend) ReadFile(entry fsmodel.EntryInfo) ([]byte, error) {
	if entry.IsDir {
		return nil, fsmodel.ErrIsDirectory
	}

	rec, ok := b.tree.recordAt(uint64(entry.FirstCluster))
	if !ok {
		return nil, fmt.Errorf("%w: record %d", fsmodel.ErrNotFound, entry.FirstCluster)
	}

	if rec.DataSize == 0 {
		return []byte{}, nil
	}

	if rec.Fragmented {
		return nil, checkpoint.From(ErrFragmentedUnsupported)
	}

	if len(rec.DataRuns) == 0 {
		return rec.DataResident, nil
	}

	run := rec.DataRuns[0]
	offset := run.StartLCN * int64(b.geo.clusterSize)

	data, err := b.br.ReadAt(offset, int(run.Length)*int(b.geo.clusterSize))
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrOpen)
	}

	if uint64(len(data)) > rec.DataSize {
		data = data[:rec.DataSize]
	}
	return data, nil
}
