package fat32

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Triszz/Project-2-NTFS-FAT32/blockio"
	"github.com/Triszz/Project-2-NTFS-FAT32/checkpoint"
	"github.com/Triszz/Project-2-NTFS-FAT32/fsmodel"
)

// ErrOpen wraps failures while opening a volume as FAT32.
var ErrOpen = errors.New("could not open FAT32 volume")

// Backend is the FAT32 implementation of fsmodel.Backend.
type Backend struct {
	br       blockio.BlockReader
	geo      geometry
	table    *FatTable
	dirCache *directoryCache
}

// Open validates br's first sector as a FAT32 boot sector and returns a
// ready Backend. The diskfs facade only calls this after matching the
// FAT32 signature bytes, so a failure here means a corrupt FAT32 volume,
// not some other filesystem.
func Open(br blockio.BlockReader) (*Backend, error) {
	sector, err := br.ReadAt(0, 512)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrOpen)
	}

	geo, err := parseBootSector(sector)
	if err != nil {
		return nil, err
	}

	return &Backend{
		br:       br,
		geo:      geo,
		table:    newFatTable(br, geo),
		dirCache: newDirectoryCache(),
	}, nil
}

// Describe implements fsmodel.Backend.
func (b *Backend) Describe() fsmodel.GeometryInfo {
	return fsmodel.GeometryInfo{
		FSType:            "FAT32   ",
		BytesPerSector:    b.geo.bytesPerSector,
		SectorsPerCluster: b.geo.sectorsPerCluster,
		VolumeSize:        uint64(b.geo.totalSectors) * uint64(b.geo.bytesPerSector),
		ReservedSectors:   b.geo.reservedSectors,
		SectorsPerFAT:     b.geo.sectorsPerFAT,
		NumFATs:           b.geo.numFATs,
		RootCluster:       b.geo.rootCluster,
		DataStartSector:   b.geo.firstDataSector,
	}
}

// RootEntry implements fsmodel.Backend. FAT32 has no fixed root sector; the
// root directory is just another cluster chain.
func (b *Backend) RootEntry() fsmodel.EntryInfo {
	return fsmodel.EntryInfo{
		Name:         strings.TrimRight(b.geo.volumeLabel, " "),
		IsDir:        true,
		FirstCluster: b.geo.rootCluster,
	}
}

// List implements fsmodel.Backend. Decoded directories are cached by their
// first cluster, so a directory walked once by List or Lookup is read and
// parsed only once per Backend lifetime.
func (b *Backend) List(dir fsmodel.EntryInfo) ([]fsmodel.EntryInfo, error) {
	if !dir.IsDir {
		return nil, fsmodel.ErrNotADirectory
	}

	if cached, ok := b.dirCache.get(dir.FirstCluster); ok {
		return cached, nil
	}

	clusters, err := b.table.chain(dir.FirstCluster)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrOpen)
	}

	data, err := b.table.readClusters(clusters)
	if err != nil {
		return nil, err
	}

	entries, err := parseDir(data, b.geo)
	if err != nil {
		return nil, err
	}

	b.dirCache.put(dir.FirstCluster, entries)
	return entries, nil
}

// Lookup implements fsmodel.Backend. FAT is not case sensitive.
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

// ReadFile implements fsmodel.Backend.
func (b *Backend) ReadFile(entry fsmodel.EntryInfo) ([]byte, error) {
	if entry.IsDir {
		return nil, fsmodel.ErrIsDirectory
	}
	if entry.Size == 0 {
		return []byte{}, nil
	}

	clusters, err := b.table.chain(entry.FirstCluster)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrOpen)
	}

	data, err := b.table.readClusters(clusters)
	if err != nil {
		return nil, err
	}

	if uint64(len(data)) > entry.Size {
		data = data[:entry.Size]
	}

	return data, nil
}
