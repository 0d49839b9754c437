package fat32

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Triszz/Project-2-NTFS-FAT32/blockio"
	"github.com/Triszz/Project-2-NTFS-FAT32/checkpoint"
)

// These errors may occur while walking a cluster chain.
var (
	ErrReadFAT     = errors.New("could not read FAT entry")
	ErrChainCycle  = errors.New("cluster chain contains a cycle")
	ErrFreeCluster = errors.New("unexpectedly free cluster in chain")
)

// fatEntry is a raw 32-bit FAT32 table entry. Only the low 28 bits carry
// meaning; classification follows
// https://en.wikipedia.org/wiki/Design_of_the_FAT_file_system#Cluster_values.
type fatEntry uint32

func (e fatEntry) value() uint32 { return uint32(e) & 0x0FFFFFFF }

func (e fatEntry) isFree() bool         { return e.value() == 0x00000000 }
func (e fatEntry) isNextCluster() bool  { return e.value() >= 0x00000002 && e.value() <= 0x0FFFFFEF }
func (e fatEntry) isReservedSoft() bool { return e.value() >= 0x0FFFFFF0 && e.value() <= 0x0FFFFFF6 }
func (e fatEntry) isBad() bool          { return e.value() == 0x0FFFFFF7 }
func (e fatEntry) isEOF() bool          { return e.value() >= 0x0FFFFFF8 }

// readAsNextCluster is deliberately liberal: besides the normal data-cluster
// range, the reserved values 0x0FFFFFF0-0x0FFFFFF6 are also followed as a
// data cluster. The reserved value 0x00000001 is not followed.
func (e fatEntry) readAsNextCluster() bool {
	return e.isNextCluster() || e.isReservedSoft()
}

// FatTable resolves cluster numbers to sector offsets and follows chains.
type FatTable struct {
	br  blockio.BlockReader
	geo geometry
}

func newFatTable(br blockio.BlockReader, geo geometry) *FatTable {
	return &FatTable{br: br, geo: geo}
}

// entryAt reads the FAT entry for cluster from the first FAT copy.
func (t *FatTable) entryAt(cluster uint32) (fatEntry, error) {
	fatOffset := int64(cluster) * 4
	sectorSize := int64(t.geo.bytesPerSector)
	fatSector := int64(t.geo.reservedSectors) + fatOffset/sectorSize
	entryOffset := fatOffset % sectorSize

	sector, err := t.br.ReadAt(fatSector*sectorSize, int(sectorSize))
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFAT)
	}

	return fatEntry(binary.LittleEndian.Uint32(sector[entryOffset:entryOffset+4]) & 0x0FFFFFFF), nil
}

// clusterSector returns the first sector number of the data region holding
// cluster.
func (t *FatTable) clusterSector(cluster uint32) int64 {
	return int64(t.geo.firstDataSector) + int64(cluster-2)*int64(t.geo.sectorsPerCluster)
}

// chain follows the cluster chain starting at start, returning every
// cluster number in order. A cluster seen twice aborts immediately - a
// corrupt FAT with a cycle fails on the first repeat rather than after
// spinning through the whole table.
func (t *FatTable) chain(start uint32) ([]uint32, error) {
	if start < 2 {
		return nil, checkpoint.From(fmt.Errorf("%w: cluster %d below first valid cluster", ErrFreeCluster, start))
	}

	visited := make(map[uint32]struct{})
	clusters := make([]uint32, 0, 8)
	cur := start

	for {
		if _, seen := visited[cur]; seen {
			return nil, checkpoint.From(fmt.Errorf("%w: cluster %d repeats", ErrChainCycle, cur))
		}
		visited[cur] = struct{}{}

		clusters = append(clusters, cur)

		next, err := t.entryAt(cur)
		if err != nil {
			return nil, err
		}

		// A bad-cluster mark ends the chain like an EOF mark does; the
		// clusters read so far are still valid.
		if next.isBad() {
			break
		}
		if next.isFree() {
			return nil, checkpoint.From(fmt.Errorf("%w: cluster %d", ErrFreeCluster, cur))
		}
		if !next.readAsNextCluster() {
			break
		}

		cur = next.value()
	}

	return clusters, nil
}

// readClusters reads the full content of every cluster in chain, in order.
func (t *FatTable) readClusters(chain []uint32) ([]byte, error) {
	clusterSize := int(t.geo.sectorsPerCluster) * int(t.geo.bytesPerSector)
	out := make([]byte, 0, clusterSize*len(chain))

	for _, c := range chain {
		data, err := t.br.ReadAt(t.clusterSector(c)*int64(t.geo.bytesPerSector), clusterSize)
		if err != nil {
			return nil, checkpoint.Wrap(err, ErrReadFAT)
		}
		out = append(out, data...)
	}

	return out, nil
}
