package fat32

import "github.com/Triszz/Project-2-NTFS-FAT32/fsmodel"

// directoryCache memoizes decoded directory listings by their starting
// cluster: once a directory's cluster chain has been walked and its
// entries parsed, a later List/Lookup against the same first_cluster reuses
// the result instead of re-reading the FAT and re-decoding every entry.
type directoryCache struct {
	entries map[uint32][]fsmodel.EntryInfo
}

func newDirectoryCache() *directoryCache {
	return &directoryCache{entries: make(map[uint32][]fsmodel.EntryInfo)}
}

func (c *directoryCache) get(firstCluster uint32) ([]fsmodel.EntryInfo, bool) {
	entries, ok := c.entries[firstCluster]
	return entries, ok
}

func (c *directoryCache) put(firstCluster uint32, entries []fsmodel.EntryInfo) {
	c.entries[firstCluster] = entries
}
