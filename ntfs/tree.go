package ntfs

import (
	"errors"

	"github.com/dsoprea/go-logging"
	"github.com/hashicorp/go-multierror"

	"github.com/Triszz/Project-2-NTFS-FAT32/blockio"
	"github.com/Triszz/Project-2-NTFS-FAT32/fsmodel"
)

// ErrNoRoot is returned when no scanned record is its own parent.
var ErrNoRoot = errors.New("root directory MFT record missing or invalid")

var treeLogger = log.NewLogger("ntfs.tree")

// node is one scanned, in-use record plus the reference numbers of its
// children, filled in once the whole table has been scanned.
type node struct {
	rec      record
	children []uint64
}

// DirectoryTree holds the parent-child structure recovered from scanning
// every in-use MFT record's FILE_NAME attribute. Records that fail to
// read or decode (a fixup mismatch, a truncated record) are dropped and
// their reasons aggregated rather than failing the whole scan - a handful of
// corrupt records shouldn't make the rest of the volume unbrowsable.
// Slots without the FILE signature, records not in use, and records without
// a decodable FILE_NAME are skipped without comment.
type DirectoryTree struct {
	nodes   map[uint64]*node
	root    uint64
	errs    *multierror.Error
	scanned int
	geo     geometry
}

// buildTree scans MFT records [0, recordCount) and links each by its
// FILE_NAME attribute's parent reference. recordCount is typically derived
// from the $MFT DATA attribute's size, but callers may pass a conservative
// upper bound and rely on read failures past the last valid record to stop
// early.
//
// The root is the record whose FILE_NAME parent reference names itself; if
// more than one scanned record satisfies that (a corrupt volume), the
// smallest file reference number wins. No self-parenting record at all is
// ErrNoRoot.
func buildTree(scanner *RecordScanner, recordCount uint64) (*DirectoryTree, error) {
	t := &DirectoryTree{nodes: make(map[uint64]*node), geo: scanner.geo}

	for i := uint64(0); i < recordCount; i++ {
		rec, err := scanner.Read(i)
		if err != nil {
			if errors.Is(err, blockio.ErrRange) {
				break
			}
			// Unused slots without the FILE signature are part of a
			// normal MFT, not a diagnosable anomaly.
			if errors.Is(err, ErrNotFileRecord) {
				continue
			}
			t.errs = multierror.Append(t.errs, err)
			treeLogger.Warningf(nil, "skipping MFT record %d: %v", i, err)
			continue
		}

		if !rec.InUse || !rec.HasFileName {
			continue
		}

		t.nodes[i] = &node{rec: rec}
		t.scanned++
	}

	rootFound := false
	for index, n := range t.nodes {
		if n.rec.FileName.ParentRef == index {
			if !rootFound || index < t.root {
				t.root = index
				rootFound = true
			}
		}
	}
	if !rootFound {
		return nil, ErrNoRoot
	}

	for index, n := range t.nodes {
		parent := n.rec.FileName.ParentRef
		if parentNode, ok := t.nodes[parent]; ok && parent != index {
			parentNode.children = append(parentNode.children, index)
		}
	}

	return t, nil
}

// Root returns the file reference number of the discovered root directory.
func (t *DirectoryTree) Root() uint64 {
	return t.root
}

// entryInfo renders index's node as an fsmodel.EntryInfo. Sector is a
// display-only approximation: mft_offset*sectors_per_cluster + file_id for
// a resident file, cluster_offset*sectors_per_cluster for the first run of
// a non-resident one. It is never used for lookup or chain-following.
func (t *DirectoryTree) entryInfo(index uint64) fsmodel.EntryInfo {
	n := t.nodes[index]
	flags := visibleFlags(n.rec.FileName.Flags)
	if n.rec.HasAttributeList {
		flags |= FlagAttributeListPresent
	}

	// STANDARD_INFORMATION's creation time is the authoritative one;
	// FILE_NAME's copy is only a fallback for records without it.
	created := n.rec.FileName.Created
	if n.rec.HasStandardInfo {
		created = n.rec.StandardInfo.Created
	}

	// Size comes from the DATA attribute, not FILE_NAME's RealSize copy,
	// which is routinely stale or 0 on real volumes. ReadFile caps at the
	// same DataSize, so content can never exceed the reported size.
	return fsmodel.EntryInfo{
		Name:         n.rec.FileName.Name,
		IsDir:        n.rec.IsDirectory,
		Flags:        flags,
		Size:         n.rec.DataSize,
		Created:      created,
		Modified:     n.rec.FileName.Modified,
		FirstCluster: uint32(index),
		Sector:       t.displaySector(n.rec, index),
	}
}

// displaySector implements the Sector formula described above.
func (t *DirectoryTree) displaySector(rec record, index uint64) uint64 {
	if t.geo.clusterSize == 0 {
		return 0
	}
	if len(rec.DataRuns) > 0 {
		run := rec.DataRuns[0]
		if run.StartLCN < 0 {
			return 0
		}
		return uint64(run.StartLCN) * uint64(t.geo.sectorsPerCluster)
	}
	mftCluster := uint64(t.geo.mftStart) / uint64(t.geo.clusterSize)
	return mftCluster*uint64(t.geo.sectorsPerCluster) + index
}

// list returns the active immediate children of the directory at index,
// excluding anything hidden or system. buildTree never links a
// self-parenting record as its own child, so a directory never lists
// itself; longer cycles (A parents B, B
// parents A) can still exist in a corrupt MFT but don't affect this
// one-level lookup - PathResolver is what would otherwise walk such a
// cycle, and it bounds depth by the path it's given.
func (t *DirectoryTree) list(index uint64) []fsmodel.EntryInfo {
	n, ok := t.nodes[index]
	if !ok {
		return nil
	}

	entries := make([]fsmodel.EntryInfo, 0, len(n.children))
	for _, c := range n.children {
		child := t.nodes[c]
		if child.rec.FileName.Flags&(FlagHidden|FlagSystem) != 0 {
			continue
		}
		entries = append(entries, t.entryInfo(c))
	}
	return entries
}

// Diagnostics returns the aggregated, non-fatal errors encountered while
// scanning the MFT (fixup mismatches, truncated records), or nil if every
// record scanned cleanly. The tree is still usable when this is non-nil -
// it just means some records were dropped.
func (t *DirectoryTree) Diagnostics() error {
	return t.errs.ErrorOrNil()
}

// recordAt returns the raw record backing index, used by ReadFile to reach
// its DataRuns.
func (t *DirectoryTree) recordAt(index uint64) (record, bool) {
	n, ok := t.nodes[index]
	if !ok {
		return record{}, false
	}
	return n.rec, true
}
