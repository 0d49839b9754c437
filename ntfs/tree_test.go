package ntfs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Triszz/Project-2-NTFS-FAT32/blockio"
)

// buildFileRecord renders a minimal in-use MFT FILE record carrying a single
// resident FILE_NAME attribute, padded to recordSize. No update-sequence
// array is written (usaCount left at 0), so applyFixup is a no-op.
func buildFileRecord(recordSize int, index, parentRef uint64, name string, isDir bool) []byte {
	const attrsOffset = 56
	const valueOffset = 24

	nameUTF16 := utf16Encode(name)
	valueLen := 66 + len(nameUTF16)
	attrLen := valueOffset + valueLen

	buf := make([]byte, recordSize)
	copy(buf[0:4], mftRecordMagic)

	flags := uint16(flagInUse)
	if isDir {
		flags |= flagDirectory
	}
	binary.LittleEndian.PutUint16(buf[20:22], attrsOffset)
	binary.LittleEndian.PutUint16(buf[22:24], flags)

	attr := buf[attrsOffset:]
	binary.LittleEndian.PutUint32(attr[0:4], attrFileName)
	binary.LittleEndian.PutUint32(attr[4:8], uint32(attrLen))
	attr[8] = 0 // resident
	binary.LittleEndian.PutUint32(attr[16:20], uint32(valueLen))
	binary.LittleEndian.PutUint16(attr[20:22], valueOffset)

	value := attr[valueOffset:]
	binary.LittleEndian.PutUint64(value[0:8], parentRef)
	value[64] = byte(len(nameUTF16) / 2)
	value[65] = 1 // Win32 namespace
	copy(value[66:66+len(nameUTF16)], nameUTF16)

	binary.LittleEndian.PutUint32(buf[attrsOffset+attrLen:attrsOffset+attrLen+4], attrEnd)

	return buf
}

func utf16Encode(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

func buildVolumeImage(t *testing.T, recordSize int, records map[uint64][]byte) []byte {
	t.Helper()
	maxIndex := uint64(0)
	for i := range records {
		if i > maxIndex {
			maxIndex = i
		}
	}
	image := make([]byte, int(maxIndex+1)*recordSize)
	for i, rec := range records {
		require.Len(t, rec, recordSize)
		copy(image[int(i)*recordSize:], rec)
	}
	return image
}

func newTestScanner(t *testing.T, recordSize int, records map[uint64][]byte) (*RecordScanner, uint64) {
	t.Helper()
	image := buildVolumeImage(t, recordSize, records)
	br := blockio.FromBytes(image)
	geo := geometry{
		bytesPerSector: 512,
		mftRecordSize:  uint32(recordSize),
		mftStart:       0,
		clusterSize:    512,
	}
	return newRecordScanner(br, geo), uint64(len(image) / recordSize)
}

// TestBuildTree_rootAndChildren covers the canonical three-record scenario:
// record 5 is its own parent (root), 10's parent is 5, 11's parent is 10.
func TestBuildTree_rootAndChildren(t *testing.T) {
	records := map[uint64][]byte{
		5:  buildFileRecord(1024, 5, 5, "root", true),
		10: buildFileRecord(1024, 10, 5, "docs", true),
		11: buildFileRecord(1024, 11, 10, "notes.txt", false),
	}
	scanner, count := newTestScanner(t, 1024, records)

	tree, err := buildTree(scanner, count)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), tree.Root())

	children := tree.list(5)
	require.Len(t, children, 1)
	assert.Equal(t, "docs", children[0].Name)
	assert.Equal(t, uint32(10), children[0].FirstCluster)

	grandchildren := tree.list(10)
	require.Len(t, grandchildren, 1)
	assert.Equal(t, "notes.txt", grandchildren[0].Name)
	assert.False(t, grandchildren[0].IsDir)
}

// TestBuildTree_noRoot: without a self-parenting record present,
// construction fails with ErrNoRoot even though other records (here, one
// claiming a nonexistent parent) exist.
func TestBuildTree_noRoot(t *testing.T) {
	records := map[uint64][]byte{
		12: buildFileRecord(1024, 12, 999, "orphan", true),
	}
	scanner, count := newTestScanner(t, 1024, records)

	_, err := buildTree(scanner, count)
	assert.ErrorIs(t, err, ErrNoRoot)
}

// TestBuildTree_skipsNonFileSlotsSilently: the zeroed slots below record 5
// carry no FILE signature, which is how a normal MFT's unused entries look -
// they must not show up as diagnostics.
func TestBuildTree_skipsNonFileSlotsSilently(t *testing.T) {
	records := map[uint64][]byte{
		5: buildFileRecord(1024, 5, 5, "root", true),
	}
	scanner, count := newTestScanner(t, 1024, records)

	tree, err := buildTree(scanner, count)
	require.NoError(t, err)
	assert.NoError(t, tree.Diagnostics())
	assert.Equal(t, uint64(5), tree.Root())
}

// TestEntryInfo_createdFromStandardInfo: when a record carries
// STANDARD_INFORMATION, its creation time wins over FILE_NAME's copy.
func TestEntryInfo_createdFromStandardInfo(t *testing.T) {
	rec := buildRecordWithAttrs(1024, 5, false)

	// STANDARD_INFORMATION's created FILETIME sits at the start of its
	// value: attrsOffset 56 + value offset 24.
	ft := uint64(130000000000000000)
	binary.LittleEndian.PutUint64(rec[80:88], ft)

	scanner, count := newTestScanner(t, 1024, map[uint64][]byte{5: rec})

	tree, err := buildTree(scanner, count)
	require.NoError(t, err)

	info := tree.entryInfo(5)
	assert.True(t, info.Created.Equal(filetimeToTime(ft)), "Created = %v", info.Created)
}

// TestBuildTree_tieBreaksOnSmallestID exercises the smallest-file-id
// tiebreak applied when more than one record self-parents.
func TestBuildTree_tieBreaksOnSmallestID(t *testing.T) {
	records := map[uint64][]byte{
		5: buildFileRecord(1024, 5, 5, "root-a", true),
		7: buildFileRecord(1024, 7, 7, "root-b", true),
	}
	scanner, count := newTestScanner(t, 1024, records)

	tree, err := buildTree(scanner, count)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), tree.Root())
}
