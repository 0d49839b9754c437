package ntfs

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Triszz/Project-2-NTFS-FAT32/blockio"
)

// buildFileRecordWithData renders an in-use FILE record carrying a resident
// FILE_NAME attribute followed by a resident DATA attribute holding content.
func buildFileRecordWithData(recordSize int, parentRef uint64, name string, content []byte) []byte {
	const attrsOffset = 56
	const valueOffset = 24

	buf := make([]byte, recordSize)
	copy(buf[0:4], mftRecordMagic)
	binary.LittleEndian.PutUint16(buf[20:22], attrsOffset)
	binary.LittleEndian.PutUint16(buf[22:24], flagInUse)

	offset := attrsOffset

	nameUTF16 := utf16Encode(name)
	fnValueLen := 66 + len(nameUTF16)
	fnAttrLen := valueOffset + fnValueLen

	attr := buf[offset:]
	binary.LittleEndian.PutUint32(attr[0:4], attrFileName)
	binary.LittleEndian.PutUint32(attr[4:8], uint32(fnAttrLen))
	attr[8] = 0
	binary.LittleEndian.PutUint32(attr[16:20], uint32(fnValueLen))
	binary.LittleEndian.PutUint16(attr[20:22], valueOffset)

	value := attr[valueOffset:]
	binary.LittleEndian.PutUint64(value[0:8], parentRef)
	binary.LittleEndian.PutUint64(value[48:56], uint64(len(content))) // RealSize
	value[64] = byte(len(nameUTF16) / 2)
	value[65] = 1
	copy(value[66:66+len(nameUTF16)], nameUTF16)
	offset += fnAttrLen

	dataAttrLen := valueOffset + len(content)
	attr = buf[offset:]
	binary.LittleEndian.PutUint32(attr[0:4], attrData)
	binary.LittleEndian.PutUint32(attr[4:8], uint32(dataAttrLen))
	attr[8] = 0
	binary.LittleEndian.PutUint32(attr[16:20], uint32(len(content)))
	binary.LittleEndian.PutUint16(attr[20:22], valueOffset)
	copy(attr[valueOffset:valueOffset+len(content)], content)
	offset += dataAttrLen

	binary.LittleEndian.PutUint32(buf[offset:offset+4], attrEnd)

	return buf
}

// buildFragmentedRecord renders a record whose non-resident DATA attribute
// declares two runs, the case ReadFile must reject.
func buildFragmentedRecord(recordSize int, parentRef uint64, name string) []byte {
	const attrsOffset = 56
	const valueOffset = 24

	buf := buildFileRecord(recordSize, 0, parentRef, name, false)

	// buildFileRecord terminates after its FILE_NAME attribute; append a
	// non-resident DATA attribute over the terminator it wrote.
	nameUTF16 := utf16Encode(name)
	offset := attrsOffset + valueOffset + 66 + len(nameUTF16)

	const runsOffset = 64
	runs := []byte{
		0x21, 8, 100, 0, // run 1: 8 clusters at LCN 100
		0x21, 4, 50, 0, // run 2: 4 clusters at LCN 150
		0x00,
	}
	attrLen := runsOffset + len(runs)

	attr := buf[offset:]
	binary.LittleEndian.PutUint32(attr[0:4], attrData)
	binary.LittleEndian.PutUint32(attr[4:8], uint32(attrLen))
	attr[8] = 1 // non-resident
	binary.LittleEndian.PutUint16(attr[32:34], runsOffset)
	binary.LittleEndian.PutUint64(attr[48:56], 6144) // real data size
	copy(attr[runsOffset:], runs)
	offset += attrLen

	binary.LittleEndian.PutUint32(buf[offset:offset+4], attrEnd)

	return buf
}

func newTestBackend(t *testing.T, records map[uint64][]byte) *Backend {
	t.Helper()
	const recordSize = 1024

	image := buildVolumeImage(t, recordSize, records)
	br := blockio.FromBytes(image)
	geo := geometry{
		bytesPerSector:    512,
		sectorsPerCluster: 1,
		clusterSize:       512,
		mftRecordSize:     recordSize,
		mftStart:          0,
	}

	tree, err := buildTree(newRecordScanner(br, geo), uint64(len(image)/recordSize))
	require.NoError(t, err)

	return &Backend{br: br, geo: geo, tree: tree}
}

// TestReadFile_residentData covers the resident DATA scenario: an 11-byte
// inline value reads back exactly as "hello world".
func TestReadFile_residentData(t *testing.T) {
	backend := newTestBackend(t, map[uint64][]byte{
		5: buildFileRecord(1024, 5, 5, "root", true),
		6: buildFileRecordWithData(1024, 5, "hello.txt", []byte("hello world")),
	})

	entry, err := backend.Lookup(backend.RootEntry(), "HELLO.TXT")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), entry.Size)

	content, err := backend.ReadFile(entry)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
}

// TestLookup_sizeFromDataAttribute: the DATA attribute's size is what
// Lookup/List report, even when FILE_NAME's RealSize copy is stale - which
// also keeps ReadFile's output within the reported size.
func TestLookup_sizeFromDataAttribute(t *testing.T) {
	rec := buildFileRecordWithData(1024, 5, "hello.txt", []byte("hello world"))

	// FILE_NAME's RealSize sits at +48 of its value: attrs at 56, value at
	// +24. Stamp a stale value there.
	binary.LittleEndian.PutUint64(rec[128:136], 3)

	backend := newTestBackend(t, map[uint64][]byte{
		5: buildFileRecord(1024, 5, 5, "root", true),
		6: rec,
	})

	entry, err := backend.Lookup(backend.RootEntry(), "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), entry.Size)

	content, err := backend.ReadFile(entry)
	require.NoError(t, err)
	assert.LessOrEqual(t, uint64(len(content)), entry.Size)
}

// TestReadFile_fragmentedRejected: a DATA attribute with more than one run
// fails with ErrFragmentedUnsupported instead of silently truncating.
func TestReadFile_fragmentedRejected(t *testing.T) {
	backend := newTestBackend(t, map[uint64][]byte{
		5: buildFileRecord(1024, 5, 5, "root", true),
		6: buildFragmentedRecord(1024, 5, "frag.bin"),
	})

	entry, err := backend.Lookup(backend.RootEntry(), "frag.bin")
	require.NoError(t, err)

	_, err = backend.ReadFile(entry)
	assert.ErrorIs(t, err, ErrFragmentedUnsupported)
}

// TestReadFile_onDirectory mirrors the FAT32 side's guard.
func TestReadFile_onDirectory(t *testing.T) {
	backend := newTestBackend(t, map[uint64][]byte{
		5: buildFileRecord(1024, 5, 5, "root", true),
	})

	_, err := backend.ReadFile(backend.RootEntry())
	assert.Error(t, err)
}

// TestDescribe_serialNumberFormat: the serial renders as the high and low
// 16-bit halves of the serial's low 32 bits, uppercase hex, dash-separated.
func TestDescribe_serialNumberFormat(t *testing.T) {
	backend := newTestBackend(t, map[uint64][]byte{
		5: buildFileRecord(1024, 5, 5, "root", true),
	})
	backend.geo.volumeSerial = 0x0123ABCD5678EF90

	got := backend.Describe()
	assert.Equal(t, "5678-EF90", got.SerialNumber)
	assert.Equal(t, "NTFS    ", got.FSType)
}

// TestFiletimeToTime_literal pins the epoch-offset arithmetic to a known
// tick count: 130000000000000000 is 1355526400 seconds after the Unix epoch.
func TestFiletimeToTime_literal(t *testing.T) {
	got := filetimeToTime(130000000000000000)
	assert.True(t, got.Equal(time.Unix(1355526400, 0)), "got %v", got)
}
