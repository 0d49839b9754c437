package ntfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Triszz/Project-2-NTFS-FAT32/blockio"
	"github.com/Triszz/Project-2-NTFS-FAT32/checkpoint"
)

const (
	mftRecordMagic = "FILE"

	flagInUse     = 0x0001
	flagDirectory = 0x0002
)

// These errors may occur while reading one MFT record. They are recoverable
// at the scan level: the tree build drops the record and keeps going.
// ErrNotFileRecord is not an anomaly at all - a normal MFT contains unused
// slots without the FILE signature, so the scan skips those without even
// reporting them, while fixup/truncation failures are aggregated as
// diagnostics.
var (
	ErrNotFileRecord   = errors.New("not a FILE record")
	ErrFixupMismatch   = errors.New("update sequence fixup mismatch, record likely torn")
	ErrRecordTruncated = errors.New("MFT record shorter than declared size")
)

// mftRecordHeader is the fixed portion of an MFT FILE record, read before
// the fixup array and attribute list.
type mftRecordHeader struct {
	Magic           [4]byte
	UpdateSeqOffset uint16
	UpdateSeqSize   uint16
	LogSeqNum       uint64
	SeqNum          uint16
	LinkCount       uint16
	AttrsOffset     uint16
	Flags           uint16
	UsedSize        uint32
	AllocSize       uint32
	BaseRecRef      uint64
	NextAttrID      uint16
}

// record is one decoded MFT FILE record: its reference number, the
// in-use/directory flags, and the attribute values pulled out of it.
type record struct {
	Index       uint64
	InUse       bool
	IsDirectory bool

	StandardInfo    standardInfoAttr
	HasStandardInfo bool

	FileName     fileNameAttr
	HasFileName  bool
	DataSize     uint64
	DataRuns     []dataRun
	DataResident []byte
	Fragmented   bool

	HasAttributeList bool
	HasIndexRoot     bool
}

// RecordScanner reads and decodes MFT records one at a time against a
// BlockReader, applying the update-sequence fixup the NTFS spec requires
// before any attribute bytes can be trusted.
type RecordScanner struct {
	br  blockio.BlockReader
	geo geometry
}

func newRecordScanner(br blockio.BlockReader, geo geometry) *RecordScanner {
	return &RecordScanner{br: br, geo: geo}
}

// readRaw reads the raw bytes of MFT record index and applies its fixup in
// place, returning the corrected buffer.
func (s *RecordScanner) readRaw(index uint64) ([]byte, error) {
	offset := s.geo.mftStart + int64(index)*int64(s.geo.mftRecordSize)

	buf, err := s.br.ReadAt(offset, int(s.geo.mftRecordSize))
	if err != nil {
		return nil, checkpoint.Wrap(err, fmt.Errorf("record %d", index))
	}

	if string(buf[0:4]) != mftRecordMagic {
		return nil, checkpoint.From(fmt.Errorf("%w: record %d", ErrNotFileRecord, index))
	}

	if err := applyFixup(buf, s.geo.bytesPerSector); err != nil {
		return nil, checkpoint.Wrap(err, fmt.Errorf("record %d", index))
	}

	return buf, nil
}

// applyFixup replaces the last two bytes of every sector-sized chunk of
// record with the original bytes stashed in the update-sequence array,
// after checking each chunk's last two bytes currently hold the update
// sequence number (proof the sectors weren't torn by a partial write).
func applyFixup(buf []byte, bytesPerSector uint16) error {
	usaOffset := binary.LittleEndian.Uint16(buf[4:6])
	usaCount := binary.LittleEndian.Uint16(buf[6:8])
	if usaCount < 2 {
		return nil
	}

	// usaOffset/usaCount come straight from the record's own bytes, so a
	// corrupt record can declare an array lying past the buffer. Reject it
	// before indexing rather than panicking.
	if int(usaOffset)+int(usaCount)*2 > len(buf) {
		return checkpoint.From(ErrRecordTruncated)
	}

	usn := buf[usaOffset : usaOffset+2]

	for i := uint16(1); i < usaCount; i++ {
		pos := int(i)*int(bytesPerSector) - 2
		if pos+2 > len(buf) {
			return checkpoint.From(ErrRecordTruncated)
		}

		if buf[pos] != usn[0] || buf[pos+1] != usn[1] {
			return checkpoint.From(ErrFixupMismatch)
		}

		replOff := int(usaOffset) + int(i)*2
		buf[pos] = buf[replOff]
		buf[pos+1] = buf[replOff+1]
	}

	return nil
}

// Read decodes MFT record index: its header flags and every
// STANDARD_INFORMATION/FILE_NAME/DATA/INDEX_ROOT attribute it carries. A
// present $INDEX_ROOT forces IsDirectory true regardless of the header's own
// directory bit - a directory record with a clear header bit but a resident
// index root is the malformed-but-plausible case this exists to catch.
func (s *RecordScanner) Read(index uint64) (record, error) {
	buf, err := s.readRaw(index)
	if err != nil {
		return record{}, err
	}

	var hdr mftRecordHeader
	if err := binary.Read(bytes.NewReader(buf), defaultEncoding, &hdr); err != nil {
		return record{}, checkpoint.Wrap(err, fmt.Errorf("record %d header", index))
	}

	rec := record{
		Index:       index,
		InUse:       hdr.Flags&flagInUse != 0,
		IsDirectory: hdr.Flags&flagDirectory != 0,
	}

	if err := parseAttributes(buf, int(hdr.AttrsOffset), &rec); err != nil {
		return record{}, checkpoint.Wrap(err, fmt.Errorf("record %d attributes", index))
	}

	if rec.HasIndexRoot {
		rec.IsDirectory = true
	}

	return rec, nil
}
