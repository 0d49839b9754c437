package ntfs

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/Triszz/Project-2-NTFS-FAT32/fsmodel"
)

// Attribute type codes, per the NTFS on-disk format.
const (
	attrStandardInfo  = 0x10
	attrAttributeList = 0x20
	attrFileName      = 0x30
	attrIndexRoot     = 0x90
	attrData          = 0x80
	attrEnd           = 0xFFFFFFFF
)

// FlagAttributeListPresent is set in EntryInfo.Flags, on top of the
// FILE_NAME dos_flags bits, when a record carries an $ATTRIBUTE_LIST
// attribute. The list itself is never resolved - doing so means following
// extension records by MFT reference, which is out of scope - so this bit
// is the caller's signal that STANDARD_INFORMATION/FILE_NAME/DATA may be
// split across records this inspector never visits.
const FlagAttributeListPresent = 0x10000

// File name namespace values in FILE_NAME.NameType: 0 POSIX, 1 Win32,
// 2 DOS (8.3), 3 both Win32 and DOS.
const (
	nameTypeDOS = 2
)

// FILE_NAME dos_flags bits. The device bit is parsed but masked out of
// every user-visible flag list (visibleFlags below) - it's retained on the
// record itself so round-trip property tests can still observe it.
const (
	FlagReadOnly  = 0x01
	FlagHidden    = 0x02
	FlagSystem    = 0x04
	FlagDirectory = 0x10
	FlagArchive   = 0x20
	FlagDevice    = 0x40
)

// visibleFlags masks the device bit out of a FILE_NAME dos_flags value for
// anything handed back to a caller via EntryInfo.Flags.
func visibleFlags(raw uint32) uint32 {
	return raw &^ FlagDevice
}

// ErrFragmentedUnsupported is returned when a DATA attribute's non-resident
// runlist has more than one run; following additional runs is out of scope.
var ErrFragmentedUnsupported = errors.New("fragmented file data is not supported")

// standardInfoAttr is the fixed part of a decoded $STANDARD_INFORMATION
// attribute value - the timestamps and dos_flags Windows keeps authoritative
// over FILE_NAME's own (often stale) copies of the same fields.
type standardInfoAttr struct {
	Created   time.Time
	Modified  time.Time
	MFTChange time.Time
	Accessed  time.Time
	Flags     uint32
}

// fileNameAttr is the fixed part of a decoded $FILE_NAME attribute value.
type fileNameAttr struct {
	ParentRef uint64 // low 48 bits are the file reference number, top 16 the sequence number
	Created   time.Time
	Modified  time.Time
	MFTChange time.Time
	Accessed  time.Time
	AllocSize uint64
	RealSize  uint64
	Flags     uint32
	Name      string
	NameType  uint8
}

// dataRun is one decoded entry of a non-resident attribute's runlist: a
// starting LCN (absolute, after applying the signed delta) and a run
// length in clusters.
type dataRun struct {
	StartLCN int64
	Length   uint64
}

// parseAttributes walks the attribute list of an MFT record starting at
// offset, filling in rec's FileName and DATA-derived fields. Unknown or
// unused attribute types are skipped; a DOS-namespace FILE_NAME is ignored
// once a Win32/POSIX name has already been captured, matching how Windows
// itself prefers the long name.
func parseAttributes(buf []byte, offset int, rec *record) error {
	for offset+16 < len(buf) {
		attrType := binary.LittleEndian.Uint32(buf[offset:])
		if attrType == attrEnd || attrType == 0 {
			break
		}

		attrLen := binary.LittleEndian.Uint32(buf[offset+4:])
		if attrLen == 0 || int(attrLen) > len(buf)-offset {
			break
		}

		body := buf[offset : offset+int(attrLen)]
		nonResident := body[8]

		switch attrType {
		case attrAttributeList:
			rec.HasAttributeList = true

		case attrStandardInfo:
			if nonResident == 0 {
				if si, ok := parseStandardInfoAttr(body); ok {
					rec.StandardInfo = si
					rec.HasStandardInfo = true
				}
			}

		case attrIndexRoot:
			rec.HasIndexRoot = true

		case attrFileName:
			if nonResident == 0 {
				if fn, ok := parseFileNameAttr(body); ok {
					if rec.HasFileName && fn.NameType == nameTypeDOS {
						break
					}
					rec.FileName = fn
					rec.HasFileName = true
				}
			}

		case attrData:
			if nonResident == 0 {
				valueLen := binary.LittleEndian.Uint32(body[16:])
				valueOff := binary.LittleEndian.Uint16(body[20:22])
				rec.DataSize = uint64(valueLen)
				if int(valueOff)+int(valueLen) <= len(body) {
					rec.DataResident = append([]byte{}, body[valueOff:int(valueOff)+int(valueLen)]...)
				}
			} else {
				rec.DataSize = binary.LittleEndian.Uint64(body[48:56])
				runs := parseDataRuns(body)
				rec.DataRuns = runs
				rec.Fragmented = len(runs) > 1
			}
		}

		offset += int(attrLen)
	}

	return nil
}

// parseStandardInfoAttr decodes a resident $STANDARD_INFORMATION attribute's
// value. Only the fixed 36-byte prefix (timestamps and dos_flags) is read;
// the optional quota/USN fields some volumes append are never needed here.
func parseStandardInfoAttr(attr []byte) (standardInfoAttr, bool) {
	if len(attr) < 24 {
		return standardInfoAttr{}, false
	}

	valueOffset := binary.LittleEndian.Uint16(attr[20:22])
	if int(valueOffset)+36 > len(attr) {
		return standardInfoAttr{}, false
	}

	v := attr[valueOffset:]

	return standardInfoAttr{
		Created:   filetimeToTime(binary.LittleEndian.Uint64(v[0:8])),
		Modified:  filetimeToTime(binary.LittleEndian.Uint64(v[8:16])),
		MFTChange: filetimeToTime(binary.LittleEndian.Uint64(v[16:24])),
		Accessed:  filetimeToTime(binary.LittleEndian.Uint64(v[24:32])),
		Flags:     binary.LittleEndian.Uint32(v[32:36]),
	}, true
}

// parseFileNameAttr decodes a resident $FILE_NAME attribute's value.
func parseFileNameAttr(attr []byte) (fileNameAttr, bool) {
	if len(attr) < 24 {
		return fileNameAttr{}, false
	}

	valueOffset := binary.LittleEndian.Uint16(attr[20:22])
	if int(valueOffset)+66 > len(attr) {
		return fileNameAttr{}, false
	}

	v := attr[valueOffset:]

	nameLen := v[64]
	nameType := v[65]
	if int(66)+int(nameLen)*2 > len(v) {
		return fileNameAttr{}, false
	}

	return fileNameAttr{
		ParentRef: binary.LittleEndian.Uint64(v[0:8]) & 0x0000FFFFFFFFFFFF,
		Created:   filetimeToTime(binary.LittleEndian.Uint64(v[8:16])),
		Modified:  filetimeToTime(binary.LittleEndian.Uint64(v[16:24])),
		MFTChange: filetimeToTime(binary.LittleEndian.Uint64(v[24:32])),
		Accessed:  filetimeToTime(binary.LittleEndian.Uint64(v[32:40])),
		AllocSize: binary.LittleEndian.Uint64(v[40:48]),
		RealSize:  binary.LittleEndian.Uint64(v[48:56]),
		Flags:     binary.LittleEndian.Uint32(v[56:60]),
		Name:      fsmodel.DecodeUTF16LE(v[66 : 66+int(nameLen)*2]),
		NameType:  nameType,
	}, true
}

// parseDataRuns decodes a non-resident attribute's runlist into dataRun
// entries. Only the caller decides whether to use more than the first run;
// ReadFile rejects any record with more than one.
func parseDataRuns(attr []byte) []dataRun {
	if len(attr) < 34 {
		return nil
	}

	runsOffset := binary.LittleEndian.Uint16(attr[32:34])
	if int(runsOffset) >= len(attr) {
		return nil
	}

	data := attr[runsOffset:]
	var runs []dataRun
	var currentLCN int64

	for i := 0; i < len(data); {
		header := data[i]
		if header == 0 {
			break
		}

		lengthBytes := int(header & 0x0F)
		offsetBytes := int(header >> 4)
		if i+1+lengthBytes+offsetBytes > len(data) {
			break
		}

		var length uint64
		for j := 0; j < lengthBytes; j++ {
			length |= uint64(data[i+1+j]) << (8 * j)
		}

		var delta int64
		if offsetBytes > 0 {
			for j := 0; j < offsetBytes; j++ {
				delta |= int64(data[i+1+lengthBytes+j]) << (8 * j)
			}
			if data[i+lengthBytes+offsetBytes]&0x80 != 0 {
				for j := offsetBytes; j < 8; j++ {
					delta |= int64(0xFF) << (8 * j)
				}
			}
		}

		currentLCN += delta
		runs = append(runs, dataRun{StartLCN: currentLCN, Length: length})

		i += 1 + lengthBytes + offsetBytes
	}

	return runs
}

// filetimeEpochOffset is the number of 100ns intervals between the FILETIME
// epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpochOffset = 116444736000000000

// filetimeToTime converts an NTFS FILETIME (100ns intervals since
// 1601-01-01 UTC) to a time.Time. A zero FILETIME maps to the zero
// time.Time.
func filetimeToTime(ft uint64) time.Time {
	if ft == 0 {
		return time.Time{}
	}

	unix100ns := int64(ft) - filetimeEpochOffset
	return time.Unix(0, unix100ns*100).UTC()
}
