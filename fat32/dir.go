package fat32

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"

	"github.com/Triszz/Project-2-NTFS-FAT32/checkpoint"
	"github.com/Triszz/Project-2-NTFS-FAT32/fsmodel"
)

// ErrReadDirectory wraps failures while decoding a directory's entry table.
var ErrReadDirectory = errors.New("could not decode directory entries")

const entrySize = 32

// parseDir decodes the 32-byte entry slots of a directory's raw contents
// into EntryInfo values, composing long filenames from their preceding
// 0x0F-attribute subentries and validating each against the short entry's
// checksum. geo lets each returned entry report a display Sector:
// start_cluster*sectors_per_cluster, or data_start_sector for the
// start_cluster==0 root back-reference (cluster 0 doesn't exist, so no
// sector can be computed from it directly).
func parseDir(data []byte, geo geometry) ([]fsmodel.EntryInfo, error) {
	count := len(data) / entrySize
	var longParts []longFilenameEntry
	lastIndex := -1

	reset := func(i int) {
		longParts = nil
		lastIndex = i
	}

	entries := make([]fsmodel.EntryInfo, 0, count)

	for i := 0; i < count; i++ {
		slot := data[i*entrySize : (i+1)*entrySize]

		switch slot[0] {
		case 0x00:
			// End of directory.
			return entries, nil
		case 0xE5:
			// Deleted entry.
			continue
		}

		attr := slot[11]
		if attr&AttrLongName == AttrLongName {
			var lfn longFilenameEntry
			if err := binary.Read(bytes.NewReader(slot), binary.LittleEndian, &lfn); err != nil {
				return nil, checkpoint.Wrap(err, ErrReadDirectory)
			}

			if lfn.Sequence == 0xE5 {
				continue
			}

			if lfn.isLastInSequence() {
				reset(i - 1)
			}

			if lastIndex+1 != i {
				reset(i)
				continue
			}

			longParts = append(longParts, lfn)
			lastIndex = i
			continue
		}

		var hdr entryHeader
		if err := binary.Read(bytes.NewReader(slot), binary.LittleEndian, &hdr); err != nil {
			return nil, checkpoint.Wrap(err, ErrReadDirectory)
		}

		// Dot and dot-dot entries are synthesized by PathResolver, not listed.
		if hdr.Name[0] == 0x2E {
			reset(i)
			continue
		}
		if hdr.Name[0] == 0x05 {
			hdr.Name[0] = 0xE5
		}

		if attr&AttrVolumeID == AttrVolumeID {
			reset(i)
			continue
		}

		// System entries are recognized enough to skip cleanly but never
		// listed.
		if attr&AttrSystem == AttrSystem {
			reset(i)
			continue
		}

		name := hdr.shortName()
		if longParts != nil && lastIndex+1 == i {
			if long, ok := composeLongName(longParts, hdr.Name); ok {
				name = long
			}
		}

		entries = append(entries, fsmodel.EntryInfo{
			Name:         name,
			IsDir:        attr&AttrDirectory == AttrDirectory,
			Flags:        uint32(attr),
			Size:         uint64(hdr.FileSize),
			Created:      ParseCreateTime(hdr.CrtDate, hdr.CrtTime, hdr.CrtTimeTenth),
			Modified:     combineTimestamp(hdr),
			FirstCluster: hdr.firstCluster(),
			Sector:       displaySector(hdr.firstCluster(), geo),
		})

		reset(i)
	}

	return entries, nil
}

// displaySector computes the display-only Sector field for an entry,
// reporting data_start_sector for the start_cluster==0 root back-reference
// since no real sector corresponds to cluster 0.
func displaySector(startCluster uint32, geo geometry) uint64 {
	if startCluster == 0 {
		return uint64(geo.firstDataSector)
	}
	return uint64(startCluster) * uint64(geo.sectorsPerCluster)
}

// composeLongName reassembles a long filename from its subentries, which
// are stored highest-sequence-first in longParts (i.e. in on-disk order,
// reverse of reading order). It validates each subentry's checksum and
// sequence number against the associated short entry and returns ok=false
// if the chain is corrupt.
func composeLongName(longParts []longFilenameEntry, shortName [11]byte) (string, bool) {
	checksum := shortNameChecksum(shortName)

	var chars []uint16
	seq := 0
	for i := len(longParts) - 1; i >= 0; i-- {
		seq++
		part := longParts[i]
		if part.Checksum != checksum {
			return "", false
		}
		if part.order() != byte(seq) {
			return "", false
		}
		chars = append(chars, part.chars()...)
	}

	raw := make([]byte, 0, len(chars)*2)
	for _, c := range chars {
		if c == 0 {
			break
		}
		raw = append(raw, byte(c), byte(c>>8))
	}

	return fsmodel.DecodeUTF16LE(raw), true
}

func combineTimestamp(hdr entryHeader) time.Time {
	writeDate := ParseDate(hdr.WriteDate)
	writeTime := ParseTime(hdr.WriteTime)
	if writeDate.IsZero() {
		return time.Time{}
	}
	return time.Date(writeDate.Year(), writeDate.Month(), writeDate.Day(),
		writeTime.Hour(), writeTime.Minute(), writeTime.Second(), 0, time.UTC)
}
