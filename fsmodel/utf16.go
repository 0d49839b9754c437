package fsmodel

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// decoder is shared by both backends: FAT32 long-filename subentries and
// NTFS FILE_NAME attributes are both UTF-16LE. Invalid sequences are
// replaced rather than rejected so one bad name can't fail a whole listing.
var decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// DecodeUTF16LE decodes raw UTF-16LE bytes to a string, stopping at the
// first embedded NUL (the common C-string-style terminator used by both
// FAT LFN subentries and NTFS attribute value padding) and substituting the
// Unicode replacement character for malformed code units instead of
// failing.
func DecodeUTF16LE(raw []byte) string {
	if i := indexNulPair(raw); i >= 0 {
		raw = raw[:i]
	}

	out, err := decoder.Bytes(raw)
	if err != nil {
		// The decoder already substitutes per-code-unit; a hard error here
		// means a truncated trailing byte. Drop it rather than fail the name.
		if len(raw) >= 2 {
			out, _ = decoder.Bytes(raw[:len(raw)-len(raw)%2])
		}
	}

	return strings.TrimRight(string(out), "\x00")
}

// indexNulPair finds the first UTF-16LE NUL code unit (two zero bytes on an
// even boundary), or -1 if none is present.
func indexNulPair(raw []byte) int {
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			return i
		}
	}
	return -1
}
