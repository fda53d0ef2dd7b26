// Package volume parses the CD-i disc's ISO-9660-derived volume structure:
// the disc label, the path table, and per-directory entry records, and
// demultiplexes file sector streams by file number.
package volume

import "github.com/cdiextract/cdiextract/internal/byteutil"

// DiscLabel is the subset of the primary volume descriptor fields the
// extractor needs to locate the path table and identify the disc.
type DiscLabel struct {
	RecordType        byte
	StandardID        string
	SystemID          string
	VolumeID          string
	VolumeSpaceSize   uint32
	LogicalBlockSize  uint16
	PathTableSize     uint32
	PathTableAddress  uint32
}

// Fixed byte offsets into the 2048-byte disc label block, taken from the
// on-disc layout (a superset of the plain ISO-9660 primary volume
// descriptor).
const (
	discLabelRecordTypeOffset = 0
	discLabelStandardIDOffset = 1
	discLabelStandardIDLen    = 5
	discLabelSystemIDOffset   = 8
	discLabelSystemIDLen      = 32
	discLabelVolumeIDOffset   = 40
	discLabelVolumeIDLen      = 32
	discLabelSpaceSizeOffset  = 84
	discLabelBlockSizeOffset  = 130
	discLabelPTSizeOffset     = 136
	discLabelPTAddrOffset     = 148

	// DiscLabelTerminatorRecordType marks the volume descriptor set
	// terminator, the sentinel that ends the disc-label sector run.
	DiscLabelTerminatorRecordType = 255
	// DiscLabelPrimaryRecordType marks a primary volume descriptor.
	DiscLabelPrimaryRecordType = 1
)

// ParseDiscLabel decodes a disc label from a raw 2048-byte Form-1 payload.
func ParseDiscLabel(data []byte) DiscLabel {
	var d DiscLabel
	d.RecordType = data[discLabelRecordTypeOffset]
	d.StandardID = stripTrailing(string(data[discLabelStandardIDOffset : discLabelStandardIDOffset+discLabelStandardIDLen]))
	d.SystemID = stripTrailing(string(data[discLabelSystemIDOffset : discLabelSystemIDOffset+discLabelSystemIDLen]))
	d.VolumeID = stripTrailing(string(data[discLabelVolumeIDOffset : discLabelVolumeIDOffset+discLabelVolumeIDLen]))

	pos := discLabelSpaceSizeOffset
	d.VolumeSpaceSize = byteutil.ReadUint32(data, &pos)

	pos = discLabelBlockSizeOffset
	d.LogicalBlockSize = byteutil.ReadUint16(data, &pos)

	pos = discLabelPTSizeOffset
	d.PathTableSize = byteutil.ReadUint32(data, &pos)

	pos = discLabelPTAddrOffset
	d.PathTableAddress = byteutil.ReadUint32(data, &pos)

	return d
}

func stripTrailing(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	return s[:end]
}

// PathTableEntry is one entry of the path table: a directory's name, its
// starting block address, and the 1-based index of its parent entry within
// the table (entry 1 is always the root, whose parent is itself).
type PathTableEntry struct {
	Name               string
	DirectoryAddress   uint32
	ParentDirectoryNum uint16
}

// pathTableFixedSize is the fixed 8-byte prefix of a path table entry,
// before its variable-length, even-padded name.
const pathTableFixedSize = 8

// parsePathTableEntry decodes one entry starting at data[0] and returns it
// plus the byte offset of the next entry. ok is false if data is too short
// to hold a complete entry.
func parsePathTableEntry(data []byte) (entry PathTableEntry, next int, ok bool) {
	if len(data) < pathTableFixedSize {
		return PathTableEntry{}, 0, false
	}
	nameLen := int(data[0])
	pos := 2 // skip name_len, ext_attr_len
	entry.DirectoryAddress = byteutil.ReadUint32(data, &pos)
	entry.ParentDirectoryNum = byteutil.ReadUint16(data, &pos)

	nameEnd := pathTableFixedSize + nameLen
	if nameEnd > len(data) {
		return PathTableEntry{}, 0, false
	}
	nameBytes := data[pathTableFixedSize:nameEnd]
	if nameLen == 1 && nameBytes[0] == 0 {
		entry.Name = "."
	} else {
		entry.Name = string(nameBytes)
	}

	next = nameEnd
	if nameLen&1 != 0 {
		next++ // pad to an even total length
	}
	if next > len(data) {
		return PathTableEntry{}, 0, false
	}
	return entry, next, true
}

// DirectoryEntry is the fixed 33-byte prefix of an ISO-9660-style directory
// record.
type DirectoryEntry struct {
	EntryLen      byte
	FileAddress   uint32
	FileSize      uint32
	FileFlags     byte
	VolumeSeqNum  uint16
	NameLen       byte
}

// directoryEntryFixedSize is the fixed-prefix length of a DirectoryEntry
// on disc, 33 bytes per the ISO-9660-derived layout.
const directoryEntryFixedSize = 33

// FileFlagDirectory is the plain ISO-9660 directory bit in FileFlags. CD-i
// media does not rely on it: directory-ness is decided by the extended
// record's FileAttr instead (see FileAttrDirectory), so this is parsed but,
// deliberately, not what DirEntry.IsDirectory tests.
const FileFlagDirectory = 1 << 1

// DirectoryEntryEx is the CD-i-specific 8-byte extended record appended
// after each directory entry's name (and its own padding).
type DirectoryEntryEx struct {
	OwnerID    uint32
	FileAttr   uint16
	FileNumber byte
}

// FileAttrDirectory is the CD-i extended record's directory bit: the
// authoritative directory/file distinction on this medium, independent of
// (and not always matching) the base ISO-9660 FileFlags byte.
const FileAttrDirectory = 1 << 7

// directoryEntryExSize is the fixed size of the CD-i extended record.
const directoryEntryExSize = 8

// directoryEntryExOffset computes where the CD-i extended record begins,
// relative to the start of its directory entry. Its padding rule is the
// inverse of the path table's own (pad to even length only when nameLen is
// itself already even) — this looks backwards but is what CD-i media in
// practice contains, and is preserved verbatim rather than "fixed".
func directoryEntryExOffset(nameLen int) int {
	extra := 0
	if nameLen&1 == 0 {
		extra = 1
	}
	return directoryEntryFixedSize + nameLen + extra
}

// parseDirectoryEntry decodes one directory record starting at data[0].
// next is the byte offset of the following record; ok is false once
// entry_len is 0 (end of the directory data) or data is too short.
func parseDirectoryEntry(data []byte) (entry DirectoryEntry, ex DirectoryEntryEx, name string, next int, ok bool) {
	if len(data) < directoryEntryFixedSize {
		return DirectoryEntry{}, DirectoryEntryEx{}, "", 0, false
	}
	entry.EntryLen = data[0]
	if entry.EntryLen == 0 {
		return DirectoryEntry{}, DirectoryEntryEx{}, "", 0, false
	}

	pos := 2 // skip entry_len, ext_attr_len
	pos += 4 // reserved_0
	entry.FileAddress = byteutil.ReadUint32(data, &pos)
	pos += 4 // reserved_1
	entry.FileSize = byteutil.ReadUint32(data, &pos)
	pos += 6 // creation_date
	pos += 1 // reserved_2
	entry.FileFlags = byteutil.ReadByte(data, &pos)
	pos += 2 // interleave
	pos += 2 // reserved_3
	entry.VolumeSeqNum = byteutil.ReadUint16(data, &pos)
	entry.NameLen = byteutil.ReadByte(data, &pos)

	nameLen := int(entry.NameLen)
	next = int(entry.EntryLen)
	if next > len(data) {
		return DirectoryEntry{}, DirectoryEntryEx{}, "", 0, false
	}

	nameStart := directoryEntryFixedSize
	nameEnd := nameStart + nameLen
	if nameEnd > len(data) {
		return DirectoryEntry{}, DirectoryEntryEx{}, "", 0, false
	}
	rawName := data[nameStart:nameEnd]

	switch {
	case nameLen == 1 && rawName[0] == 0:
		name = "."
	case nameLen == 1 && rawName[0] == 1:
		name = ".."
	default:
		if nameLen >= 3 && rawName[nameLen-2] == ';' && rawName[nameLen-1] == '1' {
			name = string(rawName[:nameLen-2])
		} else {
			name = string(rawName)
		}
	}

	exOffset := directoryEntryExOffset(nameLen)
	if exOffset+directoryEntryExSize <= len(data) {
		exData := data[exOffset : exOffset+directoryEntryExSize]
		exPos := 0
		ex.OwnerID = byteutil.ReadUint32(exData, &exPos)
		ex.FileAttr = byteutil.ReadUint16(exData, &exPos)
		exPos++ // reserved
		ex.FileNumber = byteutil.ReadByte(exData, &exPos)
	}

	return entry, ex, name, next, true
}
