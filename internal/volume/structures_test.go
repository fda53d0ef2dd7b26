package volume

import "testing"

func TestParsePathTableEntryRoot(t *testing.T) {
	data := []byte{
		1, 0, // name_len=1, ext_attr_len=0
		0x00, 0x00, 0x00, 0x05, // directory_address = 5
		0x00, 0x01, // parent_directory_number = 1
		0x00, // name: single zero byte -> "."
		0x00, // pad byte: name_len 1 is odd
	}
	entry, next, ok := parsePathTableEntry(data)
	if !ok {
		t.Fatal("expected ok")
	}
	if entry.Name != "." {
		t.Errorf("Name = %q, want \".\"", entry.Name)
	}
	if entry.DirectoryAddress != 5 {
		t.Errorf("DirectoryAddress = %d, want 5", entry.DirectoryAddress)
	}
	if next != len(data) {
		t.Errorf("next = %d, want %d", next, len(data))
	}
}

func TestParsePathTableEntryOddNamePadding(t *testing.T) {
	// name_len=3 ("ABC") is odd, so one padding byte follows.
	data := []byte{
		3, 0,
		0x00, 0x00, 0x00, 0x0a,
		0x00, 0x01,
		'A', 'B', 'C', 0x00,
	}
	entry, next, ok := parsePathTableEntry(data)
	if !ok {
		t.Fatal("expected ok")
	}
	if entry.Name != "ABC" {
		t.Errorf("Name = %q, want ABC", entry.Name)
	}
	if next != len(data) {
		t.Errorf("next = %d, want %d (includes pad byte)", next, len(data))
	}
}

func buildDirectoryEntry(name string, fileAddr, fileSize uint32, flags byte, fileNum byte) []byte {
	nameLen := len(name)
	exOffset := directoryEntryExOffset(nameLen)
	exEnd := exOffset + directoryEntryExSize
	entryLen := exEnd
	buf := make([]byte, entryLen)
	buf[0] = byte(entryLen)
	buf[1] = 0 // ext_attr_len
	// reserved_0 [4] at 2..5
	buf[6] = byte(fileAddr >> 24)
	buf[7] = byte(fileAddr >> 16)
	buf[8] = byte(fileAddr >> 8)
	buf[9] = byte(fileAddr)
	// reserved_1 [4] at 10..13
	buf[14] = byte(fileSize >> 24)
	buf[15] = byte(fileSize >> 16)
	buf[16] = byte(fileSize >> 8)
	buf[17] = byte(fileSize)
	// creation_date[6] at 18..23, reserved_2[1] at 24
	buf[25] = flags
	// interleave[2] at 26..27, reserved_3[2] at 28..29
	// volume_seq_num[2] at 30..31
	buf[32] = byte(nameLen)
	copy(buf[directoryEntryFixedSize:directoryEntryFixedSize+nameLen], name)
	// extended record: owner_id(4) at exOffset, file_attr(2) at exOffset+4,
	// reserved(1) at exOffset+6, file_number at exOffset+7
	buf[exOffset+7] = fileNum
	if flags&FileFlagDirectory != 0 {
		buf[exOffset+5] = FileAttrDirectory
	}
	return buf
}

func TestParseDirectoryEntryRoundTrip(t *testing.T) {
	raw := buildDirectoryEntry("TRACK.DAT", 1234, 5000, 0, 3)
	entry, ex, name, next, ok := parseDirectoryEntry(raw)
	if !ok {
		t.Fatal("expected ok")
	}
	if name != "TRACK.DAT" {
		t.Errorf("name = %q", name)
	}
	if entry.FileAddress != 1234 {
		t.Errorf("FileAddress = %d, want 1234", entry.FileAddress)
	}
	if entry.FileSize != 5000 {
		t.Errorf("FileSize = %d, want 5000", entry.FileSize)
	}
	if ex.FileNumber != 3 {
		t.Errorf("FileNumber = %d, want 3", ex.FileNumber)
	}
	if next != len(raw) {
		t.Errorf("next = %d, want %d", next, len(raw))
	}
}

func TestParseDirectoryEntrySpecialNames(t *testing.T) {
	dot := buildDirectoryEntry("\x00", 0, 0, FileFlagDirectory, 0)
	_, _, name, _, ok := parseDirectoryEntry(dot)
	if !ok || name != "." {
		t.Fatalf("name = %q ok=%v, want \".\"", name, ok)
	}

	dotdot := buildDirectoryEntry("\x01", 0, 0, FileFlagDirectory, 0)
	_, _, name, _, ok = parseDirectoryEntry(dotdot)
	if !ok || name != ".." {
		t.Fatalf("name = %q ok=%v, want \"..\"", name, ok)
	}
}

func TestParseDirectoryEntryStripsVersionSuffix(t *testing.T) {
	raw := buildDirectoryEntry("FILE.DAT;1", 0, 100, 0, 1)
	_, _, name, _, ok := parseDirectoryEntry(raw)
	if !ok || name != "FILE.DAT" {
		t.Fatalf("name = %q ok=%v, want FILE.DAT", name, ok)
	}
}

func TestParseDirectoryEntryEndOfData(t *testing.T) {
	_, _, _, _, ok := parseDirectoryEntry(make([]byte, directoryEntryFixedSize))
	if ok {
		t.Fatal("entry_len==0 must signal end of directory data")
	}
}

func TestDirectoryEntryExOffsetParity(t *testing.T) {
	// Odd name length (9, "TRACK.DAT") -> no extra pad byte: offset 33+9=42.
	if got := directoryEntryExOffset(9); got != 42 {
		t.Errorf("directoryEntryExOffset(9) = %d, want 42", got)
	}
	// Even name length (2) -> one extra pad byte: offset 33+2+1=36, the
	// inverse of the path table's own odd-length padding rule.
	if got := directoryEntryExOffset(2); got != 36 {
		t.Errorf("directoryEntryExOffset(2) = %d, want 36", got)
	}
}

func TestStripTrailing(t *testing.T) {
	if got := stripTrailing("MY DISC     "); got != "MY DISC" {
		t.Errorf("stripTrailing = %q", got)
	}
}
