package extract

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cdiextract/cdiextract/internal/sector"
	"github.com/cdiextract/cdiextract/internal/settings"
	"github.com/cdiextract/cdiextract/internal/volume"
)

var testSyncPattern = [12]byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

func bcdEncode(n int) byte { return byte((n/10)<<4 | (n % 10)) }

func addressForBlock(block int) (min, sec, frame byte) {
	totalSeconds := 2 + block/75
	frameVal := block % 75
	return bcdEncode(totalSeconds / 60), bcdEncode(totalSeconds % 60), bcdEncode(frameVal)
}

func buildSector(block int, mode, fileNum, chanNum, submode, coding byte, payloadOffset int, payload []byte) sector.Data {
	var d sector.Data
	copy(d[:12], testSyncPattern[:])
	min, sec, frame := addressForBlock(block)
	d[12], d[13], d[14], d[15] = min, sec, frame, mode
	d[16], d[17], d[18], d[19] = fileNum, chanNum, submode, coding
	copy(d[payloadOffset:], payload)
	sector.Descramble(&d)
	return d
}

func putBE32(buf []byte, v uint32) {
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
}

func padName(name string) []byte {
	b := []byte(name)
	if len(b)&1 != 0 {
		b = append(b, 0)
	}
	return b
}

func buildPathTableEntry(name string, addr uint32, parent uint16) []byte {
	n := []byte(name)
	buf := make([]byte, 0, 8+len(padName(name)))
	buf = append(buf, byte(len(n)), 0)
	addrBuf := make([]byte, 4)
	putBE32(addrBuf, addr)
	buf = append(buf, addrBuf...)
	buf = append(buf, byte(parent>>8), byte(parent))
	buf = append(buf, padName(name)...)
	return buf
}

func buildDirEntry(name string, addr uint32, size uint32, flags byte, fileNum byte) []byte {
	nameLen := len(name)
	exOffset := 33 + nameLen
	if nameLen%2 == 0 {
		exOffset++
	}
	entryLen := exOffset + 8
	buf := make([]byte, entryLen)
	buf[0] = byte(entryLen)
	putBE32(buf[6:10], addr)
	putBE32(buf[14:18], size)
	buf[25] = flags
	buf[32] = byte(nameLen)
	copy(buf[33:33+nameLen], name)
	buf[exOffset+7] = fileNum
	if flags&volume.FileFlagDirectory != 0 {
		buf[exOffset+5] = volume.FileAttrDirectory
	}
	return buf
}

// buildTestImage assembles a minimal single-directory CD-i track image: a
// message sector, a disc label, the disc-label terminator, the path table,
// a filler block, the root directory (listing "GREETING.DAT" and the
// unreadable "BAD.DAT"), and the Mode-2 Form-1 data of "GREETING.DAT".
func buildTestImage(t *testing.T) []byte {
	t.Helper()
	var blocks []sector.Data

	blocks = append(blocks, buildSector(0, 2, 0, 0, sector.SubmodeForm|sector.SubmodeEOF, 0, sector.Mode2Form2Offset, nil))

	pathTable := buildPathTableEntry(".", 5, 1)

	label := make([]byte, sector.Mode2Form1DataSize)
	label[0] = volume.DiscLabelPrimaryRecordType
	copy(label[1:6], "CD-I ")
	copy(label[40:72], padLabel("TESTDISC", 32))
	putBE32(label[136:140], uint32(len(pathTable))) // path table size
	putBE32(label[148:152], 3)                      // path table address = block 3
	blocks = append(blocks, buildSector(1, 2, 0, 0, 0, 0, sector.Mode2Form1Offset, label))

	term := make([]byte, sector.Mode2Form2DataSize)
	term[0] = volume.DiscLabelTerminatorRecordType
	blocks = append(blocks, buildSector(2, 2, 0, 0, sector.SubmodeForm|sector.SubmodeEOF, 0, sector.Mode2Form2Offset, term))

	ptData := make([]byte, sector.Mode2Form1DataSize)
	copy(ptData, pathTable)
	blocks = append(blocks, buildSector(3, 2, 0, 0, sector.SubmodeForm|sector.SubmodeEOF, 0, sector.Mode2Form1Offset, ptData))
	// block 4 is unused filler between the path table and the root directory.
	blocks = append(blocks, buildSector(4, 2, 0, 0, 0, 0, sector.Mode2Form1Offset, make([]byte, sector.Mode2Form1DataSize)))

	var dirData []byte
	dirData = append(dirData, buildDirEntry(".", 5, 0, volume.FileFlagDirectory, 0)...)
	dirData = append(dirData, buildDirEntry("GREETING.DAT", 6, 11, 0, 0)...)
	// BAD.DAT points at a block far past the end of the image, so reading
	// it fails; it exercises per-file error accumulation without aborting
	// the rest of the run.
	dirData = append(dirData, buildDirEntry("BAD.DAT", 9999, 11, 0, 0)...)
	dirBuf := make([]byte, sector.Mode2Form1DataSize)
	copy(dirBuf, dirData)
	blocks = append(blocks, buildSector(5, 2, 0, 0, sector.SubmodeForm|sector.SubmodeEOF, 0, sector.Mode2Form1Offset, dirBuf))

	fileData := make([]byte, sector.Mode2Form1DataSize)
	copy(fileData, "HELLO CD-I!")
	blocks = append(blocks, buildSector(6, 2, 0, 0, sector.SubmodeEOF, 0, sector.Mode2Form1Offset, fileData))

	var out bytes.Buffer
	for _, b := range blocks {
		out.Write(b[:])
	}
	return out.Bytes()
}

func padLabel(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	pad := make([]byte, n-len(s))
	for i := range pad {
		pad[i] = ' '
	}
	return s + string(pad)
}

type readerAtBytes struct{ data []byte }

func (r readerAtBytes) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	data := buildTestImage(t)
	e, err := New(readerAtBytes{data}, int64(len(data)), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestExtractorListReturnsRootEntries(t *testing.T) {
	e := newTestExtractor(t)
	result, err := e.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.VolumeLabel != "TESTDISC" {
		t.Errorf("VolumeLabel = %q", result.VolumeLabel)
	}
	if len(result.Listing) != 1 {
		t.Fatalf("Listing = %v, want 1 directory", result.Listing)
	}
	names := map[string]bool{}
	for _, e := range result.Listing[0].Entries {
		names[e.Name] = true
	}
	if !names["GREETING.DAT"] {
		t.Fatalf("expected GREETING.DAT in root entries: %v", result.Listing[0].Entries)
	}
}

func TestExtractorCopyFilesWritesContent(t *testing.T) {
	e := newTestExtractor(t)
	dir := t.TempDir()
	result, err := e.CopyFiles(dir)
	if err != nil {
		t.Fatalf("CopyFiles: %v", err)
	}
	if result.FilesCopied != 1 {
		t.Fatalf("FilesCopied = %d, want 1", result.FilesCopied)
	}
	got, err := os.ReadFile(filepath.Join(dir, "GREETING.DAT"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "HELLO CD-I!" {
		t.Fatalf("content = %q", got)
	}
}

func TestExtractorCopyFilesRecordsPerFileErrors(t *testing.T) {
	e := newTestExtractor(t)
	dir := t.TempDir()
	result, err := e.CopyFiles(dir)
	if err != nil {
		t.Fatalf("CopyFiles: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v, want 1 entry for BAD.DAT", result.Errors)
	}
	fe := result.Errors[0]
	if fe.FileName != "BAD.DAT" {
		t.Fatalf("Errors[0].FileName = %q, want BAD.DAT", fe.FileName)
	}
	if result.FilesCopied != 1 {
		t.Fatalf("FilesCopied = %d, want 1 (GREETING.DAT still copied despite BAD.DAT failing)", result.FilesCopied)
	}
}

func TestExtractorExtractDYUVSkipsNonVideoFiles(t *testing.T) {
	e := newTestExtractor(t)
	dir := t.TempDir()
	result, err := e.ExtractDYUV(dir, settings.Default(dir))
	if err != nil {
		t.Fatalf("ExtractDYUV: %v", err)
	}
	if result.ImagesWritten != 0 {
		t.Fatalf("ImagesWritten = %d, want 0 (GREETING.DAT carries no video sectors)", result.ImagesWritten)
	}
}
