package volume

import (
	"sort"
	"strings"

	"github.com/cdiextract/cdiextract/internal/cdierr"
	"github.com/cdiextract/cdiextract/internal/sector"
)

// DirEntry is one decoded directory record: its name, the fixed ISO-9660
// fields, and the CD-i extended record.
type DirEntry struct {
	Name  string
	Entry DirectoryEntry
	Ex    DirectoryEntryEx
}

// IsDirectory reports whether this record names a subdirectory, per the
// CD-i extended record's FileAttr bit (not the base ISO-9660 FileFlags
// byte, which CD-i media leaves meaningless for this purpose).
func (d DirEntry) IsDirectory() bool { return d.Ex.FileAttr&FileAttrDirectory != 0 }

// FileHandler receives successive payload chunks of a file's data and
// returns false to stop early.
type FileHandler func(data []byte) bool

// SectorHandler receives whole sectors (header included) belonging to a
// file, for demultiplexing use cases such as MPEG stream routing.
type SectorHandler func(data *sector.Data, h sector.Header) bool

// Reader parses a CD-i track image's volume structure: the disc label(s),
// the path table, and on-demand directory/file contents.
type Reader struct {
	sr         *sector.Reader
	hasCurrent bool
	current    sector.Data

	inited  bool
	failed  bool
	failErr error

	labels  []DiscLabel
	catalog map[string]uint32 // absolute directory path -> starting block

	dirCache map[string][]DirEntry
}

// NewReader creates a Reader over sr. Call Init before any other method.
func NewReader(sr *sector.Reader) *Reader {
	return &Reader{sr: sr, dirCache: make(map[string][]DirEntry)}
}

// Init scans the message sectors, disc label(s), and path table. It is
// idempotent: a second call after success is a no-op, and a second call
// after failure returns the original error immediately rather than
// re-running the scan (fixing a bug in the reference implementation, which
// left its failure flag cleared and silently retried from scratch).
func (r *Reader) Init() error {
	if r.inited {
		return nil
	}
	if r.failed {
		return r.failErr
	}

	err := r.initOnce()
	if err != nil {
		r.failed = true
		r.failErr = err
		return err
	}
	r.inited = true
	return nil
}

func (r *Reader) initOnce() error {
	if err := r.readSectors(func(d *sector.Data) bool {
		return sector.IsMessageSector(d)
	}, false); err != nil {
		return err
	}
	if err := r.readDiscLabels(); err != nil {
		return err
	}
	return r.readPathTable()
}

// VolumeLabel returns the stripped primary volume label, or "" if Init has
// not succeeded yet.
func (r *Reader) VolumeLabel() string {
	if len(r.labels) == 0 {
		return ""
	}
	return r.labels[0].VolumeID
}

// AllPaths returns every directory's absolute path, sorted.
func (r *Reader) AllPaths() []string {
	paths := make([]string, 0, len(r.catalog))
	for p := range r.catalog {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (r *Reader) readSectors(action func(*sector.Data) bool, consumeLast bool) error {
	if !r.hasCurrent {
		if err := r.sr.FetchNext(&r.current); err != nil {
			return cdierr.Wrap(cdierr.IoError, err, "reading sector")
		}
		sector.Descramble(&r.current)
		r.hasCurrent = true
	}
	for action(&r.current) {
		if err := r.sr.FetchNext(&r.current); err != nil {
			r.hasCurrent = false
			return cdierr.Wrap(cdierr.IoError, err, "reading sector")
		}
		sector.Descramble(&r.current)
	}
	if consumeLast {
		r.hasCurrent = false
	}
	return nil
}

func (r *Reader) readDiscLabels() error {
	var parseErr error
	action := func(d *sector.Data) bool {
		payload := sector.Mode2Form1Data(d)
		switch payload[discLabelRecordTypeOffset] {
		case DiscLabelPrimaryRecordType:
			r.labels = append(r.labels, ParseDiscLabel(payload))
			return true
		case DiscLabelTerminatorRecordType:
			return false
		default:
			parseErr = cdierr.New(cdierr.Corruption, "corrupted disc label sequence")
			return false
		}
	}
	if err := r.readSectors(action, true); err != nil {
		return err
	}
	if parseErr != nil {
		return parseErr
	}
	if len(r.labels) == 0 {
		return cdierr.New(cdierr.Corruption, "no disc label found")
	}
	return nil
}

func (r *Reader) readPathTable() error {
	label := r.labels[0]
	if err := r.sr.SeekToBlock(int(label.PathTableAddress)); err != nil {
		return cdierr.Wrap(cdierr.IoError, err, "seeking to path table")
	}
	r.hasCurrent = false

	var raw []byte
	action := func(d *sector.Data) bool {
		raw = append(raw, sector.Mode2Form1Data(d)...)
		return !sector.IsEOFSector(d)
	}
	if err := r.readSectors(action, true); err != nil {
		return err
	}
	return r.parsePathTable(raw, label)
}

func (r *Reader) parsePathTable(raw []byte, label DiscLabel) error {
	limit := len(raw)
	if int(label.PathTableSize) < limit {
		limit = int(label.PathTableSize)
	}
	data := raw[:limit]

	type rawEntry struct {
		name   string
		parent uint16
		block  uint32
	}
	var entries []rawEntry
	for pos := 0; pos < len(data); {
		entry, next, ok := parsePathTableEntry(data[pos:])
		if !ok {
			return cdierr.New(cdierr.Corruption, "corrupted path table entry")
		}
		entries = append(entries, rawEntry{entry.Name, entry.ParentDirectoryNum, entry.DirectoryAddress})
		pos += next
	}

	catalog := make(map[string]uint32, len(entries))
	paths := make([]string, len(entries))
	for i, e := range entries {
		var abs string
		if i == 0 {
			abs = "/"
		} else {
			parentIdx := int(e.parent) - 1
			if parentIdx < 0 || parentIdx >= len(paths) || paths[parentIdx] == "" {
				return cdierr.New(cdierr.Corruption, "path table entry references unknown parent")
			}
			parentPath := paths[parentIdx]
			if parentPath == "/" {
				abs = "/" + e.name
			} else {
				abs = parentPath + "/" + e.name
			}
		}
		paths[i] = abs
		catalog[abs] = e.block
	}

	r.catalog = catalog
	return nil
}

// ReadDirectory returns the entries of the directory at the given absolute
// path (exact, case-sensitive match against the catalog). The second
// return value is false if the path is not a known directory.
func (r *Reader) ReadDirectory(path string) ([]DirEntry, bool, error) {
	if cached, ok := r.dirCache[path]; ok {
		return cached, true, nil
	}

	block, ok := r.catalog[path]
	if !ok {
		return nil, false, nil
	}

	if err := r.sr.SeekToBlock(int(block)); err != nil {
		return nil, true, cdierr.Wrap(cdierr.IoError, err, "seeking to directory")
	}
	r.hasCurrent = false

	var raw []byte
	action := func(d *sector.Data) bool {
		raw = append(raw, sector.Mode2Form1Data(d)...)
		return !sector.IsEOFSector(d)
	}
	if err := r.readSectors(action, true); err != nil {
		return nil, true, err
	}

	entries, err := parseDirectoryData(raw)
	if err != nil {
		return nil, true, err
	}
	r.dirCache[path] = entries
	return entries, true, nil
}

func parseDirectoryData(raw []byte) ([]DirEntry, error) {
	var out []DirEntry
	for pos := 0; pos < len(raw); {
		entry, ex, name, next, ok := parseDirectoryEntry(raw[pos:])
		if !ok {
			break
		}
		out = append(out, DirEntry{Name: name, Entry: entry, Ex: ex})
		pos += next
	}
	return out, nil
}

// StatFile looks up filename (exact match) within the directory at
// dirPath. found is false if either the directory or the file is missing.
func (r *Reader) StatFile(dirPath, filename string) (entry DirEntry, found bool, err error) {
	entries, ok, err := r.ReadDirectory(dirPath)
	if err != nil || !ok {
		return DirEntry{}, false, err
	}
	for _, e := range entries {
		if e.Name == filename {
			return e, true, nil
		}
	}
	return DirEntry{}, false, nil
}

// ReadFile streams a file's data payload (Form-1 or Form-2, whichever the
// sectors are authored as) to handler, filtering sectors by file number
// when the entry's extended record specifies a nonzero one (the mechanism
// that demultiplexes several interleaved files sharing one address range).
func (r *Reader) ReadFile(e DirEntry, handler FileHandler) error {
	fileNum := e.Ex.FileNumber
	remaining := int(e.Entry.FileSize)

	if err := r.sr.SeekToBlock(int(e.Entry.FileAddress)); err != nil {
		return cdierr.Wrap(cdierr.IoError, err, "seeking to file")
	}
	r.hasCurrent = false

	var handlerErr error
	action := func(d *sector.Data) bool {
		h := sector.ParseHeader(d)
		if fileNum != 0 && h.FileNum != fileNum {
			return remaining > 0
		}
		var chunk []byte
		switch {
		case h.IsMode2Form1():
			size := min(remaining, sector.Mode2Form1DataSize)
			chunk = sector.Mode2Form1Data(d)[:size]
			remaining -= size
		case h.IsMode2Form2():
			size := min(remaining, sector.Mode2Form2DataSize)
			chunk = sector.Mode2Form2Data(d)[:size]
			remaining -= size
		default:
			handlerErr = cdierr.New(cdierr.Corruption, "unexpected sector form in file stream")
			return false
		}
		if !handler(chunk) {
			return false
		}
		return remaining > 0
	}
	if err := r.readSectors(action, true); err != nil {
		return err
	}
	return handlerErr
}

// ScanFile is like ReadFile but delivers whole sectors (with headers) to
// handler, for consumers that need channel/coding-info metadata — e.g. the
// MPEG stream router and the DYUV frame collector.
func (r *Reader) ScanFile(e DirEntry, handler SectorHandler) error {
	fileNum := e.Ex.FileNumber
	remaining := int(e.Entry.FileSize)

	if err := r.sr.SeekToBlock(int(e.Entry.FileAddress)); err != nil {
		return cdierr.Wrap(cdierr.IoError, err, "seeking to file")
	}
	r.hasCurrent = false

	var handlerErr error
	action := func(d *sector.Data) bool {
		h := sector.ParseHeader(d)
		if fileNum != 0 && h.FileNum != fileNum {
			return remaining > 0
		}
		switch {
		case h.IsMode2Form1():
			remaining -= min(remaining, sector.Mode2Form1DataSize)
		case h.IsMode2Form2():
			remaining -= min(remaining, sector.Mode2Form2DataSize)
		default:
			handlerErr = cdierr.New(cdierr.Corruption, "unexpected sector form in file stream")
			return false
		}
		if !handler(d, h) {
			return false
		}
		return remaining > 0
	}
	if err := r.readSectors(action, true); err != nil {
		return err
	}
	return handlerErr
}

// JoinPath joins a directory's absolute path and a child name, matching
// the catalog's own path separator convention.
func JoinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return strings.TrimRight(dir, "/") + "/" + name
}
