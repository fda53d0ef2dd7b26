// Package extract implements the extractor's four operating modes — listing
// a track image's contents, copying ordinary files, demultiplexing
// real-time MPEG streams, and decoding DYUV still images to PNG — on top of
// package volume's catalog and package sink's writers.
//
// Every mode walks the same directory catalog synchronously, sector by
// sector, in path order; there is no worker pool here, unlike the teacher's
// disc-scanning orchestrator; one track image is read start to finish by a
// single goroutine, matching the reference tool's single-threaded model.
package extract

import (
	"io"
	"path/filepath"
	"sort"

	"github.com/cdiextract/cdiextract/internal/cdierr"
	"github.com/cdiextract/cdiextract/internal/dyuv"
	"github.com/cdiextract/cdiextract/internal/sector"
	"github.com/cdiextract/cdiextract/internal/settings"
	"github.com/cdiextract/cdiextract/internal/sink"
	"github.com/cdiextract/cdiextract/internal/volume"
)

// Stage identifies a coarse phase of an extraction run, for progress
// reporting.
type Stage string

const (
	StageOpening    Stage = "opening"
	StageCataloging Stage = "cataloging"
	StageDirectory  Stage = "directory"
	StageFile       Stage = "file"
	StageDone       Stage = "done"
)

// Event is emitted as an extraction run progresses.
type Event struct {
	Stage     Stage
	Path      string
	FileName  string
	Completed bool
}

// ProgressFunc receives Events as a run progresses. It may be nil.
type ProgressFunc func(Event)

// DirectoryListing is one directory's catalog entry set, for the List mode.
type DirectoryListing struct {
	Path    string
	Entries []volume.DirEntry
}

// FileError records a recoverable failure against a single catalog entry
// (or an entire directory, when FileName is empty) that was logged and
// skipped rather than aborting the run.
type FileError struct {
	Path     string
	FileName string
	Err      error
}

func (fe FileError) Error() string {
	if fe.FileName == "" {
		return fe.Path + ": " + fe.Err.Error()
	}
	return fe.Path + "/" + fe.FileName + ": " + fe.Err.Error()
}

// Unwrap exposes the underlying cause so errors.Is/errors.As compose.
func (fe FileError) Unwrap() error { return fe.Err }

// Result summarizes one extraction run.
type Result struct {
	VolumeLabel   string
	Listing       []DirectoryListing
	FilesCopied   int
	StreamsOpened int
	ImagesWritten int
	Errors        []FileError
}

// Extractor walks a CD-i track image's catalog and dispatches each entry to
// the requested operating mode.
type Extractor struct {
	vr       *volume.Reader
	progress ProgressFunc
}

// New opens a volume reader over src (an io.ReaderAt of the given size,
// typically an *os.File positioned at a raw .bin/.img track image) and
// scans its disc label and path table.
func New(src io.ReaderAt, size int64, progress ProgressFunc) (*Extractor, error) {
	emit(progress, Event{Stage: StageOpening})
	sr := sector.NewReader(src, size)
	vr := volume.NewReader(sr)
	emit(progress, Event{Stage: StageCataloging})
	if err := vr.Init(); err != nil {
		return nil, err
	}
	return &Extractor{vr: vr, progress: progress}, nil
}

// VolumeLabel returns the disc's stripped primary volume label.
func (e *Extractor) VolumeLabel() string {
	return e.vr.VolumeLabel()
}

// List returns every directory's contents, in sorted path order, without
// writing anything to disk.
func (e *Extractor) List() (Result, error) {
	paths := e.vr.AllPaths()
	listing := make([]DirectoryListing, 0, len(paths))
	for _, path := range paths {
		emit(e.progress, Event{Stage: StageDirectory, Path: path})
		entries, ok, err := e.vr.ReadDirectory(path)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}
		listing = append(listing, DirectoryListing{Path: path, Entries: sortedEntries(entries)})
	}
	return Result{VolumeLabel: e.VolumeLabel(), Listing: listing}, nil
}

// CopyFiles copies every ordinary (non-directory) file in the catalog to
// destRoot, preserving the catalog's directory structure. MPEG real-time
// streams are not files in the ISO-9660 sense and are left untouched here;
// use ExtractMPEG for those.
func (e *Extractor) CopyFiles(destRoot string) (Result, error) {
	paths := e.vr.AllPaths()
	copied := 0
	var fileErrs []FileError
	for _, path := range paths {
		emit(e.progress, Event{Stage: StageDirectory, Path: path})
		entries, ok, err := e.vr.ReadDirectory(path)
		if err != nil {
			fileErrs = append(fileErrs, FileError{Path: path, Err: err})
			continue
		}
		if !ok {
			continue
		}
		destDir := filepath.Join(destRoot, filepath.FromSlash(path))
		for _, entry := range entries {
			if entry.IsDirectory() {
				continue
			}
			emit(e.progress, Event{Stage: StageFile, Path: path, FileName: entry.Name})
			destination := filepath.Join(destDir, entry.Name)
			if err := sink.CopyFile(destination, func(handler func(data []byte) bool) error {
				return e.vr.ReadFile(entry, handler)
			}); err != nil {
				fileErrs = append(fileErrs, FileError{Path: path, FileName: entry.Name, Err: err})
				continue
			}
			copied++
			emit(e.progress, Event{Stage: StageFile, Path: path, FileName: entry.Name, Completed: true})
		}
	}
	return Result{VolumeLabel: e.VolumeLabel(), FilesCopied: copied, Errors: fileErrs}, nil
}

// ExtractMPEG demultiplexes every file's interleaved real-time MPEG audio
// and video sectors into per-channel ".mpeg" files under destRoot. Each
// file's streams go into a "<file name>.MEDIA" subdirectory of the file's
// mirrored catalog directory, so the stream directory never collides with
// a same-named real file.
func (e *Extractor) ExtractMPEG(destRoot string) (Result, error) {
	paths := e.vr.AllPaths()
	streams := 0
	var fileErrs []FileError
	for _, path := range paths {
		entries, ok, err := e.vr.ReadDirectory(path)
		if err != nil {
			fileErrs = append(fileErrs, FileError{Path: path, Err: err})
			continue
		}
		if !ok {
			continue
		}
		for _, entry := range entries {
			if entry.IsDirectory() {
				continue
			}
			emit(e.progress, Event{Stage: StageFile, Path: path, FileName: entry.Name})
			destDir := filepath.Join(destRoot, filepath.FromSlash(path), entry.Name+".MEDIA")
			demux := sink.NewMPEGDemuxer(destDir, nil)
			var scanErr error
			err = e.vr.ScanFile(entry, func(d *sector.Data, h sector.Header) bool {
				_, handleErr := demux.HandleSector(d, h)
				if handleErr != nil {
					scanErr = handleErr
					return false
				}
				return true
			})
			closeErr := demux.Close()
			if scanErr != nil {
				fileErrs = append(fileErrs, FileError{Path: path, FileName: entry.Name, Err: scanErr})
				continue
			}
			if err != nil {
				fileErrs = append(fileErrs, FileError{Path: path, FileName: entry.Name, Err: err})
				continue
			}
			if closeErr != nil {
				fileErrs = append(fileErrs, FileError{Path: path, FileName: entry.Name, Err: closeErr})
				continue
			}
			streams += demux.StreamCount()
			emit(e.progress, Event{Stage: StageFile, Path: path, FileName: entry.Name, Completed: true})
		}
	}
	return Result{VolumeLabel: e.VolumeLabel(), StreamsOpened: streams, Errors: fileErrs}, nil
}

// ExtractDYUV decodes every video file whose coding info marks it as a
// DYUV still image into a PNG of the given frame size under destRoot.
// Files with no DYUV-coded sectors are skipped.
func (e *Extractor) ExtractDYUV(destRoot string, frameSettings settings.Settings) (Result, error) {
	paths := e.vr.AllPaths()
	written := 0
	var fileErrs []FileError
	for _, path := range paths {
		entries, ok, err := e.vr.ReadDirectory(path)
		if err != nil {
			fileErrs = append(fileErrs, FileError{Path: path, Err: err})
			continue
		}
		if !ok {
			continue
		}
		for _, entry := range entries {
			if entry.IsDirectory() {
				continue
			}
			emit(e.progress, Event{Stage: StageFile, Path: path, FileName: entry.Name})

			var payload []byte
			var found bool
			scanErr := e.vr.ScanFile(entry, func(d *sector.Data, h sector.Header) bool {
				if !h.IsVideo() || h.VideoCoding() != sector.CodingDYUV {
					return true
				}
				found = true
				chunk, ok := sector.PayloadData(d, h)
				if !ok {
					return true
				}
				payload = append(payload, chunk...)
				return true
			})
			if scanErr != nil {
				fileErrs = append(fileErrs, FileError{Path: path, FileName: entry.Name, Err: scanErr})
				continue
			}
			if !found {
				continue
			}

			need := frameSettings.DYUVWidth * frameSettings.DYUVHeight
			if len(payload) < need {
				fileErrs = append(fileErrs, FileError{
					Path: path, FileName: entry.Name,
					Err: cdierr.New(cdierr.Corruption, "dyuv stream shorter than configured frame size"),
				})
				continue
			}
			rgb := dyuv.Decode(payload[:need], dyuv.Options{
				Width:       frameSettings.DYUVWidth,
				Height:      frameSettings.DYUVHeight,
				Seed:        frameSettings.DYUVSeed,
				Interpolate: frameSettings.DYUVInterpolate,
			})

			destDir := filepath.Join(destRoot, filepath.FromSlash(path))
			destination := filepath.Join(destDir, stripExtension(entry.Name)+".png")
			if err := sink.WritePNG(destination, rgb, frameSettings.DYUVWidth, frameSettings.DYUVHeight); err != nil {
				fileErrs = append(fileErrs, FileError{Path: path, FileName: entry.Name, Err: err})
				continue
			}
			written++
			emit(e.progress, Event{Stage: StageFile, Path: path, FileName: entry.Name, Completed: true})
		}
	}
	return Result{VolumeLabel: e.VolumeLabel(), ImagesWritten: written, Errors: fileErrs}, nil
}

// ExtractAll runs CopyFiles and ExtractMPEG, combining their results — the
// equivalent of the reference tool's combined "extract everything" command.
func (e *Extractor) ExtractAll(destRoot string) (Result, error) {
	filesResult, err := e.CopyFiles(destRoot)
	if err != nil {
		return Result{}, err
	}
	mpegResult, err := e.ExtractMPEG(destRoot)
	if err != nil {
		return Result{}, err
	}
	return Result{
		VolumeLabel:   e.VolumeLabel(),
		FilesCopied:   filesResult.FilesCopied,
		StreamsOpened: mpegResult.StreamsOpened,
		Errors:        append(filesResult.Errors, mpegResult.Errors...),
	}, nil
}

func emit(progress ProgressFunc, event Event) {
	if progress != nil {
		progress(event)
	}
}

func sortedEntries(entries []volume.DirEntry) []volume.DirEntry {
	out := make([]volume.DirEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func stripExtension(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}
