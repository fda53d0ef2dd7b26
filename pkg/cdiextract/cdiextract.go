// Package cdiextract is the library-facing entry point for extracting
// files, real-time MPEG streams, and DYUV still images from a raw CD-i
// track image. It wraps the internal volume/sector/extract packages behind
// an Options/Result API, following the shape of the teacher library's own
// facade package.
package cdiextract

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/cdiextract/cdiextract/internal/dyuv"
	"github.com/cdiextract/cdiextract/internal/extract"
	internalsettings "github.com/cdiextract/cdiextract/internal/settings"
)

// Mode selects which extraction operation Run performs.
type Mode string

const (
	// ModeList prints the catalog without writing anything.
	ModeList Mode = "list"
	// ModeExtractFiles copies ordinary files, preserving directory structure.
	ModeExtractFiles Mode = "extract-files"
	// ModeExtractMPEGs demultiplexes real-time MPEG audio/video streams.
	ModeExtractMPEGs Mode = "extract-mpegs"
	// ModeExtractDYUV decodes DYUV still images to PNG.
	ModeExtractDYUV Mode = "extract-dyuv"
	// ModeExtractAll runs ModeExtractFiles and ModeExtractMPEGs together.
	ModeExtractAll Mode = "extract-all"
)

// Stage mirrors extract.Stage for library consumers that don't want to
// import the internal package directly.
type Stage string

const (
	StageOpening    Stage = "opening"
	StageCataloging Stage = "cataloging"
	StageDirectory  Stage = "directory"
	StageFile       Stage = "file"
	StageDone       Stage = "done"
)

// ProgressEvent is emitted as Run progresses.
type ProgressEvent struct {
	Stage      Stage
	Path       string
	FileName   string
	Completed  bool
	Elapsed    time.Duration
	OccurredAt time.Time
}

// DYUVSettings controls still-image decoding for ModeExtractDYUV.
type DYUVSettings struct {
	Width, Height int
	SeedY         byte
	SeedU         byte
	SeedV         byte
	Interpolate   bool
}

// Options configure one Run call.
type Options struct {
	// InputPath is a raw CD-i track image (.bin/.img/.iso), read via
	// os.Open and accessed as an io.ReaderAt.
	InputPath string
	// OutputRoot is the base directory extraction modes write under; Run
	// further qualifies it with the disc's volume label. Unused by ModeList.
	OutputRoot string
	Mode       Mode
	DYUV       DYUVSettings
	OnProgress func(ProgressEvent)
}

// DirectoryEntry is one catalog entry, for ModeList results.
type DirectoryEntry struct {
	Name        string
	IsDirectory bool
	SizeBytes   uint32
}

// DirectoryListing is one directory's full entry set.
type DirectoryListing struct {
	Path    string
	Entries []DirectoryEntry
}

// FileError records a recoverable failure against one catalog entry (or an
// entire directory, when FileName is empty) that Run logged and skipped
// rather than aborting the whole run.
type FileError struct {
	Path     string
	FileName string
	Err      error
}

// Result contains structured output from a Run call.
type Result struct {
	VolumeLabel   string
	OutputDir     string
	Listing       []DirectoryListing
	FilesCopied   int
	StreamsOpened int
	ImagesWritten int
	Errors        []FileError
}

// DefaultDYUVSettings returns the conventional DYUV decode defaults (a
// normal-resolution CD-i still, seeded Y=16/U=128/V=128, with chroma
// interpolation enabled).
func DefaultDYUVSettings() DYUVSettings {
	base := internalsettings.Default("")
	return DYUVSettings{
		Width:       base.DYUVWidth,
		Height:      base.DYUVHeight,
		SeedY:       base.DYUVSeed.Y,
		SeedU:       base.DYUVSeed.U,
		SeedV:       base.DYUVSeed.V,
		Interpolate: base.DYUVInterpolate,
	}
}

// Run opens options.InputPath and performs the requested extraction mode.
func Run(ctx context.Context, options Options) (Result, error) {
	if options.InputPath == "" {
		return Result{}, errors.New("input path is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	f, err := os.Open(options.InputPath)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Result{}, err
	}

	ex, err := extract.New(f, info.Size(), adaptProgress(options.OnProgress))
	if err != nil {
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	switch options.Mode {
	case ModeList, "":
		res, err := ex.List()
		if err != nil {
			return Result{}, err
		}
		return fromExtractResult(res, ""), nil

	case ModeExtractFiles:
		destDir := outputDir(options, ex)
		res, err := ex.CopyFiles(destDir)
		if err != nil {
			return Result{}, err
		}
		return fromExtractResult(res, destDir), nil

	case ModeExtractMPEGs:
		destDir := outputDir(options, ex)
		res, err := ex.ExtractMPEG(destDir)
		if err != nil {
			return Result{}, err
		}
		return fromExtractResult(res, destDir), nil

	case ModeExtractDYUV:
		destDir := outputDir(options, ex)
		res, err := ex.ExtractDYUV(destDir, toInternalDYUVSettings(options.DYUV, destDir))
		if err != nil {
			return Result{}, err
		}
		return fromExtractResult(res, destDir), nil

	case ModeExtractAll:
		destDir := outputDir(options, ex)
		res, err := ex.ExtractAll(destDir)
		if err != nil {
			return Result{}, err
		}
		return fromExtractResult(res, destDir), nil

	default:
		return Result{}, errors.New("unknown mode: " + string(options.Mode))
	}
}

func outputDir(options Options, ex *extract.Extractor) string {
	s := internalsettings.Default(options.OutputRoot)
	return s.OutputDirFor(ex.VolumeLabel())
}

func toInternalDYUVSettings(d DYUVSettings, outputRoot string) internalsettings.Settings {
	s := internalsettings.Default(outputRoot)
	if d.Width > 0 {
		s.DYUVWidth = d.Width
	}
	if d.Height > 0 {
		s.DYUVHeight = d.Height
	}
	if d.SeedY != 0 || d.SeedU != 0 || d.SeedV != 0 {
		s.DYUVSeed = dyuv.Seed{Y: d.SeedY, U: d.SeedU, V: d.SeedV}
	}
	s.DYUVInterpolate = d.Interpolate
	return s
}

func adaptProgress(cb func(ProgressEvent)) extract.ProgressFunc {
	if cb == nil {
		return nil
	}
	return func(e extract.Event) {
		cb(ProgressEvent{
			Stage:      Stage(e.Stage),
			Path:       e.Path,
			FileName:   e.FileName,
			Completed:  e.Completed,
			OccurredAt: time.Now(),
		})
	}
}

func fromExtractResult(res extract.Result, outputDir string) Result {
	listing := make([]DirectoryListing, 0, len(res.Listing))
	for _, dir := range res.Listing {
		entries := make([]DirectoryEntry, 0, len(dir.Entries))
		for _, e := range dir.Entries {
			entries = append(entries, DirectoryEntry{
				Name:        e.Name,
				IsDirectory: e.IsDirectory(),
				SizeBytes:   e.Entry.FileSize,
			})
		}
		listing = append(listing, DirectoryListing{Path: dir.Path, Entries: entries})
	}
	fileErrs := make([]FileError, 0, len(res.Errors))
	for _, fe := range res.Errors {
		fileErrs = append(fileErrs, FileError{Path: fe.Path, FileName: fe.FileName, Err: fe.Err})
	}
	return Result{
		VolumeLabel:   res.VolumeLabel,
		OutputDir:     outputDir,
		Listing:       listing,
		FilesCopied:   res.FilesCopied,
		StreamsOpened: res.StreamsOpened,
		ImagesWritten: res.ImagesWritten,
		Errors:        fileErrs,
	}
}
