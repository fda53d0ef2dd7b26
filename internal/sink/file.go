// Package sink implements the extractor's write-side collaborators: plain
// file output with partial-write cleanup, per-channel MPEG stream
// demultiplexing, and PNG encoding of decoded DYUV frames.
package sink

import (
	"os"
	"path/filepath"

	"github.com/cdiextract/cdiextract/internal/cdierr"
)

// FileWriter writes one file's worth of streamed payload chunks to
// destination, removing the partially-written file if anything fails —
// the Go equivalent of the reference copier's catch-and-delete behavior.
type FileWriter struct {
	destination string
	file        *os.File
	failed      bool
}

// NewFileWriter creates the destination's parent directory (if needed) and
// opens destination for writing.
func NewFileWriter(destination string) (*FileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return nil, cdierr.Wrap(cdierr.IoError, err, "creating destination directory")
	}
	f, err := os.Create(destination)
	if err != nil {
		return nil, cdierr.Wrap(cdierr.IoError, err, "creating destination file")
	}
	return &FileWriter{destination: destination, file: f}, nil
}

// Write appends a chunk to the destination file.
func (w *FileWriter) Write(data []byte) error {
	if _, err := w.file.Write(data); err != nil {
		w.failed = true
		return cdierr.Wrap(cdierr.IoError, err, "writing destination file")
	}
	return nil
}

// Close finalizes the write. If any prior Write failed, Close removes the
// partially-written destination file instead of leaving truncated output
// behind.
func (w *FileWriter) Close() error {
	closeErr := w.file.Close()
	if w.failed || closeErr != nil {
		os.Remove(w.destination)
		if closeErr != nil {
			return cdierr.Wrap(cdierr.IoError, closeErr, "closing destination file")
		}
	}
	return nil
}

// CopyFile drains the volume reader's file payload (via readFile, which
// mirrors volume.Reader.ReadFile's handler signature) to destination, and
// removes the destination on any failure.
func CopyFile(destination string, readFile func(handler func(data []byte) bool) error) error {
	w, err := NewFileWriter(destination)
	if err != nil {
		return err
	}

	var writeErr error
	err = readFile(func(data []byte) bool {
		if writeErr = w.Write(data); writeErr != nil {
			return false
		}
		return true
	})
	if err != nil {
		w.failed = true
	}

	closeErr := w.Close()
	if err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}
