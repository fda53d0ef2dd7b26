package sink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cdiextract/cdiextract/internal/cdierr"
	"github.com/cdiextract/cdiextract/internal/sector"
)

// MPEGDemuxer splits an interleaved stream of MPEG audio/video sectors into
// one file per channel number, creating each output file lazily the first
// time a sector for that channel is seen.
//
// Channel files are named "audio_channel_N.mpeg" / "video_channel_N.mpeg",
// matching the reference extractor's naming convention.
type MPEGDemuxer struct {
	destDir string
	streams map[string]*os.File
	onOpen  func(path string)
}

// NewMPEGDemuxer prepares a demuxer that creates channel files under
// destDir on first use. onOpen, if non-nil, is called once per file created
// (for progress reporting); it may be nil.
func NewMPEGDemuxer(destDir string, onOpen func(path string)) *MPEGDemuxer {
	return &MPEGDemuxer{destDir: destDir, streams: make(map[string]*os.File), onOpen: onOpen}
}

// HandleSector inspects one sector. It returns (consumed, error): consumed
// is false for sectors that are neither MPEG audio nor MPEG video, signaling
// the caller should keep scanning without treating this as a write.
func (d *MPEGDemuxer) HandleSector(data *sector.Data, h sector.Header) (bool, error) {
	var streamName string
	switch {
	case h.IsMPEGAudio():
		streamName = fmt.Sprintf("audio_channel_%d.mpeg", h.ChannelNum)
	case h.IsMPEGVideo():
		streamName = fmt.Sprintf("video_channel_%d.mpeg", h.ChannelNum)
	default:
		return false, nil
	}

	payload, ok := sector.PayloadData(data, h)
	if !ok {
		return true, cdierr.New(cdierr.Corruption, "mpeg sector has neither form-1 nor form-2 payload")
	}

	f, err := d.streamFor(streamName)
	if err != nil {
		return true, err
	}
	if _, err := f.Write(payload); err != nil {
		return true, cdierr.Wrap(cdierr.IoError, err, "writing "+streamName)
	}
	return true, nil
}

func (d *MPEGDemuxer) streamFor(name string) (*os.File, error) {
	if f, ok := d.streams[name]; ok {
		return f, nil
	}
	if err := os.MkdirAll(d.destDir, 0o755); err != nil {
		return nil, cdierr.Wrap(cdierr.IoError, err, "creating destination directory")
	}
	path := filepath.Join(d.destDir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, cdierr.Wrap(cdierr.IoError, err, "creating "+name)
	}
	d.streams[name] = f
	if d.onOpen != nil {
		d.onOpen(path)
	}
	return f, nil
}

// StreamCount reports how many distinct channel files were opened.
func (d *MPEGDemuxer) StreamCount() int {
	return len(d.streams)
}

// Close closes every open channel file, returning the first error
// encountered (if any) after attempting to close them all.
func (d *MPEGDemuxer) Close() error {
	var firstErr error
	for _, f := range d.streams {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = cdierr.Wrap(cdierr.IoError, err, "closing mpeg stream")
		}
	}
	return firstErr
}
