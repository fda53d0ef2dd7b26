package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cdiextract/cdiextract/internal/sector"
)

func makeMPEGSector(channel byte, audio bool, form1 bool) *sector.Data {
	var data sector.Data
	data[sector.HeaderOffset+3] = 2 // mode 2
	subheader := sector.SubheaderOffset
	data[subheader] = 0 // file_num
	data[subheader+1] = channel
	if form1 {
		data[subheader+2] = 0 // submode: form 1
	} else {
		data[subheader+2] = sector.SubmodeForm
	}
	if audio {
		data[subheader+2] |= sector.SubmodeAudio
		data[subheader+3] = 0x7f // audio mpeg sentinel
	} else {
		data[subheader+2] |= sector.SubmodeVideo
		data[subheader+3] = sector.CodingVideoMPEG
	}
	return &data
}

func TestMPEGDemuxerSplitsByChannel(t *testing.T) {
	dir := t.TempDir()
	var opened []string
	d := NewMPEGDemuxer(dir, func(path string) { opened = append(opened, path) })

	s1 := makeMPEGSector(1, true, true)
	h1 := sector.ParseHeader(s1)
	consumed, err := d.HandleSector(s1, h1)
	if err != nil || !consumed {
		t.Fatalf("HandleSector audio ch1: consumed=%v err=%v", consumed, err)
	}

	s2 := makeMPEGSector(2, false, true)
	h2 := sector.ParseHeader(s2)
	consumed, err = d.HandleSector(s2, h2)
	if err != nil || !consumed {
		t.Fatalf("HandleSector video ch2: consumed=%v err=%v", consumed, err)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if d.StreamCount() != 2 {
		t.Fatalf("StreamCount = %d, want 2", d.StreamCount())
	}
	if len(opened) != 2 {
		t.Fatalf("opened = %v, want 2 entries", opened)
	}

	if _, err := os.Stat(filepath.Join(dir, "audio_channel_1.mpeg")); err != nil {
		t.Errorf("audio_channel_1.mpeg missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "video_channel_2.mpeg")); err != nil {
		t.Errorf("video_channel_2.mpeg missing: %v", err)
	}
}

func TestMPEGDemuxerIgnoresNonMPEGSectors(t *testing.T) {
	dir := t.TempDir()
	d := NewMPEGDemuxer(dir, nil)

	var data sector.Data
	h := sector.ParseHeader(&data)
	consumed, err := d.HandleSector(&data, h)
	if err != nil {
		t.Fatalf("HandleSector: %v", err)
	}
	if consumed {
		t.Fatal("expected non-mpeg sector to be unconsumed")
	}
	if d.StreamCount() != 0 {
		t.Fatalf("StreamCount = %d, want 0", d.StreamCount())
	}
}
