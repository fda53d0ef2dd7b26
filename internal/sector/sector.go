// Package sector implements the raw CD-i/CD-ROM XA sector format: fetching
// 2352-byte sectors from a track image, descrambling them, and parsing the
// Mode-1/Mode-2 header that every higher layer dispatches on.
package sector

import (
	"errors"
	"io"

	"github.com/cdiextract/cdiextract/internal/byteutil"
	"github.com/cdiextract/cdiextract/internal/cdierr"
)

// Size is the fixed length of a raw CD-i sector, sync pattern through
// Form-2 payload and trailing ECC.
const Size = 2352

// HeaderOffset is the byte offset of the 4-byte address+mode header,
// immediately following the 12-byte sync pattern.
const HeaderOffset = 12

// SubheaderOffset is the byte offset of the 4-byte Mode-2 subheader
// (file number, channel number, submode, coding info), which is stored
// twice in immediate succession for redundancy.
const SubheaderOffset = 16

var syncPattern = [12]byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

// Submode bitmap flags, from the first copy of the Mode-2 subheader.
const (
	SubmodeEOR       = 1 << 0
	SubmodeVideo     = 1 << 1
	SubmodeAudio     = 1 << 2
	SubmodeData      = 1 << 3
	SubmodeTrigger   = 1 << 4
	SubmodeForm      = 1 << 5
	SubmodeRealtime  = 1 << 6
	SubmodeEOF       = 1 << 7
)

// Coding-info constants for the video low nibble.
const (
	CodingCLUT4      = 0
	CodingCLUT7      = 1
	CodingCLUT8      = 2
	CodingRL3        = 3
	CodingRL7        = 4
	CodingDYUV       = 5
	CodingRGB555Low  = 6
	CodingRGB555Up   = 7
	CodingQHY        = 8
	CodingVideoMPEG  = 0x0f
	CodingAudioMPEG  = 0x7f
	videoCodingMask  = 0x0f
	audioCodingMask  = 0x7f
)

// Mode-1/Mode-2 payload sizes and offsets.
const (
	Mode1DataSize      = 2048
	Mode1DataOffset    = 16
	Mode2Form1DataSize = 2048
	Mode2Form1Offset   = 24
	Mode2Form2DataSize = 2324
	Mode2Form2Offset   = 24
)

// Data is one raw, still-scrambled (or already descrambled) sector buffer.
type Data [Size]byte

// Header is the decoded 8-byte address+mode+subheader block (the subheader
// fields come from the first copy at offset 16-19; the redundant second
// copy at offset 20-23 is not read).
type Header struct {
	Minutes    byte
	Seconds    byte
	Frame      byte
	Mode       byte
	FileNum    byte
	ChannelNum byte
	Submode    byte
	CodingInfo byte
}

// IsMode1 reports whether the header describes a Mode-1 sector.
func (h Header) IsMode1() bool { return h.Mode == 1 }

// IsMode2 reports whether the header describes a Mode-2 sector.
func (h Header) IsMode2() bool { return h.Mode == 2 }

// IsForm1 reports whether a Mode-2 sector's submode marks it Form-1.
func (h Header) IsForm1() bool { return h.IsMode2() && h.Submode&SubmodeForm == 0 }

// IsForm2 reports whether a Mode-2 sector's submode marks it Form-2.
func (h Header) IsForm2() bool { return h.IsMode2() && h.Submode&SubmodeForm != 0 }

// IsMode2Form1 reports Mode-2 Form-1.
func (h Header) IsMode2Form1() bool { return h.IsMode2() && h.IsForm1() }

// IsMode2Form2 reports Mode-2 Form-2.
func (h Header) IsMode2Form2() bool { return h.IsMode2() && h.IsForm2() }

// IsEOF reports whether the end-of-file submode bit is set.
func (h Header) IsEOF() bool { return h.IsMode2() && h.Submode&SubmodeEOF != 0 }

// IsEOR reports whether the end-of-record submode bit is set.
func (h Header) IsEOR() bool { return h.IsMode2() && h.Submode&SubmodeEOR != 0 }

// IsAudio reports whether the audio submode bit is set on a Mode-2 sector.
func (h Header) IsAudio() bool { return h.IsMode2() && h.Submode&SubmodeAudio != 0 }

// IsVideo reports whether the video submode bit is set on a Mode-2 sector.
func (h Header) IsVideo() bool { return h.IsMode2() && h.Submode&SubmodeVideo != 0 }

// IsMPEGAudio reports an audio sector whose coding info is the MPEG sentinel.
func (h Header) IsMPEGAudio() bool { return h.IsAudio() && h.CodingInfo == CodingAudioMPEG }

// IsMPEGVideo reports a video sector whose coding info is the MPEG sentinel.
func (h Header) IsMPEGVideo() bool { return h.IsVideo() && h.CodingInfo == CodingVideoMPEG }

// IsMessage reports a Mode-2 Form-2 sector with file/channel 0 and no
// coding info — the message/disc-label-block delimiter sectors at the
// start of the track.
func (h Header) IsMessage() bool {
	return h.IsMode2Form2() && h.FileNum == 0 && h.ChannelNum == 0 && h.CodingInfo == 0
}

// IsEmpty reports a Mode-2 sector carrying no video/audio/data payload.
func (h Header) IsEmpty() bool {
	return h.IsMode2() && h.ChannelNum == 0 &&
		h.Submode&(SubmodeVideo|SubmodeAudio|SubmodeData) == 0 &&
		h.CodingInfo == 0
}

// VideoCoding extracts the video coding identifier from the low nibble.
func (h Header) VideoCoding() byte { return h.CodingInfo & videoCodingMask }

// Block returns the block number this sector's address encodes, relative
// to the start of the track image (the 150-block pre-gap subtracted out).
func (h Header) Block() int {
	return byteutil.AddressToBlock(h.Minutes, h.Seconds, h.Frame) - byteutil.PregapBlocks
}

// ParseHeader decodes the address/mode/subheader fields from a descrambled
// sector. It always reads the subheader's first copy (offset 16); the
// second copy that the format stores for redundancy is ignored.
func ParseHeader(data *Data) Header {
	return Header{
		Minutes:    data[HeaderOffset+0],
		Seconds:    data[HeaderOffset+1],
		Frame:      data[HeaderOffset+2],
		Mode:       data[HeaderOffset+3],
		FileNum:    data[SubheaderOffset+0],
		ChannelNum: data[SubheaderOffset+1],
		Submode:    data[SubheaderOffset+2],
		CodingInfo: data[SubheaderOffset+3],
	}
}

// IsValid reports whether data begins with the fixed 12-byte sync pattern.
func IsValid(data *Data) bool {
	for i, b := range syncPattern {
		if data[i] != b {
			return false
		}
	}
	return true
}

// Mode1Data returns the Mode-1 payload slice of a descrambled sector.
func Mode1Data(data *Data) []byte {
	return data[Mode1DataOffset : Mode1DataOffset+Mode1DataSize]
}

// Mode2Form1Data returns the Mode-2 Form-1 payload slice of a descrambled
// sector.
func Mode2Form1Data(data *Data) []byte {
	return data[Mode2Form1Offset : Mode2Form1Offset+Mode2Form1DataSize]
}

// Mode2Form2Data returns the Mode-2 Form-2 payload slice of a descrambled
// sector.
func Mode2Form2Data(data *Data) []byte {
	return data[Mode2Form2Offset : Mode2Form2Offset+Mode2Form2DataSize]
}

// PayloadData returns the sector's data payload sized and offset according
// to its own header, along with a bool reporting whether the header
// described a recognized Mode-1/Mode-2 Form-1/Form-2 layout.
func PayloadData(data *Data, h Header) ([]byte, bool) {
	switch {
	case h.IsMode1():
		return Mode1Data(data), true
	case h.IsMode2Form1():
		return Mode2Form1Data(data), true
	case h.IsMode2Form2():
		return Mode2Form2Data(data), true
	default:
		return nil, false
	}
}

// Descramble reverses the CD-i scrambler in place, leaving the 12-byte
// sync pattern untouched. The LFSR resets at the start of every call, since
// scrambling state never carries across sector boundaries.
func Descramble(data *Data) {
	l := byteutil.NewLFSR()
	for i := HeaderOffset; i < Size; i++ {
		data[i] ^= l.NextByte()
	}
}

// ErrShortRead is returned by Reader.FetchNext when fewer than Size bytes
// remain in the underlying image at the current position.
var ErrShortRead = errors.New("sector: short read")

// Reader fetches successive raw sectors from a track image and tracks the
// byte offset / block-address correspondence established by the first
// sector read, so later seeks can translate a target block back to a byte
// offset without re-scanning from the start.
type Reader struct {
	src              io.ReaderAt
	size             int64
	pos              int64
	synced           bool
	fetched          int
	haveAddressBase  bool
	addressByteBase  int64
	addressBlockBase int
}

// NewReader creates a Reader over src, which must support reads at
// arbitrary absolute offsets and report a fixed total size.
func NewReader(src io.ReaderAt, size int64) *Reader {
	return &Reader{src: src, size: size}
}

// NumFetched returns how many sectors have been fetched so far.
func (r *Reader) NumFetched() int { return r.fetched }

// FetchNext reads the next sector. On the very first call it scans
// byte-by-byte from the reader's current position for the 12-byte sync
// pattern, tolerating a brief run of junk bytes (or a track image that
// doesn't start exactly at offset 0) before the first sector; every
// subsequent call assumes the stream has stayed sector-aligned since then
// and reads exactly Size bytes. It additionally records the byte-offset/
// block-address correspondence on the first fetch (by descrambling a
// scratch copy to read the header), mirroring the reference reader's lazy
// address-base capture.
func (r *Reader) FetchNext(out *Data) error {
	if !r.synced {
		if err := r.huntSync(out); err != nil {
			return err
		}
		r.synced = true
	} else {
		if err := r.readExact(out, r.pos); err != nil {
			return err
		}
		r.pos += Size
	}
	r.fetched++

	if !r.haveAddressBase {
		var scratch Data
		scratch = *out
		Descramble(&scratch)
		h := ParseHeader(&scratch)
		r.addressBlockBase = h.Block()
		r.haveAddressBase = true
	}
	return nil
}

// readExact reads exactly Size bytes at offset into out.
func (r *Reader) readExact(out *Data, offset int64) error {
	if offset+Size > r.size {
		return ErrShortRead
	}
	n, err := r.src.ReadAt(out[:], offset)
	if err != nil && err != io.EOF {
		return err
	}
	if n != Size {
		return ErrShortRead
	}
	return nil
}

// huntSync scans byte-by-byte from the reader's current position for the
// 12-byte sync pattern. It leaves r.pos positioned one sector past the
// match and records the match offset as the byte/block address base.
func (r *Reader) huntSync(out *Data) error {
	var probe [1]byte
	window := make([]byte, 0, len(syncPattern))
	pos := r.pos
	for {
		if pos >= r.size {
			return cdierr.New(cdierr.NotFound, "sync pattern never located in the input")
		}
		n, err := r.src.ReadAt(probe[:], pos)
		if n == 0 {
			return cdierr.New(cdierr.NotFound, "sync pattern never located in the input")
		}
		if err != nil && err != io.EOF {
			return err
		}
		pos++
		window = append(window, probe[0])
		if len(window) > len(syncPattern) {
			window = window[1:]
		}
		if len(window) == len(syncPattern) && matchesSync(window) {
			syncStart := pos - int64(len(syncPattern))
			if err := r.readExact(out, syncStart); err != nil {
				return err
			}
			r.pos = syncStart + Size
			r.addressByteBase = syncStart
			return nil
		}
	}
}

func matchesSync(window []byte) bool {
	for i, b := range syncPattern {
		if window[i] != b {
			return false
		}
	}
	return true
}

// SeekToBlock repositions the reader so the next FetchNext call returns the
// sector at the given image-relative block number. It requires at least
// one prior FetchNext call to have established the byte/block base.
func (r *Reader) SeekToBlock(block int) error {
	if !r.haveAddressBase {
		return errors.New("sector: cannot seek before first fetch establishes address base")
	}
	delta := int64(block-r.addressBlockBase) * Size
	target := r.addressByteBase + delta
	if target < 0 || target > r.size {
		return errors.New("sector: seek target out of range")
	}
	r.pos = target
	return nil
}
