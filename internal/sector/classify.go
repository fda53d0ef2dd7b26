package sector

// Classify parses and classifies a descrambled sector in one step. The
// header-only methods on Header remain available for callers that already
// have a Header (e.g. from a cached classification pass over a batch of
// sectors), mirroring the reference parser's duplicate header/sector-arg
// predicate overloads.
func Classify(data *Data) Header {
	return ParseHeader(data)
}

// IsMode1Sector reports whether the descrambled sector is Mode-1.
func IsMode1Sector(data *Data) bool { return ParseHeader(data).IsMode1() }

// IsMode2Sector reports whether the descrambled sector is Mode-2.
func IsMode2Sector(data *Data) bool { return ParseHeader(data).IsMode2() }

// IsMode2Form1Sector reports Mode-2 Form-1.
func IsMode2Form1Sector(data *Data) bool { return ParseHeader(data).IsMode2Form1() }

// IsMode2Form2Sector reports Mode-2 Form-2.
func IsMode2Form2Sector(data *Data) bool { return ParseHeader(data).IsMode2Form2() }

// IsEOFSector reports the end-of-file submode bit.
func IsEOFSector(data *Data) bool { return ParseHeader(data).IsEOF() }

// IsMessageSector reports a message/delimiter sector.
func IsMessageSector(data *Data) bool { return ParseHeader(data).IsMessage() }

// IsEmptySector reports an empty Mode-2 sector.
func IsEmptySector(data *Data) bool { return ParseHeader(data).IsEmpty() }

// IsAudioSector reports the audio submode bit.
func IsAudioSector(data *Data) bool { return ParseHeader(data).IsAudio() }

// IsVideoSector reports the video submode bit.
func IsVideoSector(data *Data) bool { return ParseHeader(data).IsVideo() }

// IsMPEGAudioSector reports an MPEG-coded audio sector.
func IsMPEGAudioSector(data *Data) bool { return ParseHeader(data).IsMPEGAudio() }

// IsMPEGVideoSector reports an MPEG-coded video sector.
func IsMPEGVideoSector(data *Data) bool { return ParseHeader(data).IsMPEGVideo() }
