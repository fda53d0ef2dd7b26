// Package dyuv decodes CD-i Delta-YUV (DYUV) still-image data to RGB-24.
package dyuv

// codingTable is the 16-entry delta codebook applied to each 4-bit nibble
// of delta-coded luma/chroma data.
var codingTable = [16]byte{0, 1, 4, 9, 16, 27, 44, 79, 128, 177, 212, 229, 240, 247, 252, 255}

// Seed is the per-line starting YUV value. Real CD-i DYUV images seed every
// line from the same fixed value (the format carries no explicit seed
// field), conventionally Y=16, U=128, V=128.
type Seed struct {
	Y, U, V byte
}

// DefaultSeed is the conventional per-line reset value.
var DefaultSeed = Seed{Y: 16, U: 128, V: 128}

// Options controls a Decode call.
type Options struct {
	Width, Height int
	Seed          Seed
	// Interpolate enables chroma averaging between a pixel pair and the
	// next pair on the same line, smoothing the 2x horizontal chroma
	// subsampling DYUV otherwise exhibits.
	Interpolate bool
}

// Decode converts width*height bytes of DYUV-coded data (2 bytes per pixel
// pair, one line of `width` bytes per output row) to an RGB-24 buffer of
// width*height*3 bytes, row-major, 3 bytes per pixel.
//
// Each line reseeds its running Y/U/V accumulators from options.Seed. Each
// iteration of the inner loop consumes one byte pair and emits two RGB
// pixels: the first pixel advances Y, U and V, the second advances Y only
// and takes either the current chroma pair or (optionally, by peeking at
// the following pair without consuming it) an interpolated chroma pair.
func Decode(data []byte, options Options) []byte {
	width, height := options.Width, options.Height
	lineSize := width
	out := make([]byte, width*height*3)
	outPos := 0

	for line := 0; line < height; line++ {
		lineStart := line * lineSize
		lineEnd := lineStart + lineSize

		curY, curU, curV := options.Seed.Y, options.Seed.U, options.Seed.V

		for pos := lineStart; pos < lineEnd; pos += 2 {
			b0 := data[pos]
			b1 := data[pos+1]

			codeY0 := b0 & 0x0f
			codeU := b0 >> 4
			codeY1 := b1 & 0x0f
			codeV := b1 >> 4

			curY += codingTable[codeY0]
			curU += codingTable[codeU]
			curV += codingTable[codeV]

			y0, u0, v0 := curY, curU, curV
			r, g, b := yuvToRGB(y0, u0, v0)
			out[outPos], out[outPos+1], out[outPos+2] = r, g, b
			outPos += 3

			curY += codingTable[codeY1]
			y1 := curY

			var u1, v1 byte
			if options.Interpolate && pos+2 < lineEnd {
				nextCodeU := data[pos+2] >> 4
				nextCodeV := data[pos+3] >> 4
				nextU := curU + codingTable[nextCodeU]
				nextV := curV + codingTable[nextCodeV]
				u1 = byte((uint16(curU) + uint16(nextU)) >> 1)
				v1 = byte((uint16(curV) + uint16(nextV)) >> 1)
			} else {
				u1, v1 = curU, curV
			}

			r, g, b = yuvToRGB(y1, u1, v1)
			out[outPos], out[outPos+1], out[outPos+2] = r, g, b
			outPos += 3
		}
	}

	return out
}

// Fixed-point YUV->RGB conversion constants, taken verbatim from the
// reference decoder.
const (
	vToR  = 89850
	uToB  = 113574
	yToG  = 111646
	rToG  = 33382
	bToG  = 12728
	round = 0x7fff
)

func yuvToRGB(y, u, v byte) (r, g, b byte) {
	yy := int32(y) << 16
	bb := yy + (int32(u)-128)*uToB + round
	rr := yy + (int32(v)-128)*vToR + round
	gg := int32(y)*yToG - (rr>>16)*rToG - (bb>>16)*bToG + round

	return clamp(rr), clamp(gg), clamp(bb)
}

func clamp(v int32) byte {
	switch {
	case v < 0:
		v = 0
	case v > 0xffffff:
		v = 0xffffff
	}
	return byte(v >> 16)
}
