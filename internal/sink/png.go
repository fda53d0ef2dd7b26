package sink

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/cdiextract/cdiextract/internal/cdierr"
)

// WritePNG encodes an RGB-24 buffer (row-major, 3 bytes per pixel, as
// produced by package dyuv's Decode) to a PNG file at destination.
func WritePNG(destination string, rgb []byte, width, height int) error {
	if len(rgb) != width*height*3 {
		return cdierr.New(cdierr.InvalidOption, "rgb buffer size does not match width*height*3")
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	pos := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: rgb[pos], G: rgb[pos+1], B: rgb[pos+2], A: 0xff})
			pos += 3
		}
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return cdierr.Wrap(cdierr.IoError, err, "creating destination directory")
	}

	f, err := os.Create(destination)
	if err != nil {
		return cdierr.Wrap(cdierr.IoError, err, "creating png file")
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		os.Remove(destination)
		return cdierr.Wrap(cdierr.IoError, err, "encoding png")
	}
	return nil
}
