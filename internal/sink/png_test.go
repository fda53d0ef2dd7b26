package sink

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestWritePNGProducesDecodableImage(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "frame.png")

	width, height := 4, 2
	rgb := make([]byte, width*height*3)
	for i := range rgb {
		rgb[i] = byte(i % 256)
	}

	if err := WritePNG(dest, rgb, width, height); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		t.Fatalf("decoded size = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), width, height)
	}
}

func TestWritePNGRejectsMismatchedBufferSize(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "frame.png")

	err := WritePNG(dest, make([]byte, 5), 4, 2)
	if err == nil {
		t.Fatal("expected error for mismatched buffer size")
	}
}
