// Package settings holds the extractor's tunable defaults: DYUV decode
// parameters and the output directory layout, mirroring the way the
// reference tool's config layer separates defaults from CLI overrides.
package settings

import (
	"path/filepath"

	"github.com/cdiextract/cdiextract/internal/dyuv"
)

// Settings collects the extractor's run-time options.
type Settings struct {
	// DYUVWidth/DYUVHeight size a still image for DYUV decoding. CD-i still
	// images are conventionally full-screen (384x280 for a normal-resolution
	// still) but real-world discs vary, so these are overridable.
	DYUVWidth  int
	DYUVHeight int

	// DYUVSeed is the per-line reset value fed to the DYUV decoder.
	DYUVSeed dyuv.Seed

	// DYUVInterpolate enables chroma interpolation between pixel pairs.
	DYUVInterpolate bool

	// OutputRoot is the base directory extracted files are written under.
	// The extractor further qualifies this with the disc's volume label.
	OutputRoot string
}

// DefaultDYUVWidth/DefaultDYUVHeight match a normal-resolution CD-i still.
const (
	DefaultDYUVWidth  = 384
	DefaultDYUVHeight = 280
)

// Default returns the extractor's baseline settings, writing output under
// outputRoot.
func Default(outputRoot string) Settings {
	return Settings{
		DYUVWidth:       DefaultDYUVWidth,
		DYUVHeight:      DefaultDYUVHeight,
		DYUVSeed:        dyuv.DefaultSeed,
		DYUVInterpolate: true,
		OutputRoot:      outputRoot,
	}
}

// OutputDirFor qualifies OutputRoot with the disc's volume label, so
// extractions from different discs never collide under the same root. An
// empty label yields OutputRoot itself.
func (s Settings) OutputDirFor(volumeLabel string) string {
	if volumeLabel == "" {
		return s.OutputRoot
	}
	return filepath.Join(s.OutputRoot, volumeLabel)
}
