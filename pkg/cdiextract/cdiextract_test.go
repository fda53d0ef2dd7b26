package cdiextract

import (
	"context"
	"testing"
)

func TestRunRequiresInputPath(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected error for missing input path")
	}
}

func TestRunRejectsMissingFile(t *testing.T) {
	_, err := Run(context.Background(), Options{InputPath: "/nonexistent/track.bin"})
	if err == nil {
		t.Fatal("expected error for nonexistent input file")
	}
}

func TestDefaultDYUVSettingsMatchesConventionalValues(t *testing.T) {
	d := DefaultDYUVSettings()
	if d.Width != 384 || d.Height != 280 {
		t.Fatalf("unexpected frame size: %dx%d", d.Width, d.Height)
	}
	if d.SeedY != 16 || d.SeedU != 128 || d.SeedV != 128 {
		t.Fatalf("unexpected seed: %d/%d/%d", d.SeedY, d.SeedU, d.SeedV)
	}
	if !d.Interpolate {
		t.Fatal("expected Interpolate to default true")
	}
}
