package pianoroll

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cbegin/aldakit-go/internal/midi"
)

func testSequence() *midi.Sequence {
	seq := midi.NewSequence()
	seq.Notes = []midi.Note{
		{Pitch: 60, Velocity: 80, Start: 0, Duration: 0.5, Channel: 0},
		{Pitch: 64, Velocity: 80, Start: 0.5, Duration: 0.5, Channel: 0},
		{Pitch: 48, Velocity: 100, Start: 0, Duration: 1.0, Channel: 1},
	}
	return seq
}

func TestRenderImageSize(t *testing.T) {
	opts := DefaultOptions()
	img, err := Render(testSequence(), opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != opts.Width || bounds.Dy() != opts.Height {
		t.Fatalf("image size = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), opts.Width, opts.Height)
	}
}

func TestRenderEmptySequence(t *testing.T) {
	if _, err := Render(midi.NewSequence(), DefaultOptions()); err != nil {
		t.Fatalf("render empty: %v", err)
	}
}

func TestRenderInvalidSize(t *testing.T) {
	if _, err := Render(testSequence(), Options{Width: 0, Height: 100}); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestRenderPNGFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roll.png")
	if err := RenderPNG(testSequence(), path, DefaultOptions()); err != nil {
		t.Fatalf("render png: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != DefaultOptions().Width {
		t.Fatalf("png width = %d, want %d", cfg.Width, DefaultOptions().Width)
	}
}
