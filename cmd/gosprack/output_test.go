package main

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Layer 1", "Layer_1"},
		{"top/cap", "top_cap"},
		{"", "layer"},
		{"a-b_c", "a-b_c"},
	}
	for _, tt := range tests {
		if got := safeName(tt.name); got != tt.expected {
			t.Errorf("safeName(%q) failed: expected %q, got %q", tt.name, tt.expected, got)
		}
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.png")
	if err := writePNG(path, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatalf("writePNG failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("writePNG failed: expected 3x2, got %v", img.Bounds())
	}
}
