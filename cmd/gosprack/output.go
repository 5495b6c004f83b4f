package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/philipparndt/gosprack/internal/app"
	"github.com/philipparndt/gosprack/internal/project"
)

// writePNG encodes img to path, creating parent directories
func writePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// writeSlices writes one PNG per layer into dir, named by stack position
// and layer name
func writeSlices(a *app.App, dir string) ([]string, error) {
	var written []string
	for i, t := range a.Layers.Textures() {
		path := filepath.Join(dir, fmt.Sprintf("%03d_%s.png", i, safeName(t.Layer.Name)))
		if err := writePNG(path, t.Image); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// writeBundle exports the session as a .sprack file
func writeBundle(a *app.App, path string) error {
	f, err := a.ExportProject()
	if err != nil {
		return err
	}
	data, err := project.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func safeName(name string) string {
	out := []rune(name)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "layer"
	}
	return string(out)
}
