// Package project serializes the layer collection and its source model into
// a SprackFile bundle.
package project

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/philipparndt/gosprack/internal/layer"
	"github.com/philipparndt/gosprack/internal/model"
	"github.com/philipparndt/gosprack/pkg/modelio"
)

const pngDataURLPrefix = "data:image/png;base64,"

// ErrInvalidFile is returned for bundles that cannot be imported
var ErrInvalidFile = errors.New("invalid sprack file")

// File is a saved project
type File struct {
	ProjectName string  `json:"projectName"`
	Layers      []Layer `json:"layers"`
	LayerWidth  int     `json:"layerWidth"`
	LayerHeight int     `json:"layerHeight"`
	GLB         []byte  `json:"glb"`
}

// Layer is a saved slice
type Layer struct {
	ID            string  `json:"id"`
	CanvasDataURL string  `json:"canvasDataUrl"`
	Height        float64 `json:"height"`
	Thickness     float64 `json:"thickness"`
	Name          string  `json:"name"`
}

// DataURL encodes PNG bytes as a data URL
func DataURL(png []byte) string {
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(png)
}

// ParseDataURL decodes a PNG data URL
func ParseDataURL(s string) ([]byte, error) {
	if !strings.HasPrefix(s, pngDataURLPrefix) {
		return nil, fmt.Errorf("%w: not a PNG data URL", ErrInvalidFile)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, pngDataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return data, nil
}

// Export captures the registry and the current model
func Export(reg *layer.Registry, models *model.Service) (*File, error) {
	var glb bytes.Buffer
	if err := models.Export(&glb, true); err != nil {
		return nil, fmt.Errorf("failed to export model: %w", err)
	}

	w, h := reg.Size()
	f := &File{
		ProjectName: reg.ProjectName(),
		LayerWidth:  w,
		LayerHeight: h,
		GLB:         glb.Bytes(),
		Layers:      []Layer{},
	}
	for _, l := range reg.Layers() {
		f.Layers = append(f.Layers, Layer{
			ID:            l.ID,
			CanvasDataURL: DataURL(l.Raster),
			Height:        l.Height,
			Thickness:     l.Thickness,
			Name:          l.Name,
		})
	}
	return f, nil
}

// Validate checks a bundle before anything is changed
func (f *File) Validate() error {
	if len(f.GLB) == 0 {
		return fmt.Errorf("%w: missing model", ErrInvalidFile)
	}
	if f.LayerWidth <= 0 || f.LayerHeight <= 0 {
		return fmt.Errorf("%w: layer size %dx%d", ErrInvalidFile, f.LayerWidth, f.LayerHeight)
	}
	seen := make(map[string]bool, len(f.Layers))
	for i, l := range f.Layers {
		if l.ID == "" || seen[l.ID] {
			return fmt.Errorf("%w: layer %d has a missing or duplicate id", ErrInvalidFile, i)
		}
		seen[l.ID] = true
		if l.Height < 0 || l.Height > 100 {
			return fmt.Errorf("layer %d: %w", i, layer.ErrInvalidHeight)
		}
		if l.Thickness < 1 || l.Thickness > 100 {
			return fmt.Errorf("layer %d: %w", i, layer.ErrInvalidThickness)
		}
	}
	return nil
}

// Import replaces the model and every layer with the bundle contents.
// Rasters are re-rendered from the model, so ids, parameters, names and
// order survive while images always match the current renderer.
func Import(reg *layer.Registry, models *model.Service, f *File) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if _, err := models.LoadBytes(f.GLB, modelio.FormatGLB, f.ProjectName); err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	if err := reg.Reset(); err != nil {
		return err
	}
	if err := reg.SetLayerSize(f.LayerWidth, f.LayerHeight); err != nil {
		return err
	}
	reg.SetProjectName(f.ProjectName)

	for _, l := range f.Layers {
		if _, err := reg.CreateLayerWithID(l.ID, l.Height, l.Thickness, l.Name); err != nil {
			return fmt.Errorf("failed to restore layer %s: %w", l.ID, err)
		}
	}
	slog.Info("project imported", "name", f.ProjectName, "layers", len(f.Layers))
	return nil
}

// Encode writes the bundle as JSON
func Encode(w io.Writer, f *File) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	return nil
}

// Decode reads a JSON bundle
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return &f, nil
}

// Marshal encodes the bundle to bytes
func Marshal(f *File) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
