// Package modelio loads model assets into scene graphs and exports them back.
// STL, glTF (JSON and binary) and OpenSCAD sources are supported.
package modelio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/philipparndt/gosprack/pkg/openscad"
	"github.com/philipparndt/gosprack/pkg/scene"
	"github.com/philipparndt/gosprack/pkg/stl"
)

// Format identifies a model encoding
type Format string

const (
	FormatSTL  Format = "stl"
	FormatGLB  Format = "glb"
	FormatGLTF Format = "gltf"
	FormatSCAD Format = "scad"
)

var (
	// ErrUnsupportedFormat is returned for encodings that cannot be read or written
	ErrUnsupportedFormat = errors.New("unsupported model format")
	// ErrNoGeometry is returned when an export finds no triangle meshes
	ErrNoGeometry = errors.New("no exportable geometry")
)

// DefaultColor is applied to formats without material information
var DefaultColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// DetectFormat guesses the format from the file name, falling back to the
// content when the extension is unknown.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".stl":
		return FormatSTL
	case ".glb":
		return FormatGLB
	case ".gltf":
		return FormatGLTF
	case ".scad":
		return FormatSCAD
	}

	if bytes.HasPrefix(data, []byte("glTF")) {
		return FormatGLB
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatGLTF
	}
	return FormatSTL
}

// Load reads a model file. OpenSCAD sources are rendered to STL first.
func Load(ctx context.Context, path string) (*scene.Node, error) {
	if DetectFormat(path, nil) == FormatSCAD {
		data, err := openscad.NewRenderer(filepath.Dir(path)).RenderSTL(ctx, path)
		if err != nil {
			return nil, err
		}
		return LoadBytes(data, FormatSTL, modelName(path))
	}

	if DetectFormat(path, nil) == FormatGLTF {
		// external buffers are resolved relative to the file
		return loadGLTFFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	return LoadBytes(data, DetectFormat(path, data), modelName(path))
}

// LoadBytes decodes an in-memory model
func LoadBytes(data []byte, format Format, name string) (*scene.Node, error) {
	switch format {
	case FormatSTL:
		return loadSTL(data, name)
	case FormatGLB, FormatGLTF:
		return decodeGLTF(data, name)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func loadSTL(data []byte, name string) (*scene.Node, error) {
	model, err := stl.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode STL: %w", err)
	}

	// STL carries no winding guarantees, draw both faces
	mat := scene.NewMaterial("stl", DefaultColor)
	mat.Side = scene.DoubleSide

	root := scene.NewNode(name)
	root.Add(scene.NewMeshNode(model.Name, model.Triangles, mat))
	return root, nil
}

func modelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExportSTL writes the world-space triangles of the scene as binary STL
func ExportSTL(w io.Writer, root *scene.Node) error {
	model := stl.NewModel(root.Name, root.WorldTriangles()...)
	if len(model.Triangles) == 0 {
		return ErrNoGeometry
	}
	return stl.WriteBinary(w, model)
}
