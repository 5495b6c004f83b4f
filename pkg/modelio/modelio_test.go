package modelio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philipparndt/gosprack/pkg/geometry"
	"github.com/philipparndt/gosprack/pkg/scene"
)

const asciiCube = `solid tri
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 2
    endloop
  endfacet
endsolid tri
`

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		expect Format
	}{
		{"model.STL", nil, FormatSTL},
		{"model.glb", nil, FormatGLB},
		{"scene.gltf", nil, FormatGLTF},
		{"part.scad", nil, FormatSCAD},
		{"upload", []byte("glTF\x02\x00\x00\x00"), FormatGLB},
		{"upload", []byte("  {\"asset\":{}}"), FormatGLTF},
		{"upload", []byte("solid x"), FormatSTL},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.name, tt.data); got != tt.expect {
			t.Errorf("DetectFormat(%q) failed: expected %s, got %s", tt.name, tt.expect, got)
		}
	}
}

func TestLoadSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.stl")
	if err := os.WriteFile(path, []byte(asciiCube), 0o644); err != nil {
		t.Fatal(err)
	}

	root, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if root.Name != "tri" {
		t.Errorf("Name failed: expected tri, got %s", root.Name)
	}
	mats := root.Materials()
	if len(mats) != 1 || mats[0].Side != scene.DoubleSide {
		t.Errorf("Material failed: expected one double sided material, got %v", mats)
	}
	if n := len(root.WorldTriangles()); n != 1 {
		t.Errorf("Triangle count failed: expected 1, got %d", n)
	}
}

func TestLoadBytesErrors(t *testing.T) {
	if _, err := LoadBytes([]byte("solid x\nfacet normal 0 0 1\nouter loop\nvertex a b c\n"), FormatSTL, "bad"); err == nil {
		t.Error("Expected STL decode error")
	}
	if _, err := LoadBytes([]byte("{not json"), FormatGLTF, "bad"); err == nil {
		t.Error("Expected glTF decode error")
	}
	if _, err := LoadBytes(nil, FormatSCAD, "x"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

const gltfTemplate = `{"asset":{"version":"2.0"},"scene":0,"scenes":[{"nodes":[0]}],` +
	`"nodes":[%s],"meshes":[{"primitives":[%s]}],"accessors":[%s],"bufferViews":[%s],` +
	`"buffers":[{"byteLength":36,"uri":"data:application/octet-stream;base64,AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"}]}`

func TestLoadMalformedGLTF(t *testing.T) {
	const (
		node = `{"mesh":0}`
		prim = `{"attributes":{"POSITION":0}}`
		acr  = `{"bufferView":0,"componentType":5126,"count":3,"type":"VEC3"}`
		view = `{"buffer":0,"byteLength":36}`
	)
	valid := fmt.Sprintf(gltfTemplate, node, prim, acr, view)
	if _, err := LoadBytes([]byte(valid), FormatGLTF, "valid"); err != nil {
		t.Fatalf("LoadBytes failed on a valid document: %v", err)
	}

	tests := []struct {
		name string
		doc  string
	}{
		{"missing accessor", `{"asset":{"version":"2.0"},"meshes":[{"primitives":[{"attributes":{"POSITION":7}}]}],"nodes":[{"mesh":0}]}`},
		{"negative accessor", fmt.Sprintf(gltfTemplate, node, `{"attributes":{"POSITION":-1}}`, acr, view)},
		{"missing indices", fmt.Sprintf(gltfTemplate, node, `{"attributes":{"POSITION":0},"indices":9}`, acr, view)},
		{"missing material", fmt.Sprintf(gltfTemplate, node, `{"attributes":{"POSITION":0},"material":5}`, acr, view)},
		{"negative material", fmt.Sprintf(gltfTemplate, node, `{"attributes":{"POSITION":0},"material":-1}`, acr, view)},
		{"missing mesh", fmt.Sprintf(gltfTemplate, `{"mesh":3}`, prim, acr, view)},
		{"negative mesh", fmt.Sprintf(gltfTemplate, `{"mesh":-1}`, prim, acr, view)},
		{"missing buffer view", fmt.Sprintf(gltfTemplate, node, prim, `{"bufferView":4,"componentType":5126,"count":3,"type":"VEC3"}`, view)},
		{"no buffer view", fmt.Sprintf(gltfTemplate, node, prim, `{"componentType":5126,"count":3,"type":"VEC3"}`, view)},
		{"count past view", fmt.Sprintf(gltfTemplate, node, prim, `{"bufferView":0,"componentType":5126,"count":1000,"type":"VEC3"}`, view)},
		{"offset past view", fmt.Sprintf(gltfTemplate, node, prim, `{"bufferView":0,"byteOffset":40,"componentType":5126,"count":1,"type":"VEC3"}`, view)},
		{"view past buffer", fmt.Sprintf(gltfTemplate, node, prim, acr, `{"buffer":0,"byteLength":64}`)},
		{"missing buffer", fmt.Sprintf(gltfTemplate, node, prim, acr, `{"buffer":2,"byteLength":36}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadBytes([]byte(tt.doc), FormatGLTF, "bad"); err == nil {
				t.Errorf("LoadBytes(%s) failed: expected an error", tt.name)
			}
		})
	}

	_, err := LoadBytes([]byte(tests[0].doc), FormatGLTF, "bad")
	if err == nil || !strings.Contains(err.Error(), "accessor index 7 out of range") {
		t.Errorf("Error failed: expected accessor index message, got %v", err)
	}
}

func testScene() *scene.Node {
	mat := scene.NewMaterial("green", color.NRGBA{G: 255, A: 255})
	mat.Metalness = 0.5
	mat.Side = scene.DoubleSide
	box := scene.NewBox("box", geometry.NewVector3(2, 4, 6), mat)
	box.SetPosition(geometry.NewVector3(1, 2, 3))
	root := scene.NewNode("root")
	root.Add(box)
	return root
}

func assertRoundTrip(t *testing.T, binary bool) {
	t.Helper()
	var buf bytes.Buffer
	if err := Export(&buf, testScene(), binary); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	format := FormatGLTF
	if binary {
		format = FormatGLB
		if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
			t.Fatalf("Export failed: expected GLB magic")
		}
	}

	root, err := LoadBytes(buf.Bytes(), format, "roundtrip")
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if n := len(root.WorldTriangles()); n != 12 {
		t.Errorf("Triangle count failed: expected 12, got %d", n)
	}

	bbox := root.BoundingBox()
	if bbox.Min.Distance(geometry.NewVector3(0, 0, 0)) > 1e-5 || bbox.Max.Distance(geometry.NewVector3(2, 4, 6)) > 1e-5 {
		t.Errorf("Bounds failed: got %v..%v", bbox.Min, bbox.Max)
	}

	mats := root.Materials()
	if len(mats) == 0 {
		t.Fatal("Material failed: expected materials")
	}
	m := mats[0]
	if m.Color.G != 255 || m.Color.R != 0 {
		t.Errorf("Color failed: expected green, got %v", m.Color)
	}
	if math.Abs(m.Metalness-0.5) > 1e-10 {
		t.Errorf("Metalness failed: expected 0.5, got %v", m.Metalness)
	}
	if m.Side != scene.DoubleSide {
		t.Errorf("Side failed: expected DoubleSide, got %v", m.Side)
	}
}

func TestExportGLBRoundTrip(t *testing.T) {
	assertRoundTrip(t, true)
}

func TestExportGLTFRoundTrip(t *testing.T) {
	assertRoundTrip(t, false)
}

func TestExportNoGeometry(t *testing.T) {
	if err := Export(&bytes.Buffer{}, scene.NewNode("empty"), true); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("Expected ErrNoGeometry, got %v", err)
	}
	if err := ExportSTL(&bytes.Buffer{}, scene.NewNode("empty")); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("Expected ErrNoGeometry, got %v", err)
	}
}

func TestExportSTL(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportSTL(&buf, testScene()); err != nil {
		t.Fatalf("ExportSTL failed: %v", err)
	}
	root, err := LoadBytes(buf.Bytes(), FormatSTL, "box")
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	bbox := root.BoundingBox()
	if bbox.Max.Distance(geometry.NewVector3(2, 4, 6)) > 1e-5 {
		t.Errorf("Bounds failed: got %v", bbox.Max)
	}
}
