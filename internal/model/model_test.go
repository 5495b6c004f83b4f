package model

import (
	"bytes"
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/philipparndt/gosprack/pkg/geometry"
	"github.com/philipparndt/gosprack/pkg/modelio"
	"github.com/philipparndt/gosprack/pkg/scene"
)

func offsetModel() *scene.Node {
	mat := scene.NewMaterial("steel", color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	mat.Metalness = 1
	box := scene.NewBox("box", geometry.NewVector3(2, 10, 4), mat)
	box.SetPosition(geometry.NewVector3(5, 7, -3))

	root := scene.NewNode("root")
	root.SetPosition(geometry.NewVector3(1, 1, 1))
	root.Add(box)
	return root
}

func TestPrepareCentersModel(t *testing.T) {
	m := Prepare(offsetModel())

	if math.Abs(m.Box.Min.Y) > 1e-10 {
		t.Errorf("MinY failed: expected 0, got %v", m.Box.Min.Y)
	}
	if math.Abs(m.Center.X) > 1e-10 || math.Abs(m.Center.Z) > 1e-10 {
		t.Errorf("Center failed: expected x=z=0, got %v", m.Center)
	}

	expected := geometry.NewVector3(2, 10, 4)
	if m.Size.Distance(expected) > 1e-10 {
		t.Errorf("Size failed: expected %v, got %v", expected, m.Size)
	}

	// the live bounds agree with the reported ones
	live := m.Root.BoundingBox()
	if live.Min.Distance(m.Box.Min) > 1e-10 {
		t.Errorf("Box failed: expected %v, got %v", live.Min, m.Box.Min)
	}
}

func TestPrepareStripsMetalness(t *testing.T) {
	m := Prepare(offsetModel())
	for _, mat := range m.Root.Materials() {
		if mat.Metalness != 0 {
			t.Errorf("Metalness failed: expected 0, got %v", mat.Metalness)
		}
	}
}

func TestSnapshot(t *testing.T) {
	m := Prepare(offsetModel())
	snap := m.Snapshot()
	if snap.MinY() != m.Box.Min.Y || snap.Size != m.Size {
		t.Errorf("Snapshot failed: got %+v", snap)
	}
}

func TestPrepareEmptyScene(t *testing.T) {
	m := Prepare(scene.NewNode("empty"))
	if m.Size != (geometry.Vector3{}) || m.Center != (geometry.Vector3{}) {
		t.Errorf("Prepare failed: expected zero size and center, got %v and %v", m.Size, m.Center)
	}
	if !m.Root.Transform.IsIdentity() {
		t.Errorf("Prepare failed: empty scene should not move")
	}
}

func TestServiceLifecycle(t *testing.T) {
	s := NewService()
	if s.Current() != nil {
		t.Fatal("Expected no model")
	}
	if err := s.Export(&bytes.Buffer{}, true); !errors.Is(err, ErrNoModel) {
		t.Errorf("Export failed: expected ErrNoModel, got %v", err)
	}

	s.Set(offsetModel())
	var buf bytes.Buffer
	if err := s.Export(&buf, true); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	m, err := s.LoadBytes(buf.Bytes(), modelio.FormatGLB, "reloaded")
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if m.Size.Distance(geometry.NewVector3(2, 10, 4)) > 1e-5 {
		t.Errorf("Reloaded size failed: got %v", m.Size)
	}
	if s.Current() != m {
		t.Error("Current failed: expected reloaded model")
	}

	s.Clear()
	if s.Current() != nil {
		t.Error("Clear failed")
	}
}
