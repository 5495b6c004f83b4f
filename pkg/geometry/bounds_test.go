package geometry

import (
	"math"
	"testing"
)

func TestBoundingBoxEmpty(t *testing.T) {
	bbox := NewBoundingBox()
	if !bbox.IsEmpty() {
		t.Fatal("IsEmpty failed: new box should be empty")
	}
	if bbox.Size() != (Vector3{}) {
		t.Errorf("Size failed: expected zero, got %v", bbox.Size())
	}
	if bbox.Center() != (Vector3{}) {
		t.Errorf("Center failed: expected origin, got %v", bbox.Center())
	}

	bbox.Extend(NewVector3(1, 1, 1))
	if bbox.IsEmpty() {
		t.Error("IsEmpty failed: a single point is not empty")
	}
	if bbox.Size() != (Vector3{}) {
		t.Errorf("Size failed: expected zero extent, got %v", bbox.Size())
	}
}

func TestBoundingBoxExtendTriangle(t *testing.T) {
	bbox := NewBoundingBox()
	bbox.ExtendTriangle(NewTriangle(
		Vector3{},
		NewVector3(1, 2, 3),
		NewVector3(4, 5, 6),
		NewVector3(-1, 0, 2),
	))

	if expected := NewVector3(-1, 0, 2); bbox.Min != expected {
		t.Errorf("Min failed: expected %v, got %v", expected, bbox.Min)
	}
	if expected := NewVector3(4, 5, 6); bbox.Max != expected {
		t.Errorf("Max failed: expected %v, got %v", expected, bbox.Max)
	}
}

func TestBoundingBoxUnion(t *testing.T) {
	a := BoundingBox{Min: NewVector3(0, 0, 0), Max: NewVector3(1, 1, 1)}
	b := BoundingBox{Min: NewVector3(-2, 0.5, 0), Max: NewVector3(0, 3, 0.5)}

	u := a.Union(b)
	if expected := NewVector3(-2, 0, 0); u.Min != expected {
		t.Errorf("Union failed: expected min %v, got %v", expected, u.Min)
	}
	if expected := NewVector3(1, 3, 1); u.Max != expected {
		t.Errorf("Union failed: expected max %v, got %v", expected, u.Max)
	}

	if got := a.Union(NewBoundingBox()); got != a {
		t.Errorf("Union failed: empty operand changed the box to %v", got)
	}
	if got := NewBoundingBox().Union(a); got != a {
		t.Errorf("Union failed: expected %v, got %v", a, got)
	}
}

func TestBoundingBoxMeasures(t *testing.T) {
	bbox := BoundingBox{Min: NewVector3(-1, 0, -2), Max: NewVector3(1, 4, 2)}

	if expected := NewVector3(2, 4, 4); bbox.Size() != expected {
		t.Errorf("Size failed: expected %v, got %v", expected, bbox.Size())
	}
	if expected := NewVector3(0, 2, 0); bbox.Center() != expected {
		t.Errorf("Center failed: expected %v, got %v", expected, bbox.Center())
	}
	if got := bbox.Diagonal(); math.Abs(got-6) > 1e-10 {
		t.Errorf("Diagonal failed: expected 6, got %v", got)
	}
	if got := bbox.Volume(); math.Abs(got-32) > 1e-10 {
		t.Errorf("Volume failed: expected 32, got %v", got)
	}
}

func TestBoundingBoxTranslate(t *testing.T) {
	bbox := BoundingBox{Min: NewVector3(-1, 2, -1), Max: NewVector3(1, 6, 1)}
	moved := bbox.Translate(NewVector3(0, -2, 0))

	if moved.Min.Y != 0 || moved.Max.Y != 4 {
		t.Errorf("Translate failed: expected y range [0, 4], got [%v, %v]", moved.Min.Y, moved.Max.Y)
	}
	if !NewBoundingBox().Translate(NewVector3(1, 1, 1)).IsEmpty() {
		t.Error("Translate failed: empty box should stay empty")
	}
}
