package geometry

import (
	"math"
	"testing"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	lower := NewPlane(NewVector3(0, 1, 0), -4.5)
	upper := NewPlane(NewVector3(0, -1, 0), 5.5)

	p := NewVector3(3, 5, -2)
	if d := lower.DistanceToPoint(p); math.Abs(d-0.5) > 1e-10 {
		t.Errorf("Lower distance failed: expected 0.5, got %v", d)
	}
	if d := upper.DistanceToPoint(p); math.Abs(d-0.5) > 1e-10 {
		t.Errorf("Upper distance failed: expected 0.5, got %v", d)
	}
}

func TestPlaneContainsBand(t *testing.T) {
	lower := NewPlane(NewVector3(0, 1, 0), -4.5)
	upper := NewPlane(NewVector3(0, -1, 0), 5.5)

	cases := []struct {
		y    float64
		want bool
	}{
		{4.0, false},
		{4.5, true},
		{5.0, true},
		{5.5, true},
		{6.0, false},
	}
	for _, c := range cases {
		p := NewVector3(0, c.y, 0)
		got := lower.Contains(p) && upper.Contains(p)
		if got != c.want {
			t.Errorf("Band at y=%v failed: expected %v, got %v", c.y, c.want, got)
		}
	}
}

func TestPlaneClone(t *testing.T) {
	p := NewPlane(NewVector3(0, 1, 0), 2)
	c := p.Clone()
	c.Constant = 7

	if p.Constant != 2 {
		t.Errorf("Clone failed: original mutated to %v", p.Constant)
	}
}
