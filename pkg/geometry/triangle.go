package geometry

import "math"

// Triangle is a facet with vertices in counter-clockwise winding order
// around Normal
type Triangle struct {
	Normal     Vector3
	V1, V2, V3 Vector3
}

// NewTriangle creates a facet. The normal is stored as given.
func NewTriangle(normal, v1, v2, v3 Vector3) Triangle {
	return Triangle{Normal: normal, V1: v1, V2: v2, V3: v3}
}

// Vertices returns the three corners in winding order
func (t Triangle) Vertices() [3]Vector3 {
	return [3]Vector3{t.V1, t.V2, t.V3}
}

func (t Triangle) cross() Vector3 {
	return t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1))
}

// CalculateNormal returns the unit normal implied by the winding
func (t Triangle) CalculateNormal() Vector3 {
	return t.cross().Normalize()
}

// Area returns the surface area
func (t Triangle) Area() float64 {
	return t.cross().Length() / 2
}

// Center returns the centroid
func (t Triangle) Center() Vector3 {
	return t.V1.Add(t.V2).Add(t.V3).Mul(1.0 / 3)
}

// YRange returns the lowest and highest vertex height
func (t Triangle) YRange() (lo, hi float64) {
	lo = math.Min(t.V1.Y, math.Min(t.V2.Y, t.V3.Y))
	hi = math.Max(t.V1.Y, math.Max(t.V2.Y, t.V3.Y))
	return lo, hi
}

// Flip reverses the winding and the normal
func (t Triangle) Flip() Triangle {
	return Triangle{Normal: t.Normal.Negate(), V1: t.V1, V2: t.V3, V3: t.V2}
}

// Transform returns the triangle with all vertices moved by m.
// The normal is recalculated from the transformed vertices.
func (t Triangle) Transform(m Matrix4) Triangle {
	out := Triangle{
		V1: m.TransformPoint(t.V1),
		V2: m.TransformPoint(t.V2),
		V3: m.TransformPoint(t.V3),
	}
	out.Normal = out.CalculateNormal()
	return out
}
