package geometry

import "math"

// BoundingBox is an axis-aligned box. A box from NewBoundingBox is empty
// until the first point is added.
type BoundingBox struct {
	Min Vector3
	Max Vector3
}

// NewBoundingBox returns an empty box
func NewBoundingBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		Min: Vector3{X: inf, Y: inf, Z: inf},
		Max: Vector3{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether no point has been added
func (b BoundingBox) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend grows the box to include point
func (b *BoundingBox) Extend(point Vector3) {
	b.Min = b.Min.Min(point)
	b.Max = b.Max.Max(point)
}

// ExtendTriangle grows the box to include all three vertices
func (b *BoundingBox) ExtendTriangle(t Triangle) {
	for _, v := range t.Vertices() {
		b.Extend(v)
	}
}

// Union returns the smallest box containing both boxes
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	if other.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return other
	}
	return BoundingBox{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Translate moves the box by offset
func (b BoundingBox) Translate(offset Vector3) BoundingBox {
	if b.IsEmpty() {
		return b
	}
	return BoundingBox{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

// Size returns the extent along each axis, zero for an empty box
func (b BoundingBox) Size() Vector3 {
	if b.IsEmpty() {
		return Vector3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint, the origin for an empty box
func (b BoundingBox) Center() Vector3 {
	if b.IsEmpty() {
		return Vector3{}
	}
	return b.Min.Lerp(b.Max, 0.5)
}

// Diagonal returns the length of the box diagonal
func (b BoundingBox) Diagonal() float64 {
	return b.Size().Length()
}

// Volume returns the volume of the box
func (b BoundingBox) Volume() float64 {
	s := b.Size()
	return s.X * s.Y * s.Z
}
