package stl

import (
	"github.com/philipparndt/gosprack/pkg/geometry"
)

// Model is a decoded STL file: a named triangle soup without materials
// or hierarchy
type Model struct {
	Name      string
	Triangles []geometry.Triangle
	// Binary is set when the model was decoded from the binary encoding
	Binary bool
}

// NewModel creates a model holding triangles
func NewModel(name string, triangles ...geometry.Triangle) *Model {
	return &Model{
		Name:      name,
		Triangles: append(make([]geometry.Triangle, 0, len(triangles)), triangles...),
	}
}

// AddTriangle appends a facet
func (m *Model) AddTriangle(triangle geometry.Triangle) {
	m.Triangles = append(m.Triangles, triangle)
}

// TriangleCount returns the number of facets
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// Bounds returns the box around every vertex
func (m *Model) Bounds() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, t := range m.Triangles {
		bbox.ExtendTriangle(t)
	}
	return bbox
}
