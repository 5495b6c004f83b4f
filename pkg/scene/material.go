package scene

import (
	"image"
	"image/color"

	"github.com/philipparndt/gosprack/pkg/geometry"
)

// Side selects which triangle faces a material draws
type Side int

const (
	FrontSide Side = iota
	BackSide
	DoubleSide
)

// Material describes how a mesh is shaded.
// Color is stored in sRGB, the space the rasterizer writes.
type Material struct {
	Name        string
	Color       color.NRGBA
	Opacity     float64
	Transparent bool
	Metalness   float64
	Roughness   float64
	Side        Side

	// ClippingPlanes are local clipping planes honoured when the renderer has
	// local clipping enabled.
	ClippingPlanes []*geometry.Plane

	// Map is a texture for consumers that composite textured planes.
	// The rasterizer shades with Color only.
	Map image.Image

	disposed bool
}

// NewMaterial creates an opaque, non-metallic material
func NewMaterial(name string, c color.NRGBA) *Material {
	return &Material{
		Name:      name,
		Color:     c,
		Opacity:   1,
		Roughness: 1,
		Side:      FrontSide,
	}
}

// Clone returns an independent copy of the material.
// Clipping planes are copied so the clone can be re-clipped freely.
func (m *Material) Clone() *Material {
	c := *m
	c.disposed = false
	if m.ClippingPlanes != nil {
		c.ClippingPlanes = make([]*geometry.Plane, len(m.ClippingPlanes))
		for i, p := range m.ClippingPlanes {
			c.ClippingPlanes[i] = p.Clone()
		}
	}
	return &c
}

// Dispose releases the material. A disposed material is skipped by renderers.
func (m *Material) Dispose() {
	m.disposed = true
	m.ClippingPlanes = nil
	m.Map = nil
}

// Disposed reports whether Dispose was called
func (m *Material) Disposed() bool {
	return m.disposed
}
