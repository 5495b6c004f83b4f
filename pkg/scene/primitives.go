package scene

import "github.com/philipparndt/gosprack/pkg/geometry"

// BoxTriangles returns the twelve outward-facing triangles of an axis-aligned
// box centered at the origin.
func BoxTriangles(size geometry.Vector3) []geometry.Triangle {
	h := size.Mul(0.5)
	x := geometry.NewVector3(h.X, 0, 0)
	y := geometry.NewVector3(0, h.Y, 0)
	z := geometry.NewVector3(0, 0, h.Z)

	// each face: center offset, u, v with u x v pointing outwards
	faces := [6][3]geometry.Vector3{
		{x, y, z},
		{x.Mul(-1), z, y},
		{y, z, x},
		{y.Mul(-1), x, z},
		{z, x, y},
		{z.Mul(-1), y, x},
	}

	triangles := make([]geometry.Triangle, 0, 12)
	for _, f := range faces {
		c, u, v := f[0], f[1], f[2]
		p0 := c.Sub(u).Sub(v)
		p1 := c.Add(u).Sub(v)
		p2 := c.Add(u).Add(v)
		p3 := c.Sub(u).Add(v)
		normal := c.Normalize()
		triangles = append(triangles,
			geometry.NewTriangle(normal, p0, p1, p2),
			geometry.NewTriangle(normal, p0, p2, p3),
		)
	}
	return triangles
}

// NewBox creates a mesh node holding a box
func NewBox(name string, size geometry.Vector3, material *Material) *Node {
	return NewMeshNode(name, BoxTriangles(size), material)
}

// PlaneTriangles returns a horizontal quad of width x depth facing +Y
func PlaneTriangles(width, depth float64) []geometry.Triangle {
	hx, hz := width/2, depth/2
	up := geometry.NewVector3(0, 1, 0)
	a := geometry.NewVector3(-hx, 0, -hz)
	b := geometry.NewVector3(-hx, 0, hz)
	c := geometry.NewVector3(hx, 0, hz)
	d := geometry.NewVector3(hx, 0, -hz)
	return []geometry.Triangle{
		geometry.NewTriangle(up, a, b, c),
		geometry.NewTriangle(up, a, c, d),
	}
}
