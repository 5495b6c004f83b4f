package scene

import (
	"image/color"

	"github.com/philipparndt/gosprack/pkg/geometry"
)

// Geometry is an immutable triangle soup in local space. It is shared between
// a node and its clones; only materials are duplicated.
type Geometry struct {
	Triangles []geometry.Triangle
}

// Mesh binds geometry to a material
type Mesh struct {
	Geometry *Geometry
	Material *Material
}

// AmbientLight lights every surface uniformly
type AmbientLight struct {
	Color     color.NRGBA
	Intensity float64
}

// Node is an element of the scene graph. A node may carry a mesh, a light,
// or nothing at all (a group).
type Node struct {
	Name      string
	Transform geometry.Matrix4
	Mesh      *Mesh
	Light     *AmbientLight
	Children  []*Node

	parent *Node
}

// NewNode creates an empty group node with an identity transform
func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Transform: geometry.Identity4(),
	}
}

// NewMeshNode creates a node carrying the given triangles and material
func NewMeshNode(name string, triangles []geometry.Triangle, material *Material) *Node {
	n := NewNode(name)
	n.Mesh = &Mesh{
		Geometry: &Geometry{Triangles: triangles},
		Material: material,
	}
	return n
}

// NewAmbientLight creates a light node
func NewAmbientLight(c color.NRGBA, intensity float64) *Node {
	n := NewNode("ambient")
	n.Light = &AmbientLight{Color: c, Intensity: intensity}
	return n
}

// Add attaches children to the node, detaching them from any previous parent
func (n *Node) Add(children ...*Node) {
	for _, child := range children {
		if child.parent != nil {
			child.parent.Remove(child)
		}
		child.parent = n
		n.Children = append(n.Children, child)
	}
}

// Remove detaches a direct child
func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Clear detaches all children
func (n *Node) Clear() {
	for _, c := range n.Children {
		c.parent = nil
	}
	n.Children = nil
}

// Parent returns the node's parent or nil
func (n *Node) Parent() *Node {
	return n.parent
}

// SetPosition replaces the translation part of the local transform
func (n *Node) SetPosition(p geometry.Vector3) {
	n.Transform[12] = p.X
	n.Transform[13] = p.Y
	n.Transform[14] = p.Z
}

// Position returns the translation part of the local transform
func (n *Node) Position() geometry.Vector3 {
	return geometry.NewVector3(n.Transform[12], n.Transform[13], n.Transform[14])
}

// Traverse visits the node and all descendants depth-first, passing the
// accumulated world matrix of each node.
func (n *Node) Traverse(fn func(node *Node, world geometry.Matrix4)) {
	n.traverse(geometry.Identity4(), fn)
}

func (n *Node) traverse(parent geometry.Matrix4, fn func(*Node, geometry.Matrix4)) {
	world := parent.Mul(n.Transform)
	fn(n, world)
	for _, c := range n.Children {
		c.traverse(world, fn)
	}
}

// Clone deep-copies the subgraph. Every node and every material is new;
// geometry is shared because it is never mutated.
func (n *Node) Clone() *Node {
	c := &Node{
		Name:      n.Name,
		Transform: n.Transform,
	}
	if n.Mesh != nil {
		mesh := &Mesh{Geometry: n.Mesh.Geometry}
		if n.Mesh.Material != nil {
			mesh.Material = n.Mesh.Material.Clone()
		}
		c.Mesh = mesh
	}
	if n.Light != nil {
		light := *n.Light
		c.Light = &light
	}
	for _, child := range n.Children {
		c.Add(child.Clone())
	}
	return c
}

// Materials returns every material in the subgraph in traversal order
func (n *Node) Materials() []*Material {
	var out []*Material
	n.Traverse(func(node *Node, _ geometry.Matrix4) {
		if node.Mesh != nil && node.Mesh.Material != nil {
			out = append(out, node.Mesh.Material)
		}
	})
	return out
}

// WorldTriangles returns all triangles of the subgraph in world space
func (n *Node) WorldTriangles() []geometry.Triangle {
	var out []geometry.Triangle
	n.Traverse(func(node *Node, world geometry.Matrix4) {
		if node.Mesh == nil || node.Mesh.Geometry == nil {
			return
		}
		identity := world.IsIdentity()
		for _, tri := range node.Mesh.Geometry.Triangles {
			if identity {
				out = append(out, tri)
				continue
			}
			out = append(out, tri.Transform(world))
		}
	})
	return out
}

// BoundingBox computes the world-space bounding box of the subgraph
func (n *Node) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	n.Traverse(func(node *Node, world geometry.Matrix4) {
		if node.Mesh == nil || node.Mesh.Geometry == nil {
			return
		}
		for _, tri := range node.Mesh.Geometry.Triangles {
			bbox.ExtendTriangle(tri.Transform(world))
		}
	})
	return bbox
}

// Dispose releases every material in the subgraph and detaches all
// descendants. Shared geometry is left untouched.
func (n *Node) Dispose() {
	n.Traverse(func(node *Node, _ geometry.Matrix4) {
		if node.Mesh == nil {
			return
		}
		if node.Mesh.Material != nil {
			node.Mesh.Material.Dispose()
		}
		node.Mesh.Geometry = nil
	})
	n.detachAll()
}

func (n *Node) detachAll() {
	for _, c := range n.Children {
		c.detachAll()
	}
	n.Clear()
}
