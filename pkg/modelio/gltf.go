package modelio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/philipparndt/gosprack/pkg/geometry"
	"github.com/philipparndt/gosprack/pkg/scene"
)

func decodeGLTF(data []byte, name string) (*scene.Node, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode glTF: %w", err)
	}
	return buildScene(doc, name)
}

func loadGLTFFile(path string) (*scene.Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode glTF: %w", err)
	}
	return buildScene(doc, modelName(path))
}

// buildScene converts the default scene of a document into a scene graph
func buildScene(doc *gltf.Document, name string) (*scene.Node, error) {
	materials := make([]*scene.Material, len(doc.Materials))
	for i, m := range doc.Materials {
		if m == nil {
			return nil, fmt.Errorf("material %d is empty", i)
		}
		materials[i] = convertMaterial(m)
	}

	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) && doc.Scenes[*doc.Scene] != nil:
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0 && doc.Scenes[0] != nil:
		roots = doc.Scenes[0].Nodes
	default:
		roots = orphanNodes(doc)
	}

	root := scene.NewNode(name)
	visited := make(map[int]bool)
	for _, idx := range roots {
		n, err := buildNode(doc, idx, materials, visited)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}
	return root, nil
}

func orphanNodes(doc *gltf.Document) []int {
	child := make(map[int]bool)
	for _, n := range doc.Nodes {
		if n == nil {
			continue
		}
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func buildNode(doc *gltf.Document, idx int, materials []*scene.Material, visited map[int]bool) (*scene.Node, error) {
	if idx < 0 || idx >= len(doc.Nodes) || doc.Nodes[idx] == nil {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if visited[idx] {
		return nil, fmt.Errorf("node %d is referenced more than once", idx)
	}
	visited[idx] = true

	src := doc.Nodes[idx]
	node := scene.NewNode(src.Name)
	node.Transform = nodeTransform(src)

	if src.Mesh != nil {
		if *src.Mesh < 0 || *src.Mesh >= len(doc.Meshes) || doc.Meshes[*src.Mesh] == nil {
			return nil, fmt.Errorf("mesh index %d out of range", *src.Mesh)
		}
		mesh := doc.Meshes[*src.Mesh]
		for i, prim := range mesh.Primitives {
			if prim == nil || prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			triangles, err := readTriangles(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", mesh.Name, i, err)
			}
			mat := defaultMaterial()
			if prim.Material != nil {
				if *prim.Material < 0 || *prim.Material >= len(materials) {
					return nil, fmt.Errorf("mesh %q primitive %d: material index %d out of range", mesh.Name, i, *prim.Material)
				}
				mat = materials[*prim.Material]
			}
			node.Add(scene.NewMeshNode(mesh.Name, triangles, mat))
		}
	}

	for _, c := range src.Children {
		child, err := buildNode(doc, c, materials, visited)
		if err != nil {
			return nil, err
		}
		node.Add(child)
	}
	return node, nil
}

func nodeTransform(n *gltf.Node) geometry.Matrix4 {
	if m := geometry.Matrix4(n.MatrixOrDefault()); !m.IsIdentity() {
		return m
	}
	t := n.TranslationOrDefault()
	s := n.ScaleOrDefault()
	return geometry.Compose(
		geometry.NewVector3(t[0], t[1], t[2]),
		n.RotationOrDefault(),
		geometry.NewVector3(s[0], s[1], s[2]),
	)
}

func readTriangles(doc *gltf.Document, prim *gltf.Primitive) ([]geometry.Triangle, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("missing POSITION attribute")
	}
	acr, err := accessor(doc, posIdx)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	var indices []uint32
	if prim.Indices != nil {
		if acr, err = accessor(doc, *prim.Indices); err != nil {
			return nil, err
		}
		indices, err = modeler.ReadIndices(doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	vec := func(i uint32) (geometry.Vector3, error) {
		if int(i) >= len(positions) {
			return geometry.Vector3{}, fmt.Errorf("index %d out of range", i)
		}
		p := positions[i]
		return geometry.NewVector3(float64(p[0]), float64(p[1]), float64(p[2])), nil
	}

	triangles := make([]geometry.Triangle, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		var v [3]geometry.Vector3
		for k := 0; k < 3; k++ {
			if v[k], err = vec(indices[i+k]); err != nil {
				return nil, err
			}
		}
		tri := geometry.Triangle{V1: v[0], V2: v[1], V3: v[2]}
		tri.Normal = tri.CalculateNormal()
		triangles = append(triangles, tri)
	}
	return triangles, nil
}

// accessor returns an accessor once everything it references is known to
// exist, so reading it cannot index past the document's buffers
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("accessor index %d out of range", idx)
	}
	acr := doc.Accessors[idx]
	if acr.Sparse != nil {
		return nil, fmt.Errorf("accessor %d: sparse accessors are not supported", idx)
	}
	if acr.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", idx)
	}
	view, err := bufferView(doc, *acr.BufferView)
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", idx, err)
	}

	size := gltf.SizeOfElement(acr.ComponentType, acr.Type)
	stride := max(view.ByteStride, size)
	if acr.Count < 0 || acr.ByteOffset < 0 || acr.ByteOffset > view.ByteLength {
		return nil, fmt.Errorf("accessor %d: invalid count %d or offset %d", idx, acr.Count, acr.ByteOffset)
	}
	if acr.Count > 0 && (acr.Count > view.ByteLength ||
		acr.ByteOffset+(acr.Count-1)*stride+size > view.ByteLength) {
		return nil, fmt.Errorf("accessor %d: %d elements exceed buffer view of %d bytes", idx, acr.Count, view.ByteLength)
	}
	return acr, nil
}

func bufferView(doc *gltf.Document, idx int) (*gltf.BufferView, error) {
	if idx < 0 || idx >= len(doc.BufferViews) || doc.BufferViews[idx] == nil {
		return nil, fmt.Errorf("buffer view index %d out of range", idx)
	}
	view := doc.BufferViews[idx]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) || doc.Buffers[view.Buffer] == nil {
		return nil, fmt.Errorf("buffer index %d out of range", view.Buffer)
	}
	if view.ByteOffset < 0 || view.ByteLength < 0 || view.ByteStride < 0 ||
		view.ByteOffset+view.ByteLength > len(doc.Buffers[view.Buffer].Data) {
		return nil, fmt.Errorf("buffer view %d exceeds its buffer", idx)
	}
	return view, nil
}

func defaultMaterial() *scene.Material {
	mat := scene.NewMaterial("default", DefaultColor)
	mat.Metalness = 1
	return mat
}

func convertMaterial(m *gltf.Material) *scene.Material {
	mat := defaultMaterial()
	mat.Name = m.Name
	if pbr := m.PBRMetallicRoughness; pbr != nil {
		f := pbr.BaseColorFactorOrDefault()
		mat.Color = color.NRGBA{
			R: linearToSRGB8(f[0]),
			G: linearToSRGB8(f[1]),
			B: linearToSRGB8(f[2]),
			A: uint8(math.Round(clamp01(f[3]) * 255)),
		}
		mat.Opacity = clamp01(f[3])
		mat.Metalness = pbr.MetallicFactorOrDefault()
		mat.Roughness = pbr.RoughnessFactorOrDefault()
	}
	mat.Transparent = m.AlphaMode == gltf.AlphaBlend
	if m.DoubleSided {
		mat.Side = scene.DoubleSide
	}
	return mat
}

// Export writes the scene as glTF. Binary selects GLB, otherwise a JSON
// document with an embedded buffer is written.
func Export(w io.Writer, root *scene.Node, binary bool) error {
	doc := gltf.NewDocument()
	if len(doc.Scenes) == 0 {
		doc.Scenes = []*gltf.Scene{{}}
		doc.Scene = gltf.Index(0)
	}

	materialIndex := make(map[*scene.Material]int)
	meshes := 0
	root.Traverse(func(node *scene.Node, world geometry.Matrix4) {
		if node.Mesh == nil || node.Mesh.Geometry == nil || len(node.Mesh.Geometry.Triangles) == 0 {
			return
		}

		tris := node.Mesh.Geometry.Triangles
		positions := make([][3]float32, 0, len(tris)*3)
		normals := make([][3]float32, 0, len(tris)*3)
		for _, tri := range tris {
			n := tri.CalculateNormal()
			for _, v := range tri.Vertices() {
				positions = append(positions, [3]float32{float32(v.X), float32(v.Y), float32(v.Z)})
				normals = append(normals, [3]float32{float32(n.X), float32(n.Y), float32(n.Z)})
			}
		}

		prim := &gltf.Primitive{
			Attributes: map[string]int{
				gltf.POSITION: modeler.WritePosition(doc, positions),
				gltf.NORMAL:   modeler.WriteNormal(doc, normals),
			},
		}
		if mat := node.Mesh.Material; mat != nil {
			idx, ok := materialIndex[mat]
			if !ok {
				idx = len(doc.Materials)
				doc.Materials = append(doc.Materials, exportMaterial(mat))
				materialIndex[mat] = idx
			}
			prim.Material = gltf.Index(idx)
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: node.Name, Primitives: []*gltf.Primitive{prim}})
		out := &gltf.Node{Name: node.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)}
		if !world.IsIdentity() {
			out.Matrix = [16]float64(world)
		}
		doc.Nodes = append(doc.Nodes, out)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
		meshes++
	})
	if meshes == 0 {
		return ErrNoGeometry
	}

	if !binary {
		for _, b := range doc.Buffers {
			b.URI = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b.Data)
		}
	}

	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode glTF: %w", err)
	}
	return nil
}

func exportMaterial(m *scene.Material) *gltf.Material {
	alpha := 1.0
	if m.Transparent {
		alpha = clamp01(m.Opacity)
	}
	metallic := m.Metalness
	roughness := m.Roughness
	out := &gltf.Material{
		Name: m.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{
				srgb8ToLinear(m.Color.R),
				srgb8ToLinear(m.Color.G),
				srgb8ToLinear(m.Color.B),
				alpha,
			},
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
		DoubleSided: m.Side == scene.DoubleSide,
	}
	if m.Transparent {
		out.AlphaMode = gltf.AlphaBlend
	}
	return out
}

func srgb8ToLinear(c uint8) float64 {
	v := float64(c) / 255
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSRGB8(v float64) uint8 {
	v = clamp01(v)
	if v <= 0.0031308 {
		v *= 12.92
	} else {
		v = 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return uint8(math.Round(v * 255))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
