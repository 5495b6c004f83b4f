package layer

import (
	"image"
	"image/color"

	"github.com/philipparndt/gosprack/internal/model"
	"github.com/philipparndt/gosprack/pkg/geometry"
	"github.com/philipparndt/gosprack/pkg/render"
	"github.com/philipparndt/gosprack/pkg/scene"
)

// DefaultAmbient is the light every slice scene is rendered with
var DefaultAmbient = scene.AmbientLight{Color: color.NRGBA{R: 255, G: 255, B: 255, A: 255}, Intensity: 1}

// Renderer produces the cross-section image of one slice. It owns a clone of
// the model whose materials all share the slice's two clipping planes; the
// render target and camera belong to the shared render context.
type Renderer struct {
	rc       *render.Context
	snapshot model.Snapshot

	height    float64
	thickness float64

	lower *geometry.Plane
	upper *geometry.Plane

	scene   *scene.Node
	preview *scene.Node
}

// NewRenderer clones root and prepares it for slicing at the given height
// and thickness, both in percent of the snapshot height.
func NewRenderer(rc *render.Context, root *scene.Node, snap model.Snapshot, height, thickness float64, light scene.AmbientLight) (*Renderer, error) {
	if err := validateHeight(height); err != nil {
		return nil, err
	}
	if err := validateThickness(thickness); err != nil {
		return nil, err
	}

	r := &Renderer{
		rc:        rc,
		snapshot:  snap,
		height:    height,
		thickness: thickness,
		lower:     geometry.NewPlane(geometry.NewVector3(0, 1, 0), 0),
		upper:     geometry.NewPlane(geometry.NewVector3(0, -1, 0), 0),
		scene:     scene.NewNode("slice"),
	}
	r.updatePlanes()

	clone := root.Clone()
	for _, mat := range clone.Materials() {
		mat.ClippingPlanes = []*geometry.Plane{r.lower, r.upper}
	}
	r.scene.Add(clone, scene.NewAmbientLight(light.Color, light.Intensity))

	mat := scene.NewMaterial("preview", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	mat.Side = scene.DoubleSide
	mat.Transparent = true
	r.preview = scene.NewMeshNode("preview", scene.PlaneTriangles(snap.Size.X, snap.Size.Z), mat)

	return r, nil
}

// WorldHeight is the slice center in world units
func (r *Renderer) WorldHeight() float64 {
	return r.snapshot.MinY() + r.height/100*r.snapshot.Size.Y
}

// WorldThickness is the slice thickness in world units
func (r *Renderer) WorldThickness() float64 {
	return r.thickness / 100 * r.snapshot.Size.Y
}

func (r *Renderer) updatePlanes() {
	h := r.WorldHeight()
	t := r.WorldThickness()
	r.lower.Constant = -(h - t/2)
	r.upper.Constant = h + t/2
}

// Planes returns the lower (+Y) and upper (-Y) clipping planes
func (r *Renderer) Planes() (lower, upper geometry.Plane) {
	return *r.lower, *r.upper
}

// Height returns the height in percent
func (r *Renderer) Height() float64 {
	return r.height
}

// Thickness returns the thickness in percent
func (r *Renderer) Thickness() float64 {
	return r.thickness
}

// Snapshot returns the model snapshot the slice was created against
func (r *Renderer) Snapshot() model.Snapshot {
	return r.snapshot
}

// SetHeight moves the slice. Values outside [0,100] are rejected.
func (r *Renderer) SetHeight(percent float64) error {
	if err := validateHeight(percent); err != nil {
		return err
	}
	r.height = percent
	r.updatePlanes()
	return nil
}

// SetThickness changes the slice thickness. Values outside [1,100] are rejected.
func (r *Renderer) SetThickness(percent float64) error {
	if err := validateThickness(percent); err != nil {
		return err
	}
	r.thickness = percent
	r.updatePlanes()
	return nil
}

// Resize changes the shared target size. It does not re-render.
func (r *Renderer) Resize(width, height int) error {
	return r.rc.Resize(width, height)
}

// Render draws the slice through the shared context and returns PNG bytes.
// The preview plane texture is refreshed with the result.
func (r *Renderer) Render() ([]byte, error) {
	frame, err := r.rc.Render(render.Pass{
		Scene:          r.scene,
		Size:           r.snapshot.Size,
		ClippingPlanes: []*geometry.Plane{r.lower, r.upper},
	})
	if err != nil {
		return nil, err
	}
	r.preview.Mesh.Material.Map = frame.Image
	return frame.PNG, nil
}

// Preview returns the textured plane showing the last render
func (r *Renderer) Preview() *scene.Node {
	return r.preview
}

// Texture returns the last rendered image, or nil before the first render
func (r *Renderer) Texture() image.Image {
	if r.preview == nil || r.preview.Mesh == nil || r.preview.Mesh.Material.Map == nil {
		return nil
	}
	return r.preview.Mesh.Material.Map
}

// Dispose releases the cloned model and the preview plane
func (r *Renderer) Dispose() {
	r.scene.Dispose()
	if r.preview != nil {
		r.preview.Dispose()
	}
}
