package render

import (
	"math"

	"github.com/philipparndt/gosprack/pkg/geometry"
)

// DefaultDepthRange is the minimum half-depth of the orthographic frustum.
// Cross-sectioning is done by clipping planes, never by near/far.
const DefaultDepthRange = 500.0

// OrthographicCamera is a parallel projection camera
type OrthographicCamera struct {
	Left, Right float64
	Top, Bottom float64
	Near, Far   float64
	Position    geometry.Vector3
	Target      geometry.Vector3
	Up          geometry.Vector3
}

// NewOrthographicCamera creates a camera at the origin looking down -Z
func NewOrthographicCamera() *OrthographicCamera {
	return &OrthographicCamera{
		Left:   -1,
		Right:  1,
		Top:    1,
		Bottom: -1,
		Near:   -DefaultDepthRange,
		Far:    DefaultDepthRange,
		Target: geometry.NewVector3(0, 0, -1),
		Up:     geometry.NewVector3(0, 1, 0),
	}
}

// ConfigureTopDown frames a model of the given size from straight above.
// The frustum spans the model's X/Z footprint; depth covers at least
// depthRange in both directions.
func (c *OrthographicCamera) ConfigureTopDown(size geometry.Vector3, depthRange float64) {
	c.Left = -size.X / 2
	c.Right = size.X / 2
	c.Top = size.Z / 2
	c.Bottom = -size.Z / 2

	r := math.Max(depthRange, 2*size.Length())
	c.Near = -r
	c.Far = r

	height := size.Y
	if height <= 0 {
		height = 1
	}
	c.Position = geometry.NewVector3(0, height, 0)
	c.Target = geometry.Vector3{}
	c.Up = geometry.NewVector3(0, 1, 0)
}

// basis returns the camera's right, up and backward axes in world space.
// Looking exactly along Up is degenerate; the forward axis is nudged the
// same way a look-at matrix does so that screen-up becomes -Z when looking
// straight down.
func (c *OrthographicCamera) basis() (right, up, back geometry.Vector3) {
	back = c.Position.Sub(c.Target)
	if back.Length() == 0 {
		back = geometry.NewVector3(0, 0, 1)
	}
	back = back.Normalize()

	right = c.Up.Cross(back)
	if right.Length() == 0 {
		if math.Abs(c.Up.Z) == 1 {
			back.X += 0.0001
		} else {
			back.Z += 0.0001
		}
		back = back.Normalize()
		right = c.Up.Cross(back)
	}
	right = right.Normalize()
	up = back.Cross(right)
	return right, up, back
}

// view is a precomputed camera transform for one frame
type view struct {
	origin    geometry.Vector3
	right, up geometry.Vector3
	back      geometry.Vector3
	left, top float64
	scaleX    float64
	scaleY    float64
	near, far float64
}

func (c *OrthographicCamera) view(width, height int) view {
	right, up, back := c.basis()
	return view{
		origin: c.Position,
		right:  right,
		up:     up,
		back:   back,
		left:   c.Left,
		top:    c.Top,
		scaleX: float64(width) / (c.Right - c.Left),
		scaleY: float64(height) / (c.Top - c.Bottom),
		near:   c.Near,
		far:    c.Far,
	}
}

// project maps a world point to camera space (x right, y up, depth forward)
func (v view) project(p geometry.Vector3) (x, y, depth float64) {
	rel := p.Sub(v.origin)
	return rel.Dot(v.right), rel.Dot(v.up), -rel.Dot(v.back)
}

// toScreen converts camera-space x/y to pixel coordinates (y down)
func (v view) toScreen(x, y float64) (sx, sy float64) {
	return (x - v.left) * v.scaleX, (v.top - y) * v.scaleY
}

// Project maps a world point to pixel coordinates and depth for a target
// of the given size.
func (c *OrthographicCamera) Project(point geometry.Vector3, width, height int) (float64, float64, float64) {
	v := c.view(width, height)
	x, y, depth := v.project(point)
	sx, sy := v.toScreen(x, y)
	return sx, sy, depth
}
