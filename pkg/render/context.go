package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"slices"
	"sync"
	"time"

	"github.com/philipparndt/gosprack/pkg/geometry"
	"github.com/philipparndt/gosprack/pkg/scene"
)

// ErrNoScene is returned when a pass has nothing to draw
var ErrNoScene = errors.New("render pass has no scene")

// Pass describes one draw of a scene into the shared target
type Pass struct {
	// Scene is the root of the graph to draw
	Scene *scene.Node
	// Size is the model footprint the camera frames
	Size geometry.Vector3
	// ClippingPlanes apply to every mesh in the pass
	ClippingPlanes []*geometry.Plane
}

// Frame is the read-back result of a pass
type Frame struct {
	Image *image.RGBA
	PNG   []byte
}

// Stats summarises a finished pass
type Stats struct {
	Duration  time.Duration
	Triangles int
	Fragments int
	Width     int
	Height    int
}

// Observer receives stats after every pass
type Observer func(Stats)

// Option configures a Context
type Option func(*Context)

// WithClearColor sets the color the target is cleared to before each pass
func WithClearColor(c color.NRGBA) Option {
	return func(ctx *Context) {
		ctx.clear = c
	}
}

// WithDepthRange sets the minimum half-depth of the camera frustum
func WithDepthRange(r float64) Option {
	return func(ctx *Context) {
		ctx.depthRange = r
	}
}

// WithLocalClipping toggles per-material clipping planes
func WithLocalClipping(enabled bool) Option {
	return func(ctx *Context) {
		ctx.localClipping = enabled
	}
}

// WithObserver registers a callback for pass statistics
func WithObserver(o Observer) Option {
	return func(ctx *Context) {
		ctx.observer = o
	}
}

// Context owns the single offscreen target and camera shared by every
// slice. Passes are serialised: configure, clip, clear, draw and read back
// happen under one lock so no pass observes another's state.
type Context struct {
	mu            sync.Mutex
	target        *Target
	camera        *OrthographicCamera
	clear         color.NRGBA
	depthRange    float64
	localClipping bool
	observer      Observer
}

// NewContext creates a render context with a width x height target
func NewContext(width, height int, opts ...Option) (*Context, error) {
	target, err := NewTarget(width, height)
	if err != nil {
		return nil, err
	}
	ctx := &Context{
		target:        target,
		camera:        NewOrthographicCamera(),
		depthRange:    DefaultDepthRange,
		localClipping: true,
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx, nil
}

// Resize changes the target dimensions for subsequent passes
func (c *Context) Resize(width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.target.Resize(width, height); err != nil {
		return err
	}
	Logger().Debug("render target resized", "width", width, "height", height)
	return nil
}

// Size returns the current target dimensions
func (c *Context) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target.Width(), c.target.Height()
}

// Render draws a pass and returns a copy of the target
func (c *Context) Render(pass Pass) (*Frame, error) {
	if pass.Scene == nil {
		return nil, ErrNoScene
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	c.camera.ConfigureTopDown(pass.Size, c.depthRange)
	c.target.Clear(c.clear)

	stats := Stats{Width: c.target.Width(), Height: c.target.Height()}
	if pass.Size.X > 0 && pass.Size.Z > 0 {
		c.draw(pass, &stats)
	}

	img := c.target.ReadPixels()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	stats.Duration = time.Since(start)
	if c.observer != nil {
		c.observer(stats)
	}
	Logger().Debug("render pass",
		"triangles", stats.Triangles,
		"fragments", stats.Fragments,
		"duration", stats.Duration)

	return &Frame{Image: img, PNG: buf.Bytes()}, nil
}

// draw renders opaque meshes first, then transparent ones in traversal order
func (c *Context) draw(pass Pass, stats *Stats) {
	v := c.camera.view(c.target.Width(), c.target.Height())
	irr := collectLights(pass.Scene)

	for _, transparent := range []bool{false, true} {
		pass.Scene.Traverse(func(node *scene.Node, world geometry.Matrix4) {
			if node.Mesh == nil || node.Mesh.Geometry == nil {
				return
			}
			mat := node.Mesh.Material
			if mat == nil || mat.Disposed() || mat.Transparent != transparent {
				return
			}

			planes := pass.ClippingPlanes
			if c.localClipping {
				planes = mergePlanes(planes, mat.ClippingPlanes)
			}

			col := shade(mat, irr)
			if col.A == 0 {
				return
			}

			identity := world.IsIdentity()
			for _, tri := range node.Mesh.Geometry.Triangles {
				if !identity {
					tri = tri.Transform(world)
				}
				poly := clipPolygon([]geometry.Vector3{tri.V1, tri.V2, tri.V3}, planes)
				if poly == nil {
					continue
				}
				if n := c.drawPolygon(v, poly, mat.Side, col); n >= 0 {
					stats.Triangles++
					stats.Fragments += n
				}
			}
		})
	}
}

// drawPolygon projects, culls and fills a convex polygon. It returns -1
// when the polygon was culled.
func (c *Context) drawPolygon(v view, poly []geometry.Vector3, side scene.Side, col color.RGBA) int {
	xs := make([]float64, len(poly))
	ys := make([]float64, len(poly))
	zs := make([]float64, len(poly))
	for i, p := range poly {
		xs[i], ys[i], zs[i] = v.project(p)
	}

	area := signedArea(xs, ys)
	switch side {
	case scene.FrontSide:
		if area <= 0 {
			return -1
		}
	case scene.BackSide:
		if area >= 0 {
			return -1
		}
	}

	verts := make([]vertex, len(poly))
	for i := range poly {
		sx, sy := v.toScreen(xs[i], ys[i])
		verts[i] = vertex{x: sx, y: sy, z: zs[i]}
	}

	written := 0
	for i := 1; i+1 < len(verts); i++ {
		written += fillTriangle(c.target, [3]vertex{verts[0], verts[i], verts[i+1]}, v.near, v.far, col)
	}
	return written
}

// mergePlanes appends the local planes that are not already in the global
// set. A slice installs the same planes globally and on its materials.
func mergePlanes(global, local []*geometry.Plane) []*geometry.Plane {
	var extra []*geometry.Plane
	for _, p := range local {
		if !slices.Contains(global, p) && !slices.Contains(extra, p) {
			extra = append(extra, p)
		}
	}
	if len(extra) == 0 {
		return global
	}
	return append(slices.Clone(global), extra...)
}
