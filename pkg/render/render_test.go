package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/philipparndt/gosprack/pkg/geometry"
	"github.com/philipparndt/gosprack/pkg/scene"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func litScene(nodes ...*scene.Node) *scene.Node {
	root := scene.NewNode("root")
	root.Add(scene.NewAmbientLight(color.NRGBA{R: 255, G: 255, B: 255, A: 255}, 1))
	root.Add(nodes...)
	return root
}

func box(size, position geometry.Vector3, c color.NRGBA) *scene.Node {
	n := scene.NewBox("box", size, scene.NewMaterial("m", c))
	n.SetPosition(position)
	return n
}

func pixel(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestRenderFillsFootprint(t *testing.T) {
	ctx, err := NewContext(4, 4)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}

	size := geometry.NewVector3(2, 2, 2)
	frame, err := ctx.Render(Pass{
		Scene: litScene(box(size, geometry.NewVector3(0, 1, 0), red)),
		Size:  size,
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	expected := color.RGBA{R: 255, A: 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := pixel(frame.Image, x, y); got != expected {
				t.Errorf("Pixel (%d,%d) failed: expected %v, got %v", x, y, expected, got)
			}
		}
	}
}

func TestRenderTopRowIsNegativeZ(t *testing.T) {
	ctx, _ := NewContext(4, 4)

	// only the -Z half of the footprint is covered
	frame, err := ctx.Render(Pass{
		Scene: litScene(box(geometry.NewVector3(2, 2, 1), geometry.NewVector3(0, 1, -0.5), red)),
		Size:  geometry.NewVector3(2, 2, 2),
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for x := 0; x < 4; x++ {
		if a := pixel(frame.Image, x, 0).A; a != 255 {
			t.Errorf("Top row pixel %d failed: expected opaque, got alpha %d", x, a)
		}
		if a := pixel(frame.Image, x, 3).A; a != 0 {
			t.Errorf("Bottom row pixel %d failed: expected transparent, got alpha %d", x, a)
		}
	}
}

func TestRenderLeftColumnIsNegativeX(t *testing.T) {
	ctx, _ := NewContext(4, 4)

	frame, err := ctx.Render(Pass{
		Scene: litScene(box(geometry.NewVector3(1, 2, 2), geometry.NewVector3(-0.5, 1, 0), red)),
		Size:  geometry.NewVector3(2, 2, 2),
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for y := 0; y < 4; y++ {
		if a := pixel(frame.Image, 0, y).A; a != 255 {
			t.Errorf("Left pixel %d failed: expected opaque, got alpha %d", y, a)
		}
		if a := pixel(frame.Image, 3, y).A; a != 0 {
			t.Errorf("Right pixel %d failed: expected transparent, got alpha %d", y, a)
		}
	}
}

func TestRenderDepthTest(t *testing.T) {
	ctx, _ := NewContext(2, 2)
	size := geometry.NewVector3(2, 2, 2)
	lower := box(geometry.NewVector3(2, 1, 2), geometry.NewVector3(0, 0.5, 0), red)
	upper := box(geometry.NewVector3(2, 1, 2), geometry.NewVector3(0, 1.5, 0), blue)

	// draw order must not matter
	frame, err := ctx.Render(Pass{Scene: litScene(upper, lower), Size: size})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	expected := color.RGBA{B: 255, A: 255}
	if got := pixel(frame.Image, 0, 0); got != expected {
		t.Errorf("Depth test failed: expected %v, got %v", expected, got)
	}
}

func TestRenderClippingPlanes(t *testing.T) {
	ctx, _ := NewContext(2, 2)
	size := geometry.NewVector3(2, 2, 2)
	lower := box(geometry.NewVector3(2, 1, 2), geometry.NewVector3(0, 0.5, 0), red)
	upper := box(geometry.NewVector3(2, 1, 2), geometry.NewVector3(0, 1.5, 0), blue)

	// keep y <= 1.5: the blue cap is removed and its open interior shows red
	frame, err := ctx.Render(Pass{
		Scene:          litScene(lower, upper),
		Size:           size,
		ClippingPlanes: []*geometry.Plane{geometry.NewPlane(geometry.NewVector3(0, -1, 0), 1.5)},
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	expected := color.RGBA{R: 255, A: 255}
	if got := pixel(frame.Image, 1, 1); got != expected {
		t.Errorf("Clipped render failed: expected %v, got %v", expected, got)
	}

	// keep y >= 3: nothing remains
	frame, err = ctx.Render(Pass{
		Scene:          litScene(lower, upper),
		Size:           size,
		ClippingPlanes: []*geometry.Plane{geometry.NewPlane(geometry.NewVector3(0, 1, 0), -3)},
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for i := 3; i < len(frame.Image.Pix); i += 4 {
		if frame.Image.Pix[i] != 0 {
			t.Fatalf("Empty band failed: expected transparent frame, got alpha %d at %d", frame.Image.Pix[i], i/4)
		}
	}
}

func TestRenderLocalClipping(t *testing.T) {
	size := geometry.NewVector3(2, 2, 2)
	b := box(size, geometry.NewVector3(0, 1, 0), red)
	b.Mesh.Material.ClippingPlanes = []*geometry.Plane{geometry.NewPlane(geometry.NewVector3(0, 1, 0), -3)}

	ctx, _ := NewContext(2, 2)
	frame, _ := ctx.Render(Pass{Scene: litScene(b), Size: size})
	if a := pixel(frame.Image, 0, 0).A; a != 0 {
		t.Errorf("Local clipping failed: expected transparent, got alpha %d", a)
	}

	ctx, _ = NewContext(2, 2, WithLocalClipping(false))
	frame, _ = ctx.Render(Pass{Scene: litScene(b), Size: size})
	if a := pixel(frame.Image, 0, 0).A; a != 255 {
		t.Errorf("Disabled local clipping failed: expected opaque, got alpha %d", a)
	}
}

func TestRenderWithoutLightsIsBlack(t *testing.T) {
	ctx, _ := NewContext(2, 2)
	size := geometry.NewVector3(2, 2, 2)
	root := scene.NewNode("root")
	root.Add(box(size, geometry.NewVector3(0, 1, 0), red))

	frame, _ := ctx.Render(Pass{Scene: root, Size: size})
	expected := color.RGBA{A: 255}
	if got := pixel(frame.Image, 0, 0); got != expected {
		t.Errorf("Unlit render failed: expected %v, got %v", expected, got)
	}
}

func TestRenderTransparentMaterial(t *testing.T) {
	ctx, _ := NewContext(2, 2)
	size := geometry.NewVector3(2, 2, 2)
	b := box(size, geometry.NewVector3(0, 1, 0), red)
	b.Mesh.Material.Transparent = true
	b.Mesh.Material.Opacity = 0.5

	frame, _ := ctx.Render(Pass{Scene: litScene(b), Size: size})
	expected := color.RGBA{R: 128, A: 128}
	if got := pixel(frame.Image, 0, 0); got != expected {
		t.Errorf("Transparent render failed: expected %v, got %v", expected, got)
	}
}

func TestRenderBackSideCulling(t *testing.T) {
	ctx, _ := NewContext(2, 2)
	size := geometry.NewVector3(2, 2, 2)
	b := box(size, geometry.NewVector3(0, 1, 0), red)
	b.Mesh.Material.Side = scene.BackSide

	// from above only the bottom face is back facing; it is at y=0
	frame, _ := ctx.Render(Pass{Scene: litScene(b), Size: size})
	if a := pixel(frame.Image, 0, 0).A; a != 255 {
		t.Errorf("BackSide render failed: expected opaque, got alpha %d", a)
	}

	b.Mesh.Material.Side = scene.FrontSide
	b.Mesh.Material.ClippingPlanes = []*geometry.Plane{geometry.NewPlane(geometry.NewVector3(0, -1, 0), 1.5)}
	frame, _ = ctx.Render(Pass{Scene: litScene(b), Size: size})
	if a := pixel(frame.Image, 0, 0).A; a != 0 {
		t.Errorf("FrontSide open box failed: expected transparent, got alpha %d", a)
	}
}

func TestRenderClearColor(t *testing.T) {
	bg := color.NRGBA{R: 0x12, G: 0x0d, B: 0x12, A: 255}
	ctx, _ := NewContext(2, 2, WithClearColor(bg))
	frame, err := ctx.Render(Pass{Scene: scene.NewNode("empty"), Size: geometry.NewVector3(1, 1, 1)})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	expected := color.RGBA{R: 0x12, G: 0x0d, B: 0x12, A: 255}
	if got := pixel(frame.Image, 1, 1); got != expected {
		t.Errorf("Clear color failed: expected %v, got %v", expected, got)
	}
}

func TestRenderPNGAndResize(t *testing.T) {
	ctx, _ := NewContext(4, 4)
	if err := ctx.Resize(8, 3); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if w, h := ctx.Size(); w != 8 || h != 3 {
		t.Errorf("Size failed: expected 8x3, got %dx%d", w, h)
	}

	frame, err := ctx.Render(Pass{Scene: litScene(), Size: geometry.NewVector3(1, 1, 1)})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(frame.PNG))
	if err != nil {
		t.Fatalf("PNG decode failed: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 3 {
		t.Errorf("PNG size failed: expected 8x3, got %v", img.Bounds())
	}

	if err := ctx.Resize(0, 3); err == nil {
		t.Error("Resize failed: expected error for zero width")
	}
}

func TestRenderErrorsAndObserver(t *testing.T) {
	var stats []Stats
	ctx, _ := NewContext(2, 2, WithObserver(func(s Stats) { stats = append(stats, s) }))

	if _, err := ctx.Render(Pass{}); !errors.Is(err, ErrNoScene) {
		t.Errorf("Render failed: expected ErrNoScene, got %v", err)
	}

	size := geometry.NewVector3(2, 2, 2)
	if _, err := ctx.Render(Pass{Scene: litScene(box(size, geometry.NewVector3(0, 1, 0), red)), Size: size}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("Observer failed: expected 1 call, got %d", len(stats))
	}
	if stats[0].Triangles == 0 || stats[0].Fragments != 4 {
		t.Errorf("Stats failed: expected triangles and 4 fragments, got %+v", stats[0])
	}
}

func TestFillTriangleSharedEdge(t *testing.T) {
	a, _ := NewTarget(4, 4)
	b, _ := NewTarget(4, 4)
	a.Clear(color.NRGBA{})
	b.Clear(color.NRGBA{})
	col := color.RGBA{R: 255, A: 255}

	na := fillTriangle(a, [3]vertex{{0, 0, 0}, {4, 0, 0}, {4, 4, 0}}, -1, 1, col)
	nb := fillTriangle(b, [3]vertex{{0, 0, 0}, {4, 4, 0}, {0, 4, 0}}, -1, 1, col)
	if na+nb != 16 {
		t.Errorf("Shared edge failed: expected 16 pixels, got %d + %d", na, nb)
	}
}

func TestClipPolygon(t *testing.T) {
	tri := []geometry.Vector3{
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(2, 0, 0),
		geometry.NewVector3(0, 2, 0),
	}
	plane := geometry.NewPlane(geometry.NewVector3(0, -1, 0), 1)

	poly := clipPolygon(tri, []*geometry.Plane{plane})
	if len(poly) != 4 {
		t.Fatalf("Clip failed: expected quad, got %d vertices", len(poly))
	}
	for _, p := range poly {
		if p.Y > 1+1e-10 {
			t.Errorf("Clip failed: vertex %v above plane", p)
		}
	}

	if got := clipPolygon(tri, []*geometry.Plane{geometry.NewPlane(geometry.NewVector3(0, 1, 0), -5)}); got != nil {
		t.Errorf("Clip failed: expected nil, got %v", got)
	}
}

func TestCameraProject(t *testing.T) {
	cam := NewOrthographicCamera()
	cam.ConfigureTopDown(geometry.NewVector3(10, 4, 20), DefaultDepthRange)

	x, y, _ := cam.Project(geometry.NewVector3(-5, 0, -10), 100, 200)
	if math.Abs(x) > 1e-2 || math.Abs(y) > 1e-2 {
		t.Errorf("Project failed: expected (0,0), got (%v,%v)", x, y)
	}
	x, y, _ = cam.Project(geometry.NewVector3(5, 0, 10), 100, 200)
	if math.Abs(x-100) > 1e-2 || math.Abs(y-200) > 1e-2 {
		t.Errorf("Project failed: expected (100,200), got (%v,%v)", x, y)
	}

	_, _, near := cam.Project(geometry.NewVector3(0, 4, 0), 100, 200)
	_, _, far := cam.Project(geometry.NewVector3(0, 0, 0), 100, 200)
	if near >= far {
		t.Errorf("Depth failed: expected %v < %v", near, far)
	}
	if cam.Near != -DefaultDepthRange || cam.Far != DefaultDepthRange {
		t.Errorf("Depth range failed: expected +-%v, got %v..%v", DefaultDepthRange, cam.Near, cam.Far)
	}

	large := geometry.NewVector3(1000, 400, 2000)
	cam.ConfigureTopDown(large, DefaultDepthRange)
	if cam.Far != 2*large.Length() {
		t.Errorf("Depth range failed: expected %v, got %v", 2*large.Length(), cam.Far)
	}
}

func TestShadeQuantisesBeforeAlpha(t *testing.T) {
	light := irradiance{r: 1, g: 1, b: 1}

	opaque := scene.NewMaterial("grey", color.NRGBA{R: 200, G: 37, B: 255, A: 255})
	if got := shade(opaque, light); got != (color.RGBA{R: 200, G: 37, B: 255, A: 255}) {
		t.Errorf("shade failed: opaque colour changed to %v", got)
	}

	half := scene.NewMaterial("red", red)
	half.Transparent = true
	half.Opacity = 0.5
	if got := shade(half, light); got != (color.RGBA{R: 128, A: 128}) {
		t.Errorf("shade failed: expected {128 0 0 128}, got %v", got)
	}
}

func TestMergePlanesSkipsShared(t *testing.T) {
	lower := geometry.NewPlane(geometry.NewVector3(0, 1, 0), 0)
	upper := geometry.NewPlane(geometry.NewVector3(0, -1, 0), 1)
	extra := geometry.NewPlane(geometry.NewVector3(1, 0, 0), 0)
	global := []*geometry.Plane{lower, upper}

	if got := mergePlanes(global, []*geometry.Plane{lower, upper}); len(got) != 2 {
		t.Errorf("mergePlanes failed: expected 2 planes, got %d", len(got))
	}
	got := mergePlanes(global, []*geometry.Plane{upper, extra, extra})
	if len(got) != 3 || got[2] != extra {
		t.Errorf("mergePlanes failed: expected the global pair plus one extra, got %d planes", len(got))
	}
	if len(global) != 2 {
		t.Errorf("mergePlanes failed: global set modified")
	}
	if got := mergePlanes(nil, []*geometry.Plane{extra}); len(got) != 1 {
		t.Errorf("mergePlanes failed: expected 1 plane, got %d", len(got))
	}
}
