// Package stack reassembles rendered slices into sprite-stack previews.
package stack

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/philipparndt/gosprack/pkg/geometry"
	"github.com/philipparndt/gosprack/pkg/scene"
)

// Assemble arranges copies of the slice preview planes bottom to top,
// plane i at y = i*spacing. The planes keep their textures.
func Assemble(previews []*scene.Node, spacing float64) *scene.Node {
	group := scene.NewNode("stack")
	for i, p := range previews {
		if p == nil {
			continue
		}
		plane := p.Clone()
		plane.SetPosition(geometry.NewVector3(0, float64(i)*spacing, 0))
		group.Add(plane)
	}
	return group
}

// PreviewOptions controls RenderPreview
type PreviewOptions struct {
	// Scale multiplies each slice's pixel size
	Scale int
	// Angle rotates every slice around its center, in degrees
	Angle float64
	// Spacing is the vertical pixel offset between consecutive slices,
	// before scaling
	Spacing float64
	// Background fills the canvas; transparent when zero
	Background color.NRGBA
}

// RenderPreview draws the slices as a sprite stack: each image is rotated,
// scaled and drawn over the previous one, shifted up by Spacing. The first
// image is the bottom of the stack.
func RenderPreview(slices []image.Image, opts PreviewOptions) *image.RGBA {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}

	scale := float64(opts.Scale)
	diag, lift := previewExtent(slices, opts)
	canvas := image.NewRGBA(image.Rect(0, 0, int(diag), int(diag+math.Ceil(lift))))
	if opts.Background.A > 0 {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	}

	theta := opts.Angle * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	cx := diag / 2
	baseY := diag/2 + lift

	for i, src := range slices {
		if src == nil {
			continue
		}
		b := src.Bounds()
		sx := float64(b.Min.X) + float64(b.Dx())/2
		sy := float64(b.Min.Y) + float64(b.Dy())/2
		ty := baseY - float64(i)*opts.Spacing*scale

		// dst = T(center) * R * S * T(-srcCenter)
		m := f64.Aff3{
			cos * scale, -sin * scale, cx - (cos*sx-sin*sy)*scale,
			sin * scale, cos * scale, ty - (sin*sx+cos*sy)*scale,
		}
		draw.NearestNeighbor.Transform(canvas, m, src, b, draw.Over, nil)
	}
	return canvas
}

// PreviewSize returns the canvas size RenderPreview would allocate
func PreviewSize(slices []image.Image, opts PreviewOptions) (int, int) {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	diag, lift := previewExtent(slices, opts)
	return int(diag), int(diag + math.Ceil(lift))
}

// previewExtent returns the canvas edge that fits any rotation of a slice
// and the height the stack adds on top of it
func previewExtent(slices []image.Image, opts PreviewOptions) (float64, float64) {
	w, h := maxBounds(slices)
	scale := float64(opts.Scale)
	diag := math.Ceil(math.Hypot(float64(w), float64(h)) * scale)
	lift := opts.Spacing * scale * float64(max(len(slices)-1, 0))
	return diag, lift
}

func maxBounds(images []image.Image) (int, int) {
	w, h := 0, 0
	for _, img := range images {
		if img == nil {
			continue
		}
		w = max(w, img.Bounds().Dx())
		h = max(h, img.Bounds().Dy())
	}
	return w, h
}
