package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Target is an offscreen framebuffer: a color buffer plus a depth buffer
type Target struct {
	width  int
	height int
	color  *image.RGBA
	depth  []float64
}

// NewTarget allocates a framebuffer
func NewTarget(width, height int) (*Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	return &Target{
		width:  width,
		height: height,
		color:  image.NewRGBA(image.Rect(0, 0, width, height)),
		depth:  make([]float64, width*height),
	}, nil
}

// Width returns the framebuffer width in pixels
func (t *Target) Width() int {
	return t.width
}

// Height returns the framebuffer height in pixels
func (t *Target) Height() int {
	return t.height
}

// Resize reallocates the buffers. Existing contents are discarded.
func (t *Target) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid target size %dx%d", width, height)
	}
	if width == t.width && height == t.height {
		return nil
	}
	t.width = width
	t.height = height
	t.color = image.NewRGBA(image.Rect(0, 0, width, height))
	t.depth = make([]float64, width*height)
	return nil
}

// Clear fills the color buffer with c and resets depth to +Inf
func (t *Target) Clear(c color.NRGBA) {
	fill := color.RGBAModel.Convert(c).(color.RGBA)
	pix := t.color.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = fill.R
		pix[i+1] = fill.G
		pix[i+2] = fill.B
		pix[i+3] = fill.A
	}
	inf := math.Inf(1)
	for i := range t.depth {
		t.depth[i] = inf
	}
}

// ReadPixels copies the color buffer into a new image
func (t *Target) ReadPixels() *image.RGBA {
	out := image.NewRGBA(t.color.Rect)
	copy(out.Pix, t.color.Pix)
	return out
}

// plot writes a fragment if it passes the depth test.
// col is premultiplied; alpha below 255 is blended over the existing pixel.
func (t *Target) plot(x, y int, depth float64, col color.RGBA) bool {
	idx := y*t.width + x
	if depth >= t.depth[idx] {
		return false
	}
	t.depth[idx] = depth

	off := idx * 4
	pix := t.color.Pix[off : off+4 : off+4]
	if col.A == 0xff {
		pix[0], pix[1], pix[2], pix[3] = col.R, col.G, col.B, col.A
		return true
	}
	inv := uint32(0xff - col.A)
	pix[0] = uint8(uint32(col.R) + uint32(pix[0])*inv/0xff)
	pix[1] = uint8(uint32(col.G) + uint32(pix[1])*inv/0xff)
	pix[2] = uint8(uint32(col.B) + uint32(pix[2])*inv/0xff)
	pix[3] = uint8(uint32(col.A) + uint32(pix[3])*inv/0xff)
	return true
}
