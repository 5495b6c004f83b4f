package stack

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// SheetOptions controls SpriteSheet
type SheetOptions struct {
	Scale      int
	Padding    int
	Background color.NRGBA
	// Labels are drawn under each frame when set
	Labels    []string
	LabelSize float64
	TextColor color.Color
}

var (
	fontOnce sync.Once
	fontErr  error
	goFont   *truetype.Font
)

func labelFace(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		goFont, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse label font: %w", fontErr)
	}
	return truetype.NewFace(goFont, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

// SpriteSheet lays the slices out left to right in stack order, scaled
// with nearest-neighbour filtering so pixel art stays crisp.
func SpriteSheet(slices []image.Image, opts SheetOptions) (*image.RGBA, error) {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.LabelSize <= 0 {
		opts.LabelSize = 10
	}
	if opts.TextColor == nil {
		opts.TextColor = color.White
	}

	fw, fh := frameSize(slices, opts.Scale)

	var face font.Face
	labelHeight := 0
	if len(opts.Labels) > 0 {
		var err error
		if face, err = labelFace(opts.LabelSize); err != nil {
			return nil, err
		}
		defer face.Close()
		labelHeight = (face.Metrics().Height.Ceil()) + opts.Padding
	}

	width, height := sheetExtent(len(slices), fw, fh, opts.Padding)
	height += labelHeight
	sheet := image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))
	if opts.Background.A > 0 {
		draw.Draw(sheet, sheet.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	}

	for i, src := range slices {
		x := opts.Padding + i*(fw+opts.Padding)
		frame := image.Rect(x, opts.Padding, x+fw, opts.Padding+fh)
		if src != nil {
			draw.NearestNeighbor.Scale(sheet, frame, src, src.Bounds(), draw.Over, nil)
		}

		if face == nil || i >= len(opts.Labels) {
			continue
		}
		d := &font.Drawer{
			Dst:  sheet,
			Src:  image.NewUniform(opts.TextColor),
			Face: face,
		}
		label := fitLabel(d, opts.Labels[i], fw)
		advance := d.MeasureString(label)
		d.Dot = fixed.Point26_6{
			X: fixed.I(x) + (fixed.I(fw)-advance)/2,
			Y: fixed.I(frame.Max.Y+opts.Padding) + face.Metrics().Ascent,
		}
		d.DrawString(label)
	}
	return sheet, nil
}

// SheetSize returns the sheet size SpriteSheet would allocate, without the
// label row
func SheetSize(slices []image.Image, opts SheetOptions) (int, int) {
	fw, fh := frameSize(slices, max(opts.Scale, 1))
	return sheetExtent(len(slices), fw, fh, opts.Padding)
}

func frameSize(slices []image.Image, scale int) (int, int) {
	w, h := maxBounds(slices)
	return w * scale, h * scale
}

func sheetExtent(n, fw, fh, padding int) (int, int) {
	return n*fw + (n+1)*padding, fh + 2*padding
}

// fitLabel shortens a label until it fits the frame width
func fitLabel(d *font.Drawer, label string, width int) string {
	limit := fixed.I(width)
	if d.MeasureString(label) <= limit {
		return label
	}
	runes := []rune(label)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		s := string(runes) + "…"
		if d.MeasureString(s) <= limit {
			return s
		}
	}
	return ""
}
