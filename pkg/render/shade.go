package render

import (
	"image/color"
	"math"

	"github.com/philipparndt/gosprack/pkg/geometry"
	"github.com/philipparndt/gosprack/pkg/scene"
)

// irradiance is accumulated ambient light in linear RGB
type irradiance struct {
	r, g, b float64
}

func collectLights(root *scene.Node) irradiance {
	var irr irradiance
	root.Traverse(func(node *scene.Node, _ geometry.Matrix4) {
		if node.Light == nil {
			return
		}
		l := node.Light
		irr.r += srgbToLinear(l.Color.R) * l.Intensity
		irr.g += srgbToLinear(l.Color.G) * l.Intensity
		irr.b += srgbToLinear(l.Color.B) * l.Intensity
	})
	return irr
}

// shade computes the premultiplied fragment color of a material under
// ambient light. Metallic surfaces have no diffuse response.
func shade(m *scene.Material, irr irradiance) color.RGBA {
	diffuse := 1 - clamp01(m.Metalness)
	r := srgbToLinear(m.Color.R) * diffuse * irr.r
	g := srgbToLinear(m.Color.G) * diffuse * irr.g
	b := srgbToLinear(m.Color.B) * diffuse * irr.b

	alpha := 1.0
	if m.Transparent {
		alpha = clamp01(m.Opacity)
	}

	return color.RGBA{
		R: premultiply(r, alpha),
		G: premultiply(g, alpha),
		B: premultiply(b, alpha),
		A: uint8(math.Round(alpha * 255)),
	}
}

// premultiply quantises a linear channel to 8-bit sRGB before scaling it
// by alpha, so opaque colours survive the round trip exactly
func premultiply(linear, alpha float64) uint8 {
	c8 := math.Round(linearToSRGB(linear) * 255)
	return uint8(math.Round(c8 * alpha))
}

func srgbToLinear(c uint8) float64 {
	v := float64(c) / 255
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSRGB(v float64) float64 {
	v = clamp01(v)
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
