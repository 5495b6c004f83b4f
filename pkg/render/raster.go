package render

import (
	"image/color"
	"math"
)

// vertex is a screen-space point: pixel x, pixel y (down) and view depth
type vertex struct {
	x, y, z float64
}

// fillTriangle scan-converts a triangle with depth testing. Pixels are
// sampled at their centers; a pixel is covered when its center lies inside
// the triangle, with ties on the top/left edges included.
func fillTriangle(t *Target, v [3]vertex, near, far float64, col color.RGBA) int {
	// Sort vertices by Y coordinate (top to bottom)
	if v[0].y > v[1].y {
		v[0], v[1] = v[1], v[0]
	}
	if v[1].y > v[2].y {
		v[1], v[2] = v[2], v[1]
	}
	if v[0].y > v[1].y {
		v[0], v[1] = v[1], v[0]
	}
	v0, v1, v2 := v[0], v[1], v[2]
	if v2.y == v0.y {
		return 0
	}

	yStart := max(0, int(math.Ceil(v0.y-0.5)))
	yEnd := min(t.height, int(math.Ceil(v2.y-0.5)))

	written := 0
	for y := yStart; y < yEnd; y++ {
		fy := float64(y) + 0.5

		// Long edge v0-v2
		s := (fy - v0.y) / (v2.y - v0.y)
		xa := v0.x + s*(v2.x-v0.x)
		za := v0.z + s*(v2.z-v0.z)

		// Short edge, upper or lower half
		var xb, zb float64
		if fy < v1.y {
			s = (fy - v0.y) / (v1.y - v0.y)
			xb = v0.x + s*(v1.x-v0.x)
			zb = v0.z + s*(v1.z-v0.z)
		} else {
			s = (fy - v1.y) / (v2.y - v1.y)
			xb = v1.x + s*(v2.x-v1.x)
			zb = v1.z + s*(v2.z-v1.z)
		}

		if xa > xb {
			xa, xb = xb, xa
			za, zb = zb, za
		}

		xStart := max(0, int(math.Ceil(xa-0.5)))
		xEnd := min(t.width, int(math.Ceil(xb-0.5)))
		for x := xStart; x < xEnd; x++ {
			// Interpolate depth
			z := za + (float64(x)+0.5-xa)/(xb-xa)*(zb-za)
			if z < near || z > far {
				continue
			}
			if t.plot(x, y, z, col) {
				written++
			}
		}
	}
	return written
}

// signedArea returns twice the signed area of a polygon in camera space
// (x right, y up). Counter-clockwise winding is positive.
func signedArea(xs, ys []float64) float64 {
	area := 0.0
	n := len(xs)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += xs[i]*ys[j] - xs[j]*ys[i]
	}
	return area
}
