package render

import "github.com/philipparndt/gosprack/pkg/geometry"

// clipPolygon clips a convex polygon against each plane in turn, keeping the
// part where the signed distance is non-negative.
func clipPolygon(poly []geometry.Vector3, planes []*geometry.Plane) []geometry.Vector3 {
	for _, plane := range planes {
		if len(poly) < 3 {
			return nil
		}

		inside := 0
		for _, v := range poly {
			if plane.Contains(v) {
				inside++
			}
		}
		if inside == len(poly) {
			continue
		}
		if inside == 0 {
			return nil
		}

		out := make([]geometry.Vector3, 0, len(poly)+1)
		for i, cur := range poly {
			next := poly[(i+1)%len(poly)]
			dc := plane.DistanceToPoint(cur)
			dn := plane.DistanceToPoint(next)

			if dc >= 0 {
				out = append(out, cur)
			}
			if (dc >= 0) != (dn >= 0) {
				out = append(out, cur.Lerp(next, dc/(dc-dn)))
			}
		}
		poly = out
	}
	if len(poly) < 3 {
		return nil
	}
	return poly
}
