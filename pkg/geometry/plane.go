package geometry

// Plane is an infinite plane in Hessian normal form.
// A point p lies on the plane when Normal.Dot(p) + Constant == 0 and on the
// kept side of a clipping plane when that expression is >= 0.
type Plane struct {
	Normal   Vector3
	Constant float64
}

// NewPlane creates a plane from a normal and a constant
func NewPlane(normal Vector3, constant float64) *Plane {
	return &Plane{Normal: normal, Constant: constant}
}

// DistanceToPoint returns the signed distance from the plane to point
func (p *Plane) DistanceToPoint(point Vector3) float64 {
	return p.Normal.Dot(point) + p.Constant
}

// Contains reports whether point is on the kept side of the plane
func (p *Plane) Contains(point Vector3) bool {
	return p.DistanceToPoint(point) >= 0
}

// Clone returns an independent copy of the plane
func (p *Plane) Clone() *Plane {
	c := *p
	return &c
}
