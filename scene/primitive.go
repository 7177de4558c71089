package scene

import (
	"math"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/types"
)

// Hit cases reported by triangles.
const (
	FrontFace = iota
	BackFace
)

// Hit cases reported by spheres.
const (
	OutsideHit = iota
	InsideHit
)

// Determinant threshold below which rays are treated as parallel to a triangle.
const parallelDetThreshold = 1e-12

// A triangle primitive. Vertices should be specified in counter-clockwise order.
type Triangle struct {
	V0, V1, V2 types.Vec3

	// Edges V1-V0 and V2-V0.
	e1, e2 types.Vec3

	bbox types.AABB
}

// Create new triangle primitive.
func NewTriangle(v0, v1, v2 types.Vec3) *Triangle {
	return &Triangle{
		V0:   v0,
		V1:   v1,
		V2:   v2,
		e1:   v1.Sub(v0),
		e2:   v2.Sub(v0),
		bbox: types.AABBFromPoints(v0, v1, v2),
	}
}

// Get the geometric normal.
func (tri *Triangle) Normal() types.Vec3 {
	return tri.e1.Cross(tri.e2).Normalize()
}

// Implements accel.Intersectable
func (tri *Triangle) BBox() types.AABB {
	return tri.bbox
}

// Intersect using the Möller-Trumbore algorithm. The hit case is FrontFace if
// the ray approaches from the side the normal points to.
func (tri *Triangle) Intersection(ray *types.Ray) (float64, int) {
	p := ray.Dir.Cross(tri.e2)
	det := tri.e1.Dot(p)
	if math.Abs(det) < parallelDetThreshold {
		return accel.NoHit, 0
	}

	invDet := 1.0 / det
	s := ray.Origin.Sub(tri.V0)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return accel.NoHit, 0
	}

	q := s.Cross(tri.e1)
	v := ray.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return accel.NoHit, 0
	}

	dist := tri.e2.Dot(q) * invDet
	if dist <= accel.Epsilon {
		return accel.NoHit, 0
	}

	if det > 0 {
		return dist, FrontFace
	}
	return dist, BackFace
}

// Implements accel.Intersectable
func (tri *Triangle) Intersects(ray *types.Ray, maxDist float64) bool {
	dist, _ := tri.Intersection(ray)
	return dist != accel.NoHit && dist <= maxDist
}

// An axis aligned box primitive.
type Box struct {
	bbox types.AABB
}

// Create a new box primitive.
func NewBox(min, max types.Vec3) *Box {
	return &Box{bbox: types.NewAABB(min, max)}
}

// Implements accel.Intersectable
func (b *Box) BBox() types.AABB {
	return b.bbox
}

// Intersect using the slab method. The hit case encodes the face that was
// hit as 2*axis for the min face and 2*axis+1 for the max face. Rays starting
// inside the box report the exit face.
func (b *Box) Intersection(ray *types.Ray) (float64, int) {
	tMin, tMax := math.Inf(-1), math.Inf(1)
	minFace, maxFace := 0, 0

	for axis := 0; axis < 3; axis++ {
		if ray.Dir[axis] == 0 {
			if ray.Origin[axis] < b.bbox.Min[axis] || ray.Origin[axis] > b.bbox.Max[axis] {
				return accel.NoHit, 0
			}
			continue
		}

		t0 := (b.bbox.Min[axis] - ray.Origin[axis]) * ray.InvDir[axis]
		t1 := (b.bbox.Max[axis] - ray.Origin[axis]) * ray.InvDir[axis]
		f0, f1 := 2*axis, 2*axis+1
		if t0 > t1 {
			t0, t1 = t1, t0
			f0, f1 = f1, f0
		}

		if t0 > tMin {
			tMin, minFace = t0, f0
		}
		if t1 < tMax {
			tMax, maxFace = t1, f1
		}
		if tMin > tMax {
			return accel.NoHit, 0
		}
	}

	switch {
	case tMin > accel.Epsilon:
		return tMin, minFace
	case tMax > accel.Epsilon:
		return tMax, maxFace
	}
	return accel.NoHit, 0
}

// Implements accel.Intersectable
func (b *Box) Intersects(ray *types.Ray, maxDist float64) bool {
	dist, _ := b.Intersection(ray)
	return dist != accel.NoHit && dist <= maxDist
}

// A sphere primitive.
type Sphere struct {
	Center types.Vec3
	Radius float64
}

// Create new sphere primitive.
func NewSphere(center types.Vec3, radius float64) *Sphere {
	return &Sphere{Center: center, Radius: radius}
}

// Implements accel.Intersectable
func (s *Sphere) BBox() types.AABB {
	r := types.Vec3{s.Radius, s.Radius, s.Radius}
	return types.NewAABB(s.Center.Sub(r), s.Center.Add(r))
}

// Intersect by solving the ray/sphere quadratic. The hit case is InsideHit
// when the ray origin lies inside the sphere.
func (s *Sphere) Intersection(ray *types.Ray) (float64, int) {
	oc := ray.Origin.Sub(s.Center)
	a := ray.Dir.Dot(ray.Dir)
	halfB := oc.Dot(ray.Dir)
	c := oc.Dot(oc) - s.Radius*s.Radius

	disc := halfB*halfB - a*c
	if disc < 0 || a == 0 {
		return accel.NoHit, 0
	}

	sqrtDisc := math.Sqrt(disc)
	if dist := (-halfB - sqrtDisc) / a; dist > accel.Epsilon {
		return dist, OutsideHit
	}
	if dist := (-halfB + sqrtDisc) / a; dist > accel.Epsilon {
		return dist, InsideHit
	}
	return accel.NoHit, 0
}

// Implements accel.Intersectable
func (s *Sphere) Intersects(ray *types.Ray, maxDist float64) bool {
	dist, _ := s.Intersection(ray)
	return dist != accel.NoHit && dist <= maxDist
}
