package types

import (
	"fmt"
	"math"
)

// An axis aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Create an AABB from two corners.
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// Create an AABB that bounds all supplied points.
func AABBFromPoints(points ...Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box.Min = MinVec3(box.Min, p)
		box.Max = MaxVec3(box.Max, p)
	}
	return box
}

// Get an inverted box that acts as the identity element for Union. Rays never
// intersect it.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Returns true if the box has no NaN components and min <= max on all axes.
func (b AABB) IsValid() bool {
	if HasNaN(b.Min) || HasNaN(b.Max) {
		return false
	}
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Returns true if the box is the result of EmptyAABB or any other inverted box.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Returns true if the box has zero extent along all axes.
func (b AABB) IsPoint() bool {
	return b.Min == b.Max
}

// Get the union of two boxes.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: MinVec3(b.Min, other.Min),
		Max: MaxVec3(b.Max, other.Max),
	}
}

// Get the box extent along an axis.
func (b AABB) Extent(axis Axis) float64 {
	return b.Max[axis] - b.Min[axis]
}

// Get the box center.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get the axis with the largest extent. Ties favor the lower axis.
func (b AABB) LongestAxis() Axis {
	axis := XAxis
	for a := YAxis; a < NumAxes; a++ {
		if b.Extent(a) > b.Extent(axis) {
			axis = a
		}
	}
	return axis
}

// Get the surface area of the box. Empty boxes have zero area.
func (b AABB) SurfaceArea() float64 {
	if b.IsEmpty() {
		return 0
	}
	dx, dy, dz := b.Extent(XAxis), b.Extent(YAxis), b.Extent(ZAxis)
	return 2.0 * (dx*dy + dy*dz + dz*dx)
}

// Split the box with a plane perpendicular to axis at pos.
func (b AABB) Split(axis Axis, pos float64) (left, right AABB) {
	left, right = b, b
	left.Max[axis] = pos
	right.Min[axis] = pos
	return left, right
}

// Get the surface areas of the two boxes produced by splitting this box at
// pos along axis.
func (b AABB) SplitSurfaceAreas(axis Axis, pos float64) (left, right float64) {
	u, v := (axis+1)%NumAxes, (axis+2)%NumAxes
	du, dv := b.Extent(u), b.Extent(v)
	face := du * dv
	ring := du + dv

	return 2.0 * (face + ring*(pos-b.Min[axis])),
		2.0 * (face + ring*(b.Max[axis]-pos))
}

// Clip the ray against the box using the slab method. Returns the entry and
// exit distances and true if the ray overlaps the box. The entry distance may
// be negative when the ray origin is inside the box.
func (b AABB) IntersectRay(ray *Ray) (tMin, tMax float64, ok bool) {
	if b.IsEmpty() {
		return 0, 0, false
	}

	tMin = math.Inf(-1)
	tMax = math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		// Ray parallel to this slab
		if ray.Dir[axis] == 0 {
			if ray.Origin[axis] < b.Min[axis] || ray.Origin[axis] > b.Max[axis] {
				return 0, 0, false
			}
			continue
		}

		t0 := (b.Min[axis] - ray.Origin[axis]) * ray.InvDir[axis]
		t1 := (b.Max[axis] - ray.Origin[axis]) * ray.InvDir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}

		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}

		if tMin > tMax {
			return 0, 0, false
		}
	}

	return tMin, tMax, true
}

// Implements fmt.Stringer
func (b AABB) String() string {
	return fmt.Sprintf("[(%g, %g, %g) - (%g, %g, %g)]", b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}
