package kdtree

import (
	"math"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/types"
)

const (
	// Padding applied to the ray segment when entering nodes so that hits
	// lying exactly on a split plane are found on either side.
	traversalEpsilon = 1e-5

	stackSize = 2 * MaxTreeDepth
)

// A callback invoked for every node visited during traversal together with
// the ray segment that overlaps it.
type TraceFunc func(nodeIndex uint32, tMin, tMax float64)

type stackEntry struct {
	node uint32
	tMax float64
}

// Find the nearest hit along the ray.
func (t *Tree) Intersection(ray *types.Ray, hit *accel.HitInfo) float64 {
	return t.IntersectionTraced(ray, hit, nil)
}

// Find the nearest hit along the ray, invoking trace for every visited node.
func (t *Tree) IntersectionTraced(ray *types.Ray, hit *accel.HitInfo, trace TraceFunc) float64 {
	t.mustBeReady()

	tMin, tMax, ok := t.bbox.IntersectRay(ray)
	if !ok {
		return accel.NoHit
	}
	tMin -= traversalEpsilon
	tMax += traversalEpsilon

	var stack [stackSize]stackEntry
	var sp int
	var nodeIndex uint32
	for {
		node := &t.nodes[nodeIndex]
		if trace != nil {
			trace(nodeIndex, tMin, tMax)
		}

		if !node.IsLeaf() {
			var far uint32
			var dist float64
			nodeIndex, far, dist = visitOrder(node, ray)
			switch {
			case dist > tMax || dist <= 0:
				// only the near child overlaps the segment
			case dist < tMin:
				nodeIndex = far
			default:
				if sp == stackSize {
					panic(ErrStackOverflow)
				}
				stack[sp] = stackEntry{node: far, tMax: tMax}
				sp++
				tMax = dist + traversalEpsilon
			}
			continue
		}

		// Leaves are visited front to back so the first leaf producing a
		// hit inside its segment holds the nearest hit.
		closest := accel.NoHit
		for _, prim := range t.LeafPrimitives(node) {
			dist, hitCase := t.prims[prim].Intersection(ray)
			if dist > accel.Epsilon && dist <= tMax && dist < closest {
				closest = dist
				hit.Primitive = int(prim)
				hit.Case = hitCase
			}
		}
		if closest != accel.NoHit {
			return closest
		}

		if sp == 0 {
			return accel.NoHit
		}
		sp--
		tMin = tMax - 2*traversalEpsilon
		nodeIndex, tMax = stack[sp].node, stack[sp].tMax
	}
}

// Returns true if any primitive is hit at a distance in (Epsilon, maxDist].
func (t *Tree) Intersects(ray *types.Ray, maxDist float64) bool {
	return t.IntersectsTraced(ray, maxDist, nil)
}

// Run an occlusion query, invoking trace for every visited node.
func (t *Tree) IntersectsTraced(ray *types.Ray, maxDist float64, trace TraceFunc) bool {
	t.mustBeReady()

	tMin, tMax, ok := t.bbox.IntersectRay(ray)
	if !ok {
		return false
	}

	// Pad before culling against maxDist; hits on the root box faces may
	// be a few ulps closer than the slab entry distance.
	tMin -= traversalEpsilon
	if tMin > maxDist {
		return false
	}
	tMax = math.Min(tMax, maxDist) + traversalEpsilon

	var stack [stackSize]stackEntry
	var sp int
	var nodeIndex uint32
	for {
		node := &t.nodes[nodeIndex]
		if trace != nil {
			trace(nodeIndex, tMin, tMax)
		}

		if !node.IsLeaf() {
			var far uint32
			var dist float64
			nodeIndex, far, dist = visitOrder(node, ray)
			switch {
			case dist > tMax || dist <= 0:
				// only the near child overlaps the segment
			case dist < tMin:
				nodeIndex = far
			default:
				if sp == stackSize {
					panic(ErrStackOverflow)
				}
				stack[sp] = stackEntry{node: far, tMax: tMax}
				sp++
				tMax = dist + traversalEpsilon
			}
			continue
		}

		for _, prim := range t.LeafPrimitives(node) {
			if t.prims[prim].Intersects(ray, maxDist) {
				return true
			}
		}

		if sp == 0 {
			return false
		}
		sp--
		tMin = tMax - 2*traversalEpsilon
		nodeIndex, tMax = stack[sp].node, stack[sp].tMax
	}
}

// Get the near and far children of an internal node with respect to the ray
// origin and the distance to the split plane. Rays parallel to the plane
// never cross it.
func visitOrder(node *Node, ray *types.Ray) (near, far uint32, dist float64) {
	axis := node.Axis
	if axis >= types.NumAxes {
		panic(ErrInvalidAxis)
	}

	delta := float64(node.Split) - ray.Origin[axis]
	if delta > 0 || (delta == 0 && ray.Dir[axis] <= 0) {
		near, far = node.Left, node.Right()
	} else {
		near, far = node.Right(), node.Left
	}

	if ray.Dir[axis] == 0 {
		return near, far, math.Inf(1)
	}
	return near, far, delta * ray.InvDir[axis]
}
