package accel

import (
	"math"

	"github.com/achilleasa/kdtrace/types"
)

const (
	// Hits closer than this distance are ignored to avoid self-intersections
	// when rays are spawned from a surface.
	Epsilon = 1e-6
)

// The distance returned by intersection queries when nothing was hit.
var NoHit = math.Inf(1)

// The Intersectable interface is implemented by all primitives that can be
// indexed by a spatial accelerator.
type Intersectable interface {
	// Get the primitive bounding box.
	BBox() types.AABB

	// Get the nearest hit distance greater than Epsilon or NoHit. The
	// returned case value identifies the primitive feature that was hit
	// (e.g. a box face) so callers can select the matching normal.
	Intersection(ray *types.Ray) (dist float64, hitCase int)

	// Returns true if the ray hits the primitive at a distance in
	// (Epsilon, maxDist].
	Intersects(ray *types.Ray, maxDist float64) bool
}

// Information about the primitive reported by a successful intersection query.
type HitInfo struct {
	// Index of the hit primitive in the bound geometry list.
	Primitive int

	// The hit case reported by the primitive.
	Case int
}

// The SpatialAccel interface is implemented by all ray/primitive
// intersection accelerators.
//
// Accelerators are set up once: SetGeometry binds an externally owned
// primitive list and Init builds the acceleration structure. After Init
// returns the accelerator is read-only and its query methods may be
// invoked concurrently.
type SpatialAccel interface {
	// Bind the primitive list. The list is not copied and must not be
	// modified while the accelerator is in use.
	SetGeometry(prims []Intersectable)

	// Build the acceleration structure. Calling Init on an already
	// initialized accelerator is a no-op.
	Init() error

	// Release the acceleration structure and unbind the geometry so that
	// SetGeometry and Init can be called again.
	Reset()

	// Get the aggregate bounding box of the bound geometry.
	BBox() types.AABB

	// Get the bound geometry.
	Geometry() []Intersectable

	// Find the nearest hit along the ray. Returns NoHit if nothing was hit;
	// otherwise the hit distance and hit info are populated.
	Intersection(ray *types.Ray, hit *HitInfo) float64

	// Returns true if any primitive is hit at a distance in (Epsilon, maxDist].
	Intersects(ray *types.Ray, maxDist float64) bool

	// Emit a debug visualization of the accelerator to a sink.
	Preview(sink PreviewSink)
}

// Calculate the aggregate bounding box for a primitive list. Primitives with
// invalid or point (zero-extent) boxes are skipped.
func AggregateBBox(prims []Intersectable) types.AABB {
	bbox := types.EmptyAABB()
	for _, prim := range prims {
		primBBox := prim.BBox()
		if !primBBox.IsValid() || primBBox.IsPoint() {
			continue
		}
		bbox = bbox.Union(primBBox)
	}
	return bbox
}
