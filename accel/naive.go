package accel

import (
	"time"

	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/types"
)

// Naive is a SpatialAccel that tests every primitive for each query. It is
// used as a reference implementation and for very small primitive lists.
type Naive struct {
	logger log.Logger

	prims []Intersectable
	bound bool
	ready bool

	bbox types.AABB
}

// Create a new naive accelerator.
func NewNaive() *Naive {
	return &Naive{
		logger: log.New("naive accel"),
		bbox:   types.EmptyAABB(),
	}
}

// Bind the primitive list.
func (n *Naive) SetGeometry(prims []Intersectable) {
	if n.bound {
		panic(ErrAlreadyBound)
	}
	n.prims = prims
	n.bound = true
}

// Calculate the aggregate bounding box.
func (n *Naive) Init() error {
	if n.ready {
		return nil
	}
	if !n.bound {
		return ErrGeometryNotSet
	}

	start := time.Now()
	n.bbox = AggregateBBox(n.prims)
	n.ready = true

	ObserveBuild(NaiveAccelLabel, time.Since(start), 0, 0)
	n.logger.Debugf("initialized with %d primitives; bbox: %v", len(n.prims), n.bbox)
	return nil
}

// Unbind geometry.
func (n *Naive) Reset() {
	n.prims = nil
	n.bound = false
	n.ready = false
	n.bbox = types.EmptyAABB()
}

// Get the aggregate bounding box.
func (n *Naive) BBox() types.AABB {
	return n.bbox
}

// Get the bound geometry.
func (n *Naive) Geometry() []Intersectable {
	return n.prims
}

// Find the nearest hit by testing all primitives.
func (n *Naive) Intersection(ray *types.Ray, hit *HitInfo) float64 {
	if !n.ready {
		panic(ErrNotInitialized)
	}

	if _, _, ok := n.bbox.IntersectRay(ray); !ok {
		return NoHit
	}

	// Ties keep the first primitive in iteration order. A <= comparison
	// (last one wins) looks equivalent but fails for near-duplicate
	// distances; see TestNaiveTieBreak.
	closest := NoHit
	for index, prim := range n.prims {
		dist, hitCase := prim.Intersection(ray)
		if dist > Epsilon && dist < closest {
			closest = dist
			hit.Primitive = index
			hit.Case = hitCase
		}
	}

	return closest
}

// Returns true as soon as any primitive reports a hit within maxDist.
func (n *Naive) Intersects(ray *types.Ray, maxDist float64) bool {
	if !n.ready {
		panic(ErrNotInitialized)
	}

	if _, _, ok := n.bbox.IntersectRay(ray); !ok {
		return false
	}

	for _, prim := range n.prims {
		if prim.Intersects(ray, maxDist) {
			return true
		}
	}

	return false
}

// Emit the aggregate bounding box.
func (n *Naive) Preview(sink PreviewSink) {
	if !n.ready {
		panic(ErrNotInitialized)
	}
	sink.Box(n.bbox, 0)
}
