package accel

import (
	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/types"
)

// The PreviewSink interface receives the debug visualization emitted by
// SpatialAccel.Preview.
type PreviewSink interface {
	// Report a bounding box at the given tree depth.
	Box(bbox types.AABB, depth int)

	// Report a split plane. The bounds argument is the box of the node that
	// the plane partitions.
	Plane(axis types.Axis, pos float64, bounds types.AABB, depth int)
}

// A PreviewSink that emits debug log entries.
type LogPreviewSink struct {
	Logger log.Logger
}

// Log the box.
func (s LogPreviewSink) Box(bbox types.AABB, depth int) {
	s.Logger.Debugf("[depth %02d] box %v", depth, bbox)
}

// Log the plane.
func (s LogPreviewSink) Plane(axis types.Axis, pos float64, bounds types.AABB, depth int) {
	s.Logger.Debugf("[depth %02d] plane %s=%g in %v", depth, axis, pos, bounds)
}

// A single preview element captured by a PreviewRecorder.
type PreviewElement struct {
	IsPlane bool
	Axis    types.Axis
	Pos     float64
	Bounds  types.AABB
	Depth   int
}

// A PreviewSink that stores all reported elements.
type PreviewRecorder struct {
	Elements []PreviewElement
}

// Record the box.
func (r *PreviewRecorder) Box(bbox types.AABB, depth int) {
	r.Elements = append(r.Elements, PreviewElement{Bounds: bbox, Depth: depth})
}

// Record the plane.
func (r *PreviewRecorder) Plane(axis types.Axis, pos float64, bounds types.AABB, depth int) {
	r.Elements = append(r.Elements, PreviewElement{
		IsPlane: true,
		Axis:    axis,
		Pos:     pos,
		Bounds:  bounds,
		Depth:   depth,
	})
}

// Get the recorded planes.
func (r *PreviewRecorder) Planes() []PreviewElement {
	planes := make([]PreviewElement, 0, len(r.Elements))
	for _, el := range r.Elements {
		if el.IsPlane {
			planes = append(planes, el)
		}
	}
	return planes
}
