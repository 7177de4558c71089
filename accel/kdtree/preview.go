package kdtree

import (
	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/types"
)

// Emit the tree bounds followed by the split plane of every internal node
// in depth-first order.
func (t *Tree) Preview(sink accel.PreviewSink) {
	t.mustBeReady()

	sink.Box(t.bbox, 0)
	if t.bbox.IsEmpty() {
		return
	}
	t.previewNode(sink, 0, t.bbox, 0)
}

func (t *Tree) previewNode(sink accel.PreviewSink, nodeIndex uint32, bounds types.AABB, depth int) {
	node := &t.nodes[nodeIndex]
	if node.IsLeaf() {
		return
	}

	pos := float64(node.Split)
	sink.Plane(node.Axis, pos, bounds, depth)

	leftBounds, rightBounds := bounds.Split(node.Axis, pos)
	t.previewNode(sink, node.Left, leftBounds, depth+1)
	t.previewNode(sink, node.Right(), rightBounds, depth+1)
}
