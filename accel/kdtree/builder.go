package kdtree

import (
	"math"
	"time"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/types"
)

// Selects the split axis for a node given the axis used by its parent.
// The root is given types.NumAxes as its parent axis.
type axisSelector func(bounds types.AABB, parentAxis types.Axis) types.Axis

// Selects a split for a node. Returns false if the node should become a leaf.
type planeSelector func(b *builder, prims []uint32, bounds types.AABB, parentAxis types.Axis) (axis types.Axis, pos float64, ok bool)

type builder struct {
	logger log.Logger
	params BuildParams

	selectAxis  axisSelector
	selectPlane planeSelector

	// Cached primitive bounding boxes and their classification.
	bboxes []types.AABB
	valid  []bool
	point  []bool

	// Number of primitives with invalid bboxes. These are placed on both
	// sides of every split.
	invalidCount int

	// Scratch buffer for split events.
	events eventList

	nodes       []Node
	primIndices []uint32

	stats Stats
}

func newBuilder(logger log.Logger, params BuildParams, prims []accel.Intersectable) *builder {
	b := &builder{
		logger: logger,
		params: params,
		bboxes: make([]types.AABB, len(prims)),
		valid:  make([]bool, len(prims)),
		point:  make([]bool, len(prims)),
	}

	for index, prim := range prims {
		bbox := prim.BBox()
		b.bboxes[index] = bbox
		b.valid[index] = bbox.IsValid()
		b.point[index] = b.valid[index] && bbox.IsPoint()
		if !b.valid[index] {
			b.invalidCount++
		}
	}

	switch params.SplitAxis {
	case AxisLongestExtent:
		b.selectAxis = longestExtentAxis
	default:
		b.selectAxis = roundRobinAxis
	}

	switch params.SplitPlane {
	case SplitMiddle:
		b.selectPlane = middlePlane
	case SplitMedian:
		b.selectPlane = medianPlane
	default:
		b.selectPlane = sahPlane
	}

	return b
}

// Build the tree for the given root bounds.
func (b *builder) build(bounds types.AABB) {
	start := time.Now()

	work := make([]uint32, len(b.bboxes))
	for index := range work {
		work[index] = uint32(index)
	}

	b.nodes = make([]Node, 1, 2*len(work)+1)
	b.primIndices = make([]uint32, 0, len(work))
	b.stats.Primitives = len(work)
	b.partition(0, work, bounds, 0, types.NumAxes)

	b.stats.Nodes = len(b.nodes)
	b.stats.PrimitiveRefs = len(b.primIndices)
	b.stats.BuildTime = time.Since(start)
	b.logger.Debugf(
		"kd-tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d (empty: %d), primitive refs: %d",
		b.stats.BuildTime.Nanoseconds()/1e6,
		b.stats.MaxDepth, b.stats.Nodes, b.stats.Leaves, b.stats.EmptyLeaves, b.stats.PrimitiveRefs,
	)
}

// Split the work list and populate the node at nodeIndex.
func (b *builder) partition(nodeIndex uint32, work []uint32, bounds types.AABB, depth int, parentAxis types.Axis) {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	if len(work) < b.params.MinPrimitives || depth >= b.params.MaxDepth || bounds.IsEmpty() {
		b.createLeaf(nodeIndex, work)
		return
	}

	axis, pos, ok := b.selectPlane(b, work, bounds, parentAxis)
	if !ok {
		b.createLeaf(nodeIndex, work)
		return
	}

	// Split planes are stored with single precision; partition against the
	// stored value so traversal sees the same plane the builder used.
	split := float32(pos)
	pos = float64(split)
	if !b.splitInBounds(axis, pos, bounds) {
		b.createLeaf(nodeIndex, work)
		return
	}

	left, right := b.split(work, axis, pos)
	if b.degenerate(len(work), len(left), len(right)) {
		b.createLeaf(nodeIndex, work)
		return
	}

	leftIndex := uint32(len(b.nodes))
	b.nodes = append(b.nodes, Node{}, Node{})
	b.nodes[nodeIndex] = Node{
		Kind:  InternalNode,
		Axis:  axis,
		Split: split,
		Left:  leftIndex,
	}
	b.stats.Internal++

	leftBounds, rightBounds := bounds.Split(axis, pos)
	b.partition(leftIndex, left, leftBounds, depth+1, axis)
	b.partition(leftIndex+1, right, rightBounds, depth+1, axis)
}

// Check a rounded split position against the node bounds. SAH candidates
// must stay strictly inside the node; middle and median splits may land on
// a face.
func (b *builder) splitInBounds(axis types.Axis, pos float64, bounds types.AABB) bool {
	if b.params.SplitPlane == SplitSAH {
		return pos > bounds.Min[axis] && pos < bounds.Max[axis]
	}
	return pos >= bounds.Min[axis] && pos <= bounds.Max[axis]
}

// Returns true if a split made no progress. Middle and median splits give up
// if either side keeps every primitive while SAH only gives up when both do.
func (b *builder) degenerate(total, left, right int) bool {
	if b.params.SplitPlane == SplitSAH {
		return left == total && right == total
	}
	return left == total || right == total
}

// Distribute primitives to the two sides of a split plane. Primitives
// straddling the plane and primitives with invalid bboxes go to both sides.
func (b *builder) split(work []uint32, axis types.Axis, pos float64) (left, right []uint32) {
	left = make([]uint32, 0, len(work))
	right = make([]uint32, 0, len(work))
	for _, prim := range work {
		if !b.valid[prim] {
			left = append(left, prim)
			right = append(right, prim)
			continue
		}

		bbox := &b.bboxes[prim]
		if bbox.Min[axis] <= pos {
			left = append(left, prim)
		}
		if bbox.Max[axis] > pos {
			right = append(right, prim)
		}
	}
	return left, right
}

func (b *builder) createLeaf(nodeIndex uint32, work []uint32) {
	b.nodes[nodeIndex] = Node{
		Kind:  LeafNode,
		First: uint32(len(b.primIndices)),
		Count: uint32(len(work)),
	}
	b.primIndices = append(b.primIndices, work...)

	b.stats.Leaves++
	if len(work) == 0 {
		b.stats.EmptyLeaves++
	}
}

// Cycle through the axes starting at X for the root, skipping axes along
// which the node has no extent.
func roundRobinAxis(bounds types.AABB, parentAxis types.Axis) types.Axis {
	axis := types.XAxis
	if parentAxis < types.NumAxes {
		axis = parentAxis.Next()
	}

	for retry := 1; retry < int(types.NumAxes) && bounds.Extent(axis) <= 0; retry++ {
		axis = axis.Next()
	}
	return axis
}

func longestExtentAxis(bounds types.AABB, _ types.Axis) types.Axis {
	return bounds.LongestAxis()
}

// Split at the center of the node bounds.
func middlePlane(b *builder, _ []uint32, bounds types.AABB, parentAxis types.Axis) (types.Axis, float64, bool) {
	axis := b.selectAxis(bounds, parentAxis)
	return axis, 0.5 * (bounds.Min[axis] + bounds.Max[axis]), true
}

// Split at the median primitive extent.
func medianPlane(b *builder, work []uint32, bounds types.AABB, parentAxis types.Axis) (types.Axis, float64, bool) {
	axis := b.selectAxis(bounds, parentAxis)
	events := b.splitEvents(work, axis)
	if len(events) == 0 {
		return axis, 0, false
	}

	pos := events[len(events)/2].pos
	pos = math.Max(bounds.Min[axis], math.Min(bounds.Max[axis], pos))
	return axis, pos, true
}

// Sweep the sorted split events along every axis except the parent's split
// axis and select the split with the lowest SAH cost. Returns false if no
// split is cheaper than creating a leaf.
func sahPlane(b *builder, work []uint32, bounds types.AABB, parentAxis types.Axis) (types.Axis, float64, bool) {
	total := len(work)
	bestCost := math.Inf(1)
	bestAxis := types.XAxis
	bestPos := 0.0
	found := false
	invalid := b.invalidInWork(work)

	for axis := types.XAxis; axis < types.NumAxes; axis++ {
		if axis == parentAxis {
			continue
		}

		events := b.splitEvents(work, axis)
		lo, hi := bounds.Min[axis], bounds.Max[axis]

		var ended, planar, started int
		for index := 0; index < len(events); {
			pos := events[index].pos
			candidate := false
			for ; index < len(events) && events[index].pos == pos; index++ {
				switch events[index].kind {
				case eventMax:
					ended++
				case eventPlanar:
					planar++
				case eventMin:
					started++
				}
				if !events[index].point {
					candidate = true
				}
			}

			if !candidate || pos <= lo || pos >= hi {
				continue
			}

			// left: primitives starting at or before pos
			// right: primitives ending after pos
			leftCount := started + planar + invalid
			rightCount := total - ended - planar

			leftArea, rightArea := bounds.SplitSurfaceAreas(axis, pos)
			cost := leftArea*float64(leftCount) + rightArea*float64(rightCount)
			if leftCount == 0 || rightCount == 0 {
				cost *= b.params.EmptyBias
			}

			if cost < bestCost {
				bestCost = cost
				bestAxis = axis
				bestPos = pos
				found = true
			}
		}
	}

	if !found {
		return bestAxis, 0, false
	}

	leafCost := (float64(total) - b.params.TraversalCost) * bounds.SurfaceArea()
	if leafCost < bestCost {
		return bestAxis, 0, false
	}

	return bestAxis, bestPos, true
}

// Count the primitives in the work list with invalid bboxes.
func (b *builder) invalidInWork(work []uint32) int {
	if b.invalidCount == 0 {
		return 0
	}

	count := 0
	for _, prim := range work {
		if !b.valid[prim] {
			count++
		}
	}
	return count
}
