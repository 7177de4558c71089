package kdtree

import (
	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/types"
)

// Tree is a SpatialAccel backed by a kd-tree.
type Tree struct {
	logger log.Logger
	params BuildParams

	prims []accel.Intersectable
	bound bool

	bbox        types.AABB
	nodes       []Node
	primIndices []uint32
	stats       Stats
}

// Create a new kd-tree accelerator that will be built using the supplied
// parameters. Parameters are validated by Init.
func New(params BuildParams) *Tree {
	return &Tree{
		logger: log.New("kd-tree"),
		params: params,
		bbox:   types.EmptyAABB(),
	}
}

// Create a new kd-tree accelerator with the default build parameters.
func NewDefault() *Tree {
	return New(DefaultBuildParams())
}

// Bind the primitive list.
func (t *Tree) SetGeometry(prims []accel.Intersectable) {
	if t.bound {
		panic(accel.ErrAlreadyBound)
	}
	t.prims = prims
	t.bound = true
}

// Build the tree.
func (t *Tree) Init() error {
	if t.nodes != nil {
		return nil
	}
	if !t.bound {
		return accel.ErrGeometryNotSet
	}
	if err := t.params.Validate(); err != nil {
		return err
	}

	t.bbox = accel.AggregateBBox(t.prims)

	b := newBuilder(t.logger, t.params, t.prims)
	b.build(t.bbox)

	t.nodes = b.nodes
	t.primIndices = b.primIndices
	t.stats = b.stats

	accel.ObserveBuild(accel.KdTreeAccelLabel, t.stats.BuildTime, t.stats.Internal, t.stats.Leaves)
	return nil
}

// Release the tree and unbind geometry.
func (t *Tree) Reset() {
	t.prims = nil
	t.bound = false
	t.bbox = types.EmptyAABB()
	t.nodes = nil
	t.primIndices = nil
	t.stats = Stats{}
}

// Get the aggregate bounding box.
func (t *Tree) BBox() types.AABB {
	return t.bbox
}

// Get the bound geometry.
func (t *Tree) Geometry() []accel.Intersectable {
	return t.prims
}

// Get the build parameters.
func (t *Tree) Params() BuildParams {
	return t.params
}

// Get the build statistics.
func (t *Tree) Stats() Stats {
	return t.stats
}

// Get the tree nodes. The root is stored at index 0.
func (t *Tree) Nodes() []Node {
	return t.nodes
}

// Get the primitive indices referenced by a leaf node.
func (t *Tree) LeafPrimitives(node *Node) []uint32 {
	if !node.IsLeaf() {
		return nil
	}
	return t.primIndices[node.First : node.First+node.Count]
}

func (t *Tree) mustBeReady() {
	if t.nodes == nil {
		panic(accel.ErrNotInitialized)
	}
}
