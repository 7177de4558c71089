package kdtree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/scene"
	"github.com/achilleasa/kdtrace/types"
	"github.com/stretchr/testify/require"
)

const distTolerance = 1e-4

// A primitive with a NaN bounding box that never reports hits.
type nanPrim struct{}

func (nanPrim) BBox() types.AABB {
	nan := math.NaN()
	return types.AABB{Min: types.Vec3{nan, 0, 0}, Max: types.Vec3{1, nan, 1}}
}
func (nanPrim) Intersection(*types.Ray) (float64, int) { return accel.NoHit, 0 }
func (nanPrim) Intersects(*types.Ray, float64) bool { return false }

func buildParamsFor(plane SplitPlaneMethod, axis SplitAxisMethod) BuildParams {
	params := DefaultBuildParams()
	params.SplitPlane = plane
	params.SplitAxis = axis
	return params
}

func allParams() []BuildParams {
	var out []BuildParams
	for plane := SplitMiddle; plane <= SplitSAH; plane++ {
		for axis := AxisRoundRobin; axis <= AxisLongestExtent; axis++ {
			out = append(out, buildParamsFor(plane, axis))
		}
	}
	return out
}

func buildTree(t *testing.T, params BuildParams, prims []accel.Intersectable) *Tree {
	tree := New(params)
	tree.SetGeometry(prims)
	require.NoError(t, tree.Init())
	return tree
}

func buildNaive(t *testing.T, prims []accel.Intersectable) *accel.Naive {
	naive := accel.NewNaive()
	naive.SetGeometry(prims)
	require.NoError(t, naive.Init())
	return naive
}

// Compare kd-tree query results against the naive accelerator.
func crossValidate(t *testing.T, tree *Tree, naive *accel.Naive, rays []types.Ray) {
	var hits int
	for index := range rays {
		ray := &rays[index]

		var expHit, hit accel.HitInfo
		expDist := naive.Intersection(ray, &expHit)
		dist := tree.Intersection(ray, &hit)

		if expDist == accel.NoHit {
			require.Equalf(t, accel.NoHit, dist, "[ray %d] expected no hit; got hit with prim %d at %f", index, hit.Primitive, dist)
			continue
		}

		hits++
		require.NotEqualf(t, accel.NoHit, dist, "[ray %d] expected hit with prim %d at %f; got no hit", index, expHit.Primitive, expDist)
		require.InDeltaf(t, expDist, dist, distTolerance, "[ray %d] hit distance mismatch", index)
	}

	require.NotZero(t, hits, "expected at least one ray to hit the geometry")
}

func TestCrossValidateWithNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	type spec struct {
		name  string
		prims []accel.Intersectable
	}
	specs := []spec{
		{"boxes", scene.RandomBoxes(rng, 2000, 100, 5)},
		{"triangles", scene.RandomTriangles(rng, 2000, 100, 8)},
	}

	for _, s := range specs {
		name, prims := s.name, s.prims
		naive := buildNaive(t, prims)
		rays := scene.RandomRays(rng, 500, naive.BBox())

		for _, params := range allParams() {
			t.Run(name+"/"+params.SplitPlane.String()+"/"+params.SplitAxis.String(), func(t *testing.T) {
				tree := buildTree(t, params, prims)
				crossValidate(t, tree, naive, rays)
			})
		}
	}
}

func TestCrossValidateRaysFromInside(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	prims := scene.RandomBoxes(rng, 1000, 50, 3)
	naive := buildNaive(t, prims)

	rays := make([]types.Ray, 500)
	for index := range rays {
		origin := types.Vec3{40 * (rng.Float64() - 0.5), 40 * (rng.Float64() - 0.5), 40 * (rng.Float64() - 0.5)}
		dir := types.Vec3{rng.Float64() - 0.5, rng.Float64() - 0.5, rng.Float64() - 0.5}.Normalize()
		rays[index] = types.NewRay(origin, dir)
	}

	for _, params := range allParams() {
		tree := buildTree(t, params, prims)
		crossValidate(t, tree, naive, rays)
	}
}

func TestAxisAlignedRays(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	prims := scene.RandomBoxes(rng, 500, 20, 2)
	naive := buildNaive(t, prims)

	dirs := []types.Vec3{
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
	}
	var rays []types.Ray
	for _, dir := range dirs {
		for i := 0; i < 50; i++ {
			origin := types.Vec3{20 * (rng.Float64() - 0.5), 20 * (rng.Float64() - 0.5), 20 * (rng.Float64() - 0.5)}
			rays = append(rays, types.NewRay(origin.Sub(dir.Mul(30)), dir))
		}
	}

	for _, params := range allParams() {
		tree := buildTree(t, params, prims)
		crossValidate(t, tree, naive, rays)
	}
}

func TestOcclusionConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	prims := scene.RandomTriangles(rng, 1500, 60, 6)
	rays := scene.RandomRays(rng, 500, accel.AggregateBBox(prims))

	for _, params := range allParams() {
		tree := buildTree(t, params, prims)
		checkOcclusion(t, tree, rays)
	}
}

// Check that occlusion queries agree with the nearest hit, including when
// maxDist is exactly the nearest hit distance.
func checkOcclusion(t *testing.T, tree *Tree, rays []types.Ray) int {
	var hits int
	for index := range rays {
		ray := &rays[index]

		var hit accel.HitInfo
		dist := tree.Intersection(ray, &hit)
		if dist == accel.NoHit {
			require.Falsef(t, tree.Intersects(ray, math.MaxFloat64), "[ray %d] expected no occlusion", index)
			continue
		}

		hits++
		require.Truef(t, tree.Intersects(ray, dist), "[ray %d] expected occlusion within the nearest hit distance %v", index, dist)
		require.Truef(t, tree.Intersects(ray, dist+0.5), "[ray %d] expected occlusion within %f", index, dist+0.5)
		if below := math.Nextafter(dist, 0) - 1e-4; below > accel.Epsilon {
			require.Falsef(t, tree.Intersects(ray, below), "[ray %d] expected no occlusion within %v (nearest hit %v)", index, below, dist)
		}
	}
	return hits
}

func TestOcclusionOnRootBoundary(t *testing.T) {
	// The floor triangle lies on the minimum Z face of the root box.
	floor := scene.NewTriangle(types.Vec3{0, 0, 0}, types.Vec3{40, 0, 0}, types.Vec3{0, 40, 0})
	prims := []accel.Intersectable{
		floor,
		scene.NewBox(types.Vec3{10, 10, 2}, types.Vec3{12, 12, 4}),
	}
	naive := buildNaive(t, prims)

	rng := rand.New(rand.NewSource(23))
	rays := []types.Ray{
		types.NewRay(types.Vec3{15.5425, 13.0585, -0.00731}, types.Vec3{0.6236, 0.3819, 0.6821}.Normalize()),
	}
	for len(rays) < 3000 {
		origin := types.Vec3{5 + 10*rng.Float64(), 5 + 10*rng.Float64(), -1e-4 - 0.01*rng.Float64()}
		dir := types.Vec3{rng.Float64() - 0.5, rng.Float64() - 0.5, 0.2 + rng.Float64()}.Normalize()
		rays = append(rays, types.NewRay(origin, dir))
	}

	for _, params := range allParams() {
		tree := buildTree(t, params, prims)
		for index := range rays {
			ray := &rays[index]

			var hit accel.HitInfo
			dist := tree.Intersection(ray, &hit)
			require.NotEqualf(t, accel.NoHit, dist, "[%s/%s ray %d] expected a floor hit", params.SplitPlane, params.SplitAxis, index)
			require.Truef(t, naive.Intersects(ray, dist), "[ray %d] naive occlusion mismatch at %v", index, dist)
			require.Truef(t, tree.Intersects(ray, dist), "[%s/%s ray %d] expected occlusion at the nearest hit distance %v", params.SplitPlane, params.SplitAxis, index, dist)
		}
	}
}

func TestOcclusionWithPlanarLayers(t *testing.T) {
	// Axis aligned triangles stacked on integer Z levels put many hits on
	// node faces.
	rng := rand.New(rand.NewSource(29))
	var prims []accel.Intersectable
	for index := 0; index < 2000; index++ {
		z := float64(rng.Intn(10))
		v0 := types.Vec3{40 * rng.Float64(), 40 * rng.Float64(), z}
		v1 := v0.Add(types.Vec3{1 + 3*rng.Float64(), 0, 0})
		v2 := v0.Add(types.Vec3{0, 1 + 3*rng.Float64(), 0})
		prims = append(prims, scene.NewTriangle(v0, v1, v2))
	}
	naive := buildNaive(t, prims)
	rays := scene.RandomRays(rng, 3000, naive.BBox())

	for _, params := range allParams() {
		tree := buildTree(t, params, prims)
		crossValidate(t, tree, naive, rays)
		require.NotZero(t, checkOcclusion(t, tree, rays))
	}
}

func TestTreeStructure(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	prims := scene.RandomBoxes(rng, 3000, 100, 4)

	for _, params := range allParams() {
		tree := buildTree(t, params, prims)
		stats := tree.Stats()
		nodes := tree.Nodes()

		require.Equal(t, stats.Internal+1, stats.Leaves, "leaf count must equal internal node count + 1")
		require.Equal(t, len(nodes), stats.Internal+stats.Leaves)
		require.Equal(t, len(nodes), stats.Nodes)
		require.LessOrEqual(t, stats.MaxDepth, params.MaxDepth)
		require.Equal(t, len(prims), stats.Primitives)

		var refs int
		for index := range nodes {
			node := &nodes[index]
			if node.IsLeaf() {
				refs += int(node.Count)
				continue
			}

			require.Truef(t, node.Axis < types.NumAxes, "[node %d] invalid axis %d", index, node.Axis)
			require.Greaterf(t, node.Left, uint32(index), "[node %d] children must be stored after their parent", index)
			require.Equalf(t, uint32(1), node.Left%2, "[node %d] sibling pairs must start at odd slots", index)
			require.Less(t, int(node.Right()), len(nodes))
		}
		require.Equal(t, stats.PrimitiveRefs, refs)
		require.GreaterOrEqual(t, refs, len(prims))
	}
}

func TestPrimitiveCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	prims := scene.RandomTriangles(rng, 1000, 30, 4)
	prims = append(prims, nanPrim{})
	invalidIndex := uint32(len(prims) - 1)

	for _, params := range allParams() {
		tree := buildTree(t, params, prims)

		seen := make([]bool, len(prims))
		for index := range tree.Nodes() {
			node := &tree.Nodes()[index]
			if !node.IsLeaf() {
				continue
			}

			leafPrims := tree.LeafPrimitives(node)
			require.Containsf(t, leafPrims, invalidIndex, "[node %d] expected primitive with invalid bbox in every leaf", index)
			for _, prim := range leafPrims {
				seen[prim] = true
			}
		}

		for index, found := range seen {
			require.Truef(t, found, "[%s] primitive %d is not referenced by any leaf", params.SplitPlane, index)
		}

		checkHalfSpaces(t, tree, prims, 0, nil)
	}
}

type halfSpace struct {
	axis  types.Axis
	split float64
	left  bool
}

// Walk the tree and check that every leaf primitive overlaps the half-space
// of each of its ancestors.
func checkHalfSpaces(t *testing.T, tree *Tree, prims []accel.Intersectable, nodeIndex uint32, path []halfSpace) {
	node := &tree.Nodes()[nodeIndex]
	if !node.IsLeaf() {
		split := float64(node.Split)
		checkHalfSpaces(t, tree, prims, node.Left, append(path, halfSpace{node.Axis, split, true}))
		checkHalfSpaces(t, tree, prims, node.Right(), append(path, halfSpace{node.Axis, split, false}))
		return
	}

	for _, prim := range tree.LeafPrimitives(node) {
		bbox := prims[prim].BBox()
		if !bbox.IsValid() {
			continue
		}
		for depth, hs := range path {
			if hs.left {
				require.LessOrEqualf(t, bbox.Min[hs.axis], hs.split, "[node %d] primitive %d lies right of the depth %d split", nodeIndex, prim, depth)
			} else {
				require.Greaterf(t, bbox.Max[hs.axis], hs.split, "[node %d] primitive %d lies left of the depth %d split", nodeIndex, prim, depth)
			}
		}
	}
}

func TestMaxDepthLimit(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	prims := scene.RandomBoxes(rng, 2000, 100, 4)
	naive := buildNaive(t, prims)
	rays := scene.RandomRays(rng, 300, naive.BBox())

	for _, maxDepth := range []int{1, 3} {
		for _, params := range allParams() {
			params.MaxDepth = maxDepth
			tree := buildTree(t, params, prims)
			stats := tree.Stats()

			require.LessOrEqual(t, stats.MaxDepth, maxDepth)
			require.LessOrEqual(t, stats.Leaves, 1<<uint(maxDepth))
			if maxDepth == 1 {
				require.Equal(t, 1, stats.MaxDepth)
				require.Equal(t, 1, stats.Internal)
			}
			crossValidate(t, tree, naive, rays)
		}
	}
}

func TestDeterministicBuild(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	prims := scene.RandomBoxes(rng, 2000, 80, 5)

	for _, params := range allParams() {
		tree1 := buildTree(t, params, prims)
		tree2 := buildTree(t, params, prims)

		require.Equal(t, tree1.Nodes(), tree2.Nodes())
		require.Equal(t, tree1.primIndices, tree2.primIndices)
	}
}

func TestSingleTriangle(t *testing.T) {
	v0, v1, v2 := types.Vec3{0, 0, 0}, types.Vec3{2, 0, 1}, types.Vec3{0, 2, 1}
	tri := scene.NewTriangle(v0, v1, v2)
	centroid := v0.Add(v1).Add(v2).Mul(1.0 / 3.0)

	origin := types.Vec3{3, -1, 4}
	dir := centroid.Sub(origin).Normalize()
	ray := types.NewRay(origin, dir)

	// Closed form ray/plane distance
	normal := v1.Sub(v0).Cross(v2.Sub(v0))
	expDist := normal.Dot(v0.Sub(origin)) / normal.Dot(dir)

	for _, params := range allParams() {
		tree := buildTree(t, params, []accel.Intersectable{tri})

		var hit accel.HitInfo
		dist := tree.Intersection(&ray, &hit)
		require.InDelta(t, expDist, dist, 1e-6)
		require.Equal(t, 0, hit.Primitive)
		require.True(t, tree.Intersects(&ray, expDist+1e-3))
	}
}

func TestEmptyGeometry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	rays := scene.RandomRays(rng, 100, types.NewAABB(types.Vec3{-1, -1, -1}, types.Vec3{1, 1, 1}))

	for _, params := range allParams() {
		tree := buildTree(t, params, nil)
		require.True(t, tree.BBox().IsEmpty())
		require.Equal(t, 1, tree.Stats().Leaves)
		require.Equal(t, 1, tree.Stats().EmptyLeaves)

		for index := range rays {
			var hit accel.HitInfo
			require.Equal(t, accel.NoHit, tree.Intersection(&rays[index], &hit))
			require.False(t, tree.Intersects(&rays[index], math.MaxFloat64))
		}
	}
}

func TestStraddlingPrimitive(t *testing.T) {
	prims := []accel.Intersectable{
		scene.NewBox(types.Vec3{-1, -1, -1}, types.Vec3{1, 1, 1}),
		scene.NewBox(types.Vec3{9, 4, 4}, types.Vec3{11, 6, 6}),
		scene.NewBox(types.Vec3{-11, 4, 4}, types.Vec3{-9, 6, 6}),
	}

	params := buildParamsFor(SplitMiddle, AxisRoundRobin)
	params.MinPrimitives = 1
	tree := buildTree(t, params, prims)

	root := tree.Nodes()[0]
	require.False(t, root.IsLeaf())
	require.Equal(t, types.XAxis, root.Axis)
	require.Equal(t, float32(0), root.Split)

	type spec struct {
		origin  types.Vec3
		dir     types.Vec3
		expDist float64
	}
	specs := []spec{
		// Along the split axis from both sides
		{types.Vec3{-5, 0, 0}, types.Vec3{1, 0, 0}, 4},
		{types.Vec3{5, 0, 0}, types.Vec3{-1, 0, 0}, 4},
		// Parallel to the split plane on either side and on the plane
		{types.Vec3{-0.5, -5, 0}, types.Vec3{0, 1, 0}, 4},
		{types.Vec3{0.5, -5, 0}, types.Vec3{0, 1, 0}, 4},
		{types.Vec3{0, -5, 0}, types.Vec3{0, 1, 0}, 4},
		{types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1}, 4},
	}

	for index, s := range specs {
		ray := types.NewRay(s.origin, s.dir)

		var hit accel.HitInfo
		dist := tree.Intersection(&ray, &hit)
		if math.Abs(dist-s.expDist) > 1e-9 {
			t.Fatalf("[spec %d] expected hit distance %f; got %f", index, s.expDist, dist)
		}
		if hit.Primitive != 0 {
			t.Fatalf("[spec %d] expected to hit primitive 0; got %d", index, hit.Primitive)
		}
		if !tree.Intersects(&ray, s.expDist) {
			t.Fatalf("[spec %d] expected occlusion query to hit", index)
		}
	}
}

func TestSahScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large scene test in short mode")
	}

	rng := rand.New(rand.NewSource(2024))
	prims := scene.RandomBoxes(rng, 10000, 200, 4)
	naive := buildNaive(t, prims)
	rays := scene.RandomRays(rng, 1000, naive.BBox())

	tree := buildTree(t, buildParamsFor(SplitSAH, AxisRoundRobin), prims)
	crossValidate(t, tree, naive, rays)
}

func TestLifecycle(t *testing.T) {
	tree := NewDefault()
	require.ErrorIs(t, tree.Init(), accel.ErrGeometryNotSet)

	ray := types.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	require.PanicsWithValue(t, accel.ErrNotInitialized, func() {
		tree.Intersection(&ray, &accel.HitInfo{})
	})
	require.PanicsWithValue(t, accel.ErrNotInitialized, func() {
		tree.Intersects(&ray, 10)
	})

	prims := []accel.Intersectable{scene.NewSphere(types.Vec3{}, 1)}
	tree.SetGeometry(prims)
	require.PanicsWithValue(t, accel.ErrAlreadyBound, func() {
		tree.SetGeometry(prims)
	})

	require.NoError(t, tree.Init())
	nodes := tree.Nodes()
	require.NoError(t, tree.Init())
	require.Same(t, &nodes[0], &tree.Nodes()[0], "expected Init to be a no-op for initialized trees")

	var hit accel.HitInfo
	require.InDelta(t, 4.0, tree.Intersection(&ray, &hit), 1e-9)

	tree.Reset()
	require.Nil(t, tree.Geometry())
	require.True(t, tree.BBox().IsEmpty())
	require.Panics(t, func() { tree.Intersection(&ray, &hit) })

	tree.SetGeometry(prims)
	require.NoError(t, tree.Init())
}

func TestInvalidParamsRejectedByInit(t *testing.T) {
	params := DefaultBuildParams()
	params.MaxDepth = MaxTreeDepth + 1

	tree := New(params)
	tree.SetGeometry(nil)
	require.ErrorIs(t, tree.Init(), ErrInvalidParams)
}

func TestInvalidAxisPanics(t *testing.T) {
	tree := &Tree{
		bbox: types.NewAABB(types.Vec3{-1, -1, -1}, types.Vec3{1, 1, 1}),
		nodes: []Node{
			{Kind: InternalNode, Axis: types.NumAxes + 2, Left: 1},
			{Kind: LeafNode},
			{Kind: LeafNode},
		},
	}

	ray := types.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	require.PanicsWithValue(t, ErrInvalidAxis, func() {
		tree.Intersection(&ray, &accel.HitInfo{})
	})
}

func TestTraceCallback(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	prims := scene.RandomBoxes(rng, 500, 40, 3)
	tree := buildTree(t, DefaultBuildParams(), prims)
	rays := scene.RandomRays(rng, 100, tree.BBox())

	for index := range rays {
		var visited []uint32
		trace := func(nodeIndex uint32, tMin, tMax float64) {
			visited = append(visited, nodeIndex)
			require.LessOrEqualf(t, tMin, tMax+2*traversalEpsilon, "[ray %d] inverted segment at node %d", index, nodeIndex)
		}

		var hit accel.HitInfo
		tree.IntersectionTraced(&rays[index], &hit, trace)
		if _, _, ok := tree.BBox().IntersectRay(&rays[index]); !ok {
			require.Empty(t, visited)
			continue
		}
		require.NotEmpty(t, visited)
		require.Equal(t, uint32(0), visited[0], "traversal must start at the root")

		visited = visited[:0]
		occluded := tree.IntersectsTraced(&rays[index], math.MaxFloat64, trace)
		require.Equal(t, tree.Intersects(&rays[index], math.MaxFloat64), occluded)
		require.NotEmpty(t, visited)
		require.Equal(t, uint32(0), visited[0], "traversal must start at the root")
		for _, nodeIndex := range visited {
			require.Less(t, int(nodeIndex), len(tree.Nodes()))
		}
	}
}

func TestPreview(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	prims := scene.RandomBoxes(rng, 300, 40, 3)
	tree := buildTree(t, buildParamsFor(SplitMedian, AxisLongestExtent), prims)

	var rec accel.PreviewRecorder
	tree.Preview(&rec)

	require.NotEmpty(t, rec.Elements)
	require.False(t, rec.Elements[0].IsPlane)
	require.Equal(t, tree.BBox(), rec.Elements[0].Bounds)

	planes := rec.Planes()
	require.Len(t, planes, tree.Stats().Internal)
	for _, plane := range planes {
		require.GreaterOrEqual(t, plane.Pos, plane.Bounds.Min[plane.Axis])
		require.LessOrEqual(t, plane.Pos, plane.Bounds.Max[plane.Axis])
	}
}
