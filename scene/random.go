package scene

import (
	"math/rand"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/types"
)

// Generate count boxes with random placement inside a cube with the given
// extent centered at the origin. Box sides are uniformly distributed in
// (0, maxSize].
func RandomBoxes(rng *rand.Rand, count int, extent, maxSize float64) []accel.Intersectable {
	prims := make([]accel.Intersectable, count)
	for index := range prims {
		corner := randomPoint(rng, extent)
		size := types.Vec3{
			maxSize * (1 - rng.Float64()),
			maxSize * (1 - rng.Float64()),
			maxSize * (1 - rng.Float64()),
		}
		prims[index] = NewBox(corner, corner.Add(size))
	}
	return prims
}

// Generate count triangles with random placement inside a cube with the
// given extent centered at the origin. Each vertex lies within maxSize of
// the first one.
func RandomTriangles(rng *rand.Rand, count int, extent, maxSize float64) []accel.Intersectable {
	prims := make([]accel.Intersectable, count)
	for index := range prims {
		v0 := randomPoint(rng, extent)
		v1 := v0.Add(randomPoint(rng, maxSize))
		v2 := v0.Add(randomPoint(rng, maxSize))
		prims[index] = NewTriangle(v0, v1, v2)
	}
	return prims
}

// Generate count rays whose origins lie on a sphere enclosing bounds and
// which point towards random targets inside bounds. A fraction of the rays
// miss the box entirely.
func RandomRays(rng *rand.Rand, count int, bounds types.AABB) []types.Ray {
	center := bounds.Center()
	radius := bounds.Max.Sub(center).Len()
	if radius == 0 {
		radius = 1
	}

	size := bounds.Max.Sub(bounds.Min)
	rays := make([]types.Ray, count)
	for index := range rays {
		origin := center.Add(randomUnitVector(rng).Mul(2 * radius))

		// Aim at a point in a box 20% larger than bounds
		target := types.Vec3{
			bounds.Min[0] + size[0]*(1.2*rng.Float64()-0.1),
			bounds.Min[1] + size[1]*(1.2*rng.Float64()-0.1),
			bounds.Min[2] + size[2]*(1.2*rng.Float64()-0.1),
		}
		rays[index] = types.NewRay(origin, target.Sub(origin).Normalize())
	}
	return rays
}

func randomPoint(rng *rand.Rand, extent float64) types.Vec3 {
	return types.Vec3{
		extent * (rng.Float64() - 0.5),
		extent * (rng.Float64() - 0.5),
		extent * (rng.Float64() - 0.5),
	}
}

func randomUnitVector(rng *rand.Rand) types.Vec3 {
	for {
		v := types.Vec3{2*rng.Float64() - 1, 2*rng.Float64() - 1, 2*rng.Float64() - 1}
		if l := v.Len(); l > 1e-3 && l <= 1 {
			return v.Mul(1 / l)
		}
	}
}
