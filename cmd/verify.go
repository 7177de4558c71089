package cmd

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/scene"
	"github.com/urfave/cli"
)

// Distance tolerance when comparing accelerator results.
const verifyTolerance = 1e-4

// Compare the results of the selected accelerator against the naive
// accelerator for a set of random rays.
func Verify(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		logger.Error(err)
		return err
	}

	rng := rand.New(rand.NewSource(ctx.Int64("seed")))
	sa, err := setupAccel(ctx, rng)
	if err != nil {
		logger.Error(err)
		return err
	}

	naive := accel.NewNaive()
	naive.SetGeometry(sa.Geometry())
	if err = naive.Init(); err != nil {
		logger.Error(err)
		return err
	}

	rays := scene.RandomRays(rng, ctx.Int("rays"), sa.BBox())
	mismatches, hits := 0, 0
	for index := range rays {
		var expHit, hit accel.HitInfo
		expDist := naive.Intersection(&rays[index], &expHit)
		dist := sa.Intersection(&rays[index], &hit)
		if expDist != accel.NoHit {
			hits++
		}

		if !sameDistance(expDist, dist) {
			mismatches++
			logger.Warningf("[ray %d] expected hit with prim %d at %g; got prim %d at %g", index, expHit.Primitive, expDist, hit.Primitive, dist)
			continue
		}

		if expDist != accel.NoHit {
			occluded := sa.Intersects(&rays[index], expDist+verifyTolerance)
			if !occluded {
				mismatches++
				logger.Warningf("[ray %d] expected ray to be occluded within %g", index, expDist+verifyTolerance)
			}
		}
	}

	logger.Noticef("verified %d rays (%d hits); mismatches: %d", len(rays), hits, mismatches)
	if mismatches != 0 {
		return fmt.Errorf("%d of %d rays did not match the naive accelerator", mismatches, len(rays))
	}
	return nil
}

func sameDistance(exp, got float64) bool {
	if exp == accel.NoHit || got == accel.NoHit {
		return exp == got
	}
	return math.Abs(exp-got) <= verifyTolerance
}
