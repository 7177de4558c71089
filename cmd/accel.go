package cmd

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/accel/kdtree"
	"github.com/achilleasa/kdtrace/asset/reader"
	"github.com/achilleasa/kdtrace/scene"
	"github.com/urfave/cli"
)

// Flags shared by all commands that build an accelerator.
var AccelFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "accel",
		Value: "kdtree",
		Usage: "accelerator type: naive or kdtree",
	},
	cli.StringFlag{
		Name:  "params",
		Usage: "load kd-tree build parameters from a JSON file",
	},
	cli.StringFlag{
		Name:  "split-plane",
		Usage: "kd-tree split plane method: middle, median or sah",
	},
	cli.StringFlag{
		Name:  "split-axis",
		Usage: "kd-tree split axis method: roundRobin or longestExtent",
	},
	cli.IntFlag{
		Name:  "min-prims",
		Usage: "create kd-tree leaves for nodes with fewer primitives",
	},
	cli.IntFlag{
		Name:  "max-depth",
		Usage: "max kd-tree depth",
	},
	cli.IntFlag{
		Name:  "random",
		Value: 10000,
		Usage: "number of random boxes to generate when no mesh file is specified",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "seed for the random geometry and ray generators",
	},
}

// Assemble kd-tree build parameters from the params file and any flag overrides.
func buildParams(ctx *cli.Context) (kdtree.BuildParams, error) {
	params := kdtree.DefaultBuildParams()

	if paramFile := ctx.String("params"); paramFile != "" {
		data, err := os.ReadFile(paramFile)
		if err != nil {
			return params, err
		}
		if params, err = kdtree.ParseBuildParams(data); err != nil {
			return params, fmt.Errorf("%s: %w", paramFile, err)
		}
	}

	var err error
	if name := ctx.String("split-plane"); name != "" {
		if params.SplitPlane, err = kdtree.ParseSplitPlaneMethod(name); err != nil {
			return params, err
		}
	}
	if name := ctx.String("split-axis"); name != "" {
		if params.SplitAxis, err = kdtree.ParseSplitAxisMethod(name); err != nil {
			return params, err
		}
	}
	if ctx.IsSet("min-prims") {
		params.MinPrimitives = ctx.Int("min-prims")
	}
	if ctx.IsSet("max-depth") {
		params.MaxDepth = ctx.Int("max-depth")
	}

	return params, params.Validate()
}

// Get a factory for the accelerator selected by the command flags.
func accelFactory(ctx *cli.Context) (scene.AccelFactory, error) {
	switch ctx.String("accel") {
	case "naive":
		return func() accel.SpatialAccel { return accel.NewNaive() }, nil
	case "kdtree":
		params, err := buildParams(ctx)
		if err != nil {
			return nil, err
		}
		logger.Infof("kd-tree build params: %+v", params)
		return func() accel.SpatialAccel { return kdtree.New(params) }, nil
	}
	return nil, fmt.Errorf("unsupported accelerator type %q", ctx.String("accel"))
}

// Load the meshes specified as a command argument. Returns a nil mesh list
// if no argument was specified.
func loadMeshes(ctx *cli.Context) ([]*scene.Mesh, error) {
	if ctx.NArg() == 0 {
		return nil, nil
	}
	if ctx.NArg() > 1 {
		return nil, errors.New("expected a single mesh file argument")
	}
	return reader.ReadMeshes(ctx.Args().First())
}

// Load the primitives for the command. Mesh triangles are flattened into a
// single list; without a mesh argument random boxes are generated.
func loadGeometry(ctx *cli.Context, rng *rand.Rand) ([]accel.Intersectable, error) {
	meshes, err := loadMeshes(ctx)
	if err != nil {
		return nil, err
	}

	if meshes == nil {
		count := ctx.Int("random")
		logger.Noticef("generating %d random boxes", count)
		return scene.RandomBoxes(rng, count, 100, 2), nil
	}

	var prims []accel.Intersectable
	for _, mesh := range meshes {
		for _, tri := range mesh.Triangles {
			prims = append(prims, tri)
		}
	}
	return prims, nil
}

// Load geometry and build the selected accelerator.
func setupAccel(ctx *cli.Context, rng *rand.Rand) (accel.SpatialAccel, error) {
	newAccel, err := accelFactory(ctx)
	if err != nil {
		return nil, err
	}

	prims, err := loadGeometry(ctx, rng)
	if err != nil {
		return nil, err
	}

	sa := newAccel()
	sa.SetGeometry(prims)
	if err = sa.Init(); err != nil {
		return nil, err
	}
	return sa, nil
}
