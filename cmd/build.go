package cmd

import (
	"bytes"
	"fmt"
	"math/rand"
	"time"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/accel/kdtree"
	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Build an accelerator and display its statistics. When a mesh file is
// specified each mesh gets its own accelerator and a top-level accelerator
// indexes the meshes.
func Build(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		logger.Error(err)
		return err
	}

	rng := rand.New(rand.NewSource(ctx.Int64("seed")))
	meshes, err := loadMeshes(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}

	if meshes == nil {
		start := time.Now()
		sa, err := setupAccel(ctx, rng)
		if err != nil {
			logger.Error(err)
			return err
		}
		displayAccelStats([]string{"random"}, []accel.SpatialAccel{sa}, time.Since(start))
		displayBuildParams([]string{"random"}, []accel.SpatialAccel{sa})
		return nil
	}

	newAccel, err := accelFactory(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}

	start := time.Now()
	sc := scene.New(meshes...)
	if err = sc.Init(newAccel); err != nil {
		logger.Error(err)
		return err
	}

	names := []string{"<scene>"}
	accels := []accel.SpatialAccel{sc.Accel()}
	for _, mesh := range sc.Meshes {
		names = append(names, mesh.Name)
		accels = append(accels, mesh.Accel())
	}
	displayAccelStats(names, accels, time.Since(start))
	displayBuildParams(names, accels)
	return nil
}

func displayAccelStats(names []string, accels []accel.SpatialAccel, total time.Duration) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Accel", "Primitives", "Nodes", "Leaves", "Empty leaves", "Max depth", "Refs/leaf", "Build time"})

	for index, sa := range accels {
		row := []string{names[index], fmt.Sprintf("%d", len(sa.Geometry())), "-", "-", "-", "-", "-", "-"}
		if tree, isTree := sa.(*kdtree.Tree); isTree {
			stats := tree.Stats()
			row = []string{
				names[index],
				fmt.Sprintf("%d", stats.Primitives),
				fmt.Sprintf("%d", stats.Nodes),
				fmt.Sprintf("%d", stats.Leaves),
				fmt.Sprintf("%d", stats.EmptyLeaves),
				fmt.Sprintf("%d", stats.MaxDepth),
				fmt.Sprintf("%.2f", stats.AvgLeafPrimitives()),
				stats.BuildTime.String(),
			}
		}
		table.Append(row)
	}
	table.SetFooter([]string{"", "", "", "", "", "", "TOTAL", total.String()})

	table.Render()
	logger.Noticef("accelerator statistics\n%s", buf.String())
}

// Display the parameters each kd-tree was built with. Skipped unless info
// logging is enabled.
func displayBuildParams(names []string, accels []accel.SpatialAccel) {
	if !log.Enabled("kdtrace", log.Info) {
		return
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Accel", "Split plane", "Split axis", "Min prims", "Max depth", "Traversal cost", "Empty bias"})

	var rows int
	for index, sa := range accels {
		tree, isTree := sa.(*kdtree.Tree)
		if !isTree {
			continue
		}
		params := tree.Params()
		table.Append([]string{
			names[index],
			params.SplitPlane.String(),
			params.SplitAxis.String(),
			fmt.Sprintf("%d", params.MinPrimitives),
			fmt.Sprintf("%d", params.MaxDepth),
			fmt.Sprintf("%g", params.TraversalCost),
			fmt.Sprintf("%g", params.EmptyBias),
		})
		rows++
	}
	if rows == 0 {
		return
	}

	table.Render()
	logger.Infof("build parameters\n%s", buf.String())
}
