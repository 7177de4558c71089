package cmd

import (
	"bytes"
	"fmt"
	"math/rand"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display the split planes of the selected accelerator.
func Preview(ctx *cli.Context) error {
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

	if ctx.Bool("log") {
		sa.Preview(accel.LogPreviewSink{Logger: logger})
		return nil
	}

	var rec accel.PreviewRecorder
	sa.Preview(&rec)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Depth", "Element", "Position", "Bounds"})

	maxDepth := ctx.Int("depth")
	for _, el := range rec.Elements {
		if el.Depth > maxDepth {
			continue
		}
		if !el.IsPlane {
			table.Append([]string{fmt.Sprintf("%d", el.Depth), "bbox", "-", el.Bounds.String()})
			continue
		}
		table.Append([]string{fmt.Sprintf("%d", el.Depth), el.Axis.String() + " plane", fmt.Sprintf("%g", el.Pos), el.Bounds.String()})
	}
	table.SetFooter([]string{"", "", "PLANES", fmt.Sprintf("%d", len(rec.Planes()))})

	table.Render()
	logger.Noticef("accelerator preview\n%s", buf.String())
	return nil
}
