package cmd

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"

	"github.com/achilleasa/kdtrace/renderer"
	"github.com/achilleasa/kdtrace/scene"
	"github.com/achilleasa/kdtrace/tracer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Trace batches of random rays against an accelerator using a pool of tracers.
func Bench(ctx *cli.Context) error {
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

	r, err := renderer.NewBatch(sa, renderer.Options{
		NumTracers:  ctx.Int("tracers"),
		Occlusion:   ctx.Bool("occlusion"),
		MaxDistance: ctx.Float64("max-dist"),
	})
	if err != nil {
		logger.Error(err)
		return err
	}
	defer r.Close()

	traceCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rays := scene.RandomRays(rng, ctx.Int("rays"), sa.BBox())
	results := make([]tracer.Result, len(rays))
	for batch := 0; batch < ctx.Int("batches"); batch++ {
		if err = r.Trace(traceCtx, rays, results); err != nil {
			logger.Error(err)
			return err
		}
		displayBatchStats(r.Stats())
	}

	return nil
}

func displayBatchStats(stats renderer.BatchStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Block rays", "% of batch", "Trace time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.BlockRays),
			fmt.Sprintf("%02.1f %%", stat.BatchPercent),
			stat.RenderTime.String(),
		})
	}
	table.SetFooter([]string{"", "", fmt.Sprintf("%.0f rays/s", stats.RaysPerSecond()), stats.RenderTime.String()})

	table.Render()
	logger.Noticef("batch %s statistics\n%s", stats.JobID, buf.String())
}
