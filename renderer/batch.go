package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/tracer"
	"github.com/achilleasa/kdtrace/types"
	"github.com/google/uuid"
)

// A renderer that splits ray batches across a pool of tracers sharing a
// single accelerator.
type Batch struct {
	logger log.Logger

	accel     accel.SpatialAccel
	scheduler tracer.BlockScheduler
	tracers   []tracer.Tracer
	opts      Options

	stats BatchStats
}

// Create a batch renderer backed by opts.NumTracers cpu tracers. The
// accelerator must be initialized.
func NewBatch(sa accel.SpatialAccel, opts Options) (*Batch, error) {
	if sa == nil {
		return nil, ErrAccelNotDefined
	}
	if opts.NumTracers <= 0 {
		return nil, ErrNoTracers
	}

	tracers := make([]tracer.Tracer, opts.NumTracers)
	for index := range tracers {
		tracers[index] = tracer.NewCPUTracer(fmt.Sprintf("cpu-%02d", index))
	}

	return newBatch(sa, tracers, opts)
}

func newBatch(sa accel.SpatialAccel, tracers []tracer.Tracer, opts Options) (*Batch, error) {
	if opts.Scheduler == nil {
		opts.Scheduler = tracer.PerfectScheduler()
	}

	r := &Batch{
		logger:    log.New("batch renderer"),
		accel:     sa,
		scheduler: opts.Scheduler,
		opts:      opts,
	}

	for _, tr := range tracers {
		if err := tr.Setup(sa); err != nil {
			r.logger.Warningf("skipping tracer %s due to setup error: %s", tr.Id(), err.Error())
			tr.Close()
			continue
		}
		r.tracers = append(r.tracers, tr)
	}

	if len(r.tracers) == 0 {
		return nil, ErrNoTracers
	}

	r.logger.Debugf("attached %d tracers", len(r.tracers))
	return r, nil
}

// Trace a batch of rays. Results are written to the slot with the same
// index as the ray. If ctx is cancelled Trace returns ErrInterrupted while
// tracers may still be writing to results.
func (r *Batch) Trace(ctx context.Context, rays []types.Ray, results []tracer.Result) error {
	if len(rays) != len(results) {
		return fmt.Errorf("%w: %d rays, %d results", ErrResultMismatch, len(rays), len(results))
	}

	jobID := uuid.New().String()
	start := time.Now()

	// Channels are buffered so tracers never block on an interrupted batch.
	doneChan := make(chan uint32, len(r.tracers))
	errChan := make(chan error, len(r.tracers))

	blockAssignment := r.scheduler.Schedule(r.tracers, uint32(len(rays)))
	var offset uint32
	pending := 0
	for index, tr := range r.tracers {
		blockRays := blockAssignment[index]
		if blockRays == 0 {
			continue
		}

		tr.Enqueue(tracer.BlockRequest{
			Rays:        rays[offset : offset+blockRays],
			Results:     results[offset : offset+blockRays],
			Occlusion:   r.opts.Occlusion,
			MaxDistance: r.opts.MaxDistance,
			DoneChan:    doneChan,
			ErrChan:     errChan,
		})
		offset += blockRays
		pending++
	}

	for ; pending > 0; pending-- {
		select {
		case <-doneChan:
		case err := <-errChan:
			return fmt.Errorf("batch %s: %w", jobID, err)
		case <-ctx.Done():
			return fmt.Errorf("batch %s: %w", jobID, ErrInterrupted)
		}
	}

	r.collectStats(jobID, blockAssignment, len(rays), time.Since(start))
	r.logger.Debugf("batch %s: traced %d rays in %d ms", jobID, len(rays), r.stats.RenderTime.Nanoseconds()/1e6)
	return nil
}

func (r *Batch) collectStats(jobID string, blockAssignment []uint32, numRays int, elapsed time.Duration) {
	r.stats = BatchStats{
		JobID:      jobID,
		Tracers:    make([]TracerStat, len(r.tracers)),
		Rays:       numRays,
		RenderTime: elapsed,
	}

	for index, tr := range r.tracers {
		stat := TracerStat{
			Id:        tr.Id(),
			BlockRays: blockAssignment[index],
		}
		if numRays > 0 {
			stat.BatchPercent = 100.0 * float32(blockAssignment[index]) / float32(numRays)
		}
		if stat.BlockRays > 0 {
			stat.RenderTime = tr.Stats().RenderTime
		}
		r.stats.Tracers[index] = stat
	}
}

// Get statistics for the last traced batch.
func (r *Batch) Stats() BatchStats {
	return r.stats
}

// Shutdown all tracers.
func (r *Batch) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}
