package tracer

import (
	"time"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/types"
)

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// The rays to trace and the slots for their results. Both slices must
	// have the same length.
	Rays    []types.Ray
	Results []Result

	// Run occlusion queries limited to MaxDistance instead of closest hit
	// queries.
	Occlusion   bool
	MaxDistance float64

	// A channel to signal on block completion with the number of traced rays.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// The result of tracing a single ray.
type Result struct {
	// Hit distance or accel.NoHit. Not populated by occlusion queries.
	Dist float64
	Hit  accel.HitInfo

	// Set by occlusion queries.
	Occluded bool
}

// Tracer statistics.
type Stats struct {
	// The number of rays in the last processed block.
	BlockRays uint32

	// The time for processing the last block.
	RenderTime time.Duration
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Shutdown and cleanup tracer.
	Close()

	// Get the tracers computation speed estimate compared to a
	// baseline (single cpu core) implementation.
	SpeedEstimate() float32

	// Attach the accelerator used for answering queries and start the tracer.
	Setup(sa accel.SpatialAccel) error

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Retrieve last block statistics.
	Stats() *Stats
}
