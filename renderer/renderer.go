package renderer

import (
	"context"

	"github.com/achilleasa/kdtrace/tracer"
	"github.com/achilleasa/kdtrace/types"
)

type Renderer interface {
	// Trace a batch of rays writing one result per ray.
	Trace(ctx context.Context, rays []types.Ray, results []tracer.Result) error

	// Shutdown renderer and any attached tracer.
	Close()

	// Get statistics for the last traced batch.
	Stats() BatchStats
}
