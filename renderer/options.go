package renderer

import "github.com/achilleasa/kdtrace/tracer"

type Options struct {
	// Number of cpu tracers to spawn.
	NumTracers int

	// The block scheduler to use. Defaults to tracer.PerfectScheduler().
	Scheduler tracer.BlockScheduler

	// Run occlusion queries limited to MaxDistance instead of closest
	// hit queries. A MaxDistance <= 0 disables the limit.
	Occlusion   bool
	MaxDistance float64
}
