package renderer

import "time"

type TracerStat struct {
	// The tracer id.
	Id string

	// The number of rays assigned to the tracer and the percentage of the
	// batch they represent.
	BlockRays    uint32
	BatchPercent float32

	// Trace time for assigned block
	RenderTime time.Duration
}

type BatchStats struct {
	// The id of the last traced batch.
	JobID string

	// Individual tracer stats.
	Tracers []TracerStat

	// Number of rays in the batch.
	Rays int

	// Total trace time for entire batch.
	RenderTime time.Duration
}

// Get the batch throughput in rays per second.
func (s BatchStats) RaysPerSecond() float64 {
	if s.RenderTime <= 0 {
		return 0
	}
	return float64(s.Rays) / s.RenderTime.Seconds()
}
