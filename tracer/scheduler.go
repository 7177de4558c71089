package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split a ray batch into blocks of variable size and assign them to
	// the pool of tracers.
	//
	// This function returns the block size assignment for each tracer
	// in the input list. Assignments add up to numRays; a tracer may be
	// assigned an empty block when there are fewer rays than tracers.
	Schedule(tracers []Tracer, numRays uint32) []uint32
}

// The naive scheduler splits batches according to the tracer speed estimates.
type naiveScheduler struct{}

// Create a new naive scheduler instance.
func NaiveScheduler() BlockScheduler {
	return &naiveScheduler{}
}

func (sch *naiveScheduler) Schedule(tracers []Tracer, numRays uint32) []uint32 {
	return scheduleBySpeed(tracers, numRays, make([]uint32, len(tracers)))
}

// The perfect scheduler assumes that the tracing cost per ray between two
// subsequent batches is approximately the same.
type perfectScheduler struct {
	blockAssignment []uint32
}

// Create a new perfect scheduler instance.
func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split batch into blocks of variable size and assign to the pool
// of tracers using feedback collected from previous batches.
//
// When previous batch information is available the scheduler uses the
// following formula for estimating the workload for tracer w and batch i+1:
// w_i, b_i+1 = (blockRays,w_i / time,w_i) / Σ(blockRays_i / time,i)
func (sch *perfectScheduler) Schedule(tracers []Tracer, numRays uint32) []uint32 {
	// If this is the first time we try to schedule or the number of tracers
	// has changed we need to reset the block assignments
	if len(sch.blockAssignment) != len(tracers) || !haveThroughput(tracers) {
		sch.blockAssignment = scheduleBySpeed(tracers, numRays, make([]uint32, len(tracers)))
		return sch.blockAssignment
	}

	// Use last batch statistics
	var total float64
	for _, tr := range tracers {
		total += throughput(tr.Stats())
	}

	scaler := float64(numRays) / total
	for idx, tr := range tracers {
		sch.blockAssignment[idx] = uint32(math.Max(1.0, math.Floor(throughput(tr.Stats())*scaler)))
	}

	return balance(sch.blockAssignment, numRays)
}

// Distribute rays according to the tracer speed estimates.
func scheduleBySpeed(tracers []Tracer, numRays uint32, blockAssignment []uint32) []uint32 {
	var total float64
	for _, tr := range tracers {
		total += float64(tr.SpeedEstimate())
	}
	scaler := float64(numRays) / total

	for idx, tr := range tracers {
		blockAssignment[idx] = uint32(math.Max(1.0, math.Floor(float64(tr.SpeedEstimate())*scaler)))
	}

	return balance(blockAssignment, numRays)
}

// Make assignments add up to numRays. Missing rays are appended to the first
// tracer; surplus rays are removed starting from the last tracer.
func balance(blockAssignment []uint32, numRays uint32) []uint32 {
	if len(blockAssignment) == 0 {
		return blockAssignment
	}

	var scheduled uint32
	for _, rays := range blockAssignment {
		scheduled += rays
	}

	for idx := len(blockAssignment) - 1; scheduled > numRays && idx >= 0; idx-- {
		surplus := scheduled - numRays
		if surplus > blockAssignment[idx] {
			surplus = blockAssignment[idx]
		}
		blockAssignment[idx] -= surplus
		scheduled -= surplus
	}

	// In case rays don't add up to the batch size append the missing ones to the first tracer
	blockAssignment[0] += numRays - scheduled
	return blockAssignment
}

func haveThroughput(tracers []Tracer) bool {
	for _, tr := range tracers {
		if throughput(tr.Stats()) <= 0 {
			return false
		}
	}
	return true
}

// Get rays per nanosecond for the last processed block.
func throughput(stats *Stats) float64 {
	if stats.RenderTime <= 0 {
		return 0
	}
	return float64(stats.BlockRays) / float64(stats.RenderTime)
}
