package tracer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/accel/kdtree"
	"github.com/achilleasa/kdtrace/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tracedRays = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kdtrace_tracer_rays_total",
	Help: "The number of rays traced by CPU tracers.",
}, []string{"tracer", "query"})

type cpuTracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// The accelerator used for answering queries.
	accel accel.SpatialAccel

	// A channel for receiving block requests from the renderer.
	blockReqChan chan BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last processed block.
	stats *Stats

	closestCounter   prometheus.Counter
	occlusionCounter prometheus.Counter
}

// Create a new tracer that processes blocks on a dedicated go-routine.
func NewCPUTracer(id string) Tracer {
	return &cpuTracer{
		logger:           log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:               id,
		blockReqChan:     make(chan BlockRequest, 1),
		stats:            &Stats{},
		closestCounter:   tracedRays.WithLabelValues(id, "closest"),
		occlusionCounter: tracedRays.WithLabelValues(id, "occlusion"),
	}
}

// Get tracer id.
func (tr *cpuTracer) Id() string {
	return tr.id
}

// All cpu tracers run on a single core.
func (tr *cpuTracer) SpeedEstimate() float32 {
	return 1.0
}

// Attach accelerator and start the worker.
func (tr *cpuTracer) Setup(sa accel.SpatialAccel) error {
	if sa == nil {
		return ErrAccelNotDefined
	}

	tr.Lock()
	defer tr.Unlock()

	// The worker captures the accelerator so it needs to be restarted
	tr.stopWorker()
	tr.accel = sa
	tr.startWorker()
	return nil
}

// Shutdown the worker.
func (tr *cpuTracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	tr.stopWorker()
	tr.accel = nil
}

// Stop the worker if it is running. This method is meant to be called while
// holding tr.Lock()
func (tr *cpuTracer) stopWorker() {
	if tr.closeChan == nil {
		return
	}

	tr.closeChan <- struct{}{}

	// wait for worker to ack close and shutdown channel
	<-tr.closeChan
	close(tr.closeChan)
	tr.closeChan = nil
	tr.wg.Wait()
}

// Enqueue block request.
func (tr *cpuTracer) Enqueue(blockReq BlockRequest) {
	select {
	case tr.blockReqChan <- blockReq:
	default:
		// drop the request if worker is not listening
		tr.logger.Error("request processor did not receive block request")
		blockReq.ErrChan <- fmt.Errorf("%s: %w", tr.id, ErrTracerBusy)
	}
}

// Retrieve last block statistics.
func (tr *cpuTracer) Stats() *Stats {
	return tr.stats
}

// Spawn a go-routine to process block requests.
func (tr *cpuTracer) startWorker() {
	tr.closeChan = make(chan struct{})
	closeChan := tr.closeChan
	sa := tr.accel

	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		close(readyChan)
		for {
			select {
			case blockReq := <-tr.blockReqChan:
				startTime := time.Now()
				err := tr.traceBlock(sa, &blockReq)
				if err != nil {
					blockReq.ErrChan <- err
					continue
				}

				// Update stats
				tr.stats.BlockRays = uint32(len(blockReq.Rays))
				tr.stats.RenderTime = time.Since(startTime)

				blockReq.DoneChan <- uint32(len(blockReq.Rays))
			case <-closeChan:
				// Ack close
				closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

// Trace all rays in a block. Primitive panics are reported as errors while
// accelerator contract violations are re-raised.
func (tr *cpuTracer) traceBlock(sa accel.SpatialAccel, blockReq *BlockRequest) (err error) {
	if len(blockReq.Rays) != len(blockReq.Results) {
		return fmt.Errorf("%s: %w (%d rays, %d results)", tr.id, ErrBlockMismatch, len(blockReq.Rays), len(blockReq.Results))
	}

	defer func() {
		if r := recover(); r != nil {
			if isContractViolation(r) {
				panic(r)
			}
			err = fmt.Errorf("%s: query failed: %v", tr.id, r)
		}
	}()

	if blockReq.Occlusion {
		maxDist := blockReq.MaxDistance
		if maxDist <= 0 {
			maxDist = accel.NoHit
		}
		for index := range blockReq.Rays {
			blockReq.Results[index] = Result{
				Dist:     accel.NoHit,
				Occluded: sa.Intersects(&blockReq.Rays[index], maxDist),
			}
		}
		tr.occlusionCounter.Add(float64(len(blockReq.Rays)))
		return nil
	}

	for index := range blockReq.Rays {
		res := &blockReq.Results[index]
		res.Hit = accel.HitInfo{}
		res.Occluded = false
		res.Dist = sa.Intersection(&blockReq.Rays[index], &res.Hit)
	}
	tr.closestCounter.Add(float64(len(blockReq.Rays)))
	return nil
}

// Returns true if a recovered panic value is one of the accelerator misuse
// errors.
func isContractViolation(r interface{}) bool {
	err, ok := r.(error)
	if !ok {
		return false
	}

	for _, fatal := range []error{
		accel.ErrNotInitialized,
		accel.ErrAlreadyBound,
		kdtree.ErrStackOverflow,
		kdtree.ErrInvalidAxis,
	} {
		if errors.Is(err, fatal) {
			return true
		}
	}
	return false
}
