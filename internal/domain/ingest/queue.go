package ingest

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Queue is a bounded worker pool in front of the pipeline. The webhook
// receiver enqueues without blocking; when the buffer is full the unit is
// dropped and logged, trading completeness for a fast acknowledgement. The
// provider redelivers dropped messages on its own schedule.
type Queue struct {
	jobs     chan Inbound
	pipeline *Pipeline
	workers  int
	log      zerolog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

func NewQueue(pipeline *Pipeline, workers, size int, log zerolog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	return &Queue{
		jobs:     make(chan Inbound, size),
		pipeline: pipeline,
		workers:  workers,
		log:      log,
	}
}

// Start launches the workers. They run until Stop is called.
func (q *Queue) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.log.Info().Int("workers", q.workers).Int("capacity", cap(q.jobs)).Msg("ingest queue started")
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-q.jobs:
			if !ok {
				return
			}
			outcome := q.pipeline.Process(ctx, in)
			q.log.Debug().Str("wamid", in.Wamid).Str("outcome", string(outcome)).
				Int("queue_depth", len(q.jobs)).Msg("pipeline run finished")
		}
	}
}

// Enqueue hands a unit to the workers without blocking. It reports whether
// the unit was accepted.
func (q *Queue) Enqueue(in Inbound) bool {
	select {
	case q.jobs <- in:
		return true
	default:
		q.log.Warn().Str("wamid", in.Wamid).Int("queue_depth", len(q.jobs)).
			Msg("ingest queue saturated, dropping message")
		return false
	}
}

// Stop closes the queue, waits for the workers to drain it, then releases
// their context.
func (q *Queue) Stop() {
	q.once.Do(func() {
		close(q.jobs)
		q.wg.Wait()
		if q.cancel != nil {
			q.cancel()
		}
	})
}
