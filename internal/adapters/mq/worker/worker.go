// Package worker runs plan re-analysis requests taken off the queue.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/swingiq/internal/adapters/mq/queue"
	"github.com/okian/swingiq/internal/domain/model"
	"github.com/okian/swingiq/internal/domain/plan"
	"github.com/okian/swingiq/pkg/logger"
	"github.com/okian/swingiq/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	defaultDelay        = 800 * time.Millisecond
	poolShutdownTimeout = 30 * time.Second

	// TriggerReanalysis labels plans produced by a worker.
	TriggerReanalysis = "reanalysis"
)

// Queue defines how workers receive requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.AnalysisRequest
	Done(playerID string)
}

// Players resolves the metrics a plan is generated from.
type Players interface {
	Player(ctx context.Context, id string) (model.Player, error)
}

// Updater stores a regenerated plan.
type Updater interface {
	Replace(ctx context.Context, playerID string, p plan.Plan) error
}

// Worker processes analysis requests.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the request in hand, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	players Players
	updater Updater
	name    string
	delay   time.Duration
	now     func() time.Time

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, players Players, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		players:  players,
		updater:  updater,
		name:     "worker",
		delay:    defaultDelay,
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "re-analysis failed",
					logger.String("player_id", r.PlayerID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// stop signals the worker loop to exit. It is safe to call repeatedly.
func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// process regenerates one player's plan. The pending mark is cleared on
// every path so the plan never reports analyzing forever.
func (w *InMemoryWorker) process(ctx context.Context, r queue.AnalysisRequest) error {
	defer w.queue.Done(r.PlayerID)

	start := w.now()
	if !r.RequestedAt.IsZero() {
		metrics.RecordAnalysisQueueDelay(float64(start.Sub(r.RequestedAt).Milliseconds()))
	}
	defer func() {
		metrics.RecordAnalysisLatency(float64(w.now().Sub(start).Milliseconds()))
	}()

	if w.delay > 0 {
		t := time.NewTimer(w.delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			metrics.RecordAnalysisError()
			return fmt.Errorf("analysis of %s interrupted: %w", r.PlayerID, ctx.Err())
		case <-w.shutdown:
			t.Stop()
			metrics.RecordAnalysisError()
			return fmt.Errorf("analysis of %s interrupted: %w", r.PlayerID, ErrStopped)
		}
	}

	p, err := w.players.Player(ctx, r.PlayerID)
	if err != nil {
		metrics.RecordAnalysisError()
		return fmt.Errorf("lookup player %s: %w", r.PlayerID, err)
	}

	generated := plan.Generate(p.ID, p.Metrics)
	if err := w.updater.Replace(ctx, p.ID, generated); err != nil {
		metrics.RecordAnalysisError()
		return fmt.Errorf("replace plan for %s: %w", p.ID, err)
	}

	metrics.RecordPlanGenerated(TriggerReanalysis, generated.GoalStatuses()...)
	metrics.RecordAnalysisCompleted()
	w.logger.Debug(ctx, "plan regenerated",
		logger.String("player_id", p.ID),
		logger.Int("goals", len(generated.Goals)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. Worker options are applied to every
// worker after its name.
func NewPool(workerCount int, q Queue, players Players, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, players, updater, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, if it can be closed, and waits for workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		w.stop()
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerCount(0)
	return nil
}
