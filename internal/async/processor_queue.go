package async

import (
	"context"
	"sync"

	"log/slog"

	"github.com/joseph-ayodele/dist1-extractor/internal/common"
	"github.com/joseph-ayodele/dist1-extractor/internal/pipeline"
)

// RunProcessor is the pipeline entry point the worker drives.
type RunProcessor interface {
	Run(ctx context.Context, folder string, progress pipeline.ProgressFunc) (*pipeline.Result, error)
}

// ProcessorQueue runs jobs one at a time on a single worker goroutine, so two
// runs never touch the OCR engine or a workbook concurrently.
type ProcessorQueue struct {
	proc    RunProcessor
	tracker *Tracker
	logger  *slog.Logger

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

var _ Queue = (*ProcessorQueue)(nil)

type Option func(*ProcessorQueue)

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func NewProcessorQueue(proc RunProcessor, tracker *Tracker, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	if tracker == nil {
		tracker = NewTracker()
	}
	q := &ProcessorQueue{
		proc:    proc,
		tracker: tracker,
		logger:  logger,
		ch:      make(chan Job, 16),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

// Tracker exposes the run states the worker maintains.
func (q *ProcessorQueue) Tracker() *Tracker {
	return q.tracker
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.logger.Info("worker started")
			for job := range q.ch {
				q.process(job)
			}
			q.logger.Info("worker stopped")
		}()
	})
}

func (q *ProcessorQueue) process(job Job) {
	log := q.logger.With("run_id", job.RunID, "folder", job.Folder)
	q.tracker.Start(job.RunID)

	ctx := common.WithRunID(context.Background(), job.RunID)
	ctx = common.WithLang(ctx, job.Lang)
	ctx = common.WithLogger(ctx, log)

	res, err := q.proc.Run(ctx, job.Folder, func(p pipeline.Progress) {
		q.tracker.Progress(job.RunID, p)
	})
	q.tracker.Finish(job.RunID, res, err)

	if err != nil {
		log.Error("run failed", "error", err)
		return
	}
	log.Info("run finished", "state", res.State())
}

// Enqueue registers the job with the tracker and hands it to the worker. It
// fails with ErrQueueFull instead of blocking the caller.
func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "run_id", job.RunID)
		return common.NewAppError("QUEUE_CLOSED", "queue is shutting down", common.ErrQueueClosed)
	}
	q.tracker.Submit(job)
	select {
	case q.ch <- job:
		q.logger.Info("queued run", "run_id", job.RunID, "folder", job.Folder, "pending", len(q.ch))
		return nil
	default:
		q.logger.Warn("queue full, rejecting run", "run_id", job.RunID)
		q.tracker.Finish(job.RunID, nil, common.ErrQueueFull)
		return common.NewAppError("QUEUE_FULL", "too many pending runs", common.ErrQueueFull)
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
