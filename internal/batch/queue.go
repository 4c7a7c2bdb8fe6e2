package batch

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labreport-signatures/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("batch queue is shut down")

// DocumentProcessor is satisfied by *pipeline.Processor.
type DocumentProcessor interface {
	Process(ctx context.Context, path string, opts pipeline.Options) (*pipeline.Result, error)
}

// Job is one document waiting to be processed.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
	seq         int
}

// Outcome is what processing one job produced.
type Outcome struct {
	Path    string
	TraceID string
	Result  *pipeline.Result
	Err     error
	Elapsed time.Duration
	seq     int
}

// Queue processes documents with a fixed pool of workers.
type Queue struct {
	proc    DocumentProcessor
	opts    pipeline.Options
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ctx  context.Context
	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// sendMu guards closed and ch against a send racing Shutdown.
	sendMu sync.RWMutex
	closed bool

	mu       sync.Mutex
	next     int
	outcomes []Outcome
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithProcessTimeout bounds each document.
func WithProcessTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewQueue starts the workers. Jobs run under ctx; cancelling it aborts in-flight documents.
func NewQueue(ctx context.Context, proc DocumentProcessor, opts pipeline.Options, logger *slog.Logger, qopts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		proc:    proc,
		opts:    opts,
		logger:  logger,
		workers: 2,
		timeout: 10 * time.Minute,
		ctx:     ctx,
		ch:      make(chan Job, 64),
	}
	for _, o := range qopts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.work(i + 1)
		}
	})
}

func (q *Queue) work(workerID int) {
	defer q.wg.Done()
	q.logger.Debug("batch.worker.started", "worker_id", workerID)

	for job := range q.ch {
		start := time.Now()
		ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
		res, err := q.proc.Process(ctx, job.Path, q.opts)
		cancel()

		out := Outcome{Path: job.Path, TraceID: job.TraceID, Result: res, Err: err, Elapsed: time.Since(start), seq: job.seq}
		if err != nil {
			q.logger.Error("batch.document.failed", "worker_id", workerID, "path", job.Path, "trace_id", job.TraceID, "error", err)
		} else {
			q.logger.Info("batch.document.ok", "worker_id", workerID, "path", job.Path, "elapsed_ms", out.Elapsed.Milliseconds())
		}
		q.mu.Lock()
		q.outcomes = append(q.outcomes, out)
		q.mu.Unlock()
	}
	q.logger.Debug("batch.worker.stopped", "worker_id", workerID)
}

// Enqueue submits a document. It blocks while the queue is full.
func (q *Queue) Enqueue(ctx context.Context, path string) error {
	q.sendMu.RLock()
	defer q.sendMu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.mu.Lock()
	job := Job{Path: path, SubmittedAt: time.Now(), TraceID: uuid.NewString(), seq: q.next}
	q.next++
	q.mu.Unlock()

	select {
	case q.ch <- job:
		q.logger.Debug("batch.document.queued", "path", path, "trace_id", job.TraceID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs, waits for the workers to drain and returns the outcomes in
// submission order. If ctx ends first, the outcomes finished so far are returned with ctx's error.
func (q *Queue) Shutdown(ctx context.Context) ([]Outcome, error) {
	q.sendMu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.sendMu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	var err error
	select {
	case <-ctx.Done():
		q.logger.Warn("batch.shutdown.interrupted")
		err = ctx.Err()
	case <-done:
		q.logger.Debug("batch.shutdown.drained")
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Outcome, len(q.outcomes))
	copy(out, q.outcomes)
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out, err
}
