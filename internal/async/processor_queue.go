package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/pipeline"
)

// PairProcessor is the pipeline entry point a worker drives.
type PairProcessor interface {
	ProcessPair(ctx context.Context, listing, proposal entity.Payload, mode pipeline.Mode) (pipeline.Outcome, error)
}

// JobStore records job state and finished records.
type JobStore interface {
	SaveJob(ctx context.Context, job *entity.Job) error
	SaveRecord(ctx context.Context, rec *entity.StoredRecord) error
}

// Archiver writes the merged JSON next to the other outputs.
type Archiver interface {
	Save(baseName, suffix string, payload any) (string, error)
}

type ProcessorQueue struct {
	proc     PairProcessor
	store    JobStore
	archiver Archiver
	logger   *slog.Logger
	workers  int
	timeout  time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// mu guards closed and the senders count; it is never held while a
	// sender waits for room. quit unblocks waiting senders on Shutdown and
	// ch is closed only once they have all returned.
	mu      sync.Mutex
	closed  bool
	quit    chan struct{}
	senders sync.WaitGroup
}

var _ Queue = (*ProcessorQueue)(nil)

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithArchiver also writes every merged record as a JSON file.
func WithArchiver(a Archiver) Option {
	return func(q *ProcessorQueue) { q.archiver = a }
}

func NewProcessorQueue(proc PairProcessor, store JobStore, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		store:   store,
		logger:  logger,
		workers: 2,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 64),
		quit:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Info("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// run processes one job and records its final state. Store failures are
// logged; the job outcome is still reported through the log.
func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithJobID(ctx, job.ID.String())
	if job.RequestID != "" {
		ctx = common.WithRequestID(ctx, job.RequestID)
	}

	row := &entity.Job{
		ID:           job.ID,
		Status:       constants.JobStatusRunning,
		ListingFile:  job.Listing.FileName,
		ProposalFile: job.Proposal.FileName,
		Draft:        job.Mode.Draft,
		CreatedAt:    job.SubmittedAt,
	}
	q.save(ctx, row)

	start := time.Now()
	recordID, err := q.process(ctx, job)
	finished := time.Now().UTC()
	row.FinishedAt = &finished
	if err != nil {
		msg := err.Error()
		row.Status = constants.JobStatusFailed
		row.ErrorMessage = &msg
		q.logger.Error("queue.job.failed", "worker_id", workerID, "job_id", job.ID, "error", err)
	} else {
		row.Status = constants.JobStatusDone
		row.RecordID = &recordID
		q.logger.Info("queue.job.done",
			"worker_id", workerID,
			"job_id", job.ID,
			"record_id", recordID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
	// The job context may have expired; the final state must still land.
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer saveCancel()
	q.save(saveCtx, row)
}

func (q *ProcessorQueue) process(ctx context.Context, job Job) (uuid.UUID, error) {
	out, err := q.proc.ProcessPair(ctx, job.Listing, job.Proposal, job.Mode)
	if err != nil {
		return uuid.Nil, err
	}
	rec, err := out.Record()
	if err != nil {
		return uuid.Nil, err
	}
	if err := q.store.SaveRecord(ctx, rec); err != nil {
		return uuid.Nil, err
	}
	if q.archiver != nil {
		if _, err := q.archiver.Save(job.Listing.FileName, "merged", out.Merged); err != nil {
			q.logger.Warn("queue.job.archive_failed", "job_id", job.ID, "error", err)
		}
	}
	return rec.ID, nil
}

func (q *ProcessorQueue) save(ctx context.Context, row *entity.Job) {
	if err := q.store.SaveJob(ctx, row); err != nil {
		q.logger.Error("queue.job.save_failed", "job_id", row.ID, "status", row.Status, "error", err)
	}
}

// Enqueue records the job as QUEUED and hands it to a worker. It blocks
// while the queue is full until ctx is done or Shutdown starts.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) (uuid.UUID, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}
	if job.RequestID == "" {
		job.RequestID = common.RequestIDFromContext(ctx)
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return uuid.Nil, q.rejected(job.ID)
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	row := &entity.Job{
		ID:           job.ID,
		Status:       constants.JobStatusQueued,
		ListingFile:  job.Listing.FileName,
		ProposalFile: job.Proposal.FileName,
		Draft:        job.Mode.Draft,
		CreatedAt:    job.SubmittedAt,
	}
	if err := q.store.SaveJob(ctx, row); err != nil {
		return uuid.Nil, err
	}

	select {
	case q.ch <- job:
		q.logger.Info("queue.enqueue.ok", "job_id", job.ID, "annuncio", job.Listing.FileName, "proposta", job.Proposal.FileName)
		return job.ID, nil
	default:
	}
	q.logger.Warn("queue.enqueue.backpressure", "job_id", job.ID)
	select {
	case q.ch <- job:
		return job.ID, nil
	case <-q.quit:
		q.fail(row, "not enqueued: queue shut down")
		return uuid.Nil, q.rejected(job.ID)
	case <-ctx.Done():
		q.fail(row, "not enqueued: "+ctx.Err().Error())
		return uuid.Nil, ctx.Err()
	}
}

func (q *ProcessorQueue) rejected(id uuid.UUID) error {
	q.logger.Warn("queue.enqueue.rejected", "job_id", id, "reason", "shutting down")
	return common.NewAppError("QUEUE_CLOSED", "cannot enqueue", ErrQueueClosed)
}

func (q *ProcessorQueue) fail(row *entity.Job, msg string) {
	row.Status = constants.JobStatusFailed
	row.ErrorMessage = &msg
	q.save(context.Background(), row)
}

// Shutdown stops accepting jobs and waits for queued ones until ctx is done.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.quit)
	q.mu.Unlock()
	q.senders.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.ok")
	}
}
