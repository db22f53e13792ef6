package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	infracontext "github.com/huzhengnan/website-monitor-sub000/infrastructure/context"
	infraevents "github.com/huzhengnan/website-monitor-sub000/infrastructure/events"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/events"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/repository"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
	"github.com/huzhengnan/website-monitor-sub000/internal/telemetry"
)

// ErrRecomputeRunning is returned when a recompute is started while another
// one is in progress.
var ErrRecomputeRunning = fmt.Errorf("importance recompute already running: %w", models.ErrAlreadyExists)

const defaultRecomputeBatch = 200

// Recomputer recalculates importance scores for every backlink site in
// keyset-paginated batches. Each batch commits its scores together with the
// job's cursor, so a stopped job resumes where it left off.
type Recomputer struct {
	store     *repository.Store
	publisher *events.Publisher
	metrics   *telemetry.Metrics
	logger    infralogger.Logger
	batchSize int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewRecomputer creates a Recomputer. Background jobs stop when Close is
// called.
func NewRecomputer(
	store *repository.Store,
	batchSize int,
	publisher *events.Publisher,
	metrics *telemetry.Metrics,
	log infralogger.Logger,
) *Recomputer {
	if batchSize < 1 {
		batchSize = defaultRecomputeBatch
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Recomputer{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
		batchSize: batchSize,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins a new job, or resumes resumeID when set, and runs it in the
// background. The returned job reflects its state at start.
func (r *Recomputer) Start(ctx context.Context, resumeID *uuid.UUID) (*models.RecomputeJob, error) {
	if !r.acquire() {
		return nil, ErrRecomputeRunning
	}

	job, err := r.open(ctx, resumeID)
	if err != nil {
		r.release()
		return nil, err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release()
		if runErr := r.run(r.ctx, job); runErr != nil {
			r.logger.Error("Importance recompute stopped",
				infralogger.JobID(job.ID.String()),
				infralogger.Error(runErr),
			)
		}
	}()
	return job, nil
}

// RunSync runs a job to completion in the caller's goroutine.
func (r *Recomputer) RunSync(ctx context.Context, resumeID *uuid.UUID) (*models.RecomputeJob, error) {
	if !r.acquire() {
		return nil, ErrRecomputeRunning
	}
	defer r.release()

	job, err := r.open(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if err = r.run(ctx, job); err != nil {
		return nil, err
	}
	return r.store.Jobs.GetByID(ctx, job.ID)
}

func (r *Recomputer) Get(ctx context.Context, id uuid.UUID) (*models.RecomputeJob, error) {
	return r.store.Jobs.GetByID(ctx, id)
}

// Close cancels background jobs and waits for them to record their state.
func (r *Recomputer) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Recomputer) acquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Recomputer) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *Recomputer) open(ctx context.Context, resumeID *uuid.UUID) (*models.RecomputeJob, error) {
	total, err := r.store.BacklinkSites.Count(ctx)
	if err != nil {
		return nil, err
	}
	if resumeID != nil {
		return r.store.Jobs.Reopen(ctx, *resumeID, total)
	}
	return r.store.Jobs.Create(ctx, total)
}

func (r *Recomputer) run(ctx context.Context, job *models.RecomputeJob) error {
	started := time.Now()
	cursor := job.Cursor
	processed := job.Processed

	r.logger.Info("Importance recompute started",
		infralogger.JobID(job.ID.String()),
		infralogger.Int("total", job.Total),
		infralogger.Int("processed", processed),
	)

	for {
		if err := ctx.Err(); err != nil {
			return r.finish(ctx, job.ID, models.JobCancelled, err)
		}

		n, last, err := r.batch(ctx, job.ID, cursor, processed)
		if err != nil {
			status := models.JobFailed
			if errors.Is(err, context.Canceled) {
				status = models.JobCancelled
			}
			return r.finish(ctx, job.ID, status, err)
		}
		if n == 0 {
			break
		}
		processed += n
		cursor = &last
		if n < r.batchSize {
			break
		}
	}

	if err := r.finish(ctx, job.ID, models.JobCompleted, nil); err != nil {
		return err
	}
	r.logger.Info("Importance recompute completed",
		infralogger.JobID(job.ID.String()),
		infralogger.Int("processed", processed),
		infralogger.Duration("duration", time.Since(started)),
	)
	r.publisher.PublishAsync(infraevents.ImportanceRecomputed, job.ID.String(), map[string]int{"processed": processed})
	return nil
}

// batch rescores up to batchSize sites after cursor and saves progress in
// the same transaction. It returns the number of sites and the last id.
func (r *Recomputer) batch(ctx context.Context, jobID uuid.UUID, cursor *uuid.UUID, processed int) (int, uuid.UUID, error) {
	start := time.Now()
	var (
		n    int
		last uuid.UUID
	)

	err := r.store.InTx(ctx, func(tx *repository.Store) error {
		sites, err := tx.BacklinkSites.ListAfter(ctx, cursor, r.batchSize)
		if err != nil || len(sites) == 0 {
			return err
		}

		ids := make([]uuid.UUID, len(sites))
		for i := range sites {
			ids[i] = sites[i].ID
		}
		statuses, err := tx.Submissions.StatusesFor(ctx, ids)
		if err != nil {
			return err
		}

		for i := range sites {
			score := scoring.ImportanceScore(sites[i].DR, statuses[sites[i].ID])
			if score == sites[i].ImportanceScore {
				continue
			}
			if err = tx.BacklinkSites.SetImportance(ctx, sites[i].ID, score); err != nil {
				return err
			}
		}

		n = len(sites)
		last = sites[n-1].ID
		return tx.Jobs.SaveProgress(ctx, jobID, last, processed+n)
	})
	if err != nil {
		return 0, uuid.Nil, err
	}
	if n > 0 {
		r.metrics.RecordRecomputeBatch(n, time.Since(start))
	}
	return n, last, nil
}

// finish records the final status. ctx may already be cancelled.
func (r *Recomputer) finish(ctx context.Context, id uuid.UUID, status models.JobStatus, jobErr error) error {
	writeCtx, cancel := infracontext.Detached(ctx)
	defer cancel()

	if err := r.store.Jobs.Finish(writeCtx, id, status, jobErr); err != nil {
		return errors.Join(jobErr, err)
	}
	return jobErr
}
