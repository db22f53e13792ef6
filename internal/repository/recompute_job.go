package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const recomputeJobColumns = "id, status, cursor, processed, total, started_at, finished_at, error"

// RecomputeJobRepository stores bulk recompute progress.
type RecomputeJobRepository struct {
	q Querier
}

func (r *RecomputeJobRepository) Create(ctx context.Context, total int) (*models.RecomputeJob, error) {
	job := &models.RecomputeJob{}
	query := `
		INSERT INTO recompute_jobs (id, status, processed, total, started_at)
		VALUES ($1, $2, 0, $3, $4)
		RETURNING ` + recomputeJobColumns
	err := r.q.QueryRowxContext(ctx, query, uuid.New(), models.JobRunning, total, time.Now()).StructScan(job)
	if err != nil {
		return nil, fmt.Errorf("insert recompute job: %w", err)
	}
	return job, nil
}

func (r *RecomputeJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RecomputeJob, error) {
	job := &models.RecomputeJob{}
	query := `SELECT ` + recomputeJobColumns + ` FROM recompute_jobs WHERE id = $1`
	if err := r.q.GetContext(ctx, job, query, id); err != nil {
		return nil, wrap(err, "get recompute job", models.ErrAlreadyExists)
	}
	return job, nil
}

// SaveProgress records the cursor after a finished batch.
func (r *RecomputeJobRepository) SaveProgress(ctx context.Context, id uuid.UUID, cursor uuid.UUID, processed int) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE recompute_jobs SET cursor = $1, processed = $2 WHERE id = $3`,
		cursor, processed, id)
	if err != nil {
		return fmt.Errorf("save recompute progress: %w", err)
	}
	return expectAffected(result, "save recompute progress")
}

// Reopen marks a stopped job running again so it can resume from its cursor.
func (r *RecomputeJobRepository) Reopen(ctx context.Context, id uuid.UUID, total int) (*models.RecomputeJob, error) {
	job := &models.RecomputeJob{}
	query := `
		UPDATE recompute_jobs SET status = $1, total = $2, finished_at = NULL, error = NULL
		WHERE id = $3 AND status <> $4
		RETURNING ` + recomputeJobColumns
	err := r.q.QueryRowxContext(ctx, query, models.JobRunning, total, id, models.JobCompleted).StructScan(job)
	if err != nil {
		return nil, wrap(err, "reopen recompute job", models.ErrAlreadyExists)
	}
	return job, nil
}

// Finish records the final status. jobErr is stored when non-nil.
func (r *RecomputeJobRepository) Finish(ctx context.Context, id uuid.UUID, status models.JobStatus, jobErr error) error {
	var message *string
	if jobErr != nil {
		m := jobErr.Error()
		message = &m
	}
	result, err := r.q.ExecContext(ctx,
		`UPDATE recompute_jobs SET status = $1, finished_at = $2, error = $3 WHERE id = $4`,
		status, time.Now(), message, id)
	if err != nil {
		return fmt.Errorf("finish recompute job: %w", err)
	}
	return expectAffected(result, "finish recompute job")
}
