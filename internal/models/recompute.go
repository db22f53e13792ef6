package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the state of a recompute job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// RecomputeJob records progress of a bulk importance recompute. Cursor is the
// last backlink site id processed; a resumed job continues after it.
type RecomputeJob struct {
	ID         uuid.UUID  `db:"id"          json:"id"`
	Status     JobStatus  `db:"status"      json:"status"`
	Cursor     *uuid.UUID `db:"cursor"      json:"cursor,omitempty"`
	Processed  int        `db:"processed"   json:"processed"`
	Total      int        `db:"total"       json:"total"`
	StartedAt  time.Time  `db:"started_at"  json:"startedAt"`
	FinishedAt *time.Time `db:"finished_at" json:"finishedAt,omitempty"`
	Error      *string    `db:"error"       json:"error,omitempty"`
}
