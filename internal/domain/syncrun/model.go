package syncrun

import (
	"context"
	"time"
)

// Status is the lifecycle state of a sync run.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// SyncRun is the audit record for one sync invocation. One row is created
// PENDING at the start and finalized exactly once.
type SyncRun struct {
	ID           int64      `json:"id" db:"id"`
	StartedAt    time.Time  `json:"startedAt" db:"started_at"`
	CompletedAt  *time.Time `json:"completedAt" db:"completed_at"`
	Status       Status     `json:"status" db:"status"`
	Message      *string    `json:"message" db:"message"`
	ChangesCount int64      `json:"changesCount" db:"changes_count"`
}

// Repository describes sync run persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, run SyncRun) (SyncRun, error)
	// Finalize sets the terminal status, completion time, message, and
	// aggregate change count.
	Finalize(ctx context.Context, run SyncRun) error
	GetByID(ctx context.Context, runID int64) (SyncRun, bool, error)
	// List returns runs newest first, capped at limit when limit > 0.
	List(ctx context.Context, limit int) ([]SyncRun, error)
}
