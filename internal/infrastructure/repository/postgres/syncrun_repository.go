package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/htdash/htdash/internal/domain/syncrun"
	qb "github.com/htdash/htdash/internal/platform/querybuilder"
)

type SyncRunRepository struct {
	db *sqlx.DB
}

type syncRunTableModel struct {
	ID           int64          `db:"id"`
	StartedAt    time.Time      `db:"started_at"`
	CompletedAt  *time.Time     `db:"completed_at"`
	Status       string         `db:"status"`
	Message      sql.NullString `db:"message"`
	ChangesCount int64          `db:"changes_count"`
}

var syncRunSelectColumns = []string{
	"id",
	"started_at",
	"completed_at",
	"status",
	"message",
	"changes_count",
}

func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Create(ctx context.Context, run syncrun.SyncRun) (syncrun.SyncRun, error) {
	query, args, err := qb.InsertInto("sync_runs").
		Columns("started_at", "status", "changes_count").
		Values(run.StartedAt, string(run.Status), run.ChangesCount).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		return syncrun.SyncRun{}, fmt.Errorf("build insert sync run query: %w", err)
	}

	if err := r.db.GetContext(ctx, &run.ID, query, args...); err != nil {
		return syncrun.SyncRun{}, fmt.Errorf("insert sync run: %w", err)
	}
	return run, nil
}

func (r *SyncRunRepository) Finalize(ctx context.Context, run syncrun.SyncRun) error {
	query, args, err := qb.Update("sync_runs").
		Set("completed_at", run.CompletedAt).
		Set("status", string(run.Status)).
		Set("message", nullString(run.Message)).
		Set("changes_count", run.ChangesCount).
		Where(qb.Eq("id", run.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finalize sync run query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finalize sync run %d: %w", run.ID, err)
	}
	return nil
}

func (r *SyncRunRepository) GetByID(ctx context.Context, runID int64) (syncrun.SyncRun, bool, error) {
	query, args, err := qb.Select(syncRunSelectColumns...).From("sync_runs").
		Where(qb.Eq("id", runID)).
		ToSQL()
	if err != nil {
		return syncrun.SyncRun{}, false, fmt.Errorf("build get sync run query: %w", err)
	}

	var row syncRunTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return syncrun.SyncRun{}, false, nil
		}
		return syncrun.SyncRun{}, false, fmt.Errorf("get sync run %d: %w", runID, err)
	}
	return syncRunFromRow(row), true, nil
}

func (r *SyncRunRepository) List(ctx context.Context, limit int) ([]syncrun.SyncRun, error) {
	builder := qb.Select(syncRunSelectColumns...).From("sync_runs").
		OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		builder.Limit(limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list sync runs query: %w", err)
	}

	var rows []syncRunTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}

	out := make([]syncrun.SyncRun, 0, len(rows))
	for _, row := range rows {
		out = append(out, syncRunFromRow(row))
	}
	return out, nil
}

func syncRunFromRow(row syncRunTableModel) syncrun.SyncRun {
	run := syncrun.SyncRun{
		ID:           row.ID,
		StartedAt:    row.StartedAt,
		CompletedAt:  row.CompletedAt,
		Status:       syncrun.Status(row.Status),
		ChangesCount: row.ChangesCount,
	}
	if row.Message.Valid {
		v := row.Message.String
		run.Message = &v
	}
	return run
}
