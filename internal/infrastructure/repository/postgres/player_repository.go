package postgres

import (
	"context"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/htdash/htdash/internal/domain/player"
	qb "github.com/htdash/htdash/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

var playerSelectColumns = []string{
	"id",
	"external_id",
	"team_id",
	"name",
	"active",
	"latest_snapshot_id",
	"created_at",
	"updated_at",
}

var snapshotSelectColumns = []string{
	"id",
	"player_id",
	"fetched_at",
	"data",
	"hash",
}

var changeSelectColumns = []string{
	"id",
	"player_id",
	"snapshot_id",
	"field_name",
	"old_value",
	"new_value",
	"recorded_at",
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// RecordObservation runs the per-player sync write as a single transaction:
// upsert, hash compare, snapshot append, latest-pointer move, change rows.
// The unchanged-hash fast path still commits so the name refresh and the
// forced active flag land.
func (r *PlayerRepository) RecordObservation(ctx context.Context, obs player.Observation) (player.SyncOutcome, error) {
	if err := obs.Validate(); err != nil {
		return player.SyncOutcome{}, err
	}

	rawData, err := sonic.ConfigStd.Marshal(map[string]any(obs.Data))
	if err != nil {
		return player.SyncOutcome{}, fmt.Errorf("encode observation data: %w", err)
	}
	newHash := player.HashRecord(obs.Data)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return player.SyncOutcome{}, fmt.Errorf("begin observation tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var upserted struct {
		ID               int64  `db:"id"`
		LatestSnapshotID *int64 `db:"latest_snapshot_id"`
		Inserted         bool   `db:"inserted"`
	}
	const upsertQuery = `
		INSERT INTO players (external_id, team_id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		ON CONFLICT (external_id, team_id) DO UPDATE
		SET name = EXCLUDED.name, active = TRUE, updated_at = NOW()
		RETURNING id, latest_snapshot_id, (xmax = 0) AS inserted`
	if err := tx.GetContext(ctx, &upserted, upsertQuery, obs.ExternalID, obs.TeamID, obs.Name); err != nil {
		return player.SyncOutcome{}, fmt.Errorf("upsert player %d: %w", obs.ExternalID, err)
	}

	outcome := player.SyncOutcome{PlayerID: upserted.ID, Created: upserted.Inserted}

	var previous *player.Snapshot
	if upserted.LatestSnapshotID != nil {
		snap, err := getSnapshotTx(ctx, tx, *upserted.LatestSnapshotID)
		if err != nil {
			return player.SyncOutcome{}, err
		}
		previous = &snap
	}

	if previous != nil && previous.Hash == newHash {
		if err := tx.Commit(); err != nil {
			return player.SyncOutcome{}, fmt.Errorf("commit observation tx: %w", err)
		}
		return outcome, nil
	}

	query, args, err := qb.InsertInto("player_snapshots").
		Columns("player_id", "fetched_at", "data", "hash").
		Values(upserted.ID, obs.FetchedAt, rawData, newHash).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		return player.SyncOutcome{}, fmt.Errorf("build insert snapshot query: %w", err)
	}
	var snapshotID int64
	if err := tx.GetContext(ctx, &snapshotID, query, args...); err != nil {
		return player.SyncOutcome{}, fmt.Errorf("insert snapshot for player %d: %w", upserted.ID, err)
	}
	outcome.SnapshotID = snapshotID
	outcome.SnapshotNew = true

	query, args, err = qb.Update("players").
		Set("latest_snapshot_id", snapshotID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", upserted.ID)).
		ToSQL()
	if err != nil {
		return player.SyncOutcome{}, fmt.Errorf("build move latest pointer query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return player.SyncOutcome{}, fmt.Errorf("move latest pointer for player %d: %w", upserted.ID, err)
	}

	// First snapshot is the baseline, not a burst of "all fields changed".
	if previous != nil {
		deltas := player.DiffRecords(previous.Data, obs.Data)
		if len(deltas) > 0 {
			if err := insertChangesTx(ctx, tx, upserted.ID, snapshotID, deltas); err != nil {
				return player.SyncOutcome{}, err
			}
		}
		outcome.ChangesCount = len(deltas)
	}

	if err := tx.Commit(); err != nil {
		return player.SyncOutcome{}, fmt.Errorf("commit observation tx: %w", err)
	}
	return outcome, nil
}

func getSnapshotTx(ctx context.Context, tx *sqlx.Tx, snapshotID int64) (player.Snapshot, error) {
	query, args, err := qb.Select(snapshotSelectColumns...).From("player_snapshots").
		Where(qb.Eq("id", snapshotID)).
		ToSQL()
	if err != nil {
		return player.Snapshot{}, fmt.Errorf("build get snapshot query: %w", err)
	}

	var row snapshotTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return player.Snapshot{}, fmt.Errorf("get snapshot %d: %w", snapshotID, err)
	}
	return snapshotFromRow(row)
}

func insertChangesTx(ctx context.Context, tx *sqlx.Tx, playerID, snapshotID int64, deltas []player.FieldDelta) error {
	// Built by hand: recorded_at must stay the NOW() SQL expression, which
	// the insert builder would bind as a string value.
	var rows []string
	args := make([]any, 0, len(deltas)*5)
	idx := 1
	for _, d := range deltas {
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, NOW())", idx, idx+1, idx+2, idx+3, idx+4))
		args = append(args, playerID, snapshotID, d.Field, nullString(d.Old), nullString(d.New))
		idx += 5
	}
	query := "INSERT INTO player_changes (player_id, snapshot_id, field_name, old_value, new_value, recorded_at) VALUES " +
		strings.Join(rows, ", ")

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d change rows for player %d: %w", len(deltas), playerID, err)
	}
	return nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID int64) (player.Player, bool, error) {
	return r.getOne(ctx, qb.Eq("id", playerID))
}

func (r *PlayerRepository) GetByExternalID(ctx context.Context, externalID int64) (player.Player, bool, error) {
	return r.getOne(ctx, qb.Eq("external_id", externalID))
}

func (r *PlayerRepository) getOne(ctx context.Context, cond qb.Condition) (player.Player, bool, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(cond).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build get player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("get player: %w", err)
	}
	return playerFromRow(row), true, nil
}

func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID int64, activeOnly bool) ([]player.Player, error) {
	builder := qb.Select(playerSelectColumns...).From("players").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("id")
	if activeOnly {
		builder.Where(qb.Eq("active", true))
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list players by team: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

func (r *PlayerRepository) DeactivateMissing(ctx context.Context, teamID int64, seenExternalIDs []int64) (int64, error) {
	builder := qb.Update("players").
		Set("active", false).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("team_id", teamID), qb.Eq("active", true))
	if len(seenExternalIDs) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(seenExternalIDs)), ", ")
		builder.Where(qb.Expr("external_id NOT IN ("+marks+")", int64SliceToAny(seenExternalIDs)...))
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build deactivate players query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deactivate missing players: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deactivated players: %w", err)
	}
	return affected, nil
}

func (r *PlayerRepository) ListSnapshots(ctx context.Context, playerID int64) ([]player.Snapshot, error) {
	query, args, err := qb.Select(snapshotSelectColumns...).From("player_snapshots").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("fetched_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list snapshots query: %w", err)
	}

	var rows []snapshotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshots for player %d: %w", playerID, err)
	}

	out := make([]player.Snapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := snapshotFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (r *PlayerRepository) GetSnapshot(ctx context.Context, snapshotID int64) (player.Snapshot, bool, error) {
	query, args, err := qb.Select(snapshotSelectColumns...).From("player_snapshots").
		Where(qb.Eq("id", snapshotID)).
		ToSQL()
	if err != nil {
		return player.Snapshot{}, false, fmt.Errorf("build get snapshot query: %w", err)
	}

	var row snapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Snapshot{}, false, nil
		}
		return player.Snapshot{}, false, fmt.Errorf("get snapshot %d: %w", snapshotID, err)
	}
	snap, err := snapshotFromRow(row)
	if err != nil {
		return player.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (r *PlayerRepository) ListChangesByPlayer(ctx context.Context, playerID int64, limit int) ([]player.Change, error) {
	builder := qb.Select(changeSelectColumns...).From("player_changes").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("recorded_at DESC", "id DESC")
	if limit > 0 {
		builder.Limit(limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list changes query: %w", err)
	}

	var rows []changeTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list changes for player %d: %w", playerID, err)
	}

	out := make([]player.Change, 0, len(rows))
	for _, row := range rows {
		out = append(out, changeFromRow(row))
	}
	return out, nil
}
