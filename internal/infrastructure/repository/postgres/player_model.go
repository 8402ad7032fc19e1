package postgres

import (
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/htdash/htdash/internal/domain/player"
)

type playerTableModel struct {
	ID               int64         `db:"id"`
	ExternalID       int64         `db:"external_id"`
	TeamID           int64         `db:"team_id"`
	Name             string        `db:"name"`
	Active           bool          `db:"active"`
	LatestSnapshotID sql.NullInt64 `db:"latest_snapshot_id"`
	CreatedAt        time.Time     `db:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

type snapshotTableModel struct {
	ID        int64     `db:"id"`
	PlayerID  int64     `db:"player_id"`
	FetchedAt time.Time `db:"fetched_at"`
	Data      []byte    `db:"data"`
	Hash      string    `db:"hash"`
}

type changeTableModel struct {
	ID         int64          `db:"id"`
	PlayerID   int64          `db:"player_id"`
	SnapshotID int64          `db:"snapshot_id"`
	FieldName  string         `db:"field_name"`
	OldValue   sql.NullString `db:"old_value"`
	NewValue   sql.NullString `db:"new_value"`
	RecordedAt time.Time      `db:"recorded_at"`
}

func playerFromRow(row playerTableModel) player.Player {
	p := player.Player{
		ID:         row.ID,
		ExternalID: row.ExternalID,
		TeamID:     row.TeamID,
		Name:       row.Name,
		Active:     row.Active,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.LatestSnapshotID.Valid {
		id := row.LatestSnapshotID.Int64
		p.LatestSnapshotID = &id
	}
	return p
}

func snapshotFromRow(row snapshotTableModel) (player.Snapshot, error) {
	var data player.Attributes
	if len(row.Data) > 0 {
		if err := sonic.Unmarshal(row.Data, &data); err != nil {
			return player.Snapshot{}, fmt.Errorf("decode snapshot %d data: %w", row.ID, err)
		}
	}
	return player.Snapshot{
		ID:        row.ID,
		PlayerID:  row.PlayerID,
		FetchedAt: row.FetchedAt,
		Data:      data,
		Hash:      row.Hash,
	}, nil
}

func changeFromRow(row changeTableModel) player.Change {
	c := player.Change{
		ID:         row.ID,
		PlayerID:   row.PlayerID,
		SnapshotID: row.SnapshotID,
		FieldName:  row.FieldName,
		RecordedAt: row.RecordedAt,
	}
	if row.OldValue.Valid {
		v := row.OldValue.String
		c.OldValue = &v
	}
	if row.NewValue.Valid {
		v := row.NewValue.String
		c.NewValue = &v
	}
	return c
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
