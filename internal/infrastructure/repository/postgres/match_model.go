package postgres

import (
	"database/sql"
	"time"

	"github.com/htdash/htdash/internal/domain/match"
)

type matchTableModel struct {
	ID            int64          `db:"id"`
	ExternalID    int64          `db:"external_id"`
	TeamID        int64          `db:"team_id"`
	MatchDate     time.Time      `db:"match_date"`
	HomeTeamID    int64          `db:"home_team_id"`
	HomeTeamName  string         `db:"home_team_name"`
	HomeTeamShort string         `db:"home_team_short"`
	AwayTeamID    int64          `db:"away_team_id"`
	AwayTeamName  string         `db:"away_team_name"`
	AwayTeamShort string         `db:"away_team_short"`
	HomeGoals     sql.NullInt64  `db:"home_goals"`
	AwayGoals     sql.NullInt64  `db:"away_goals"`
	Status        string         `db:"status"`
	MatchType     string         `db:"match_type"`
	ContextID     sql.NullInt64  `db:"context_id"`
	CupLevel      sql.NullInt64  `db:"cup_level"`
	CupLevelIndex sql.NullInt64  `db:"cup_level_index"`
	SourceSystem  sql.NullString `db:"source_system"`
	OrdersGiven   sql.NullBool   `db:"orders_given"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func matchFromRow(row matchTableModel) match.Match {
	m := match.Match{
		ID:         row.ID,
		ExternalID: row.ExternalID,
		TeamID:     row.TeamID,
		Date:       row.MatchDate,
		Home: match.Side{
			ID:        row.HomeTeamID,
			Name:      row.HomeTeamName,
			ShortName: row.HomeTeamShort,
		},
		Away: match.Side{
			ID:        row.AwayTeamID,
			Name:      row.AwayTeamName,
			ShortName: row.AwayTeamShort,
		},
		Status:    match.Status(row.Status),
		Type:      match.Type(row.MatchType),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.HomeGoals.Valid {
		v := int(row.HomeGoals.Int64)
		m.HomeGoals = &v
	}
	if row.AwayGoals.Valid {
		v := int(row.AwayGoals.Int64)
		m.AwayGoals = &v
	}
	if row.ContextID.Valid {
		v := row.ContextID.Int64
		m.ContextID = &v
	}
	if row.CupLevel.Valid {
		v := int(row.CupLevel.Int64)
		m.CupLevel = &v
	}
	if row.CupLevelIndex.Valid {
		v := int(row.CupLevelIndex.Int64)
		m.CupLevelIndex = &v
	}
	if row.SourceSystem.Valid {
		v := row.SourceSystem.String
		m.SourceSystem = &v
	}
	if row.OrdersGiven.Valid {
		v := row.OrdersGiven.Bool
		m.OrdersGiven = &v
	}
	return m
}

func nullIntFromIntPtr(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullIntFromInt64Ptr(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullBoolFromPtr(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
