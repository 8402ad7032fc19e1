package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/htdash/htdash/internal/domain/match"
	qb "github.com/htdash/htdash/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

var matchSelectColumns = []string{
	"id",
	"external_id",
	"team_id",
	"match_date",
	"home_team_id",
	"home_team_name",
	"home_team_short",
	"away_team_id",
	"away_team_name",
	"away_team_short",
	"home_goals",
	"away_goals",
	"status",
	"match_type",
	"context_id",
	"cup_level",
	"cup_level_index",
	"source_system",
	"orders_given",
	"created_at",
	"updated_at",
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Upsert keys on the external match id. On conflict only the fields the feed
// keeps moving (goals, status, orders given, cup metadata) are refreshed.
func (r *MatchRepository) Upsert(ctx context.Context, m match.Match) (match.Match, bool, error) {
	const query = `
		INSERT INTO matches (
			external_id, team_id, match_date,
			home_team_id, home_team_name, home_team_short,
			away_team_id, away_team_name, away_team_short,
			home_goals, away_goals, status, match_type,
			context_id, cup_level, cup_level_index, source_system, orders_given,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW()
		)
		ON CONFLICT (external_id) DO UPDATE SET
			home_goals = EXCLUDED.home_goals,
			away_goals = EXCLUDED.away_goals,
			status = EXCLUDED.status,
			orders_given = EXCLUDED.orders_given,
			cup_level = EXCLUDED.cup_level,
			cup_level_index = EXCLUDED.cup_level_index,
			updated_at = NOW()
		RETURNING ` + matchReturningColumns + `, (xmax = 0) AS inserted`

	var row struct {
		matchTableModel
		Inserted bool `db:"inserted"`
	}
	err := r.db.GetContext(ctx, &row, query,
		m.ExternalID, m.TeamID, m.Date,
		m.Home.ID, m.Home.Name, m.Home.ShortName,
		m.Away.ID, m.Away.Name, m.Away.ShortName,
		nullIntFromIntPtr(m.HomeGoals), nullIntFromIntPtr(m.AwayGoals),
		string(m.Status), string(m.Type),
		nullIntFromInt64Ptr(m.ContextID), nullIntFromIntPtr(m.CupLevel), nullIntFromIntPtr(m.CupLevelIndex),
		nullString(m.SourceSystem), nullBoolFromPtr(m.OrdersGiven),
	)
	if err != nil {
		return match.Match{}, false, fmt.Errorf("upsert match %d: %w", m.ExternalID, err)
	}
	return matchFromRow(row.matchTableModel), row.Inserted, nil
}

const matchReturningColumns = "id, external_id, team_id, match_date, " +
	"home_team_id, home_team_name, home_team_short, " +
	"away_team_id, away_team_name, away_team_short, " +
	"home_goals, away_goals, status, match_type, " +
	"context_id, cup_level, cup_level_index, source_system, orders_given, " +
	"created_at, updated_at"

func (r *MatchRepository) GetByID(ctx context.Context, matchID int64) (match.Match, bool, error) {
	return r.getOne(ctx, qb.Eq("id", matchID))
}

func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID int64) (match.Match, bool, error) {
	return r.getOne(ctx, qb.Eq("external_id", externalID))
}

func (r *MatchRepository) getOne(ctx context.Context, cond qb.Condition) (match.Match, bool, error) {
	query, args, err := qb.Select(matchSelectColumns...).From("matches").
		Where(cond).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}
	return matchFromRow(row), true, nil
}

func (r *MatchRepository) List(ctx context.Context, teamID int64, limit int) ([]match.Match, error) {
	builder := qb.Select(matchSelectColumns...).From("matches").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("match_date DESC", "id DESC")
	if limit > 0 {
		builder.Limit(limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) ListFinishedOfficialSince(ctx context.Context, teamID int64, since time.Time) ([]match.Match, error) {
	query, args, err := qb.Select(matchSelectColumns...).From("matches").
		Where(
			qb.Eq("team_id", teamID),
			qb.Eq("status", string(match.StatusFinished)),
			qb.In("match_type", []any{string(match.TypeLeague), string(match.TypeCup)}),
			qb.Gte("match_date", since),
		).
		OrderBy("match_date DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list official matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list official matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}
