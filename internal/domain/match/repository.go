package match

import (
	"context"
	"time"
)

// Repository describes match persistence needs from use cases.
type Repository interface {
	// Upsert creates the match on first observation or updates the mutable
	// fields (goals, status, orders given) in place. It reports whether a
	// new row was created.
	Upsert(ctx context.Context, m Match) (Match, bool, error)
	GetByID(ctx context.Context, matchID int64) (Match, bool, error)
	GetByExternalID(ctx context.Context, externalID int64) (Match, bool, error)
	// List returns the team's matches newest first, capped at limit when
	// limit > 0.
	List(ctx context.Context, teamID int64, limit int) ([]Match, error)
	// ListFinishedOfficialSince returns FINISHED league and cup matches with
	// a date at or after since, newest first.
	ListFinishedOfficialSince(ctx context.Context, teamID int64, since time.Time) ([]Match, error)
}
