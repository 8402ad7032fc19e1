package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/htdash/htdash/internal/domain/match"
	"github.com/htdash/htdash/internal/platform/logging"
)

const officialMatchCount = 2

// MatchService serves the match read queries.
type MatchService struct {
	matches match.Repository
	teamID  int64
	logger  *logging.Logger
	now     func() time.Time
}

func NewMatchService(matches match.Repository, teamID int64, logger *logging.Logger) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchService{
		matches: matches,
		teamID:  teamID,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListMatches returns the team's matches newest first, capped at limit when
// limit > 0.
func (s *MatchService) ListMatches(ctx context.Context, limit int) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.ListMatches")
	defer span.End()

	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}
	items, err := s.matches.List(ctx, s.teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return items, nil
}

// GetMatch returns one match by its internal id.
func (s *MatchService) GetMatch(ctx context.Context, matchID int64) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.GetMatch")
	defer span.End()

	if matchID <= 0 {
		return match.Match{}, fmt.Errorf("%w: match id must be greater than zero", ErrInvalidInput)
	}
	item, found, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match %d: %w", matchID, err)
	}
	if !found {
		return match.Match{}, fmt.Errorf("%w: match %d", ErrNotFound, matchID)
	}
	return item, nil
}

// ThisWeekOfficial returns the newest two finished league or cup matches
// since the most recent Friday.
func (s *MatchService) ThisWeekOfficial(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.ThisWeekOfficial")
	defer span.End()

	since := match.LastFriday(s.now())
	items, err := s.matches.ListFinishedOfficialSince(ctx, s.teamID, since)
	if err != nil {
		return nil, fmt.Errorf("list this week's official matches: %w", err)
	}
	if len(items) > officialMatchCount {
		items = items[:officialMatchCount]
	}
	return items, nil
}
