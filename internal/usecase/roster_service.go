package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/htdash/htdash/internal/domain/match"
	"github.com/htdash/htdash/internal/domain/player"
	"github.com/htdash/htdash/internal/domain/position"
	"github.com/htdash/htdash/internal/platform/logging"
)

const recentChangesLimit = 25

// RosterEntry is one player enriched for the dashboard: latest snapshot,
// recent changes, weekly trends, position scores, and lineup eligibility.
type RosterEntry struct {
	Player              player.Player              `json:"player"`
	Attributes          player.Attributes          `json:"attributes,omitempty"`
	FetchedAt           *time.Time                 `json:"fetchedAt,omitempty"`
	RecentChanges       []player.Change            `json:"recentChanges"`
	WeeklyDiff          WeeklyDiff                 `json:"weeklyDiff"`
	Scores              position.Scores            `json:"scores"`
	BestPosition        position.Position          `json:"bestPosition"`
	BestScore           float64                    `json:"bestScore"`
	HasPlayedThisPeriod bool                       `json:"hasPlayedThisPeriod"`
	InjuryDaysRemaining *int                       `json:"injuryDaysRemaining"`
}

// RosterService assembles the read-side roster views and formation
// selections. All scoring is computed from the latest snapshots on demand.
type RosterService struct {
	players player.Repository
	weekly  *WeeklyDiffService
	teamID  int64
	logger  *logging.Logger
	now     func() time.Time
}

func NewRosterService(players player.Repository, weekly *WeeklyDiffService, teamID int64, logger *logging.Logger) *RosterService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RosterService{
		players: players,
		weekly:  weekly,
		teamID:  teamID,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListRoster returns the active roster with full enrichment.
func (s *RosterService) ListRoster(ctx context.Context) ([]RosterEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.ListRoster")
	defer span.End()

	players, err := s.players.ListByTeam(ctx, s.teamID, true)
	if err != nil {
		return nil, fmt.Errorf("list roster players: %w", err)
	}

	ids := make([]int64, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	diffs, err := s.weekly.ForPlayers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("compute weekly diffs: %w", err)
	}

	now := s.now()
	out := make([]RosterEntry, 0, len(players))
	for _, p := range players {
		entry, err := s.buildEntry(ctx, p, now)
		if err != nil {
			return nil, err
		}
		if diff, ok := diffs[p.ID]; ok {
			entry.WeeklyDiff = diff
		} else {
			entry.WeeklyDiff = WeeklyDiff{}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *RosterService) buildEntry(ctx context.Context, p player.Player, now time.Time) (RosterEntry, error) {
	entry := RosterEntry{
		Player:        p,
		RecentChanges: []player.Change{},
		WeeklyDiff:    WeeklyDiff{},
	}

	data := player.Attributes{}
	if p.LatestSnapshotID != nil {
		snap, found, err := s.players.GetSnapshot(ctx, *p.LatestSnapshotID)
		if err != nil {
			return RosterEntry{}, fmt.Errorf("get latest snapshot for player %d: %w", p.ID, err)
		}
		if found {
			data = snap.Data
			entry.Attributes = snap.Data
			fetchedAt := snap.FetchedAt
			entry.FetchedAt = &fetchedAt
		}
	}

	changes, err := s.players.ListChangesByPlayer(ctx, p.ID, recentChangesLimit)
	if err != nil {
		return RosterEntry{}, fmt.Errorf("list changes for player %d: %w", p.ID, err)
	}
	entry.RecentChanges = changes

	entry.Scores = position.ComputeScores(data)
	entry.BestPosition, entry.BestScore = entry.Scores.Best()
	entry.HasPlayedThisPeriod = hasPlayedThisPeriod(data, now)
	entry.InjuryDaysRemaining = injuryDaysRemaining(data)

	return entry, nil
}

// PlayerDetail is one player with their full change history.
type PlayerDetail struct {
	RosterEntry
	Changes []player.Change `json:"changes"`
}

// GetPlayer returns a single player with the complete audit trail.
func (s *RosterService) GetPlayer(ctx context.Context, playerID int64) (PlayerDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.GetPlayer")
	defer span.End()

	if playerID <= 0 {
		return PlayerDetail{}, fmt.Errorf("%w: player id must be greater than zero", ErrInvalidInput)
	}

	p, found, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return PlayerDetail{}, fmt.Errorf("get player %d: %w", playerID, err)
	}
	if !found {
		return PlayerDetail{}, fmt.Errorf("%w: player %d", ErrNotFound, playerID)
	}

	entry, err := s.buildEntry(ctx, p, s.now())
	if err != nil {
		return PlayerDetail{}, err
	}
	diffs, err := s.weekly.ForPlayers(ctx, []int64{p.ID})
	if err != nil {
		return PlayerDetail{}, fmt.Errorf("compute weekly diff for player %d: %w", p.ID, err)
	}
	if diff, ok := diffs[p.ID]; ok {
		entry.WeeklyDiff = diff
	}

	history, err := s.players.ListChangesByPlayer(ctx, p.ID, 0)
	if err != nil {
		return PlayerDetail{}, fmt.Errorf("list change history for player %d: %w", p.ID, err)
	}

	return PlayerDetail{RosterEntry: entry, Changes: history}, nil
}

// PlayerScores returns just the position scores and best position for one
// player.
func (s *RosterService) PlayerScores(ctx context.Context, playerID int64) (position.Scores, position.Position, float64, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.PlayerScores")
	defer span.End()

	if playerID <= 0 {
		return nil, "", 0, fmt.Errorf("%w: player id must be greater than zero", ErrInvalidInput)
	}

	p, found, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return nil, "", 0, fmt.Errorf("get player %d: %w", playerID, err)
	}
	if !found {
		return nil, "", 0, fmt.Errorf("%w: player %d", ErrNotFound, playerID)
	}

	data := player.Attributes{}
	if p.LatestSnapshotID != nil {
		snap, found, err := s.players.GetSnapshot(ctx, *p.LatestSnapshotID)
		if err != nil {
			return nil, "", 0, fmt.Errorf("get latest snapshot for player %d: %w", p.ID, err)
		}
		if found {
			data = snap.Data
		}
	}

	scores := position.ComputeScores(data)
	best, bestScore := scores.Best()
	return scores, best, bestScore, nil
}

// Formations lists the built-in lineup templates.
func (s *RosterService) Formations() []position.Formation {
	return position.Formations
}

// SelectFormation resolves a named formation against the current active
// roster and returns the selected player ids.
func (s *RosterService) SelectFormation(ctx context.Context, formationName string) ([]int64, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.SelectFormation")
	defer span.End()

	formation, ok := position.FormationByName(formationName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown formation %q", ErrInvalidInput, formationName)
	}

	players, err := s.players.ListByTeam(ctx, s.teamID, true)
	if err != nil {
		return nil, fmt.Errorf("list roster players: %w", err)
	}

	now := s.now()
	candidates := make([]position.Candidate, 0, len(players))
	for _, p := range players {
		data := player.Attributes{}
		if p.LatestSnapshotID != nil {
			snap, found, err := s.players.GetSnapshot(ctx, *p.LatestSnapshotID)
			if err != nil {
				return nil, fmt.Errorf("get latest snapshot for player %d: %w", p.ID, err)
			}
			if found {
				data = snap.Data
			}
		}

		scores := position.ComputeScores(data)
		best, _ := scores.Best()
		candidates = append(candidates, position.Candidate{
			PlayerID:            p.ID,
			BestPosition:        best,
			Scores:              scores,
			HasPlayedThisPeriod: hasPlayedThisPeriod(data, now),
		})
	}

	return position.SelectBestForFormation(candidates, formation), nil
}

// hasPlayedThisPeriod checks the LastMatch date in the attribute bag against
// the current match week.
func hasPlayedThisPeriod(data player.Attributes, now time.Time) bool {
	lastMatch, ok := data["LastMatch"].(map[string]any)
	if !ok {
		return false
	}
	dateStr, ok := lastMatch["Date"].(string)
	if !ok || dateStr == "" {
		return false
	}

	matchDate, err := parseFeedTime(dateStr)
	if err != nil {
		return false
	}

	start, end := match.MatchPeriod(now)
	return !matchDate.Before(start) && matchDate.Before(end)
}

func injuryDaysRemaining(data player.Attributes) *int {
	level, ok := player.NumericAttr(data, player.AttrInjuryLevel)
	if !ok || level <= 0 {
		return nil
	}
	days := int(level)
	return &days
}

// parseFeedTime accepts the CHPP timestamp shape and a few ISO variants.
func parseFeedTime(value string) (time.Time, error) {
	layouts := []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
