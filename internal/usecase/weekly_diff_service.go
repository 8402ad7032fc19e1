package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/htdash/htdash/internal/domain/player"
	"github.com/htdash/htdash/internal/platform/logging"
)

const weeklyDiffWindow = 7 * 24 * time.Hour

// FieldTrend is one tracked field's movement between a player's current
// snapshot and their roughly week-old one. Nil means the value was missing
// or non-numeric on that side.
type FieldTrend struct {
	Current  *float64 `json:"current"`
	Previous *float64 `json:"previous"`
	Delta    *float64 `json:"delta"`
}

// WeeklyDiff maps tracked field name to its trend for one player.
type WeeklyDiff map[string]FieldTrend

// WeeklyDiffService computes read-side weekly trends; nothing is persisted.
type WeeklyDiffService struct {
	players    player.Repository
	logger     *logging.Logger
	maxWorkers int
	now        func() time.Time
}

func NewWeeklyDiffService(players player.Repository, maxWorkers int, logger *logging.Logger) *WeeklyDiffService {
	if logger == nil {
		logger = logging.Default()
	}
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &WeeklyDiffService{
		players:    players,
		logger:     logger,
		maxWorkers: maxWorkers,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ForPlayers computes the weekly diff for each given player id. Players
// without snapshots get an empty diff rather than an error.
func (s *WeeklyDiffService) ForPlayers(ctx context.Context, playerIDs []int64) (map[int64]WeeklyDiff, error) {
	ctx, span := startUsecaseSpan(ctx, "WeeklyDiffService.ForPlayers")
	defer span.End()

	out := make(map[int64]WeeklyDiff, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}

	workers := s.maxWorkers
	if workers > len(playerIDs) {
		workers = len(playerIDs)
	}
	workerPool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create weekly diff worker pool: %w", err)
	}
	defer workerPool.Release()

	cutoff := s.now().Add(-weeklyDiffWindow)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, playerID := range playerIDs {
		playerID := playerID
		wg.Add(1)
		if err := workerPool.Submit(func() {
			defer wg.Done()

			diff, err := s.forPlayer(ctx, playerID, cutoff)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			out[playerID] = diff
		}); err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("submit weekly diff task: %w", err)
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (s *WeeklyDiffService) forPlayer(ctx context.Context, playerID int64, cutoff time.Time) (WeeklyDiff, error) {
	snapshots, err := s.players.ListSnapshots(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for player %d: %w", playerID, err)
	}
	if len(snapshots) == 0 {
		return WeeklyDiff{}, nil
	}

	current := snapshots[0]

	// Walk newest first for the first snapshot old enough; a player with
	// less than a week of history falls back to their oldest snapshot,
	// which makes every delta zero instead of an error.
	previous := snapshots[len(snapshots)-1]
	for _, snap := range snapshots {
		if !snap.FetchedAt.After(cutoff) {
			previous = snap
			break
		}
	}

	diff := make(WeeklyDiff, len(player.TrackedFields))
	for _, field := range player.TrackedFields {
		trend := FieldTrend{}
		if v, ok := player.NumericAttr(current.Data, field); ok {
			cv := v
			trend.Current = &cv
		}
		if v, ok := player.NumericAttr(previous.Data, field); ok {
			pv := v
			trend.Previous = &pv
		}
		if trend.Current != nil && trend.Previous != nil {
			d := *trend.Current - *trend.Previous
			trend.Delta = &d
		}
		diff[field] = trend
	}
	return diff, nil
}
