package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/htdash/htdash/internal/domain/match"
	"github.com/htdash/htdash/internal/domain/player"
	"github.com/htdash/htdash/internal/domain/syncrun"
	"github.com/htdash/htdash/internal/platform/logging"
)

// SyncResult is the summary returned by one sync cycle.
type SyncResult struct {
	SyncRunID          int64 `json:"syncRunId"`
	TotalPlayers       int   `json:"totalPlayers"`
	PlayersCreated     int   `json:"playersCreated"`
	PlayersUpdated     int   `json:"playersUpdated"`
	PlayersDeactivated int64 `json:"playersDeactivated"`
	TotalChanges       int   `json:"totalChanges"`
	MatchesSynced      int   `json:"matchesSynced"`
}

// SyncService runs the snapshot-diff pipeline: fetch the roster, record each
// player in its own transaction, flag the disappeared ones inactive, then
// refresh matches. A SyncRun row brackets every invocation.
type SyncService struct {
	feed    Feed
	players player.Repository
	matches match.Repository
	runs    syncrun.Repository
	teamID  int64
	logger  *logging.Logger
	now     func() time.Time
}

func NewSyncService(
	feed Feed,
	players player.Repository,
	matches match.Repository,
	runs syncrun.Repository,
	teamID int64,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		feed:    feed,
		players: players,
		matches: matches,
		runs:    runs,
		teamID:  teamID,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one sync cycle. Any feed or storage error aborts the run and
// marks the SyncRun FAILED; per-player transactions already committed stay
// committed.
func (s *SyncService) Run(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "SyncService.Run")
	defer span.End()

	run, err := s.runs.Create(ctx, syncrun.SyncRun{
		StartedAt: s.now(),
		Status:    syncrun.StatusPending,
	})
	if err != nil {
		return SyncResult{}, fmt.Errorf("create sync run: %w", err)
	}

	result, err := s.runCycle(ctx, &run)
	result.SyncRunID = run.ID

	completed := s.now()
	run.CompletedAt = &completed
	run.ChangesCount = int64(result.TotalChanges)
	if err != nil {
		run.Status = syncrun.StatusFailed
		msg := err.Error()
		run.Message = &msg
		if finalizeErr := s.runs.Finalize(ctx, run); finalizeErr != nil {
			s.logger.ErrorContext(ctx, "finalize failed sync run", "sync_run_id", run.ID, "error", finalizeErr)
		}
		return result, err
	}

	run.Status = syncrun.StatusSuccess
	if err := s.runs.Finalize(ctx, run); err != nil {
		return result, fmt.Errorf("finalize sync run %d: %w", run.ID, err)
	}

	s.logger.InfoContext(ctx, "sync cycle completed",
		"sync_run_id", run.ID,
		"players", result.TotalPlayers,
		"created", result.PlayersCreated,
		"updated", result.PlayersUpdated,
		"deactivated", result.PlayersDeactivated,
		"changes", result.TotalChanges,
		"matches", result.MatchesSynced,
	)
	return result, nil
}

func (s *SyncService) runCycle(ctx context.Context, run *syncrun.SyncRun) (SyncResult, error) {
	var result SyncResult

	records, avatars, err := s.fetchRoster(ctx)
	if err != nil {
		return result, err
	}
	result.TotalPlayers = len(records)

	avatarsByPlayer := make(map[int64]ExternalAvatar, len(avatars))
	for _, a := range avatars {
		avatarsByPlayer[a.PlayerExternalID] = a
	}

	fetchedAt := s.now()
	seen := make([]int64, 0, len(records))
	for _, record := range records {
		data := player.Attributes(record.Attributes)
		if data == nil {
			data = player.Attributes{}
		}
		if avatar, ok := avatarsByPlayer[record.ExternalID]; ok {
			data[player.AttrAvatar] = avatar
		}

		outcome, err := s.players.RecordObservation(ctx, player.Observation{
			ExternalID: record.ExternalID,
			TeamID:     record.TeamID,
			Name:       record.Name,
			Data:       data,
			FetchedAt:  fetchedAt,
		})
		if err != nil {
			return result, fmt.Errorf("record player %d: %w", record.ExternalID, err)
		}

		seen = append(seen, record.ExternalID)
		if outcome.Created {
			result.PlayersCreated++
		} else if outcome.ChangesCount > 0 {
			result.PlayersUpdated++
		}
		result.TotalChanges += outcome.ChangesCount
	}

	// An empty roster is far more likely a feed hiccup than a real squad
	// wipe, so it never deactivates the whole team.
	if len(seen) == 0 {
		s.logger.WarnContext(ctx, "feed returned zero players, skipping deactivation", "sync_run_id", run.ID)
	} else {
		deactivated, err := s.players.DeactivateMissing(ctx, s.teamID, seen)
		if err != nil {
			return result, fmt.Errorf("deactivate missing players: %w", err)
		}
		result.PlayersDeactivated = deactivated
	}

	synced, err := s.syncMatches(ctx)
	if err != nil {
		return result, err
	}
	result.MatchesSynced = synced

	return result, nil
}

// fetchRoster pulls players and avatars concurrently; either failure aborts.
func (s *SyncService) fetchRoster(ctx context.Context) ([]ExternalPlayerRecord, []ExternalAvatar, error) {
	var (
		records []ExternalPlayerRecord
		avatars []ExternalAvatar
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		fetched, err := s.feed.FetchPlayers(ctx)
		if err != nil {
			return fmt.Errorf("fetch players: %w", err)
		}
		records = fetched
		return nil
	})
	p.Go(func(ctx context.Context) error {
		fetched, err := s.feed.FetchAvatars(ctx)
		if err != nil {
			return fmt.Errorf("fetch avatars: %w", err)
		}
		avatars = fetched
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, nil, err
	}
	return records, avatars, nil
}

func (s *SyncService) syncMatches(ctx context.Context) (int, error) {
	fetched, err := s.feed.FetchMatches(ctx, s.teamID)
	if err != nil {
		return 0, fmt.Errorf("fetch matches: %w", err)
	}

	synced := 0
	for _, em := range fetched {
		m := match.Match{
			ExternalID: em.ExternalID,
			TeamID:     em.TeamID,
			Date:       em.Date,
			Home: match.Side{
				ID:        em.HomeID,
				Name:      em.HomeName,
				ShortName: em.HomeShortName,
			},
			Away: match.Side{
				ID:        em.AwayID,
				Name:      em.AwayName,
				ShortName: em.AwayShortName,
			},
			HomeGoals:     em.HomeGoals,
			AwayGoals:     em.AwayGoals,
			Status:        match.Status(em.Status),
			Type:          match.TypeFromCode(em.TypeCode),
			ContextID:     em.ContextID,
			CupLevel:      em.CupLevel,
			CupLevelIndex: em.CupLevelIndex,
			SourceSystem:  em.SourceSystem,
			OrdersGiven:   em.OrdersGiven,
		}
		if m.TeamID == 0 {
			m.TeamID = s.teamID
		}
		if _, _, err := s.matches.Upsert(ctx, m); err != nil {
			return synced, fmt.Errorf("upsert match %d: %w", em.ExternalID, err)
		}
		synced++
	}
	return synced, nil
}

// GetSyncRun returns one audit row.
func (s *SyncService) GetSyncRun(ctx context.Context, runID int64) (syncrun.SyncRun, error) {
	ctx, span := startUsecaseSpan(ctx, "SyncService.GetSyncRun")
	defer span.End()

	if runID <= 0 {
		return syncrun.SyncRun{}, fmt.Errorf("%w: sync run id must be greater than zero", ErrInvalidInput)
	}
	run, found, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return syncrun.SyncRun{}, fmt.Errorf("get sync run %d: %w", runID, err)
	}
	if !found {
		return syncrun.SyncRun{}, fmt.Errorf("%w: sync run %d", ErrNotFound, runID)
	}
	return run, nil
}

// ListSyncRuns returns recent audit rows, newest first.
func (s *SyncService) ListSyncRuns(ctx context.Context, limit int) ([]syncrun.SyncRun, error) {
	ctx, span := startUsecaseSpan(ctx, "SyncService.ListSyncRuns")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}
