package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/htdash/htdash/internal/domain/match"
)

type MatchRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]match.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{items: make(map[int64]match.Match)}
}

func (r *MatchRepository) Upsert(_ context.Context, m match.Match) (match.Match, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for id, existing := range r.items {
		if existing.ExternalID != m.ExternalID {
			continue
		}
		existing.HomeGoals = m.HomeGoals
		existing.AwayGoals = m.AwayGoals
		existing.Status = m.Status
		existing.OrdersGiven = m.OrdersGiven
		existing.CupLevel = m.CupLevel
		existing.CupLevelIndex = m.CupLevelIndex
		existing.UpdatedAt = now
		r.items[id] = existing
		return existing, false, nil
	}

	r.nextID++
	m.ID = r.nextID
	m.CreatedAt = now
	m.UpdatedAt = now
	r.items[m.ID] = m
	return m, true, nil
}

func (r *MatchRepository) GetByID(_ context.Context, matchID int64) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[matchID]
	return item, ok, nil
}

func (r *MatchRepository) GetByExternalID(_ context.Context, externalID int64) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.items {
		if m.ExternalID == externalID {
			return m, true, nil
		}
	}
	return match.Match{}, false, nil
}

func (r *MatchRepository) List(_ context.Context, teamID int64, limit int) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.items))
	for _, m := range r.items {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	sortMatchesNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MatchRepository) ListFinishedOfficialSince(_ context.Context, teamID int64, since time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, m := range r.items {
		if m.TeamID != teamID || m.Status != match.StatusFinished || !m.IsOfficial() {
			continue
		}
		if m.Date.Before(since) {
			continue
		}
		out = append(out, m)
	}
	sortMatchesNewestFirst(out)
	return out, nil
}

func sortMatchesNewestFirst(items []match.Match) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].ID > items[j].ID
	})
}
