package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/htdash/htdash/internal/domain/player"
)

// PlayerRepository is the in-memory test double. It mirrors the transactional
// postgres semantics closely enough for use case tests: hash fast path,
// latest-pointer move, change rows against the previous snapshot.
type PlayerRepository struct {
	mu         sync.RWMutex
	nextID     int64
	nextSnapID int64
	nextChgID  int64
	players    map[int64]player.Player
	snapshots  map[int64]player.Snapshot
	changes    []player.Change
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{
		players:   make(map[int64]player.Player),
		snapshots: make(map[int64]player.Snapshot),
	}
}

func (r *PlayerRepository) RecordObservation(_ context.Context, obs player.Observation) (player.SyncOutcome, error) {
	if err := obs.Validate(); err != nil {
		return player.SyncOutcome{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	var existing *player.Player
	for id, p := range r.players {
		if p.ExternalID == obs.ExternalID && p.TeamID == obs.TeamID {
			item := r.players[id]
			existing = &item
			break
		}
	}

	outcome := player.SyncOutcome{}
	var current player.Player
	if existing == nil {
		r.nextID++
		current = player.Player{
			ID:         r.nextID,
			ExternalID: obs.ExternalID,
			TeamID:     obs.TeamID,
			Name:       obs.Name,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		outcome.Created = true
	} else {
		current = *existing
		current.Name = obs.Name
		current.Active = true
		current.UpdatedAt = now
	}
	outcome.PlayerID = current.ID

	newHash := player.HashRecord(obs.Data)

	var previous *player.Snapshot
	if current.LatestSnapshotID != nil {
		snap := r.snapshots[*current.LatestSnapshotID]
		previous = &snap
	}

	if previous != nil && previous.Hash == newHash {
		r.players[current.ID] = current
		return outcome, nil
	}

	r.nextSnapID++
	snap := player.Snapshot{
		ID:        r.nextSnapID,
		PlayerID:  current.ID,
		FetchedAt: obs.FetchedAt,
		Data:      cloneAttributes(obs.Data),
		Hash:      newHash,
	}
	r.snapshots[snap.ID] = snap
	snapID := snap.ID
	current.LatestSnapshotID = &snapID
	r.players[current.ID] = current
	outcome.SnapshotID = snap.ID
	outcome.SnapshotNew = true

	if previous != nil {
		for _, d := range player.DiffRecords(previous.Data, obs.Data) {
			r.nextChgID++
			r.changes = append(r.changes, player.Change{
				ID:         r.nextChgID,
				PlayerID:   current.ID,
				SnapshotID: snap.ID,
				FieldName:  d.Field,
				OldValue:   d.Old,
				NewValue:   d.New,
				RecordedAt: now,
			})
			outcome.ChangesCount++
		}
	}

	return outcome, nil
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID int64) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.players[playerID]
	return item, ok, nil
}

func (r *PlayerRepository) GetByExternalID(_ context.Context, externalID int64) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.players {
		if p.ExternalID == externalID {
			return p, true, nil
		}
	}
	return player.Player{}, false, nil
}

func (r *PlayerRepository) ListByTeam(_ context.Context, teamID int64, activeOnly bool) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(r.players))
	for _, p := range r.players {
		if p.TeamID != teamID {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PlayerRepository) DeactivateMissing(_ context.Context, teamID int64, seenExternalIDs []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[int64]struct{}, len(seenExternalIDs))
	for _, id := range seenExternalIDs {
		seen[id] = struct{}{}
	}

	var affected int64
	for id, p := range r.players {
		if p.TeamID != teamID || !p.Active {
			continue
		}
		if _, ok := seen[p.ExternalID]; ok {
			continue
		}
		p.Active = false
		p.UpdatedAt = time.Now().UTC()
		r.players[id] = p
		affected++
	}
	return affected, nil
}

func (r *PlayerRepository) ListSnapshots(_ context.Context, playerID int64) ([]player.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Snapshot, 0)
	for _, s := range r.snapshots {
		if s.PlayerID == playerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FetchedAt.Equal(out[j].FetchedAt) {
			return out[i].FetchedAt.After(out[j].FetchedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *PlayerRepository) GetSnapshot(_ context.Context, snapshotID int64) (player.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.snapshots[snapshotID]
	return item, ok, nil
}

func (r *PlayerRepository) ListChangesByPlayer(_ context.Context, playerID int64, limit int) ([]player.Change, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Change, 0)
	for _, c := range r.changes {
		if c.PlayerID == playerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneAttributes(data player.Attributes) player.Attributes {
	copied := make(player.Attributes, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return copied
}
