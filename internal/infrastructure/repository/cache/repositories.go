package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/htdash/htdash/internal/domain/match"
	"github.com/htdash/htdash/internal/domain/player"
	basecache "github.com/htdash/htdash/internal/platform/cache"
)

type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) RecordObservation(ctx context.Context, obs player.Observation) (player.SyncOutcome, error) {
	outcome, err := r.next.RecordObservation(ctx, obs)
	if err != nil {
		return player.SyncOutcome{}, err
	}

	r.cache.DeletePrefix(ctx, playerListPrefix(obs.TeamID))
	r.cache.Delete(ctx, playerByIDKey(outcome.PlayerID))
	r.cache.Delete(ctx, playerByExternalIDKey(obs.ExternalID))
	r.cache.DeletePrefix(ctx, snapshotListPrefix(outcome.PlayerID))
	r.cache.DeletePrefix(ctx, changeListPrefix(outcome.PlayerID))
	return outcome, nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID int64) (player.Player, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, playerByIDKey(playerID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, playerID)
		if err != nil {
			return nil, err
		}
		return cachedPlayerByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return player.Player{}, false, err
	}

	cached, _ := v.(cachedPlayerByID)
	return cached.value, cached.exists, nil
}

func (r *PlayerRepository) GetByExternalID(ctx context.Context, externalID int64) (player.Player, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, playerByExternalIDKey(externalID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByExternalID(ctx, externalID)
		if err != nil {
			return nil, err
		}
		return cachedPlayerByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return player.Player{}, false, err
	}

	cached, _ := v.(cachedPlayerByID)
	return cached.value, cached.exists, nil
}

func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID int64, activeOnly bool) ([]player.Player, error) {
	key := playerListPrefix(teamID) + strconv.FormatBool(activeOnly)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByTeam(ctx, teamID, activeOnly)
		if err != nil {
			return nil, err
		}
		return append([]player.Player(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]player.Player)
	return append([]player.Player(nil), items...), nil
}

func (r *PlayerRepository) DeactivateMissing(ctx context.Context, teamID int64, seenExternalIDs []int64) (int64, error) {
	affected, err := r.next.DeactivateMissing(ctx, teamID, seenExternalIDs)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		r.cache.DeletePrefix(ctx, "player:")
	}
	return affected, nil
}

func (r *PlayerRepository) ListSnapshots(ctx context.Context, playerID int64) ([]player.Snapshot, error) {
	key := snapshotListPrefix(playerID) + "all"
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListSnapshots(ctx, playerID)
		if err != nil {
			return nil, err
		}
		out := make([]player.Snapshot, 0, len(items))
		for _, item := range items {
			out = append(out, cloneSnapshot(item))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]player.Snapshot)
	out := make([]player.Snapshot, 0, len(items))
	for _, item := range items {
		out = append(out, cloneSnapshot(item))
	}
	return out, nil
}

func (r *PlayerRepository) GetSnapshot(ctx context.Context, snapshotID int64) (player.Snapshot, bool, error) {
	key := "player:snapshot:id:" + strconv.FormatInt(snapshotID, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetSnapshot(ctx, snapshotID)
		if err != nil {
			return nil, err
		}
		return cachedSnapshotByID{value: cloneSnapshot(item), exists: exists}, nil
	})
	if err != nil {
		return player.Snapshot{}, false, err
	}

	cached, _ := v.(cachedSnapshotByID)
	return cloneSnapshot(cached.value), cached.exists, nil
}

func (r *PlayerRepository) ListChangesByPlayer(ctx context.Context, playerID int64, limit int) ([]player.Change, error) {
	key := changeListPrefix(playerID) + strconv.Itoa(limit)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListChangesByPlayer(ctx, playerID, limit)
		if err != nil {
			return nil, err
		}
		return append([]player.Change(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]player.Change)
	return append([]player.Change(nil), items...), nil
}

type cachedPlayerByID struct {
	value  player.Player
	exists bool
}

type cachedSnapshotByID struct {
	value  player.Snapshot
	exists bool
}

func cloneSnapshot(item player.Snapshot) player.Snapshot {
	out := item
	if item.Data != nil {
		out.Data = make(player.Attributes, len(item.Data))
		for k, v := range item.Data {
			out.Data[k] = v
		}
	}
	return out
}

func playerByIDKey(playerID int64) string {
	return "player:id:" + strconv.FormatInt(playerID, 10)
}

func playerByExternalIDKey(externalID int64) string {
	return "player:ext:" + strconv.FormatInt(externalID, 10)
}

func playerListPrefix(teamID int64) string {
	return "player:list:" + strconv.FormatInt(teamID, 10) + ":"
}

func snapshotListPrefix(playerID int64) string {
	return "player:snapshot:list:" + strconv.FormatInt(playerID, 10) + ":"
}

func changeListPrefix(playerID int64) string {
	return "player:change:list:" + strconv.FormatInt(playerID, 10) + ":"
}

type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) Upsert(ctx context.Context, m match.Match) (match.Match, bool, error) {
	stored, created, err := r.next.Upsert(ctx, m)
	if err != nil {
		return match.Match{}, false, err
	}

	r.cache.Delete(ctx, matchByIDKey(stored.ID))
	r.cache.Delete(ctx, matchByExternalIDKey(stored.ExternalID))
	r.cache.DeletePrefix(ctx, matchListPrefix(stored.TeamID))
	r.cache.DeletePrefix(ctx, matchOfficialPrefix(stored.TeamID))
	return stored, created, nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID int64) (match.Match, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, matchByIDKey(matchID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, matchID)
		if err != nil {
			return nil, err
		}
		return cachedMatchByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return match.Match{}, false, err
	}

	cached, _ := v.(cachedMatchByID)
	return cached.value, cached.exists, nil
}

func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID int64) (match.Match, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, matchByExternalIDKey(externalID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByExternalID(ctx, externalID)
		if err != nil {
			return nil, err
		}
		return cachedMatchByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return match.Match{}, false, err
	}

	cached, _ := v.(cachedMatchByID)
	return cached.value, cached.exists, nil
}

func (r *MatchRepository) List(ctx context.Context, teamID int64, limit int) ([]match.Match, error) {
	key := matchListPrefix(teamID) + strconv.Itoa(limit)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx, teamID, limit)
		if err != nil {
			return nil, err
		}
		return append([]match.Match(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]match.Match)
	return append([]match.Match(nil), items...), nil
}

func (r *MatchRepository) ListFinishedOfficialSince(ctx context.Context, teamID int64, since time.Time) ([]match.Match, error) {
	key := matchOfficialPrefix(teamID) + strconv.FormatInt(since.UTC().Unix(), 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListFinishedOfficialSince(ctx, teamID, since)
		if err != nil {
			return nil, err
		}
		return append([]match.Match(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]match.Match)
	return append([]match.Match(nil), items...), nil
}

type cachedMatchByID struct {
	value  match.Match
	exists bool
}

func matchByIDKey(matchID int64) string {
	return "match:id:" + strconv.FormatInt(matchID, 10)
}

func matchByExternalIDKey(externalID int64) string {
	return "match:ext:" + strconv.FormatInt(externalID, 10)
}

func matchListPrefix(teamID int64) string {
	return "match:list:" + strconv.FormatInt(teamID, 10) + ":"
}

func matchOfficialPrefix(teamID int64) string {
	return "match:official:" + strconv.FormatInt(teamID, 10) + ":"
}
