package cache

import (
	"context"
	"testing"
	"time"

	"github.com/htdash/htdash/internal/domain/match"
	"github.com/htdash/htdash/internal/domain/player"
	"github.com/htdash/htdash/internal/infrastructure/repository/memory"
	basecache "github.com/htdash/htdash/internal/platform/cache"
)

func newPlayerFixture(t *testing.T) (*PlayerRepository, *memory.PlayerRepository) {
	t.Helper()
	next := memory.NewPlayerRepository()
	return NewPlayerRepository(next, basecache.NewStore(time.Minute)), next
}

func recordTestPlayer(t *testing.T, repo player.Repository, externalID int64, tsi int) player.SyncOutcome {
	t.Helper()
	outcome, err := repo.RecordObservation(context.Background(), player.Observation{
		ExternalID: externalID,
		TeamID:     42,
		Name:       "Test Player",
		Data:       player.Attributes{"TSI": tsi},
		FetchedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("record observation: %v", err)
	}
	return outcome
}

func TestPlayerRepository_ListByTeamServedFromCache(t *testing.T) {
	cached, next := newPlayerFixture(t)
	ctx := context.Background()
	recordTestPlayer(t, cached, 1001, 10000)

	first, err := cached.ListByTeam(ctx, 42, true)
	if err != nil {
		t.Fatalf("list by team: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("unexpected roster size: %d", len(first))
	}

	// Write behind the decorator's back: a cache hit must not see it.
	recordTestPlayer(t, next, 1002, 9000)

	second, err := cached.ListByTeam(ctx, 42, true)
	if err != nil {
		t.Fatalf("list by team: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected cached roster of 1, got %d", len(second))
	}
}

func TestPlayerRepository_RecordObservationInvalidatesRoster(t *testing.T) {
	cached, _ := newPlayerFixture(t)
	ctx := context.Background()
	recordTestPlayer(t, cached, 1001, 10000)

	if _, err := cached.ListByTeam(ctx, 42, true); err != nil {
		t.Fatalf("warm roster cache: %v", err)
	}

	recordTestPlayer(t, cached, 1002, 9000)

	roster, err := cached.ListByTeam(ctx, 42, true)
	if err != nil {
		t.Fatalf("list by team: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("expected refreshed roster of 2, got %d", len(roster))
	}
}

func TestPlayerRepository_DeactivateMissingInvalidates(t *testing.T) {
	cached, _ := newPlayerFixture(t)
	ctx := context.Background()
	recordTestPlayer(t, cached, 1001, 10000)
	recordTestPlayer(t, cached, 1002, 9000)

	if _, err := cached.ListByTeam(ctx, 42, true); err != nil {
		t.Fatalf("warm roster cache: %v", err)
	}

	affected, err := cached.DeactivateMissing(ctx, 42, []int64{1001})
	if err != nil {
		t.Fatalf("deactivate missing: %v", err)
	}
	if affected != 1 {
		t.Fatalf("unexpected deactivation count: %d", affected)
	}

	roster, err := cached.ListByTeam(ctx, 42, true)
	if err != nil {
		t.Fatalf("list by team: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected active roster of 1 after deactivation, got %d", len(roster))
	}
}

func TestPlayerRepository_SnapshotsCloned(t *testing.T) {
	cached, _ := newPlayerFixture(t)
	ctx := context.Background()
	outcome := recordTestPlayer(t, cached, 1001, 10000)

	snapshots, err := cached.ListSnapshots(ctx, outcome.PlayerID)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("unexpected snapshot count: %d", len(snapshots))
	}
	snapshots[0].Data["TSI"] = -1

	again, err := cached.ListSnapshots(ctx, outcome.PlayerID)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if got := again[0].Data["TSI"]; got == -1 {
		t.Fatalf("cached snapshot data was mutated through a returned copy")
	}
}

func TestMatchRepository_UpsertInvalidatesLists(t *testing.T) {
	next := memory.NewMatchRepository()
	cached := NewMatchRepository(next, basecache.NewStore(time.Minute))
	ctx := context.Background()

	seed := match.Match{
		ExternalID: 9001,
		TeamID:     42,
		Date:       time.Date(2026, 8, 29, 20, 0, 0, 0, time.UTC),
		Status:     match.StatusOngoing,
		Type:       match.TypeLeague,
	}
	stored, created, err := cached.Upsert(ctx, seed)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Fatalf("expected first upsert to create")
	}

	if _, err := cached.List(ctx, 42, 0); err != nil {
		t.Fatalf("warm list cache: %v", err)
	}

	one := 1
	two := 2
	seed.HomeGoals = &one
	seed.AwayGoals = &two
	seed.Status = match.StatusFinished
	if _, _, err := cached.Upsert(ctx, seed); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, exists, err := cached.GetByID(ctx, stored.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !exists {
		t.Fatalf("expected match %d to exist", stored.ID)
	}
	if got.Status != match.StatusFinished {
		t.Fatalf("expected refreshed status FINISHED, got %s", got.Status)
	}

	matches, err := cached.List(ctx, 42, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(matches) != 1 || matches[0].Status != match.StatusFinished {
		t.Fatalf("expected refreshed list with finished match, got %+v", matches)
	}
}
