package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/htdash/htdash/internal/domain/syncrun"
)

type SyncRunRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]syncrun.SyncRun
}

func NewSyncRunRepository() *SyncRunRepository {
	return &SyncRunRepository{items: make(map[int64]syncrun.SyncRun)}
}

func (r *SyncRunRepository) Create(_ context.Context, run syncrun.SyncRun) (syncrun.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	run.ID = r.nextID
	r.items[run.ID] = run
	return run, nil
}

func (r *SyncRunRepository) Finalize(_ context.Context, run syncrun.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[run.ID] = run
	return nil
}

func (r *SyncRunRepository) GetByID(_ context.Context, runID int64) (syncrun.SyncRun, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[runID]
	return item, ok, nil
}

func (r *SyncRunRepository) List(_ context.Context, limit int) ([]syncrun.SyncRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]syncrun.SyncRun, 0, len(r.items))
	for _, run := range r.items {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
