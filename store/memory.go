package store

import (
	"context"
	"sort"
	"sync"

	"stocksignals/models"
)

// MemorySnapshotStore keeps snapshots in process. History is lost on restart.
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	shops map[string][]models.Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{shops: make(map[string][]models.Snapshot)}
}

func (s *MemorySnapshotStore) History(ctx context.Context, shopID string, limit int) ([]models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.shops[shopID]
	if limit > len(all) {
		limit = len(all)
	}
	if limit < 0 {
		limit = 0
	}
	out := make([]models.Snapshot, limit)
	copy(out, all[:limit])
	return out, nil
}

func (s *MemorySnapshotStore) Append(ctx context.Context, snapshot models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.shops[snapshot.ShopID], snapshot)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CapturedAt.After(list[j].CapturedAt)
	})
	s.shops[snapshot.ShopID] = list
	return nil
}
