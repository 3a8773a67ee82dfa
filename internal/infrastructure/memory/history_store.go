// Package memory provides in-process stores used in standalone mode,
// when neither PostgreSQL nor Redis is reachable, and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fraud-feature-engine/internal/domain/transaction"
)

// HistoryStore keeps raw transactions per entity, ascending by timestamp
type HistoryStore struct {
	mu       sync.RWMutex
	entities map[string][]transaction.Record
}

// NewHistoryStore creates an empty history store
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{entities: make(map[string][]transaction.Record)}
}

// Recent returns at most limit records of entityID strictly before the given instant
func (s *HistoryStore) Recent(ctx context.Context, entityID string, before time.Time, limit int) ([]transaction.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.entities[entityID]
	end := sort.Search(len(records), func(i int) bool {
		return !records[i].Timestamp.Before(before)
	})

	start := 0
	if limit > 0 && end > limit {
		start = end - limit
	}

	out := make([]transaction.Record, end-start)
	copy(out, records[start:end])
	return out, nil
}

// Append stores records keeping each entity sorted; ties keep arrival order
func (s *HistoryStore) Append(ctx context.Context, records ...transaction.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]struct{})
	for _, r := range records {
		s.entities[r.EntityID] = append(s.entities[r.EntityID], r)
		touched[r.EntityID] = struct{}{}
	}
	for id := range touched {
		list := s.entities[id]
		sort.SliceStable(list, func(a, b int) bool {
			return list[a].Timestamp.Before(list[b].Timestamp)
		})
	}
	return nil
}

// Len returns the number of stored records
func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, list := range s.entities {
		n += len(list)
	}
	return n
}
