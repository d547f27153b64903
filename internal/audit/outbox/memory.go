package outbox

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// InMemoryStore keeps the outbox in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[uuid.UUID]*Entry)}
}

func (s *InMemoryStore) Append(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *entry
	s.entries[entry.ID] = &stored
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.entries, entry.ID)
	})
	return nil
}

func (s *InMemoryStore) FetchUnprocessed(_ context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0)
	for _, e := range s.entries {
		if e.IsPending() {
			copied := *e
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) MarkProcessed(ctx context.Context, entryID uuid.UUID, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok || !e.IsPending() {
		return sentinel.ErrNotFound
	}
	at := processedAt
	e.ProcessedAt = &at
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		e.ProcessedAt = nil
	})
	return nil
}

func (s *InMemoryStore) Pending(_ context.Context) (Backlog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var b Backlog
	for _, e := range s.entries {
		if !e.IsPending() {
			continue
		}
		b.Count++
		if b.Oldest.IsZero() || e.CreatedAt.Before(b.Oldest) {
			b.Oldest = e.CreatedAt
		}
	}
	return b, nil
}

func (s *InMemoryStore) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, e := range s.entries {
		if e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}
