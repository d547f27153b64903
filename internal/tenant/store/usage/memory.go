package usage

import (
	"context"
	"math"
	"sync"

	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	pSync "tenantgate/pkg/platform/sync"
	"tenantgate/pkg/platform/tx"
)

type counterKey struct {
	tenantID id.TenantID
	limit    models.LimitKey
	period   string
}

// InMemory keeps usage counters in memory. Check-and-increment is atomic per
// tenant via a sharded mutex; reservations made inside a memory transaction
// are undone if the transaction fails.
type InMemory struct {
	locks *pSync.ShardedMutex

	mu       sync.RWMutex
	counters map[counterKey]int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		locks:    pSync.NewShardedMutex(),
		counters: make(map[counterKey]int64),
	}
}

// Reserve adds delta to the counter iff the result stays within limit.
// A negative ceiling means unlimited. Returns the new value, or sentinel.ErrLimitReached.
func (s *InMemory) Reserve(ctx context.Context, tenantID id.TenantID, limit models.LimitKey, period string, delta, ceiling int64) (int64, error) {
	if ceiling < 0 {
		ceiling = math.MaxInt64
	}
	key := counterKey{tenantID, limit, period}
	shard := tenantID.String()

	s.locks.Lock(shard)
	defer s.locks.Unlock(shard)

	current := s.get(key)
	if delta > ceiling-current {
		return current, sentinel.ErrLimitReached
	}
	s.set(key, current+delta)

	tx.OnRollback(ctx, func() {
		s.locks.With(shard, func() {
			s.set(key, max(s.get(key)-delta, 0))
		})
	})
	return current + delta, nil
}

// Release decrements the counter, never below zero.
func (s *InMemory) Release(ctx context.Context, tenantID id.TenantID, limit models.LimitKey, period string, delta int64) error {
	key := counterKey{tenantID, limit, period}
	shard := tenantID.String()

	s.locks.Lock(shard)
	defer s.locks.Unlock(shard)

	prev := s.get(key)
	s.set(key, max(prev-delta, 0))
	tx.OnRollback(ctx, func() {
		s.locks.With(shard, func() { s.set(key, prev) })
	})
	return nil
}

func (s *InMemory) Get(_ context.Context, tenantID id.TenantID, limit models.LimitKey, period string) (int64, error) {
	return s.get(counterKey{tenantID, limit, period}), nil
}

// DeleteByTenant drops every counter for the tenant.
func (s *InMemory) DeleteByTenant(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.counters {
		if k.tenantID == tenantID {
			delete(s.counters, k)
		}
	}
	return nil
}

func (s *InMemory) get(k counterKey) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[k]
}

func (s *InMemory) set(k counterKey, v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[k] = v
}
