package venue

import (
	"context"
	"sort"
	"sync"

	"tenantgate/internal/venue/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// InMemory stores venues in memory for development and tests.
type InMemory struct {
	mu     sync.RWMutex
	venues map[id.VenueID]*models.Venue
}

func NewInMemory() *InMemory {
	return &InMemory{venues: make(map[id.VenueID]*models.Venue)}
}

func (s *InMemory) Create(ctx context.Context, v *models.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.venues[v.ID] = &cp
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.venues, v.ID)
	})
	return nil
}

// FindByID only matches venues of tenantID.
func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID, venueID id.VenueID) (*models.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[venueID]
	if !ok || v.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Venue, 0)
	for _, v := range s.venues {
		if v.TenantID == tenantID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Delete(ctx context.Context, tenantID id.TenantID, venueID id.VenueID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[venueID]
	if !ok || v.TenantID != tenantID {
		return sentinel.ErrNotFound
	}
	delete(s.venues, venueID)
	tx.OnRollback(ctx, func() { s.restore(v) })
	return nil
}

// DeleteByTenant mirrors the ON DELETE CASCADE of the SQL schema.
func (s *InMemory) DeleteByTenant(ctx context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for venueID, v := range s.venues {
		if v.TenantID == tenantID {
			delete(s.venues, venueID)
			tx.OnRollback(ctx, func() { s.restore(v) })
		}
	}
	return nil
}

func (s *InMemory) restore(v *models.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues[v.ID] = v
}
