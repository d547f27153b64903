package tenant

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// InMemory stores tenants in memory for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
	slugIdx map[string]id.TenantID
}

func NewInMemory() *InMemory {
	return &InMemory{
		tenants: make(map[id.TenantID]*models.Tenant),
		slugIdx: make(map[string]id.TenantID),
	}
}

// Create inserts t. A taken slug returns sentinel.ErrConflict.
func (s *InMemory) Create(ctx context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.slugIdx[t.Slug]; exists {
		return fmt.Errorf("tenant slug %q: %w", t.Slug, sentinel.ErrConflict)
	}
	cp := *t
	s.tenants[t.ID] = &cp
	s.slugIdx[t.Slug] = t.ID
	tx.OnRollback(ctx, func() { s.remove(t.ID) })
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *InMemory) FindBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenantID, ok := s.slugIdx[slug]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.tenants[tenantID]
	return &cp, nil
}

// List returns tenants ordered by creation time.
func (s *InMemory) List(_ context.Context) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// FindByIDForUpdate is FindByID. The memory runner already serializes
// transactions.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	return s.FindByID(ctx, tenantID)
}

func (s *InMemory) UpdateStatus(ctx context.Context, tenantID id.TenantID, status models.TenantStatus, updatedAt time.Time) error {
	return s.update(ctx, tenantID, func(t *models.Tenant) {
		t.Status = status
		t.UpdatedAt = updatedAt
	})
}

func (s *InMemory) UpdatePlan(ctx context.Context, tenantID id.TenantID, planID id.PlanID, updatedAt time.Time) error {
	return s.update(ctx, tenantID, func(t *models.Tenant) {
		t.PlanID = planID
		t.UpdatedAt = updatedAt
	})
}

func (s *InMemory) update(ctx context.Context, tenantID id.TenantID, apply func(*models.Tenant)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tenants[tenantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	prev := *existing
	apply(existing)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t, ok := s.tenants[prev.ID]; ok {
			*t = prev
		}
	})
	return nil
}

func (s *InMemory) Delete(ctx context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	t, ok := s.tenants[tenantID]
	if !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	prev := *t
	delete(s.tenants, tenantID)
	delete(s.slugIdx, t.Slug)
	s.mu.Unlock()

	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.tenants[prev.ID] = &prev
		s.slugIdx[prev.Slug] = prev.ID
	})
	return nil
}

func (s *InMemory) remove(tenantID id.TenantID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tenants[tenantID]; ok {
		delete(s.slugIdx, t.Slug)
		delete(s.tenants, tenantID)
	}
}
