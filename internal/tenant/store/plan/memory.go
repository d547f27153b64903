package plan

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

// InMemory stores plans in memory.
type InMemory struct {
	mu      sync.RWMutex
	plans   map[id.PlanID]*models.Plan
	slugIdx map[string]id.PlanID
}

func NewInMemory() *InMemory {
	return &InMemory{
		plans:   make(map[id.PlanID]*models.Plan),
		slugIdx: make(map[string]id.PlanID),
	}
}

func (s *InMemory) Create(_ context.Context, p *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.slugIdx[p.Slug]; exists {
		return fmt.Errorf("plan slug %q: %w", p.Slug, sentinel.ErrConflict)
	}
	s.plans[p.ID] = clonePlan(p)
	s.slugIdx[p.Slug] = p.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, p *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.plans[p.ID] = clonePlan(p)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, planID id.PlanID) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePlan(p), nil
}

func (s *InMemory) FindBySlug(ctx context.Context, slug string) (*models.Plan, error) {
	s.mu.RLock()
	planID, ok := s.slugIdx[slug]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, planID)
}

func (s *InMemory) List(_ context.Context) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, clonePlan(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func clonePlan(p *models.Plan) *models.Plan {
	cp := *p
	cp.Limits = maps.Clone(p.Limits)
	cp.Features = maps.Clone(p.Features)
	return &cp
}
