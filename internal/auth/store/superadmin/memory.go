package superadmin

import (
	"context"
	"fmt"
	"sync"

	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

// InMemory stores super admins in memory.
type InMemory struct {
	mu      sync.RWMutex
	admins  map[id.AdminID]*models.SuperAdmin
	byEmail map[string]id.AdminID
}

func NewInMemory() *InMemory {
	return &InMemory{
		admins:  make(map[id.AdminID]*models.SuperAdmin),
		byEmail: make(map[string]id.AdminID),
	}
}

func (s *InMemory) Create(_ context.Context, a *models.SuperAdmin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[a.Email]; exists {
		return fmt.Errorf("super admin %q: %w", a.Email, sentinel.ErrConflict)
	}
	cp := *a
	s.admins[a.ID] = &cp
	s.byEmail[a.Email] = a.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, adminID id.AdminID) (*models.SuperAdmin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[adminID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.SuperAdmin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	adminID, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.admins[adminID]
	return &cp, nil
}
