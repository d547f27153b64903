package user

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

type emailKey struct {
	tenantID id.TenantID
	email    string
}

// InMemory stores tenant users in memory. Email uniqueness is per tenant.
type InMemory struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.TenantUser
	byEmail map[emailKey]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[id.UserID]*models.TenantUser),
		byEmail: make(map[emailKey]id.UserID),
	}
}

func (s *InMemory) Create(ctx context.Context, u *models.TenantUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := emailKey{u.TenantID, u.Email}
	if _, exists := s.byEmail[key]; exists {
		return fmt.Errorf("tenant user %q: %w", u.Email, sentinel.ErrConflict)
	}
	s.users[u.ID] = copyUser(u)
	s.byEmail[key] = u.ID
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.users, u.ID)
		delete(s.byEmail, key)
	})
	return nil
}

// FindByID only matches users of tenantID.
func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID, userID id.UserID) (*models.TenantUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *InMemory) FindByEmail(_ context.Context, tenantID id.TenantID, email string) (*models.TenantUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[emailKey{tenantID, email}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyUser(s.users[userID]), nil
}

func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.TenantUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.TenantUser, 0)
	for _, u := range s.users {
		if u.TenantID == tenantID {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) UpdateAccess(ctx context.Context, tenantID id.TenantID, userID id.UserID, roles []models.Role, permissions []string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.TenantID != tenantID {
		return sentinel.ErrNotFound
	}
	prev := copyUser(u)
	u.Roles = slices.Clone(roles)
	u.ExplicitPermissions = slices.Clone(permissions)
	u.UpdatedAt = updatedAt
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.users[prev.ID]; ok {
			s.users[prev.ID] = prev
		}
	})
	return nil
}

func (s *InMemory) Delete(ctx context.Context, tenantID id.TenantID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.TenantID != tenantID {
		return sentinel.ErrNotFound
	}
	key := emailKey{u.TenantID, u.Email}
	delete(s.users, userID)
	delete(s.byEmail, key)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.users[u.ID] = u
		s.byEmail[key] = u.ID
	})
	return nil
}

// DeleteByTenant mirrors the ON DELETE CASCADE of the SQL schema.
func (s *InMemory) DeleteByTenant(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, u := range s.users {
		if u.TenantID == tenantID {
			delete(s.byEmail, emailKey{u.TenantID, u.Email})
			delete(s.users, userID)
		}
	}
	return nil
}

func copyUser(u *models.TenantUser) *models.TenantUser {
	cp := *u
	cp.Roles = slices.Clone(u.Roles)
	cp.ExplicitPermissions = slices.Clone(u.ExplicitPermissions)
	return &cp
}
