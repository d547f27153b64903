package platformuser

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

type providerKey struct {
	provider string
	subject  string
}

// InMemory stores federated platform users in memory.
type InMemory struct {
	mu         sync.RWMutex
	users      map[id.PlatformUserID]*models.PlatformUser
	byProvider map[providerKey]id.PlatformUserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:      make(map[id.PlatformUserID]*models.PlatformUser),
		byProvider: make(map[providerKey]id.PlatformUserID),
	}
}

func (s *InMemory) Create(_ context.Context, u *models.PlatformUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := providerKey{u.Provider, u.ProviderSubject}
	if _, exists := s.byProvider[key]; exists {
		return fmt.Errorf("platform user %s/%s: %w", u.Provider, u.ProviderSubject, sentinel.ErrConflict)
	}
	s.users[u.ID] = copyUser(u)
	s.byProvider[key] = u.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.PlatformUserID) (*models.PlatformUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *InMemory) FindByProviderSubject(_ context.Context, provider, subject string) (*models.PlatformUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byProvider[providerKey{provider, subject}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyUser(s.users[userID]), nil
}

// UnlinkTenant clears the tenant link of every user pointing at tenantID.
func (s *InMemory) UnlinkTenant(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TenantID != nil && *u.TenantID == tenantID {
			u.TenantID = nil
		}
	}
	return nil
}

func copyUser(u *models.PlatformUser) *models.PlatformUser {
	cp := *u
	cp.Roles = slices.Clone(u.Roles)
	if u.TenantID != nil {
		tenantID := *u.TenantID
		cp.TenantID = &tenantID
	}
	return &cp
}
