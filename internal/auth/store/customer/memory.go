package customer

import (
	"context"
	"fmt"
	"sync"

	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

type emailKey struct {
	tenantID id.TenantID
	email    string
}

// InMemory stores customer-portal accounts in memory.
type InMemory struct {
	mu        sync.RWMutex
	customers map[id.CustomerID]*models.Customer
	byEmail   map[emailKey]id.CustomerID
}

func NewInMemory() *InMemory {
	return &InMemory{
		customers: make(map[id.CustomerID]*models.Customer),
		byEmail:   make(map[emailKey]id.CustomerID),
	}
}

func (s *InMemory) Create(ctx context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := emailKey{c.TenantID, c.Email}
	if _, exists := s.byEmail[key]; exists {
		return fmt.Errorf("customer %q: %w", c.Email, sentinel.ErrConflict)
	}
	cp := *c
	s.customers[c.ID] = &cp
	s.byEmail[key] = c.ID
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.customers, c.ID)
		delete(s.byEmail, key)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID, customerID id.CustomerID) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[customerID]
	if !ok || c.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) FindByEmail(_ context.Context, tenantID id.TenantID, email string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customerID, ok := s.byEmail[emailKey{tenantID, email}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.customers[customerID]
	return &cp, nil
}

func (s *InMemory) DeleteByTenant(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for customerID, c := range s.customers {
		if c.TenantID == tenantID {
			delete(s.byEmail, emailKey{c.TenantID, c.Email})
			delete(s.customers, customerID)
		}
	}
	return nil
}
