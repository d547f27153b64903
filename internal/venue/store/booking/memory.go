package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tenantgate/internal/venue/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

type slotKey struct {
	venueID id.VenueID
	date    time.Time
}

// InMemory stores bookings in memory. A venue holds at most one booking per
// event date.
type InMemory struct {
	mu       sync.RWMutex
	bookings map[id.BookingID]*models.Booking
	slots    map[slotKey]id.BookingID
}

func NewInMemory() *InMemory {
	return &InMemory{
		bookings: make(map[id.BookingID]*models.Booking),
		slots:    make(map[slotKey]id.BookingID),
	}
}

func (s *InMemory) Create(ctx context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := slotKey{b.VenueID, b.EventDate}
	if _, taken := s.slots[key]; taken {
		return fmt.Errorf("venue %s on %s: %w", b.VenueID, b.EventDate.Format(time.DateOnly), sentinel.ErrConflict)
	}
	cp := *b
	s.bookings[b.ID] = &cp
	s.slots[key] = b.ID
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.bookings, b.ID)
		delete(s.slots, key)
	})
	return nil
}

func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Booking, 0)
	for _, b := range s.bookings {
		if b.TenantID == tenantID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].EventDate.Before(out[j].EventDate)
	})
	return out, nil
}

// DeleteByVenue removes the bookings of a deleted venue.
func (s *InMemory) DeleteByVenue(ctx context.Context, tenantID id.TenantID, venueID id.VenueID) error {
	s.deleteWhere(ctx, func(b *models.Booking) bool {
		return b.TenantID == tenantID && b.VenueID == venueID
	})
	return nil
}

// DeleteByTenant mirrors the ON DELETE CASCADE of the SQL schema.
func (s *InMemory) DeleteByTenant(ctx context.Context, tenantID id.TenantID) error {
	s.deleteWhere(ctx, func(b *models.Booking) bool { return b.TenantID == tenantID })
	return nil
}

func (s *InMemory) deleteWhere(ctx context.Context, match func(*models.Booking) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for bookingID, b := range s.bookings {
		if !match(b) {
			continue
		}
		key := slotKey{b.VenueID, b.EventDate}
		delete(s.bookings, bookingID)
		delete(s.slots, key)
		tx.OnRollback(ctx, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.bookings[b.ID] = b
			s.slots[key] = b.ID
		})
	}
}
