package service

import (
	"context"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/authz"
	"tenantgate/internal/venue/models"
	id "tenantgate/pkg/domain"
)

// Find and Delete return sentinel.ErrNotFound for rows outside tenantID.

type VenueStore interface {
	Create(ctx context.Context, venue *models.Venue) error
	FindByID(ctx context.Context, tenantID id.TenantID, venueID id.VenueID) (*models.Venue, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Venue, error)
	Delete(ctx context.Context, tenantID id.TenantID, venueID id.VenueID) error
}

// BookingStore.Create returns sentinel.ErrConflict when the venue is already
// booked on that date.
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Booking, error)
	DeleteByVenue(ctx context.Context, tenantID id.TenantID, venueID id.VenueID) error
}

type Gate interface {
	Authorize(ctx context.Context, p *authModels.Principal, req authz.CapabilityRequest) error
	Release(ctx context.Context, tenantID id.TenantID, capability authz.Capability, delta int64) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
