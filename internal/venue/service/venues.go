package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/authz"
	"tenantgate/internal/venue/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/requestcontext"
)

type CreateVenueCommand struct {
	Name     string
	Capacity int
}

func (c *CreateVenueCommand) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if c.Capacity <= 0 {
		return dErrors.New(dErrors.CodeValidation, "capacity must be positive")
	}
	return nil
}

// CreateVenue consumes one unit of max_venues.
func (s *Service) CreateVenue(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, cmd CreateVenueCommand) (*models.Venue, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tenant ID required")
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var venue *models.Venue
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.gate.Authorize(txCtx, p, authz.CapabilityRequest{
			Capability: authz.CapVenuesCreate,
			TenantID:   &tenantID,
			Delta:      1,
		}); err != nil {
			return err
		}
		v, err := models.NewVenue(id.VenueID(uuid.New()), tenantID, cmd.Name, cmd.Capacity, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.venues.Create(txCtx, v); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create venue")
		}
		venue = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementVenueCreated()
	s.emit(ctx, p, audit.Event{Action: audit.ActionVenueCreated, TenantID: tenantID.String(), TargetID: venue.ID.String()})
	return venue, nil
}

func (s *Service) ListVenues(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) ([]*models.Venue, error) {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapVenuesRead, TenantID: &tenantID}); err != nil {
		return nil, err
	}
	venues, err := s.venues.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list venues")
	}
	return venues, nil
}

// DeleteVenue removes the venue with its bookings and gives back the
// max_venues unit. Monthly booking usage is not returned.
func (s *Service) DeleteVenue(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, venueID id.VenueID) error {
	if venueID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "venue ID required")
	}
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapVenuesDelete, TenantID: &tenantID}); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.bookings.DeleteByVenue(txCtx, tenantID, venueID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete venue bookings")
		}
		if err := s.venues.Delete(txCtx, tenantID, venueID); err != nil {
			return wrapVenueErr(err, "failed to delete venue")
		}
		return s.gate.Release(txCtx, tenantID, authz.CapVenuesCreate, 1)
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementVenueDeleted()
	s.emit(ctx, p, audit.Event{Action: audit.ActionVenueDeleted, TenantID: tenantID.String(), TargetID: venueID.String()})
	return nil
}
