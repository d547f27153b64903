package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/authz"
	"tenantgate/internal/venue/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/requestcontext"
)

type CreateBookingCommand struct {
	VenueID   id.VenueID
	EventDate time.Time
}

func (c CreateBookingCommand) Validate() error {
	if c.VenueID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "venue_id is required")
	}
	if c.EventDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "event_date is required")
	}
	return nil
}

// CreateBooking books a venue by hand. Consumes max_bookings_per_month.
func (s *Service) CreateBooking(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, cmd CreateBookingCommand) (*models.Booking, error) {
	return s.createBooking(ctx, p, tenantID, cmd, authz.CapBookingsCreate, models.BookingSourceManual)
}

// CreateVoiceBooking records a booking captured by the voice assistant. It
// needs the voice_booking plan feature and draws on the same monthly
// allowance as manual bookings.
func (s *Service) CreateVoiceBooking(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, cmd CreateBookingCommand) (*models.Booking, error) {
	return s.createBooking(ctx, p, tenantID, cmd, authz.CapVoiceBooking, models.BookingSourceVoice)
}

func (s *Service) createBooking(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, cmd CreateBookingCommand,
	capability authz.Capability, source models.BookingSource,
) (*models.Booking, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tenant ID required")
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var booking *models.Booking
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.gate.Authorize(txCtx, p, authz.CapabilityRequest{
			Capability: capability,
			TenantID:   &tenantID,
			Delta:      1,
		}); err != nil {
			return err
		}
		venue, err := s.venues.FindByID(txCtx, tenantID, cmd.VenueID)
		if err != nil {
			return wrapVenueErr(err, "failed to load venue")
		}
		if err := authz.AuthorizeTenantAccess(p, &venue.TenantID); err != nil {
			return err
		}

		b, err := models.NewBooking(id.BookingID(uuid.New()), venue, cmd.EventDate, source, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.bookings.Create(txCtx, b); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "venue is already booked on that date")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create booking")
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementBookingCreated(string(source))
	s.emit(ctx, p, audit.Event{
		Action:   audit.ActionBookingCreated,
		TenantID: tenantID.String(),
		TargetID: booking.ID.String(),
		Reason:   string(source),
	})
	return booking, nil
}

func (s *Service) ListBookings(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) ([]*models.Booking, error) {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapBookingsRead, TenantID: &tenantID}); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bookings")
	}
	return bookings, nil
}
