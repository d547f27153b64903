package service

import (
	"context"
	"time"

	authModels "tenantgate/internal/auth/models"
	tenantModels "tenantgate/internal/tenant/models"
	"tenantgate/internal/venue/models"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/requestcontext"
)

func (s *VenueSuite) TestCreateBooking() {
	acme := s.newTenant("acme", s.starter)
	manager := s.member(acme, authModels.RoleTenantManager)
	staff := s.member(acme, authModels.RoleTenantStaff)
	hall := s.createVenue(manager, acme, "Hall")
	date := s.now.AddDate(0, 0, 10)

	b, err := s.service.CreateBooking(s.ctx, staff, acme.ID, CreateBookingCommand{VenueID: hall.ID, EventDate: date})
	s.Require().NoError(err)
	s.Equal(models.BookingSourceManual, b.Source)
	s.Equal(int64(1), s.used(acme, tenantModels.LimitMaxBookingsPerMonth))

	s.Run("double booking gives the allowance back", func() {
		_, err := s.service.CreateBooking(s.ctx, staff, acme.ID, CreateBookingCommand{VenueID: hall.ID, EventDate: date})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(int64(1), s.used(acme, tenantModels.LimitMaxBookingsPerMonth))
	})

	s.Run("past dates are rejected without consuming", func() {
		_, err := s.service.CreateBooking(s.ctx, staff, acme.ID, CreateBookingCommand{VenueID: hall.ID, EventDate: s.now.AddDate(0, 0, -2)})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Equal(int64(1), s.used(acme, tenantModels.LimitMaxBookingsPerMonth))
	})

	s.Run("venues of other tenants are invisible", func() {
		globex := s.newTenant("globex", s.pro)
		dock := s.createVenue(s.member(globex, authModels.RoleTenantManager), globex, "Dock")
		_, err := s.service.CreateBooking(s.ctx, staff, acme.ID, CreateBookingCommand{VenueID: dock.ID, EventDate: date})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.CreateBooking(s.ctx, staff, globex.ID, CreateBookingCommand{VenueID: dock.ID, EventDate: date})
		s.True(dErrors.HasCode(err, dErrors.CodeCrossTenantDenied))
	})

	s.Run("customers cannot book", func() {
		customer := s.member(acme, authModels.RoleCustomer)
		customer.Kind = authModels.SubjectCustomer
		_, err := s.service.CreateBooking(s.ctx, customer, acme.ID, CreateBookingCommand{VenueID: hall.ID, EventDate: date.AddDate(0, 0, 1)})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
	})

	s.Run("missing fields", func() {
		_, err := s.service.CreateBooking(s.ctx, staff, acme.ID, CreateBookingCommand{VenueID: hall.ID})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.CreateBooking(s.ctx, staff, acme.ID, CreateBookingCommand{EventDate: date})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *VenueSuite) TestMonthlyBookingLimitResets() {
	acme := s.newTenant("acme", s.starter)
	manager := s.member(acme, authModels.RoleTenantManager)
	hall := s.createVenue(manager, acme, "Hall")

	book := func(ctx context.Context, daysAhead int) error {
		_, err := s.service.CreateBooking(ctx, manager, acme.ID, CreateBookingCommand{VenueID: hall.ID, EventDate: s.now.AddDate(0, 0, daysAhead)})
		return err
	}
	s.Require().NoError(book(s.ctx, 1))
	s.Require().NoError(book(s.ctx, 2))
	s.True(dErrors.HasCode(book(s.ctx, 3), dErrors.CodePlanLimitExceeded))

	nextMonth := requestcontext.WithTime(context.Background(), time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
	s.NoError(book(nextMonth, 4))
}

func (s *VenueSuite) TestVoiceBooking() {
	s.Run("requires the plan feature", func() {
		acme := s.newTenant("acme", s.starter)
		manager := s.member(acme, authModels.RoleTenantManager)
		hall := s.createVenue(manager, acme, "Hall")

		_, err := s.service.CreateVoiceBooking(s.ctx, manager, acme.ID, CreateBookingCommand{VenueID: hall.ID, EventDate: s.now})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
		s.Equal(dErrors.ReasonFeatureNotInPlan, dErrors.ReasonOf(err))
		s.Zero(s.used(acme, tenantModels.LimitMaxBookingsPerMonth))
	})

	s.Run("requires the capability", func() {
		globex := s.newTenant("globex", s.pro)
		hall := s.createVenue(s.member(globex, authModels.RoleTenantManager), globex, "Hall")
		_, err := s.service.CreateVoiceBooking(s.ctx, s.member(globex, authModels.RoleTenantStaff), globex.ID, CreateBookingCommand{VenueID: hall.ID, EventDate: s.now})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
		s.Equal(dErrors.ReasonMissingPermission, dErrors.ReasonOf(err))
	})

	s.Run("shares the monthly allowance with manual bookings", func() {
		initech := s.newTenant("initech", s.pro)
		manager := s.member(initech, authModels.RoleTenantManager)
		hall := s.createVenue(manager, initech, "Hall")

		_, err := s.service.CreateBooking(s.ctx, manager, initech.ID, CreateBookingCommand{VenueID: hall.ID, EventDate: s.now.AddDate(0, 0, 1)})
		s.Require().NoError(err)
		b, err := s.service.CreateVoiceBooking(s.ctx, manager, initech.ID, CreateBookingCommand{VenueID: hall.ID, EventDate: s.now.AddDate(0, 0, 2)})
		s.Require().NoError(err)
		s.Equal(models.BookingSourceVoice, b.Source)
		s.Equal(int64(2), s.used(initech, tenantModels.LimitMaxBookingsPerMonth))
	})
}

func (s *VenueSuite) TestDeleteVenueRemovesBookings() {
	acme := s.newTenant("acme", s.starter)
	manager := s.member(acme, authModels.RoleTenantManager)
	hall := s.createVenue(manager, acme, "Hall")
	_, err := s.service.CreateBooking(s.ctx, manager, acme.ID, CreateBookingCommand{VenueID: hall.ID, EventDate: s.now})
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteVenue(s.ctx, manager, acme.ID, hall.ID))

	bookings, err := s.service.ListBookings(s.ctx, manager, acme.ID)
	s.Require().NoError(err)
	s.Empty(bookings)
	s.Equal(int64(1), s.used(acme, tenantModels.LimitMaxBookingsPerMonth), "monthly usage stays consumed")
}

func (s *VenueSuite) TestListBookings() {
	acme := s.newTenant("acme", s.starter)
	manager := s.member(acme, authModels.RoleTenantManager)
	hall := s.createVenue(manager, acme, "Hall")
	_, err := s.service.CreateBooking(s.ctx, manager, acme.ID, CreateBookingCommand{VenueID: hall.ID, EventDate: s.now.AddDate(0, 0, 3)})
	s.Require().NoError(err)

	bookings, err := s.service.ListBookings(s.ctx, s.member(acme, authModels.RoleTenantStaff), acme.ID)
	s.Require().NoError(err)
	s.Len(bookings, 1)

	globex := s.newTenant("globex", s.starter)
	_, err = s.service.ListBookings(s.ctx, s.member(globex, authModels.RoleTenantStaff), acme.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeCrossTenantDenied))
}
