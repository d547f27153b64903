package service

import (
	"errors"

	"go.uber.org/mock/gomock"

	authModels "tenantgate/internal/auth/models"
	tenantModels "tenantgate/internal/tenant/models"
	"tenantgate/internal/venue/service/mocks"
	dErrors "tenantgate/pkg/domain-errors"
)

var errDatabaseDown = errors.New("connection refused")

func (s *VenueSuite) TestStoreFailuresReleaseReservations() {
	ctrl := gomock.NewController(s.T())
	venues := mocks.NewMockVenueStore(ctrl)
	bookings := mocks.NewMockBookingStore(ctrl)
	svc, err := New(venues, bookings, s.gate)
	s.Require().NoError(err)

	acme := s.newTenant("acme", s.starter)
	manager := s.member(acme, authModels.RoleTenantManager)

	s.Run("venue insert", func() {
		venues.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errDatabaseDown)

		_, err := svc.CreateVenue(s.ctx, manager, acme.ID, CreateVenueCommand{Name: "Hall", Capacity: 10})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.ErrorIs(err, errDatabaseDown)
		s.Zero(s.used(acme, tenantModels.LimitMaxVenues))
	})

	s.Run("venue lookup during booking", func() {
		venues.EXPECT().FindByID(gomock.Any(), acme.ID, gomock.Any()).Return(nil, errDatabaseDown)

		_, err := svc.CreateBooking(s.ctx, manager, acme.ID, CreateBookingCommand{VenueID: s.createVenue(manager, acme, "Hall").ID, EventDate: s.now})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Zero(s.used(acme, tenantModels.LimitMaxBookingsPerMonth))
	})

	s.Run("booking cleanup keeps the venue", func() {
		bookings.EXPECT().DeleteByVenue(gomock.Any(), acme.ID, gomock.Any()).Return(errDatabaseDown)

		err := svc.DeleteVenue(s.ctx, manager, acme.ID, s.createVenue(manager, acme, "Barn").ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *VenueSuite) TestNewRequiresDependencies() {
	_, err := New(nil, s.bookings, s.gate)
	s.Error(err)
	_, err = New(s.venues, s.bookings, nil)
	s.Error(err)
}
