package service

import (
	"fmt"

	"github.com/google/uuid"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	tenantModels "tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/testutil"
)

func (s *VenueSuite) TestCreateVenue() {
	acme := s.newTenant("acme", s.starter)
	manager := s.member(acme, authModels.RoleTenantManager)

	s.Run("consumes max_venues", func() {
		v := s.createVenue(manager, acme, " Grand Hall ")
		s.Equal("Grand Hall", v.Name)
		s.Equal(acme.ID, v.TenantID)
		s.Equal(int64(1), s.used(acme, tenantModels.LimitMaxVenues))
		s.Contains(s.auditSink.Actions(), audit.ActionVenueCreated)
	})

	s.Run("staff lack venues.create", func() {
		_, err := s.service.CreateVenue(s.ctx, s.member(acme, authModels.RoleTenantStaff), acme.ID, CreateVenueCommand{Name: "Barn", Capacity: 10})
		s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
		s.Equal(dErrors.ReasonMissingPermission, dErrors.ReasonOf(err))
	})

	s.Run("other tenants are refused and nothing is consumed", func() {
		globex := s.newTenant("globex", s.starter)
		_, err := s.service.CreateVenue(s.ctx, manager, globex.ID, CreateVenueCommand{Name: "Barn", Capacity: 10})
		s.True(dErrors.HasCode(err, dErrors.CodeCrossTenantDenied))
		s.Zero(s.used(globex, tenantModels.LimitMaxVenues))
	})

	s.Run("invalid input", func() {
		_, err := s.service.CreateVenue(s.ctx, manager, acme.ID, CreateVenueCommand{Name: "  ", Capacity: 10})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.CreateVenue(s.ctx, manager, acme.ID, CreateVenueCommand{Name: "Barn"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *VenueSuite) TestVenueLimitAndRelease() {
	acme := s.newTenant("acme", s.starter)
	manager := s.member(acme, authModels.RoleTenantManager)
	hall := s.createVenue(manager, acme, "Hall")
	s.createVenue(manager, acme, "Barn")

	_, err := s.service.CreateVenue(s.ctx, manager, acme.ID, CreateVenueCommand{Name: "Loft", Capacity: 40})
	s.True(dErrors.HasCode(err, dErrors.CodePlanLimitExceeded))
	s.Equal(int64(2), s.used(acme, tenantModels.LimitMaxVenues))

	s.Require().NoError(s.service.DeleteVenue(s.ctx, manager, acme.ID, hall.ID))
	s.Equal(int64(1), s.used(acme, tenantModels.LimitMaxVenues))
	s.createVenue(manager, acme, "Loft")
}

func (s *VenueSuite) TestSuperAdminIgnoresTenantBinding() {
	acme := s.newTenant("acme", s.pro)
	v := s.createVenue(s.superAdmin(), acme, "Hall")
	s.Equal(acme.ID, v.TenantID)

	venues, err := s.service.ListVenues(s.ctx, s.superAdmin(), acme.ID)
	s.Require().NoError(err)
	s.Len(venues, 1)
}

func (s *VenueSuite) TestListAndDeleteVenues() {
	acme := s.newTenant("acme", s.pro)
	globex := s.newTenant("globex", s.pro)
	manager := s.member(acme, authModels.RoleTenantManager)
	hall := s.createVenue(manager, acme, "Hall")
	s.createVenue(s.member(globex, authModels.RoleTenantManager), globex, "Dock")

	venues, err := s.service.ListVenues(s.ctx, s.member(acme, authModels.RoleTenantStaff), acme.ID)
	s.Require().NoError(err)
	s.Require().Len(venues, 1)
	s.Equal(hall.ID, venues[0].ID)

	_, err = s.service.ListVenues(s.ctx, manager, globex.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeCrossTenantDenied))

	err = s.service.DeleteVenue(s.ctx, s.member(acme, authModels.RoleTenantStaff), acme.ID, hall.ID)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

	err = s.service.DeleteVenue(s.ctx, manager, acme.ID, id.VenueID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Require().NoError(s.service.DeleteVenue(s.ctx, manager, acme.ID, hall.ID))
	s.Contains(s.auditSink.Actions(), audit.ActionVenueDeleted)
}

func (s *VenueSuite) TestConcurrentCreateVenueAtLimit() {
	acme := s.newTenant("acme", s.starter)
	manager := s.member(acme, authModels.RoleTenantManager)
	s.createVenue(manager, acme, "Hall")

	const goroutines = 8
	result := testutil.RunConcurrent(goroutines, func(i int) error {
		_, err := s.service.CreateVenue(s.ctx, manager, acme.ID, CreateVenueCommand{Name: fmt.Sprintf("Room %d", i), Capacity: 10})
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(goroutines-1), result.LimitExceeded)
	venues, err := s.venues.ListByTenant(s.ctx, acme.ID)
	s.Require().NoError(err)
	s.Len(venues, 2)
	s.Equal(int64(2), s.used(acme, tenantModels.LimitMaxVenues))
}
