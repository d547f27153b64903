//go:build integration

package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tenantgate/internal/venue/models"
	"tenantgate/internal/venue/store/booking"
	"tenantgate/internal/venue/store/venue"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/testutil"
	"tenantgate/pkg/testutil/containers"
)

type PostgresBookingSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	venues   *venue.PostgresStore
	bookings *booking.PostgresStore
	venue    *models.Venue
}

func TestPostgresBookingSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresBookingSuite))
}

func (s *PostgresBookingSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.venues = venue.NewPostgres(s.postgres.DB)
	s.bookings = booking.NewPostgres(s.postgres.DB)
}

func (s *PostgresBookingSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	tenantID := s.postgres.CreateTestTenant(ctx, s.T(), nil)

	v, err := models.NewVenue(id.VenueID(uuid.New()), tenantID, "Main Hall", 200, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.venues.Create(ctx, v))
	s.venue = v
}

func (s *PostgresBookingSuite) newBooking(date time.Time) *models.Booking {
	b, err := models.NewBooking(id.BookingID(uuid.New()), s.venue, date, models.BookingSourceManual, time.Now())
	s.Require().NoError(err)
	return b
}

func (s *PostgresBookingSuite) TestOneBookingPerVenuePerDay() {
	ctx := context.Background()
	date := time.Now().UTC().AddDate(0, 1, 0)

	result := testutil.RunConcurrent(10, func(int) error {
		return s.bookings.Create(ctx, s.newBooking(date))
	})
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.Conflicts)

	s.NoError(s.bookings.Create(ctx, s.newBooking(date.AddDate(0, 0, 1))))

	listed, err := s.bookings.ListByTenant(ctx, s.venue.TenantID)
	s.Require().NoError(err)
	s.Len(listed, 2)
}

func (s *PostgresBookingSuite) TestDeletingVenueRemovesItsBookings() {
	ctx := context.Background()
	s.Require().NoError(s.bookings.Create(ctx, s.newBooking(time.Now().UTC().AddDate(0, 0, 7))))

	s.Require().NoError(s.bookings.DeleteByVenue(ctx, s.venue.TenantID, s.venue.ID))
	s.Require().NoError(s.venues.Delete(ctx, s.venue.TenantID, s.venue.ID))

	listed, err := s.bookings.ListByTenant(ctx, s.venue.TenantID)
	s.Require().NoError(err)
	s.Empty(listed)
}
