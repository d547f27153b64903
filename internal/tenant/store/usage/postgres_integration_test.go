//go:build integration

package usage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"tenantgate/internal/tenant/models"
	"tenantgate/internal/tenant/store/usage"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/tx"
	"tenantgate/pkg/testutil"
	"tenantgate/pkg/testutil/containers"
)

type PostgresUsageSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *usage.PostgresStore
	tenantID id.TenantID
}

func TestPostgresUsageSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUsageSuite))
}

func (s *PostgresUsageSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = usage.NewPostgres(s.postgres.DB)
}

func (s *PostgresUsageSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.tenantID = s.postgres.CreateTestTenant(ctx, s.T(), map[string]int64{"max_users": 10})
}

func (s *PostgresUsageSuite) TestConcurrentReservationsStopAtCeiling() {
	ctx := context.Background()

	result := testutil.RunConcurrent(50, func(int) error {
		_, err := s.store.Reserve(ctx, s.tenantID, models.LimitMaxUsers, "", 1, 10)
		return err
	})

	s.Equal(int32(10), result.Successes)
	s.Equal(int32(40), result.LimitExceeded)
	s.Zero(result.Errors)

	used, err := s.store.Get(ctx, s.tenantID, models.LimitMaxUsers, "")
	s.Require().NoError(err)
	s.Equal(int64(10), used)
}

func (s *PostgresUsageSuite) TestRolledBackReservationFreesTheSlot() {
	ctx := context.Background()
	runner := tx.NewSQLRunner(s.postgres.DB)

	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Reserve(ctx, s.tenantID, models.LimitMaxUsers, "", 1, 1); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Require().ErrorIs(err, context.Canceled)

	used, err := s.store.Get(ctx, s.tenantID, models.LimitMaxUsers, "")
	s.Require().NoError(err)
	s.Zero(used)

	_, err = s.store.Reserve(ctx, s.tenantID, models.LimitMaxUsers, "", 1, 1)
	s.NoError(err)
}

func (s *PostgresUsageSuite) TestPeriodsAreCountedSeparately() {
	ctx := context.Background()

	_, err := s.store.Reserve(ctx, s.tenantID, models.LimitMaxBookingsPerMonth, "2026-09", 1, 1)
	s.Require().NoError(err)
	_, err = s.store.Reserve(ctx, s.tenantID, models.LimitMaxBookingsPerMonth, "2026-10", 1, 1)
	s.Require().NoError(err)

	_, err = s.store.Reserve(ctx, s.tenantID, models.LimitMaxBookingsPerMonth, "2026-10", 1, 1)
	s.Error(err)
}
