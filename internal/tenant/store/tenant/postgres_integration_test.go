//go:build integration

package tenant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tenantgate/internal/tenant/models"
	"tenantgate/internal/tenant/store/tenant"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/tx"
	"tenantgate/pkg/testutil/containers"
)

type PostgresTenantSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *tenant.PostgresStore
	runner   *tx.SQLRunner
	tenantID id.TenantID
}

func TestPostgresTenantSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTenantSuite))
}

func (s *PostgresTenantSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = tenant.NewPostgres(s.postgres.DB)
	s.runner = tx.NewSQLRunner(s.postgres.DB)
}

func (s *PostgresTenantSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.tenantID = s.postgres.CreateTestTenant(ctx, s.T(), nil)
}

// A second writer waits for the first to commit and then sees its status.
func (s *PostgresTenantSuite) TestLockedReadWaitsForConcurrentCancel() {
	ctx := context.Background()
	locked := make(chan struct{})
	observed := make(chan models.TenantStatus, 1)
	failed := make(chan error, 1)

	go func() {
		<-locked
		err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
			t, err := s.store.FindByIDForUpdate(ctx, s.tenantID)
			if err != nil {
				return err
			}
			observed <- t.Status
			return nil
		})
		if err != nil {
			failed <- err
		}
	}()

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.FindByIDForUpdate(ctx, s.tenantID); err != nil {
			return err
		}
		close(locked)
		time.Sleep(200 * time.Millisecond)
		return s.store.UpdateStatus(ctx, s.tenantID, models.TenantStatusCancelled, time.Now().UTC())
	})
	s.Require().NoError(err)

	select {
	case status := <-observed:
		s.Equal(models.TenantStatusCancelled, status)
	case err := <-failed:
		s.FailNow("second transaction failed", err.Error())
	case <-time.After(5 * time.Second):
		s.FailNow("second transaction never finished")
	}
}

func (s *PostgresTenantSuite) TestPlanUpdateKeepsCommittedStatus() {
	ctx := context.Background()
	before, err := s.store.FindByID(ctx, s.tenantID)
	s.Require().NoError(err)

	s.Require().NoError(s.store.UpdateStatus(ctx, s.tenantID, models.TenantStatusCancelled, time.Now().UTC()))
	s.Require().NoError(s.store.UpdatePlan(ctx, s.tenantID, before.PlanID, time.Now().UTC()))

	after, err := s.store.FindByID(ctx, s.tenantID)
	s.Require().NoError(err)
	s.Equal(models.TenantStatusCancelled, after.Status)
}
