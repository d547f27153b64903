package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tenantgate/internal/auth/models"
	sessionStore "tenantgate/internal/auth/store/session"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

func newSession(expiresAt time.Time) *models.Session {
	return &models.Session{
		ID:          id.SessionID(uuid.New()),
		TokenHash:   uuid.NewString(),
		SubjectID:   id.SubjectID(uuid.New()),
		SubjectKind: models.SubjectTenantUser,
		CreatedAt:   expiresAt.Add(-24 * time.Hour),
		ExpiresAt:   expiresAt,
	}
}

func TestCleanupService_RunOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	sessions := sessionStore.NewInMemory()
	longGone := newSession(now.Add(-10 * 24 * time.Hour))
	recentlyExpired := newSession(now.Add(-time.Hour))
	live := newSession(now.Add(time.Hour))
	for _, s := range []*models.Session{longGone, recentlyExpired, live} {
		require.NoError(t, sessions.Create(ctx, s))
	}

	svc, err := New(sessions,
		WithRetention(7*24*time.Hour),
		WithCleanupInterval(10*time.Second),
		withClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	res, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.DeletedSessions)
	require.Equal(t, now.Add(-7*24*time.Hour), res.Cutoff)

	_, err = sessions.FindByID(ctx, longGone.ID)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	// expired within the retention window stays visible
	_, err = sessions.FindByID(ctx, recentlyExpired.ID)
	require.NoError(t, err)
	_, err = sessions.FindByID(ctx, live.ID)
	require.NoError(t, err)
}

type failingStore struct{}

func (failingStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, errors.New("connection refused")
}

func TestCleanupService_Errors(t *testing.T) {
	t.Run("requires a store", func(t *testing.T) {
		_, err := New(nil)
		require.Error(t, err)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		svc, err := New(failingStore{})
		require.NoError(t, err)
		_, err = svc.RunOnce(context.Background())
		require.ErrorContains(t, err, "delete expired sessions")
	})

	t.Run("start stops on cancel", func(t *testing.T) {
		svc, err := New(failingStore{}, WithCleanupInterval(time.Millisecond))
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, svc.Start(ctx), context.DeadlineExceeded)
	})
}
