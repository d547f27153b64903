package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tenantgate/internal/auth/metrics"
)

// SessionStore exposes cleanup for expired sessions.
type SessionStore interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// CleanupResult summarizes the deletions performed by a cleanup run.
type CleanupResult struct {
	DeletedSessions int
	Cutoff          time.Time
}

// CleanupService periodically removes sessions that expired more than the
// retention window ago. Revoked and expired sessions are kept until then so
// users can still see them in their session list.
type CleanupService struct {
	sessions  SessionStore
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// CleanupOption configures CleanupService.
type CleanupOption func(*CleanupService)

// WithCleanupInterval overrides the cleanup interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithRetention overrides how long expired sessions are kept.
func WithRetention(retention time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if retention >= 0 {
			s.retention = retention
		}
	}
}

// WithCleanupLogger overrides the logger used for cleanup errors.
func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(s *CleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCleanupMetrics(m *metrics.Metrics) CleanupOption {
	return func(s *CleanupService) {
		s.metrics = m
	}
}

// withClock is used by tests.
func withClock(now func() time.Time) CleanupOption {
	return func(s *CleanupService) {
		s.now = now
	}
}

// New constructs a CleanupService with required stores and options applied.
func New(sessions SessionStore, opts ...CleanupOption) (*CleanupService, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	svc := &CleanupService{
		sessions:  sessions,
		interval:  time.Hour,
		retention: 7 * 24 * time.Hour,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs cleanup periodically until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "session cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce deletes sessions whose expiry is older than now minus retention.
func (s *CleanupService) RunOnce(ctx context.Context) (CleanupResult, error) {
	cutoff := s.now().Add(-s.retention)
	res := CleanupResult{Cutoff: cutoff}

	deleted, err := s.sessions.DeleteExpired(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("delete expired sessions: %w", err)
	}
	res.DeletedSessions = deleted
	s.metrics.AddExpiredSwept(deleted)
	if deleted > 0 {
		s.logger.InfoContext(ctx, "expired sessions deleted", "count", deleted, "cutoff", cutoff)
	}
	return res, nil
}
