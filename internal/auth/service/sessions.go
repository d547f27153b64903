package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tenantgate/internal/audit"
	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/requestcontext"
	"tenantgate/pkg/secrets"
)

// Refresh rotates a session: the old one is revoked and linked to a new one
// with a fresh expiry, in a single store operation. Of two concurrent
// refreshes with the same token exactly one succeeds.
func (s *Service) Refresh(ctx context.Context, token string) (*LoginResult, error) {
	if token == "" {
		return nil, unauthenticated("missing session token")
	}
	oldHash := secrets.HashToken(token)

	current, err := s.sessions.FindByTokenHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, unauthenticated("session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if current.ReplacedBy != nil {
		s.refreshReuse(ctx, current)
		return nil, unauthenticated("session already refreshed")
	}
	if err := requireActive(ctx, current); err != nil {
		return nil, err
	}

	// The subject must still be allowed in before a new session is minted.
	principal, err := s.loadSubject(ctx, current.SubjectKind, current.SubjectID, current.TenantID)
	if err != nil {
		return nil, err
	}

	newToken, err := secrets.GenerateToken()
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	next := current.Successor(id.SessionID(uuid.New()), secrets.HashToken(newToken), now, s.sessionTTL)

	old, err := s.sessions.Rotate(ctx, oldHash, next, now)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrRevoked):
			s.refreshReuse(ctx, current)
			return nil, unauthenticated("session is no longer active")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, unauthenticated("session not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to rotate session")
		}
	}

	s.metrics.IncrementRefreshed()
	event := sessionEvent(audit.ActionSessionRefreshed, next)
	event.TargetID = old.ID.String()
	s.emit(ctx, event)

	return s.issue(ctx, next, newToken, principal)
}

func (s *Service) refreshReuse(ctx context.Context, session *models.Session) {
	s.metrics.IncrementRefreshReuse()
	s.logger.WarnContext(ctx, "refresh with inactive session",
		"event", "auth_failed",
		"reason", "session_reuse",
		"session_id", session.ID.String(),
		"subject_kind", string(session.SubjectKind),
		"request_id", requestcontext.RequestID(ctx),
	)
}

// Logout revokes the session behind token. Unknown or already revoked tokens
// succeed, so repeating a logout is harmless.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	session, revoked, err := s.sessions.RevokeByTokenHash(ctx, secrets.HashToken(token), requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	if !revoked {
		return nil
	}
	s.metrics.DecrementActiveSessions(1)
	s.metrics.IncrementRevoked("logout", 1)
	s.emit(ctx, sessionEvent(audit.ActionSessionRevoked, session))
	return nil
}

// RevokeAllForSubject signs a subject out everywhere.
func (s *Service) RevokeAllForSubject(ctx context.Context, kind models.SubjectKind, subjectID id.SubjectID) (int, error) {
	if !kind.IsValid() || subjectID.IsNil() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "subject is required")
	}
	count, err := s.sessions.RevokeAllForSubject(ctx, kind, subjectID, requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke sessions")
	}
	s.revokedMany(ctx, "subject", count, audit.Event{
		ActorKind: string(kind),
		ActorID:   subjectID.String(),
	})
	return count, nil
}

// RevokeAllForTenant revokes every session bound to the tenant. It runs when
// a tenant is suspended or cancelled and on super-admin force sign-out.
func (s *Service) RevokeAllForTenant(ctx context.Context, tenantID id.TenantID) (int, error) {
	if tenantID.IsNil() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "tenant is required")
	}
	count, err := s.sessions.RevokeAllForTenant(ctx, tenantID, requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke tenant sessions")
	}
	s.revokedMany(ctx, "tenant", count, audit.Event{TenantID: tenantID.String()})
	return count, nil
}

func (s *Service) revokedMany(ctx context.Context, cause string, count int, event audit.Event) {
	s.metrics.DecrementActiveSessions(count)
	s.metrics.IncrementRevoked(cause, count)
	event.Action = audit.ActionSessionsRevoked
	event.Reason = cause
	s.emit(ctx, event)
}

// SessionView is one entry of a subject's session list.
type SessionView struct {
	ID                id.SessionID
	DeviceDisplayName string
	Status            models.SessionStatus
	CreatedAt         time.Time
	ExpiresAt         time.Time
	RevokedAt         *time.Time
	Current           bool
}

// ListSessions returns the principal's own sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, p *models.Principal) ([]SessionView, error) {
	if p == nil {
		return nil, unauthenticated("authentication required")
	}
	if p.Kind == models.SubjectDevOverride {
		return []SessionView{}, nil
	}
	sessions, err := s.sessions.ListBySubject(ctx, p.Kind, p.SubjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}

	now := requestcontext.Now(ctx)
	out := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, SessionView{
			ID:                session.ID,
			DeviceDisplayName: session.DeviceDisplayName,
			Status:            session.StatusAt(now),
			CreatedAt:         session.CreatedAt,
			ExpiresAt:         session.ExpiresAt,
			RevokedAt:         session.RevokedAt,
			Current:           p.SessionID != nil && *p.SessionID == session.ID,
		})
	}
	return out, nil
}
