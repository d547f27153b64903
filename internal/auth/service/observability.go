package service

import (
	"context"

	"tenantgate/internal/audit"
	"tenantgate/internal/auth/models"
	"tenantgate/pkg/requestcontext"
)

// emit logs an audit event and forwards it to the publisher when one is set.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	s.logger.InfoContext(ctx, string(event.Action),
		"event", string(event.Action),
		"log_type", "audit",
		"actor_kind", event.ActorKind,
		"actor_id", event.ActorID,
		"tenant_id", event.TenantID,
		"session_id", event.SessionID,
		"request_id", event.RequestID,
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err, "action", string(event.Action))
	}
}

// loginFailed records a rejected login. The email is logged but the
// response never says which part of the credentials was wrong.
func (s *Service) loginFailed(ctx context.Context, req LoginRequest, reason string) {
	s.logger.WarnContext(ctx, "login failed",
		"event", "auth_failed",
		"reason", reason,
		"kind", string(req.Kind),
		"tenant_slug", req.TenantSlug,
		"email", req.Email,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.metrics.IncrementLogin(string(req.Kind), reason)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    audit.ActionLoginFailed,
		ActorKind: string(req.Kind),
		Decision:  "denied",
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
	}
}

func sessionEvent(action audit.Action, session *models.Session) audit.Event {
	event := audit.Event{
		Action:    action,
		ActorKind: string(session.SubjectKind),
		ActorID:   session.SubjectID.String(),
		SessionID: session.ID.String(),
	}
	if session.TenantID != nil {
		event.TenantID = session.TenantID.String()
	}
	return event
}
