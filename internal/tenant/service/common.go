package service

import (
	"context"
	"errors"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/requestcontext"
)

// ID validation helpers reduce repetition in service methods.

func requireTenantID(tenantID id.TenantID) error {
	if tenantID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "tenant ID required")
	}
	return nil
}

func requirePlanID(planID id.PlanID) error {
	if planID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "plan ID required")
	}
	return nil
}

func requireUserID(userID id.UserID) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "user ID required")
	}
	return nil
}

// Error wrapping helpers translate sentinel errors to domain errors.

func wrapTenantErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func wrapPlanErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "plan not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func wrapUserErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

// asConflict reports a rejected state transition as a conflict with the
// current state of the resource.
func asConflict(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeConflict, de.Message)
	}
	return err
}

// emit logs an audit event and forwards it to the publisher when one is set.
// Audit failures never fail the operation.
func (s *Service) emit(ctx context.Context, p *authModels.Principal, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if p != nil {
		event.ActorKind = string(p.Kind)
		event.ActorID = p.SubjectID.String()
	}
	s.logger.InfoContext(ctx, string(event.Action),
		"event", string(event.Action),
		"log_type", "audit",
		"actor_kind", event.ActorKind,
		"actor_id", event.ActorID,
		"tenant_id", event.TenantID,
		"target_id", event.TargetID,
		"request_id", event.RequestID,
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(event.Action),
			"error", err,
		)
	}
}
