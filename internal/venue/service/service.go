package service

import (
	"context"
	"errors"
	"log/slog"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	venuemetrics "tenantgate/internal/venue/metrics"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
	"tenantgate/pkg/requestcontext"
)

// Service manages venues and bookings. Creation consumes plan allowance
// through the gate in the same transaction as the insert.
type Service struct {
	venues   VenueStore
	bookings BookingStore
	gate     Gate
	tx       tx.Runner

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *venuemetrics.Metrics
}

func New(venues VenueStore, bookings BookingStore, gate Gate, opts ...Option) (*Service, error) {
	if venues == nil || bookings == nil {
		return nil, errors.New("venue and booking stores are required")
	}
	if gate == nil {
		return nil, errors.New("gate is required")
	}
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tx == nil {
		cfg.tx = tx.NewMemoryRunner()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Service{
		venues:         venues,
		bookings:       bookings,
		gate:           gate,
		tx:             cfg.tx,
		logger:         cfg.logger,
		auditPublisher: cfg.auditPublisher,
		metrics:        cfg.metrics,
	}, nil
}

func wrapVenueErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "venue not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func (s *Service) emit(ctx context.Context, p *authModels.Principal, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	event.Timestamp = requestcontext.Now(ctx)
	if p != nil {
		event.ActorKind = string(p.Kind)
		event.ActorID = p.SubjectID.String()
	}
	s.logger.InfoContext(ctx, string(event.Action),
		"event", string(event.Action),
		"log_type", "audit",
		"tenant_id", event.TenantID,
		"target_id", event.TargetID,
		"request_id", event.RequestID,
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", string(event.Action), "error", err)
	}
}
