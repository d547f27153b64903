package authz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tenantgate/internal/audit"
	"tenantgate/internal/auth/models"
	tenantModels "tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tracer"
	"tenantgate/pkg/requestcontext"
)

// PlanLookup loads a tenant's current plan from persisted state.
type PlanLookup interface {
	CurrentPlan(ctx context.Context, tenantID id.TenantID) (*tenantModels.Plan, error)
}

// UsageCounter reserves and releases plan allowance. A negative ceiling means unlimited.
type UsageCounter interface {
	Reserve(ctx context.Context, tenantID id.TenantID, limit tenantModels.LimitKey, period string, delta, ceiling int64) (int64, error)
	Release(ctx context.Context, tenantID id.TenantID, limit tenantModels.LimitKey, period string, delta int64) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CapabilityRequest asks whether a principal may exercise Capability.
// TenantID names the tenant acted on; nil means the principal's own.
// Delta is how much of the capability's plan limit the action consumes.
type CapabilityRequest struct {
	Capability Capability
	TenantID   *id.TenantID
	Delta      int64
}

// Gate evaluates permission, then plan feature, then plan limit. The first
// failing check decides the denial.
type Gate struct {
	plans   PlanLookup
	usage   UsageCounter
	logger  *slog.Logger
	metrics *Metrics
	tracer  tracer.Tracer
	audit   AuditPublisher
}

type GateOption func(*Gate)

func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = logger }
}

func WithGateMetrics(m *Metrics) GateOption {
	return func(g *Gate) { g.metrics = m }
}

func WithGateTracer(t tracer.Tracer) GateOption {
	return func(g *Gate) { g.tracer = t }
}

func WithGateAudit(p AuditPublisher) GateOption {
	return func(g *Gate) { g.audit = p }
}

func NewGate(plans PlanLookup, usage UsageCounter, opts ...GateOption) *Gate {
	g := &Gate{
		plans:  plans,
		usage:  usage,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize decides req for p. When the capability consumes a limit and
// Delta > 0, the usage reservation is made on ctx, so it commits or rolls
// back with the caller's transaction.
func (g *Gate) Authorize(ctx context.Context, p *models.Principal, req CapabilityRequest) error {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "authz.authorize",
		tracer.String("capability", string(req.Capability)),
		tracer.Int64("delta", req.Delta),
	)

	err := g.authorize(ctx, p, req)
	span.End(err)

	outcome := "allowed"
	if err != nil {
		outcome = decisionOutcome(err)
		g.denied(ctx, p, req, err)
	}
	g.metrics.ObserveDecision(string(req.Capability), outcome, time.Since(start).Seconds())
	return err
}

// Check answers the same question as Authorize without consuming any limit.
func (g *Gate) Check(ctx context.Context, p *models.Principal, capability Capability, tenantID *id.TenantID) error {
	return g.Authorize(ctx, p, CapabilityRequest{Capability: capability, TenantID: tenantID})
}

// Release returns allowance after a limited resource is deleted.
func (g *Gate) Release(ctx context.Context, tenantID id.TenantID, capability Capability, delta int64) error {
	limit, ok := capability.Limit()
	if !ok || delta <= 0 {
		return nil
	}
	period := limit.Period(requestcontext.Now(ctx))
	if err := g.usage.Release(ctx, tenantID, limit, period, delta); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release plan usage")
	}
	return nil
}

func (g *Gate) authorize(ctx context.Context, p *models.Principal, req CapabilityRequest) error {
	if p == nil {
		return dErrors.New(dErrors.CodeUnauthenticated, "authentication required")
	}
	if !p.HasPermission(string(req.Capability)) {
		return dErrors.NewDenied(dErrors.CodePermissionDenied, dErrors.ReasonMissingPermission,
			"missing capability "+string(req.Capability))
	}
	if !req.Capability.TenantBound() {
		return nil
	}

	tenantID := p.TenantID
	if req.TenantID != nil {
		if err := AuthorizeTenantAccess(p, req.TenantID); err != nil {
			return err
		}
		tenantID = req.TenantID
	}
	if tenantID == nil || tenantID.IsNil() {
		return dErrors.NewDenied(dErrors.CodePermissionDenied, dErrors.ReasonTenantRequired,
			"capability "+string(req.Capability)+" requires a tenant")
	}

	feature, gated := req.Capability.Feature()
	limit, limited := req.Capability.Limit()
	consumes := limited && req.Delta > 0
	if !gated && !consumes {
		return nil
	}

	plan, err := g.plans.CurrentPlan(ctx, *tenantID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant plan")
	}
	if gated && !plan.HasFeature(feature) {
		return dErrors.NewDenied(dErrors.CodePermissionDenied, dErrors.ReasonFeatureNotInPlan,
			"plan does not include "+string(feature))
	}
	if !consumes {
		return nil
	}

	period := limit.Period(requestcontext.Now(ctx))
	if _, err := g.usage.Reserve(ctx, *tenantID, limit, period, req.Delta, plan.Limit(limit)); err != nil {
		if errors.Is(err, sentinel.ErrLimitReached) {
			return dErrors.NewLimitExceeded(string(limit), "plan limit "+string(limit)+" reached")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve plan usage")
	}
	return nil
}

func (g *Gate) denied(ctx context.Context, p *models.Principal, req CapabilityRequest, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) || dErrors.HasCode(err, dErrors.CodeNotFound) {
		return
	}
	event := audit.Event{
		Action:    audit.ActionAccessDenied,
		Decision:  decisionOutcome(err),
		Reason:    string(req.Capability),
		RequestID: requestcontext.RequestID(ctx),
	}
	if p != nil {
		event.ActorKind = string(p.Kind)
		event.ActorID = p.SubjectID.String()
	}
	if req.TenantID != nil {
		event.TenantID = req.TenantID.String()
	} else if p != nil && p.TenantID != nil {
		event.TenantID = p.TenantID.String()
	}

	g.logger.InfoContext(ctx, "capability denied",
		"event", "access_denied",
		"capability", string(req.Capability),
		"outcome", event.Decision,
		"tenant_id", event.TenantID,
		"request_id", event.RequestID,
	)
	if g.audit != nil {
		if auditErr := g.audit.Emit(ctx, event); auditErr != nil {
			g.logger.ErrorContext(ctx, "failed to emit audit event", "error", auditErr)
		}
	}
}

// decisionOutcome labels a denial with its reason when one exists, else its code.
func decisionOutcome(err error) string {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		return string(dErrors.CodeInternal)
	}
	if de.Reason != "" {
		return de.Reason
	}
	return string(de.Code)
}
