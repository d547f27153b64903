package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/authz"
	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/requestcontext"
)

func (s *Service) CreatePlan(ctx context.Context, p *authModels.Principal, cmd PlanCommand) (*models.Plan, error) {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapPlansManage}); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	plan, err := models.NewPlan(id.PlanID(uuid.New()), cmd.Slug, cmd.Name, cmd.Limits, cmd.Features, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "plan slug already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create plan")
	}

	s.emit(ctx, p, audit.Event{Action: audit.ActionPlanSaved, TargetID: plan.ID.String()})
	return plan, nil
}

// UpdatePlan replaces a plan's terms. Tenants on the plan see the new terms
// on their next request; usage already counted is kept.
func (s *Service) UpdatePlan(ctx context.Context, p *authModels.Principal, planID id.PlanID, cmd PlanCommand) (*models.Plan, error) {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapPlansManage}); err != nil {
		return nil, err
	}
	if err := requirePlanID(planID); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var plan *models.Plan
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.plans.FindByID(txCtx, planID)
		if err != nil {
			return wrapPlanErr(err, "failed to load plan")
		}
		if err := current.SetTerms(cmd.Name, cmd.Limits, cmd.Features, requestcontext.Now(txCtx)); err != nil {
			return err
		}
		if err := s.plans.Update(txCtx, current); err != nil {
			return wrapPlanErr(err, "failed to update plan")
		}
		plan = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, p, audit.Event{Action: audit.ActionPlanSaved, TargetID: plan.ID.String()})
	return plan, nil
}

func (s *Service) ListPlans(ctx context.Context, p *authModels.Principal) ([]*models.Plan, error) {
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapPlansManage}); err != nil {
		return nil, err
	}
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list plans")
	}
	return plans, nil
}
