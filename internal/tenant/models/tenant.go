package models

import (
	"strings"
	"time"

	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/validation"
)

type TenantStatus string

const (
	TenantStatusPending   TenantStatus = "pending"
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusCancelled TenantStatus = "cancelled"
)

func (s TenantStatus) IsValid() bool {
	switch s {
	case TenantStatusPending, TenantStatusActive, TenantStatusSuspended, TenantStatusCancelled:
		return true
	}
	return false
}

// Tenant is a customer organisation. Slug is immutable after creation.
type Tenant struct {
	ID        id.TenantID  `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	Status    TenantStatus `json:"status"`
	PlanID    id.PlanID    `json:"plan_id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewTenant builds a pending tenant on the given plan.
func NewTenant(tenantID id.TenantID, name, slug string, planID id.PlanID, now time.Time) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	if !validation.SlugPattern.MatchString(slug) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant slug is malformed")
	}
	if planID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant must reference a plan")
	}
	return &Tenant{
		ID:        tenantID,
		Name:      name,
		Slug:      slug,
		Status:    TenantStatusPending,
		PlanID:    planID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsActive reports whether users of this tenant may authenticate.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// Activate moves a pending or suspended tenant to active.
func (t *Tenant) Activate(now time.Time) error {
	switch t.Status {
	case TenantStatusActive:
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already active")
	case TenantStatusCancelled:
		return dErrors.New(dErrors.CodeInvariantViolation, "cancelled tenants cannot be reactivated")
	}
	t.Status = TenantStatusActive
	t.UpdatedAt = now
	return nil
}

// Suspend blocks authentication for an active tenant.
func (t *Tenant) Suspend(now time.Time) error {
	if t.Status != TenantStatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "only active tenants can be suspended")
	}
	t.Status = TenantStatusSuspended
	t.UpdatedAt = now
	return nil
}

// Cancel is terminal.
func (t *Tenant) Cancel(now time.Time) error {
	if t.Status == TenantStatusCancelled {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already cancelled")
	}
	t.Status = TenantStatusCancelled
	t.UpdatedAt = now
	return nil
}

// ChangePlan swaps the plan reference.
func (t *Tenant) ChangePlan(planID id.PlanID, now time.Time) error {
	if planID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant must reference a plan")
	}
	if t.Status == TenantStatusCancelled {
		return dErrors.New(dErrors.CodeInvariantViolation, "cancelled tenants cannot change plan")
	}
	t.PlanID = planID
	t.UpdatedAt = now
	return nil
}
