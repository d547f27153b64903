package handler

import (
	"strings"

	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/tenant/models"
	"tenantgate/internal/tenant/service"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/validation"
)

// HTTP request DTOs. They are converted to service commands before
// processing; business rules live in the commands.

type CreateTenantRequest struct {
	Name string `json:"name" validate:"required,notblank,max=128"`
	Slug string `json:"slug" validate:"required,slug"`
	Plan string `json:"plan" validate:"required,slug"`
}

func (r *CreateTenantRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
	r.Plan = strings.ToLower(strings.TrimSpace(r.Plan))
}

func (r *CreateTenantRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *CreateTenantRequest) toCommand() service.CreateTenantCommand {
	return service.CreateTenantCommand{Name: r.Name, Slug: r.Slug, PlanSlug: r.Plan}
}

type ChangePlanRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid"`
}

func (r *ChangePlanRequest) Normalize() {
	if r == nil {
		return
	}
	r.PlanID = strings.TrimSpace(r.PlanID)
}

func (r *ChangePlanRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// PlanRequest creates or updates a plan. Slug is only read on create.
type PlanRequest struct {
	Slug     string           `json:"slug,omitempty"`
	Name     string           `json:"name" validate:"required,notblank,max=128"`
	Limits   map[string]int64 `json:"limits"`
	Features map[string]bool  `json:"features"`
}

func (r *PlanRequest) Normalize() {
	if r == nil {
		return
	}
	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
	r.Name = strings.TrimSpace(r.Name)
}

func (r *PlanRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *PlanRequest) toCommand() service.PlanCommand {
	cmd := service.PlanCommand{
		Slug:     r.Slug,
		Name:     r.Name,
		Limits:   make(map[models.LimitKey]int64, len(r.Limits)),
		Features: make(map[models.Feature]bool, len(r.Features)),
	}
	for key, value := range r.Limits {
		cmd.Limits[models.LimitKey(key)] = value
	}
	for feature, enabled := range r.Features {
		cmd.Features[models.Feature(feature)] = enabled
	}
	return cmd
}

type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Name     string   `json:"name" validate:"max=128"`
	Password string   `json:"password" validate:"required,min=12,max=72"`
	Roles    []string `json:"roles" validate:"required,min=1,max=3,dive,oneof=tenant_staff tenant_manager tenant_admin"`
}

func (r *CreateUserRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = authModels.NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	for i, role := range r.Roles {
		r.Roles[i] = strings.ToLower(strings.TrimSpace(role))
	}
}

func (r *CreateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *CreateUserRequest) toCommand() service.CreateUserCommand {
	roles := make([]authModels.Role, 0, len(r.Roles))
	for _, role := range r.Roles {
		roles = append(roles, authModels.Role(role))
	}
	return service.CreateUserCommand{Email: r.Email, Name: r.Name, Password: r.Password, Roles: roles}
}

// UpdateUserRequest replaces roles, explicit grants, or both. An omitted
// field keeps its stored value.
type UpdateUserRequest struct {
	Roles       []string `json:"roles" validate:"omitempty,min=1,max=3,dive,oneof=tenant_staff tenant_manager tenant_admin"`
	Permissions []string `json:"permissions" validate:"omitempty,max=32,dive,notblank"`
}

func (r *UpdateUserRequest) Normalize() {
	if r == nil {
		return
	}
	for i, role := range r.Roles {
		r.Roles[i] = strings.ToLower(strings.TrimSpace(role))
	}
	for i, name := range r.Permissions {
		r.Permissions[i] = strings.ToLower(strings.TrimSpace(name))
	}
}

func (r *UpdateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Roles == nil && r.Permissions == nil {
		return dErrors.New(dErrors.CodeValidation, "roles or permissions are required")
	}
	return validation.Validate(r)
}

func (r *UpdateUserRequest) toCommand() service.UpdateUserCommand {
	var cmd service.UpdateUserCommand
	if r.Roles != nil {
		cmd.Roles = make([]authModels.Role, 0, len(r.Roles))
		for _, role := range r.Roles {
			cmd.Roles = append(cmd.Roles, authModels.Role(role))
		}
	}
	if r.Permissions != nil {
		cmd.Permissions = append([]string{}, r.Permissions...)
	}
	return cmd
}

func parsePlanID(raw string) (id.PlanID, error) {
	planID, err := id.ParsePlanID(raw)
	if err != nil {
		return id.PlanID{}, dErrors.New(dErrors.CodeBadRequest, "invalid plan id")
	}
	return planID, nil
}
