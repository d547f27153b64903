package handler

import (
	"time"

	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/tenant/models"
	"tenantgate/internal/tenant/service"
)

type TenantResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Slug      string              `json:"slug"`
	Status    models.TenantStatus `json:"status"`
	PlanID    string              `json:"plan_id"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type TenantDetailsResponse struct {
	Tenant *TenantResponse                       `json:"tenant"`
	Plan   *PlanResponse                         `json:"plan"`
	Usage  map[models.LimitKey]service.UsageView `json:"usage"`
}

type PlanResponse struct {
	ID       string                    `json:"id"`
	Slug     string                    `json:"slug"`
	Name     string                    `json:"name"`
	Limits   map[models.LimitKey]int64 `json:"limits"`
	Features map[models.Feature]bool   `json:"features"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTenantResponse(t *models.Tenant) *TenantResponse {
	return &TenantResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Slug:      t.Slug,
		Status:    t.Status,
		PlanID:    t.PlanID.String(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toPlanResponse(p *models.Plan) *PlanResponse {
	return &PlanResponse{
		ID:       p.ID.String(),
		Slug:     p.Slug,
		Name:     p.Name,
		Limits:   p.Limits,
		Features: p.Features,
	}
}

func toTenantDetailsResponse(td *service.TenantDetails) *TenantDetailsResponse {
	return &TenantDetailsResponse{
		Tenant: toTenantResponse(td.Tenant),
		Plan:   toPlanResponse(td.Plan),
		Usage:  td.Usage,
	}
}

func toUserResponse(u *authModels.TenantUser) *UserResponse {
	roles := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, string(role))
	}
	permissions := u.ExplicitPermissions
	if permissions == nil {
		permissions = []string{}
	}
	return &UserResponse{
		ID:          u.ID.String(),
		TenantID:    u.TenantID.String(),
		Email:       u.Email,
		Name:        u.Name,
		Roles:       roles,
		Permissions: permissions,
		Active:      u.Active,
		CreatedAt:   u.CreatedAt,
	}
}
