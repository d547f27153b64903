package service

import (
	"net/mail"
	"slices"
	"strings"

	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/authz"
	"tenantgate/internal/tenant/models"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/validation"
)

const minPasswordLength = 12

// CreateTenantCommand contains input for tenant creation. The plan is named
// by slug so operators never handle plan UUIDs.
type CreateTenantCommand struct {
	Name     string
	Slug     string
	PlanSlug string
}

func (c *CreateTenantCommand) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	c.PlanSlug = strings.ToLower(strings.TrimSpace(c.PlanSlug))
	if c.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !validation.SlugPattern.MatchString(c.Slug) {
		return dErrors.New(dErrors.CodeValidation, "slug must be 3-64 lowercase letters, digits or hyphens")
	}
	if c.PlanSlug == "" {
		return dErrors.New(dErrors.CodeValidation, "plan is required")
	}
	return nil
}

// PlanCommand carries the terms of a plan. Slug is ignored on update.
type PlanCommand struct {
	Slug     string
	Name     string
	Limits   map[models.LimitKey]int64
	Features map[models.Feature]bool
}

func (c *PlanCommand) Validate() error {
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	for key, value := range c.Limits {
		if !key.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "unknown limit "+string(key))
		}
		if value < models.Unlimited {
			return dErrors.New(dErrors.CodeValidation, "limit "+string(key)+" must be -1 or non-negative")
		}
	}
	for feature := range c.Features {
		if !feature.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "unknown feature "+string(feature))
		}
	}
	return nil
}

// CreateUserCommand contains input for adding staff to a tenant.
type CreateUserCommand struct {
	Email    string
	Name     string
	Password string
	Roles    []authModels.Role
}

func (c *CreateUserCommand) Validate() error {
	c.Email = authModels.NormalizeEmail(c.Email)
	c.Name = strings.TrimSpace(c.Name)
	if _, err := mail.ParseAddress(c.Email); err != nil || c.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	if len(c.Password) < minPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 12 characters")
	}
	if len(c.Roles) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one role is required")
	}
	for _, role := range c.Roles {
		if !role.IsTenantUserRole() {
			return dErrors.New(dErrors.CodeValidation, "role "+string(role)+" cannot be held by tenant users")
		}
	}
	slices.Sort(c.Roles)
	c.Roles = slices.Compact(c.Roles)
	return nil
}

// UpdateUserCommand replaces a tenant user's roles, explicit capability
// grants, or both. A nil field is left as stored; an empty Permissions slice
// clears every explicit grant.
type UpdateUserCommand struct {
	Roles       []authModels.Role
	Permissions []string
}

func (c *UpdateUserCommand) Validate() error {
	if c.Roles == nil && c.Permissions == nil {
		return dErrors.New(dErrors.CodeValidation, "roles or permissions are required")
	}
	if c.Roles != nil {
		if len(c.Roles) == 0 {
			return dErrors.New(dErrors.CodeValidation, "at least one role is required")
		}
		for _, role := range c.Roles {
			if !role.IsTenantUserRole() {
				return dErrors.New(dErrors.CodeValidation, "role "+string(role)+" cannot be held by tenant users")
			}
		}
		slices.Sort(c.Roles)
		c.Roles = slices.Compact(c.Roles)
	}
	if c.Permissions != nil {
		for i, name := range c.Permissions {
			name = strings.TrimSpace(name)
			if !authz.Capability(name).TenantBound() {
				return dErrors.New(dErrors.CodeValidation, "unknown tenant capability "+name)
			}
			c.Permissions[i] = name
		}
		slices.Sort(c.Permissions)
		c.Permissions = slices.Compact(c.Permissions)
	}
	return nil
}
