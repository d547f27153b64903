package models

import (
	"time"

	id "tenantgate/pkg/domain"
)

// TenantUser is staff of a tenant. Email is unique per tenant, not globally.
type TenantUser struct {
	ID                  id.UserID
	TenantID            id.TenantID
	Email               string
	Name                string
	PasswordHash        string
	Roles               []Role
	ExplicitPermissions []string
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Customer is a customer-portal account. Its only role is customer.
type Customer struct {
	ID           id.CustomerID
	TenantID     id.TenantID
	Email        string
	Name         string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// PlatformUser is a federated identity. TenantID links it to a tenant once
// an admin assigns one.
type PlatformUser struct {
	ID              id.PlatformUserID
	Provider        string
	ProviderSubject string
	Email           string
	TenantID        *id.TenantID
	Roles           []Role
	Active          bool
	CreatedAt       time.Time
}

// SuperAdmin is a platform operator. Stored apart from tenant users so no
// tenant-scoped lookup can ever return one.
type SuperAdmin struct {
	ID           id.AdminID
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}
