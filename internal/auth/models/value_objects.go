package models

import "strings"

// SubjectKind says which account table a principal or session belongs to.
type SubjectKind string

const (
	SubjectPlatformUser SubjectKind = "platform_user"
	SubjectTenantUser   SubjectKind = "tenant_user"
	SubjectCustomer     SubjectKind = "customer"
	SubjectSuperAdmin   SubjectKind = "super_admin"
	SubjectDevOverride  SubjectKind = "dev_override"
)

func (k SubjectKind) IsValid() bool {
	switch k {
	case SubjectPlatformUser, SubjectTenantUser, SubjectCustomer, SubjectSuperAdmin, SubjectDevOverride:
		return true
	}
	return false
}

// TenantBound reports whether subjects of this kind always belong to a tenant.
func (k SubjectKind) TenantBound() bool {
	return k == SubjectTenantUser || k == SubjectCustomer
}

// Role is a named bundle of capabilities. The catalog lives in authz.
type Role string

const (
	RoleTenantStaff   Role = "tenant_staff"
	RoleTenantManager Role = "tenant_manager"
	RoleTenantAdmin   Role = "tenant_admin"
	RoleCustomer      Role = "customer"
	RolePlatformUser  Role = "platform_user"
	RoleSuperAdmin    Role = "super_admin"
)

// IsTenantUserRole reports whether r may be assigned to a tenant user.
func (r Role) IsTenantUserRole() bool {
	return r == RoleTenantStaff || r == RoleTenantManager || r == RoleTenantAdmin
}

func (r Role) IsValid() bool {
	switch r {
	case RoleTenantStaff, RoleTenantManager, RoleTenantAdmin, RoleCustomer, RolePlatformUser, RoleSuperAdmin:
		return true
	}
	return false
}

// CredentialKind distinguishes the ways a request can present identity.
type CredentialKind string

const (
	CredentialSession     CredentialKind = "session"
	CredentialBearer      CredentialKind = "bearer"
	CredentialDevOverride CredentialKind = "dev_override"
)

// Credentials is what a request presented. Token holds the opaque session
// token, the JWT, or the dev override identifier depending on Kind.
type Credentials struct {
	Kind  CredentialKind
	Token string
}

// NormalizeEmail canonicalizes an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
