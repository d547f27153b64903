package models

import (
	"slices"
	"time"

	id "tenantgate/pkg/domain"
)

// Principal is the authenticated identity for one request. It is rebuilt
// from persisted state every time and never cached across requests.
type Principal struct {
	SubjectID   id.SubjectID
	Kind        SubjectKind
	TenantID    *id.TenantID
	Email       string
	Roles       []Role
	Permissions map[string]struct{}
	SessionID   *id.SessionID
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// HasPermission reports whether the principal holds capability.
func (p *Principal) HasPermission(capability string) bool {
	if p == nil {
		return false
	}
	_, ok := p.Permissions[capability]
	return ok
}

// IsSuperAdmin is true for super admin accounts and for development
// overrides that assume the super_admin role.
func (p *Principal) IsSuperAdmin() bool {
	if p == nil {
		return false
	}
	switch p.Kind {
	case SubjectSuperAdmin:
		return true
	case SubjectDevOverride:
		return p.HasRole(RoleSuperAdmin)
	}
	return false
}

func (p *Principal) HasRole(r Role) bool {
	return p != nil && slices.Contains(p.Roles, r)
}

// PermissionList returns the permissions in sorted order.
func (p *Principal) PermissionList() []string {
	out := make([]string, 0, len(p.Permissions))
	for perm := range p.Permissions {
		out = append(out, perm)
	}
	slices.Sort(out)
	return out
}
