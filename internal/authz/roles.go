package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"tenantgate/internal/auth/models"
)

// roleModel grants every capability to super_admin and otherwise follows
// role inheritance (g) into role policies (p).
const roleModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, "super_admin") || (g(r.sub, p.sub) && r.act == p.act)
`

// roleInheritance lists child, parent pairs: the parent holds everything the child does.
var roleInheritance = [][2]models.Role{
	{models.RoleTenantManager, models.RoleTenantStaff},
	{models.RoleTenantAdmin, models.RoleTenantManager},
}

var rolePolicies = map[models.Role][]Capability{
	models.RoleTenantStaff: {
		CapUsersRead, CapVenuesRead, CapBookingsRead, CapBookingsCreate, CapLeadsManage,
	},
	models.RoleTenantManager: {
		CapVenuesCreate, CapVenuesDelete, CapVoiceBooking, CapAIAnalytics,
		CapProposalsManage, CapProposalsESign, CapPaymentsCollect,
	},
	models.RoleTenantAdmin: {
		CapUsersCreate, CapUsersUpdate, CapUsersDelete, CapAuditLogsRead,
	},
	models.RoleCustomer: {
		CapPortalBookingsRead,
	},
	models.RolePlatformUser: {
		CapVenuesRead, CapBookingsRead, CapLeadsManage,
	},
}

// RoleCatalog maps roles to capabilities. The catalog is static product
// configuration; it is evaluated once through casbin at construction and
// then read without locks.
type RoleCatalog struct {
	grants map[models.Role]map[Capability]struct{}
}

func NewRoleCatalog() (*RoleCatalog, error) {
	m, err := model.NewModelFromString(roleModel)
	if err != nil {
		return nil, fmt.Errorf("load role model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	for _, link := range roleInheritance {
		if _, err := e.AddGroupingPolicy(string(link[0]), string(link[1])); err != nil {
			return nil, fmt.Errorf("add role inheritance %s: %w", link[0], err)
		}
	}
	for role, caps := range rolePolicies {
		for _, c := range caps {
			if _, err := e.AddPolicy(string(role), string(c)); err != nil {
				return nil, fmt.Errorf("add policy %s %s: %w", role, c, err)
			}
		}
	}

	roles := []models.Role{
		models.RoleTenantStaff, models.RoleTenantManager, models.RoleTenantAdmin,
		models.RoleCustomer, models.RolePlatformUser, models.RoleSuperAdmin,
	}
	grants := make(map[models.Role]map[Capability]struct{}, len(roles))
	for _, role := range roles {
		set := make(map[Capability]struct{})
		for _, c := range AllCapabilities() {
			ok, err := e.Enforce(string(role), string(c))
			if err != nil {
				return nil, fmt.Errorf("enforce %s %s: %w", role, c, err)
			}
			if ok {
				set[c] = struct{}{}
			}
		}
		grants[role] = set
	}
	return &RoleCatalog{grants: grants}, nil
}

// MustRoleCatalog panics if the static catalog is malformed.
func MustRoleCatalog() *RoleCatalog {
	c, err := NewRoleCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Grants reports whether role holds capability c.
func (c *RoleCatalog) Grants(role models.Role, capability Capability) bool {
	_, ok := c.grants[role][capability]
	return ok
}

// Permissions returns the union of the roles' capabilities plus explicit
// grants. Unknown roles contribute nothing; explicit grants can only add
// tenant capabilities, never platform ones.
func (c *RoleCatalog) Permissions(roles []models.Role, explicit []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, role := range roles {
		for capability := range c.grants[role] {
			out[string(capability)] = struct{}{}
		}
	}
	for _, name := range explicit {
		if Capability(name).TenantBound() {
			out[name] = struct{}{}
		}
	}
	return out
}
