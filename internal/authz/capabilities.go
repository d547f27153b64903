// Package authz decides what an authenticated principal may do: the tenant
// guard compares tenant bindings, the gate checks capability, plan feature
// and plan limit.
package authz

import (
	"slices"

	tenantModels "tenantgate/internal/tenant/models"
	dErrors "tenantgate/pkg/domain-errors"
)

// Capability is a named action a role can grant.
type Capability string

const (
	CapUsersRead          Capability = "users.read"
	CapUsersCreate        Capability = "users.create"
	CapUsersUpdate        Capability = "users.update"
	CapUsersDelete        Capability = "users.delete"
	CapVenuesRead         Capability = "venues.read"
	CapVenuesCreate       Capability = "venues.create"
	CapVenuesDelete       Capability = "venues.delete"
	CapBookingsRead       Capability = "bookings.read"
	CapBookingsCreate     Capability = "bookings.create"
	CapVoiceBooking       Capability = "voice_booking"
	CapAIAnalytics        Capability = "ai_analytics"
	CapProposalsManage    Capability = "proposals.manage"
	CapProposalsESign     Capability = "proposals.esign"
	CapPaymentsCollect    Capability = "payments.collect"
	CapLeadsManage        Capability = "leads.manage"
	CapAuditLogsRead      Capability = "audit_logs.read"
	CapPortalBookingsRead Capability = "portal.bookings.read"

	// Platform capabilities. Only super admins hold them.
	CapTenantsManage     Capability = "tenants.manage"
	CapPlansManage       Capability = "plans.manage"
	CapSessionsRevokeAny Capability = "sessions.revoke_any"
)

type capabilitySpec struct {
	feature  tenantModels.Feature
	limit    tenantModels.LimitKey
	platform bool
}

var catalog = map[Capability]capabilitySpec{
	CapUsersRead:          {},
	CapUsersCreate:        {limit: tenantModels.LimitMaxUsers},
	CapUsersUpdate:        {},
	CapUsersDelete:        {},
	CapVenuesRead:         {},
	CapVenuesCreate:       {limit: tenantModels.LimitMaxVenues},
	CapVenuesDelete:       {},
	CapBookingsRead:       {},
	CapBookingsCreate:     {limit: tenantModels.LimitMaxBookingsPerMonth},
	CapVoiceBooking:       {feature: tenantModels.FeatureVoiceBooking, limit: tenantModels.LimitMaxBookingsPerMonth},
	CapAIAnalytics:        {feature: tenantModels.FeatureAIAnalytics},
	CapProposalsManage:    {feature: tenantModels.FeatureProposals},
	CapProposalsESign:     {feature: tenantModels.FeatureESignature},
	CapPaymentsCollect:    {feature: tenantModels.FeaturePayments},
	CapLeadsManage:        {},
	CapAuditLogsRead:      {feature: tenantModels.FeatureAuditLogs},
	CapPortalBookingsRead: {},
	CapTenantsManage:      {platform: true},
	CapPlansManage:        {platform: true},
	CapSessionsRevokeAny:  {platform: true},
}

// ParseCapability rejects names outside the catalog.
func ParseCapability(s string) (Capability, error) {
	c := Capability(s)
	if _, ok := catalog[c]; !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "unknown capability "+s)
	}
	return c, nil
}

func (c Capability) String() string { return string(c) }

// Feature returns the plan feature gating c, if any.
func (c Capability) Feature() (tenantModels.Feature, bool) {
	entry := catalog[c]
	return entry.feature, entry.feature != ""
}

// Limit returns the plan limit c consumes, if any.
func (c Capability) Limit() (tenantModels.LimitKey, bool) {
	entry := catalog[c]
	return entry.limit, entry.limit != ""
}

// TenantBound reports whether c only makes sense against a tenant.
func (c Capability) TenantBound() bool {
	entry, ok := catalog[c]
	return ok && !entry.platform
}

// AllCapabilities returns the catalog in a stable order.
func AllCapabilities() []Capability {
	out := make([]Capability, 0, len(catalog))
	for c := range catalog {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
