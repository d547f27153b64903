package models

import (
	"strings"
	"time"

	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/validation"
)

// LimitKey names a countable plan allowance.
type LimitKey string

const (
	LimitMaxUsers            LimitKey = "max_users"
	LimitMaxVenues           LimitKey = "max_venues"
	LimitMaxBookingsPerMonth LimitKey = "max_bookings_per_month"
)

// Unlimited disables a limit.
const Unlimited int64 = -1

func (k LimitKey) IsValid() bool {
	switch k {
	case LimitMaxUsers, LimitMaxVenues, LimitMaxBookingsPerMonth:
		return true
	}
	return false
}

// Period returns the usage bucket for this limit at now. Lifetime limits use
// the empty period; monthly ones use the UTC calendar month.
func (k LimitKey) Period(now time.Time) string {
	if k == LimitMaxBookingsPerMonth {
		return now.UTC().Format("2006-01")
	}
	return ""
}

// Feature names a plan-gated product capability.
type Feature string

const (
	FeatureVoiceBooking Feature = "voice_booking"
	FeatureAIAnalytics  Feature = "ai_analytics"
	FeatureProposals    Feature = "proposals"
	FeatureESignature   Feature = "esignature"
	FeaturePayments     Feature = "payments"
	FeatureAuditLogs    Feature = "audit_logs"
)

func (f Feature) IsValid() bool {
	switch f {
	case FeatureVoiceBooking, FeatureAIAnalytics, FeatureProposals, FeatureESignature, FeaturePayments, FeatureAuditLogs:
		return true
	}
	return false
}

// Plan is a subscription tier. It is product configuration shared by tenants.
type Plan struct {
	ID        id.PlanID          `json:"id"`
	Slug      string             `json:"slug"`
	Name      string             `json:"name"`
	Limits    map[LimitKey]int64 `json:"limits"`
	Features  map[Feature]bool   `json:"features"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewPlan validates and builds a plan.
func NewPlan(planID id.PlanID, slug, name string, limits map[LimitKey]int64, features map[Feature]bool, now time.Time) (*Plan, error) {
	p := &Plan{
		ID:        planID,
		Slug:      slug,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !validation.SlugPattern.MatchString(slug) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "plan slug is malformed")
	}
	if err := p.SetTerms(name, limits, features, now); err != nil {
		return nil, err
	}
	return p, nil
}

// SetTerms replaces name, limits and features.
func (p *Plan) SetTerms(name string, limits map[LimitKey]int64, features map[Feature]bool, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "plan name cannot be empty")
	}
	for k, v := range limits {
		if !k.IsValid() {
			return dErrors.New(dErrors.CodeInvariantViolation, "unknown limit "+string(k))
		}
		if v < Unlimited {
			return dErrors.New(dErrors.CodeInvariantViolation, "limit "+string(k)+" must be -1 or non-negative")
		}
	}
	for f := range features {
		if !f.IsValid() {
			return dErrors.New(dErrors.CodeInvariantViolation, "unknown feature "+string(f))
		}
	}
	p.Name = name
	p.Limits = cloneMap(limits)
	p.Features = cloneMap(features)
	p.UpdatedAt = now
	return nil
}

// Limit returns the configured limit. An absent key means nothing is allowed.
func (p *Plan) Limit(key LimitKey) int64 {
	if p == nil {
		return 0
	}
	return p.Limits[key]
}

func (p *Plan) HasFeature(f Feature) bool {
	if p == nil {
		return false
	}
	return p.Features[f]
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
