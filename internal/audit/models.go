package audit

import "time"

// Action names an auditable security event.
type Action string

const (
	ActionLoginSucceeded      Action = "login_succeeded"
	ActionLoginFailed         Action = "login_failed"
	ActionSessionRefreshed    Action = "session_refreshed"
	ActionSessionRevoked      Action = "session_revoked"
	ActionSessionsRevoked     Action = "sessions_revoked"
	ActionAccessDenied        Action = "access_denied"
	ActionTenantCreated       Action = "tenant_created"
	ActionTenantStatusChanged Action = "tenant_status_changed"
	ActionTenantDeleted       Action = "tenant_deleted"
	ActionPlanChanged         Action = "plan_changed"
	ActionPlanSaved           Action = "plan_saved"
	ActionUserCreated         Action = "user_created"
	ActionUserUpdated         Action = "user_updated"
	ActionUserDeleted         Action = "user_deleted"
	ActionVenueCreated        Action = "venue_created"
	ActionVenueDeleted        Action = "venue_deleted"
	ActionBookingCreated      Action = "booking_created"
)

// Event is emitted from services after a security-relevant decision or mutation.
// Identifiers are strings so sinks do not depend on domain types.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	ActorKind string    `json:"actor_kind,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	TenantID  string    `json:"tenant_id,omitempty"`
	TargetID  string    `json:"target_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}
