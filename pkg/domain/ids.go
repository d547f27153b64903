// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "tenantgate/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing UserID where TenantID is expected.
type (
	TenantID       uuid.UUID
	PlanID         uuid.UUID
	UserID         uuid.UUID
	CustomerID     uuid.UUID
	PlatformUserID uuid.UUID
	AdminID        uuid.UUID
	SessionID      uuid.UUID
	VenueID        uuid.UUID
	BookingID      uuid.UUID

	// SubjectID identifies whoever a session or principal belongs to. Its
	// meaning depends on the accompanying subject kind.
	SubjectID uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseTenantID(s string) (TenantID, error) {
	id, err := parseUUID(s, "tenant ID")
	return TenantID(id), err
}

func ParsePlanID(s string) (PlanID, error) {
	id, err := parseUUID(s, "plan ID")
	return PlanID(id), err
}

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

func ParseVenueID(s string) (VenueID, error) {
	id, err := parseUUID(s, "venue ID")
	return VenueID(id), err
}

func ParseSubjectID(s string) (SubjectID, error) {
	id, err := parseUUID(s, "subject ID")
	return SubjectID(id), err
}

// String methods - for logging and debugging.

func (id TenantID) String() string       { return uuid.UUID(id).String() }
func (id PlanID) String() string         { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id CustomerID) String() string     { return uuid.UUID(id).String() }
func (id PlatformUserID) String() string { return uuid.UUID(id).String() }
func (id AdminID) String() string        { return uuid.UUID(id).String() }
func (id SessionID) String() string      { return uuid.UUID(id).String() }
func (id VenueID) String() string        { return uuid.UUID(id).String() }
func (id BookingID) String() string      { return uuid.UUID(id).String() }
func (id SubjectID) String() string      { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id TenantID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id PlanID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CustomerID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id PlatformUserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AdminID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id VenueID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id BookingID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id SubjectID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// TenantRef returns a pointer to a copy of id, or nil for the nil UUID.
// Nullable tenant references are modelled as *TenantID throughout.
func TenantRef(id TenantID) *TenantID {
	if id.IsNil() {
		return nil
	}
	return &id
}

// SameTenant reports whether both references are set and equal.
// Two nil references are not considered the same tenant.
func SameTenant(a, b *TenantID) bool {
	if a == nil || b == nil {
		return false
	}
	if a.IsNil() || b.IsNil() {
		return false
	}
	return *a == *b
}

// parseUUID is the shared validation logic.
// Nil UUIDs are rejected: no resource in this system is addressed by the nil ID.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
