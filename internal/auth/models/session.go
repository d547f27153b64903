package models

import (
	"time"

	id "tenantgate/pkg/domain"
)

type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
	SessionStatusExpired SessionStatus = "expired"
)

// Session is a server-side login. Only the SHA-256 of the opaque token is kept.
//
// Lifecycle: active, then revoked or expired, both terminal. A session is never
// extended in place; refresh revokes it and links ReplacedBy to the successor.
type Session struct {
	ID                id.SessionID
	TokenHash         string
	SubjectID         id.SubjectID
	SubjectKind       SubjectKind
	TenantID          *id.TenantID
	DeviceDisplayName string
	CreatedAt         time.Time
	ExpiresAt         time.Time
	RevokedAt         *time.Time
	ReplacedBy        *id.SessionID
}

// IsActiveAt reports whether the session may be honored at now.
func (s *Session) IsActiveAt(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

func (s *Session) StatusAt(now time.Time) SessionStatus {
	switch {
	case s.RevokedAt != nil:
		return SessionStatusRevoked
	case !now.Before(s.ExpiresAt):
		return SessionStatusExpired
	default:
		return SessionStatusActive
	}
}

// Revoke marks the session revoked. Returns false if it already was.
func (s *Session) Revoke(at time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	s.RevokedAt = &at
	return true
}

// Successor builds the replacement session issued on refresh. It keeps the
// subject and tenant binding and gets a fresh expiry.
func (s *Session) Successor(newID id.SessionID, tokenHash string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:                newID,
		TokenHash:         tokenHash,
		SubjectID:         s.SubjectID,
		SubjectKind:       s.SubjectKind,
		TenantID:          s.TenantID,
		DeviceDisplayName: s.DeviceDisplayName,
		CreatedAt:         now,
		ExpiresAt:         now.Add(ttl),
	}
}
