package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

// ErrSessionInactive is returned when an operation needs an active session
// and finds a revoked or expired one.
var ErrSessionInactive = fmt.Errorf("session is not active: %w", sentinel.ErrRevoked)

// InMemory stores sessions in memory for tests and development.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
	byHash   map[string]id.SessionID
}

func NewInMemory() *InMemory {
	return &InMemory{
		sessions: make(map[id.SessionID]*models.Session),
		byHash:   make(map[string]id.SessionID),
	}
}

func (s *InMemory) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byHash[session.TokenHash]; exists {
		return sentinel.ErrConflict
	}
	s.insert(session)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copySession(session), nil
}

func (s *InMemory) FindByTokenHash(_ context.Context, tokenHash string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessionID, ok := s.byHash[tokenHash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copySession(s.sessions[sessionID]), nil
}

// Rotate revokes the session holding oldHash and inserts next as its
// replacement. Both happen under one lock, so only one of several concurrent
// rotations of the same token can succeed.
func (s *InMemory) Rotate(_ context.Context, oldHash string, next *models.Session, now time.Time) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, ok := s.byHash[oldHash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	current := s.sessions[sessionID]
	if !current.IsActiveAt(now) {
		return nil, ErrSessionInactive
	}
	if _, exists := s.byHash[next.TokenHash]; exists {
		return nil, sentinel.ErrConflict
	}

	current.Revoke(now)
	nextID := next.ID
	current.ReplacedBy = &nextID
	s.insert(next)
	return copySession(current), nil
}

// RevokeByTokenHash revokes one session. Returns false when it was already revoked.
func (s *InMemory) RevokeByTokenHash(_ context.Context, tokenHash string, now time.Time) (*models.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionID, ok := s.byHash[tokenHash]
	if !ok {
		return nil, false, sentinel.ErrNotFound
	}
	session := s.sessions[sessionID]
	revoked := session.Revoke(now)
	return copySession(session), revoked, nil
}

func (s *InMemory) RevokeAllForSubject(_ context.Context, kind models.SubjectKind, subjectID id.SubjectID, now time.Time) (int, error) {
	return s.revokeWhere(now, func(session *models.Session) bool {
		return session.SubjectKind == kind && session.SubjectID == subjectID
	}), nil
}

func (s *InMemory) RevokeAllForTenant(_ context.Context, tenantID id.TenantID, now time.Time) (int, error) {
	return s.revokeWhere(now, func(session *models.Session) bool {
		return session.TenantID != nil && *session.TenantID == tenantID
	}), nil
}

// ListBySubject returns the subject's sessions, newest first.
func (s *InMemory) ListBySubject(_ context.Context, kind models.SubjectKind, subjectID id.SubjectID) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Session, 0)
	for _, session := range s.sessions {
		if session.SubjectKind == kind && session.SubjectID == subjectID {
			out = append(out, copySession(session))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteExpired removes sessions that expired before cutoff.
func (s *InMemory) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for sessionID, session := range s.sessions {
		if session.ExpiresAt.Before(cutoff) {
			delete(s.byHash, session.TokenHash)
			delete(s.sessions, sessionID)
			deleted++
		}
	}
	return deleted, nil
}

func (s *InMemory) revokeWhere(now time.Time, match func(*models.Session) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, session := range s.sessions {
		if match(session) && session.IsActiveAt(now) && session.Revoke(now) {
			count++
		}
	}
	return count
}

func (s *InMemory) insert(session *models.Session) {
	s.sessions[session.ID] = copySession(session)
	s.byHash[session.TokenHash] = session.ID
}

func copySession(session *models.Session) *models.Session {
	cp := *session
	if session.RevokedAt != nil {
		at := *session.RevokedAt
		cp.RevokedAt = &at
	}
	if session.ReplacedBy != nil {
		next := *session.ReplacedBy
		cp.ReplacedBy = &next
	}
	return &cp
}
