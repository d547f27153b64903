package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix        = "session:"
	sessionHashKeyPrefix    = "session_hash:"
	subjectSessionKeyPrefix = "subject_sessions:"
	tenantSessionKeyPrefix  = "tenant_sessions:"

	// indexSlack keeps index sets around a little longer than the sessions
	// they point to so lookups can prune stale members.
	indexSlack = time.Hour
)

// sessionJSON is the serialized form kept under session:<id>.
type sessionJSON struct {
	ID                string  `json:"id"`
	TokenHash         string  `json:"token_hash"`
	SubjectID         string  `json:"subject_id"`
	SubjectKind       string  `json:"subject_kind"`
	TenantID          string  `json:"tenant_id,omitempty"`
	DeviceDisplayName string  `json:"device_display_name"`
	CreatedAt         int64   `json:"created_at"` // Unix nano
	ExpiresAt         int64   `json:"expires_at"` // Unix nano
	RevokedAt         *int64  `json:"revoked_at,omitempty"`
	ReplacedBy        *string `json:"replaced_by,omitempty"`
}

func sessionToJSON(s *models.Session) *sessionJSON {
	j := &sessionJSON{
		ID:                s.ID.String(),
		TokenHash:         s.TokenHash,
		SubjectID:         s.SubjectID.String(),
		SubjectKind:       string(s.SubjectKind),
		DeviceDisplayName: s.DeviceDisplayName,
		CreatedAt:         s.CreatedAt.UnixNano(),
		ExpiresAt:         s.ExpiresAt.UnixNano(),
	}
	if s.TenantID != nil {
		j.TenantID = s.TenantID.String()
	}
	if s.RevokedAt != nil {
		ts := s.RevokedAt.UnixNano()
		j.RevokedAt = &ts
	}
	if s.ReplacedBy != nil {
		next := s.ReplacedBy.String()
		j.ReplacedBy = &next
	}
	return j
}

func sessionFromJSON(j *sessionJSON) (*models.Session, error) {
	sessionID, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	subjectID, err := uuid.Parse(j.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("parse subject id: %w", err)
	}
	s := &models.Session{
		ID:                id.SessionID(sessionID),
		TokenHash:         j.TokenHash,
		SubjectID:         id.SubjectID(subjectID),
		SubjectKind:       models.SubjectKind(j.SubjectKind),
		DeviceDisplayName: j.DeviceDisplayName,
		CreatedAt:         time.Unix(0, j.CreatedAt).UTC(),
		ExpiresAt:         time.Unix(0, j.ExpiresAt).UTC(),
	}
	if j.TenantID != "" {
		tenantID, err := uuid.Parse(j.TenantID)
		if err != nil {
			return nil, fmt.Errorf("parse tenant id: %w", err)
		}
		s.TenantID = id.TenantRef(id.TenantID(tenantID))
	}
	if j.RevokedAt != nil {
		at := time.Unix(0, *j.RevokedAt).UTC()
		s.RevokedAt = &at
	}
	if j.ReplacedBy != nil {
		next, err := uuid.Parse(*j.ReplacedBy)
		if err != nil {
			return nil, fmt.Errorf("parse replaced_by: %w", err)
		}
		nextID := id.SessionID(next)
		s.ReplacedBy = &nextID
	}
	return s, nil
}

// RedisStore keeps sessions in Redis for deployments with several instances.
// Keys expire with the session; revoked sessions stay readable until then.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionID string) string       { return sessionKeyPrefix + sessionID }
func hashKey(tokenHash string) string          { return sessionHashKeyPrefix + tokenHash }
func tenantSessionsKey(tenantID string) string { return tenantSessionKeyPrefix + tenantID }
func subjectSessionsKey(kind models.SubjectKind, subjectID id.SubjectID) string {
	return subjectSessionKeyPrefix + string(kind) + ":" + subjectID.String()
}

func ttlFor(session *models.Session, now time.Time) time.Duration {
	ttl := session.ExpiresAt.Sub(now)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	ok, err := s.client.SetNX(ctx, hashKey(session.TokenHash), session.ID.String(), ttlFor(session, time.Now())).Result()
	if err != nil {
		return fmt.Errorf("reserve session token: %w", err)
	}
	if !ok {
		return fmt.Errorf("session token: %w", sentinel.ErrConflict)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return s.write(ctx, pipe, session, time.Now())
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	return s.get(ctx, s.client, sessionID.String())
}

func (s *RedisStore) FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	sessionID, err := s.client.Get(ctx, hashKey(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session by token: %w", err)
	}
	return s.get(ctx, s.client, sessionID)
}

// Rotate runs under WATCH on the old token's keys. If another client rotates
// or revokes the session first, the transaction aborts and the caller gets
// ErrSessionInactive.
func (s *RedisStore) Rotate(ctx context.Context, oldHash string, next *models.Session, now time.Time) (*models.Session, error) {
	sessionID, err := s.client.Get(ctx, hashKey(oldHash)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session by token: %w", err)
	}

	var rotated *models.Session
	err = s.client.Watch(ctx, func(rtx *redis.Tx) error {
		current, err := s.get(ctx, rtx, sessionID)
		if err != nil {
			return err
		}
		if !current.IsActiveAt(now) {
			return ErrSessionInactive
		}
		exists, err := rtx.Exists(ctx, hashKey(next.TokenHash)).Result()
		if err != nil {
			return fmt.Errorf("check next token: %w", err)
		}
		if exists > 0 {
			return fmt.Errorf("session token: %w", sentinel.ErrConflict)
		}

		current.Revoke(now)
		nextID := next.ID
		current.ReplacedBy = &nextID

		_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := s.write(ctx, pipe, current, now); err != nil {
				return err
			}
			pipe.Set(ctx, hashKey(next.TokenHash), next.ID.String(), ttlFor(next, now))
			return s.write(ctx, pipe, next, now)
		})
		if err != nil {
			return err
		}
		rotated = current
		return nil
	}, sessionKey(sessionID))

	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrSessionInactive
	}
	if err != nil {
		return nil, err
	}
	return rotated, nil
}

func (s *RedisStore) RevokeByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.Session, bool, error) {
	sessionID, err := s.client.Get(ctx, hashKey(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("find session by token: %w", err)
	}
	return s.revoke(ctx, sessionID, now)
}

func (s *RedisStore) RevokeAllForSubject(ctx context.Context, kind models.SubjectKind, subjectID id.SubjectID, now time.Time) (int, error) {
	return s.revokeSet(ctx, subjectSessionsKey(kind, subjectID), now)
}

func (s *RedisStore) RevokeAllForTenant(ctx context.Context, tenantID id.TenantID, now time.Time) (int, error) {
	return s.revokeSet(ctx, tenantSessionsKey(tenantID.String()), now)
}

func (s *RedisStore) ListBySubject(ctx context.Context, kind models.SubjectKind, subjectID id.SubjectID) ([]*models.Session, error) {
	setKey := subjectSessionsKey(kind, subjectID)
	sessionIDs, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list subject session ids: %w", err)
	}
	if len(sessionIDs) == 0 {
		return []*models.Session{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(sessionIDs))
	for i, sid := range sessionIDs {
		cmds[i] = pipe.Get(ctx, sessionKey(sid))
	}
	// Missing members are expected; they are pruned below.
	_, _ = pipe.Exec(ctx) //nolint:errcheck // per-command errors are inspected individually

	out := make([]*models.Session, 0, len(sessionIDs))
	stale := make([]any, 0)
	for i, cmd := range cmds {
		session, err := decodeSession(cmd)
		if errors.Is(err, sentinel.ErrNotFound) {
			stale = append(stale, sessionIDs[i])
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, setKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("prune subject sessions: %w", err)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteExpired is a no-op: Redis expires session keys on its own.
func (s *RedisStore) DeleteExpired(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) revokeSet(ctx context.Context, setKey string, now time.Time) (int, error) {
	sessionIDs, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list session ids: %w", err)
	}
	count := 0
	for _, sid := range sessionIDs {
		_, revoked, err := s.revoke(ctx, sid, now)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return count, err
		}
		if revoked {
			count++
		}
	}
	return count, nil
}

func (s *RedisStore) revoke(ctx context.Context, sessionID string, now time.Time) (*models.Session, bool, error) {
	var (
		result  *models.Session
		revoked bool
	)
	err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
		session, err := s.get(ctx, rtx, sessionID)
		if err != nil {
			return err
		}
		result = session
		if !session.IsActiveAt(now) {
			return nil
		}
		session.Revoke(now)
		_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.write(ctx, pipe, session, now)
		})
		if err != nil {
			return err
		}
		revoked = true
		return nil
	}, sessionKey(sessionID))
	if errors.Is(err, redis.TxFailedErr) {
		// Someone else changed the session; it is revoked either way.
		session, getErr := s.get(ctx, s.client, sessionID)
		return session, false, getErr
	}
	if err != nil {
		return nil, false, err
	}
	return result, revoked, nil
}

func (s *RedisStore) write(ctx context.Context, pipe redis.Pipeliner, session *models.Session, now time.Time) error {
	data, err := json.Marshal(sessionToJSON(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := ttlFor(session, now)
	pipe.Set(ctx, sessionKey(session.ID.String()), data, ttl)

	subjectKey := subjectSessionsKey(session.SubjectKind, session.SubjectID)
	pipe.SAdd(ctx, subjectKey, session.ID.String())
	pipe.Expire(ctx, subjectKey, ttl+indexSlack)
	if session.TenantID != nil {
		tenantKey := tenantSessionsKey(session.TenantID.String())
		pipe.SAdd(ctx, tenantKey, session.ID.String())
		pipe.Expire(ctx, tenantKey, ttl+indexSlack)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, getter redis.Cmdable, sessionID string) (*models.Session, error) {
	return decodeSession(getter.Get(ctx, sessionKey(sessionID)))
}

func decodeSession(cmd *redis.StringCmd) (*models.Session, error) {
	data, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var j sessionJSON
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return sessionFromJSON(&j)
}
