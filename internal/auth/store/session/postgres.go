package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// PostgresStore persists sessions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const sessionColumns = `id, token_hash, subject_id, subject_kind, tenant_id, device_display_name,
	created_at, expires_at, revoked_at, replaced_by`

func (s *PostgresStore) Create(ctx context.Context, session *models.Session) error {
	return s.insert(ctx, tx.Exec(ctx, s.db), session)
}

func (s *PostgresStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, uuid.UUID(sessionID))
	return scanSession(row)
}

func (s *PostgresStore) FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token_hash = $1`, tokenHash)
	return scanSession(row)
}

// Rotate locks the old session row, requires it to be active, revokes it
// with a link to next, and inserts next. One transaction; a concurrent
// rotation blocks on the row lock and then sees the revoked session.
func (s *PostgresStore) Rotate(ctx context.Context, oldHash string, next *models.Session, now time.Time) (*models.Session, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rotate session tx: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback() //nolint:errcheck // rollback after commit is a no-op
	}()

	current, err := scanSession(dbTx.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token_hash = $1 FOR UPDATE`, oldHash))
	if err != nil {
		return nil, err
	}
	if !current.IsActiveAt(now) {
		return nil, ErrSessionInactive
	}

	if _, err := dbTx.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2, replaced_by = $3 WHERE id = $1`,
		uuid.UUID(current.ID), now, uuid.UUID(next.ID)); err != nil {
		return nil, fmt.Errorf("revoke rotated session: %w", err)
	}
	if err := s.insert(ctx, dbTx, next); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rotate session: %w", err)
	}

	current.Revoke(now)
	nextID := next.ID
	current.ReplacedBy = &nextID
	return current, nil
}

func (s *PostgresStore) RevokeByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.Session, bool, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		UPDATE sessions SET revoked_at = $2
		WHERE token_hash = $1 AND revoked_at IS NULL
		RETURNING `+sessionColumns, tokenHash, now)
	session, err := scanSession(row)
	if err == nil {
		return session, true, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, err
	}
	// Either unknown or already revoked.
	session, err = s.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, false, err
	}
	return session, false, nil
}

func (s *PostgresStore) RevokeAllForSubject(ctx context.Context, kind models.SubjectKind, subjectID id.SubjectID, now time.Time) (int, error) {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE sessions SET revoked_at = $3
		WHERE subject_kind = $1 AND subject_id = $2 AND revoked_at IS NULL AND expires_at > $3
	`, string(kind), uuid.UUID(subjectID), now)
	if err != nil {
		return 0, fmt.Errorf("revoke subject sessions: %w", err)
	}
	return rowsAffected(res)
}

func (s *PostgresStore) RevokeAllForTenant(ctx context.Context, tenantID id.TenantID, now time.Time) (int, error) {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE sessions SET revoked_at = $2
		WHERE tenant_id = $1 AND revoked_at IS NULL AND expires_at > $2
	`, uuid.UUID(tenantID), now)
	if err != nil {
		return 0, fmt.Errorf("revoke tenant sessions: %w", err)
	}
	return rowsAffected(res)
}

func (s *PostgresStore) ListBySubject(ctx context.Context, kind models.SubjectKind, subjectID id.SubjectID) ([]*models.Session, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		WHERE subject_kind = $1 AND subject_id = $2 ORDER BY created_at DESC`,
		string(kind), uuid.UUID(subjectID))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return rowsAffected(res)
}

func (s *PostgresStore) insert(ctx context.Context, exec tx.Executor, session *models.Session) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO sessions (id, token_hash, subject_id, subject_kind, tenant_id, device_display_name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(session.ID), session.TokenHash, uuid.UUID(session.SubjectID), string(session.SubjectKind),
		nullTenant(session.TenantID), session.DeviceDisplayName, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("session token: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		session    models.Session
		sessionID  uuid.UUID
		subjectID  uuid.UUID
		kind       string
		tenantID   uuid.NullUUID
		revokedAt  sql.NullTime
		replacedBy uuid.NullUUID
	)
	err := row.Scan(&sessionID, &session.TokenHash, &subjectID, &kind, &tenantID, &session.DeviceDisplayName,
		&session.CreatedAt, &session.ExpiresAt, &revokedAt, &replacedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.ID = id.SessionID(sessionID)
	session.SubjectID = id.SubjectID(subjectID)
	session.SubjectKind = models.SubjectKind(kind)
	if tenantID.Valid {
		session.TenantID = id.TenantRef(id.TenantID(tenantID.UUID))
	}
	if revokedAt.Valid {
		at := revokedAt.Time
		session.RevokedAt = &at
	}
	if replacedBy.Valid {
		next := id.SessionID(replacedBy.UUID)
		session.ReplacedBy = &next
	}
	return &session, nil
}

func nullTenant(tenantID *id.TenantID) uuid.NullUUID {
	if tenantID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*tenantID), Valid: true}
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
