package user

import (
	"context"
	"database/sql"
	"encoding/json"
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

// PostgresStore persists tenant users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, tenant_id, email, name, password_hash, roles, permissions, active, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, u *models.TenantUser) error {
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}
	perms, err := json.Marshal(u.ExplicitPermissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO tenant_users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.UUID(u.ID), uuid.UUID(u.TenantID), u.Email, u.Name, u.PasswordHash, roles, perms, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tenant user %q: %w", u.Email, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert tenant user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, userID id.UserID) (*models.TenantUser, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM tenant_users WHERE tenant_id = $1 AND id = $2`,
		uuid.UUID(tenantID), uuid.UUID(userID))
	return scanUser(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.TenantUser, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM tenant_users WHERE tenant_id = $1 AND email = $2`,
		uuid.UUID(tenantID), email)
	return scanUser(row)
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.TenantUser, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+userColumns+` FROM tenant_users WHERE tenant_id = $1 ORDER BY created_at`,
		uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list tenant users: %w", err)
	}
	defer rows.Close()

	out := make([]*models.TenantUser, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateAccess replaces the user's roles and explicit capability grants.
func (s *PostgresStore) UpdateAccess(ctx context.Context, tenantID id.TenantID, userID id.UserID, roles []models.Role, permissions []string, updatedAt time.Time) error {
	if roles == nil {
		roles = []models.Role{}
	}
	if permissions == nil {
		permissions = []string{}
	}
	rawRoles, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}
	rawPerms, err := json.Marshal(permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE tenant_users SET roles = $3, permissions = $4, updated_at = $5
		WHERE tenant_id = $1 AND id = $2
	`, uuid.UUID(tenantID), uuid.UUID(userID), rawRoles, rawPerms, updatedAt)
	if err != nil {
		return fmt.Errorf("update tenant user access: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, tenantID id.TenantID, userID id.UserID) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`DELETE FROM tenant_users WHERE tenant_id = $1 AND id = $2`, uuid.UUID(tenantID), uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete tenant user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// DeleteByTenant is a no-op; the foreign key cascades.
func (s *PostgresStore) DeleteByTenant(context.Context, id.TenantID) error {
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.TenantUser, error) {
	var (
		u        models.TenantUser
		userID   uuid.UUID
		tenantID uuid.UUID
		roles    []byte
		perms    []byte
	)
	err := row.Scan(&userID, &tenantID, &u.Email, &u.Name, &u.PasswordHash, &roles, &perms, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan tenant user: %w", err)
	}
	if err := json.Unmarshal(roles, &u.Roles); err != nil {
		return nil, fmt.Errorf("unmarshal roles: %w", err)
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &u.ExplicitPermissions); err != nil {
			return nil, fmt.Errorf("unmarshal permissions: %w", err)
		}
	}
	u.ID = id.UserID(userID)
	u.TenantID = id.TenantID(tenantID)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
