package superadmin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// PostgresStore persists super admins in their own table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const adminColumns = `id, email, password_hash, active, created_at`

func (s *PostgresStore) Create(ctx context.Context, a *models.SuperAdmin) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`INSERT INTO super_admins (`+adminColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(a.ID), a.Email, a.PasswordHash, a.Active, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("super admin %q: %w", a.Email, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert super admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, adminID id.AdminID) (*models.SuperAdmin, error) {
	return scanAdmin(tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM super_admins WHERE id = $1`, uuid.UUID(adminID)))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.SuperAdmin, error) {
	return scanAdmin(tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM super_admins WHERE email = $1`, email))
}

func scanAdmin(row *sql.Row) (*models.SuperAdmin, error) {
	var (
		a       models.SuperAdmin
		adminID uuid.UUID
	)
	if err := row.Scan(&adminID, &a.Email, &a.PasswordHash, &a.Active, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan super admin: %w", err)
	}
	a.ID = id.AdminID(adminID)
	return &a, nil
}
