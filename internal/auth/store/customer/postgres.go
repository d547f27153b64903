package customer

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

// PostgresStore persists customer accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const customerColumns = `id, tenant_id, email, name, password_hash, active, created_at`

func (s *PostgresStore) Create(ctx context.Context, c *models.Customer) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(c.ID), uuid.UUID(c.TenantID), c.Email, c.Name, c.PasswordHash, c.Active, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("customer %q: %w", c.Email, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, customerID id.CustomerID) (*models.Customer, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE tenant_id = $1 AND id = $2`,
		uuid.UUID(tenantID), uuid.UUID(customerID))
	return scanCustomer(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.Customer, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE tenant_id = $1 AND email = $2`,
		uuid.UUID(tenantID), email)
	return scanCustomer(row)
}

// DeleteByTenant is a no-op; the foreign key cascades.
func (s *PostgresStore) DeleteByTenant(context.Context, id.TenantID) error {
	return nil
}

func scanCustomer(row *sql.Row) (*models.Customer, error) {
	var (
		c          models.Customer
		customerID uuid.UUID
		tenantID   uuid.UUID
	)
	if err := row.Scan(&customerID, &tenantID, &c.Email, &c.Name, &c.PasswordHash, &c.Active, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	c.ID = id.CustomerID(customerID)
	c.TenantID = id.TenantID(tenantID)
	return &c, nil
}
