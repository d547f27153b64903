package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// PostgresStore persists tenants in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const tenantColumns = `id, name, slug, status, plan_id, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, t *models.Tenant) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO tenants (id, name, slug, status, plan_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(t.ID), t.Name, t.Slug, string(t.Status), uuid.UUID(t.PlanID), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tenant slug %q: %w", t.Slug, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, uuid.UUID(tenantID))
	return scanTenant(row)
}

// FindByIDForUpdate locks the tenant row until the surrounding transaction
// ends. Outside a transaction the lock is released immediately.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1 FOR UPDATE`, uuid.UUID(tenantID))
	return scanTenant(row)
}

func (s *PostgresStore) FindBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug)
	return scanTenant(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateStatus writes only the lifecycle columns. Callers hold the row lock
// taken by FindByIDForUpdate.
func (s *PostgresStore) UpdateStatus(ctx context.Context, tenantID id.TenantID, status models.TenantStatus, updatedAt time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE tenants SET status = $2, updated_at = $3
		WHERE id = $1
	`, uuid.UUID(tenantID), string(status), updatedAt)
	if err != nil {
		return fmt.Errorf("update tenant status: %w", err)
	}
	return requireOneRow(res)
}

// UpdatePlan swaps the plan reference and leaves the status untouched.
func (s *PostgresStore) UpdatePlan(ctx context.Context, tenantID id.TenantID, planID id.PlanID, updatedAt time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE tenants SET plan_id = $2, updated_at = $3
		WHERE id = $1
	`, uuid.UUID(tenantID), uuid.UUID(planID), updatedAt)
	if err != nil {
		return fmt.Errorf("update tenant plan: %w", err)
	}
	return requireOneRow(res)
}

// Delete removes the tenant. Users, customers, sessions, usage and venues cascade.
func (s *PostgresStore) Delete(ctx context.Context, tenantID id.TenantID) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, uuid.UUID(tenantID))
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	return requireOneRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var (
		t        models.Tenant
		tenantID uuid.UUID
		planID   uuid.UUID
		status   string
	)
	if err := row.Scan(&tenantID, &t.Name, &t.Slug, &status, &planID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	t.ID = id.TenantID(tenantID)
	t.PlanID = id.PlanID(planID)
	t.Status = models.TenantStatus(status)
	return &t, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
