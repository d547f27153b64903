package venue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tenantgate/internal/venue/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// PostgresStore persists venues in PostgreSQL. Every query is scoped by
// tenant_id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const venueColumns = `id, tenant_id, name, capacity, created_at`

func (s *PostgresStore) Create(ctx context.Context, v *models.Venue) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO venues (id, tenant_id, name, capacity, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(v.ID), uuid.UUID(v.TenantID), v.Name, v.Capacity, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert venue: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, venueID id.VenueID) (*models.Venue, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE tenant_id = $1 AND id = $2`,
		uuid.UUID(tenantID), uuid.UUID(venueID))
	return scanVenue(row)
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Venue, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE tenant_id = $1 ORDER BY created_at`, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Delete removes the venue. Its bookings cascade.
func (s *PostgresStore) Delete(ctx context.Context, tenantID id.TenantID, venueID id.VenueID) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`DELETE FROM venues WHERE tenant_id = $1 AND id = $2`, uuid.UUID(tenantID), uuid.UUID(venueID))
	if err != nil {
		return fmt.Errorf("delete venue: %w", err)
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

func (s *PostgresStore) DeleteByTenant(ctx context.Context, tenantID id.TenantID) error {
	if _, err := tx.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM venues WHERE tenant_id = $1`, uuid.UUID(tenantID)); err != nil {
		return fmt.Errorf("delete tenant venues: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVenue(row rowScanner) (*models.Venue, error) {
	var (
		v                 models.Venue
		venueID, tenantID uuid.UUID
	)
	if err := row.Scan(&venueID, &tenantID, &v.Name, &v.Capacity, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan venue: %w", err)
	}
	v.ID = id.VenueID(venueID)
	v.TenantID = id.TenantID(tenantID)
	return &v, nil
}
