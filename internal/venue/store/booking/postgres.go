package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tenantgate/internal/venue/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// PostgresStore persists bookings in PostgreSQL. The bookings table carries
// a unique (venue_id, event_date) constraint.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, b *models.Booking) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO bookings (id, tenant_id, venue_id, event_date, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(b.ID), uuid.UUID(b.TenantID), uuid.UUID(b.VenueID), b.EventDate, string(b.Source), b.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("venue %s on %s: %w", b.VenueID, b.EventDate.Format(time.DateOnly), sentinel.ErrConflict)
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Booking, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT id, tenant_id, venue_id, event_date, source, created_at
		FROM bookings WHERE tenant_id = $1
		ORDER BY event_date, created_at
	`, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Booking, 0)
	for rows.Next() {
		var (
			b                          models.Booking
			bookingID, tenant, venueID uuid.UUID
			source                     string
		)
		if err := rows.Scan(&bookingID, &tenant, &venueID, &b.EventDate, &source, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.ID = id.BookingID(bookingID)
		b.TenantID = id.TenantID(tenant)
		b.VenueID = id.VenueID(venueID)
		b.EventDate = b.EventDate.UTC()
		b.Source = models.BookingSource(source)
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteByVenue(ctx context.Context, tenantID id.TenantID, venueID id.VenueID) error {
	if _, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`DELETE FROM bookings WHERE tenant_id = $1 AND venue_id = $2`, uuid.UUID(tenantID), uuid.UUID(venueID)); err != nil {
		return fmt.Errorf("delete venue bookings: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByTenant(ctx context.Context, tenantID id.TenantID) error {
	if _, err := tx.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM bookings WHERE tenant_id = $1`, uuid.UUID(tenantID)); err != nil {
		return fmt.Errorf("delete tenant bookings: %w", err)
	}
	return nil
}
