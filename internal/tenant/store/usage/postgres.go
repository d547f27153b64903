package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// PostgresStore keeps usage counters in the usage_counters table.
// Callers should run Reserve inside the transaction that creates the counted
// resource so a failed create also rolls back the reservation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// The conditional upsert is the whole check-and-increment: concurrent callers
// serialize on the counter row and at most one can take the last slot.
const reserveQuery = `
	INSERT INTO usage_counters (tenant_id, limit_key, period, used)
	SELECT $1::uuid, $2::text, $3::text, $4::bigint
	WHERE $4::bigint <= $5::bigint
	ON CONFLICT (tenant_id, limit_key, period)
	DO UPDATE SET used = usage_counters.used + EXCLUDED.used
	WHERE usage_counters.used + EXCLUDED.used <= $5::bigint
	RETURNING used
`

func (s *PostgresStore) Reserve(ctx context.Context, tenantID id.TenantID, limit models.LimitKey, period string, delta, ceiling int64) (int64, error) {
	if ceiling < 0 {
		ceiling = math.MaxInt64
	}
	var used int64
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, reserveQuery,
		uuid.UUID(tenantID), string(limit), period, delta, ceiling,
	).Scan(&used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrLimitReached
		}
		return 0, fmt.Errorf("reserve usage: %w", err)
	}
	return used, nil
}

func (s *PostgresStore) Release(ctx context.Context, tenantID id.TenantID, limit models.LimitKey, period string, delta int64) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE usage_counters SET used = GREATEST(used - $4, 0)
		WHERE tenant_id = $1 AND limit_key = $2 AND period = $3
	`, uuid.UUID(tenantID), string(limit), period, delta)
	if err != nil {
		return fmt.Errorf("release usage: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, tenantID id.TenantID, limit models.LimitKey, period string) (int64, error) {
	var used int64
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT used FROM usage_counters WHERE tenant_id = $1 AND limit_key = $2 AND period = $3
	`, uuid.UUID(tenantID), string(limit), period).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get usage: %w", err)
	}
	return used, nil
}

func (s *PostgresStore) DeleteByTenant(ctx context.Context, tenantID id.TenantID) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM usage_counters WHERE tenant_id = $1`, uuid.UUID(tenantID))
	if err != nil {
		return fmt.Errorf("delete usage: %w", err)
	}
	return nil
}
