package platformuser

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// PostgresStore persists federated platform users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const platformUserColumns = `id, provider, provider_subject, email, tenant_id, roles, active, created_at`

func (s *PostgresStore) Create(ctx context.Context, u *models.PlatformUser) error {
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}
	var tenantID uuid.NullUUID
	if u.TenantID != nil {
		tenantID = uuid.NullUUID{UUID: uuid.UUID(*u.TenantID), Valid: true}
	}
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO platform_users (`+platformUserColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(u.ID), u.Provider, u.ProviderSubject, u.Email, tenantID, roles, u.Active, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("platform user %s/%s: %w", u.Provider, u.ProviderSubject, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert platform user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.PlatformUserID) (*models.PlatformUser, error) {
	return scanPlatformUser(tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+platformUserColumns+` FROM platform_users WHERE id = $1`, uuid.UUID(userID)))
}

func (s *PostgresStore) FindByProviderSubject(ctx context.Context, provider, subject string) (*models.PlatformUser, error) {
	return scanPlatformUser(tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+platformUserColumns+` FROM platform_users WHERE provider = $1 AND provider_subject = $2`,
		provider, subject))
}

// UnlinkTenant is a no-op; the foreign key is ON DELETE SET NULL.
func (s *PostgresStore) UnlinkTenant(context.Context, id.TenantID) error {
	return nil
}

func scanPlatformUser(row *sql.Row) (*models.PlatformUser, error) {
	var (
		u        models.PlatformUser
		userID   uuid.UUID
		tenantID uuid.NullUUID
		roles    []byte
	)
	err := row.Scan(&userID, &u.Provider, &u.ProviderSubject, &u.Email, &tenantID, &roles, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan platform user: %w", err)
	}
	if err := json.Unmarshal(roles, &u.Roles); err != nil {
		return nil, fmt.Errorf("unmarshal roles: %w", err)
	}
	u.ID = id.PlatformUserID(userID)
	if tenantID.Valid {
		u.TenantID = id.TenantRef(id.TenantID(tenantID.UUID))
	}
	return &u, nil
}
