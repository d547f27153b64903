//go:build integration

package containers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"tenantgate/internal/platform/database"
	id "tenantgate/pkg/domain"
)

// PostgresContainer is a migrated Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts Postgres and applies the embedded goose
// migrations.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("tenantgate_test"),
		postgres.WithUsername("tenantgate"),
		postgres.WithPassword("tenantgate_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}

	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Shared through Manager; Ryuk reaps the container when the process exits.
	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables clears the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// TruncateAll clears every application table. CASCADE follows the foreign
// keys from plans and tenants.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	return p.TruncateTables(ctx, "audit_outbox", "sessions", "super_admins", "plans")
}

// CreateTestTenant inserts an active tenant on a fresh plan with the given
// limits and returns its ID.
func (p *PostgresContainer) CreateTestTenant(ctx context.Context, t testing.TB, limits map[string]int64) id.TenantID {
	t.Helper()

	if limits == nil {
		limits = map[string]int64{}
	}
	rawLimits, err := json.Marshal(limits)
	if err != nil {
		t.Fatalf("CreateTestTenant: %v", err)
	}

	planID := uuid.New()
	slug := "plan-" + planID.String()[:8]
	if _, err := p.DB.ExecContext(ctx, `
		INSERT INTO plans (id, slug, name, limits, features, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '{}', NOW(), NOW())
	`, planID, slug, "Test Plan", rawLimits); err != nil {
		t.Fatalf("CreateTestTenant plan: %v", err)
	}

	tenantID := uuid.New()
	if _, err := p.DB.ExecContext(ctx, `
		INSERT INTO tenants (id, name, slug, status, plan_id, created_at, updated_at)
		VALUES ($1, $2, $3, 'active', $4, NOW(), NOW())
	`, tenantID, "Test Tenant", "t-"+tenantID.String()[:8], planID); err != nil {
		t.Fatalf("CreateTestTenant: %v", err)
	}
	return id.TenantID(tenantID)
}
