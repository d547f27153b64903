package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// PostgresStore persists plans with limits and features as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const planColumns = `id, slug, name, limits, features, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Plan) error {
	limits, features, err := marshalTerms(p)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO plans (id, slug, name, limits, features, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(p.ID), p.Slug, p.Name, limits, features, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("plan slug %q: %w", p.Slug, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Plan) error {
	limits, features, err := marshalTerms(p)
	if err != nil {
		return err
	}
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE plans SET name = $2, limits = $3, features = $4, updated_at = $5 WHERE id = $1
	`, uuid.UUID(p.ID), p.Name, limits, features, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, planID id.PlanID) (*models.Plan, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1`, uuid.UUID(planID))
	return scanPlan(row)
}

func (s *PostgresStore) FindBySlug(ctx context.Context, slug string) (*models.Plan, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE slug = $1`, slug)
	return scanPlan(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Plan, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `SELECT `+planColumns+` FROM plans ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*models.Plan, error) {
	var (
		p                      models.Plan
		planID                 uuid.UUID
		limitsRaw, featuresRaw []byte
	)
	if err := row.Scan(&planID, &p.Slug, &p.Name, &limitsRaw, &featuresRaw, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	p.ID = id.PlanID(planID)
	if err := json.Unmarshal(limitsRaw, &p.Limits); err != nil {
		return nil, fmt.Errorf("decode plan limits: %w", err)
	}
	if err := json.Unmarshal(featuresRaw, &p.Features); err != nil {
		return nil, fmt.Errorf("decode plan features: %w", err)
	}
	return &p, nil
}

func marshalTerms(p *models.Plan) ([]byte, []byte, error) {
	limits, err := json.Marshal(p.Limits)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal plan limits: %w", err)
	}
	features, err := json.Marshal(p.Features)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal plan features: %w", err)
	}
	return limits, features, nil
}
