package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/iwvelando/franchise-forecast/internal/brand"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS brands (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS plans (
	id            TEXT PRIMARY KEY,
	brand_id      TEXT NOT NULL REFERENCES brands(id),
	name          TEXT NOT NULL,
	inputs        JSONB NOT NULL,
	startup_costs JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	plan_id       TEXT NOT NULL REFERENCES plans(id),
	output        JSONB NOT NULL,
	checks_passed BOOLEAN NOT NULL DEFAULT false,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_brands_name ON brands(name);
CREATE INDEX IF NOT EXISTS idx_plans_brand_id ON plans(brand_id);
CREATE INDEX IF NOT EXISTS idx_runs_plan_id ON runs(plan_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveBrand(ctx context.Context, b *brand.Brand) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal brand")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO brands (id, name, data, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, data = EXCLUDED.data`,
		b.ID, b.Name, data, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save brand %s", b.ID)
}

func (s *PostgresStore) GetBrand(ctx context.Context, id string) (*brand.Brand, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM brands WHERE id = $1`, id).Scan(&data)
	if err != nil {
		return nil, notFoundOr(err, "postgres: get brand %s", id)
	}

	var b brand.Brand
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal brand")
	}
	return &b, nil
}

func (s *PostgresStore) ListBrands(ctx context.Context) ([]brand.Brand, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, data FROM brands ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list brands")
	}
	defer rows.Close()

	var brands []brand.Brand
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan brand")
		}
		var b brand.Brand
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal brand %s", id)
		}
		brands = append(brands, b)
	}
	return brands, eris.Wrap(rows.Err(), "postgres: iterate brands")
}

func (s *PostgresStore) SavePlan(ctx context.Context, p *Plan) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	inputs, err := json.Marshal(p.Inputs)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal plan inputs")
	}
	costs, err := json.Marshal(p.StartupCosts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal startup costs")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO plans (id, brand_id, name, inputs, startup_costs, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, inputs = EXCLUDED.inputs,
		   startup_costs = EXCLUDED.startup_costs, updated_at = EXCLUDED.updated_at`,
		p.ID, p.BrandID, p.Name, inputs, costs, p.CreatedAt, p.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save plan %s", p.ID)
}

func (s *PostgresStore) GetPlan(ctx context.Context, id string) (*Plan, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, brand_id, name, inputs, startup_costs, created_at, updated_at FROM plans WHERE id = $1`,
		id,
	)
	p, err := scanPostgresPlan(row)
	if err != nil {
		return nil, notFoundOr(err, "postgres: get plan %s", id)
	}
	return p, nil
}

func (s *PostgresStore) ListPlans(ctx context.Context, brandID string) ([]Plan, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, brand_id, name, inputs, startup_costs, created_at, updated_at
		 FROM plans WHERE brand_id = $1 ORDER BY created_at, id`,
		brandID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list plans")
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		p, err := scanPostgresPlan(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan plan")
		}
		plans = append(plans, *p)
	}
	return plans, eris.Wrap(rows.Err(), "postgres: iterate plans")
}

func (s *PostgresStore) SaveRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	output, err := json.Marshal(r.Output)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run output")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, plan_id, output, checks_passed, created_at) VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.PlanID, output, r.ChecksPassed, r.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert run %s", r.ID)
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var r Run
	var output []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, plan_id, output, checks_passed, created_at FROM runs WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.PlanID, &output, &r.ChecksPassed, &r.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "postgres: get run %s", id)
	}
	if err := json.Unmarshal(output, &r.Output); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal run output")
	}
	return &r, nil
}

func scanPostgresPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	var inputs, costs []byte

	if err := row.Scan(&p.ID, &p.BrandID, &p.Name, &inputs, &costs, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(inputs, &p.Inputs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal plan inputs")
	}
	if err := json.Unmarshal(costs, &p.StartupCosts); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal startup costs")
	}
	return &p, nil
}

// notFoundOr maps pgx.ErrNoRows to ErrNotFound and wraps anything else.
func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrapf(ErrNotFound, format, args...)
	}
	return eris.Wrapf(err, format, args...)
}
