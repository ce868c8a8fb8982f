package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/iwvelando/franchise-forecast/internal/brand"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS brands (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS plans (
	id            TEXT PRIMARY KEY,
	brand_id      TEXT NOT NULL REFERENCES brands(id),
	name          TEXT NOT NULL,
	inputs        TEXT NOT NULL,
	startup_costs TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	plan_id       TEXT NOT NULL REFERENCES plans(id),
	output        TEXT NOT NULL,
	checks_passed INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_brands_name ON brands(name);
CREATE INDEX IF NOT EXISTS idx_plans_brand_id ON plans(brand_id);
CREATE INDEX IF NOT EXISTS idx_runs_plan_id ON runs(plan_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveBrand(ctx context.Context, b *brand.Brand) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal brand")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO brands (id, name, data, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, data = excluded.data`,
		b.ID, b.Name, string(data), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save brand %s", b.ID)
}

func (s *SQLiteStore) GetBrand(ctx context.Context, id string) (*brand.Brand, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM brands WHERE id = ?`, id)
	return scanBrand(row, id)
}

func (s *SQLiteStore) ListBrands(ctx context.Context) ([]brand.Brand, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM brands ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list brands")
	}
	defer rows.Close()

	var brands []brand.Brand
	for rows.Next() {
		var id string
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan brand")
		}
		var b brand.Brand
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal brand %s", id)
		}
		brands = append(brands, b)
	}
	return brands, eris.Wrap(rows.Err(), "sqlite: iterate brands")
}

func (s *SQLiteStore) SavePlan(ctx context.Context, p *Plan) error {
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
		return eris.Wrap(err, "sqlite: marshal plan inputs")
	}
	costs, err := json.Marshal(p.StartupCosts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal startup costs")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plans (id, brand_id, name, inputs, startup_costs, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, inputs = excluded.inputs,
		   startup_costs = excluded.startup_costs, updated_at = excluded.updated_at`,
		p.ID, p.BrandID, p.Name, string(inputs), string(costs), p.CreatedAt, p.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: save plan %s", p.ID)
}

func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (*Plan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, brand_id, name, inputs, startup_costs, created_at, updated_at FROM plans WHERE id = ?`,
		id,
	)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: plan %s", id)
	}
	return p, err
}

func (s *SQLiteStore) ListPlans(ctx context.Context, brandID string) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, brand_id, name, inputs, startup_costs, created_at, updated_at
		 FROM plans WHERE brand_id = ? ORDER BY created_at, id`,
		brandID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list plans")
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, eris.Wrap(rows.Err(), "sqlite: iterate plans")
}

func (s *SQLiteStore) SaveRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	output, err := json.Marshal(r.Output)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run output")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, plan_id, output, checks_passed, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.PlanID, string(output), r.ChecksPassed, r.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert run %s", r.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var r Run
	var output string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, plan_id, output, checks_passed, created_at FROM runs WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.PlanID, &output, &r.ChecksPassed, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}
	if err := json.Unmarshal([]byte(output), &r.Output); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal run output")
	}
	return &r, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBrand(row scannable, id string) (*brand.Brand, error) {
	var data string
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: brand %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get brand %s", id)
	}
	var b brand.Brand
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal brand")
	}
	return &b, nil
}

func scanPlan(row scannable) (*Plan, error) {
	var p Plan
	var inputs, costs string

	err := row.Scan(&p.ID, &p.BrandID, &p.Name, &inputs, &costs, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan plan")
	}

	if err := json.Unmarshal([]byte(inputs), &p.Inputs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal plan inputs")
	}
	if err := json.Unmarshal([]byte(costs), &p.StartupCosts); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal startup costs")
	}
	return &p, nil
}
