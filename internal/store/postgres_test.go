package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwvelando/franchise-forecast/internal/brand"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS brands`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBrand(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	b := testBrand()

	mock.ExpectExec(`INSERT INTO brands .* ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(pgxmock.AnyArg(), "Test Brand", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveBrand(context.Background(), b))
	assert.NotEmpty(t, b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetBrand(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	b := testBrand()
	b.ID = "brand-1"
	data, err := json.Marshal(b)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT data FROM brands WHERE id = \$1`).
		WithArgs("brand-1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

	got, err := s.GetBrand(context.Background(), "brand-1")
	require.NoError(t, err)
	assert.Equal(t, b, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetBrand_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM brands WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetBrand(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "get brand")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListBrands(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	alpha, err := json.Marshal(&brand.Brand{ID: "a", Name: "Alpha"})
	require.NoError(t, err)
	beta, err := json.Marshal(&brand.Brand{ID: "b", Name: "Beta"})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, data FROM brands ORDER BY name`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "data"}).
			AddRow("a", alpha).
			AddRow("b", beta))

	brands, err := s.ListBrands(context.Background())
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, "Alpha", brands[0].Name)
	assert.Equal(t, "Beta", brands[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SavePlan(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	p := &Plan{BrandID: "brand-1", Name: "Downtown", Inputs: brand.NewPlanInputs(testBrand())}

	mock.ExpectExec(`INSERT INTO plans`).
		WithArgs(pgxmock.AnyArg(), "brand-1", "Downtown", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SavePlan(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPlan(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	inputs := brand.NewPlanInputs(testBrand())
	inputsJSON, err := json.Marshal(inputs)
	require.NoError(t, err)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, brand_id, name, inputs, startup_costs, created_at, updated_at FROM plans WHERE id = \$1`).
		WithArgs("plan-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "brand_id", "name", "inputs", "startup_costs", "created_at", "updated_at"}).
			AddRow("plan-1", "brand-1", "Downtown", inputsJSON, []byte(`[]`), now, now))

	p, err := s.GetPlan(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "brand-1", p.BrandID)
	assert.Equal(t, inputs, p.Inputs)
	assert.Empty(t, p.StartupCosts)
	assert.Equal(t, now, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPlan_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM plans WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetPlan(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, plan_id, output, checks_passed, created_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnError(errors.New("connection reset"))

	_, err := s.GetRun(context.Background(), "run-1")
	require.Error(t, err)
	assert.False(t, eris.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "get run run-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	r := &Run{PlanID: "plan-1", ChecksPassed: true}

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "plan-1", pgxmock.AnyArg(), true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveRun(context.Background(), r))
	assert.NotEmpty(t, r.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
