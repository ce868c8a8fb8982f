package projection

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iwvelando/franchise-forecast/internal/brand"
	"github.com/iwvelando/franchise-forecast/internal/optimizer"
	"github.com/iwvelando/franchise-forecast/internal/store"
	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/iwvelando/franchise-forecast/pkg/validation"
)

func newTestService(t *testing.T) (*Service, store.Store, *observer.ObservedLogs) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "projection.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	core, logs := observer.New(zapcore.DebugLevel)
	return NewService(st, zap.New(core)), st, logs
}

func importTestBrand(t *testing.T, svc *Service) *brand.Brand {
	t.Helper()
	b, err := brand.LoadBrandFile(filepath.Join("..", "brand", "testdata", "quick-service.yaml"))
	require.NoError(t, err)
	require.NoError(t, svc.ImportBrand(context.Background(), b))
	return b
}

func TestRunPlan(t *testing.T) {
	svc, st, logs := newTestService(t)
	ctx := context.Background()
	b := importTestBrand(t, svc)

	plan, err := svc.CreatePlan(ctx, b.ID, "Downtown")
	require.NoError(t, err)
	assert.Len(t, plan.StartupCosts, 5)

	run, err := svc.RunPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, run.ChecksPassed)
	assert.Equal(t, int64(25650700), run.Output.ROIMetrics.TotalStartupInvestment)

	saved, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Output, saved.Output)

	assert.Equal(t, 0, logs.FilterMessage("identity check failed").Len())
	entries := logs.FilterMessage("projection complete").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "projection.RunPlan", entries[0].ContextMap()["op"])
	assert.Equal(t, plan.ID, entries[0].ContextMap()["plan_id"])
}

func TestUpdatePlanFieldChangesProjection(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b := importTestBrand(t, svc)

	plan, err := svc.CreatePlan(ctx, b.ID, "What if")
	require.NoError(t, err)

	baseline, err := svc.RunPlan(ctx, plan.ID)
	require.NoError(t, err)

	updated, err := svc.UpdatePlanField(ctx, plan.ID, "revenue.monthlyAuv", 20000)
	require.NoError(t, err)
	assert.Equal(t, []string{"revenue.monthlyAuv"}, updated.Inputs.CustomFields())

	whatIf, err := svc.RunPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, whatIf.ChecksPassed)
	assert.Less(t, whatIf.Output.AnnualSummaries[0].Revenue, baseline.Output.AnnualSummaries[0].Revenue)
	assert.Equal(t, int64(24000000), whatIf.Output.MonthlyProjections[13].Revenue*12)

	reset, err := svc.ResetPlanField(ctx, plan.ID, "revenue.monthlyAuv")
	require.NoError(t, err)
	assert.Empty(t, reset.Inputs.CustomFields())

	_, err = svc.UpdatePlanField(ctx, plan.ID, "revenue.unknown", 1)
	assert.True(t, eris.Is(err, brand.ErrUnknownField))
}

func TestRunPlanRejectsInvalidInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b := importTestBrand(t, svc)

	plan, err := svc.CreatePlan(ctx, b.ID, "Broken")
	require.NoError(t, err)
	_, err = svc.UpdatePlanField(ctx, plan.ID, "operatingCosts.cogsPct", 1.5)
	require.NoError(t, err)

	_, err = svc.RunPlan(ctx, plan.ID)
	require.Error(t, err)
	var verr *validation.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPlanErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePlan(ctx, "missing-brand", "Plan")
	assert.True(t, eris.Is(err, store.ErrNotFound))

	_, err = svc.RunPlan(ctx, "missing-plan")
	assert.True(t, eris.Is(err, store.ErrNotFound))

	b := importTestBrand(t, svc)
	_, err = svc.CreatePlan(ctx, b.ID, "  ")
	assert.Error(t, err)

	assert.Error(t, svc.ImportBrand(ctx, &brand.Brand{}))
}

func TestComputeWithoutStore(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewService(nil, zap.New(core))

	input := engine.EngineInput{
		FinancialInputs: engine.FinancialInputs{
			Revenue:   engine.RevenueInputs{AnnualGrossSales: 12000000},
			Financing: engine.FinancingInputs{TotalInvestment: 5000000, EquityPct: 1},
		},
		StartupCosts: []engine.StartupCostLineItem{
			{Name: "Build-out", Amount: 5000000, CapexClassification: engine.ClassificationCapex},
		},
	}
	out, err := svc.Compute(input)
	require.NoError(t, err)
	assert.True(t, out.AllChecksPassed())
	assert.Equal(t, int64(1000000), out.MonthlyProjections[0].Revenue)

	// no depreciation rate on capex
	assert.Equal(t, 1, logs.Len())

	_, err = svc.RunPlan(context.Background(), "any")
	assert.Error(t, err)
	assert.Nil(t, NewService(nil, nil).logger.Check(zapcore.DebugLevel, "x"))
}

func TestLogFailedChecks(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewService(nil, zap.New(core))

	out := engine.EngineOutput{IdentityChecks: []engine.IdentityCheckResult{
		{Name: "balance_sheet_year_1", Expected: 100, Actual: 100, Tolerance: 1, Passed: true},
		{Name: "loan_amortization", Expected: 0, Actual: 500, Tolerance: 1, Passed: false},
	}}
	svc.logFailedChecks(out, "projection.Test")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "identity check failed", entries[0].Message)
	assert.Equal(t, "loan_amortization", fields["check"])
	assert.Equal(t, int64(500), fields["actual"])
	assert.Equal(t, "projection.Test", fields["op"])
}

func TestListings(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	b := importTestBrand(t, svc)

	brands, err := svc.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, b.Name, brands[0].Name)

	plan, err := svc.CreatePlan(ctx, b.ID, "Uptown")
	require.NoError(t, err)
	plans, err := svc.ListPlans(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, plan.ID, plans[0].ID)

	run, err := svc.RunPlan(ctx, plan.ID)
	require.NoError(t, err)
	got, err := svc.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.PlanID)

	_, err = svc.GetRun(ctx, "missing")
	assert.True(t, eris.Is(err, store.ErrNotFound))

	_, err = NewService(nil, nil).ListBrands(ctx)
	assert.Error(t, err)
}

func TestOptimizePlan(t *testing.T) {
	svc, st, logs := newTestService(t)
	ctx := context.Background()
	b := importTestBrand(t, svc)

	plan, err := svc.CreatePlan(ctx, b.ID, "Downtown")
	require.NoError(t, err)

	summary, err := svc.OptimizePlan(ctx, plan.ID, optimizer.Target{
		Field:       "revenue.monthlyAuv",
		Min:         10000,
		Max:         100000,
		Objective:   optimizer.ObjectiveBreakEven,
		BreakEvenBy: 24,
	})
	require.NoError(t, err)
	assert.True(t, summary.Converged)
	assert.LessOrEqual(t, summary.Achieved, 24.0)
	assert.Equal(t, 1, logs.FilterMessage("optimization complete").Len())

	saved, err := st.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, saved.Inputs.CustomFields())

	_, err = svc.OptimizePlan(ctx, "missing", optimizer.Target{})
	assert.True(t, eris.Is(err, store.ErrNotFound))

	_, err = svc.OptimizePlan(ctx, plan.ID, optimizer.Target{Field: "revenue.bogus", Min: 0, Max: 1})
	assert.True(t, eris.Is(err, brand.ErrUnknownField))

	_, err = NewService(nil, nil).OptimizePlan(ctx, plan.ID, optimizer.Target{})
	assert.Error(t, err)
}
