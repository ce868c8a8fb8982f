package optimizer

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iwvelando/franchise-forecast/internal/brand"
	"github.com/iwvelando/franchise-forecast/pkg/engine"
)

func newQuickServiceRunner(t *testing.T) (*Runner, brand.PlanInputs) {
	t.Helper()
	b, err := brand.LoadBrandFile(filepath.Join("..", "brand", "testdata", "quick-service.yaml"))
	require.NoError(t, err)

	inputs := brand.NewPlanInputs(b)
	runner, err := NewRunner(zap.NewNop(), inputs, brand.StartupCosts(b))
	require.NoError(t, err)
	return runner, inputs
}

func TestNewRunnerRejectsEmptyInputs(t *testing.T) {
	_, err := NewRunner(nil, nil, nil)
	assert.Error(t, err)
}

func TestRunnerFindsThreshold(t *testing.T) {
	tests := []struct {
		name   string
		target Target
	}{
		{
			name: "minimum cash",
			target: Target{
				Field:     "revenue.monthlyAuv",
				Min:       10000,
				Max:       100000,
				Objective: ObjectiveMinCash,
				MinCash:   -150000,
			},
		},
		{
			name: "break-even deadline",
			target: Target{
				Field:       "revenue.monthlyAuv",
				Min:         10000,
				Max:         100000,
				Objective:   ObjectiveBreakEven,
				BreakEvenBy: 24,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner, inputs := newQuickServiceRunner(t)

			summary, err := runner.Run(tt.target)
			require.NoError(t, err)

			assert.True(t, summary.Converged)
			assert.Equal(t, "revenue.monthlyAuv", summary.Field)
			assert.Equal(t, string(tt.target.Objective), summary.Objective)
			assert.Equal(t, 26866.75, summary.Original)
			assert.Greater(t, summary.Iterations, 0)
			assert.Greater(t, summary.Value, tt.target.Min)
			assert.Less(t, summary.Value, tt.target.Max)
			assert.GreaterOrEqual(t, summary.Headroom, 0.0)

			if tt.target.Objective == ObjectiveBreakEven {
				assert.LessOrEqual(t, summary.Achieved, summary.Floor)
				assert.Greater(t, summary.Achieved, 0.0)
			} else {
				assert.GreaterOrEqual(t, summary.Achieved, summary.Floor)
			}

			// Just below the threshold the constraint no longer holds.
			target := tt.target
			target.normalize()
			below, err := runner.evaluate(target, summary.Value-2*target.Tolerance)
			require.NoError(t, err)
			assert.False(t, below.met)

			// The runner works on a copy of the plan.
			assert.Equal(t, 26866.75, inputs["revenue.monthlyAuv"].CurrentValue)
			assert.False(t, inputs["revenue.monthlyAuv"].IsCustom)
		})
	}
}

func TestRunnerBoundsOutcomes(t *testing.T) {
	t.Run("satisfied across bounds", func(t *testing.T) {
		runner, _ := newQuickServiceRunner(t)

		summary, err := runner.Run(Target{
			Field:     "revenue.monthlyAuv",
			Min:       10000,
			Max:       100000,
			Objective: ObjectiveMinCash,
			MinCash:   -10000000,
		})
		require.NoError(t, err)

		assert.True(t, summary.Converged)
		assert.Equal(t, 10000.0, summary.Value)
		assert.Equal(t, 0, summary.Iterations)
		require.Len(t, summary.Notes, 1)
		assert.Contains(t, summary.Notes[0], "holds across the whole range")
	})

	t.Run("unsatisfiable within bounds", func(t *testing.T) {
		runner, _ := newQuickServiceRunner(t)

		summary, err := runner.Run(Target{
			Field:     "revenue.monthlyAuv",
			Min:       10000,
			Max:       100000,
			Objective: ObjectiveMinCash,
			MinCash:   10000000,
		})
		require.NoError(t, err)

		assert.False(t, summary.Converged)
		assert.Equal(t, 100000.0, summary.Value)
		assert.Less(t, summary.Headroom, 0.0)
		require.Len(t, summary.Notes, 1)
		assert.Contains(t, summary.Notes[0], "unable to satisfy minimum cash")
	})

	t.Run("never breaks even", func(t *testing.T) {
		runner, _ := newQuickServiceRunner(t)

		summary, err := runner.Run(Target{
			Field:       "revenue.monthlyAuv",
			Min:         1000,
			Max:         2000,
			Objective:   ObjectiveBreakEven,
			BreakEvenBy: 12,
		})
		require.NoError(t, err)

		assert.False(t, summary.Converged)
		assert.Equal(t, 0.0, summary.Achieved)
		assert.Equal(t, float64(12-engine.ProjectionMonths-1), summary.Headroom)
	})
}

func TestRunnerWholeNumberField(t *testing.T) {
	runner, _ := newQuickServiceRunner(t)

	summary, err := runner.Run(Target{
		Field:     "financing.loanTermMonths",
		Min:       12,
		Max:       240,
		Objective: ObjectiveMinCash,
		MinCash:   -150000,
	})
	require.NoError(t, err)

	assert.Equal(t, math.Round(summary.Value), summary.Value)
	assert.GreaterOrEqual(t, summary.Value, 12.0)
	assert.LessOrEqual(t, summary.Value, 240.0)
}

func TestTargetValidate(t *testing.T) {
	valid := Target{Field: "revenue.monthlyAuv", Min: 1, Max: 2, Objective: ObjectiveMinCash}

	tests := []struct {
		name    string
		mutate  func(*Target)
		unknown bool
	}{
		{name: "unknown field", mutate: func(t *Target) { t.Field = "revenue.bogus" }, unknown: true},
		{name: "inverted bounds", mutate: func(t *Target) { t.Min, t.Max = 5, 1 }},
		{name: "equal bounds", mutate: func(t *Target) { t.Max = t.Min }},
		{name: "infinite bound", mutate: func(t *Target) { t.Max = math.Inf(1) }},
		{name: "nan floor", mutate: func(t *Target) { t.MinCash = math.NaN() }},
		{name: "negative tolerance", mutate: func(t *Target) { t.Tolerance = -1 }},
		{name: "unknown objective", mutate: func(t *Target) { t.Objective = "max_profit" }},
		{name: "break-even month zero", mutate: func(t *Target) { t.Objective = ObjectiveBreakEven }},
		{name: "break-even past horizon", mutate: func(t *Target) {
			t.Objective = ObjectiveBreakEven
			t.BreakEvenBy = engine.ProjectionMonths + 1
		}},
	}

	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := valid
			tt.mutate(&target)
			err := target.Validate()
			require.Error(t, err)
			if tt.unknown {
				assert.True(t, eris.Is(err, brand.ErrUnknownField))
			} else {
				assert.True(t, eris.Is(err, ErrInvalidTarget))
			}
		})
	}
}

func TestSnapAndClamp(t *testing.T) {
	assert.Equal(t, 13.0, snapFieldValue("revenue.monthsToReachAuv", 12.6))
	assert.Equal(t, 12.6, snapFieldValue("revenue.monthlyAuv", 12.6))
	assert.Equal(t, 1.0, clampValue(0, 1, 5))
	assert.Equal(t, 5.0, clampValue(9, 1, 5))
	assert.Equal(t, 3.0, clampValue(3, 1, 5))
	assert.Equal(t, "144", formatValue("financing.loanTermMonths", 143.7))
	assert.Equal(t, "2.5", formatValue("tax.rate", 2.5))
}

func TestCashPositionsMatchBalanceSheet(t *testing.T) {
	b, err := brand.LoadBrandFile(filepath.Join("..", "brand", "testdata", "quick-service.yaml"))
	require.NoError(t, err)
	out := engine.Calculate(brand.Unwrap(brand.NewPlanInputs(b), brand.StartupCosts(b)))

	positions := cashPositions(&out)

	// Pro-rata distributions round to the cent each month, so a year-end
	// balance may drift by up to half a cent per month elapsed.
	for yi, a := range out.AnnualSummaries {
		month := (yi+1)*engine.MonthsPerYear - 1
		assert.InDelta(t, float64(a.EndingCash), float64(positions[month]), float64(month+1)/2,
			"year %d", a.Year)
	}

	// The break-even running total spends non-capex and the working capital
	// reserve up front; the cash balance keeps both on hand.
	fs := out.Financing
	running := -out.StartupTotals.Total + fs.EquityAmount + fs.DebtAmount
	reserve := out.StartupTotals.NonCapex + out.StartupTotals.WorkingCapital
	for i, p := range out.MonthlyProjections {
		running += p.OperatingCashFlow - p.LoanPrincipalPayment - fs.MonthlyDistributions[i/engine.MonthsPerYear]
		require.Equal(t, running+reserve, positions[i], "month %d", i+1)
	}

	lowest := lowestCash(&out)
	for _, cash := range positions {
		assert.GreaterOrEqual(t, cash, lowest)
	}
	assert.Contains(t, positions[:], lowest)
}
