// Package optimizer searches one plan field for the value at which a cash
// constraint stops holding, e.g. the lowest AUV that keeps the location
// above a minimum cash balance.
package optimizer

import (
	"math"
	"slices"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/iwvelando/franchise-forecast/internal/brand"
	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/iwvelando/franchise-forecast/pkg/format"
	"github.com/iwvelando/franchise-forecast/pkg/mathutil"
	"github.com/iwvelando/franchise-forecast/pkg/optimization"
	"github.com/iwvelando/franchise-forecast/pkg/validation"
)

// Objective selects the constraint a target must satisfy.
type Objective string

const (
	// ObjectiveMinCash requires the cash position to stay at or above MinCash
	// in every month.
	ObjectiveMinCash Objective = "min_cash"
	// ObjectiveBreakEven requires break-even no later than BreakEvenBy.
	ObjectiveBreakEven Objective = "break_even"
)

const (
	defaultMaxIterations = 50
	// Default search precision as a fraction of the bound range.
	defaultToleranceFraction = 1e-4
)

// ErrInvalidTarget is returned for a target whose bounds, objective, or
// search settings cannot be used.
var ErrInvalidTarget = eris.New("invalid optimization target")

// Fields that only take whole values.
var wholeNumberFields = []string{
	"revenue.monthsToReachAuv",
	"financing.loanTermMonths",
	"startup.depreciationYears",
}

// Target describes one goal-seek. Bounds and MinCash are in brand units
// (dollars, decimal rates, months).
type Target struct {
	Field         string    `json:"field" yaml:"field"`
	Min           float64   `json:"min" yaml:"min"`
	Max           float64   `json:"max" yaml:"max"`
	Objective     Objective `json:"objective" yaml:"objective"`
	MinCash       float64   `json:"minCash,omitempty" yaml:"minCash,omitempty"`
	BreakEvenBy   int       `json:"breakEvenBy,omitempty" yaml:"breakEvenBy,omitempty"`
	Tolerance     float64   `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	MaxIterations int       `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty"`
}

// Validate checks the target before any projection is run.
func (t *Target) Validate() error {
	if !slices.Contains(brand.FieldPaths(), t.Field) {
		return eris.Wrapf(brand.ErrUnknownField, "optimizer: field %s", t.Field)
	}
	for _, v := range []float64{t.Min, t.Max, t.MinCash, t.Tolerance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Wrap(ErrInvalidTarget, "bounds, minCash, and tolerance must be finite")
		}
	}
	if t.Min >= t.Max {
		return eris.Wrapf(ErrInvalidTarget, "min %g must be below max %g", t.Min, t.Max)
	}
	if t.Tolerance < 0 || t.MaxIterations < 0 {
		return eris.Wrap(ErrInvalidTarget, "tolerance and maxIterations must not be negative")
	}
	switch t.Objective {
	case ObjectiveMinCash:
	case ObjectiveBreakEven:
		if t.BreakEvenBy < 1 || t.BreakEvenBy > engine.ProjectionMonths {
			return eris.Wrapf(ErrInvalidTarget, "breakEvenBy must be between 1 and %d, got %d",
				engine.ProjectionMonths, t.BreakEvenBy)
		}
	default:
		return eris.Wrapf(ErrInvalidTarget, "unknown objective %q", t.Objective)
	}
	return nil
}

func (t *Target) normalize() {
	if t.Tolerance == 0 {
		t.Tolerance = (t.Max - t.Min) * defaultToleranceFraction
	}
	if t.MaxIterations == 0 {
		t.MaxIterations = defaultMaxIterations
	}
}

// floor is the constraint threshold: cents for min cash, months for break-even.
func (t *Target) floor() float64 {
	if t.Objective == ObjectiveBreakEven {
		return float64(t.BreakEvenBy)
	}
	return float64(mathutil.DollarsToCents(t.MinCash))
}

func (t *Target) describe() string {
	if t.Objective == ObjectiveBreakEven {
		return "break-even by month " + strconv.Itoa(t.BreakEvenBy)
	}
	return "minimum cash " + format.Currency(mathutil.DollarsToCents(t.MinCash))
}

type evaluation struct {
	value    float64
	achieved float64
	floor    float64
	met      bool
	// headroom is how far achieved clears the floor; negative when it does not.
	headroom float64
}

// Runner evaluates targets against a fixed set of plan inputs.
type Runner struct {
	logger       *zap.Logger
	inputs       brand.PlanInputs
	startupCosts []engine.StartupCostLineItem
}

// NewRunner constructs a Runner for the provided plan inputs. The inputs are
// never modified.
func NewRunner(logger *zap.Logger, inputs brand.PlanInputs, startupCosts []engine.StartupCostLineItem) (*Runner, error) {
	if len(inputs) == 0 {
		return nil, eris.New("optimizer: plan inputs cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, inputs: inputs, startupCosts: startupCosts}, nil
}

// Run searches [Min, Max] for the least favorable field value that still
// satisfies the objective. The search assumes the objective changes
// monotonically across the bounds.
func (r *Runner) Run(target Target) (optimization.Summary, error) {
	if err := target.Validate(); err != nil {
		return optimization.Summary{}, err
	}
	target.normalize()

	original, err := r.inputs.Get(target.Field)
	if err != nil {
		return optimization.Summary{}, err
	}

	lower, err := r.evaluate(target, target.Min)
	if err != nil {
		return optimization.Summary{}, err
	}
	upper, err := r.evaluate(target, target.Max)
	if err != nil {
		return optimization.Summary{}, err
	}

	summary := optimization.Summary{
		Field:     target.Field,
		Objective: string(target.Objective),
		Original:  original,
		Min:       target.Min,
		Max:       target.Max,
		Floor:     target.floor(),
	}

	if !lower.met && !upper.met {
		best := upper
		if lower.headroom > upper.headroom {
			best = lower
		}
		summary.Notes = []string{"unable to satisfy " + target.describe() + " within bounds " +
			formatValue(target.Field, target.Min) + " to " + formatValue(target.Field, target.Max)}
		return r.finish(summary, best, 0, false), nil
	}

	if lower.met && upper.met {
		best := lower
		if upper.headroom < lower.headroom {
			best = upper
		}
		summary.Notes = []string{target.describe() + " holds across the whole range"}
		return r.finish(summary, best, 0, true), nil
	}

	feasible, infeasible := lower, upper
	if !lower.met {
		feasible, infeasible = upper, lower
	}

	iterations := 0
	for iterations < target.MaxIterations && math.Abs(infeasible.value-feasible.value) > target.Tolerance {
		mid, err := r.evaluate(target, feasible.value+(infeasible.value-feasible.value)/2)
		if err != nil {
			return optimization.Summary{}, err
		}
		iterations++
		if mid.value == feasible.value || mid.value == infeasible.value {
			break
		}
		if mid.met {
			feasible = mid
		} else {
			infeasible = mid
		}
	}

	return r.finish(summary, feasible, iterations, true), nil
}

func (r *Runner) finish(summary optimization.Summary, e evaluation, iterations int, converged bool) optimization.Summary {
	summary.Value = e.value
	summary.Achieved = e.achieved
	summary.Headroom = e.headroom
	summary.Iterations = iterations
	summary.Converged = converged

	r.logger.Info("optimization complete",
		zap.String("op", "optimizer.Run"),
		zap.String("field", summary.Field),
		zap.String("objective", summary.Objective),
		zap.Float64("value", summary.Value),
		zap.Int("iterations", iterations),
		zap.Bool("converged", converged),
	)
	return summary
}

func (r *Runner) evaluate(target Target, value float64) (evaluation, error) {
	value = clampValue(snapFieldValue(target.Field, value), target.Min, target.Max)

	inputs := r.inputs.Clone()
	if err := inputs.Set(target.Field, value); err != nil {
		return evaluation{}, err
	}
	input := brand.Unwrap(inputs, r.startupCosts)
	if err := validation.ValidateEngineInput(input); err != nil {
		return evaluation{}, eris.Wrapf(err, "optimizer: %s=%g", target.Field, value)
	}
	out := engine.Calculate(input)

	e := evaluation{value: value, floor: target.floor()}
	switch target.Objective {
	case ObjectiveBreakEven:
		// A projection that never breaks even scores one month past the horizon.
		month := engine.ProjectionMonths + 1
		if be := out.ROIMetrics.BreakEvenMonth; be != nil {
			month = *be
			e.achieved = float64(month)
		}
		e.headroom = e.floor - float64(month)
	default:
		e.achieved = float64(lowestCash(&out))
		e.headroom = e.achieved - e.floor
	}
	e.met = e.headroom >= 0

	r.logger.Debug("evaluated target",
		zap.String("op", "optimizer.evaluate"),
		zap.String("field", target.Field),
		zap.Float64("value", value),
		zap.Float64("achieved", e.achieved),
		zap.Bool("met", e.met),
	)
	return e, nil
}

// cashPositions returns the month-end cash balance for every month. Opening
// cash is the financing received less capex, as on the balance sheet; owner
// distributions are taken pro rata each month.
func cashPositions(out *engine.EngineOutput) [engine.ProjectionMonths]int64 {
	var positions [engine.ProjectionMonths]int64
	fs := out.Financing
	cash := fs.EquityAmount + fs.DebtAmount - out.StartupTotals.Capex
	for i, p := range out.MonthlyProjections {
		cash += p.OperatingCashFlow - p.LoanPrincipalPayment - fs.MonthlyDistributions[i/engine.MonthsPerYear]
		positions[i] = cash
	}
	return positions
}

// lowestCash returns the lowest month-end cash balance in cents.
func lowestCash(out *engine.EngineOutput) int64 {
	positions := cashPositions(out)
	return slices.Min(positions[:])
}

func snapFieldValue(field string, value float64) float64 {
	if slices.Contains(wholeNumberFields, field) {
		return math.Round(value)
	}
	return value
}

func clampValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func formatValue(field string, value float64) string {
	if slices.Contains(wholeNumberFields, field) {
		return strconv.Itoa(int(math.Round(value)))
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
