package harness

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iwvelando/franchise-forecast/internal/brand"
	"github.com/iwvelando/franchise-forecast/internal/projection"
	"github.com/iwvelando/franchise-forecast/pkg/constants"
	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/iwvelando/franchise-forecast/pkg/mathutil"
)

// Comparison is the outcome of one expectation. Currency values are cents.
type Comparison struct {
	Metric     string  `json:"metric"`
	Kind       Kind    `json:"kind"`
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"`
	Tolerance  float64 `json:"tolerance"`
	Passed     bool    `json:"passed"`
	// Missing is set when the output has no value, e.g. no break-even month.
	Missing bool   `json:"missing,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ScenarioResult collects the comparisons and failed identity checks of one
// scenario.
type ScenarioResult struct {
	Name         string                       `json:"name"`
	Comparisons  []Comparison                 `json:"comparisons"`
	FailedChecks []engine.IdentityCheckResult `json:"failedChecks,omitempty"`
	Error        string                       `json:"error,omitempty"`
	Passed       bool                         `json:"passed"`
}

// Options tune a harness run. Zero values fall back to the suite and then
// to package defaults.
type Options struct {
	Concurrency int
	Tolerances  *Tolerances
}

// Run executes every scenario of the suite concurrently and returns the
// results in suite order. Scenario failures are reported in the results; the
// returned error is only set when ctx is cancelled.
func Run(ctx context.Context, suite *Suite, opts Options, logger *zap.Logger) ([]ScenarioResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if suite.Brand == nil {
		return nil, eris.New("harness: suite has no brand loaded")
	}

	tol := suite.tolerances()
	if opts.Tolerances != nil {
		tol = *opts.Tolerances
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = suite.Concurrency
	}
	if limit <= 0 {
		limit = constants.DefaultHarnessConcurrency
	}

	startupCosts := brand.StartupCosts(suite.Brand)
	results := make([]ScenarioResult, len(suite.Scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, sc := range suite.Scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runScenario(suite.Brand, startupCosts, sc, tol, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "harness: run cancelled")
	}

	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	logger.Info("harness run complete",
		zap.String("op", "harness.Run"),
		zap.String("suite", suite.Name),
		zap.Int("scenarios", len(results)),
		zap.Int("passed", passed),
	)
	return results, nil
}

func runScenario(b *brand.Brand, startupCosts []engine.StartupCostLineItem, sc Scenario, tol Tolerances, logger *zap.Logger) ScenarioResult {
	result := ScenarioResult{Name: sc.Name}
	logger = logger.With(zap.String("scenario", sc.Name))

	plan := brand.NewPlanInputs(b)
	paths := make([]string, 0, len(sc.Overrides))
	for path := range sc.Overrides {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := plan.Set(path, sc.Overrides[path]); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	out, err := projection.NewService(nil, logger).Compute(brand.Unwrap(plan, startupCosts))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.FailedChecks = out.FailedChecks()
	result.Passed = len(result.FailedChecks) == 0
	for _, exp := range sc.Expectations {
		c := compare(&out, exp, tol)
		if !c.Passed {
			result.Passed = false
			logger.Debug("expectation failed",
				zap.String("op", "harness.runScenario"),
				zap.String("metric", c.Metric),
				zap.Float64("expected", c.Expected),
				zap.Float64("actual", c.Actual),
			)
		}
		result.Comparisons = append(result.Comparisons, c)
	}
	return result
}

func compare(out *engine.EngineOutput, exp Expectation, tol Tolerances) Comparison {
	c := Comparison{Metric: exp.Metric, Expected: exp.Expected}

	ref, err := parseMetric(exp.Metric)
	if err != nil {
		c.Error = err.Error()
		return c
	}
	c.Kind = exp.Kind
	if c.Kind == "" {
		c.Kind = inferKind(ref.field)
	}

	actual, ok, err := lookupMetric(out, ref)
	if err != nil {
		c.Error = err.Error()
		return c
	}

	switch c.Kind {
	case KindCurrency:
		c.Expected = float64(mathutil.DollarsToCents(exp.Expected))
		c.Tolerance = float64(tol.Currency)
	case KindPercentage:
		c.Tolerance = tol.Percentage
	case KindMonths:
		c.Tolerance = float64(tol.Months)
	}

	if !ok {
		// A missing value only matches an expectation of zero.
		c.Missing = true
		c.Passed = c.Expected == 0
		return c
	}

	c.Actual = actual
	c.Difference = actual - c.Expected
	if c.Kind == KindCurrency {
		c.Passed = mathutil.CentsWithinTolerance(int64(actual), int64(c.Expected), tol.Currency)
	} else {
		c.Passed = mathutil.WithinTolerance(actual, c.Expected, c.Tolerance)
	}
	return c
}

// Summarize counts passing and failing scenarios.
func Summarize(results []ScenarioResult) (passed, failed int) {
	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
