// Package projection orchestrates brand plans through validation, the
// projection engine, and persistence.
package projection

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/iwvelando/franchise-forecast/internal/brand"
	"github.com/iwvelando/franchise-forecast/internal/optimizer"
	"github.com/iwvelando/franchise-forecast/internal/store"
	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/iwvelando/franchise-forecast/pkg/optimization"
	"github.com/iwvelando/franchise-forecast/pkg/validation"
)

// Service runs projections for persisted plans.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates a Service. A nil store limits the service to Compute.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// Compute validates input, runs the engine, and logs any failed identity
// checks. Failed checks are returned in the output, not as an error.
func (s *Service) Compute(input engine.EngineInput) (engine.EngineOutput, error) {
	if err := validation.ValidateEngineInput(input); err != nil {
		return engine.EngineOutput{}, err
	}
	for _, warning := range validation.Warnings(input) {
		s.logger.Warn(warning, zap.String("op", "projection.Compute"))
	}

	out := engine.Calculate(input)
	s.logFailedChecks(out, "projection.Compute")
	return out, nil
}

// ImportBrand validates and persists a brand definition.
func (s *Service) ImportBrand(ctx context.Context, b *brand.Brand) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveBrand(ctx, b); err != nil {
		return err
	}
	s.logger.Info("imported brand",
		zap.String("op", "projection.ImportBrand"),
		zap.String("brand_id", b.ID),
		zap.String("brand", b.Name),
	)
	return nil
}

// CreatePlan seeds a new plan from the brand's defaults.
func (s *Service) CreatePlan(ctx context.Context, brandID, name string) (*store.Plan, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, eris.New("projection: plan name is required")
	}
	b, err := s.store.GetBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}

	p := &store.Plan{
		BrandID:      b.ID,
		Name:         name,
		Inputs:       brand.NewPlanInputs(b),
		StartupCosts: brand.StartupCosts(b),
	}
	if err := s.store.SavePlan(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("created plan",
		zap.String("op", "projection.CreatePlan"),
		zap.String("plan_id", p.ID),
		zap.String("brand_id", b.ID),
	)
	return p, nil
}

// UpdatePlanField records a user edit of one plan field.
func (s *Service) UpdatePlanField(ctx context.Context, planID, path string, value float64) (*store.Plan, error) {
	return s.editPlan(ctx, planID, func(p *store.Plan) error {
		return p.Inputs.Set(path, value)
	})
}

// ResetPlanField restores one plan field to its brand default.
func (s *Service) ResetPlanField(ctx context.Context, planID, path string) (*store.Plan, error) {
	return s.editPlan(ctx, planID, func(p *store.Plan) error {
		return p.Inputs.Reset(path)
	})
}

func (s *Service) editPlan(ctx context.Context, planID string, edit func(*store.Plan) error) (*store.Plan, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	p, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := edit(p); err != nil {
		return nil, eris.Wrapf(err, "projection: edit plan %s", planID)
	}
	if err := s.store.SavePlan(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RunPlan loads a plan, unwraps it into engine input, computes the
// projection, and persists the result as a new run.
func (s *Service) RunPlan(ctx context.Context, planID string) (*store.Run, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	p, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	b, err := s.store.GetBrand(ctx, p.BrandID)
	if err != nil {
		return nil, eris.Wrapf(err, "projection: brand for plan %s", planID)
	}

	logger := s.logger.With(zap.String("plan_id", p.ID), zap.String("brand", b.Name))
	input := brand.Unwrap(p.Inputs, p.StartupCosts)

	out, err := NewService(nil, logger).Compute(input)
	if err != nil {
		return nil, err
	}

	run := &store.Run{
		PlanID:       p.ID,
		Output:       out,
		ChecksPassed: out.AllChecksPassed(),
	}
	if err := s.store.SaveRun(ctx, run); err != nil {
		return nil, err
	}

	logger.Info("projection complete",
		zap.String("op", "projection.RunPlan"),
		zap.String("run_id", run.ID),
		zap.Bool("checks_passed", run.ChecksPassed),
		zap.Int64("five_year_cumulative_cash_flow", out.ROIMetrics.FiveYearCumulativeCashFlow),
	)
	return run, nil
}

func (s *Service) logFailedChecks(out engine.EngineOutput, op string) {
	for _, check := range out.FailedChecks() {
		s.logger.Warn("identity check failed",
			zap.String("op", op),
			zap.String("check", check.Name),
			zap.Int64("expected", check.Expected),
			zap.Int64("actual", check.Actual),
			zap.Int64("tolerance", check.Tolerance),
		)
	}
}

func (s *Service) requireStore() error {
	if s.store == nil {
		return eris.New("projection: no store configured")
	}
	return nil
}

// ListBrands returns every persisted brand.
func (s *Service) ListBrands(ctx context.Context) ([]brand.Brand, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	return s.store.ListBrands(ctx)
}

// ListPlans returns the plans created from a brand.
func (s *Service) ListPlans(ctx context.Context, brandID string) ([]store.Plan, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	return s.store.ListPlans(ctx, brandID)
}

// GetRun returns a persisted projection run.
func (s *Service) GetRun(ctx context.Context, runID string) (*store.Run, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	return s.store.GetRun(ctx, runID)
}

// OptimizePlan searches one field of a persisted plan for the value at which
// target stops being satisfied. The plan itself is not modified.
func (s *Service) OptimizePlan(ctx context.Context, planID string, target optimizer.Target) (optimization.Summary, error) {
	if err := s.requireStore(); err != nil {
		return optimization.Summary{}, err
	}
	p, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return optimization.Summary{}, err
	}
	runner, err := optimizer.NewRunner(s.logger.With(zap.String("plan_id", p.ID)), p.Inputs, p.StartupCosts)
	if err != nil {
		return optimization.Summary{}, err
	}
	return runner.Run(target)
}
