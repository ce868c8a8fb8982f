// Package store persists brands, plans, and projection runs.
package store

import (
	"context"
	"time"

	"github.com/iwvelando/franchise-forecast/internal/brand"
	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("not found")

// Plan is a user's working copy of a brand: per-field edits plus the
// startup cost line items it will be projected with.
type Plan struct {
	ID           string                       `json:"id"`
	BrandID      string                       `json:"brandId"`
	Name         string                       `json:"name"`
	Inputs       brand.PlanInputs             `json:"inputs"`
	StartupCosts []engine.StartupCostLineItem `json:"startupCosts"`
	CreatedAt    time.Time                    `json:"createdAt"`
	UpdatedAt    time.Time                    `json:"updatedAt"`
}

// Run is one persisted projection of a plan.
type Run struct {
	ID           string              `json:"id"`
	PlanID       string              `json:"planId"`
	Output       engine.EngineOutput `json:"output"`
	ChecksPassed bool                `json:"checksPassed"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// Store defines the persistence interface for brands, plans, and runs.
type Store interface {
	// Brands
	SaveBrand(ctx context.Context, b *brand.Brand) error
	GetBrand(ctx context.Context, id string) (*brand.Brand, error)
	ListBrands(ctx context.Context) ([]brand.Brand, error)

	// Plans
	SavePlan(ctx context.Context, p *Plan) error
	GetPlan(ctx context.Context, id string) (*Plan, error)
	ListPlans(ctx context.Context, brandID string) ([]Plan, error)

	// Runs
	SaveRun(ctx context.Context, r *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
