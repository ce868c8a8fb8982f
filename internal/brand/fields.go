package brand

import (
	"math"
	"sort"
	"strconv"

	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/rotisserie/eris"
)

// Source records where a plan field's current value came from.
type Source string

const (
	SourceBrandDefault Source = "brand_default"
	SourceUserEntry    Source = "user_entry"
	SourceAIExtracted  Source = "ai_extracted"
)

// FieldValue is one editable plan field. Values are in brand units
// (dollars, decimal rates, months, days).
type FieldValue struct {
	CurrentValue float64 `json:"currentValue" yaml:"currentValue"`
	Source       Source  `json:"source" yaml:"source"`
	BrandDefault float64 `json:"brandDefault" yaml:"brandDefault"`
	IsCustom     bool    `json:"isCustom" yaml:"isCustom"`
}

// ErrUnknownField is returned for a field path that is not part of a plan.
var ErrUnknownField = eris.New("unknown plan field")

type fieldSpec struct {
	path string
	get  func(*Parameters) float64
	set  func(*Parameters, float64)
}

func scalar(path string, ref func(*Parameters) *float64) fieldSpec {
	return fieldSpec{
		path: path,
		get:  func(p *Parameters) float64 { return *ref(p) },
		set:  func(p *Parameters, v float64) { *ref(p) = v },
	}
}

func growthYear(yi int) fieldSpec {
	return fieldSpec{
		path: "revenue.growthRateYear" + strconv.Itoa(yi+1),
		get: func(p *Parameters) float64 {
			return expandRates(p.GrowthRates)[yi]
		},
		set: func(p *Parameters, v float64) {
			rates := expandRates(p.GrowthRates)
			rates[yi] = v
			p.GrowthRates = rates[:]
		},
	}
}

// expandRates turns 0, 1 or 5 values into one rate per projection year.
func expandRates(values []float64) engine.YearlyRates {
	switch {
	case len(values) == 0:
		return engine.YearlyRates{}
	case len(values) == 1:
		return engine.FlatRates(values[0])
	}
	var r engine.YearlyRates
	copy(r[:], values)
	return r
}

var fieldSpecs = []fieldSpec{
	scalar("revenue.monthlyAuv", func(p *Parameters) *float64 { return &p.MonthlyAUV }),
	scalar("revenue.monthsToReachAuv", func(p *Parameters) *float64 { return &p.MonthsToReachAUV }),
	scalar("revenue.startingMonthAuvPct", func(p *Parameters) *float64 { return &p.StartingMonthAUVPct }),
	growthYear(0),
	growthYear(1),
	growthYear(2),
	growthYear(3),
	growthYear(4),
	scalar("operatingCosts.cogsPct", func(p *Parameters) *float64 { return &p.COGSPct }),
	scalar("operatingCosts.laborPct", func(p *Parameters) *float64 { return &p.LaborPct }),
	scalar("operatingCosts.royaltyPct", func(p *Parameters) *float64 { return &p.RoyaltyPct }),
	scalar("operatingCosts.adFundPct", func(p *Parameters) *float64 { return &p.AdFundPct }),
	scalar("operatingCosts.marketingPct", func(p *Parameters) *float64 { return &p.MarketingPct }),
	scalar("operatingCosts.otherOpexPct", func(p *Parameters) *float64 { return &p.OtherOpexPct }),
	scalar("operatingCosts.payrollTaxPct", func(p *Parameters) *float64 { return &p.PayrollTaxPct }),
	scalar("operatingCosts.rentMonthly", func(p *Parameters) *float64 { return &p.RentMonthly }),
	scalar("operatingCosts.managementSalariesAnnual", func(p *Parameters) *float64 { return &p.ManagementSalariesAnnual }),
	scalar("financing.loanAmount", func(p *Parameters) *float64 { return &p.LoanAmount }),
	scalar("financing.interestRate", func(p *Parameters) *float64 { return &p.InterestRate }),
	scalar("financing.loanTermMonths", func(p *Parameters) *float64 { return &p.LoanTermMonths }),
	scalar("startup.depreciationYears", func(p *Parameters) *float64 { return &p.DepreciationYears }),
	scalar("workingCapital.arDays", func(p *Parameters) *float64 { return &p.ARDays }),
	scalar("workingCapital.apDays", func(p *Parameters) *float64 { return &p.APDays }),
	scalar("workingCapital.inventoryDays", func(p *Parameters) *float64 { return &p.InventoryDays }),
	scalar("distributions.annual", func(p *Parameters) *float64 { return &p.DistributionsAnnual }),
	scalar("tax.rate", func(p *Parameters) *float64 { return &p.TaxRate }),
	scalar("valuation.ebitdaMultiple", func(p *Parameters) *float64 { return &p.EBITDAMultiple }),
	scalar("valuation.sweatEquity", func(p *Parameters) *float64 { return &p.SweatEquity }),
	scalar("valuation.shareholderSalaryAdjustment", func(p *Parameters) *float64 { return &p.ShareholderSalaryAdjustment }),
}

func lookupField(path string) (fieldSpec, bool) {
	for _, spec := range fieldSpecs {
		if spec.path == path {
			return spec, true
		}
	}
	return fieldSpec{}, false
}

// FieldPaths lists every editable plan field path in a stable order.
func FieldPaths() []string {
	paths := make([]string, len(fieldSpecs))
	for i, spec := range fieldSpecs {
		paths[i] = spec.path
	}
	return paths
}

// PlanInputs maps field paths to their current values for one plan.
type PlanInputs map[string]FieldValue

// NewPlanInputs seeds every field from the brand's parameters.
func NewPlanInputs(b *Brand) PlanInputs {
	params := b.Parameters
	inputs := make(PlanInputs, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		v := spec.get(&params)
		inputs[spec.path] = FieldValue{
			CurrentValue: v,
			Source:       SourceBrandDefault,
			BrandDefault: v,
		}
	}
	return inputs
}

// Get returns the current value of path.
func (p PlanInputs) Get(path string) (float64, error) {
	fv, ok := p[path]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownField, "get %s", path)
	}
	return fv.CurrentValue, nil
}

// Set records a user edit.
func (p PlanInputs) Set(path string, value float64) error {
	return p.setWithSource(path, value, SourceUserEntry)
}

// SetExtracted records a value supplied by document extraction.
func (p PlanInputs) SetExtracted(path string, value float64) error {
	return p.setWithSource(path, value, SourceAIExtracted)
}

func (p PlanInputs) setWithSource(path string, value float64, source Source) error {
	if _, ok := lookupField(path); !ok {
		return eris.Wrapf(ErrUnknownField, "set %s", path)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return eris.Errorf("set %s: value must be finite", path)
	}
	fv := p[path]
	fv.CurrentValue = value
	fv.Source = source
	fv.IsCustom = true
	p[path] = fv
	return nil
}

// Reset restores the brand default for path.
func (p PlanInputs) Reset(path string) error {
	fv, ok := p[path]
	if !ok {
		return eris.Wrapf(ErrUnknownField, "reset %s", path)
	}
	fv.CurrentValue = fv.BrandDefault
	fv.Source = SourceBrandDefault
	fv.IsCustom = false
	p[path] = fv
	return nil
}

// CustomFields returns the sorted paths that differ from the brand default.
func (p PlanInputs) CustomFields() []string {
	var paths []string
	for path, fv := range p {
		if fv.IsCustom {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Parameters rebuilds brand-unit parameters from the plan's current values.
// Fields missing from the plan keep their zero value.
func (p PlanInputs) Parameters() Parameters {
	var params Parameters
	for _, spec := range fieldSpecs {
		if fv, ok := p[spec.path]; ok {
			spec.set(&params, fv.CurrentValue)
		}
	}
	return params
}

// Clone returns an independent copy of the plan inputs.
func (p PlanInputs) Clone() PlanInputs {
	out := make(PlanInputs, len(p))
	for path, fv := range p {
		out[path] = fv
	}
	return out
}
