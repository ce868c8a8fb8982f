package brand

import (
	"math"

	"github.com/google/uuid"
	"github.com/iwvelando/franchise-forecast/pkg/constants"
	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/iwvelando/franchise-forecast/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// StartupCosts materializes the brand's startup cost template as engine line
// items with fresh ids.
func StartupCosts(b *Brand) []engine.StartupCostLineItem {
	items := make([]engine.StartupCostLineItem, 0, len(b.StartupCosts))
	for i, tmpl := range b.StartupCosts {
		amount := mathutil.DollarsToCents(tmpl.Amount)
		brandDefault := amount
		item := engine.StartupCostLineItem{
			ID:                  uuid.NewString(),
			Name:                tmpl.Name,
			Amount:              amount,
			CapexClassification: tmpl.Classification,
			Source:              string(SourceBrandDefault),
			BrandDefaultAmount:  &brandDefault,
			SortOrder:           i,
		}
		if tmpl.Low != nil || tmpl.High != nil {
			r := &engine.DisclosedRange{}
			if tmpl.Low != nil {
				r.Low = mathutil.DollarsToCents(*tmpl.Low)
			}
			if tmpl.High != nil {
				r.High = mathutil.DollarsToCents(*tmpl.High)
			}
			item.Range = r
		}
		items = append(items, item)
	}
	return items
}

// Unwrap converts a plan's current field values and startup costs into the
// raw engine input.
func Unwrap(inputs PlanInputs, startupCosts []engine.StartupCostLineItem) engine.EngineInput {
	return UnwrapParameters(inputs.Parameters(), startupCosts)
}

// UnwrapParameters converts brand-unit parameters into engine input. Dollar
// amounts become cents, single values are expanded to one value per year, and
// the equity share is derived from the loan amount and the startup cost total.
func UnwrapParameters(p Parameters, startupCosts []engine.StartupCostLineItem) engine.EngineInput {
	var totalInvestment int64
	for _, item := range startupCosts {
		totalInvestment += item.Amount
	}

	loan := mathutil.DollarsToCents(p.LoanAmount)
	equityPct := 1.0
	if totalInvestment > 0 {
		equityPct = mathutil.Clamp(1-float64(loan)/float64(totalInvestment), 0, 1)
	}

	var depreciationRate float64
	if p.DepreciationYears > 0 {
		depreciationRate = 1 / p.DepreciationYears
	}

	costs := make([]engine.StartupCostLineItem, len(startupCosts))
	copy(costs, startupCosts)

	return engine.EngineInput{
		FinancialInputs: engine.FinancialInputs{
			Revenue: engine.RevenueInputs{
				AnnualGrossSales:    mathutil.DollarsToCents(p.MonthlyAUV) * engine.MonthsPerYear,
				MonthsToReachAUV:    wholeNumber(p.MonthsToReachAUV),
				StartingMonthAUVPct: p.StartingMonthAUVPct,
				GrowthRates:         expandRates(p.GrowthRates),
			},
			OperatingCosts: engine.OperatingCostInputs{
				COGSPct:                  engine.FlatRates(p.COGSPct),
				LaborPct:                 engine.FlatRates(p.LaborPct),
				RoyaltyPct:               engine.FlatRates(p.RoyaltyPct),
				AdFundPct:                engine.FlatRates(p.AdFundPct),
				MarketingPct:             engine.FlatRates(p.MarketingPct),
				OtherOpexPct:             engine.FlatRates(p.OtherOpexPct),
				PayrollTaxPct:            engine.FlatRates(p.PayrollTaxPct),
				FacilitiesAnnual:         escalatedFacilities(p.RentMonthly),
				ManagementSalariesAnnual: engine.FlatCents(mathutil.DollarsToCents(p.ManagementSalariesAnnual)),
			},
			Financing: engine.FinancingInputs{
				TotalInvestment: totalInvestment,
				EquityPct:       equityPct,
				InterestRate:    p.InterestRate,
				TermMonths:      wholeNumber(p.LoanTermMonths),
			},
			Startup: engine.StartupInputs{DepreciationRate: depreciationRate},
			WorkingCapitalAssumptions: engine.WorkingCapitalAssumptions{
				ARDays:        p.ARDays,
				APDays:        p.APDays,
				InventoryDays: p.InventoryDays,
			},
			Distributions: engine.FlatCents(mathutil.DollarsToCents(p.DistributionsAnnual)),
			TaxRate:       p.TaxRate,
			Valuation: engine.ValuationInputs{
				EBITDAMultiple:              p.EBITDAMultiple,
				SweatEquity:                 mathutil.DollarsToCents(p.SweatEquity),
				ShareholderSalaryAdjustment: engine.FlatCents(mathutil.DollarsToCents(p.ShareholderSalaryAdjustment)),
			},
		},
		StartupCosts: costs,
	}
}

// escalatedFacilities expands a monthly rent into annual facilities costs,
// escalating by a fixed rate each year after the first.
func escalatedFacilities(rentMonthly float64) engine.YearlyCents {
	annual := decimal.NewFromInt(mathutil.DollarsToCents(rentMonthly) * engine.MonthsPerYear)
	escalation := decimal.NewFromFloat(1 + constants.FacilitiesEscalation)

	var out engine.YearlyCents
	for yi := range out {
		factor := escalation.Pow(decimal.NewFromInt(int64(yi)))
		out[yi] = annual.Mul(factor).Round(0).IntPart()
	}
	return out
}

func wholeNumber(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}
