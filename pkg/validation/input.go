package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/franchise-forecast/pkg/engine"
)

// Issue is one field that failed validation.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Issues []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return "invalid engine input: " + strings.Join(parts, "; ")
}

type checker struct {
	issues []Issue
}

func (c *checker) add(field, format string, args ...any) {
	c.issues = append(c.issues, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) rate(field string, v, lo, hi float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.add(field, "must be a finite number")
		return
	}
	if v < lo || v > hi {
		c.add(field, "must be between %g and %g, got %g", lo, hi, v)
	}
}

func (c *checker) rates(field string, values engine.YearlyRates, lo, hi float64) {
	for i, v := range values {
		c.rate(fmt.Sprintf("%s[%d]", field, i), v, lo, hi)
	}
}

func (c *checker) cents(field string, v int64) {
	if v < 0 {
		c.add(field, "must not be negative, got %d", v)
	}
}

func (c *checker) yearlyCents(field string, values engine.YearlyCents) {
	for i, v := range values {
		c.cents(fmt.Sprintf("%s[%d]", field, i), v)
	}
}

func (c *checker) days(field string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		c.add(field, "must be a non-negative number of days, got %g", v)
	}
}

// ValidateEngineInput rejects input the engine is not responsible for
// defending against. It returns a *ValidationError listing every issue, or
// nil when the input is acceptable.
func ValidateEngineInput(input engine.EngineInput) error {
	var c checker
	in := input.FinancialInputs

	rev := in.Revenue
	c.cents("revenue.annualGrossSales", rev.AnnualGrossSales)
	if rev.MonthsToReachAUV < 0 {
		c.add("revenue.monthsToReachAuv", "must not be negative, got %d", rev.MonthsToReachAUV)
	}
	c.rate("revenue.startingMonthAuvPct", rev.StartingMonthAUVPct, 0, 1)
	c.rates("revenue.growthRates", rev.GrowthRates, -1, 1)

	costs := in.OperatingCosts
	c.rates("operatingCosts.cogsPct", costs.COGSPct, 0, 1)
	c.rates("operatingCosts.laborPct", costs.LaborPct, 0, 1)
	c.rates("operatingCosts.royaltyPct", costs.RoyaltyPct, 0, 1)
	c.rates("operatingCosts.adFundPct", costs.AdFundPct, 0, 1)
	c.rates("operatingCosts.marketingPct", costs.MarketingPct, 0, 1)
	c.rates("operatingCosts.otherOpexPct", costs.OtherOpexPct, 0, 1)
	c.rates("operatingCosts.payrollTaxPct", costs.PayrollTaxPct, 0, 1)
	c.yearlyCents("operatingCosts.facilitiesAnnual", costs.FacilitiesAnnual)
	c.yearlyCents("operatingCosts.managementSalariesAnnual", costs.ManagementSalariesAnnual)

	fin := in.Financing
	c.cents("financing.totalInvestment", fin.TotalInvestment)
	c.rate("financing.equityPct", fin.EquityPct, 0, 1)
	c.rate("financing.interestRate", fin.InterestRate, 0, 1)
	if fin.TermMonths < 0 {
		c.add("financing.termMonths", "must not be negative, got %d", fin.TermMonths)
	}

	c.rate("startup.depreciationRate", in.Startup.DepreciationRate, 0, 1)

	wc := in.WorkingCapitalAssumptions
	c.days("workingCapitalAssumptions.arDays", wc.ARDays)
	c.days("workingCapitalAssumptions.apDays", wc.APDays)
	c.days("workingCapitalAssumptions.inventoryDays", wc.InventoryDays)

	c.yearlyCents("distributions", in.Distributions)
	c.rate("taxRate", in.TaxRate, 0, 1)

	val := in.Valuation
	if math.IsNaN(val.EBITDAMultiple) || math.IsInf(val.EBITDAMultiple, 0) || val.EBITDAMultiple < 0 {
		c.add("valuation.ebitdaMultiple", "must be a non-negative number, got %g", val.EBITDAMultiple)
	}
	c.cents("valuation.sweatEquity", val.SweatEquity)

	for i, item := range input.StartupCosts {
		field := fmt.Sprintf("startupCosts[%d]", i)
		c.cents(field+".amount", item.Amount)
		if !item.CapexClassification.Valid() {
			c.add(field+".capexClassification", "unknown classification %q", item.CapexClassification)
		}
	}

	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

// Warnings reports inputs that are valid but likely unintended.
func Warnings(input engine.EngineInput) []string {
	var warnings []string
	in := input.FinancialInputs

	var startupTotal int64
	for _, item := range input.StartupCosts {
		startupTotal += item.Amount
	}
	if startupTotal != in.Financing.TotalInvestment {
		warnings = append(warnings, fmt.Sprintf(
			"total investment (%d cents) differs from the sum of startup costs (%d cents)",
			in.Financing.TotalInvestment, startupTotal))
	}

	if in.Financing.EquityPct < 1 && in.Financing.TermMonths == 0 {
		warnings = append(warnings, "loan has no term; principal is never repaid")
	}
	if in.Financing.TermMonths > engine.ProjectionMonths {
		warnings = append(warnings, fmt.Sprintf(
			"loan term of %d months extends past the %d-month projection; a balance remains outstanding",
			in.Financing.TermMonths, engine.ProjectionMonths))
	}
	if in.Startup.DepreciationRate == 0 && hasCapex(input.StartupCosts) {
		warnings = append(warnings, "depreciation rate is zero; capex is never depreciated")
	}

	return warnings
}

func hasCapex(items []engine.StartupCostLineItem) bool {
	for _, item := range items {
		if item.CapexClassification == engine.ClassificationCapex && item.Amount > 0 {
			return true
		}
	}
	return false
}
