// Package engine computes a five-year franchise financial projection.
//
// Calculate turns normalized numeric inputs into 60 monthly statements, five
// annual summaries with a simplified balance sheet, ROI, ROIC and sale
// valuation metrics, and a list of accounting identity checks. All currency is
// integer cents; expense lines are negative. The package is pure: it performs
// no I/O, keeps no state between calls, and is safe for concurrent use.
package engine

// Calculate runs one projection. It never fails; identity check results in
// the output report whether the statements tie out.
func Calculate(input EngineInput) EngineOutput {
	in := input.FinancialInputs

	startup := aggregateStartupCosts(input.StartupCosts)
	fs := setupFinancing(in, startup)
	months := projectMonths(in, startup, fs)
	years := aggregateAnnual(in, startup, fs, &months)

	return EngineOutput{
		StartupTotals:      startup,
		Financing:          fs,
		MonthlyProjections: months,
		AnnualSummaries:    years,
		ROIMetrics:         computeROI(startup, fs, &months),
		ROIC:               computeROIC(in, fs, &years),
		Valuation:          computeValuation(in, fs, &years),
		IdentityChecks:     verifyIdentities(in, startup, fs, &months, &years),
	}
}
