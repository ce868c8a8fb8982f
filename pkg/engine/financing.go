package engine

import "math"

// setupFinancing derives loan, equity, and depreciation parameters from the
// one-time inputs. Zero terms and zero rates fall back to zero amounts.
func setupFinancing(in FinancialInputs, startup StartupTotals) FinancingSummary {
	var fs FinancingSummary

	total := float64(in.Financing.TotalInvestment)
	fs.DebtAmount = roundCents(total * (1 - in.Financing.EquityPct))
	fs.EquityAmount = roundCents(total * in.Financing.EquityPct)

	if in.Financing.TermMonths > 0 {
		fs.MonthlyPrincipal = roundCents(float64(fs.DebtAmount) / float64(in.Financing.TermMonths))
	}

	rate := in.Startup.DepreciationRate
	fs.AnnualDepreciation = roundCents(float64(startup.Capex) * rate)
	fs.MonthlyDepreciation = roundCents(float64(fs.AnnualDepreciation) / MonthsPerYear)
	if rate > 0 {
		fs.DepreciationYears = int(math.Round(1 / rate))
	}

	for yi, annual := range in.Distributions {
		fs.MonthlyDistributions[yi] = roundCents(float64(annual) / MonthsPerYear)
	}

	return fs
}
