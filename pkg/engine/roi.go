package engine

import "math"

// computeROI finds the break-even month and the five-year return. Cash starts
// net of the financing received at time zero; each month adds operating cash
// flow less principal and the pro-rata owner distribution.
func computeROI(startup StartupTotals, fs FinancingSummary, months *[ProjectionMonths]MonthlyProjection) ROIMetrics {
	metrics := ROIMetrics{TotalStartupInvestment: startup.Total}

	cumulative := -startup.Total + fs.EquityAmount + fs.DebtAmount
	for i, p := range months {
		yi := i / MonthsPerYear
		cumulative += p.OperatingCashFlow - p.LoanPrincipalPayment - fs.MonthlyDistributions[yi]
		if metrics.BreakEvenMonth == nil && cumulative >= 0 {
			month := p.Month
			metrics.BreakEvenMonth = &month
		}
		metrics.FiveYearCumulativeCashFlow += p.OperatingCashFlow - p.LoanPrincipalPayment
	}

	metrics.FiveYearROIPct = ratio(metrics.FiveYearCumulativeCashFlow, startup.Total)
	return metrics
}

// computeROIC derives after-tax return on invested capital per year.
// Invested capital includes imputed owner sweat equity.
func computeROIC(in FinancialInputs, fs FinancingSummary, years *[ProjectionYears]AnnualSummary) [ProjectionYears]ROICYear {
	var out [ProjectionYears]ROICYear
	for yi, a := range years {
		r := ROICYear{
			Year:         a.Year,
			PreTaxIncome: a.PreTaxIncome,
			SweatEquity:  in.Valuation.SweatEquity,
		}
		r.IncomeTax = -roundCents(math.Max(float64(a.PreTaxIncome), 0) * in.TaxRate)
		r.AfterTaxNetIncome = r.PreTaxIncome + r.IncomeTax
		r.InvestedCapital = fs.EquityAmount + r.SweatEquity + a.LoanClosingBalance + a.CumulativeRetainedEarnings
		if r.InvestedCapital > 0 {
			r.ROICPct = ratio(r.AfterTaxNetIncome, r.InvestedCapital)
		}
		out[yi] = r
	}
	return out
}

// computeValuation estimates a year-end sale at an EBITDA multiple.
func computeValuation(in FinancialInputs, fs FinancingSummary, years *[ProjectionYears]AnnualSummary) [ProjectionYears]ValuationYear {
	var out [ProjectionYears]ValuationYear

	multiple := in.Valuation.EBITDAMultiple
	var cumulativeDistributions int64
	for yi, a := range years {
		cumulativeDistributions += absCents(a.Distributions)

		v := ValuationYear{
			Year:            a.Year,
			AdjustedEBITDA:  a.EBITDA + in.Valuation.ShareholderSalaryAdjustment[yi],
			EBITDAMultiple:  multiple,
			OutstandingDebt: a.LoanClosingBalance,
		}
		v.EnterpriseValue = roundCents(math.Max(float64(v.AdjustedEBITDA), 0) * multiple)
		gain := math.Max(float64(v.EnterpriseValue-a.NetFixedAssets), 0)
		v.EstimatedTaxOnSale = roundCents(gain * in.TaxRate)
		v.NetAfterTaxProceeds = v.EnterpriseValue - v.EstimatedTaxOnSale - v.OutstandingDebt
		v.TotalReturnMultiple = ratio(v.NetAfterTaxProceeds+cumulativeDistributions, fs.EquityAmount)
		out[yi] = v
	}
	return out
}
