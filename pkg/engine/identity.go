package engine

import "strconv"

func newCheck(name string, expected, actual int64) IdentityCheckResult {
	return IdentityCheckResult{
		Name:      name,
		Expected:  expected,
		Actual:    actual,
		Tolerance: IdentityTolerance,
		Passed:    withinTolerance(expected, actual, IdentityTolerance),
	}
}

// verifyIdentities recomputes key accounting relationships from the monthly
// records and reports each as a check result. It never fails the projection.
func verifyIdentities(in FinancialInputs, startup StartupTotals, fs FinancingSummary, months *[ProjectionMonths]MonthlyProjection, years *[ProjectionYears]AnnualSummary) []IdentityCheckResult {
	checks := make([]IdentityCheckResult, 0, 2*ProjectionYears+3)

	for _, a := range years {
		checks = append(checks, newCheck(
			"balance_sheet_year_"+strconv.Itoa(a.Year),
			a.TotalAssets,
			a.TotalLiabilities+a.TotalEquity,
		))
	}

	if fs.DepreciationYears > 0 {
		var taken int64
		for _, p := range months {
			taken += absCents(p.Depreciation)
		}
		expected := startup.Capex
		if fs.DepreciationYears*MonthsPerYear > ProjectionMonths {
			expected = fs.MonthlyDepreciation * ProjectionMonths
		}
		checks = append(checks, newCheck("depreciation_total", expected, taken))
	}

	term := in.Financing.TermMonths
	var expectedClosing int64
	if term <= 0 || term > ProjectionMonths {
		expectedClosing = fs.DebtAmount - minCents(fs.DebtAmount, fs.MonthlyPrincipal*ProjectionMonths)
	}
	checks = append(checks, newCheck("loan_amortization", expectedClosing, months[ProjectionMonths-1].LoanClosingBalance))

	// Working-capital deltas use the prior year-end balances as the baseline.
	var baseAR, baseInventory, baseAP int64
	for yi, a := range years {
		var preTax, depreciation int64
		for _, p := range months[yi*MonthsPerYear : (yi+1)*MonthsPerYear] {
			preTax += p.PreTaxIncome
			depreciation += absCents(p.Depreciation)
		}
		expected := preTax + depreciation -
			(a.AccountsReceivable - baseAR) -
			(a.Inventory - baseInventory) +
			(a.AccountsPayable - baseAP)
		checks = append(checks, newCheck(
			"pnl_to_cash_flow_year_"+strconv.Itoa(a.Year),
			expected,
			a.OperatingCashFlow,
		))
		baseAR, baseInventory, baseAP = a.AccountsReceivable, a.Inventory, a.AccountsPayable
	}

	var operating, principal int64
	for _, p := range months {
		operating += p.OperatingCashFlow
		principal += p.LoanPrincipalPayment
	}
	var distributions int64
	for _, d := range in.Distributions {
		distributions += d
	}
	expectedCash := operating - startup.Capex + fs.EquityAmount + fs.DebtAmount - principal - distributions
	checks = append(checks, newCheck("cash_reconciliation", expectedCash, years[ProjectionYears-1].EndingCash))

	return checks
}
