package engine

// aggregateAnnual rolls the monthly records into yearly summaries. Flow items
// are summed, balance-sheet proxies come from the last month of each year, and
// cash and retained earnings carry forward from year to year. Financing and
// capex flows are signed: inflows positive, outflows negative.
func aggregateAnnual(in FinancialInputs, startup StartupTotals, fs FinancingSummary, months *[ProjectionMonths]MonthlyProjection) [ProjectionYears]AnnualSummary {
	var years [ProjectionYears]AnnualSummary

	var cumulativeCash, retainedEarnings int64
	for yi := 0; yi < ProjectionYears; yi++ {
		a := AnnualSummary{Year: yi + 1}

		var principal int64
		for _, p := range months[yi*MonthsPerYear : (yi+1)*MonthsPerYear] {
			a.Revenue += p.Revenue
			a.TotalCOGS += p.TotalCOGS
			a.GrossProfit += p.GrossProfit
			a.DirectLabor += p.DirectLabor
			a.ContributionMargin += p.ContributionMargin
			a.TotalOpex += p.TotalOpex
			a.EBITDA += p.EBITDA
			a.Depreciation += p.Depreciation
			a.InterestExpense += p.InterestExpense
			a.PreTaxIncome += p.PreTaxIncome
			a.OperatingCashFlow += p.OperatingCashFlow
			principal += p.LoanPrincipalPayment
		}

		a.COGSPct = ratio(a.TotalCOGS, a.Revenue)
		a.GrossProfitPct = ratio(a.GrossProfit, a.Revenue)
		a.LaborPct = ratio(a.DirectLabor, a.Revenue)
		a.ContributionMarginPct = ratio(a.ContributionMargin, a.Revenue)
		a.OpexPct = ratio(a.TotalOpex, a.Revenue)
		a.EBITDAPct = ratio(a.EBITDA, a.Revenue)
		a.PreTaxIncomePct = ratio(a.PreTaxIncome, a.Revenue)

		last := months[(yi+1)*MonthsPerYear-1]
		a.AccountsReceivable = last.AccountsReceivable
		a.Inventory = last.Inventory
		a.AccountsPayable = last.AccountsPayable
		a.NetFixedAssets = last.NetFixedAssets
		a.LoanClosingBalance = last.LoanClosingBalance

		if yi == 0 {
			a.CapexOutflow = -startup.Capex
			a.EquityInflow = fs.EquityAmount
			a.DebtInflow = fs.DebtAmount
		}
		a.PrincipalRepayment = -principal
		a.Distributions = -in.Distributions[yi]
		a.NetCashFlow = a.OperatingCashFlow + a.CapexOutflow + a.EquityInflow +
			a.DebtInflow + a.PrincipalRepayment + a.Distributions

		cumulativeCash += a.NetCashFlow
		retainedEarnings += a.PreTaxIncome + a.Distributions
		a.EndingCash = cumulativeCash
		a.CumulativeRetainedEarnings = retainedEarnings

		a.TotalCurrentAssets = a.EndingCash + a.AccountsReceivable + a.Inventory
		a.TotalAssets = a.TotalCurrentAssets + a.NetFixedAssets
		a.TotalLiabilities = a.AccountsPayable + a.LoanClosingBalance
		a.TotalEquity = fs.EquityAmount + a.CumulativeRetainedEarnings

		years[yi] = a
	}

	return years
}
