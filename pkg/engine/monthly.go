package engine

// monthState is threaded from one month to the next.
type monthState struct {
	prevRevenue             int64
	loanBalance             int64
	accumulatedDepreciation int64
	prevAR                  int64
	prevInventory           int64
	prevAP                  int64
	nonCapexBooked          int64
}

// projectMonths runs the 60-month projection loop.
func projectMonths(in FinancialInputs, startup StartupTotals, fs FinancingSummary) [ProjectionMonths]MonthlyProjection {
	var months [ProjectionMonths]MonthlyProjection

	rev := in.Revenue
	costs := in.OperatingCosts
	wc := in.WorkingCapitalAssumptions
	monthlyAUV := float64(rev.AnnualGrossSales) / MonthsPerYear
	depreciationMonths := fs.DepreciationYears * MonthsPerYear

	st := monthState{loanBalance: fs.DebtAmount}

	for m := 1; m <= ProjectionMonths; m++ {
		yi := (m - 1) / MonthsPerYear
		p := MonthlyProjection{
			Month:       m,
			Year:        yi + 1,
			MonthInYear: (m-1)%MonthsPerYear + 1,
		}

		// Revenue: linear ramp toward full AUV, then monthly compounding.
		switch {
		case m <= rev.MonthsToReachAUV:
			n := float64(rev.MonthsToReachAUV)
			remaining := float64(rev.MonthsToReachAUV - m)
			p.AUVPct = rev.StartingMonthAUVPct + (1-rev.StartingMonthAUVPct)*(n-remaining)/n
			p.Revenue = roundCents(monthlyAUV * p.AUVPct)
		case m == 1:
			p.AUVPct = 1
			p.Revenue = roundCents(monthlyAUV)
		default:
			p.AUVPct = 1
			p.Revenue = roundCents(float64(st.prevRevenue) * (1 + rev.GrowthRates[yi]/MonthsPerYear))
		}
		revenue := float64(p.Revenue)

		p.MaterialsCOGS = -roundCents(revenue * costs.COGSPct[yi])
		p.Royalties = -roundCents(revenue * costs.RoyaltyPct[yi])
		p.AdFund = -roundCents(revenue * costs.AdFundPct[yi])
		p.TotalCOGS = p.MaterialsCOGS + p.Royalties + p.AdFund
		p.GrossProfit = p.Revenue + p.TotalCOGS

		p.DirectLabor = -roundCents(revenue * costs.LaborPct[yi])
		p.ContributionMargin = p.GrossProfit + p.DirectLabor

		p.Facilities = -roundCents(float64(costs.FacilitiesAnnual[yi]) / MonthsPerYear)
		p.Marketing = -roundCents(revenue * costs.MarketingPct[yi])
		p.ManagementSalaries = -roundCents(float64(costs.ManagementSalariesAnnual[yi]) / MonthsPerYear)
		payrollBase := absCents(p.DirectLabor) + absCents(p.ManagementSalaries)
		p.PayrollTaxBenefits = -roundCents(float64(payrollBase) * costs.PayrollTaxPct[yi])
		p.OtherOpex = -roundCents(revenue * costs.OtherOpexPct[yi])
		if yi == 0 {
			amount := roundCents(float64(startup.NonCapex) / MonthsPerYear)
			if m == MonthsPerYear {
				amount = startup.NonCapex - st.nonCapexBooked
			}
			st.nonCapexBooked += amount
			p.NonCapexAmortization = -amount
		}
		p.TotalOpex = p.Facilities + p.Marketing + p.ManagementSalaries +
			p.PayrollTaxBenefits + p.OtherOpex + p.NonCapexAmortization
		p.EBITDA = p.ContributionMargin + p.TotalOpex

		if m <= depreciationMonths {
			remainingBook := startup.Capex - st.accumulatedDepreciation
			amount := minCents(fs.MonthlyDepreciation, remainingBook)
			if m == depreciationMonths {
				amount = remainingBook
			}
			if amount < 0 {
				amount = 0
			}
			st.accumulatedDepreciation += amount
			p.Depreciation = -amount
		}

		// Interest accrues on the average of the opening and post-payment balance.
		p.LoanOpeningBalance = st.loanBalance
		principal := minCents(fs.MonthlyPrincipal, st.loanBalance)
		if m == in.Financing.TermMonths {
			principal = st.loanBalance
		}
		if principal < 0 {
			principal = 0
		}
		p.LoanPrincipalPayment = principal
		p.LoanClosingBalance = st.loanBalance - principal
		averageBalance := roundCents(float64(p.LoanOpeningBalance+p.LoanClosingBalance) / 2)
		p.InterestExpense = -roundCents(float64(averageBalance) * in.Financing.InterestRate / MonthsPerYear)
		st.loanBalance = p.LoanClosingBalance

		p.PreTaxIncome = p.EBITDA + p.Depreciation + p.InterestExpense

		materials := float64(absCents(p.MaterialsCOGS))
		p.AccountsReceivable = roundCents(revenue / DaysPerMonth * wc.ARDays)
		p.Inventory = roundCents(materials / DaysPerMonth * wc.InventoryDays)
		p.AccountsPayable = roundCents(materials / DaysPerMonth * wc.APDays)
		p.NetFixedAssets = startup.Capex - st.accumulatedDepreciation

		p.OperatingCashFlow = p.PreTaxIncome + absCents(p.Depreciation) -
			(p.AccountsReceivable - st.prevAR) -
			(p.Inventory - st.prevInventory) +
			(p.AccountsPayable - st.prevAP)

		st.prevRevenue = p.Revenue
		st.prevAR = p.AccountsReceivable
		st.prevInventory = p.Inventory
		st.prevAP = p.AccountsPayable

		months[m-1] = p
	}

	return months
}
