package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDeterministic(t *testing.T) {
	for name, input := range map[string]EngineInput{
		"quick service":  quickServiceInput(),
		"fitness studio": fitnessStudioInput(),
	} {
		t.Run(name, func(t *testing.T) {
			first, err := json.Marshal(Calculate(input))
			require.NoError(t, err)
			second, err := json.Marshal(Calculate(input))
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second))
		})
	}
}

func TestCalculateStructure(t *testing.T) {
	out := Calculate(quickServiceInput())

	require.Len(t, out.MonthlyProjections, ProjectionMonths)
	require.Len(t, out.AnnualSummaries, ProjectionYears)
	for i, p := range out.MonthlyProjections {
		assert.Equal(t, i+1, p.Month)
		assert.Equal(t, i/MonthsPerYear+1, p.Year)
		assert.Equal(t, i%MonthsPerYear+1, p.MonthInYear)
		assert.GreaterOrEqual(t, p.Year, 1)
		assert.LessOrEqual(t, p.Year, ProjectionYears)
	}
	for i, a := range out.AnnualSummaries {
		assert.Equal(t, i+1, a.Year)
	}
}

func TestAnnualRevenueMatchesMonthlySum(t *testing.T) {
	for name, input := range map[string]EngineInput{
		"quick service":  quickServiceInput(),
		"fitness studio": fitnessStudioInput(),
	} {
		t.Run(name, func(t *testing.T) {
			out := Calculate(input)
			for yi, a := range out.AnnualSummaries {
				var revenue, ebitda int64
				for _, p := range out.MonthlyProjections {
					if p.Year == yi+1 {
						revenue += p.Revenue
						ebitda += p.EBITDA
					}
				}
				assert.InDelta(t, revenue, a.Revenue, 1, "year %d revenue", a.Year)
				assert.InDelta(t, ebitda, a.EBITDA, 1, "year %d ebitda", a.Year)
			}
		})
	}
}

func TestExpenseSignDiscipline(t *testing.T) {
	out := Calculate(quickServiceInput())
	for _, p := range out.MonthlyProjections {
		require.Positive(t, p.Revenue)
		lines := map[string]int64{
			"materialsCogs":        p.MaterialsCOGS,
			"royalties":            p.Royalties,
			"adFund":               p.AdFund,
			"directLabor":          p.DirectLabor,
			"facilities":           p.Facilities,
			"marketing":            p.Marketing,
			"managementSalaries":   p.ManagementSalaries,
			"payrollTaxBenefits":   p.PayrollTaxBenefits,
			"otherOpex":            p.OtherOpex,
			"nonCapexAmortization": p.NonCapexAmortization,
			"depreciation":         p.Depreciation,
			"interestExpense":      p.InterestExpense,
		}
		for name, v := range lines {
			assert.LessOrEqual(t, v, int64(0), "month %d %s", p.Month, name)
		}
		assert.Equal(t, p.MaterialsCOGS+p.Royalties+p.AdFund, p.TotalCOGS)
		assert.Equal(t, p.Revenue+p.TotalCOGS, p.GrossProfit)
		assert.Equal(t, p.ContributionMargin+p.TotalOpex, p.EBITDA)
		assert.Equal(t, p.EBITDA+p.Depreciation+p.InterestExpense, p.PreTaxIncome)
	}
}

func TestDepreciationBound(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		years int
	}{
		{"five year life", 0.2, 5},
		{"two year life", 0.5, 2},
		{"three year life", 1.0 / 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := quickServiceInput()
			input.FinancialInputs.Startup.DepreciationRate = tt.rate
			out := Calculate(input)

			require.Equal(t, tt.years, out.Financing.DepreciationYears)
			var taken int64
			for _, p := range out.MonthlyProjections {
				taken += -p.Depreciation
				if p.Month > tt.years*MonthsPerYear {
					assert.Zero(t, p.Depreciation, "month %d", p.Month)
				}
			}
			assert.InDelta(t, out.StartupTotals.Capex, taken, 1)
			assert.Zero(t, out.MonthlyProjections[ProjectionMonths-1].NetFixedAssets)
		})
	}
}

func TestDepreciationBeyondHorizon(t *testing.T) {
	out := Calculate(fitnessStudioInput())

	assert.Equal(t, 7, out.Financing.DepreciationYears)
	for _, p := range out.MonthlyProjections {
		assert.Equal(t, -out.Financing.MonthlyDepreciation, p.Depreciation)
	}
	last := out.MonthlyProjections[ProjectionMonths-1]
	assert.Equal(t, out.StartupTotals.Capex-out.Financing.MonthlyDepreciation*ProjectionMonths, last.NetFixedAssets)
}

func TestLoanAmortization(t *testing.T) {
	tests := []struct {
		name string
		term int
	}{
		{"thirty six months", 36},
		{"sixty months", 60},
		{"one hundred forty four months", 144},
		{"seven months", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := quickServiceInput()
			input.FinancialInputs.Financing.TermMonths = tt.term
			out := Calculate(input)

			prev := out.Financing.DebtAmount
			for _, p := range out.MonthlyProjections {
				assert.Equal(t, prev, p.LoanOpeningBalance)
				assert.LessOrEqual(t, p.LoanClosingBalance, prev, "month %d", p.Month)
				assert.GreaterOrEqual(t, p.LoanClosingBalance, int64(0))
				if tt.term <= ProjectionMonths && p.Month >= tt.term {
					assert.Zero(t, p.LoanClosingBalance, "month %d", p.Month)
				}
				prev = p.LoanClosingBalance
			}
		})
	}
}

func TestInterestUsesAverageBalance(t *testing.T) {
	out := Calculate(quickServiceInput())
	p := out.MonthlyProjections[0]

	average := math.Round(float64(p.LoanOpeningBalance+p.LoanClosingBalance) / 2)
	expected := -int64(math.Round(average * 0.105 / 12))
	assert.Equal(t, expected, p.InterestExpense)
	assert.NotEqual(t, -int64(math.Round(float64(p.LoanOpeningBalance)*0.105/12)), p.InterestExpense)
}

func TestIdentityChecksPassForReferenceBrands(t *testing.T) {
	for name, input := range map[string]EngineInput{
		"quick service":  quickServiceInput(),
		"fitness studio": fitnessStudioInput(),
	} {
		t.Run(name, func(t *testing.T) {
			out := Calculate(input)

			names := make(map[string]bool)
			for _, check := range out.IdentityChecks {
				names[check.Name] = true
				assert.True(t, check.Passed, "%s: expected %d, actual %d", check.Name, check.Expected, check.Actual)
				assert.Equal(t, IdentityTolerance, check.Tolerance)
			}
			for y := 1; y <= ProjectionYears; y++ {
				assert.True(t, names["balance_sheet_year_"+strconv.Itoa(y)])
				assert.True(t, names["pnl_to_cash_flow_year_"+strconv.Itoa(y)])
			}
			assert.True(t, names["depreciation_total"])
			assert.True(t, names["loan_amortization"])
			assert.True(t, names["cash_reconciliation"])
			assert.True(t, out.AllChecksPassed())
			assert.Empty(t, out.FailedChecks())
		})
	}
}

func TestBrandsProduceDifferentResults(t *testing.T) {
	a := Calculate(quickServiceInput())
	b := Calculate(fitnessStudioInput())
	assert.NotEqual(t, a.AnnualSummaries, b.AnnualSummaries)
}

func TestRevenueRamp(t *testing.T) {
	input := quickServiceInput()
	out := Calculate(input)

	gross := input.FinancialInputs.Revenue.AnnualGrossSales
	month14 := out.MonthlyProjections[13]
	assert.InDelta(t, float64(gross)/12, float64(month14.Revenue), 1)
	assert.InDelta(t, 1.0, month14.AUVPct, 1e-12)

	month15 := out.MonthlyProjections[14]
	grown := float64(month14.Revenue) * (1 + 0.13/12)
	assert.Equal(t, int64(math.Round(grown)), month15.Revenue)
	assert.InDelta(t, grown, float64(month15.Revenue), 0.5)

	first := out.MonthlyProjections[0]
	assert.InDelta(t, 0.08+0.92/14, first.AUVPct, 1e-12)
	for i := 1; i < 14; i++ {
		assert.Greater(t, out.MonthlyProjections[i].Revenue, out.MonthlyProjections[i-1].Revenue)
	}
}

func TestRevenueWithoutRamp(t *testing.T) {
	input := fitnessStudioInput()
	input.FinancialInputs.Revenue.MonthsToReachAUV = 0
	out := Calculate(input)

	assert.Equal(t, int64(95_000_000/12+1), out.MonthlyProjections[0].Revenue)
	for _, p := range out.MonthlyProjections {
		assert.Equal(t, 1.0, p.AUVPct)
	}
}

func TestNonCapexExpensedInYearOne(t *testing.T) {
	out := Calculate(quickServiceInput())

	var yearOne int64
	for _, p := range out.MonthlyProjections {
		if p.Year == 1 {
			yearOne += p.NonCapexAmortization
		} else {
			assert.Zero(t, p.NonCapexAmortization)
		}
	}
	assert.Equal(t, -out.StartupTotals.NonCapex, yearOne)
}

func TestWorkingCapitalStartsFromZero(t *testing.T) {
	out := Calculate(fitnessStudioInput())
	p := out.MonthlyProjections[0]

	expected := p.PreTaxIncome - p.Depreciation - p.AccountsReceivable - p.Inventory + p.AccountsPayable
	assert.Equal(t, expected, p.OperatingCashFlow)
}

func TestBreakEvenMonth(t *testing.T) {
	input := fitnessStudioInput()
	input.FinancialInputs.Revenue.AnnualGrossSales = 150_000_000
	input.FinancialInputs.Distributions = YearlyCents{}
	out := Calculate(input)
	require.NotNil(t, out.ROIMetrics.BreakEvenMonth)

	month := *out.ROIMetrics.BreakEvenMonth
	require.GreaterOrEqual(t, month, 1)
	require.LessOrEqual(t, month, ProjectionMonths)

	cumulative := -out.StartupTotals.Total + out.Financing.EquityAmount + out.Financing.DebtAmount
	for _, p := range out.MonthlyProjections[:month] {
		if p.Month == month {
			cumulative += p.OperatingCashFlow - p.LoanPrincipalPayment - out.Financing.MonthlyDistributions[p.Year-1]
			assert.GreaterOrEqual(t, cumulative, int64(0))
			break
		}
		cumulative += p.OperatingCashFlow - p.LoanPrincipalPayment - out.Financing.MonthlyDistributions[p.Year-1]
		assert.Negative(t, cumulative, "month %d", p.Month)
	}
}

func TestFiveYearROI(t *testing.T) {
	out := Calculate(quickServiceInput())

	var cash int64
	for _, p := range out.MonthlyProjections {
		cash += p.OperatingCashFlow - p.LoanPrincipalPayment
	}
	assert.Equal(t, cash, out.ROIMetrics.FiveYearCumulativeCashFlow)
	assert.Equal(t, int64(25_650_700), out.ROIMetrics.TotalStartupInvestment)
	assert.InDelta(t, float64(cash)/25_650_700, out.ROIMetrics.FiveYearROIPct, 1e-12)
}

func TestROICAndValuation(t *testing.T) {
	input := quickServiceInput()
	out := Calculate(input)

	for yi, a := range out.AnnualSummaries {
		r := out.ROIC[yi]
		assert.Equal(t, a.PreTaxIncome, r.PreTaxIncome)
		if a.PreTaxIncome <= 0 {
			assert.Zero(t, r.IncomeTax)
		} else {
			assert.Equal(t, -int64(math.Round(float64(a.PreTaxIncome)*0.25)), r.IncomeTax)
		}
		assert.Equal(t, r.PreTaxIncome+r.IncomeTax, r.AfterTaxNetIncome)
		assert.Equal(t, out.Financing.EquityAmount+5_000_000+a.LoanClosingBalance+a.CumulativeRetainedEarnings, r.InvestedCapital)

		v := out.Valuation[yi]
		assert.Equal(t, a.EBITDA+4_500_000, v.AdjustedEBITDA)
		assert.GreaterOrEqual(t, v.EnterpriseValue, int64(0))
		assert.Equal(t, v.EnterpriseValue-v.EstimatedTaxOnSale-a.LoanClosingBalance, v.NetAfterTaxProceeds)
		assert.Equal(t, a.LoanClosingBalance, v.OutstandingDebt)
	}
}

func TestValuationNegativeEBITDA(t *testing.T) {
	input := quickServiceInput()
	input.FinancialInputs.Revenue.AnnualGrossSales = 0
	input.FinancialInputs.Valuation.ShareholderSalaryAdjustment = YearlyCents{}
	out := Calculate(input)

	for _, v := range out.Valuation {
		assert.Negative(t, v.AdjustedEBITDA)
		assert.Zero(t, v.EnterpriseValue)
		assert.Zero(t, v.EstimatedTaxOnSale)
	}
}

func TestEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EngineInput)
	}{
		{"zero revenue", func(in *EngineInput) { in.FinancialInputs.Revenue.AnnualGrossSales = 0 }},
		{"all debt", func(in *EngineInput) { in.FinancialInputs.Financing.EquityPct = 0 }},
		{"all equity", func(in *EngineInput) { in.FinancialInputs.Financing.EquityPct = 1 }},
		{"empty startup costs", func(in *EngineInput) {
			in.StartupCosts = nil
			in.FinancialInputs.Financing.TotalInvestment = 0
		}},
		{"zero depreciation", func(in *EngineInput) { in.FinancialInputs.Startup.DepreciationRate = 0 }},
		{"zero term", func(in *EngineInput) { in.FinancialInputs.Financing.TermMonths = 0 }},
		{"zero interest", func(in *EngineInput) { in.FinancialInputs.Financing.InterestRate = 0 }},
		{"ramp beyond horizon", func(in *EngineInput) { in.FinancialInputs.Revenue.MonthsToReachAUV = 90 }},
		{"empty input", func(in *EngineInput) { *in = EngineInput{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := quickServiceInput()
			tt.mutate(&input)

			var out EngineOutput
			require.NotPanics(t, func() { out = Calculate(input) })
			require.Len(t, out.MonthlyProjections, ProjectionMonths)
			require.Len(t, out.AnnualSummaries, ProjectionYears)
			assert.Equal(t, ProjectionMonths, out.MonthlyProjections[ProjectionMonths-1].Month)
			assert.Empty(t, out.FailedChecks())
		})
	}
}

func TestZeroRevenueNeverBreaksEven(t *testing.T) {
	input := quickServiceInput()
	input.FinancialInputs.Revenue.AnnualGrossSales = 0
	out := Calculate(input)

	assert.Nil(t, out.ROIMetrics.BreakEvenMonth)
	for _, a := range out.AnnualSummaries {
		assert.Zero(t, a.Revenue)
		assert.Zero(t, a.COGSPct)
		assert.Zero(t, a.EBITDAPct)
	}
}

func TestZeroDepreciationKeepsCapexAtCost(t *testing.T) {
	input := quickServiceInput()
	input.FinancialInputs.Startup.DepreciationRate = 0
	out := Calculate(input)

	for _, p := range out.MonthlyProjections {
		assert.Zero(t, p.Depreciation)
		assert.Equal(t, out.StartupTotals.Capex, p.NetFixedAssets)
	}
	for _, check := range out.IdentityChecks {
		assert.NotEqual(t, "depreciation_total", check.Name)
	}
}

func TestEmptyStartupCosts(t *testing.T) {
	input := quickServiceInput()
	input.StartupCosts = nil
	input.FinancialInputs.Financing.TotalInvestment = 0
	out := Calculate(input)

	assert.Zero(t, out.StartupTotals.Total)
	assert.Zero(t, out.Financing.DebtAmount)
	assert.Zero(t, out.ROIMetrics.FiveYearROIPct)
	for _, v := range out.Valuation {
		assert.Zero(t, v.TotalReturnMultiple)
	}
}
