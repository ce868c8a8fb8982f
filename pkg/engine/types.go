package engine

// Projection horizon and accounting conventions.
const (
	ProjectionYears  = 5
	MonthsPerYear    = 12
	ProjectionMonths = ProjectionYears * MonthsPerYear

	// DaysPerMonth is the fixed month length used for working-capital proxies.
	// It intentionally ignores calendar day counts.
	DaysPerMonth = 30

	// IdentityTolerance is the allowed difference, in cents, for identity checks.
	IdentityTolerance int64 = 1
)

// YearlyRates holds one decimal rate per projection year.
type YearlyRates [ProjectionYears]float64

// YearlyCents holds one currency amount (cents) per projection year.
type YearlyCents [ProjectionYears]int64

// FlatRates returns YearlyRates with the same rate in every year.
func FlatRates(rate float64) YearlyRates {
	var r YearlyRates
	for i := range r {
		r[i] = rate
	}
	return r
}

// FlatCents returns YearlyCents with the same amount in every year.
func FlatCents(amount int64) YearlyCents {
	var c YearlyCents
	for i := range c {
		c[i] = amount
	}
	return c
}

// CapexClassification partitions startup costs.
type CapexClassification string

const (
	ClassificationCapex          CapexClassification = "capex"
	ClassificationNonCapex       CapexClassification = "non_capex"
	ClassificationWorkingCapital CapexClassification = "working_capital"
)

// Valid reports whether c is one of the known classifications.
func (c CapexClassification) Valid() bool {
	switch c {
	case ClassificationCapex, ClassificationNonCapex, ClassificationWorkingCapital:
		return true
	}
	return false
}

// DisclosedRange is a low/high amount pair disclosed for a startup cost.
type DisclosedRange struct {
	Low  int64 `json:"low" yaml:"low"`
	High int64 `json:"high" yaml:"high"`
}

// StartupCostLineItem is one startup cost. Only Amount and CapexClassification
// take part in the projection; the remaining fields are carried for callers.
type StartupCostLineItem struct {
	ID                  string              `json:"id,omitempty" yaml:"id,omitempty"`
	Name                string              `json:"name" yaml:"name"`
	Amount              int64               `json:"amount" yaml:"amount"`
	CapexClassification CapexClassification `json:"capexClassification" yaml:"capexClassification"`
	Source              string              `json:"source,omitempty" yaml:"source,omitempty"`
	BrandDefaultAmount  *int64              `json:"brandDefaultAmount,omitempty" yaml:"brandDefaultAmount,omitempty"`
	Range               *DisclosedRange     `json:"range,omitempty" yaml:"range,omitempty"`
	SortOrder           int                 `json:"sortOrder" yaml:"sortOrder"`
}

// RevenueInputs seeds the revenue ramp and growth.
type RevenueInputs struct {
	AnnualGrossSales    int64       `json:"annualGrossSales"`
	MonthsToReachAUV    int         `json:"monthsToReachAuv"`
	StartingMonthAUVPct float64     `json:"startingMonthAuvPct"`
	GrowthRates         YearlyRates `json:"growthRates"`
}

// OperatingCostInputs holds percent-of-revenue rates and fixed annual costs.
type OperatingCostInputs struct {
	COGSPct                  YearlyRates `json:"cogsPct"`
	LaborPct                 YearlyRates `json:"laborPct"`
	RoyaltyPct               YearlyRates `json:"royaltyPct"`
	AdFundPct                YearlyRates `json:"adFundPct"`
	MarketingPct             YearlyRates `json:"marketingPct"`
	OtherOpexPct             YearlyRates `json:"otherOpexPct"`
	PayrollTaxPct            YearlyRates `json:"payrollTaxPct"`
	FacilitiesAnnual         YearlyCents `json:"facilitiesAnnual"`
	ManagementSalariesAnnual YearlyCents `json:"managementSalariesAnnual"`
}

// FinancingInputs describes how the total investment is funded.
type FinancingInputs struct {
	TotalInvestment int64   `json:"totalInvestment"`
	EquityPct       float64 `json:"equityPct"`
	InterestRate    float64 `json:"interestRate"`
	TermMonths      int     `json:"termMonths"`
}

// StartupInputs holds one-time asset assumptions.
type StartupInputs struct {
	// DepreciationRate is 1/usefulLifeYears.
	DepreciationRate float64 `json:"depreciationRate"`
}

// WorkingCapitalAssumptions are day counts for balance-sheet proxies.
type WorkingCapitalAssumptions struct {
	ARDays        float64 `json:"arDays"`
	APDays        float64 `json:"apDays"`
	InventoryDays float64 `json:"inventoryDays"`
}

// ValuationInputs drive the ROIC and sale-valuation metrics.
type ValuationInputs struct {
	EBITDAMultiple              float64     `json:"ebitdaMultiple"`
	SweatEquity                 int64       `json:"sweatEquity"`
	ShareholderSalaryAdjustment YearlyCents `json:"shareholderSalaryAdjustment"`
}

// FinancialInputs are the unwrapped numeric seeds of a projection.
type FinancialInputs struct {
	Revenue                   RevenueInputs             `json:"revenue"`
	OperatingCosts            OperatingCostInputs       `json:"operatingCosts"`
	Financing                 FinancingInputs           `json:"financing"`
	Startup                   StartupInputs             `json:"startup"`
	WorkingCapitalAssumptions WorkingCapitalAssumptions `json:"workingCapitalAssumptions"`
	Distributions             YearlyCents               `json:"distributions"`
	TaxRate                   float64                   `json:"taxRate"`
	Valuation                 ValuationInputs           `json:"valuation"`
}

// EngineInput is the complete input of one projection.
type EngineInput struct {
	FinancialInputs FinancialInputs       `json:"financialInputs"`
	StartupCosts    []StartupCostLineItem `json:"startupCosts"`
}

// StartupTotals are the partitioned startup cost sums.
type StartupTotals struct {
	Capex          int64 `json:"capexTotal"`
	NonCapex       int64 `json:"nonCapexTotal"`
	WorkingCapital int64 `json:"workingCapitalTotal"`
	Total          int64 `json:"totalStartupInvestment"`
}

// FinancingSummary holds values derived once before the monthly loop.
type FinancingSummary struct {
	DebtAmount           int64       `json:"debtAmount"`
	EquityAmount         int64       `json:"equityAmount"`
	MonthlyPrincipal     int64       `json:"monthlyPrincipal"`
	AnnualDepreciation   int64       `json:"annualDepreciation"`
	MonthlyDepreciation  int64       `json:"monthlyDepreciation"`
	DepreciationYears    int         `json:"depreciationYears"`
	MonthlyDistributions YearlyCents `json:"monthlyDistributions"`
}

// MonthlyProjection is one month of projected statements. Expense lines are
// stored as negative cents.
type MonthlyProjection struct {
	Month       int     `json:"month"`
	Year        int     `json:"year"`
	MonthInYear int     `json:"monthInYear"`
	AUVPct      float64 `json:"auvPct"`

	Revenue       int64 `json:"revenue"`
	MaterialsCOGS int64 `json:"materialsCogs"`
	Royalties     int64 `json:"royalties"`
	AdFund        int64 `json:"adFund"`
	TotalCOGS     int64 `json:"totalCogs"`
	GrossProfit   int64 `json:"grossProfit"`

	DirectLabor        int64 `json:"directLabor"`
	ContributionMargin int64 `json:"contributionMargin"`

	Facilities           int64 `json:"facilities"`
	Marketing            int64 `json:"marketing"`
	ManagementSalaries   int64 `json:"managementSalaries"`
	PayrollTaxBenefits   int64 `json:"payrollTaxBenefits"`
	OtherOpex            int64 `json:"otherOpex"`
	NonCapexAmortization int64 `json:"nonCapexAmortization"`
	TotalOpex            int64 `json:"totalOpex"`
	EBITDA               int64 `json:"ebitda"`
	Depreciation         int64 `json:"depreciation"`
	InterestExpense      int64 `json:"interestExpense"`
	PreTaxIncome         int64 `json:"preTaxIncome"`

	AccountsReceivable int64 `json:"accountsReceivable"`
	Inventory          int64 `json:"inventory"`
	AccountsPayable    int64 `json:"accountsPayable"`
	NetFixedAssets     int64 `json:"netFixedAssets"`

	OperatingCashFlow int64 `json:"operatingCashFlow"`

	LoanOpeningBalance   int64 `json:"loanOpeningBalance"`
	LoanPrincipalPayment int64 `json:"loanPrincipalPayment"`
	LoanClosingBalance   int64 `json:"loanClosingBalance"`
}

// AnnualSummary rolls twelve months into one year with a simplified balance sheet.
type AnnualSummary struct {
	Year int `json:"year"`

	Revenue            int64 `json:"revenue"`
	TotalCOGS          int64 `json:"totalCogs"`
	GrossProfit        int64 `json:"grossProfit"`
	DirectLabor        int64 `json:"directLabor"`
	ContributionMargin int64 `json:"contributionMargin"`
	TotalOpex          int64 `json:"totalOpex"`
	EBITDA             int64 `json:"ebitda"`
	Depreciation       int64 `json:"depreciation"`
	InterestExpense    int64 `json:"interestExpense"`
	PreTaxIncome       int64 `json:"preTaxIncome"`

	COGSPct               float64 `json:"cogsPct"`
	GrossProfitPct        float64 `json:"grossProfitPct"`
	LaborPct              float64 `json:"laborPct"`
	ContributionMarginPct float64 `json:"contributionMarginPct"`
	OpexPct               float64 `json:"opexPct"`
	EBITDAPct             float64 `json:"ebitdaPct"`
	PreTaxIncomePct       float64 `json:"preTaxIncomePct"`

	AccountsReceivable int64 `json:"accountsReceivable"`
	Inventory          int64 `json:"inventory"`
	AccountsPayable    int64 `json:"accountsPayable"`
	NetFixedAssets     int64 `json:"netFixedAssets"`
	LoanClosingBalance int64 `json:"loanClosingBalance"`

	OperatingCashFlow  int64 `json:"operatingCashFlow"`
	CapexOutflow       int64 `json:"capexOutflow"`
	EquityInflow       int64 `json:"equityInflow"`
	DebtInflow         int64 `json:"debtInflow"`
	PrincipalRepayment int64 `json:"principalRepayment"`
	Distributions      int64 `json:"distributions"`
	NetCashFlow        int64 `json:"netCashFlow"`
	EndingCash         int64 `json:"endingCash"`

	CumulativeRetainedEarnings int64 `json:"cumulativeRetainedEarnings"`
	TotalCurrentAssets         int64 `json:"totalCurrentAssets"`
	TotalAssets                int64 `json:"totalAssets"`
	TotalLiabilities           int64 `json:"totalLiabilities"`
	TotalEquity                int64 `json:"totalEquity"`
}

// ROIMetrics summarizes the five-year return.
type ROIMetrics struct {
	// BreakEvenMonth is nil when cumulative cash never recovers within the horizon.
	BreakEvenMonth             *int    `json:"breakEvenMonth"`
	TotalStartupInvestment     int64   `json:"totalStartupInvestment"`
	FiveYearCumulativeCashFlow int64   `json:"fiveYearCumulativeCashFlow"`
	FiveYearROIPct             float64 `json:"fiveYearRoiPct"`
}

// ROICYear is the return on invested capital for one year.
type ROICYear struct {
	Year              int     `json:"year"`
	PreTaxIncome      int64   `json:"preTaxIncome"`
	IncomeTax         int64   `json:"incomeTax"`
	AfterTaxNetIncome int64   `json:"afterTaxNetIncome"`
	SweatEquity       int64   `json:"sweatEquity"`
	InvestedCapital   int64   `json:"investedCapital"`
	ROICPct           float64 `json:"roicPct"`
}

// ValuationYear is a sale-valuation estimate at the end of one year.
type ValuationYear struct {
	Year                int     `json:"year"`
	AdjustedEBITDA      int64   `json:"adjustedEbitda"`
	EBITDAMultiple      float64 `json:"ebitdaMultiple"`
	EnterpriseValue     int64   `json:"enterpriseValue"`
	EstimatedTaxOnSale  int64   `json:"estimatedTaxOnSale"`
	OutstandingDebt     int64   `json:"outstandingDebt"`
	NetAfterTaxProceeds int64   `json:"netAfterTaxProceeds"`
	TotalReturnMultiple float64 `json:"totalReturnMultiple"`
}

// IdentityCheckResult records one self-verification. A failed check is data,
// not an error.
type IdentityCheckResult struct {
	Name      string `json:"name"`
	Expected  int64  `json:"expected"`
	Actual    int64  `json:"actual"`
	Tolerance int64  `json:"tolerance"`
	Passed    bool   `json:"passed"`
}

// EngineOutput is the full result of one projection.
type EngineOutput struct {
	StartupTotals      StartupTotals                       `json:"startupTotals"`
	Financing          FinancingSummary                    `json:"financing"`
	MonthlyProjections [ProjectionMonths]MonthlyProjection `json:"monthlyProjections"`
	AnnualSummaries    [ProjectionYears]AnnualSummary      `json:"annualSummaries"`
	ROIMetrics         ROIMetrics                          `json:"roiMetrics"`
	ROIC               [ProjectionYears]ROICYear           `json:"roic"`
	Valuation          [ProjectionYears]ValuationYear      `json:"valuation"`
	IdentityChecks     []IdentityCheckResult               `json:"identityChecks"`
}

// FailedChecks returns the identity checks that did not pass.
func (o *EngineOutput) FailedChecks() []IdentityCheckResult {
	var failed []IdentityCheckResult
	for _, check := range o.IdentityChecks {
		if !check.Passed {
			failed = append(failed, check)
		}
	}
	return failed
}

// AllChecksPassed reports whether every identity check passed.
func (o *EngineOutput) AllChecksPassed() bool {
	return len(o.FailedChecks()) == 0
}
