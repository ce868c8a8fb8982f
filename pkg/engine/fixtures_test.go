package engine

// quickServiceInput is a quick-service brand: $322,401 annualized AUV, a
// 14-month ramp, $256,507 total investment financed at 10.5% over 144 months.
func quickServiceInput() EngineInput {
	return EngineInput{
		FinancialInputs: FinancialInputs{
			Revenue: RevenueInputs{
				AnnualGrossSales:    32_240_100,
				MonthsToReachAUV:    14,
				StartingMonthAUVPct: 0.08,
				GrowthRates:         YearlyRates{0.13, 0.13, 0.10, 0.08, 0.08},
			},
			OperatingCosts: OperatingCostInputs{
				COGSPct:                  FlatRates(0.30),
				LaborPct:                 FlatRates(0.25),
				RoyaltyPct:               FlatRates(0.05),
				AdFundPct:                FlatRates(0.02),
				MarketingPct:             FlatRates(0.01),
				OtherOpexPct:             FlatRates(0.03),
				PayrollTaxPct:            FlatRates(0.12),
				FacilitiesAnnual:         YearlyCents{7_800_000, 8_034_000, 8_275_020, 8_523_271, 8_778_969},
				ManagementSalariesAnnual: FlatCents(4_500_000),
			},
			Financing: FinancingInputs{
				TotalInvestment: 25_650_700,
				EquityPct:       1 - 20_000_000.0/25_650_700.0,
				InterestRate:    0.105,
				TermMonths:      144,
			},
			Startup: StartupInputs{DepreciationRate: 0.2},
			WorkingCapitalAssumptions: WorkingCapitalAssumptions{
				ARDays:        1,
				APDays:        14,
				InventoryDays: 7,
			},
			Distributions: YearlyCents{0, 0, 2_000_000, 3_000_000, 4_000_000},
			TaxRate:       0.25,
			Valuation: ValuationInputs{
				EBITDAMultiple:              3.5,
				SweatEquity:                 5_000_000,
				ShareholderSalaryAdjustment: FlatCents(4_500_000),
			},
		},
		StartupCosts: []StartupCostLineItem{
			{Name: "Leasehold improvements", Amount: 12_000_000, CapexClassification: ClassificationCapex, SortOrder: 1},
			{Name: "Kitchen equipment", Amount: 5_850_000, CapexClassification: ClassificationCapex, SortOrder: 2},
			{Name: "Initial franchise fee", Amount: 4_500_000, CapexClassification: ClassificationNonCapex, SortOrder: 3},
			{Name: "Training travel", Amount: 300_700, CapexClassification: ClassificationNonCapex, SortOrder: 4},
			{Name: "Additional funds", Amount: 3_000_000, CapexClassification: ClassificationWorkingCapital, SortOrder: 5},
		},
	}
}

// fitnessStudioInput differs structurally: short ramp from a high start,
// 50% equity, a 60-month loan, seven-year depreciation, and flat distributions.
func fitnessStudioInput() EngineInput {
	return EngineInput{
		FinancialInputs: FinancialInputs{
			Revenue: RevenueInputs{
				AnnualGrossSales:    95_000_000,
				MonthsToReachAUV:    6,
				StartingMonthAUVPct: 0.35,
				GrowthRates:         YearlyRates{0.05, 0.04, 0.03, 0.03, 0.02},
			},
			OperatingCosts: OperatingCostInputs{
				COGSPct:                  FlatRates(0.28),
				LaborPct:                 FlatRates(0.22),
				RoyaltyPct:               FlatRates(0.06),
				AdFundPct:                FlatRates(0.03),
				MarketingPct:             FlatRates(0.02),
				OtherOpexPct:             FlatRates(0.04),
				PayrollTaxPct:            FlatRates(0.10),
				FacilitiesAnnual:         FlatCents(9_600_000),
				ManagementSalariesAnnual: FlatCents(6_000_000),
			},
			Financing: FinancingInputs{
				TotalInvestment: 60_000_000,
				EquityPct:       0.5,
				InterestRate:    0.08,
				TermMonths:      60,
			},
			Startup: StartupInputs{DepreciationRate: 1.0 / 7},
			WorkingCapitalAssumptions: WorkingCapitalAssumptions{
				ARDays:        3,
				APDays:        20,
				InventoryDays: 12,
			},
			Distributions: FlatCents(5_000_000),
			TaxRate:       0.21,
			Valuation: ValuationInputs{
				EBITDAMultiple: 4,
			},
		},
		StartupCosts: []StartupCostLineItem{
			{Name: "Build-out", Amount: 40_000_000, CapexClassification: ClassificationCapex},
			{Name: "Franchise fee", Amount: 12_000_000, CapexClassification: ClassificationNonCapex},
			{Name: "Working capital", Amount: 8_000_000, CapexClassification: ClassificationWorkingCapital},
		},
	}
}
