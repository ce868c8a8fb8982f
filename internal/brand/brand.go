// Package brand maps a franchise brand's configuration and a plan's edits
// into engine inputs. Brands are denominated in dollars and decimal rates;
// the engine works in cents with one rate per projection year.
package brand

import (
	"os"
	"strings"

	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Parameters are the brand-level seed values. Currency fields are dollars.
type Parameters struct {
	MonthlyAUV          float64   `yaml:"monthlyAuv" json:"monthlyAuv"`
	MonthsToReachAUV    float64   `yaml:"monthsToReachAuv" json:"monthsToReachAuv"`
	StartingMonthAUVPct float64   `yaml:"startingMonthAuvPct" json:"startingMonthAuvPct"`
	GrowthRates         []float64 `yaml:"growthRates" json:"growthRates"`

	COGSPct       float64 `yaml:"cogsPct" json:"cogsPct"`
	LaborPct      float64 `yaml:"laborPct" json:"laborPct"`
	RoyaltyPct    float64 `yaml:"royaltyPct" json:"royaltyPct"`
	AdFundPct     float64 `yaml:"adFundPct" json:"adFundPct"`
	MarketingPct  float64 `yaml:"marketingPct" json:"marketingPct"`
	OtherOpexPct  float64 `yaml:"otherOpexPct" json:"otherOpexPct"`
	PayrollTaxPct float64 `yaml:"payrollTaxPct" json:"payrollTaxPct"`

	RentMonthly              float64 `yaml:"rentMonthly" json:"rentMonthly"`
	ManagementSalariesAnnual float64 `yaml:"managementSalariesAnnual" json:"managementSalariesAnnual"`

	LoanAmount     float64 `yaml:"loanAmount" json:"loanAmount"`
	InterestRate   float64 `yaml:"interestRate" json:"interestRate"`
	LoanTermMonths float64 `yaml:"loanTermMonths" json:"loanTermMonths"`

	DepreciationYears float64 `yaml:"depreciationYears" json:"depreciationYears"`

	ARDays        float64 `yaml:"arDays" json:"arDays"`
	APDays        float64 `yaml:"apDays" json:"apDays"`
	InventoryDays float64 `yaml:"inventoryDays" json:"inventoryDays"`

	DistributionsAnnual float64 `yaml:"distributionsAnnual" json:"distributionsAnnual"`
	TaxRate             float64 `yaml:"taxRate" json:"taxRate"`

	EBITDAMultiple              float64 `yaml:"ebitdaMultiple" json:"ebitdaMultiple"`
	SweatEquity                 float64 `yaml:"sweatEquity" json:"sweatEquity"`
	ShareholderSalaryAdjustment float64 `yaml:"shareholderSalaryAdjustment" json:"shareholderSalaryAdjustment"`
}

// StartupCostTemplate is a brand's disclosed startup cost. Amounts are dollars.
type StartupCostTemplate struct {
	Name           string                     `yaml:"name" json:"name"`
	Amount         float64                    `yaml:"amount" json:"amount"`
	Classification engine.CapexClassification `yaml:"classification" json:"classification"`
	Low            *float64                   `yaml:"low,omitempty" json:"low,omitempty"`
	High           *float64                   `yaml:"high,omitempty" json:"high,omitempty"`
}

// Brand is one franchise system's configuration.
type Brand struct {
	ID           string                `yaml:"id,omitempty" json:"id"`
	Name         string                `yaml:"name" json:"name"`
	Parameters   Parameters            `yaml:"parameters" json:"parameters"`
	StartupCosts []StartupCostTemplate `yaml:"startupCosts" json:"startupCosts"`
}

// Validate checks the structural rules a brand file must satisfy.
func (b *Brand) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return eris.New("brand: name is required")
	}
	switch len(b.Parameters.GrowthRates) {
	case 0, 1, engine.ProjectionYears:
	default:
		return eris.Errorf("brand %s: growthRates must have 1 or %d values, got %d",
			b.Name, engine.ProjectionYears, len(b.Parameters.GrowthRates))
	}
	for i, item := range b.StartupCosts {
		if strings.TrimSpace(item.Name) == "" {
			return eris.Errorf("brand %s: startup cost %d has no name", b.Name, i)
		}
		if !item.Classification.Valid() {
			return eris.Errorf("brand %s: startup cost %q has unknown classification %q",
				b.Name, item.Name, item.Classification)
		}
	}
	return nil
}

// ParseBrand decodes and validates a YAML brand definition.
func ParseBrand(data []byte) (*Brand, error) {
	var b Brand
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, eris.Wrap(err, "brand: decode yaml")
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// LoadBrandFile reads a YAML brand definition from path.
func LoadBrandFile(path string) (*Brand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "brand: read %s", path)
	}
	b, err := ParseBrand(data)
	if err != nil {
		return nil, eris.Wrapf(err, "brand: load %s", path)
	}
	return b, nil
}
