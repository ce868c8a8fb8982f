// Package harness runs what-if scenarios for a brand through the projection
// engine and compares selected outputs against expected values within
// configurable tolerances.
package harness

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/iwvelando/franchise-forecast/internal/brand"
	"github.com/iwvelando/franchise-forecast/pkg/constants"
)

// Kind selects how an expectation is compared.
type Kind string

const (
	// KindCurrency compares whole cents. Expected values are written in dollars.
	KindCurrency Kind = "currency"
	// KindPercentage compares decimal ratios such as 0.125.
	KindPercentage Kind = "percentage"
	// KindMonths compares month counts.
	KindMonths Kind = "months"
)

// Tolerances are the allowed absolute differences per kind.
type Tolerances struct {
	Currency   int64   `yaml:"currency"` // cents
	Percentage float64 `yaml:"percentage"`
	Months     int     `yaml:"months"`
}

// DefaultTolerances returns the tolerances used when a suite sets none.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Currency:   constants.DefaultCurrencyTolerance,
		Percentage: constants.DefaultPercentageTolerance,
		Months:     constants.DefaultMonthsTolerance,
	}
}

// Expectation is one expected output value.
type Expectation struct {
	Metric   string  `yaml:"metric"`
	Expected float64 `yaml:"expected"`
	Kind     Kind    `yaml:"kind,omitempty"`
}

// Scenario applies plan field overrides to the brand defaults and checks the
// resulting projection.
type Scenario struct {
	Name         string             `yaml:"name"`
	Overrides    map[string]float64 `yaml:"overrides,omitempty"`
	Expectations []Expectation      `yaml:"expectations"`
}

// Suite is a set of scenarios against one brand.
type Suite struct {
	Name        string      `yaml:"name"`
	BrandFile   string      `yaml:"brand"`
	Tolerances  *Tolerances `yaml:"tolerances,omitempty"`
	Concurrency int         `yaml:"concurrency,omitempty"`
	Scenarios   []Scenario  `yaml:"scenarios"`

	Brand *brand.Brand `yaml:"-"`
}

// LoadSuite reads a suite file and the brand it references. A relative brand
// path is resolved against the suite file's directory.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "harness: read suite %s", path)
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "harness: decode suite %s", path)
	}
	if s.BrandFile == "" {
		return nil, eris.Errorf("harness: suite %s has no brand file", path)
	}

	brandPath := s.BrandFile
	if !filepath.IsAbs(brandPath) {
		brandPath = filepath.Join(filepath.Dir(path), brandPath)
	}
	s.Brand, err = brand.LoadBrandFile(brandPath)
	if err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every scenario is named and every expectation names a
// known metric and kind.
func (s *Suite) Validate() error {
	if len(s.Scenarios) == 0 {
		return eris.Errorf("harness: suite %q has no scenarios", s.Name)
	}
	seen := make(map[string]bool, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		name := strings.TrimSpace(sc.Name)
		if name == "" {
			return eris.Errorf("harness: scenario %d has no name", i)
		}
		if seen[name] {
			return eris.Errorf("harness: duplicate scenario %q", name)
		}
		seen[name] = true

		for _, exp := range sc.Expectations {
			if _, err := parseMetric(exp.Metric); err != nil {
				return eris.Wrapf(err, "harness: scenario %q", name)
			}
			switch exp.Kind {
			case "", KindCurrency, KindPercentage, KindMonths:
			default:
				return eris.Errorf("harness: scenario %q: unknown kind %q", name, exp.Kind)
			}
		}
	}
	return nil
}

func (s *Suite) tolerances() Tolerances {
	if s.Tolerances == nil {
		return DefaultTolerances()
	}
	return *s.Tolerances
}
