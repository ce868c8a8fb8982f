// Package testutil provides common utility functions for testing.
package testutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iwvelando/franchise-forecast/internal/brand"
	"github.com/iwvelando/franchise-forecast/internal/harness"
)

// FindScenario finds a scenario result by name in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindScenario(results []harness.ScenarioResult, name string) *harness.ScenarioResult {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// Testdata returns the path of a file in the repository's shared brand
// fixtures, independent of the calling package's directory.
func Testdata(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "internal", "brand", "testdata", name)
}

// LoadQuickService loads the quick-service brand fixture.
func LoadQuickService(t testing.TB) *brand.Brand {
	t.Helper()
	b, err := brand.LoadBrandFile(Testdata("quick-service.yaml"))
	require.NoError(t, err)
	return b
}

// SuitePath returns the path of the harness what-if suite fixture.
func SuitePath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "internal", "harness", "testdata", "suite.yaml")
}
