// Package validation checks projection inputs and options at the boundary,
// before anything reaches the engine.
package validation

import (
	"slices"
	"strings"

	"github.com/iwvelando/franchise-forecast/pkg/constants"
	"github.com/rotisserie/eris"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if !slices.Contains(constants.OutputFormats, format) {
		return eris.Errorf("expected output format of %s, got %s",
			strings.Join(constants.OutputFormats, ", "), format)
	}
	return nil
}
