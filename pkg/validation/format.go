// Package validation provides the input boundary checks run before the
// engine is invoked.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/exit-valuation/pkg/constants"
)

var outputFormats = []string{
	constants.OutputFormatPretty,
	constants.OutputFormatJSON,
	constants.OutputFormatYAML,
	constants.OutputFormatCSV,
}

var modes = []string{
	constants.ModeValuation,
	constants.ModeCashflow,
	constants.ModeDeals,
	constants.ModeAll,
}

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	return oneOf("output format", format, outputFormats)
}

// ValidateMode checks if the evaluation mode is one of the supported modes.
func ValidateMode(mode string) error {
	return oneOf("mode", mode, modes)
}

func oneOf(what, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("expected %s of %s, got %q", what, strings.Join(allowed, ", "), value)
}
