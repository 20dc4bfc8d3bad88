// Package configprocessor provides shared configuration processing utilities.
package configprocessor

import (
	"fmt"

	"github.com/iwvelando/exit-valuation/pkg/constants"
)

// StorageInfo represents storage configuration information
type StorageInfo struct {
	Driver      string
	DatabaseURL string
	RedisAddr   string
	CacheTTL    int
}

// RequestInfo represents which request sections a configuration carries
type RequestInfo struct {
	HasProfile  bool
	HasCashflow bool
	HasDeals    bool
	Basis       string
}

// Processor handles configuration processing and validation
type Processor struct{}

// NewProcessor creates a new configuration processor
func NewProcessor() *Processor {
	return &Processor{}
}

// ValidateConfiguration validates the configuration and returns warnings.
// Nothing here stops a run; hard errors belong to Validate on the config.
func (p *Processor) ValidateConfiguration(mode, outputFormat string, storage StorageInfo, request RequestInfo) []string {
	var warnings []string

	switch mode {
	case constants.ModeCashflow:
		if !request.HasCashflow {
			warnings = append(warnings, "mode 'cashflow' selected but the request has no cashflow section")
		}
	case constants.ModeDeals:
		if !request.HasDeals {
			warnings = append(warnings, "mode 'deals' selected but the request has no deals section")
		}
	case constants.ModeValuation:
		if !request.HasProfile {
			warnings = append(warnings, "mode 'valuation' selected but the request has no profile")
		}
	case constants.ModeAll:
		if !request.HasProfile {
			warnings = append(warnings, "mode 'all' selected but the request has no profile")
		}
		if !request.HasCashflow && !request.HasDeals {
			warnings = append(warnings, "mode 'all' selected but neither cashflow nor deals is configured; only the valuation will run")
		}
	}

	if request.Basis != "" && !request.HasCashflow {
		warnings = append(warnings, fmt.Sprintf("basis '%s' has no effect without a cashflow section", request.Basis))
	}

	if outputFormat == constants.OutputFormatCSV && mode == constants.ModeValuation {
		warnings = append(warnings, "csv output lists cashflows; a valuation-only run prints just the equity range")
	}

	if storage.Driver == constants.StorageDriverMemory && storage.RedisAddr != "" {
		warnings = append(warnings, "redis cache configured in front of the memory store; runs are already in memory")
	}
	if storage.RedisAddr != "" && storage.CacheTTL == 0 {
		warnings = append(warnings, "redis cache TTL is 0; cached runs never expire")
	}
	if storage.Driver == constants.StorageDriverPostgres && storage.DatabaseURL == "" {
		warnings = append(warnings, "postgres storage selected without a database URL")
	}

	if len(warnings) == 0 {
		return nil
	}
	return warnings
}
