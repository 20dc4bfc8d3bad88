package cashflow

import (
	"fmt"

	"github.com/iwvelando/exit-valuation/pkg/constants"
	"github.com/iwvelando/exit-valuation/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// ScheduleType selects how a deferred component is spread over the lock-in.
type ScheduleType string

const (
	// ScheduleLumpSumEnd pays the whole component in the final lock-in year.
	ScheduleLumpSumEnd ScheduleType = "lump_sum_end"
	// ScheduleEqualAnnual splits the component evenly over years 1..lock-in.
	ScheduleEqualAnnual ScheduleType = "equal_annual"
	// ScheduleCustom uses caller supplied items.
	ScheduleCustom ScheduleType = "custom"
)

// Valid reports whether t is a known schedule type. Empty is not valid.
func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleLumpSumEnd, ScheduleEqualAnnual, ScheduleCustom:
		return true
	}
	return false
}

// ScheduleItem is one payment of a custom schedule. PercentOfTotal is a share
// of total proceeds in [0,100]; Probability is a fraction in [0,1] and falls
// back to the schedule probability when nil.
type ScheduleItem struct {
	Year           int      `json:"year" yaml:"year"`
	PercentOfTotal float64  `json:"percentOfTotal" yaml:"percentOfTotal"`
	Probability    *float64 `json:"probability,omitempty" yaml:"probability,omitempty"`
}

// ScheduleConfig describes one deferred component (escrow or earn-out).
type ScheduleConfig struct {
	Type        ScheduleType   `json:"type" yaml:"type"`
	Probability *float64       `json:"probability,omitempty" yaml:"probability,omitempty"`
	Items       []ScheduleItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// Payment is a resolved schedule entry.
type Payment struct {
	Year           int     `json:"year" yaml:"year"`
	PercentOfTotal float64 `json:"percentOfTotal" yaml:"percentOfTotal"`
	Probability    float64 `json:"probability" yaml:"probability"`
}

// resolveSchedule expands cfg into concrete payments for a component worth
// componentPct of proceeds. Problems are returned as warnings.
func resolveSchedule(name string, cfg ScheduleConfig, componentPct float64, lockIn int, defaultProb float64) ([]Payment, []string) {
	var warnings []string
	if componentPct <= 0 && cfg.Type != ScheduleCustom {
		return nil, nil
	}

	prob := defaultProb
	if cfg.Probability != nil {
		prob = *cfg.Probability
	}

	switch cfg.Type {
	case ScheduleEqualAnnual:
		payments := make([]Payment, 0, lockIn)
		share := componentPct / float64(lockIn)
		for year := 1; year <= lockIn; year++ {
			payments = append(payments, Payment{Year: year, PercentOfTotal: share, Probability: prob})
		}
		return payments, nil

	case ScheduleCustom:
		payments := make([]Payment, 0, len(cfg.Items))
		total := 0.0
		for _, item := range cfg.Items {
			if item.Year < 1 || item.Year > lockIn {
				warnings = append(warnings, fmt.Sprintf("%s schedule item for year %d lies outside the %d-year lock-in and was ignored",
					name, item.Year, lockIn))
				continue
			}
			p := prob
			if item.Probability != nil {
				p = *item.Probability
			}
			payments = append(payments, Payment{Year: item.Year, PercentOfTotal: item.PercentOfTotal, Probability: p})
			total += item.PercentOfTotal
		}
		if !mathutil.WithinTolerance(total, componentPct, constants.PercentSumTolerance) {
			warnings = append(warnings, fmt.Sprintf("%s schedule items total %.2f%% but the payout structure allots %.2f%%",
				name, total, componentPct))
		}
		return payments, warnings

	default:
		return []Payment{{Year: lockIn, PercentOfTotal: componentPct, Probability: prob}}, nil
	}
}

// allocate converts payments to whole-won amounts of proceeds. Built-in
// schedules put the rounding remainder on the last payment so the component
// total is exact.
func allocate(proceeds int64, payments []Payment, componentPct float64, exact bool) []int64 {
	amounts := make([]int64, len(payments))
	if len(payments) == 0 {
		return amounts
	}
	base := decimal.NewFromInt(proceeds)
	hundred := decimal.NewFromFloat(constants.PercentageMultiplier)

	var allocated int64
	for i, p := range payments {
		amounts[i] = mathutil.Won(base.Mul(decimal.NewFromFloat(p.PercentOfTotal)).Div(hundred))
		allocated += amounts[i]
	}
	if exact {
		component := mathutil.Won(base.Mul(decimal.NewFromFloat(componentPct)).Div(hundred))
		amounts[len(amounts)-1] += component - allocated
	}
	return amounts
}
