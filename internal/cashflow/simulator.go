// Package cashflow simulates staged deal proceeds (upfront, escrow, earn-out)
// over a lock-in horizon and discounts them to present value under
// guaranteed, expected and best cases.
package cashflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/exit-valuation/internal/valuation"
	"github.com/iwvelando/exit-valuation/pkg/format"
	"github.com/iwvelando/exit-valuation/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Thresholds for the global risk flags.
const (
	HighDiscountRate          = 0.15
	LowUpfrontPct             = 30.0
	LowEscrowProbability      = 0.70
	DefaultEscrowProbability  = 0.90
	DefaultEarnoutProbability = 0.60
)

// PayoutStructure splits proceeds into upfront, escrow and earn-out shares in
// percent. The three must sum to 100.
type PayoutStructure struct {
	UpfrontPct float64 `json:"upfrontPct" yaml:"upfrontPct"`
	EscrowPct  float64 `json:"escrowPct" yaml:"escrowPct"`
	EarnoutPct float64 `json:"earnoutPct" yaml:"earnoutPct"`
}

// Input is one simulation request. DiscountRate and probabilities are
// fractions; sale percentages and payout shares are in [0,100].
type Input struct {
	EquityValueBasis int64           `json:"equityValueBasis" yaml:"equityValueBasis"`
	LockInYears      int             `json:"lockInYears" yaml:"lockInYears"`
	EquityScenarios  []float64       `json:"equityScenarios" yaml:"equityScenarios"`
	Payout           PayoutStructure `json:"payout" yaml:"payout"`
	DiscountRate     float64         `json:"discountRate" yaml:"discountRate"`
	Escrow           ScheduleConfig  `json:"escrow" yaml:"escrow"`
	Earnout          ScheduleConfig  `json:"earnout" yaml:"earnout"`
}

// Case is one probability view of a scenario.
type Case struct {
	Cashflows    []int64 `json:"cashflows" yaml:"cashflows"`
	TotalNominal int64   `json:"totalNominal" yaml:"totalNominal"`
	PresentValue int64   `json:"presentValue" yaml:"presentValue"`
	Immediate    int64   `json:"immediate" yaml:"immediate"`
	FinalYear    int64   `json:"finalYear" yaml:"finalYear"`
	PVRatio      float64 `json:"pvRatio" yaml:"pvRatio"`
}

// ScenarioResult holds the three cases for one equity-sale percentage.
type ScenarioResult struct {
	EquitySalePct float64  `json:"equitySalePct" yaml:"equitySalePct"`
	TotalProceeds int64    `json:"totalProceeds" yaml:"totalProceeds"`
	Guaranteed    Case     `json:"guaranteed" yaml:"guaranteed"`
	Expected      Case     `json:"expected" yaml:"expected"`
	Best          Case     `json:"best" yaml:"best"`
	Warnings      []string `json:"warnings" yaml:"warnings"`
}

// Step2Result is the simulator output.
type Step2Result struct {
	EquityValueBasis int64            `json:"equityValueBasis" yaml:"equityValueBasis"`
	LockInYears      int              `json:"lockInYears" yaml:"lockInYears"`
	DiscountRate     float64          `json:"discountRate" yaml:"discountRate"`
	Payout           PayoutStructure  `json:"payout" yaml:"payout"`
	EscrowSchedule   []Payment        `json:"escrowSchedule" yaml:"escrowSchedule"`
	EarnoutSchedule  []Payment        `json:"earnoutSchedule" yaml:"earnoutSchedule"`
	Scenarios        []ScenarioResult `json:"scenarios" yaml:"scenarios"`
	Warnings         []string         `json:"warnings" yaml:"warnings"`
	Explanation      string           `json:"explanation" yaml:"explanation"`
}

// Assumptions are the default achievement probabilities used when a schedule
// does not state its own.
type Assumptions struct {
	EscrowProbability  float64 `json:"escrowProbability" yaml:"escrowProbability" mapstructure:"escrowProbability"`
	EarnoutProbability float64 `json:"earnoutProbability" yaml:"earnoutProbability" mapstructure:"earnoutProbability"`
}

// DefaultAssumptions returns escrow 90% and earn-out 60%.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		EscrowProbability:  DefaultEscrowProbability,
		EarnoutProbability: DefaultEarnoutProbability,
	}
}

// Normalize fills zero values with defaults.
func (a *Assumptions) Normalize() {
	if a.EscrowProbability == 0 {
		a.EscrowProbability = DefaultEscrowProbability
	}
	if a.EarnoutProbability == 0 {
		a.EarnoutProbability = DefaultEarnoutProbability
	}
}

// Validate checks that both probabilities are fractions.
func (a Assumptions) Validate() error {
	var errs []error
	if a.EscrowProbability < 0 || a.EscrowProbability > 1 {
		errs = append(errs, fmt.Errorf("escrowProbability must be in [0,1], got %v", a.EscrowProbability))
	}
	if a.EarnoutProbability < 0 || a.EarnoutProbability > 1 {
		errs = append(errs, fmt.Errorf("earnoutProbability must be in [0,1], got %v", a.EarnoutProbability))
	}
	return errors.Join(errs...)
}

// Simulator runs simulations with a fixed set of default probabilities.
type Simulator struct {
	assumptions Assumptions
}

// NewSimulator returns a simulator using the given defaults.
func NewSimulator(a Assumptions) (*Simulator, error) {
	a.Normalize()
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cashflow assumptions: %w", err)
	}
	return &Simulator{assumptions: a}, nil
}

// Simulate runs in with the default assumptions.
func Simulate(in Input) Step2Result {
	return simulate(in, DefaultAssumptions())
}

// Simulate runs in. Inputs are expected to have passed boundary validation;
// the result is always complete and problems surface as warnings.
func (s *Simulator) Simulate(in Input) Step2Result {
	return simulate(in, s.assumptions)
}

func simulate(in Input, a Assumptions) Step2Result {
	lockIn := in.LockInYears
	if lockIn < 1 {
		lockIn = 1
	}

	res := Step2Result{
		EquityValueBasis: in.EquityValueBasis,
		LockInYears:      lockIn,
		DiscountRate:     in.DiscountRate,
		Payout:           in.Payout,
		Scenarios:        make([]ScenarioResult, 0, len(in.EquityScenarios)),
		Warnings:         make([]string, 0),
	}

	escrow, w := resolveSchedule("escrow", in.Escrow, in.Payout.EscrowPct, lockIn, a.EscrowProbability)
	res.Warnings = append(res.Warnings, w...)
	earnout, w := resolveSchedule("earn-out", in.Earnout, in.Payout.EarnoutPct, lockIn, a.EarnoutProbability)
	res.Warnings = append(res.Warnings, w...)
	res.EscrowSchedule = escrow
	res.EarnoutSchedule = earnout

	res.Warnings = append(res.Warnings, globalWarnings(in, escrow)...)

	for _, pct := range in.EquityScenarios {
		res.Scenarios = append(res.Scenarios, simulateScenario(in, lockIn, pct, escrow, earnout))
	}

	res.Explanation = explain(res)
	return res
}

func simulateScenario(in Input, lockIn int, pct float64, escrow, earnout []Payment) ScenarioResult {
	proceeds := mathutil.ApplyPercentageWon(in.EquityValueBasis, pct)
	upfront := mathutil.ApplyPercentageWon(proceeds, in.Payout.UpfrontPct)

	guaranteed := make([]int64, lockIn+1)
	expected := make([]int64, lockIn+1)
	best := make([]int64, lockIn+1)
	guaranteed[0], expected[0], best[0] = upfront, upfront, upfront

	addComponent := func(payments []Payment, amounts []int64) {
		for i, p := range payments {
			best[p.Year] += amounts[i]
			expected[p.Year] += mathutil.MulWon(amounts[i], p.Probability)
		}
	}
	addComponent(escrow, allocate(proceeds, escrow, in.Payout.EscrowPct, in.Escrow.Type != ScheduleCustom))
	addComponent(earnout, allocate(proceeds, earnout, in.Payout.EarnoutPct, in.Earnout.Type != ScheduleCustom))

	sr := ScenarioResult{
		EquitySalePct: pct,
		TotalProceeds: proceeds,
		Guaranteed:    buildCase(guaranteed, in.DiscountRate),
		Expected:      buildCase(expected, in.DiscountRate),
		Best:          buildCase(best, in.DiscountRate),
		Warnings:      make([]string, 0),
	}

	if sr.Guaranteed.PresentValue > sr.Expected.PresentValue {
		sr.Warnings = append(sr.Warnings, fmt.Sprintf("%.0f%% sale: guaranteed PV %s exceeds expected PV %s",
			pct, format.Currency(sr.Guaranteed.PresentValue), format.Currency(sr.Expected.PresentValue)))
	}
	if sr.Expected.PresentValue > sr.Best.PresentValue {
		sr.Warnings = append(sr.Warnings, fmt.Sprintf("%.0f%% sale: expected PV %s exceeds best-case PV %s; check schedule probabilities",
			pct, format.Currency(sr.Expected.PresentValue), format.Currency(sr.Best.PresentValue)))
	}
	return sr
}

func buildCase(cashflows []int64, rate float64) Case {
	var total int64
	for _, cf := range cashflows {
		total += cf
	}
	pv := PresentValue(cashflows, rate)
	return Case{
		Cashflows:    cashflows,
		TotalNominal: total,
		PresentValue: pv,
		Immediate:    cashflows[0],
		FinalYear:    cashflows[len(cashflows)-1],
		PVRatio:      mathutil.Round4(mathutil.Ratio(pv, total)),
	}
}

// PresentValue discounts cashflows[t] by (1+rate)^t and rounds the sum to
// whole won.
func PresentValue(cashflows []int64, rate float64) int64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(rate))
	sum := decimal.Zero
	for t, cf := range cashflows {
		if cf == 0 {
			continue
		}
		sum = sum.Add(decimal.NewFromInt(cf).Div(factor.Pow(decimal.NewFromInt(int64(t)))))
	}
	return mathutil.Won(sum)
}

func globalWarnings(in Input, escrow []Payment) []string {
	var warnings []string
	if in.DiscountRate > HighDiscountRate {
		warnings = append(warnings, fmt.Sprintf("discount rate %s is above %s; deferred payments lose much of their present value",
			format.Percent(in.DiscountRate*100), format.Percent(HighDiscountRate*100)))
	}
	if in.Payout.UpfrontPct < LowUpfrontPct {
		warnings = append(warnings, fmt.Sprintf("upfront share %s is below %s; most proceeds depend on later payments",
			format.Percent(in.Payout.UpfrontPct), format.Percent(LowUpfrontPct)))
	}
	if in.Payout.EscrowPct > 0 {
		for _, p := range escrow {
			if p.Probability < LowEscrowProbability {
				warnings = append(warnings, fmt.Sprintf("escrow release probability %s is below %s; escrow may not be paid out",
					format.Percent(p.Probability*100), format.Percent(LowEscrowProbability*100)))
				break
			}
		}
	}
	if !mathutil.SumsTo100(in.Payout.UpfrontPct, in.Payout.EscrowPct, in.Payout.EarnoutPct) {
		warnings = append(warnings, fmt.Sprintf("payout structure sums to %.2f%%, not 100%%",
			in.Payout.UpfrontPct+in.Payout.EscrowPct+in.Payout.EarnoutPct))
	}
	return warnings
}

func explain(r Step2Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Equity value basis %s over a %d-year lock-in, discounted at %s. ",
		format.Currency(r.EquityValueBasis), r.LockInYears, format.Percent(r.DiscountRate*100))
	fmt.Fprintf(&b, "Payout mix: %s upfront at closing, %s escrow%s, %s earn-out%s. ",
		format.Percent(r.Payout.UpfrontPct),
		format.Percent(r.Payout.EscrowPct), describeSchedule(r.EscrowSchedule),
		format.Percent(r.Payout.EarnoutPct), describeSchedule(r.EarnoutSchedule))
	b.WriteString("Guaranteed counts only the upfront payment; expected weights each deferred payment by its probability; best assumes every deferred payment lands in full.")
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, " Risk flags: %s.", strings.Join(r.Warnings, "; "))
	}
	return b.String()
}

func describeSchedule(payments []Payment) string {
	if len(payments) == 0 {
		return ""
	}
	years := make([]string, 0, len(payments))
	for _, p := range payments {
		years = append(years, fmt.Sprintf("Y%d@%s", p.Year, format.Percent(p.Probability*100)))
	}
	return " (" + strings.Join(years, ", ") + ")"
}

// Basis picks which point of the equity value range feeds the simulation.
type Basis string

const (
	BasisLow    Basis = "low"
	BasisMedian Basis = "median"
	BasisHigh   Basis = "high"
)

// ErrNotEvaluable is returned when a valuation has no equity range to draw
// a basis from.
var ErrNotEvaluable = errors.New("valuation is not evaluable")

// BasisFromValuation returns the equity value at the requested point of the
// range. Median is the midpoint of the equity range.
func BasisFromValuation(v valuation.Result, b Basis) (int64, error) {
	if !v.Evaluable {
		return 0, ErrNotEvaluable
	}
	switch b {
	case BasisLow:
		return v.EquityValue.Low, nil
	case BasisHigh:
		return v.EquityValue.High, nil
	case BasisMedian, "":
		return v.EquityValue.Mid(), nil
	}
	return 0, fmt.Errorf("unknown equity basis %q", b)
}
