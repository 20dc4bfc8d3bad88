// Package valuation implements the relative (EV/EBITDA multiple) valuation of
// a small or medium enterprise.
package valuation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iwvelando/exit-valuation/pkg/format"
	"github.com/iwvelando/exit-valuation/pkg/mathutil"
)

// EBITDAType tags whether the earnings figure is EBITDA or operating income.
type EBITDAType string

const (
	EBITDATypeEBITDA          EBITDAType = "ebitda"
	EBITDATypeOperatingIncome EBITDAType = "operating_income"
)

// Profile is the financial profile of the company being valued. Money is in
// whole won.
type Profile struct {
	IndustryCode     string        `json:"industryCode,omitempty" yaml:"industryCode,omitempty"`
	IndustryGroup    IndustryGroup `json:"industryGroup,omitempty" yaml:"industryGroup,omitempty"`
	FoundedYear      int           `json:"foundedYear" yaml:"foundedYear"`
	EmployeeBand     EmployeeBand  `json:"employeeBand" yaml:"employeeBand"`
	Revenue          int64         `json:"revenue" yaml:"revenue"`
	EBITDA           int64         `json:"ebitda" yaml:"ebitda"`
	EBITDAType       EBITDAType    `json:"ebitdaType,omitempty" yaml:"ebitdaType,omitempty"`
	NetIncome        int64         `json:"netIncome" yaml:"netIncome"`
	RevenueGrowthPct float64       `json:"revenueGrowthPct" yaml:"revenueGrowthPct"`
	TotalDebt        int64         `json:"totalDebt" yaml:"totalDebt"`
	Cash             int64         `json:"cash" yaml:"cash"`
	// AsOfYear is the valuation year used for company age. Zero means the
	// calculator's clock decides.
	AsOfYear int `json:"asOfYear,omitempty" yaml:"asOfYear,omitempty"`
}

// Severity classifies a validation finding.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Warning codes.
const (
	CodeEBITDAMarginHigh       = "EBITDA_MARGIN_HIGH"
	CodeNetIncomeMarginHigh    = "NET_INCOME_MARGIN_HIGH"
	CodeNetIncomeExceedsEBITDA = "NET_INCOME_EXCEEDS_EBITDA"
	CodeFoundedYearFuture      = "FOUNDED_YEAR_FUTURE"
	CodeFoundedYearMissing     = "FOUNDED_YEAR_MISSING"
	CodeGrowthOutOfRange       = "GROWTH_OUT_OF_RANGE"
	CodeEquityFloored          = "EQUITY_FLOORED"
	CodeNotEvaluable           = "NOT_EVALUABLE"
)

// Warning is a non-blocking finding attached to a result.
type Warning struct {
	Code     string   `json:"code" yaml:"code"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// Range is a low/high pair of won amounts.
type Range struct {
	Low  int64 `json:"low" yaml:"low"`
	High int64 `json:"high" yaml:"high"`
}

// Mid returns the midpoint of the range.
func (r Range) Mid() int64 {
	return r.Low + (r.High-r.Low)/2
}

// WonTriple is a low/median/high set of won amounts.
type WonTriple struct {
	Low    int64 `json:"low" yaml:"low"`
	Median int64 `json:"median" yaml:"median"`
	High   int64 `json:"high" yaml:"high"`
}

// Result is the full, never-hidden output of one evaluation.
type Result struct {
	IndustryGroup       IndustryGroup `json:"industryGroup" yaml:"industryGroup"`
	IndustryLabel       string        `json:"industryLabel" yaml:"industryLabel"`
	Evaluable           bool          `json:"evaluable" yaml:"evaluable"`
	EBITDA              int64         `json:"ebitda" yaml:"ebitda"`
	EBITDAType          EBITDAType    `json:"ebitdaType" yaml:"ebitdaType"`
	IndustryMultiple    Triple        `json:"industryMultiple" yaml:"industryMultiple"`
	PeerMultiple        Triple        `json:"peerMultiple" yaml:"peerMultiple"`
	FinalMultiple       Triple        `json:"finalMultiple" yaml:"finalMultiple"`
	PeerMarkup          float64       `json:"peerMarkup" yaml:"peerMarkup"`
	IlliquidityDiscount float64       `json:"illiquidityDiscount" yaml:"illiquidityDiscount"`
	IndustryWeight      float64       `json:"industryWeight" yaml:"industryWeight"`
	PeerWeight          float64       `json:"peerWeight" yaml:"peerWeight"`
	Adjustments         Adjustments   `json:"adjustments" yaml:"adjustments"`
	BaseEnterpriseValue WonTriple     `json:"baseEnterpriseValue" yaml:"baseEnterpriseValue"`
	AdjustedMidpoint    int64         `json:"adjustedMidpoint" yaml:"adjustedMidpoint"`
	Spread              float64       `json:"spread" yaml:"spread"`
	EnterpriseValue     Range         `json:"enterpriseValue" yaml:"enterpriseValue"`
	NetDebt             int64         `json:"netDebt" yaml:"netDebt"`
	EquityValue         Range         `json:"equityValue" yaml:"equityValue"`
	Explanation         string        `json:"explanation" yaml:"explanation"`
	Warnings            []Warning     `json:"warnings" yaml:"warnings"`
}

// NonFatalWarnings counts warnings of SeverityWarning.
func (r Result) NonFatalWarnings() int {
	n := 0
	for _, w := range r.Warnings {
		if w.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Calculator evaluates profiles against a multiple table and calibration.
type Calculator struct {
	params Params
	table  MultipleTable
	now    func() time.Time
}

// NewCalculator builds a calculator. Zero-valued params fields take defaults;
// an invalid calibration is rejected.
func NewCalculator(params Params) (*Calculator, error) {
	params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid valuation parameters: %w", err)
	}
	return &Calculator{params: params, table: DefaultMultiples(), now: time.Now}, nil
}

// WithClock returns a copy of the calculator that reads the valuation year
// from now.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	cp := *c
	cp.now = now
	return &cp
}

// Params returns the calibration in use.
func (c *Calculator) Params() Params {
	return c.params
}

// Evaluate values the profile. It never fails: problems become warnings and,
// when EBITDA is not positive, a non-evaluable result.
func (c *Calculator) Evaluate(p Profile) Result {
	year := p.AsOfYear
	if year <= 0 {
		year = c.now().Year()
	}
	return evaluate(p, c.params, c.table, year)
}

// Evaluate values the profile with the default calibration and table.
// AsOfYear must be set on the profile for a deterministic age adjustment.
func Evaluate(p Profile) Result {
	year := p.AsOfYear
	if year <= 0 {
		year = time.Now().Year()
	}
	return evaluate(p, DefaultParams(), defaultMultiples, year)
}

func evaluate(p Profile, params Params, table MultipleTable, year int) Result {
	group := resolveGroup(p)
	ebitdaType := p.EBITDAType
	if ebitdaType == "" {
		ebitdaType = EBITDATypeEBITDA
	}

	res := Result{
		IndustryGroup:       group,
		IndustryLabel:       group.Label(),
		EBITDA:              p.EBITDA,
		EBITDAType:          ebitdaType,
		PeerMarkup:          params.PeerMarkup,
		IlliquidityDiscount: params.IlliquidityDiscount,
		IndustryWeight:      params.IndustryWeight,
		PeerWeight:          params.PeerWeight,
		NetDebt:             p.TotalDebt - p.Cash,
		Warnings:            validateProfile(p, year),
	}

	if p.EBITDA <= 0 {
		res.Evaluable = false
		res.Warnings = append(res.Warnings, Warning{
			Code:     CodeNotEvaluable,
			Severity: SeverityWarning,
			Message:  "EBITDA is zero or negative; the EV/EBITDA method cannot be applied",
		})
		res.Explanation = fmt.Sprintf(
			"%s of %s is not positive, so no EV/EBITDA multiple can be applied to %s (%s). "+
				"A revenue-multiple or asset-based review is needed before a value range can be given.",
			ebitdaLabel(ebitdaType), format.Currency(p.EBITDA), group.Label(), group)
		return res
	}

	res.Evaluable = true
	res.IndustryMultiple = table.Lookup(group)
	res.PeerMultiple, res.FinalMultiple = blend(res.IndustryMultiple, params)
	res.Adjustments = computeAdjustments(p, year)

	res.BaseEnterpriseValue = WonTriple{
		Low:    mathutil.MulWon(p.EBITDA, res.FinalMultiple.Low),
		Median: mathutil.MulWon(p.EBITDA, res.FinalMultiple.Median),
		High:   mathutil.MulWon(p.EBITDA, res.FinalMultiple.High),
	}
	res.AdjustedMidpoint = mathutil.MulWon(res.BaseEnterpriseValue.Median, res.Adjustments.TotalMultiplier)

	res.Spread = params.Spread
	if res.NonFatalWarnings() >= params.WideSpreadWarnings {
		res.Spread = params.WideSpread
	}
	res.EnterpriseValue = Range{
		Low:  mathutil.MulWon(res.AdjustedMidpoint, 1-res.Spread),
		High: mathutil.MulWon(res.AdjustedMidpoint, 1+res.Spread),
	}

	res.EquityValue = Range{
		Low:  mathutil.MaxInt64(0, res.EnterpriseValue.Low-res.NetDebt),
		High: mathutil.MaxInt64(0, res.EnterpriseValue.High-res.NetDebt),
	}
	if res.EnterpriseValue.Low-res.NetDebt < 0 || res.EnterpriseValue.High-res.NetDebt < 0 {
		res.Warnings = append(res.Warnings, Warning{
			Code:     CodeEquityFloored,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("net debt %s exceeds part of the enterprise value range; equity value was floored at 0",
				format.Currency(res.NetDebt)),
		})
	}

	res.Explanation = explain(res)
	return res
}

func validateProfile(p Profile, year int) []Warning {
	warnings := make([]Warning, 0)
	half := float64(p.Revenue) * 0.5

	if math.Abs(float64(p.EBITDA)) > half {
		warnings = append(warnings, Warning{
			Code:     CodeEBITDAMarginHigh,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("EBITDA %s exceeds 50%% of revenue %s; check the figures",
				format.Currency(p.EBITDA), format.Currency(p.Revenue)),
		})
	}
	if math.Abs(float64(p.NetIncome)) > half {
		warnings = append(warnings, Warning{
			Code:     CodeNetIncomeMarginHigh,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("net income %s exceeds 50%% of revenue %s; check the figures",
				format.Currency(p.NetIncome), format.Currency(p.Revenue)),
		})
	}
	if p.NetIncome > p.EBITDA {
		warnings = append(warnings, Warning{
			Code:     CodeNetIncomeExceedsEBITDA,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("net income %s is larger than EBITDA %s; non-operating gains may be included",
				format.Currency(p.NetIncome), format.Currency(p.EBITDA)),
		})
	}
	if p.FoundedYear <= 0 {
		warnings = append(warnings, Warning{
			Code:     CodeFoundedYearMissing,
			Severity: SeverityWarning,
			Message:  "founding year is missing; the most conservative age adjustment was applied",
		})
	} else if p.FoundedYear > year {
		warnings = append(warnings, Warning{
			Code:     CodeFoundedYearFuture,
			Severity: SeverityError,
			Message:  fmt.Sprintf("founding year %d is after the valuation year %d", p.FoundedYear, year),
		})
	}
	if p.RevenueGrowthPct < -100 || p.RevenueGrowthPct > 300 {
		warnings = append(warnings, Warning{
			Code:     CodeGrowthOutOfRange,
			Severity: SeverityError,
			Message:  fmt.Sprintf("revenue growth %.1f%% is outside [-100%%, 300%%]", p.RevenueGrowthPct),
		})
	}
	return warnings
}

func explain(r Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): industry EV/EBITDA %.2fx / %.2fx / %.2fx. ",
		r.IndustryLabel, r.IndustryGroup, r.IndustryMultiple.Low, r.IndustryMultiple.Median, r.IndustryMultiple.High)
	fmt.Fprintf(&b, "Peer proxy = industry × %.2f less a %.0f%% illiquidity discount (%.2fx median), blended %.0f:%.0f → %.2fx / %.2fx / %.2fx. ",
		r.PeerMarkup, r.IlliquidityDiscount*100, r.PeerMultiple.Median,
		r.IndustryWeight*100, r.PeerWeight*100,
		r.FinalMultiple.Low, r.FinalMultiple.Median, r.FinalMultiple.High)
	fmt.Fprintf(&b, "Adjustments: growth %+.0f%% (%s), size %+.0f%% (%s), age %+.0f%% (%s), combined ×%.4f. ",
		r.Adjustments.Growth*100, r.Adjustments.GrowthLabel,
		r.Adjustments.Size*100, r.Adjustments.SizeLabel,
		r.Adjustments.Age*100, r.Adjustments.AgeLabel,
		r.Adjustments.TotalMultiplier)
	fmt.Fprintf(&b, "%s %s × %.2fx × %.4f = %s, range ±%.0f%%: EV %s. ",
		ebitdaLabel(r.EBITDAType), format.Currency(r.EBITDA), r.FinalMultiple.Median, r.Adjustments.TotalMultiplier,
		format.Currency(r.AdjustedMidpoint), r.Spread*100, format.Range(r.EnterpriseValue.Low, r.EnterpriseValue.High))
	if r.NetDebt < 0 {
		fmt.Fprintf(&b, "Net cash %s added: ", format.Currency(-r.NetDebt))
	} else {
		fmt.Fprintf(&b, "Net debt %s deducted: ", format.Currency(r.NetDebt))
	}
	fmt.Fprintf(&b, "equity value %s.", format.Range(r.EquityValue.Low, r.EquityValue.High))
	return b.String()
}

func ebitdaLabel(t EBITDAType) string {
	if t == EBITDATypeOperatingIncome {
		return "Operating income"
	}
	return "EBITDA"
}

func roundFactor(v float64) float64 {
	return mathutil.Round4(v)
}
