package deal

import (
	"strings"
	"time"

	"github.com/iwvelando/exit-valuation/pkg/datetime"
	"github.com/iwvelando/exit-valuation/pkg/mathutil"
)

// Assumptions are the archetype ratios (fractions of the equity median).
// Each archetype uses its own subset; unused ratios stay zero.
type Assumptions struct {
	SaleRatio              float64 `json:"saleRatio,omitempty" yaml:"saleRatio,omitempty"`
	UpfrontRatio           float64 `json:"upfrontRatio,omitempty" yaml:"upfrontRatio,omitempty"`
	EscrowRatio            float64 `json:"escrowRatio,omitempty" yaml:"escrowRatio,omitempty"`
	RolloverRatio          float64 `json:"rolloverRatio,omitempty" yaml:"rolloverRatio,omitempty"`
	EarnoutRatio           float64 `json:"earnoutRatio,omitempty" yaml:"earnoutRatio,omitempty"`
	EarnoutProbability     float64 `json:"earnoutProbability,omitempty" yaml:"earnoutProbability,omitempty"`
	CashRatio              float64 `json:"cashRatio,omitempty" yaml:"cashRatio,omitempty"`
	StockRatio             float64 `json:"stockRatio,omitempty" yaml:"stockRatio,omitempty"`
	AssetContributionRatio float64 `json:"assetContributionRatio,omitempty" yaml:"assetContributionRatio,omitempty"`
	PrimaryIssueRatio      float64 `json:"primaryIssueRatio,omitempty" yaml:"primaryIssueRatio,omitempty"`
	BaseRisk               int     `json:"baseRisk" yaml:"baseRisk"`
}

// Default cost assumptions in percent.
const (
	DefaultEscrowPct             = 10.0
	DefaultEarnoutProbabilityPct = 60.0
	DefaultRolloverSalePct       = 60.0
)

// Eligibility thresholds.
const (
	EarnoutGrowthThresholdPct = 10.0
	StockWaitMonths           = 12
)

// Cap table warning thresholds in percent.
const (
	MinFounderSharePct  = 10.0
	MaxInvestorSharePct = 70.0
	MaxOptionPoolPct    = 20.0
)

var archetypeAssumptions = map[Code]Assumptions{
	AllCashControl:      {SaleRatio: 1.0, BaseRisk: 1},
	PartialExitRollover: {SaleRatio: DefaultRolloverSalePct / 100, RolloverRatio: 1 - DefaultRolloverSalePct/100, PrimaryIssueRatio: 0.3, BaseRisk: 2},
	PerformanceEarnout:  {SaleRatio: 1.0, UpfrontRatio: 0.7, EarnoutRatio: 0.3, BaseRisk: 3},
	CashAndStock:        {SaleRatio: 1.0, CashRatio: 0.6, StockRatio: 0.4, BaseRisk: 3},
	AssetDeal:           {AssetContributionRatio: 0.8, BaseRisk: 2},
}

// AssumptionsFor returns a copy of the archetype's built-in assumptions.
func AssumptionsFor(code Code) Assumptions {
	return archetypeAssumptions[code]
}

var (
	growthKeywords = []string{"growth", "synergy", "expansion", "성장", "시너지", "확장"}
	assetKeywords  = []string{"business unit", "사업부", "synergy", "시너지", "carve-out", "carve out", "영업양수도"}
)

// Facts are the resolved inputs every evaluator reads.
type Facts struct {
	Input                 Input
	Median                int64
	EscrowPct             float64
	EarnoutProbabilityPct float64
	// MonthsToExit is set only when an expected exit month was given.
	MonthsToExit    int
	HasExitDate     bool
	GrowthKeyword   string
	AssetKeyword    string
	ProfileProvided bool
}

// NewFacts resolves defaults and derived signals from in. asOf is used when
// in.AsOf is empty.
func NewFacts(in Input, asOf time.Time) (Facts, []string) {
	var warnings []string
	f := Facts{
		Input:                 in,
		Median:                in.EquityLow + (in.EquityHigh-in.EquityLow)/2,
		EscrowPct:             DefaultEscrowPct,
		EarnoutProbabilityPct: DefaultEarnoutProbabilityPct,
		ProfileProvided:       strings.TrimSpace(in.CompanyProfile) != "",
	}
	if in.EquityMedian != nil {
		f.Median = *in.EquityMedian
	}
	if in.Costs.EscrowPct != nil {
		f.EscrowPct = mathutil.Clamp(*in.Costs.EscrowPct, 0, 100)
	}
	if in.Costs.EarnoutProbabilityPct != nil {
		f.EarnoutProbabilityPct = mathutil.Clamp(*in.Costs.EarnoutProbabilityPct, 0, 100)
	}

	if strings.TrimSpace(in.ExpectedExit) != "" {
		start := in.AsOf
		if strings.TrimSpace(start) == "" {
			start = datetime.MonthOf(asOf)
		}
		months, err := datetime.MonthsBetween(start, in.ExpectedExit)
		if err != nil {
			warnings = append(warnings, "expected exit date ignored: "+err.Error())
		} else {
			f.MonthsToExit = months
			f.HasExitDate = true
			if months < 0 {
				warnings = append(warnings, "expected exit month "+in.ExpectedExit+" is before "+start)
			}
		}
	}

	profile := strings.ToLower(in.CompanyProfile)
	f.GrowthKeyword = firstKeyword(profile, growthKeywords)
	f.AssetKeyword = firstKeyword(profile, assetKeywords)
	return f, warnings
}

func firstKeyword(text string, keywords []string) string {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return k
		}
	}
	return ""
}
