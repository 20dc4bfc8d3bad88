// Package deal evaluates five fixed deal-structure archetypes for a founder
// exit, computes founder-level net proceeds for each, scores them and ranks a
// Top-3.
package deal

import "strings"

// Code identifies a deal archetype.
type Code string

const (
	AllCashControl      Code = "ALL_CASH_CONTROL"
	PartialExitRollover Code = "PARTIAL_EXIT_ROLLOVER"
	PerformanceEarnout  Code = "PERFORMANCE_EARNOUT"
	CashAndStock        Code = "CASH_AND_STOCK"
	AssetDeal           Code = "ASSET_DEAL"
)

// Codes is the fixed enumeration order. Ranking ties are broken by it.
var Codes = []Code{
	AllCashControl,
	PartialExitRollover,
	PerformanceEarnout,
	CashAndStock,
	AssetDeal,
}

var codeNames = map[Code]string{
	AllCashControl:      "전액 현금 경영권 매각 (all-cash control sale)",
	PartialExitRollover: "부분 매각 + 지분 롤오버 (partial exit with rollover)",
	PerformanceEarnout:  "성과연동 언아웃 (performance earn-out)",
	CashAndStock:        "현금 + 주식 교환 (cash and stock)",
	AssetDeal:           "사업부 자산 양수도 (asset deal)",
}

// Name returns the display name of the archetype.
func (c Code) Name() string {
	return codeNames[c]
}

func (c Code) index() int {
	for i, code := range Codes {
		if code == c {
			return i
		}
	}
	return len(Codes)
}

// SaleIntent is whether the founder wants to sell everything or keep a stake.
type SaleIntent string

const (
	IntentFull    SaleIntent = "full"
	IntentPartial SaleIntent = "partial"
)

// ParseSaleIntent accepts "full"/"partial" and the Korean "전체"/"일부".
func ParseSaleIntent(value string) (SaleIntent, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "full", "all", "전체", "전부":
		return IntentFull, true
	case "partial", "part", "일부", "부분":
		return IntentPartial, true
	}
	return "", false
}

// EBITDATrend is the three-year EBITDA direction.
type EBITDATrend string

const (
	TrendRising   EBITDATrend = "rising"
	TrendFlat     EBITDATrend = "flat"
	TrendVolatile EBITDATrend = "volatile"
)

// ParseEBITDATrend accepts the English values and common Korean equivalents.
func ParseEBITDATrend(value string) (EBITDATrend, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "rising", "up", "증가", "상승":
		return TrendRising, true
	case "flat", "stable", "유지", "보합":
		return TrendFlat, true
	case "volatile", "변동":
		return TrendVolatile, true
	}
	return "", false
}

// CapTable holds ownership percentages.
type CapTable struct {
	FounderShare  float64 `json:"founderShare" yaml:"founderShare"`
	InvestorShare float64 `json:"investorShare" yaml:"investorShare"`
	OptionPool    float64 `json:"optionPool" yaml:"optionPool"`
}

// Costs are the cost and probability assumptions, all in percent. Nil
// pointers take the defaults (escrow 10%, earn-out achievement 60%). Tax is
// only applied when TaxEnabled is set.
type Costs struct {
	EscrowPct             *float64 `json:"escrowPct,omitempty" yaml:"escrowPct,omitempty"`
	EarnoutProbabilityPct *float64 `json:"earnoutProbabilityPct,omitempty" yaml:"earnoutProbabilityPct,omitempty"`
	AdvisoryFeeRatePct    float64  `json:"advisoryFeeRatePct" yaml:"advisoryFeeRatePct"`
	TaxRatePct            float64  `json:"taxRatePct" yaml:"taxRatePct"`
	TaxEnabled            bool     `json:"taxEnabled" yaml:"taxEnabled"`
}

// Input is one generator request. Money is whole won.
type Input struct {
	EquityLow             int64       `json:"equityLow" yaml:"equityLow"`
	EquityHigh            int64       `json:"equityHigh" yaml:"equityHigh"`
	EquityMedian          *int64      `json:"equityMedian,omitempty" yaml:"equityMedian,omitempty"`
	CapTable              CapTable    `json:"capTable" yaml:"capTable"`
	SaleIntent            SaleIntent  `json:"saleIntent" yaml:"saleIntent"`
	ExpectedExit          string      `json:"expectedExit,omitempty" yaml:"expectedExit,omitempty"`
	AsOf                  string      `json:"asOf,omitempty" yaml:"asOf,omitempty"`
	SecondarySaleRatioPct float64     `json:"secondarySaleRatioPct" yaml:"secondarySaleRatioPct"`
	IssueNewShares        bool        `json:"issueNewShares" yaml:"issueNewShares"`
	RevenueGrowthPct      float64     `json:"revenueGrowthPct" yaml:"revenueGrowthPct"`
	EBITDATrend           EBITDATrend `json:"ebitdaTrend,omitempty" yaml:"ebitdaTrend,omitempty"`
	CompanyProfile        string      `json:"companyProfile,omitempty" yaml:"companyProfile,omitempty"`
	Costs                 Costs       `json:"costs" yaml:"costs"`
}

// Breakdown splits the deal consideration. Total is the sum of the
// founder-relevant components; CorporateCashIn lands in the company instead.
type Breakdown struct {
	ImmediateCash           int64 `json:"immediateCash" yaml:"immediateCash"`
	DeferredCash            int64 `json:"deferredCash" yaml:"deferredCash"`
	ConditionalCashNominal  int64 `json:"conditionalCashNominal" yaml:"conditionalCashNominal"`
	ConditionalCashExpected int64 `json:"conditionalCashExpected" yaml:"conditionalCashExpected"`
	StockValue              int64 `json:"stockValue" yaml:"stockValue"`
	RetainedValue           int64 `json:"retainedValue" yaml:"retainedValue"`
	CorporateCashIn         int64 `json:"corporateCashIn" yaml:"corporateCashIn"`
	Total                   int64 `json:"total" yaml:"total"`
}

// FounderNet is the founder's pro-rata outcome after fees and tax.
type FounderNet struct {
	FounderSharePct float64 `json:"founderSharePct" yaml:"founderSharePct"`
	Gross           int64   `json:"gross" yaml:"gross"`
	Fee             int64   `json:"fee" yaml:"fee"`
	Tax             int64   `json:"tax" yaml:"tax"`
	NetExpected     int64   `json:"netExpected" yaml:"netExpected"`
	TaxApplied      bool    `json:"taxApplied" yaml:"taxApplied"`
}

// Score is the four-axis score. Risk counts against the total.
type Score struct {
	CashNow    int `json:"cashNow" yaml:"cashNow"`
	Upside     int `json:"upside" yaml:"upside"`
	Risk       int `json:"risk" yaml:"risk"`
	FounderFit int `json:"founderFit" yaml:"founderFit"`
	Total      int `json:"total" yaml:"total"`
}

// Scenario is the evaluation of one archetype.
type Scenario struct {
	Code                     Code        `json:"code" yaml:"code"`
	Name                     string      `json:"name" yaml:"name"`
	Eligible                 bool        `json:"eligible" yaml:"eligible"`
	EligibilityReasons       []string    `json:"eligibilityReasons" yaml:"eligibilityReasons"`
	Assumptions              Assumptions `json:"assumptions" yaml:"assumptions"`
	Breakdown                Breakdown   `json:"breakdown" yaml:"breakdown"`
	FounderCashoutCalculable bool        `json:"founderCashoutCalculable" yaml:"founderCashoutCalculable"`
	FounderNet               *FounderNet `json:"founderNet,omitempty" yaml:"founderNet,omitempty"`
	Pros                     []string    `json:"pros" yaml:"pros"`
	Cons                     []string    `json:"cons" yaml:"cons"`
	Explanation              string      `json:"explanation" yaml:"explanation"`
	Score                    Score       `json:"score" yaml:"score"`
	Warnings                 []string    `json:"warnings" yaml:"warnings"`
}

// Output is the generator result. Scenarios are in enumeration order;
// Ranking holds all five codes by descending total score.
type Output struct {
	EquityLow    int64      `json:"equityLow" yaml:"equityLow"`
	EquityHigh   int64      `json:"equityHigh" yaml:"equityHigh"`
	EquityMedian int64      `json:"equityMedian" yaml:"equityMedian"`
	Scenarios    []Scenario `json:"scenarios" yaml:"scenarios"`
	Ranking      []Code     `json:"ranking" yaml:"ranking"`
	Top3         []Code     `json:"top3" yaml:"top3"`
	Warnings     []string   `json:"warnings" yaml:"warnings"`
}

// Scenario returns the scenario for code.
func (o Output) Scenario(code Code) (Scenario, bool) {
	for _, s := range o.Scenarios {
		if s.Code == code {
			return s, true
		}
	}
	return Scenario{}, false
}
