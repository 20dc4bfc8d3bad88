package deal

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 {
	return &v
}

func baseInput() Input {
	return Input{
		EquityLow:  4000000000,
		EquityHigh: 6000000000,
		CapTable:   CapTable{FounderShare: 60, InvestorShare: 30, OptionPool: 10},
		SaleIntent: IntentPartial,
		AsOf:       "2025-06",
		Costs:      Costs{AdvisoryFeeRatePct: 2},
	}
}

func TestPartialIntentEligibility(t *testing.T) {
	out := Generate(baseInput())

	rollover, ok := out.Scenario(PartialExitRollover)
	require.True(t, ok)
	assert.True(t, rollover.Eligible)

	allCash, ok := out.Scenario(AllCashControl)
	require.True(t, ok)
	assert.False(t, allCash.Eligible)
	assert.NotEmpty(t, allCash.EligibilityReasons)

	// ineligible scenarios are still fully computed
	assert.Equal(t, int64(4500000000), allCash.Breakdown.ImmediateCash)
	assert.Equal(t, int64(500000000), allCash.Breakdown.DeferredCash)
	require.NotNil(t, allCash.FounderNet)
}

func TestGenerateBreakdowns(t *testing.T) {
	out := Generate(baseInput())
	assert.Equal(t, int64(5000000000), out.EquityMedian)

	tests := []struct {
		code     Code
		expected Breakdown
	}{
		{AllCashControl, Breakdown{ImmediateCash: 4500000000, DeferredCash: 500000000, Total: 5000000000}},
		{PartialExitRollover, Breakdown{ImmediateCash: 3000000000, RetainedValue: 2000000000, Total: 5000000000}},
		{PerformanceEarnout, Breakdown{
			ImmediateCash:           3500000000,
			ConditionalCashNominal:  1500000000,
			ConditionalCashExpected: 900000000,
			Total:                   4400000000,
		}},
		{CashAndStock, Breakdown{ImmediateCash: 3000000000, StockValue: 2000000000, Total: 5000000000}},
		{AssetDeal, Breakdown{CorporateCashIn: 4000000000, RetainedValue: 1000000000, Total: 1000000000}},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			s, ok := out.Scenario(tt.code)
			require.True(t, ok)
			assert.Equal(t, tt.expected, s.Breakdown)
		})
	}
}

func TestFounderNet(t *testing.T) {
	in := baseInput()
	in.Costs = Costs{AdvisoryFeeRatePct: 2, TaxRatePct: 22, TaxEnabled: true}
	out := Generate(in)

	s, _ := out.Scenario(CashAndStock)
	require.NotNil(t, s.FounderNet)
	net := *s.FounderNet
	assert.Equal(t, int64(3000000000), net.Gross)
	assert.Equal(t, int64(60000000), net.Fee)
	assert.Equal(t, int64(646800000), net.Tax)
	assert.Equal(t, int64(2293200000), net.NetExpected)
	assert.True(t, net.TaxApplied)

	// conditional cash is probability weighted before fees
	earnout, _ := out.Scenario(PerformanceEarnout)
	assert.Equal(t, int64(2640000000), earnout.FounderNet.Gross)
}

func TestTaxDisabledByDefault(t *testing.T) {
	in := baseInput()
	in.Costs.TaxRatePct = 22

	s, _ := Generate(in).Scenario(AllCashControl)
	assert.Zero(t, s.FounderNet.Tax)
	assert.False(t, s.FounderNet.TaxApplied)
	assert.Equal(t, s.FounderNet.Gross-s.FounderNet.Fee, s.FounderNet.NetExpected)
}

func TestAssetDealNotCalculable(t *testing.T) {
	in := baseInput()
	in.CompanyProfile = "Carve-out of the logistics business unit with clear synergy for the buyer"

	s, _ := Generate(in).Scenario(AssetDeal)
	assert.True(t, s.Eligible)
	assert.False(t, s.FounderCashoutCalculable)
	assert.Nil(t, s.FounderNet)
	assert.Contains(t, s.Explanation, "second step")
}

func TestAssetDealKoreanKeyword(t *testing.T) {
	in := baseInput()
	in.CompanyProfile = "반도체 장비 사업부 영업양수도 검토"

	s, _ := Generate(in).Scenario(AssetDeal)
	assert.True(t, s.Eligible)
}

func TestEarnoutEligibility(t *testing.T) {
	tests := []struct {
		name     string
		growth   float64
		trend    EBITDATrend
		profile  string
		eligible bool
	}{
		{"High growth", 12, TrendFlat, "", true},
		{"Growth threshold", 10, "", "", true},
		{"Rising EBITDA", 2, TrendRising, "", true},
		{"Synergy narrative", 0, TrendFlat, "Strong synergy with a strategic buyer", true},
		{"Korean narrative", 0, TrendFlat, "해외 확장 및 성장 계획", true},
		{"Nothing", 5, TrendVolatile, "stable family business", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.RevenueGrowthPct = tt.growth
			in.EBITDATrend = tt.trend
			in.CompanyProfile = tt.profile

			s, _ := Generate(in).Scenario(PerformanceEarnout)
			assert.Equal(t, tt.eligible, s.Eligible, s.EligibilityReasons)
		})
	}
}

func TestCashAndStockExitHorizon(t *testing.T) {
	in := baseInput()
	in.SaleIntent = IntentFull

	in.ExpectedExit = "2026-03"
	s, _ := Generate(in).Scenario(CashAndStock)
	assert.False(t, s.Eligible)

	in.ExpectedExit = "2026-06"
	s, _ = Generate(in).Scenario(CashAndStock)
	assert.True(t, s.Eligible)
}

func TestAsOfFallsBackToClock(t *testing.T) {
	in := baseInput()
	in.SaleIntent = IntentFull
	in.AsOf = ""
	in.ExpectedExit = "2027-01"

	gen := NewGenerator().WithClock(func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) })
	s, _ := gen.Generate(in).Scenario(CashAndStock)
	assert.False(t, s.Eligible)

	gen = gen.WithClock(func() time.Time { return time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC) })
	s, _ = gen.Generate(in).Scenario(CashAndStock)
	assert.True(t, s.Eligible)
}

func TestScores(t *testing.T) {
	tests := []struct {
		name     string
		intent   SaleIntent
		expected map[Code]int
		top3     []Code
	}{
		{
			name:   "Full exit",
			intent: IntentFull,
			expected: map[Code]int{
				AllCashControl:      6,
				PartialExitRollover: 1,
				PerformanceEarnout:  4,
				CashAndStock:        1,
				AssetDeal:           -2,
			},
			top3: []Code{AllCashControl, PerformanceEarnout, PartialExitRollover},
		},
		{
			name:   "Partial exit",
			intent: IntentPartial,
			expected: map[Code]int{
				AllCashControl:      2,
				PartialExitRollover: 5,
				PerformanceEarnout:  3,
				CashAndStock:        3,
				AssetDeal:           0,
			},
			top3: []Code{PartialExitRollover, PerformanceEarnout, CashAndStock},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.SaleIntent = tt.intent
			out := Generate(in)

			for _, s := range out.Scenarios {
				assert.Equal(t, tt.expected[s.Code], s.Score.Total, "%s %+v", s.Code, s.Score)
				assert.Equal(t, s.Score.CashNow+s.Score.Upside-s.Score.Risk+s.Score.FounderFit, s.Score.Total)
			}
			assert.Equal(t, tt.top3, out.Top3)
		})
	}
}

func TestVolatileTrendRaisesRisk(t *testing.T) {
	in := baseInput()
	stable, _ := Generate(in).Scenario(CashAndStock)

	in.EBITDATrend = TrendVolatile
	out := Generate(in)
	volatile, _ := out.Scenario(CashAndStock)
	assert.Equal(t, stable.Score.Risk+1, volatile.Score.Risk)

	allCash, _ := out.Scenario(AllCashControl)
	assert.Equal(t, 1, allCash.Score.Risk)
}

func TestRankingProperties(t *testing.T) {
	intents := []SaleIntent{IntentFull, IntentPartial, ""}
	trends := []EBITDATrend{TrendRising, TrendFlat, TrendVolatile}
	profiles := []string{"", "business unit carve-out", "growth story"}

	for _, intent := range intents {
		for _, trend := range trends {
			for _, profile := range profiles {
				in := baseInput()
				in.SaleIntent = intent
				in.EBITDATrend = trend
				in.CompanyProfile = profile
				in.IssueNewShares = profile != ""
				out := Generate(in)

				require.Len(t, out.Top3, TopN)
				require.Len(t, out.Ranking, len(Codes))
				assert.Equal(t, out.Ranking[:TopN], out.Top3)

				seen := map[Code]bool{}
				for _, c := range out.Top3 {
					assert.False(t, seen[c], "duplicate %s", c)
					seen[c] = true
				}

				totals := make(map[Code]int)
				for _, s := range out.Scenarios {
					totals[s.Code] = s.Score.Total
				}
				assert.True(t, sort.SliceIsSorted(out.Ranking, func(i, j int) bool {
					a, b := out.Ranking[i], out.Ranking[j]
					if totals[a] != totals[b] {
						return totals[a] > totals[b]
					}
					return a.index() < b.index()
				}), "ranking %v totals %v", out.Ranking, totals)
			}
		}
	}
}

func TestTiesBrokenByEnumerationOrder(t *testing.T) {
	scenarios := []Scenario{
		{Code: AssetDeal, Score: Score{Total: 1}},
		{Code: CashAndStock, Score: Score{Total: 1}},
		{Code: AllCashControl, Score: Score{Total: 1}},
		{Code: PerformanceEarnout, Score: Score{Total: 2}},
		{Code: PartialExitRollover, Score: Score{Total: 1}},
	}
	assert.Equal(t, []Code{PerformanceEarnout, AllCashControl, PartialExitRollover, CashAndStock, AssetDeal}, rank(scenarios))
}

func TestAggregateWarnings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Input)
		contains string
	}{
		{"Cap table sum", func(in *Input) { in.CapTable.OptionPool = 5 }, "cap table sums to 95.00%"},
		{"Small founder", func(in *Input) { in.CapTable = CapTable{FounderShare: 5, InvestorShare: 80, OptionPool: 15} }, "founder share"},
		{"Dominant investors", func(in *Input) { in.CapTable = CapTable{FounderShare: 20, InvestorShare: 75, OptionPool: 5} }, "investors hold"},
		{"Large option pool", func(in *Input) { in.CapTable = CapTable{FounderShare: 50, InvestorShare: 25, OptionPool: 25} }, "option pool"},
		{"Empty profile", func(*Input) {}, "company profile is empty"},
		{"Missing asset keywords", func(in *Input) { in.CompanyProfile = "family restaurant chain" }, "no business-unit or synergy keywords"},
		{"Median outside range", func(in *Input) { m := int64(9000000000); in.EquityMedian = &m }, "lies outside"},
		{"Inverted range", func(in *Input) { in.EquityLow, in.EquityHigh = in.EquityHigh, in.EquityLow }, "is above equity high"},
		{"Exit in the past", func(in *Input) { in.ExpectedExit = "2024-01" }, "is before"},
		{"Unparseable exit", func(in *Input) { in.ExpectedExit = "next year" }, "expected exit date ignored"},
		{"Drag-along", func(in *Input) { in.CapTable = CapTable{FounderShare: 40, InvestorShare: 50, OptionPool: 10} }, "ALL_CASH_CONTROL: founder holds 40%"},
		{"Secondary ratio too large", func(in *Input) { in.SecondarySaleRatioPct = 100 }, "PARTIAL_EXIT_ROLLOVER: secondary sale ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			tt.mutate(&in)
			out := Generate(in)
			assert.True(t, containsWarning(out.Warnings, tt.contains), "warnings %v should mention %q", out.Warnings, tt.contains)
		})
	}
}

func TestSecondarySaleRatioAndPrimaryIssue(t *testing.T) {
	in := baseInput()
	in.SecondarySaleRatioPct = 40
	in.IssueNewShares = true

	s, _ := Generate(in).Scenario(PartialExitRollover)
	assert.InDelta(t, 0.4, s.Assumptions.SaleRatio, 1e-12)
	assert.InDelta(t, 0.6, s.Assumptions.RolloverRatio, 1e-12)
	assert.Equal(t, int64(600000000), s.Breakdown.CorporateCashIn)
	assert.Equal(t, int64(1400000000), s.Breakdown.ImmediateCash)
	assert.Equal(t, int64(3000000000), s.Breakdown.RetainedValue)
}

func TestCustomCostAssumptions(t *testing.T) {
	in := baseInput()
	in.Costs.EscrowPct = fptr(0)
	in.Costs.EarnoutProbabilityPct = fptr(100)
	out := Generate(in)

	allCash, _ := out.Scenario(AllCashControl)
	assert.Zero(t, allCash.Breakdown.DeferredCash)
	earnout, _ := out.Scenario(PerformanceEarnout)
	assert.Equal(t, earnout.Breakdown.ConditionalCashNominal, earnout.Breakdown.ConditionalCashExpected)
}

func TestParseSaleIntent(t *testing.T) {
	tests := []struct {
		input    string
		expected SaleIntent
		ok       bool
	}{
		{"전체", IntentFull, true},
		{"일부", IntentPartial, true},
		{"FULL", IntentFull, true},
		{" partial ", IntentPartial, true},
		{"maybe", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSaleIntent(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.expected, got, tt.input)
	}
}

func TestEvaluatorsCoverEnumeration(t *testing.T) {
	evs := Evaluators()
	require.Len(t, evs, len(Codes))
	for i, ev := range evs {
		assert.Equal(t, Codes[i], ev.Code())
		assert.NotEmpty(t, ev.Code().Name())
	}
}

func containsWarning(warnings []string, sub string) bool {
	for _, w := range warnings {
		if strings.Contains(w, sub) {
			return true
		}
	}
	return false
}
