package deal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/exit-valuation/pkg/format"
	"github.com/iwvelando/exit-valuation/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// TopN is the number of archetypes in the headline recommendation.
const TopN = 3

const maxAxisScore = 5

// founderFit by sale intent. An unstated intent scores 0 everywhere.
var founderFit = map[SaleIntent]map[Code]int{
	IntentFull: {
		AllCashControl:      2,
		PartialExitRollover: -2,
		PerformanceEarnout:  1,
		CashAndStock:        -1,
		AssetDeal:           -1,
	},
	IntentPartial: {
		AllCashControl:      -2,
		PartialExitRollover: 2,
		PerformanceEarnout:  0,
		CashAndStock:        1,
		AssetDeal:           1,
	},
}

// Generator evaluates every archetype against one input.
type Generator struct {
	evaluators []Evaluator
	now        func() time.Time
}

// NewGenerator returns a generator over the five built-in archetypes.
func NewGenerator() *Generator {
	return &Generator{evaluators: Evaluators(), now: time.Now}
}

// WithClock returns a copy of the generator that resolves a missing as-of
// month from now.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	cp := *g
	cp.now = now
	return &cp
}

// Generate evaluates in with the built-in archetypes.
func Generate(in Input) Output {
	return NewGenerator().Generate(in)
}

// Generate evaluates all archetypes, ranks them and collects warnings.
// Ineligible archetypes are computed and ranked like the others.
func (g *Generator) Generate(in Input) Output {
	facts, warnings := NewFacts(in, g.now())

	out := Output{
		EquityLow:    in.EquityLow,
		EquityHigh:   in.EquityHigh,
		EquityMedian: facts.Median,
		Scenarios:    make([]Scenario, 0, len(g.evaluators)),
		Warnings:     inputWarnings(in, facts),
	}
	out.Warnings = append(out.Warnings, warnings...)

	for _, ev := range g.evaluators {
		s := ev.Evaluate(facts)
		complete(&s, facts)
		out.Scenarios = append(out.Scenarios, s)
		for _, w := range s.Warnings {
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %s", s.Code, w))
		}
	}

	out.Ranking = rank(out.Scenarios)
	top := TopN
	if len(out.Ranking) < top {
		top = len(out.Ranking)
	}
	out.Top3 = append([]Code(nil), out.Ranking[:top]...)
	return out
}

// complete fills the parts shared by every archetype: total, founder net,
// score and explanation.
func complete(s *Scenario, f Facts) {
	b := &s.Breakdown
	b.Total = b.ImmediateCash + b.DeferredCash + b.ConditionalCashExpected + b.StockValue + b.RetainedValue

	if s.FounderCashoutCalculable {
		net := founderNet(b.Total, f)
		s.FounderNet = &net
	}
	s.Score = score(*s, f)
	s.Explanation = explain(*s, f)
}

func founderNet(total int64, f Facts) FounderNet {
	costs := f.Input.Costs
	gross := mathutil.ApplyPercentageWon(total, f.Input.CapTable.FounderShare)
	fee := mathutil.ApplyPercentageWon(gross, costs.AdvisoryFeeRatePct)
	var tax int64
	if costs.TaxEnabled {
		tax = mathutil.ApplyPercentageWon(gross-fee, costs.TaxRatePct)
	}
	return FounderNet{
		FounderSharePct: f.Input.CapTable.FounderShare,
		Gross:           gross,
		Fee:             fee,
		Tax:             tax,
		NetExpected:     gross - fee - tax,
		TaxApplied:      costs.TaxEnabled,
	}
}

func score(s Scenario, f Facts) Score {
	b := s.Breakdown
	sc := Score{
		CashNow:    axis(b.ImmediateCash, f.Median),
		Upside:     axis(b.StockValue+b.RetainedValue+b.ConditionalCashNominal, f.Median),
		Risk:       s.Assumptions.BaseRisk,
		FounderFit: founderFit[f.Input.SaleIntent][s.Code],
	}
	exposed := b.ConditionalCashNominal+b.StockValue+b.RetainedValue > 0
	if exposed && f.Input.EBITDATrend == TrendVolatile {
		sc.Risk++
	}
	sc.Risk = mathutil.ClampInt(sc.Risk, 0, maxAxisScore)
	sc.Total = sc.CashNow + sc.Upside - sc.Risk + sc.FounderFit
	return sc
}

// axis scales part/median onto 0..5.
func axis(part, median int64) int {
	if median <= 0 {
		return 0
	}
	v := decimal.NewFromInt(part).Mul(decimal.NewFromInt(maxAxisScore)).Div(decimal.NewFromInt(median)).Round(0)
	return mathutil.ClampInt(int(v.IntPart()), 0, maxAxisScore)
}

// rank orders codes by total descending; the stable sort keeps enumeration
// order for ties.
func rank(scenarios []Scenario) []Code {
	ordered := append([]Scenario(nil), scenarios...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score.Total != ordered[j].Score.Total {
			return ordered[i].Score.Total > ordered[j].Score.Total
		}
		return ordered[i].Code.index() < ordered[j].Code.index()
	})
	codes := make([]Code, 0, len(ordered))
	for _, s := range ordered {
		codes = append(codes, s.Code)
	}
	return codes
}

func inputWarnings(in Input, f Facts) []string {
	warnings := make([]string, 0)
	ct := in.CapTable

	if !mathutil.SumsTo100(ct.FounderShare, ct.InvestorShare, ct.OptionPool) {
		warnings = append(warnings, fmt.Sprintf("cap table sums to %.2f%%, not 100%%",
			ct.FounderShare+ct.InvestorShare+ct.OptionPool))
	}
	if ct.FounderShare < MinFounderSharePct {
		warnings = append(warnings, fmt.Sprintf("founder share %s is below %s; founder proceeds will be small relative to the deal",
			format.Percent(ct.FounderShare), format.Percent(MinFounderSharePct)))
	}
	if ct.InvestorShare > MaxInvestorSharePct {
		warnings = append(warnings, fmt.Sprintf("investors hold %s; their preferences will likely drive the deal structure",
			format.Percent(ct.InvestorShare)))
	}
	if ct.OptionPool > MaxOptionPoolPct {
		warnings = append(warnings, fmt.Sprintf("option pool of %s is unusually large; check vesting and acceleration terms",
			format.Percent(ct.OptionPool)))
	}

	if in.EquityLow > in.EquityHigh {
		warnings = append(warnings, fmt.Sprintf("equity low %s is above equity high %s",
			format.Currency(in.EquityLow), format.Currency(in.EquityHigh)))
	}
	if in.EquityMedian != nil && (*in.EquityMedian < in.EquityLow || *in.EquityMedian > in.EquityHigh) {
		warnings = append(warnings, fmt.Sprintf("equity median %s lies outside %s",
			format.Currency(*in.EquityMedian), format.Range(in.EquityLow, in.EquityHigh)))
	}
	if f.Median <= 0 {
		warnings = append(warnings, "equity value is zero; every breakdown is zero")
	}

	if !f.ProfileProvided {
		warnings = append(warnings, "company profile is empty; earn-out narrative and asset-deal keywords cannot be checked")
	} else if f.AssetKeyword == "" {
		warnings = append(warnings, fmt.Sprintf("company profile has no business-unit or synergy keywords; %s is marked ineligible", AssetDeal))
	}
	if in.SaleIntent == "" {
		warnings = append(warnings, "sale intent not stated; founder fit is neutral for every archetype")
	}
	if in.Costs.TaxEnabled && in.Costs.TaxRatePct == 0 {
		warnings = append(warnings, "tax is enabled with a 0% rate")
	}
	return warnings
}

func explain(s Scenario, f Facts) string {
	var b strings.Builder
	b.WriteString(s.Name)
	if s.Eligible {
		b.WriteString(" fits: ")
	} else {
		b.WriteString(" does not fit: ")
	}
	b.WriteString(strings.Join(s.EligibilityReasons, "; "))
	b.WriteString(". ")

	bd := s.Breakdown
	fmt.Fprintf(&b, "On an equity value of %s ", format.Short(f.Median))
	if !s.FounderCashoutCalculable {
		fmt.Fprintf(&b, "the company receives %s; founder cash-out needs a second step (dividend, buyback or liquidation) and is not estimated here.",
			format.Short(bd.CorporateCashIn))
		return b.String()
	}

	parts := []string{fmt.Sprintf("%s at closing", format.Short(bd.ImmediateCash))}
	if bd.DeferredCash > 0 {
		parts = append(parts, fmt.Sprintf("%s deferred", format.Short(bd.DeferredCash)))
	}
	if bd.ConditionalCashNominal > 0 {
		parts = append(parts, fmt.Sprintf("%s of %s earn-out expected", format.Short(bd.ConditionalCashExpected), format.Short(bd.ConditionalCashNominal)))
	}
	if bd.StockValue > 0 {
		parts = append(parts, fmt.Sprintf("%s in stock", format.Short(bd.StockValue)))
	}
	if bd.RetainedValue > 0 {
		parts = append(parts, fmt.Sprintf("%s retained", format.Short(bd.RetainedValue)))
	}
	if bd.CorporateCashIn > 0 {
		parts = append(parts, fmt.Sprintf("%s into the company", format.Short(bd.CorporateCashIn)))
	}
	fmt.Fprintf(&b, "the deal pays %s. ", strings.Join(parts, ", "))

	if s.FounderNet != nil {
		fmt.Fprintf(&b, "The founder's %s share is worth %s gross and %s net of fees",
			format.Percent(s.FounderNet.FounderSharePct), format.Short(s.FounderNet.Gross), format.Short(s.FounderNet.NetExpected))
		if s.FounderNet.TaxApplied {
			b.WriteString(" and tax.")
		} else {
			b.WriteString(" (tax not applied).")
		}
	}
	return b.String()
}
