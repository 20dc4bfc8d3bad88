package deal

import (
	"fmt"

	"github.com/iwvelando/exit-valuation/pkg/format"
	"github.com/iwvelando/exit-valuation/pkg/mathutil"
)

// Evaluator computes one archetype from resolved facts. Implementations fill
// eligibility, assumptions, breakdown and narrative; founder net and score
// are completed by the generator.
type Evaluator interface {
	Code() Code
	Evaluate(f Facts) Scenario
}

// Evaluators returns one evaluator per archetype in enumeration order.
func Evaluators() []Evaluator {
	return []Evaluator{
		allCashControl{},
		partialExitRollover{},
		performanceEarnout{},
		cashAndStock{},
		assetDeal{},
	}
}

func newScenario(code Code) Scenario {
	return Scenario{
		Code:                     code,
		Name:                     code.Name(),
		Assumptions:              AssumptionsFor(code),
		FounderCashoutCalculable: true,
		EligibilityReasons:       make([]string, 0),
		Pros:                     make([]string, 0),
		Cons:                     make([]string, 0),
		Warnings:                 make([]string, 0),
	}
}

type allCashControl struct{}

func (allCashControl) Code() Code { return AllCashControl }

func (e allCashControl) Evaluate(f Facts) Scenario {
	s := newScenario(e.Code())
	s.Assumptions.EscrowRatio = mathutil.Fraction(f.EscrowPct)

	switch f.Input.SaleIntent {
	case IntentFull:
		s.Eligible = true
		s.EligibilityReasons = append(s.EligibilityReasons, "founder intends a full exit")
	case IntentPartial:
		s.EligibilityReasons = append(s.EligibilityReasons, "founder wants to keep a stake; a 100% sale does not fit")
	default:
		s.EligibilityReasons = append(s.EligibilityReasons, "sale intent not stated; a 100% sale requires full-exit intent")
	}

	if f.Input.CapTable.FounderShare < 50 {
		s.Warnings = append(s.Warnings, fmt.Sprintf("founder holds %s; a control sale needs investors to sell alongside (drag-along)",
			format.Percent(f.Input.CapTable.FounderShare)))
	}

	sale := mathutil.MulWon(f.Median, s.Assumptions.SaleRatio)
	escrow := mathutil.MulWon(sale, s.Assumptions.EscrowRatio)
	s.Breakdown = Breakdown{ImmediateCash: sale - escrow, DeferredCash: escrow}

	s.Pros = append(s.Pros, "largest immediate cash at closing", "clean break with no post-closing performance exposure")
	s.Cons = append(s.Cons, "no participation in future upside", "buyers pay a control premium only for de-risked businesses")
	if escrow > 0 {
		s.Cons = append(s.Cons, fmt.Sprintf("%s escrow held back until warranties lapse", format.Percent(f.EscrowPct)))
	}
	return s
}

type partialExitRollover struct{}

func (partialExitRollover) Code() Code { return PartialExitRollover }

func (e partialExitRollover) Evaluate(f Facts) Scenario {
	s := newScenario(e.Code())
	switch ratio := f.Input.SecondarySaleRatioPct; {
	case ratio > 0 && ratio < 100:
		s.Assumptions.SaleRatio = mathutil.Fraction(ratio)
		s.Assumptions.RolloverRatio = 1 - s.Assumptions.SaleRatio
	case ratio >= 100:
		s.Warnings = append(s.Warnings, fmt.Sprintf("secondary sale ratio %s leaves nothing to roll over; %s was used",
			format.Percent(ratio), format.Percent(DefaultRolloverSalePct)))
	}
	if !f.Input.IssueNewShares {
		s.Assumptions.PrimaryIssueRatio = 0
	}

	switch f.Input.SaleIntent {
	case IntentPartial:
		s.Eligible = true
		s.EligibilityReasons = append(s.EligibilityReasons, "founder is willing to retain equity")
	case IntentFull:
		s.EligibilityReasons = append(s.EligibilityReasons, "founder intends a full exit; rollover requires retaining equity")
	default:
		s.EligibilityReasons = append(s.EligibilityReasons, "sale intent not stated; rollover requires willingness to retain equity")
	}

	sale := mathutil.MulWon(f.Median, s.Assumptions.SaleRatio)
	primary := mathutil.MulWon(sale, s.Assumptions.PrimaryIssueRatio)
	s.Breakdown = Breakdown{
		ImmediateCash:   sale - primary,
		RetainedValue:   f.Median - sale,
		CorporateCashIn: primary,
	}

	s.Pros = append(s.Pros,
		fmt.Sprintf("%s of the equity value is realised now", format.Percent(s.Assumptions.SaleRatio*100)),
		"rolled-over stake participates in the buyer's value creation")
	s.Cons = append(s.Cons, "retained stake is illiquid until a second exit", "minority protections must be negotiated")
	if primary > 0 {
		s.Cons = append(s.Cons, fmt.Sprintf("%s of the consideration is primary issuance and goes to the company", format.Short(primary)))
	}
	return s
}

type performanceEarnout struct{}

func (performanceEarnout) Code() Code { return PerformanceEarnout }

func (e performanceEarnout) Evaluate(f Facts) Scenario {
	s := newScenario(e.Code())
	s.Assumptions.EarnoutProbability = mathutil.Fraction(f.EarnoutProbabilityPct)

	in := f.Input
	if in.RevenueGrowthPct >= EarnoutGrowthThresholdPct {
		s.Eligible = true
		s.EligibilityReasons = append(s.EligibilityReasons,
			fmt.Sprintf("revenue growth %s supports performance targets", format.Percent(in.RevenueGrowthPct)))
	}
	if in.EBITDATrend == TrendRising {
		s.Eligible = true
		s.EligibilityReasons = append(s.EligibilityReasons, "EBITDA has been rising over three years")
	}
	if f.GrowthKeyword != "" {
		s.Eligible = true
		s.EligibilityReasons = append(s.EligibilityReasons, fmt.Sprintf("company profile states a growth narrative (%q)", f.GrowthKeyword))
	}
	if !s.Eligible {
		s.EligibilityReasons = append(s.EligibilityReasons, "no growth or synergy narrative to anchor earn-out targets")
	}

	upfront := mathutil.MulWon(f.Median, s.Assumptions.UpfrontRatio)
	earnout := mathutil.MulWon(f.Median, s.Assumptions.EarnoutRatio)
	s.Breakdown = Breakdown{
		ImmediateCash:           upfront,
		ConditionalCashNominal:  earnout,
		ConditionalCashExpected: mathutil.MulWon(earnout, s.Assumptions.EarnoutProbability),
	}

	s.Pros = append(s.Pros, "bridges a valuation gap with the buyer", "founder is paid for growth delivered after closing")
	s.Cons = append(s.Cons,
		fmt.Sprintf("earn-out expected at %s achievement only", format.Percent(f.EarnoutProbabilityPct)),
		"targets depend on the buyer's post-closing decisions")
	if in.EBITDATrend == TrendVolatile {
		s.Cons = append(s.Cons, "volatile EBITDA makes earn-out targets hard to hit")
	}
	return s
}

type cashAndStock struct{}

func (cashAndStock) Code() Code { return CashAndStock }

func (e cashAndStock) Evaluate(f Facts) Scenario {
	s := newScenario(e.Code())

	if f.Input.SaleIntent == IntentPartial {
		s.Eligible = true
		s.EligibilityReasons = append(s.EligibilityReasons, "founder is open to holding acquirer stock")
	}
	if f.HasExitDate && f.MonthsToExit >= StockWaitMonths {
		s.Eligible = true
		s.EligibilityReasons = append(s.EligibilityReasons,
			fmt.Sprintf("exit horizon of %d months leaves time for stock to become liquid", f.MonthsToExit))
	}
	if !s.Eligible {
		s.EligibilityReasons = append(s.EligibilityReasons,
			fmt.Sprintf("stock consideration needs partial-exit intent or an exit at least %d months out", StockWaitMonths))
	}

	s.Breakdown = Breakdown{
		ImmediateCash: mathutil.MulWon(f.Median, s.Assumptions.CashRatio),
		StockValue:    mathutil.MulWon(f.Median, s.Assumptions.StockRatio),
	}

	s.Pros = append(s.Pros, "stock component shares in the combined company's upside", "may allow tax deferral on the stock portion")
	s.Cons = append(s.Cons, "stock value moves with the acquirer's share price", "stock may carry a lock-up")
	return s
}

type assetDeal struct{}

func (assetDeal) Code() Code { return AssetDeal }

func (e assetDeal) Evaluate(f Facts) Scenario {
	s := newScenario(e.Code())
	s.FounderCashoutCalculable = false

	if f.AssetKeyword != "" {
		s.Eligible = true
		s.EligibilityReasons = append(s.EligibilityReasons, fmt.Sprintf("company profile mentions %q", f.AssetKeyword))
	} else {
		s.EligibilityReasons = append(s.EligibilityReasons, "company profile has no business-unit, carve-out or synergy keywords")
	}

	cashIn := mathutil.MulWon(f.Median, s.Assumptions.AssetContributionRatio)
	s.Breakdown = Breakdown{
		CorporateCashIn: cashIn,
		RetainedValue:   f.Median - cashIn,
	}

	s.Pros = append(s.Pros, "only the transferred business is sold", "buyer avoids inheriting unrelated liabilities")
	s.Cons = append(s.Cons,
		"cash lands in the company and needs a dividend, buyback or liquidation to reach the founder",
		"asset transfer taxes and contract assignments add cost")
	return s
}
