package api

import (
	"github.com/iwvelando/exit-valuation/internal/cashflow"
	"github.com/iwvelando/exit-valuation/internal/deal"
	"github.com/iwvelando/exit-valuation/internal/valuation"
	"github.com/iwvelando/exit-valuation/pkg/format"
)

// TripleResponse is a low/median/high multiple.
type TripleResponse struct {
	Low    float64 `json:"low" yaml:"low"`
	Median float64 `json:"median" yaml:"median"`
	High   float64 `json:"high" yaml:"high"`
}

// RangeResponse is a low/high won range with its display form.
type RangeResponse struct {
	Low     int64  `json:"low" yaml:"low"`
	High    int64  `json:"high" yaml:"high"`
	Display string `json:"display" yaml:"display"`
}

// AdjustmentsResponse lists the three adjustment factors.
type AdjustmentsResponse struct {
	Growth          float64 `json:"growth" yaml:"growth"`
	GrowthLabel     string  `json:"growth_label" yaml:"growth_label"`
	Size            float64 `json:"size" yaml:"size"`
	SizeLabel       string  `json:"size_label" yaml:"size_label"`
	Age             float64 `json:"age" yaml:"age"`
	AgeLabel        string  `json:"age_label" yaml:"age_label"`
	TotalMultiplier float64 `json:"total_multiplier" yaml:"total_multiplier"`
}

// WarningResponse is a valuation finding.
type WarningResponse struct {
	Code     string `json:"code" yaml:"code"`
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
}

// ValuationResponse is the wire form of a valuation result.
type ValuationResponse struct {
	IndustryGroup       string              `json:"industry_group" yaml:"industry_group"`
	IndustryLabel       string              `json:"industry_label" yaml:"industry_label"`
	Evaluable           bool                `json:"evaluable" yaml:"evaluable"`
	EBITDA              int64               `json:"ebitda" yaml:"ebitda"`
	EBITDAType          string              `json:"ebitda_type" yaml:"ebitda_type"`
	IndustryMultiple    TripleResponse      `json:"industry_multiple" yaml:"industry_multiple"`
	PeerMultiple        TripleResponse      `json:"peer_multiple" yaml:"peer_multiple"`
	FinalMultiple       TripleResponse      `json:"final_multiple" yaml:"final_multiple"`
	PeerMarkup          float64             `json:"peer_markup" yaml:"peer_markup"`
	IlliquidityDiscount float64             `json:"illiquidity_discount" yaml:"illiquidity_discount"`
	IndustryWeight      float64             `json:"industry_weight" yaml:"industry_weight"`
	PeerWeight          float64             `json:"peer_weight" yaml:"peer_weight"`
	Adjustments         AdjustmentsResponse `json:"adjustments" yaml:"adjustments"`
	BaseEVLow           int64               `json:"base_ev_low" yaml:"base_ev_low"`
	BaseEVMedian        int64               `json:"base_ev_median" yaml:"base_ev_median"`
	BaseEVHigh          int64               `json:"base_ev_high" yaml:"base_ev_high"`
	AdjustedMidpoint    int64               `json:"adjusted_midpoint" yaml:"adjusted_midpoint"`
	Spread              float64             `json:"spread" yaml:"spread"`
	EnterpriseValue     RangeResponse       `json:"enterprise_value" yaml:"enterprise_value"`
	NetDebt             int64               `json:"net_debt" yaml:"net_debt"`
	EquityValue         RangeResponse       `json:"equity_value" yaml:"equity_value"`
	Explanation         string              `json:"explanation" yaml:"explanation"`
	Warnings            []WarningResponse   `json:"warnings" yaml:"warnings"`
}

// NewValuationResponse maps a valuation result to its wire form.
func NewValuationResponse(r valuation.Result) ValuationResponse {
	resp := ValuationResponse{
		IndustryGroup:       string(r.IndustryGroup),
		IndustryLabel:       r.IndustryLabel,
		Evaluable:           r.Evaluable,
		EBITDA:              r.EBITDA,
		EBITDAType:          string(r.EBITDAType),
		IndustryMultiple:    triple(r.IndustryMultiple),
		PeerMultiple:        triple(r.PeerMultiple),
		FinalMultiple:       triple(r.FinalMultiple),
		PeerMarkup:          r.PeerMarkup,
		IlliquidityDiscount: r.IlliquidityDiscount,
		IndustryWeight:      r.IndustryWeight,
		PeerWeight:          r.PeerWeight,
		Adjustments: AdjustmentsResponse{
			Growth:          r.Adjustments.Growth,
			GrowthLabel:     r.Adjustments.GrowthLabel,
			Size:            r.Adjustments.Size,
			SizeLabel:       r.Adjustments.SizeLabel,
			Age:             r.Adjustments.Age,
			AgeLabel:        r.Adjustments.AgeLabel,
			TotalMultiplier: r.Adjustments.TotalMultiplier,
		},
		BaseEVLow:        r.BaseEnterpriseValue.Low,
		BaseEVMedian:     r.BaseEnterpriseValue.Median,
		BaseEVHigh:       r.BaseEnterpriseValue.High,
		AdjustedMidpoint: r.AdjustedMidpoint,
		Spread:           r.Spread,
		EnterpriseValue:  wonRange(r.EnterpriseValue),
		NetDebt:          r.NetDebt,
		EquityValue:      wonRange(r.EquityValue),
		Explanation:      r.Explanation,
		Warnings:         make([]WarningResponse, 0, len(r.Warnings)),
	}
	for _, w := range r.Warnings {
		resp.Warnings = append(resp.Warnings, WarningResponse{Code: w.Code, Severity: string(w.Severity), Message: w.Message})
	}
	return resp
}

func triple(t valuation.Triple) TripleResponse {
	return TripleResponse{Low: t.Low, Median: t.Median, High: t.High}
}

func wonRange(r valuation.Range) RangeResponse {
	return RangeResponse{Low: r.Low, High: r.High, Display: format.Range(r.Low, r.High)}
}

// PaymentResponse is one resolved schedule payment.
type PaymentResponse struct {
	Year           int     `json:"year" yaml:"year"`
	PercentOfTotal float64 `json:"percent_of_total" yaml:"percent_of_total"`
	Probability    float64 `json:"probability" yaml:"probability"`
}

// CaseResponse is one guaranteed/expected/best cashflow case.
type CaseResponse struct {
	Cashflows    []int64 `json:"cashflows" yaml:"cashflows"`
	TotalNominal int64   `json:"total_nominal" yaml:"total_nominal"`
	PresentValue int64   `json:"present_value" yaml:"present_value"`
	Immediate    int64   `json:"immediate" yaml:"immediate"`
	FinalYear    int64   `json:"final_year" yaml:"final_year"`
	PVRatio      float64 `json:"pv_ratio" yaml:"pv_ratio"`
}

// ScenarioResponse is one equity-sale scenario.
type ScenarioResponse struct {
	EquitySalePct float64      `json:"equity_sale_pct" yaml:"equity_sale_pct"`
	TotalProceeds int64        `json:"total_proceeds" yaml:"total_proceeds"`
	Guaranteed    CaseResponse `json:"guaranteed" yaml:"guaranteed"`
	Expected      CaseResponse `json:"expected" yaml:"expected"`
	Best          CaseResponse `json:"best" yaml:"best"`
	Warnings      []string     `json:"warnings" yaml:"warnings"`
}

// CashflowResponse is the wire form of a cashflow simulation.
type CashflowResponse struct {
	EquityValueBasis int64              `json:"equity_value_basis" yaml:"equity_value_basis"`
	LockInYears      int                `json:"lock_in_years" yaml:"lock_in_years"`
	DiscountRate     float64            `json:"discount_rate" yaml:"discount_rate"`
	Payout           PayoutRequest      `json:"payout" yaml:"payout"`
	EscrowSchedule   []PaymentResponse  `json:"escrow_schedule" yaml:"escrow_schedule"`
	EarnoutSchedule  []PaymentResponse  `json:"earnout_schedule" yaml:"earnout_schedule"`
	Scenarios        []ScenarioResponse `json:"scenarios" yaml:"scenarios"`
	Warnings         []string           `json:"warnings" yaml:"warnings"`
	Explanation      string             `json:"explanation" yaml:"explanation"`
}

// NewCashflowResponse maps a simulation result to its wire form.
func NewCashflowResponse(r cashflow.Step2Result) CashflowResponse {
	resp := CashflowResponse{
		EquityValueBasis: r.EquityValueBasis,
		LockInYears:      r.LockInYears,
		DiscountRate:     r.DiscountRate,
		Payout: PayoutRequest{
			UpfrontPct: r.Payout.UpfrontPct,
			EscrowPct:  r.Payout.EscrowPct,
			EarnoutPct: r.Payout.EarnoutPct,
		},
		EscrowSchedule:  payments(r.EscrowSchedule),
		EarnoutSchedule: payments(r.EarnoutSchedule),
		Scenarios:       make([]ScenarioResponse, 0, len(r.Scenarios)),
		Warnings:        nonNil(r.Warnings),
		Explanation:     r.Explanation,
	}
	for _, s := range r.Scenarios {
		resp.Scenarios = append(resp.Scenarios, ScenarioResponse{
			EquitySalePct: s.EquitySalePct,
			TotalProceeds: s.TotalProceeds,
			Guaranteed:    cashflowCase(s.Guaranteed),
			Expected:      cashflowCase(s.Expected),
			Best:          cashflowCase(s.Best),
			Warnings:      nonNil(s.Warnings),
		})
	}
	return resp
}

func payments(ps []cashflow.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, PaymentResponse{Year: p.Year, PercentOfTotal: p.PercentOfTotal, Probability: p.Probability})
	}
	return out
}

func cashflowCase(c cashflow.Case) CaseResponse {
	return CaseResponse{
		Cashflows:    append([]int64{}, c.Cashflows...),
		TotalNominal: c.TotalNominal,
		PresentValue: c.PresentValue,
		Immediate:    c.Immediate,
		FinalYear:    c.FinalYear,
		PVRatio:      c.PVRatio,
	}
}

// BreakdownResponse is the proceeds breakdown of a deal scenario.
type BreakdownResponse struct {
	ImmediateCash           int64 `json:"immediate_cash" yaml:"immediate_cash"`
	DeferredCash            int64 `json:"deferred_cash" yaml:"deferred_cash"`
	ConditionalCashNominal  int64 `json:"conditional_cash_nominal" yaml:"conditional_cash_nominal"`
	ConditionalCashExpected int64 `json:"conditional_cash_expected" yaml:"conditional_cash_expected"`
	StockValue              int64 `json:"stock_value" yaml:"stock_value"`
	RetainedValue           int64 `json:"retained_value" yaml:"retained_value"`
	CorporateCashIn         int64 `json:"corporate_cash_in" yaml:"corporate_cash_in"`
	Total                   int64 `json:"total" yaml:"total"`
}

// FounderNetResponse is the founder's share after fee and tax.
type FounderNetResponse struct {
	FounderSharePct float64 `json:"founder_share_pct" yaml:"founder_share_pct"`
	Gross           int64   `json:"gross" yaml:"gross"`
	Fee             int64   `json:"fee" yaml:"fee"`
	Tax             int64   `json:"tax" yaml:"tax"`
	NetExpected     int64   `json:"net_expected" yaml:"net_expected"`
	TaxApplied      bool    `json:"tax_applied" yaml:"tax_applied"`
}

// ScoreResponse is the four-axis score of a deal scenario.
type ScoreResponse struct {
	CashNow    int `json:"cash_now" yaml:"cash_now"`
	Upside     int `json:"upside" yaml:"upside"`
	Risk       int `json:"risk" yaml:"risk"`
	FounderFit int `json:"founder_fit" yaml:"founder_fit"`
	Total      int `json:"total" yaml:"total"`
}

// DealScenarioResponse is one evaluated archetype.
type DealScenarioResponse struct {
	Code                     string              `json:"code" yaml:"code"`
	Name                     string              `json:"name" yaml:"name"`
	Eligible                 bool                `json:"eligible" yaml:"eligible"`
	EligibilityReasons       []string            `json:"eligibility_reasons" yaml:"eligibility_reasons"`
	Assumptions              map[string]float64  `json:"assumptions" yaml:"assumptions"`
	Breakdown                BreakdownResponse   `json:"breakdown" yaml:"breakdown"`
	FounderCashoutCalculable bool                `json:"founder_cashout_calculable" yaml:"founder_cashout_calculable"`
	FounderNet               *FounderNetResponse `json:"founder_net,omitempty" yaml:"founder_net,omitempty"`
	Pros                     []string            `json:"pros" yaml:"pros"`
	Cons                     []string            `json:"cons" yaml:"cons"`
	Explanation              string              `json:"explanation" yaml:"explanation"`
	Score                    ScoreResponse       `json:"score" yaml:"score"`
	Warnings                 []string            `json:"warnings" yaml:"warnings"`
}

// DealsResponse is the wire form of the deal generator output.
type DealsResponse struct {
	EquityLow    int64                  `json:"equity_low" yaml:"equity_low"`
	EquityHigh   int64                  `json:"equity_high" yaml:"equity_high"`
	EquityMedian int64                  `json:"equity_median" yaml:"equity_median"`
	Scenarios    []DealScenarioResponse `json:"scenarios" yaml:"scenarios"`
	Ranking      []string               `json:"ranking" yaml:"ranking"`
	Top3         []string               `json:"top3" yaml:"top3"`
	Warnings     []string               `json:"warnings" yaml:"warnings"`
}

// NewDealsResponse maps the generator output to its wire form.
func NewDealsResponse(o deal.Output) DealsResponse {
	resp := DealsResponse{
		EquityLow:    o.EquityLow,
		EquityHigh:   o.EquityHigh,
		EquityMedian: o.EquityMedian,
		Scenarios:    make([]DealScenarioResponse, 0, len(o.Scenarios)),
		Ranking:      codes(o.Ranking),
		Top3:         codes(o.Top3),
		Warnings:     nonNil(o.Warnings),
	}
	for _, s := range o.Scenarios {
		b := s.Breakdown
		ds := DealScenarioResponse{
			Code:               string(s.Code),
			Name:               s.Name,
			Eligible:           s.Eligible,
			EligibilityReasons: nonNil(s.EligibilityReasons),
			Assumptions:        assumptionMap(s.Assumptions),
			Breakdown: BreakdownResponse{
				ImmediateCash:           b.ImmediateCash,
				DeferredCash:            b.DeferredCash,
				ConditionalCashNominal:  b.ConditionalCashNominal,
				ConditionalCashExpected: b.ConditionalCashExpected,
				StockValue:              b.StockValue,
				RetainedValue:           b.RetainedValue,
				CorporateCashIn:         b.CorporateCashIn,
				Total:                   b.Total,
			},
			FounderCashoutCalculable: s.FounderCashoutCalculable,
			Pros:                     nonNil(s.Pros),
			Cons:                     nonNil(s.Cons),
			Explanation:              s.Explanation,
			Score: ScoreResponse{
				CashNow:    s.Score.CashNow,
				Upside:     s.Score.Upside,
				Risk:       s.Score.Risk,
				FounderFit: s.Score.FounderFit,
				Total:      s.Score.Total,
			},
			Warnings: nonNil(s.Warnings),
		}
		if fn := s.FounderNet; fn != nil {
			ds.FounderNet = &FounderNetResponse{
				FounderSharePct: fn.FounderSharePct,
				Gross:           fn.Gross,
				Fee:             fn.Fee,
				Tax:             fn.Tax,
				NetExpected:     fn.NetExpected,
				TaxApplied:      fn.TaxApplied,
			}
		}
		resp.Scenarios = append(resp.Scenarios, ds)
	}
	return resp
}

// assumptionMap keeps only the ratios the archetype uses.
func assumptionMap(a deal.Assumptions) map[string]float64 {
	m := map[string]float64{"base_risk": float64(a.BaseRisk)}
	set := func(k string, v float64) {
		if v != 0 {
			m[k] = v
		}
	}
	set("sale_ratio", a.SaleRatio)
	set("upfront_ratio", a.UpfrontRatio)
	set("escrow_ratio", a.EscrowRatio)
	set("rollover_ratio", a.RolloverRatio)
	set("earnout_ratio", a.EarnoutRatio)
	set("earnout_probability", a.EarnoutProbability)
	set("cash_ratio", a.CashRatio)
	set("stock_ratio", a.StockRatio)
	set("asset_contribution_ratio", a.AssetContributionRatio)
	set("primary_issue_ratio", a.PrimaryIssueRatio)
	return m
}

func codes(cs []deal.Code) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, string(c))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// EvaluateResponse bundles the three stages of a full evaluation.
type EvaluateResponse struct {
	Valuation ValuationResponse `json:"valuation" yaml:"valuation"`
	Basis     string            `json:"basis" yaml:"basis"`
	Cashflow  *CashflowResponse `json:"cashflow,omitempty" yaml:"cashflow,omitempty"`
	Deals     *DealsResponse    `json:"deals,omitempty" yaml:"deals,omitempty"`
	Warnings  []string          `json:"warnings" yaml:"warnings"`
}
