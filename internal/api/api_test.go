package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/iwvelando/exit-valuation/internal/cashflow"
	"github.com/iwvelando/exit-valuation/internal/deal"
	"github.com/iwvelando/exit-valuation/internal/valuation"
	"github.com/iwvelando/exit-valuation/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validProfile() ProfileRequest {
	return ProfileRequest{
		IndustryCode:     "C29",
		FoundedYear:      2015,
		EmployeeBand:     "10-49",
		Revenue:          10_000_000_000,
		EBITDA:           1_000_000_000,
		EBITDAType:       "ebitda",
		NetIncome:        600_000_000,
		RevenueGrowthPct: 15,
		TotalDebt:        2_000_000_000,
		Cash:             500_000_000,
		AsOfYear:         2025,
	}
}

func validCashflow() CashflowRequest {
	return CashflowRequest{
		EquityValueBasis: 10_000_000_000,
		LockInYears:      3,
		EquityScenarios:  []float64{100},
		Payout:           PayoutRequest{UpfrontPct: 50, EscrowPct: 30, EarnoutPct: 20},
		DiscountRate:     0.12,
		Escrow:           ScheduleRequest{Type: "lump_sum_end"},
		Earnout:          ScheduleRequest{Type: "equal_annual"},
	}
}

func validDeal() DealRequest {
	return DealRequest{
		EquityLow:        4_000_000_000,
		EquityHigh:       6_000_000_000,
		CapTable:         CapTableRequest{FounderShare: 60, InvestorShare: 30, OptionPool: 10},
		HopeToSell:       "전체",
		ExpectedExitDate: "2027-06",
		AsOf:             "2025-06",
		RevenueGrowthPct: 15,
		EBITDATrend3Y:    "rising",
		CompanyProfile:   "B2B SaaS with recurring revenue",
		Costs:            CostsRequest{AdvisoryFeeRatePct: 2, TaxRatePct: 22, TaxEnabled: true},
	}
}

func TestProfileRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ProfileRequest)
		wantErr string
	}{
		{name: "Valid", mutate: func(*ProfileRequest) {}},
		{name: "Korean band label", mutate: func(r *ProfileRequest) { r.EmployeeBand = "100명 이상" }},
		{name: "Group label", mutate: func(r *ProfileRequest) { r.IndustryGroup = "제조업" }},
		{name: "Negative revenue", mutate: func(r *ProfileRequest) { r.Revenue = -1 }, wantErr: "revenue must be at least 0"},
		{name: "Negative debt", mutate: func(r *ProfileRequest) { r.TotalDebt = -5 }, wantErr: "total_debt must be at least 0"},
		{name: "Future founding year", mutate: func(r *ProfileRequest) { r.FoundedYear = 2026 }, wantErr: "founded_year 2026 is in the future"},
		{name: "Growth too high", mutate: func(r *ProfileRequest) { r.RevenueGrowthPct = 400 }, wantErr: "revenue_growth_pct"},
		{name: "Missing band", mutate: func(r *ProfileRequest) { r.EmployeeBand = "" }, wantErr: "employee_band is required"},
		{name: "Unknown band", mutate: func(r *ProfileRequest) { r.EmployeeBand = "5000" }, wantErr: "employee_band"},
		{name: "Unknown group", mutate: func(r *ProfileRequest) { r.IndustryGroup = "MINING" }, wantErr: "industry_group"},
		{name: "Bad EBITDA type", mutate: func(r *ProfileRequest) { r.EBITDAType = "ebit" }, wantErr: "ebitda_type must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validProfile()
			tt.mutate(&req)
			err := req.Validate(2030)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, validation.ErrInvalid))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProfileRequestToProfile(t *testing.T) {
	req := validProfile()
	req.IndustryGroup = "it-services"
	req.EmployeeBand = "50~99명"

	p := req.ToProfile()
	assert.Equal(t, valuation.GroupITServices, p.IndustryGroup)
	assert.Equal(t, valuation.Employees50To99, p.EmployeeBand)
	assert.Equal(t, valuation.EBITDATypeEBITDA, p.EBITDAType)
	assert.Equal(t, int64(2_000_000_000), p.TotalDebt)
	assert.Equal(t, 2025, p.AsOfYear)
}

func TestCashflowRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CashflowRequest)
		wantErr bool
	}{
		{name: "Valid", mutate: func(*CashflowRequest) {}},
		{name: "Payout within tolerance", mutate: func(r *CashflowRequest) { r.Payout.EarnoutPct = 19.99 }},
		{name: "Payout sums to 95", mutate: func(r *CashflowRequest) { r.Payout.EarnoutPct = 15 }, wantErr: true},
		{name: "Lock-in of two years", mutate: func(r *CashflowRequest) { r.LockInYears = 2 }, wantErr: true},
		{name: "Discount rate as percent", mutate: func(r *CashflowRequest) { r.DiscountRate = 12 }, wantErr: true},
		{name: "No scenarios", mutate: func(r *CashflowRequest) { r.EquityScenarios = nil }, wantErr: true},
		{name: "Bad schedule type", mutate: func(r *CashflowRequest) { r.Earnout.Type = "monthly" }, wantErr: true},
		{name: "Probability above one", mutate: func(r *CashflowRequest) { p := 1.5; r.Escrow.Probability = &p }, wantErr: true},
		{
			name: "Custom item beyond lock-in",
			mutate: func(r *CashflowRequest) {
				r.Earnout = ScheduleRequest{Type: "custom", Items: []ScheduleItemRequest{{Year: 4, PercentOfTotal: 100}}}
			},
			wantErr: true,
		},
		{
			name: "Custom item probability out of range",
			mutate: func(r *CashflowRequest) {
				p := -0.2
				r.Earnout = ScheduleRequest{Type: "custom", Items: []ScheduleItemRequest{{Year: 1, PercentOfTotal: 100, Probability: &p}}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCashflow()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, validation.ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCashflowRequestToInput(t *testing.T) {
	req := validCashflow()
	req.Escrow = ScheduleRequest{}
	req.Earnout = ScheduleRequest{Type: "custom", Items: []ScheduleItemRequest{{Year: 2, PercentOfTotal: 100}}}

	in := req.ToInput(7_000_000_000)
	assert.Equal(t, int64(7_000_000_000), in.EquityValueBasis)
	assert.Equal(t, cashflow.ScheduleLumpSumEnd, in.Escrow.Type)
	assert.Equal(t, cashflow.ScheduleCustom, in.Earnout.Type)
	require.Len(t, in.Earnout.Items, 1)
	assert.Equal(t, 2, in.Earnout.Items[0].Year)

	req.EquityScenarios[0] = 50
	assert.Equal(t, 100.0, in.EquityScenarios[0], "input must not alias the request slice")

	in = validCashflow().ToInput(1)
	assert.Equal(t, cashflow.ScheduleEqualAnnual, in.Earnout.Type)
}

func TestDealRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DealRequest)
		wantErr string
	}{
		{name: "Valid", mutate: func(*DealRequest) {}},
		{name: "Cap table off by a hundredth", mutate: func(r *DealRequest) { r.CapTable.OptionPool = 9.99 }},
		{name: "Cap table short", mutate: func(r *DealRequest) { r.CapTable.OptionPool = 0 }, wantErr: "cap table must sum to 100%"},
		{name: "Unknown intent", mutate: func(r *DealRequest) { r.HopeToSell = "maybe" }, wantErr: "hope_to_sell"},
		{name: "Unknown trend", mutate: func(r *DealRequest) { r.EBITDATrend3Y = "sideways" }, wantErr: "ebitda_trend_3y"},
		{name: "Bad exit date", mutate: func(r *DealRequest) { r.ExpectedExitDate = "next year" }, wantErr: "expected_exit_date"},
		{name: "Fee above 100", mutate: func(r *DealRequest) { r.Costs.AdvisoryFeeRatePct = 120 }, wantErr: "advisory_fee_rate_pct must be at most 100"},
		{name: "Secondary ratio negative", mutate: func(r *DealRequest) { r.SecondarySaleRatioPct = -1 }, wantErr: "secondary_sale_ratio_pct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validDeal()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, validation.ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDealRequestToInput(t *testing.T) {
	escrow := 0.0
	req := validDeal()
	req.Costs.EscrowPct = &escrow
	median := int64(5_500_000_000)

	in := req.ToInput(4_000_000_000, 6_000_000_000, &median)
	assert.Equal(t, deal.IntentFull, in.SaleIntent)
	assert.Equal(t, deal.TrendRising, in.EBITDATrend)
	assert.Equal(t, "2027-06", in.ExpectedExit)
	require.NotNil(t, in.Costs.EscrowPct)
	assert.Equal(t, 0.0, *in.Costs.EscrowPct)
	assert.Equal(t, &median, in.EquityMedian)
	assert.Equal(t, 60.0, in.CapTable.FounderShare)
}

func TestEvaluateRequestValidate(t *testing.T) {
	cf := validCashflow()
	dr := validDeal()
	req := EvaluateRequest{Profile: validProfile(), Basis: "median", Cashflow: &cf, Deals: &dr}
	assert.NoError(t, req.Validate(2025))

	req.Basis = "mean"
	assert.ErrorContains(t, req.Validate(2025), "basis")

	req.Basis = ""
	cf.Payout.UpfrontPct = 45
	assert.ErrorIs(t, req.Validate(2025), validation.ErrInvalid)
}

func TestRequestDecodingUsesSnakeCase(t *testing.T) {
	body := `{
		"profile": {"industry_code": "J62", "founded_year": 2018, "employee_band": "10-49",
			"revenue": 5000000000, "ebitda": 800000000, "net_income": 400000000,
			"revenue_growth_pct": 25, "total_debt": 0, "cash": 300000000},
		"basis": "low",
		"cashflow": {"lock_in_years": 3, "equity_scenarios": [100, 51],
			"payout": {"upfront_pct": 60, "escrow_pct": 20, "earnout_pct": 20},
			"discount_rate": 0.1}
	}`
	var req EvaluateRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Equal(t, "J62", req.Profile.IndustryCode)
	assert.Equal(t, "low", req.Basis)
	require.NotNil(t, req.Cashflow)
	assert.Equal(t, []float64{100, 51}, req.Cashflow.EquityScenarios)
	assert.Equal(t, 20.0, req.Cashflow.Payout.EscrowPct)
	assert.Nil(t, req.Deals)

	doc := `
profile:
  industry_group: manufacturing
  employee_band: 1-9
  revenue: 100
deals:
  hope_to_sell: partial
  cap_table: {founder_share: 100, investor_share: 0, option_pool: 0}
`
	var fromYAML EvaluateRequest
	require.NoError(t, yaml.Unmarshal([]byte(doc), &fromYAML))
	assert.Equal(t, "manufacturing", fromYAML.Profile.IndustryGroup)
	require.NotNil(t, fromYAML.Deals)
	assert.Equal(t, "partial", fromYAML.Deals.HopeToSell)
	assert.Equal(t, 100.0, fromYAML.Deals.CapTable.FounderShare)
}

func TestNewValuationResponse(t *testing.T) {
	res := valuation.Result{
		IndustryGroup:   valuation.GroupManufacturing,
		IndustryLabel:   "제조업",
		Evaluable:       true,
		EnterpriseValue: valuation.Range{Low: 5_000_000_000, High: 7_000_000_000},
		EquityValue:     valuation.Range{Low: 3_500_000_000, High: 5_500_000_000},
		Warnings: []valuation.Warning{
			{Code: valuation.CodeEBITDAMarginHigh, Severity: valuation.SeverityWarning, Message: "high"},
		},
	}
	resp := NewValuationResponse(res)
	assert.Equal(t, "MANUFACTURING", resp.IndustryGroup)
	assert.Equal(t, int64(3_500_000_000), resp.EquityValue.Low)
	assert.NotEmpty(t, resp.EquityValue.Display)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, "warning", resp.Warnings[0].Severity)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"equity_value"`)
	assert.Contains(t, string(raw), `"illiquidity_discount"`)
}

func TestNewCashflowResponse(t *testing.T) {
	res := cashflow.Simulate(validCashflow().ToInput(10_000_000_000))
	resp := NewCashflowResponse(res)

	require.Len(t, resp.Scenarios, 1)
	s := resp.Scenarios[0]
	assert.Equal(t, res.Scenarios[0].Expected.PresentValue, s.Expected.PresentValue)
	assert.Len(t, s.Best.Cashflows, 4)
	assert.NotNil(t, resp.Warnings)
	assert.NotNil(t, s.Warnings)
	assert.Len(t, resp.EarnoutSchedule, 3)
}

func TestNewDealsResponse(t *testing.T) {
	out := deal.Generate(validDeal().ToInput(4_000_000_000, 6_000_000_000, nil))
	resp := NewDealsResponse(out)

	require.Len(t, resp.Scenarios, len(deal.Codes))
	assert.Len(t, resp.Top3, deal.TopN)
	assert.Equal(t, int64(5_000_000_000), resp.EquityMedian)

	for _, s := range resp.Scenarios {
		assert.Contains(t, s.Assumptions, "base_risk")
		if s.Code == string(deal.AssetDeal) {
			assert.Nil(t, s.FounderNet)
			assert.False(t, s.FounderCashoutCalculable)
		} else {
			assert.NotNil(t, s.FounderNet)
		}
	}
	cash := resp.Scenarios[0]
	assert.Equal(t, string(deal.AllCashControl), cash.Code)
	assert.Equal(t, 1.0, cash.Assumptions["sale_ratio"])
	assert.NotContains(t, cash.Assumptions, "stock_ratio")
}
