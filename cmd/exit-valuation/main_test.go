package main

import (
	"context"
	"testing"
	"time"

	"github.com/iwvelando/exit-valuation/internal/api"
	"github.com/iwvelando/exit-valuation/internal/runs"
	"github.com/iwvelando/exit-valuation/pkg/constants"
	"github.com/iwvelando/exit-valuation/pkg/testutil"
)

func newService(t *testing.T) *runs.Service {
	t.Helper()
	return testutil.NewService(t, time.Time{}, nil)
}

func sampleRequest() api.EvaluateRequest {
	return api.EvaluateRequest{
		Profile: api.ProfileRequest{
			IndustryCode:     "C29",
			FoundedYear:      2012,
			EmployeeBand:     "50-99",
			Revenue:          20_000_000_000,
			EBITDA:           2_000_000_000,
			NetIncome:        1_200_000_000,
			RevenueGrowthPct: 8,
			TotalDebt:        1_000_000_000,
			Cash:             2_000_000_000,
		},
		Cashflow: &api.CashflowRequest{
			EquityValueBasis: 5_000_000_000,
			LockInYears:      3,
			EquityScenarios:  []float64{100},
			Payout:           api.PayoutRequest{UpfrontPct: 60, EscrowPct: 20, EarnoutPct: 20},
			DiscountRate:     0.1,
		},
		Deals: &api.DealRequest{
			EquityLow:  4_000_000_000,
			EquityHigh: 6_000_000_000,
			CapTable:   api.CapTableRequest{FounderShare: 80, InvestorShare: 10, OptionPool: 10},
			HopeToSell: "full",
		},
	}
}

func TestEvaluateModes(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tests := []struct {
		mode                             string
		valuation, cashflowOut, dealsOut bool
	}{
		{constants.ModeValuation, true, false, false},
		{constants.ModeCashflow, false, true, false},
		{constants.ModeDeals, false, false, true},
		{constants.ModeAll, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			report, err := evaluate(ctx, svc, tt.mode, sampleRequest())
			if err != nil {
				t.Fatalf("evaluate() error = %v", err)
			}
			if report.RunID == "" {
				t.Errorf("expected a run ID")
			}
			if (report.Valuation != nil) != tt.valuation {
				t.Errorf("valuation present = %v, want %v", report.Valuation != nil, tt.valuation)
			}
			if (report.Cashflow != nil) != tt.cashflowOut {
				t.Errorf("cashflow present = %v, want %v", report.Cashflow != nil, tt.cashflowOut)
			}
			if (report.Deals != nil) != tt.dealsOut {
				t.Errorf("deals present = %v, want %v", report.Deals != nil, tt.dealsOut)
			}
		})
	}
}

func TestEvaluateMissingSection(t *testing.T) {
	svc := newService(t)
	req := sampleRequest()
	req.Cashflow = nil
	req.Deals = nil

	if _, err := evaluate(context.Background(), svc, constants.ModeCashflow, req); err == nil {
		t.Error("expected error for cashflow mode without a cashflow section")
	}
	if _, err := evaluate(context.Background(), svc, constants.ModeDeals, req); err == nil {
		t.Error("expected error for deals mode without a deals section")
	}
	if _, err := evaluate(context.Background(), svc, "everything", req); err == nil {
		t.Error("expected error for unknown mode")
	}
}
