package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/iwvelando/exit-valuation/internal/api"
)

func TestFindDeal(t *testing.T) {
	scenarios := []api.DealScenarioResponse{
		{Code: "A", Name: "Full cash sale"},
		{Code: "B", Name: "Cash with earn-out"},
		{Code: "E", Name: "Stock swap"},
	}

	tests := []struct {
		name         string
		code         string
		expectFound  bool
		expectedName string
	}{
		{name: "Find first", code: "A", expectFound: true, expectedName: "Full cash sale"},
		{name: "Find last", code: "E", expectFound: true, expectedName: "Stock swap"},
		{name: "Missing code", code: "Z", expectFound: false},
		{name: "Case sensitive", code: "a", expectFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindDeal(scenarios, tt.code)
			if !tt.expectFound {
				if result != nil {
					t.Errorf("Expected nil result for code %q, but got %+v", tt.code, result)
				}
				return
			}
			if result == nil {
				t.Fatalf("Expected to find scenario %q, but got nil", tt.code)
			}
			if result.Name != tt.expectedName {
				t.Errorf("Expected name %q, got %q", tt.expectedName, result.Name)
			}
		})
	}

	if FindDeal(nil, "A") != nil {
		t.Error("Expected nil for empty slice")
	}
}

func TestFindDealReturnsPointerIntoSlice(t *testing.T) {
	scenarios := []api.DealScenarioResponse{{Code: "C"}}
	FindDeal(scenarios, "C").Eligible = true
	if !scenarios[0].Eligible {
		t.Error("Expected modification through pointer to reach the slice")
	}
}

func TestFindSaleScenario(t *testing.T) {
	scenarios := []api.ScenarioResponse{
		{EquitySalePct: 100, TotalProceeds: 1000},
		{EquitySalePct: 51, TotalProceeds: 510},
	}

	if got := FindSaleScenario(scenarios, 51); got == nil || got.TotalProceeds != 510 {
		t.Errorf("Expected 51%% scenario, got %+v", got)
	}
	if got := FindSaleScenario(scenarios, 30); got != nil {
		t.Errorf("Expected nil for missing scenario, got %+v", got)
	}
}

func TestNewService(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(t, now, nil)

	id, resp, err := svc.Valuation(context.Background(), api.ProfileRequest{
		IndustryGroup: "services",
		FoundedYear:   2024,
		EmployeeBand:  "1-9",
		Revenue:       1_000_000_000,
		EBITDA:        200_000_000,
	})
	if err != nil {
		t.Fatalf("Valuation() error = %v", err)
	}
	if id == "" {
		t.Error("Expected a run ID")
	}
	if !resp.Evaluable {
		t.Errorf("Expected an evaluable valuation, got %+v", resp.Warnings)
	}

	if _, _, err := svc.Valuation(context.Background(), api.ProfileRequest{EmployeeBand: "1-9", FoundedYear: 2026}); err == nil {
		t.Error("Expected the fixed clock to reject a founding year after 2025")
	}
}
