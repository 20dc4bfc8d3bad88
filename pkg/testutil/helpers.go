// Package testutil provides common utility functions for testing.
package testutil

import (
	"testing"
	"time"

	"github.com/iwvelando/exit-valuation/internal/api"
	"github.com/iwvelando/exit-valuation/internal/cashflow"
	"github.com/iwvelando/exit-valuation/internal/deal"
	"github.com/iwvelando/exit-valuation/internal/runs"
	"github.com/iwvelando/exit-valuation/internal/store"
	"github.com/iwvelando/exit-valuation/internal/valuation"
	"go.uber.org/zap"
)

// NewService builds a service over the default calibration and an in-memory
// store. A zero now leaves the wall clock in place.
func NewService(tb testing.TB, now time.Time, logger *zap.Logger) *runs.Service {
	tb.Helper()
	calc, err := valuation.NewCalculator(valuation.DefaultParams())
	if err != nil {
		tb.Fatalf("NewCalculator() error = %v", err)
	}
	sim, err := cashflow.NewSimulator(cashflow.DefaultAssumptions())
	if err != nil {
		tb.Fatalf("NewSimulator() error = %v", err)
	}
	svc, err := runs.NewService(calc, sim, deal.NewGenerator(), store.NewMemory(), logger)
	if err != nil {
		tb.Fatalf("NewService() error = %v", err)
	}
	if !now.IsZero() {
		svc = svc.WithClock(func() time.Time { return now })
	}
	return svc
}

// FindDeal finds a deal scenario by archetype code.
// Returns a pointer to the scenario if found, nil otherwise.
func FindDeal(scenarios []api.DealScenarioResponse, code string) *api.DealScenarioResponse {
	for i := range scenarios {
		if scenarios[i].Code == code {
			return &scenarios[i]
		}
	}
	return nil
}

// FindSaleScenario finds a cashflow scenario by the share of equity sold.
// Returns a pointer to the scenario if found, nil otherwise.
func FindSaleScenario(scenarios []api.ScenarioResponse, equitySalePct float64) *api.ScenarioResponse {
	for i := range scenarios {
		if scenarios[i].EquitySalePct == equitySalePct {
			return &scenarios[i]
		}
	}
	return nil
}
