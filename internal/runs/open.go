package runs

import (
	"context"
	"fmt"

	"github.com/iwvelando/exit-valuation/internal/cashflow"
	"github.com/iwvelando/exit-valuation/internal/config"
	"github.com/iwvelando/exit-valuation/internal/deal"
	"github.com/iwvelando/exit-valuation/internal/store"
	"github.com/iwvelando/exit-valuation/internal/valuation"
	"go.uber.org/zap"
)

// Open builds the engines from the engine calibration and connects the run
// store. The caller owns the returned service and must Close it.
func Open(ctx context.Context, engine config.EngineConfig, storage config.StorageConfig, logger *zap.Logger) (*Service, error) {
	calc, err := valuation.NewCalculator(engine.Valuation)
	if err != nil {
		return nil, fmt.Errorf("failed to build valuation calculator: %w", err)
	}
	sim, err := cashflow.NewSimulator(engine.Cashflow)
	if err != nil {
		return nil, fmt.Errorf("failed to build cashflow simulator: %w", err)
	}

	st, err := store.Open(ctx, store.Options{
		Driver:      storage.Driver,
		DatabaseURL: storage.DatabaseURL,
		RedisAddr:   storage.RedisAddr,
		CacheTTL:    storage.CacheTTLDuration(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}

	svc, err := NewService(calc, sim, deal.NewGenerator(), st, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	return svc, nil
}
