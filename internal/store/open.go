package store

import (
	"context"
	"fmt"
	"time"

	"github.com/iwvelando/exit-valuation/pkg/constants"
	"go.uber.org/zap"
)

// Options selects and configures a store.
type Options struct {
	Driver      string
	DatabaseURL string
	RedisAddr   string
	CacheTTL    time.Duration
}

// Open builds the store named by opts.Driver. A redis cache is put in front
// of postgres when RedisAddr is set; the memory store is never cached.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.Driver {
	case constants.StorageDriverMemory, "":
		if opts.RedisAddr != "" {
			logger.Info("ignoring redis cache for the memory store",
				zap.String("op", "store.Open"),
			)
		}
		return NewMemory(), nil

	case constants.StorageDriverPostgres:
		pg, err := NewPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to postgres run store",
			zap.String("op", "store.Open"),
		)
		if opts.RedisAddr == "" {
			return pg, nil
		}
		logger.Info("caching runs in redis",
			zap.String("op", "store.Open"),
			zap.String("addr", opts.RedisAddr),
			zap.Duration("ttl", opts.CacheTTL),
		)
		return NewCached(pg, NewRedisCache(opts.RedisAddr), opts.CacheTTL, logger), nil
	}

	return nil, fmt.Errorf("storage driver %q is not supported", opts.Driver)
}
