package storage

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner is implemented by stores that cannot expire records on their own.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// PruneTimeout bounds a single scheduled prune.
const PruneTimeout = 30 * time.Second

// SchedulePrune runs p.Prune on the cron schedule spec, e.g. "@every 10m"
// or "*/5 * * * *". Stop the returned cron to end pruning.
func SchedulePrune(spec string, p Pruner, logger *zap.Logger) (*cron.Cron, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New()
	if _, err := c.AddJob(spec, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), PruneTimeout)
		defer cancel()

		n, err := p.Prune(ctx)
		if err != nil {
			logger.Warn("failed to prune expired sessions", zap.Error(err))
			return
		}
		logger.Debug("pruned expired sessions", zap.Int("count", n))
	})); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
