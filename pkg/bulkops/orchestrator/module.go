package orchestrator

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// retentionTick is how often the retention sweep runs.
const retentionTick = 24 * time.Hour

// RunRetentionSweeper starts the daily retention sweep on application start
// and stops it on shutdown. The first sweep runs immediately so restarts do
// not postpone overdue cleanup by a full day.
func RunRetentionSweeper(lc fx.Lifecycle, s *Service) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(retentionTick)
				defer ticker.Stop()
				for {
					if err := s.SweepExpired(ctx); err != nil {
						logger.Errorf("Retention sweep failed: %v", err)
					}
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

// Module provides the orchestrator service and its background workers to Fx.
var Module = fx.Options(
	fx.Provide(
		NewService,
	),
	fx.Invoke(RunRetentionSweeper),
)
