package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper evicts idle state as of now and reports how much it removed.
type Sweeper interface {
	Sweep(now time.Time) int
}

// StartViewJanitor sweeps idle list views every interval until ctx is done.
func StartViewJanitor(ctx context.Context, sweeper Sweeper, interval time.Duration, logger *zap.Logger) {
	if sweeper == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Debug("view janitor stopped")
				return
			case now := <-ticker.C:
				sweeper.Sweep(now)
			}
		}
	}()
}
