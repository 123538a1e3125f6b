package idempotency

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunSweeper periodically purges expired records. It complements the sweep
// performed at the start of every reward request, so memory stays bounded
// during idle periods too.
func RunSweeper(ctx context.Context, store Store, interval time.Duration, now func() time.Time, log *zap.Logger) {
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("idempotency sweeper started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			log.Info("idempotency sweeper stopped")
			return
		case <-ticker.C:
			removed, err := store.Sweep(ctx, now())
			if err != nil {
				log.Error("sweeper: sweep", zap.Error(err))
				continue
			}
			if removed > 0 {
				log.Info("sweeper: purged expired records", zap.Int("removed", removed))
			}
		}
	}
}
