// Expired batches and their in-memory artifacts are dropped periodically;
// nothing lives on disk past a batch run, so cleanup here is purely about
// releasing memory.
package storage

import (
	"context"
	"log/slog"
	"time"

	"otodake/internal/entity"
)

func (stg *storage) CleanupExpiredBatches(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := stg.log.With(slog.String("action", "cleanup_expired_batches"), slog.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			stg.performCleanup(ctx)
		case <-ctx.Done():
			log.Info("cleanup expired batches stopped")

			return
		}
	}
}

func (stg *storage) performCleanup(ctx context.Context) {
	log := stg.log
	now := time.Now()

	stg.mu.Lock()
	defer stg.mu.Unlock()

	removed := 0

	for id, batch := range stg.batches {
		if !batch.ExpiresAt.Before(now) {
			continue
		}

		// queued batches still have a pending worker run, running batches
		// are mid-flight; neither is reaped until the run settles
		if batch.Status == entity.BatchStatusQueued || batch.Status == entity.BatchStatusRunning {
			continue
		}

		delete(stg.batches, id)
		removed++

		log.DebugContext(ctx, "batch cleaned up", "batch", batch)
	}

	if removed == 0 {
		log.DebugContext(ctx, "no expired batches found to clean up")

		return
	}

	stg.metrics.RecordCleanup(removed)
	stg.metrics.SetStoredBatches(len(stg.batches))

	log.InfoContext(ctx, "removed expired batches", slog.Int("count", removed))
}
