package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/civiops/helpdesk-service/internal/service"
)

// StartRetentionWorker runs the retention sweep on a timer until the context
// is cancelled. The sweep is an explicit maintenance task, not a side effect
// of read paths; one pass runs immediately at startup.
func StartRetentionWorker(ctx context.Context, retention *service.RetentionService, logger *zap.Logger, interval time.Duration) {
	if retention == nil {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		run := func() {
			if _, err := retention.Sweep(ctx, time.Now()); err != nil {
				logger.Error("retention sweep failed", zap.Error(err))
			}
		}
		run()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
