package cleanup

import (
	"context"
	"time"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/clock"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/observability/metrics"
)

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// StartRefreshTokenCleanup deletes expired refresh-token rows every interval until
// ctx is cancelled. It blocks; run it in its own goroutine.
func StartRefreshTokenCleanup(ctx context.Context, repo ExpiredDeleter, c clock.Clock, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		interval = constants.RefreshTokenCleanupInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("refresh token cleanup stopped")
			return
		case <-ticker.C:
			RunOnce(ctx, repo, c, log)
		}
	}
}

func RunOnce(ctx context.Context, repo ExpiredDeleter, c clock.Clock, log *logger.Logger) int64 {
	deleted, err := repo.DeleteExpired(ctx, c.Now())
	if err != nil {
		log.Errorf("refresh token cleanup failed: %v", err)
		return 0
	}
	if deleted > 0 {
		metrics.RefreshTokensCleanupDeleted.Add(float64(deleted))
		log.Infof("refresh token cleanup: deleted %d expired tokens", deleted)
	}
	return deleted
}
