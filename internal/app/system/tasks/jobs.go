// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/store/confirmations"
	"github.com/dalemusser/fiveplanner/internal/app/store/oauthstate"
	"github.com/dalemusser/fiveplanner/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// ConfirmationCleanupJob removes confirmation tickets nobody answered.
func ConfirmationCleanupJob(store *confirmations.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "confirmation-cleanup",
		Interval: 15 * time.Minute,
		Run: func(ctx context.Context) error {
			count, err := store.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired confirmation tickets", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// RateLimitSweepJob drops idle rate-limit buckets.
func RateLimitSweepJob(logger *zap.Logger, limiters ...*ratelimit.Limiter) Job {
	return Job{
		Name:     "ratelimit-sweep",
		Interval: 5 * time.Minute,
		Run: func(ctx context.Context) error {
			total := 0
			for _, l := range limiters {
				total += l.Sweep()
			}
			if total > 0 {
				logger.Debug("swept idle rate-limit buckets", zap.Int("count", total))
			}
			return nil
		},
	}
}
