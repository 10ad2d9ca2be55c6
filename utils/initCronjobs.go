package utils

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tagserver/database"
	"tagserver/game/registry"
)

const (
	endedSessionGrace = 10 * time.Minute
	resultRetention   = 30 * 24 * time.Hour
)

// CronCleaner runs the periodic housekeeping: dropping ended sessions
// from the registry after a grace period, and purging aged result rows.
func CronCleaner(reg *registry.Registry, store *database.Store, logger *zap.Logger) {
	c := cron.New()

	// Ended sessions stay visible for a short while so clients can fetch
	// the final state, then get dropped and their codes freed.
	c.AddFunc("@every 1m", func() {
		if removed := reg.SweepEnded(endedSessionGrace); removed > 0 {
			logger.Info("removed ended sessions", zap.Int("count", removed))
		}
	})

	// Nightly purge of old game results.
	c.AddFunc("0 3 * * *", func() {
		if store == nil {
			return
		}
		deleted, err := store.PurgeOldResults(resultRetention)
		if err != nil {
			logger.Error("failed to purge old game results", zap.Error(err))
			return
		}
		logger.Info("purged old game results", zap.Int64("rows_deleted", deleted))
	})

	c.Start()
}
