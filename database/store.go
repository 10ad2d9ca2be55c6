package database

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tagserver/models"
)

// Store persists game results and player stats. It implements
// game.ResultStore; the engine calls it fire-and-forget, so every method
// must respect its context deadline.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore wraps a GORM handle.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// RecordGameResult writes the summary row for a finished session. Writing
// the same session twice is a no-op thanks to the unique index.
func (s *Store) RecordGameResult(ctx context.Context, sess *models.Session, outcome *models.Outcome) error {
	duration := 0
	if !sess.StartedAt.IsZero() && !sess.EndedAt.IsZero() {
		duration = int(sess.EndedAt.Sub(sess.StartedAt) / time.Second)
	}
	row := models.GameResult{
		SessionID:   sess.ID,
		Code:        sess.Code,
		Mode:        string(sess.Mode),
		PlayerCount: len(sess.Players),
		TagCount:    len(sess.Tags),
		DurationSec: duration,
	}
	if outcome != nil {
		row.WinnerID = outcome.WinnerID
		row.WinnerName = outcome.WinnerName
		row.Reason = outcome.Reason
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(&row).Error
}

// CreditPlayerStats applies one delta to a player's running totals,
// creating the row on first sight.
func (s *Store) CreditPlayerStats(ctx context.Context, playerID string, delta models.StatDelta) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.PlayerStat{}).
		Where("player_id = ?", playerID).
		Updates(map[string]any{
			"tags":  gorm.Expr("tags + ?", delta.Tags),
			"wins":  gorm.Expr("wins + ?", delta.Wins),
			"games": gorm.Expr("games + ?", delta.Games),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		row := models.PlayerStat{
			PlayerID: playerID,
			Tags:     delta.Tags,
			Wins:     delta.Wins,
			Games:    delta.Games,
		}
		return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	}
	return nil
}

// PurgeOldResults deletes result rows older than the retention window.
// Called from the cron scheduler.
func (s *Store) PurgeOldResults(olderThan time.Duration) (int64, error) {
	res := s.db.Unscoped().
		Where("created_at <= ?", time.Now().Add(-olderThan)).
		Delete(&models.GameResult{})
	return res.RowsAffected, res.Error
}
