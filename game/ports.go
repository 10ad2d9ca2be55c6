package game

import (
	"context"
	"time"

	"tagserver/models"
)

// Decision is the result of a permission/abuse check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// PermissionChecker is consulted before join/start/tag/location operations.
// A denial surfaces as a KindRateLimited error; it never mutates state.
type PermissionChecker interface {
	Allow(ctx context.Context, actorID, action string) (Decision, error)
}

// ResultStore persists game outcomes and player stats. Calls are
// fire-and-forget from the engine's perspective: failure is logged, never
// rolled back into game state.
type ResultStore interface {
	RecordGameResult(ctx context.Context, s *models.Session, outcome *models.Outcome) error
	CreditPlayerStats(ctx context.Context, playerID string, delta models.StatDelta) error
}

// Broadcaster fans engine events out to connected clients. The engine does
// not know about sockets or HTTP.
type Broadcaster interface {
	Publish(sessionID string, ev models.Event)
}

// NopBroadcaster discards events. Used when no transport is attached.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(string, models.Event) {}

// AllowAll is a PermissionChecker that never denies. Used in tests and when
// no rate limiter is configured.
type AllowAll struct{}

func (AllowAll) Allow(context.Context, string, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}
