// Package session implements the state machine for one live game. Each
// session runs a single goroutine that owns all mutable state; external
// callers and timers alike enqueue commands into its mailbox, so no two
// mutations ever interleave.
package session

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tagserver/game"
	"tagserver/models"
)

// Permission-check action names passed to the abuse/rate-limit service.
const (
	ActionJoin     = "join"
	ActionStart    = "start"
	ActionTag      = "tag"
	ActionLocation = "location"
)

const (
	inboxSize           = 64
	tickInterval        = time.Second
	defaultHidePhaseSec = 60
	permissionTimeout   = 2 * time.Second
	persistTimeout      = 5 * time.Second
)

// Deps are the session's external collaborators. All of them are
// interfaces; slow implementations must be time-bounded so they cannot
// stall the mailbox.
type Deps struct {
	Permissions game.PermissionChecker
	Store       game.ResultStore
	Broadcast   game.Broadcaster
}

// TagOutcome is what a submitting client learns about its attempt. A
// rejected attempt is a defined arbitration result, not an error.
type TagOutcome struct {
	Accepted bool              `json:"accepted"`
	Reason   string            `json:"reason,omitempty"`
	Record   *models.TagRecord `json:"record,omitempty"`
}

// Session is the handle to one live game's actor goroutine.
type Session struct {
	id   string
	code string

	state  *models.Session
	inbox  chan any
	quit   chan struct{}
	rng    *rand.Rand
	logger *zap.Logger
	deps   Deps

	hideTimer     *time.Timer
	potatoTimer   *time.Timer
	durationTimer *time.Timer

	// onEnded is invoked once, after the transition to ended, so the
	// registry can schedule removal.
	onEnded func(id, code string)
}

// New creates a session in waiting state with the host as sole player and
// starts its actor goroutine. Settings must already be validated.
func New(host *models.Player, mode models.GameMode, settings models.SessionSettings,
	code string, deps Deps, logger *zap.Logger, onEnded func(id, code string)) *Session {

	now := time.Now()
	host.IsOnline = true
	host.JoinedAt = now

	if deps.Permissions == nil {
		deps.Permissions = game.AllowAll{}
	}
	if deps.Broadcast == nil {
		deps.Broadcast = game.NopBroadcaster{}
	}

	s := &Session{
		id:   uuid.NewString(),
		code: code,
		state: &models.Session{
			Code:      code,
			HostID:    host.ID,
			HostName:  host.Name,
			Mode:      mode,
			Status:    models.StatusWaiting,
			Settings:  settings,
			Players:   map[string]*models.Player{host.ID: host},
			CreatedAt: now,
		},
		inbox:   make(chan any, inboxSize),
		quit:    make(chan struct{}),
		rng:     rand.New(rand.NewSource(now.UnixNano())),
		logger:  logger,
		deps:    deps,
		onEnded: onEnded,
	}
	s.state.ID = s.id
	go s.run()
	return s
}

// ID returns the session id. Immutable, safe from any goroutine.
func (s *Session) ID() string { return s.id }

// Code returns the join code. Immutable, safe from any goroutine.
func (s *Session) Code() string { return s.code }

// Close stops the actor goroutine. Pending commands fail with a state
// error; the registry calls this when dropping an ended session.
func (s *Session) Close() {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
}

// run is the actor loop: the only goroutine that touches s.state.
func (s *Session) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			s.drainInbox()
			return
		case cmd := <-s.inbox:
			s.dispatch(cmd)
		case now := <-ticker.C:
			s.handleTick(now)
		}
	}
}

// drainInbox answers commands that raced with Close.
func (s *Session) drainInbox() {
	for {
		select {
		case cmd := <-s.inbox:
			s.failClosed(cmd)
		default:
			return
		}
	}
}

// enqueue submits a command and waits for the actor to pick it up.
func (s *Session) enqueue(ctx context.Context, cmd any) error {
	select {
	case s.inbox <- cmd:
		return nil
	case <-s.quit:
		return game.Statef("session has ended")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// checkPermission consults the abuse service before a mutating operation.
// Checker failures fail open: the game keeps running without the limiter.
func (s *Session) checkPermission(ctx context.Context, actorID, action string) error {
	ctx, cancel := context.WithTimeout(ctx, permissionTimeout)
	defer cancel()
	dec, err := s.deps.Permissions.Allow(ctx, actorID, action)
	if err != nil {
		s.logger.Warn("permission check failed, allowing",
			zap.String("session", s.id), zap.String("action", action), zap.Error(err))
		return nil
	}
	if !dec.Allowed {
		return game.RateLimited(action, dec.RetryAfter)
	}
	return nil
}

// Join adds a player to the roster, or restores an existing player's
// online flag after a reconnect.
func (s *Session) Join(ctx context.Context, player *models.Player) error {
	if err := s.checkPermission(ctx, player.ID, ActionJoin); err != nil {
		return err
	}
	cmd := joinCmd{player: player, reply: make(chan error, 1)}
	if err := s.enqueue(ctx, cmd); err != nil {
		return err
	}
	return s.await(ctx, cmd.reply)
}

// Start begins the game. Host only; needs at least two players.
func (s *Session) Start(ctx context.Context, requesterID string) error {
	if err := s.checkPermission(ctx, requesterID, ActionStart); err != nil {
		return err
	}
	cmd := startCmd{requesterID: requesterID, reply: make(chan error, 1)}
	if err := s.enqueue(ctx, cmd); err != nil {
		return err
	}
	return s.await(ctx, cmd.reply)
}

// SubmitTag arbitrates one tag attempt against current state. Attempts
// already queued in the mailbox at dispatch time are resolved as one
// batch, earliest client timestamp first.
func (s *Session) SubmitTag(ctx context.Context, attempt models.TagAttempt) (TagOutcome, error) {
	if err := s.checkPermission(ctx, attempt.TaggerID, ActionTag); err != nil {
		return TagOutcome{}, err
	}
	cmd := tagCmd{attempt: attempt, reply: make(chan tagReply, 1)}
	if err := s.enqueue(ctx, cmd); err != nil {
		return TagOutcome{}, err
	}
	select {
	case r := <-cmd.reply:
		return r.outcome, r.err
	case <-ctx.Done():
		return TagOutcome{}, ctx.Err()
	}
}

// UpdateLocation refreshes a player's last known position.
func (s *Session) UpdateLocation(ctx context.Context, playerID string, loc models.Location) error {
	if err := s.checkPermission(ctx, playerID, ActionLocation); err != nil {
		return err
	}
	cmd := locationCmd{playerID: playerID, loc: loc, reply: make(chan error, 1)}
	if err := s.enqueue(ctx, cmd); err != nil {
		return err
	}
	return s.await(ctx, cmd.reply)
}

// Leave marks a player gone, running host failover and IT reassignment as
// needed.
func (s *Session) Leave(ctx context.Context, playerID string) error {
	cmd := leaveCmd{playerID: playerID, reply: make(chan error, 1)}
	if err := s.enqueue(ctx, cmd); err != nil {
		return err
	}
	return s.await(ctx, cmd.reply)
}

// End forces the game to its terminal state, computing the winner.
// Idempotent: ending an ended session returns the stored outcome.
func (s *Session) End(ctx context.Context, requesterID string) (*models.Outcome, error) {
	cmd := endCmd{requesterID: requesterID, reply: make(chan endReply, 1)}
	if err := s.enqueue(ctx, cmd); err != nil {
		return nil, err
	}
	select {
	case r := <-cmd.reply:
		return r.outcome, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Snapshot returns a copy of the session's externally visible state.
func (s *Session) Snapshot(ctx context.Context) (View, error) {
	cmd := snapshotCmd{reply: make(chan View, 1)}
	if err := s.enqueue(ctx, cmd); err != nil {
		return View{}, err
	}
	select {
	case v := <-cmd.reply:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (s *Session) await(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
