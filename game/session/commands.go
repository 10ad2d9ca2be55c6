package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tagserver/game"
	"tagserver/game/arbiter"
	"tagserver/game/geo"
	"tagserver/game/modes"
	"tagserver/models"
)

type joinCmd struct {
	player *models.Player
	reply  chan error
}

type startCmd struct {
	requesterID string
	reply       chan error
}

type tagCmd struct {
	attempt models.TagAttempt
	reply   chan tagReply
}

type tagReply struct {
	outcome TagOutcome
	err     error
}

type locationCmd struct {
	playerID string
	loc      models.Location
	reply    chan error
}

type leaveCmd struct {
	playerID string
	reply    chan error
}

type endCmd struct {
	requesterID string
	reply       chan endReply
}

type endReply struct {
	outcome *models.Outcome
	err     error
}

type snapshotCmd struct {
	reply chan View
}

// timerKind identifies a scheduled one-shot transition.
type timerKind int

const (
	timerHidePhase timerKind = iota
	timerPotato
	timerDuration
)

type timerCmd struct {
	kind timerKind
}

func (s *Session) dispatch(cmd any) {
	now := time.Now()
	switch c := cmd.(type) {
	case joinCmd:
		c.reply <- s.handleJoin(c.player, now)
	case startCmd:
		c.reply <- s.handleStart(c.requesterID, now)
	case tagCmd:
		pending := s.handleTagBatch(c, now)
		if pending != nil {
			s.dispatch(pending)
		}
	case locationCmd:
		c.reply <- s.handleLocation(c.playerID, c.loc, now)
	case leaveCmd:
		c.reply <- s.handleLeave(c.playerID, now)
	case endCmd:
		outcome, err := s.handleEnd(c.requesterID, now)
		c.reply <- endReply{outcome: outcome, err: err}
	case snapshotCmd:
		c.reply <- s.view()
	case timerCmd:
		s.handleTimer(c.kind, now)
	}
}

// failClosed answers a command that arrived after Close.
func (s *Session) failClosed(cmd any) {
	err := game.Statef("session has ended")
	switch c := cmd.(type) {
	case joinCmd:
		c.reply <- err
	case startCmd:
		c.reply <- err
	case tagCmd:
		c.reply <- tagReply{err: err}
	case locationCmd:
		c.reply <- err
	case leaveCmd:
		c.reply <- err
	case endCmd:
		c.reply <- endReply{outcome: s.state.Outcome, err: nil}
	case snapshotCmd:
		c.reply <- s.view()
	}
}

func (s *Session) handleJoin(p *models.Player, now time.Time) error {
	st := s.state
	if existing, ok := st.Players[p.ID]; ok {
		// Reconnect: restore the online flag, nothing else changes.
		if st.Status == models.StatusEnded {
			return game.Statef("session has ended")
		}
		existing.IsOnline = true
		s.publish(models.EventPlayerJoined, map[string]any{
			"playerId": existing.ID, "playerName": existing.Name, "rejoined": true,
		})
		return nil
	}
	if st.Status != models.StatusWaiting {
		return game.Statef("game already started")
	}
	if len(st.Players) >= st.Settings.MaxPlayers {
		return game.Statef("session is full")
	}
	p.IsOnline = true
	p.JoinedAt = now
	st.Players[p.ID] = p
	s.logger.Info("player joined",
		zap.String("session", s.id), zap.String("player", p.ID))
	s.publish(models.EventPlayerJoined, map[string]any{
		"playerId": p.ID, "playerName": p.Name,
	})
	return nil
}

func (s *Session) handleStart(requesterID string, now time.Time) error {
	st := s.state
	if requesterID != st.HostID {
		return game.Authorizationf("only the host can start the game")
	}
	if st.Status != models.StatusWaiting {
		return game.Statef("game already started")
	}
	if len(st.Players) < 2 {
		return game.Statef("need at least 2 players to start")
	}
	rules, ok := modes.For(st.Mode)
	if !ok {
		return game.Validationf("unknown game mode %q", st.Mode)
	}

	st.StartedAt = now
	rules.AssignRoles(st, s.rng, now)

	if st.Mode == models.ModeHideAndSeek {
		hideSec := st.Settings.HidePhaseSec
		if hideSec <= 0 {
			hideSec = defaultHidePhaseSec
		}
		st.Status = models.StatusHiding
		st.HidePhaseEndAt = now.Add(time.Duration(hideSec) * time.Second)
		s.hideTimer = s.schedule(time.Duration(hideSec)*time.Second, timerHidePhase)
	} else {
		st.Status = models.StatusActive
	}

	if st.Mode == models.ModeHotPotato {
		s.armPotato(now)
	}
	if st.Settings.DurationSec > 0 {
		s.durationTimer = s.schedule(time.Duration(st.Settings.DurationSec)*time.Second, timerDuration)
	}

	s.logger.Info("game started",
		zap.String("session", s.id), zap.String("mode", string(st.Mode)),
		zap.Int("players", len(st.Players)))
	s.publish(models.EventGameStarted, map[string]any{
		"mode": string(st.Mode), "status": string(st.Status), "itPlayerId": st.CurrentItID,
	})
	return nil
}

// handleTagBatch drains any tag commands already queued behind the first
// one and arbitrates them as a single batch. A non-tag command dequeued
// while draining is returned for dispatch after the batch resolves.
func (s *Session) handleTagBatch(first tagCmd, now time.Time) any {
	batch := []tagCmd{first}
	var pending any
collect:
	for {
		select {
		case cmd := <-s.inbox:
			if tc, ok := cmd.(tagCmd); ok {
				batch = append(batch, tc)
				continue
			}
			pending = cmd
			break collect
		default:
			break collect
		}
	}

	st := s.state
	if st.Status != models.StatusActive {
		err := game.Statef("tags are only valid while the game is active")
		for _, c := range batch {
			c.reply <- tagReply{err: err}
		}
		return pending
	}

	attempts := make([]models.TagAttempt, len(batch))
	for i, c := range batch {
		attempts[i] = c.attempt
	}
	res := arbiter.Resolve(st, attempts, now)

	if res.Record != nil {
		rules, _ := modes.For(st.Mode)
		rules.ApplyTag(st, res.Tagger, res.Target, now)
		st.Tags = append(st.Tags, *res.Record)
		if st.Mode == models.ModeHotPotato {
			s.armPotato(now)
		}
		s.logger.Info("tag accepted",
			zap.String("session", s.id),
			zap.String("tagger", res.Tagger.ID), zap.String("target", res.Target.ID))
		s.publish(models.EventTagAccepted, map[string]any{
			"tagId": res.Record.ID, "taggerId": res.Tagger.ID, "taggedId": res.Target.ID,
		})
		s.publish(models.EventRoleChanged, map[string]any{
			"itPlayerId": st.CurrentItID,
		})
		s.creditStats(res.Tagger.ID, models.StatDelta{Tags: 1})
	}

	for _, v := range res.Verdicts {
		c := batch[v.Index]
		out := TagOutcome{Accepted: v.Accepted, Reason: v.Reason}
		if v.Accepted {
			out.Record = res.Record
		} else {
			s.publish(models.EventTagRejected, map[string]any{
				"taggerId": v.Attempt.TaggerID, "reason": v.Reason,
			})
		}
		c.reply <- tagReply{outcome: out}
	}

	if res.Record != nil {
		if check := modes.ShouldEnd(st, now); check.ShouldEnd {
			s.endGame(now, check.Reason)
		}
	}
	return pending
}

func (s *Session) handleLocation(playerID string, loc models.Location, now time.Time) error {
	st := s.state
	if st.Status == models.StatusEnded {
		return game.Statef("session has ended")
	}
	p, ok := st.Players[playerID]
	if !ok {
		return game.NotFoundf("player %s not in session", playerID)
	}
	if loc.Timestamp.IsZero() {
		loc.Timestamp = now
	}
	p.Location = &loc
	return nil
}

func (s *Session) handleLeave(playerID string, now time.Time) error {
	st := s.state
	if st.Status == models.StatusEnded {
		return nil
	}
	p, ok := st.Players[playerID]
	if !ok {
		return game.NotFoundf("player %s not in session", playerID)
	}

	if st.Status == models.StatusWaiting {
		delete(st.Players, playerID)
	} else {
		p.IsOnline = false
	}
	s.logger.Info("player left",
		zap.String("session", s.id), zap.String("player", playerID))
	s.publish(models.EventPlayerLeft, map[string]any{"playerId": playerID})

	if playerID == st.HostID {
		if !s.failoverHost(playerID) {
			s.endGame(now, "no eligible host")
			return nil
		}
	}

	if st.Status != models.StatusWaiting {
		if p.IsIt && singleItMode(st.Mode) {
			p.IsIt = false
			if !s.reassignIt(playerID, now) {
				s.endGame(now, "Not enough players remaining")
				return nil
			}
		}
		if check := modes.ShouldEnd(st, now); check.ShouldEnd {
			s.endGame(now, check.Reason)
		}
	}
	return nil
}

func (s *Session) handleEnd(requesterID string, now time.Time) (*models.Outcome, error) {
	st := s.state
	if st.Status == models.StatusEnded {
		return st.Outcome, nil
	}
	// The empty requester is the engine itself (timers, registry sweep).
	if requesterID != "" && requesterID != st.HostID {
		return nil, game.Authorizationf("only the host can end the game")
	}
	s.endGame(now, "Ended by host")
	return st.Outcome, nil
}

func (s *Session) handleTimer(kind timerKind, now time.Time) {
	st := s.state
	if st.Status == models.StatusEnded {
		return
	}
	switch kind {
	case timerHidePhase:
		s.finishHidePhase(now)
	case timerPotato:
		s.explodePotato(now)
	case timerDuration:
		if check := modes.ShouldEnd(st, now); check.ShouldEnd {
			s.endGame(now, check.Reason)
		}
	}
}

// handleTick runs the per-second housekeeping: hill-time accrual, the
// hiding-phase deadline backstop, and the periodic end-condition check.
func (s *Session) handleTick(now time.Time) {
	st := s.state
	switch st.Status {
	case models.StatusHiding:
		if !st.HidePhaseEndAt.IsZero() && !now.Before(st.HidePhaseEndAt) {
			s.finishHidePhase(now)
		}
	case models.StatusActive:
		if st.Mode == models.ModeKingOfTheHill && st.Settings.Hill != nil {
			for _, p := range st.Players {
				if p.IsOnline && !p.IsEliminated && geo.InZone(p.Location, *st.Settings.Hill) {
					p.HillTime += tickInterval
				}
			}
		}
		if check := modes.ShouldEnd(st, now); check.ShouldEnd {
			s.endGame(now, check.Reason)
		}
	}
}

func (s *Session) finishHidePhase(now time.Time) {
	st := s.state
	if st.Status != models.StatusHiding {
		return
	}
	st.Status = models.StatusActive
	s.logger.Info("hiding phase over", zap.String("session", s.id))
	s.publish(models.EventPhaseChanged, map[string]any{"status": string(st.Status)})
}

// explodePotato eliminates the holder when the fuse runs out, then hands
// the potato to a random survivor or ends the game.
func (s *Session) explodePotato(now time.Time) {
	st := s.state
	if st.Mode != models.ModeHotPotato || st.Status != models.StatusActive {
		return
	}
	// A pass may have reset the fuse after this timer was armed.
	if now.Before(st.PotatoExpiresAt) {
		return
	}
	holder, ok := st.Players[st.CurrentItID]
	if !ok {
		return
	}
	holder.IsIt = false
	holder.IsEliminated = true
	s.logger.Info("potato expired",
		zap.String("session", s.id), zap.String("player", holder.ID))
	s.publish(models.EventRoleChanged, map[string]any{
		"eliminated": holder.ID, "reason": "potato expired",
	})

	if check := modes.ShouldEnd(st, now); check.ShouldEnd {
		s.endGame(now, check.Reason)
		return
	}
	if !s.reassignIt(holder.ID, now) {
		s.endGame(now, "Not enough players remaining")
		return
	}
	s.armPotato(now)
}

// reassignIt hands the IT role to a random online survivor other than
// excludeID. Returns false when nobody is eligible.
func (s *Session) reassignIt(excludeID string, now time.Time) bool {
	st := s.state
	var eligible []*models.Player
	for _, p := range st.Players {
		if p.ID != excludeID && p.IsOnline && !p.IsEliminated {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return false
	}
	// Map order is random but not seedable; sort for a deterministic pick.
	sortByJoin(eligible)
	next := eligible[s.rng.Intn(len(eligible))]
	next.IsIt = true
	next.BecameItAt = now
	st.CurrentItID = next.ID
	s.publish(models.EventRoleChanged, map[string]any{"itPlayerId": next.ID})
	return true
}

// armPotato (re)schedules the hot-potato fuse.
func (s *Session) armPotato(now time.Time) {
	st := s.state
	fuse := st.Settings.PotatoSec
	if fuse <= 0 {
		fuse = 30
	}
	st.PotatoExpiresAt = now.Add(time.Duration(fuse) * time.Second)
	if s.potatoTimer != nil {
		s.potatoTimer.Stop()
	}
	s.potatoTimer = s.schedule(time.Duration(fuse)*time.Second, timerPotato)
}

// schedule arms a one-shot timer that feeds back into the mailbox, so
// timer-driven transitions obey the same single-writer discipline as
// external requests.
func (s *Session) schedule(d time.Duration, kind timerKind) *time.Timer {
	return time.AfterFunc(d, func() {
		select {
		case s.inbox <- timerCmd{kind: kind}:
		case <-s.quit:
		}
	})
}

// endGame performs the single transition to ended: winner computation,
// timer cancellation, fire-and-forget persistence and the final broadcast.
func (s *Session) endGame(now time.Time, reason string) {
	st := s.state
	if st.Status == models.StatusEnded {
		return
	}
	outcome := modes.DetermineWinner(st, now)
	st.Status = models.StatusEnded
	st.EndedAt = now
	st.Outcome = &outcome
	s.stopTimers()

	s.logger.Info("game ended",
		zap.String("session", s.id), zap.String("reason", reason),
		zap.String("winner", outcome.WinnerName))
	s.publish(models.EventGameEnded, map[string]any{
		"reason":     reason,
		"winnerId":   outcome.WinnerID,
		"winnerName": outcome.WinnerName,
		"winReason":  outcome.Reason,
	})

	s.persistResult(outcome)
	if s.onEnded != nil {
		s.onEnded(s.id, s.code)
	}
}

// persistResult writes the summary and stat deltas without blocking the
// actor. Persistence failure only loses the durability side effect.
func (s *Session) persistResult(outcome models.Outcome) {
	if s.deps.Store == nil {
		return
	}
	// The state is frozen once ended, so handing the struct to the
	// persistence goroutine is safe.
	store := s.deps.Store
	logger := s.logger
	st := s.state
	playerIDs := make([]string, 0, len(st.Players))
	for id := range st.Players {
		playerIDs = append(playerIDs, id)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := store.RecordGameResult(ctx, st, &outcome); err != nil {
			logger.Error("failed to record game result",
				zap.String("session", st.ID), zap.Error(err))
		}
		for _, id := range playerIDs {
			delta := models.StatDelta{Games: 1}
			if id == outcome.WinnerID {
				delta.Wins = 1
			}
			if err := store.CreditPlayerStats(ctx, id, delta); err != nil {
				logger.Error("failed to credit player stats",
					zap.String("player", id), zap.Error(err))
			}
		}
	}()
}

func (s *Session) creditStats(playerID string, delta models.StatDelta) {
	if s.deps.Store == nil {
		return
	}
	store := s.deps.Store
	logger := s.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := store.CreditPlayerStats(ctx, playerID, delta); err != nil {
			logger.Error("failed to credit player stats",
				zap.String("player", playerID), zap.Error(err))
		}
	}()
}

func (s *Session) stopTimers() {
	for _, t := range []*time.Timer{s.hideTimer, s.potatoTimer, s.durationTimer} {
		if t != nil {
			t.Stop()
		}
	}
}

func (s *Session) publish(t models.EventType, payload map[string]any) {
	s.deps.Broadcast.Publish(s.id, models.NewEvent(t, s.id, payload))
}

// singleItMode reports whether exactly one live player holds IT while the
// game is active.
func singleItMode(m models.GameMode) bool {
	switch m {
	case models.ModeClassic, models.ModeManhunt, models.ModeHideAndSeek, models.ModeHotPotato:
		return true
	}
	return false
}
