// Package registry owns the collection of live sessions. It routes
// external calls to the right session actor and guarantees join codes stay
// unique among live sessions. The registry itself only guards its maps;
// per-session serialization is the session actor's job.
package registry

import (
	"context"
	crand "crypto/rand"
	"math/big"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tagserver/game"
	"tagserver/game/session"
	"tagserver/models"
)

// codeAlphabet avoids characters players confuse when reading codes aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed join-code length.
const CodeLength = 6

// Registry is the set of live sessions keyed by id and join code.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*session.Session
	byCode map[string]*session.Session
	ended  map[string]time.Time // session id -> end time, for the sweeper

	deps   session.Deps
	logger *zap.Logger
}

// New creates an empty registry.
func New(deps session.Deps, logger *zap.Logger) *Registry {
	return &Registry{
		byID:   make(map[string]*session.Session),
		byCode: make(map[string]*session.Session),
		ended:  make(map[string]time.Time),
		deps:   deps,
		logger: logger,
	}
}

// CreateSession validates settings, reserves a unique join code and spins
// up a new session actor with the host as sole player.
func (r *Registry) CreateSession(ctx context.Context, host *models.Player,
	mode models.GameMode, settings models.SessionSettings) (*session.Session, error) {

	normalized, err := session.ValidateSettings(mode, settings)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	code := r.uniqueCodeLocked()
	s := session.New(host, mode, normalized, code, r.deps, r.logger, r.markEnded)
	r.byID[s.ID()] = s
	r.byCode[code] = s
	r.logger.Info("session created",
		zap.String("session", s.ID()), zap.String("code", code),
		zap.String("mode", string(mode)), zap.String("host", host.ID))
	return s, nil
}

// Get returns the live session with the given id.
func (r *Registry) Get(id string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, game.NotFoundf("session %s not found", id)
	}
	return s, nil
}

// GetByCode returns the live session with the given join code. Lookup is
// case-insensitive: input is upper-cased before matching.
func (r *Registry) GetByCode(code string) (*session.Session, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byCode[code]
	if !ok {
		return nil, game.NotFoundf("no session with code %s", code)
	}
	return s, nil
}

// Count returns the number of registered sessions, ended ones included
// until the sweeper drops them.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Remove stops a session's actor and releases its id and code.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(id)
}

// SweepEnded drops sessions that ended more than grace ago, returning how
// many were removed. Called from the cron scheduler.
func (r *Registry) SweepEnded(grace time.Duration) int {
	cutoff := time.Now().Add(-grace)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, endedAt := range r.ended {
		if endedAt.After(cutoff) {
			continue
		}
		r.removeLocked(id)
		removed++
	}
	if removed > 0 {
		r.logger.Info("swept ended sessions", zap.Int("removed", removed))
	}
	return removed
}

// markEnded is handed to each session as its onEnded callback. It runs on
// the session's actor goroutine, so it only records the timestamp.
func (r *Registry) markEnded(id, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; ok {
		r.ended[id] = time.Now()
	}
}

func (r *Registry) removeLocked(id string) {
	s, ok := r.byID[id]
	if !ok {
		return
	}
	s.Close()
	delete(r.byID, id)
	delete(r.byCode, s.Code())
	delete(r.ended, id)
}

// uniqueCodeLocked draws codes until one is free among live sessions.
func (r *Registry) uniqueCodeLocked() string {
	for {
		code := generateCode(CodeLength)
		if _, exists := r.byCode[code]; !exists {
			return code
		}
	}
}

// generateCode builds a random code, preferring crypto/rand with a
// math/rand fallback.
func generateCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := crand.Int(crand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
			continue
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b)
}
