// Package modes is the rule table for the nine game modes. Each mode
// supplies its initial role assignment, tag permission rule, tag effect,
// winner function and end-condition predicate. Adding a mode is a pure
// data addition to the table; the state machine dispatches through it and
// contains no per-mode branching.
package modes

import (
	"math/rand"
	"sort"
	"time"

	"tagserver/models"
)

// EndCheck is the result of an end-condition evaluation.
type EndCheck struct {
	ShouldEnd bool
	Reason    string
}

// Ruleset bundles the per-mode rule functions. All functions operate on
// session state owned by the calling goroutine; none of them block.
type Ruleset struct {
	// AssignRoles sets initial roles at game start.
	AssignRoles func(s *models.Session, rng *rand.Rand, now time.Time)
	// CanTag is the mode's permission rule. It assumes the generic target
	// checks (eliminated, geofence, radius) already passed and returns a
	// reason when the tag is not permitted.
	CanTag func(s *models.Session, tagger, target *models.Player) (bool, string)
	// ApplyTag applies the mode's tag effect to the roster.
	ApplyTag func(s *models.Session, tagger, target *models.Player, now time.Time)
	// Winner picks the final outcome when the session ends.
	Winner func(s *models.Session, now time.Time) models.Outcome
	// End is the mode-specific end condition, evaluated after every tag
	// and on each session tick. Generic conditions (duration, too few
	// players) are checked by ShouldEnd before this.
	End func(s *models.Session, now time.Time) EndCheck
}

// ProtectsFrozen reports whether frozen players are shielded from tags in
// the given mode. freezeTag is the exception: frozen players must remain
// taggable so teammates can thaw them.
func ProtectsFrozen(mode models.GameMode) bool {
	return mode != models.ModeFreezeTag
}

var table = map[models.GameMode]Ruleset{
	models.ModeClassic: {
		AssignRoles: assignSingleIt,
		CanTag:      itOnly,
		ApplyTag:    transferIt,
		Winner:      longestSurvivor,
		End:         noExtraEnd,
	},
	models.ModeManhunt: {
		AssignRoles: assignSingleIt,
		CanTag:      itOnly,
		ApplyTag:    transferIt,
		Winner:      longestSurvivor,
		End:         noExtraEnd,
	},
	models.ModeFreezeTag: {
		AssignRoles: assignSingleIt,
		CanTag:      freezeTagPermission,
		ApplyTag:    freezeOrThaw,
		Winner:      freezeTagWinner,
		End:         freezeTagEnd,
	},
	models.ModeInfection: {
		AssignRoles: assignSingleIt,
		CanTag:      itOnly,
		ApplyTag:    infect,
		Winner:      infectionWinner,
		End:         infectionEnd,
	},
	models.ModeTeamTag: {
		AssignRoles: assignTeams,
		CanTag:      crossTeamOnly,
		ApplyTag:    eliminateAndScore,
		Winner:      teamWinner,
		End:         teamEnd,
	},
	models.ModeHotPotato: {
		AssignRoles: assignSingleIt,
		CanTag:      anyAlive,
		ApplyTag:    passPotato,
		Winner:      lastStanding,
		End:         lastStandingEnd,
	},
	models.ModeHideAndSeek: {
		AssignRoles: assignSingleIt,
		CanTag:      itOnly,
		ApplyTag:    eliminateAndScore,
		Winner:      hideAndSeekWinner,
		End:         hideAndSeekEnd,
	},
	models.ModeAssassin: {
		AssignRoles: assignAssassinChain,
		CanTag:      assignedTargetOnly,
		ApplyTag:    assassinate,
		Winner:      lastStanding,
		End:         lastStandingEnd,
	},
	models.ModeBattleRoyale: {
		AssignRoles: assignNone,
		CanTag:      anyAlive,
		ApplyTag:    eliminateAndScore,
		Winner:      lastStanding,
		End:         lastStandingEnd,
	},
	models.ModeKingOfTheHill: {
		AssignRoles: assignNone,
		CanTag:      anyAlive,
		ApplyTag:    contestHill,
		Winner:      hillWinner,
		End:         hillEnd,
	},
}

// For returns the ruleset for a mode.
func For(mode models.GameMode) (Ruleset, bool) {
	r, ok := table[mode]
	return r, ok
}

// Known reports whether mode is a supported game mode.
func Known(mode models.GameMode) bool {
	_, ok := table[mode]
	return ok
}

// ShouldEnd evaluates the generic end conditions shared by every mode,
// then the mode-specific predicate.
func ShouldEnd(s *models.Session, now time.Time) EndCheck {
	if s.Settings.DurationSec > 0 && !s.StartedAt.IsZero() &&
		now.Sub(s.StartedAt) >= time.Duration(s.Settings.DurationSec)*time.Second {
		return EndCheck{ShouldEnd: true, Reason: "Time limit reached"}
	}
	if s.ActiveCount() < 2 {
		return EndCheck{ShouldEnd: true, Reason: "Not enough players remaining"}
	}
	r, ok := table[s.Mode]
	if !ok {
		return EndCheck{}
	}
	return r.End(s, now)
}

// DetermineWinner computes the final outcome for the session's mode.
func DetermineWinner(s *models.Session, now time.Time) models.Outcome {
	r, ok := table[s.Mode]
	if !ok {
		return models.Outcome{Reason: "Game ended"}
	}
	return r.Winner(s, now)
}

// sorted returns the roster ordered by join time (id as tie-break) so that
// random picks and fallbacks are deterministic for a given rng seed.
func sorted(s *models.Session) []*models.Player {
	ps := make([]*models.Player, 0, len(s.Players))
	for _, p := range s.Players {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].JoinedAt.Equal(ps[j].JoinedAt) {
			return ps[i].JoinedAt.Before(ps[j].JoinedAt)
		}
		return ps[i].ID < ps[j].ID
	})
	return ps
}

func alive(p *models.Player) bool { return !p.IsEliminated }
