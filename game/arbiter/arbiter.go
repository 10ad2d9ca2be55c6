// Package arbiter resolves batches of concurrently submitted tag attempts
// into at most one authoritative tag. Attempts are ordered by their client
// timestamp so the earliest claim wins, not whichever packet reached the
// server first.
package arbiter

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"tagserver/game/geo"
	"tagserver/game/modes"
	"tagserver/models"
)

// Verdict is the per-attempt outcome of one arbitration pass. Index refers
// back to the attempt's position in the submitted batch so callers can
// answer each submitter individually.
type Verdict struct {
	Index    int
	Attempt  models.TagAttempt
	Accepted bool
	Reason   string // rejection reason; empty when accepted
}

// Result is the outcome of arbitrating one batch. At most one attempt is
// accepted; Record is nil when the whole batch failed validation.
type Result struct {
	Record   *models.TagRecord
	Tagger   *models.Player
	Target   *models.Player
	Verdicts []Verdict
}

// Reasons a batch or attempt can fail. Losing an arbitration is not an
// error, so these travel as plain strings in Verdicts.
const (
	ReasonSuperseded     = "superseded by an earlier tag"
	ReasonUnknownTagger  = "unknown tagger"
	ReasonUnknownTarget  = "unknown target"
	ReasonSelfTag        = "cannot tag yourself"
	ReasonTaggerOut      = "tagger is eliminated"
	ReasonTargetOut      = "target is eliminated"
	ReasonTargetFrozen   = "target is frozen"
	ReasonProtectedZone  = "target is inside a no-tag zone"
	ReasonProtectedTime  = "tags are disabled during this time window"
	ReasonOutOfRange     = "target is out of tag range"
)

// Resolve arbitrates a batch against the current session state. It does
// not mutate the session; the caller applies the mode's tag effect for an
// accepted record. If no attempt validates the Result carries a nil Record
// and a reason per attempt.
func Resolve(s *models.Session, attempts []models.TagAttempt, now time.Time) Result {
	order := make([]int, len(attempts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return attempts[order[i]].Timestamp.Before(attempts[order[j]].Timestamp)
	})

	res := Result{Verdicts: make([]Verdict, 0, len(attempts))}
	for _, idx := range order {
		att := attempts[idx]
		if res.Record != nil {
			res.Verdicts = append(res.Verdicts, Verdict{Index: idx, Attempt: att, Reason: ReasonSuperseded})
			continue
		}
		if reason := validate(s, att, now); reason != "" {
			res.Verdicts = append(res.Verdicts, Verdict{Index: idx, Attempt: att, Reason: reason})
			continue
		}
		tagger := s.Players[att.TaggerID]
		target := s.Players[att.TaggedID]
		rec := models.TagRecord{
			ID:        uuid.NewString(),
			TaggerID:  tagger.ID,
			TaggedID:  target.ID,
			Timestamp: now,
			Location:  att.Location,
		}
		if tagger.IsIt && !tagger.BecameItAt.IsZero() {
			rec.TagTime = now.Sub(tagger.BecameItAt)
		}
		res.Record = &rec
		res.Tagger = tagger
		res.Target = target
		res.Verdicts = append(res.Verdicts, Verdict{Index: idx, Attempt: att, Accepted: true})
	}
	return res
}

// validate runs the generic target checks and the mode permission rule,
// returning a rejection reason or "".
func validate(s *models.Session, att models.TagAttempt, now time.Time) string {
	tagger, ok := s.Players[att.TaggerID]
	if !ok {
		return ReasonUnknownTagger
	}
	target, ok := s.Players[att.TaggedID]
	if !ok {
		return ReasonUnknownTarget
	}
	if tagger.ID == target.ID {
		return ReasonSelfTag
	}
	if tagger.IsEliminated {
		return ReasonTaggerOut
	}
	if target.IsEliminated {
		return ReasonTargetOut
	}
	if target.IsFrozen && modes.ProtectsFrozen(s.Mode) {
		return ReasonTargetFrozen
	}
	if geo.InAnyZone(target.Location, s.Settings.NoTagZones) {
		return ReasonProtectedZone
	}
	if geo.InAnyWindow(now, s.Settings.NoTagWindows) {
		return ReasonProtectedTime
	}

	// Proximity is enforced when both sides have a known position. The
	// attempt's own fix, when present, stands in for the tagger's last
	// reported one.
	taggerLoc := tagger.Location
	if att.Location != nil {
		taggerLoc = att.Location
	}
	if taggerLoc != nil && target.Location != nil &&
		!geo.WithinRadius(taggerLoc, target.Location, s.Settings.TagRadius) {
		return ReasonOutOfRange
	}

	rules, ok := modes.For(s.Mode)
	if !ok {
		return "unknown game mode"
	}
	if allowed, reason := rules.CanTag(s, tagger, target); !allowed {
		return reason
	}
	return ""
}
