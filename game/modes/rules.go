package modes

import (
	"math/rand"
	"time"

	"tagserver/models"
)

// ---- role assignment ----

// assignSingleIt marks one random player as IT. Used by every single-IT
// mode; hideAndSeek treats the IT player as the seeker, infection as
// patient zero.
func assignSingleIt(s *models.Session, rng *rand.Rand, now time.Time) {
	ps := sorted(s)
	it := ps[rng.Intn(len(ps))]
	it.IsIt = true
	it.BecameItAt = now
	s.CurrentItID = it.ID
}

// assignTeams deals players alternately onto red and blue after a shuffle.
func assignTeams(s *models.Session, rng *rand.Rand, now time.Time) {
	ps := sorted(s)
	rng.Shuffle(len(ps), func(i, j int) { ps[i], ps[j] = ps[j], ps[i] })
	for i, p := range ps {
		if i%2 == 0 {
			p.Team = models.TeamRed
		} else {
			p.Team = models.TeamBlue
		}
	}
}

// assignAssassinChain shuffles the roster into a single cycle and gives
// each player the next one as target.
func assignAssassinChain(s *models.Session, rng *rand.Rand, now time.Time) {
	ps := sorted(s)
	rng.Shuffle(len(ps), func(i, j int) { ps[i], ps[j] = ps[j], ps[i] })
	for i, p := range ps {
		p.AssassinTargetID = ps[(i+1)%len(ps)].ID
	}
}

func assignNone(*models.Session, *rand.Rand, time.Time) {}

// ---- permission rules ----

func itOnly(s *models.Session, tagger, target *models.Player) (bool, string) {
	if !tagger.IsIt {
		return false, "tagger does not hold the IT role"
	}
	return true, ""
}

func crossTeamOnly(s *models.Session, tagger, target *models.Player) (bool, string) {
	if tagger.IsEliminated {
		return false, "tagger is eliminated"
	}
	if tagger.Team == target.Team {
		return false, "cannot tag your own team"
	}
	return true, ""
}

func assignedTargetOnly(s *models.Session, tagger, target *models.Player) (bool, string) {
	if tagger.IsEliminated {
		return false, "tagger is eliminated"
	}
	if tagger.AssassinTargetID != target.ID {
		return false, "not your assigned target"
	}
	return true, ""
}

func anyAlive(s *models.Session, tagger, target *models.Player) (bool, string) {
	if tagger.IsEliminated {
		return false, "tagger is eliminated"
	}
	return true, ""
}

// freezeTagPermission: IT freezes runners; runners thaw frozen teammates.
func freezeTagPermission(s *models.Session, tagger, target *models.Player) (bool, string) {
	if tagger.IsEliminated {
		return false, "tagger is eliminated"
	}
	if tagger.IsIt {
		if target.IsIt {
			return false, "cannot freeze another IT"
		}
		if target.IsFrozen {
			return false, "target is already frozen"
		}
		return true, ""
	}
	if tagger.IsFrozen {
		return false, "frozen players cannot tag"
	}
	if !target.IsFrozen || target.IsIt {
		return false, "only frozen teammates can be thawed"
	}
	return true, ""
}

// ---- tag effects ----

// transferIt moves the IT role from tagger to target.
func transferIt(s *models.Session, tagger, target *models.Player, now time.Time) {
	tagger.IsIt = false
	tagger.TagCount++
	target.IsIt = true
	target.BecameItAt = now
	s.CurrentItID = target.ID
}

// passPotato is transferIt plus a fresh fuse.
func passPotato(s *models.Session, tagger, target *models.Player, now time.Time) {
	transferIt(s, tagger, target, now)
	s.PotatoExpiresAt = now.Add(time.Duration(potatoSec(s)) * time.Second)
}

func infect(s *models.Session, tagger, target *models.Player, now time.Time) {
	tagger.TagCount++
	target.IsIt = true
	target.BecameItAt = now
}

func freezeOrThaw(s *models.Session, tagger, target *models.Player, now time.Time) {
	if tagger.IsIt {
		target.IsFrozen = true
	} else {
		target.IsFrozen = false
	}
	tagger.TagCount++
}

func eliminateAndScore(s *models.Session, tagger, target *models.Player, now time.Time) {
	target.IsEliminated = true
	tagger.TagCount++
}

func assassinate(s *models.Session, tagger, target *models.Player, now time.Time) {
	target.IsEliminated = true
	tagger.TagCount++
	// The killer inherits the victim's contract, keeping the chain closed.
	tagger.AssassinTargetID = target.AssassinTargetID
	if tagger.AssassinTargetID == tagger.ID {
		tagger.AssassinTargetID = ""
	}
}

// contestHill only scores the tag; hill time itself accrues on the
// session tick for players inside the hill zone.
func contestHill(s *models.Session, tagger, target *models.Player, now time.Time) {
	tagger.TagCount++
}

// potatoSec returns the configured potato fuse, defaulting to 30s.
func potatoSec(s *models.Session) int {
	if s.Settings.PotatoSec > 0 {
		return s.Settings.PotatoSec
	}
	return 30
}
