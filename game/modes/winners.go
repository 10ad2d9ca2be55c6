package modes

import (
	"time"

	"tagserver/models"
)

// survival is how long a player lasted before first/last holding IT. A
// player who never held the role survives the whole game.
func survival(s *models.Session, p *models.Player, now time.Time) time.Duration {
	became := p.BecameItAt
	if became.IsZero() {
		became = now
	}
	return became.Sub(s.StartedAt)
}

// longestSurvivor picks the non-IT player who held out longest before
// (ever) receiving the role. Ties keep the earliest joiner.
func longestSurvivor(s *models.Session, now time.Time) models.Outcome {
	var best *models.Player
	var bestSurvival time.Duration
	for _, p := range sorted(s) {
		if p.IsIt {
			continue
		}
		surv := survival(s, p, now)
		if best == nil || surv > bestSurvival {
			best, bestSurvival = p, surv
		}
	}
	if best == nil {
		return models.Outcome{Reason: "No winner"}
	}
	return models.Outcome{
		WinnerID:   best.ID,
		WinnerName: best.Name,
		Reason:     "Survived the longest without being IT",
	}
}

func infectionWinner(s *models.Session, now time.Time) models.Outcome {
	var survivors []*models.Player
	for _, p := range sorted(s) {
		if alive(p) && !p.IsIt {
			survivors = append(survivors, p)
		}
	}
	if len(survivors) == 1 {
		return models.Outcome{
			WinnerID:   survivors[0].ID,
			WinnerName: survivors[0].Name,
			Reason:     "Last survivor",
		}
	}
	if len(survivors) > 1 {
		return models.Outcome{
			WinnerID:   survivors[0].ID,
			WinnerName: survivors[0].Name,
			Reason:     "Survived the infection",
		}
	}
	// Nobody escaped: the first infected takes it.
	var zero *models.Player
	for _, p := range sorted(s) {
		if p.BecameItAt.IsZero() {
			continue
		}
		if zero == nil || p.BecameItAt.Before(zero.BecameItAt) {
			zero = p
		}
	}
	if zero == nil {
		return models.Outcome{Reason: "No winner"}
	}
	return models.Outcome{
		WinnerID:   zero.ID,
		WinnerName: zero.Name,
		Reason:     "Patient zero - infected everyone",
	}
}

// teamWinner compares aggregate tag counts. Team wins carry no player id;
// the winner name is the team label. Ties favor red.
func teamWinner(s *models.Session, now time.Time) models.Outcome {
	red, blue := 0, 0
	for _, p := range s.Players {
		switch p.Team {
		case models.TeamRed:
			red += p.TagCount
		case models.TeamBlue:
			blue += p.TagCount
		}
	}
	name := "Red Team"
	if blue > red {
		name = "Blue Team"
	}
	return models.Outcome{
		WinnerName: name,
		Reason:     "Most tags",
		Extra:      map[string]int{"red": red, "blue": blue},
	}
}

// lastStanding picks the sole non-eliminated player, falling back to the
// highest tag count when the game is force-ended with several left.
func lastStanding(s *models.Session, now time.Time) models.Outcome {
	var remaining []*models.Player
	for _, p := range sorted(s) {
		if alive(p) {
			remaining = append(remaining, p)
		}
	}
	switch len(remaining) {
	case 0:
		return models.Outcome{Reason: "No players remaining"}
	case 1:
		return models.Outcome{
			WinnerID:   remaining[0].ID,
			WinnerName: remaining[0].Name,
			Reason:     "Last player standing",
		}
	}
	best := remaining[0]
	for _, p := range remaining[1:] {
		if p.TagCount > best.TagCount {
			best = p
		}
	}
	return models.Outcome{
		WinnerID:   best.ID,
		WinnerName: best.Name,
		Reason:     "Most tags when the game ended",
	}
}

func hillWinner(s *models.Session, now time.Time) models.Outcome {
	var best *models.Player
	for _, p := range sorted(s) {
		if best == nil || p.HillTime > best.HillTime {
			best = p
		}
	}
	if best == nil {
		return models.Outcome{Reason: "No winner"}
	}
	return models.Outcome{
		WinnerID:   best.ID,
		WinnerName: best.Name,
		Reason:     "Held the hill longest",
		Extra:      map[string]int{"hillSeconds": int(best.HillTime / time.Second)},
	}
}

func freezeTagWinner(s *models.Session, now time.Time) models.Outcome {
	var runners []*models.Player
	for _, p := range sorted(s) {
		if alive(p) && !p.IsIt && !p.IsFrozen {
			runners = append(runners, p)
		}
	}
	if len(runners) == 0 {
		if it, ok := s.Players[s.CurrentItID]; ok {
			return models.Outcome{WinnerID: it.ID, WinnerName: it.Name, Reason: "Froze every runner"}
		}
		return models.Outcome{Reason: "No winner"}
	}
	// Time ran out with runners loose: the busiest rescuer takes it.
	best := runners[0]
	for _, p := range runners[1:] {
		if p.TagCount > best.TagCount {
			best = p
		}
	}
	return models.Outcome{WinnerID: best.ID, WinnerName: best.Name, Reason: "Survived unfrozen"}
}

func hideAndSeekWinner(s *models.Session, now time.Time) models.Outcome {
	var hiders []*models.Player
	for _, p := range sorted(s) {
		if alive(p) && !p.IsIt {
			hiders = append(hiders, p)
		}
	}
	if len(hiders) == 0 {
		if seeker, ok := s.Players[s.CurrentItID]; ok {
			return models.Outcome{WinnerID: seeker.ID, WinnerName: seeker.Name, Reason: "Found every hider"}
		}
		return models.Outcome{Reason: "No winner"}
	}
	if len(hiders) == 1 {
		return models.Outcome{WinnerID: hiders[0].ID, WinnerName: hiders[0].Name, Reason: "Last hider standing"}
	}
	return models.Outcome{WinnerID: hiders[0].ID, WinnerName: hiders[0].Name, Reason: "Outlasted the seeker"}
}
