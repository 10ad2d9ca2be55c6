package modes

import (
	"time"

	"tagserver/models"
)

func noExtraEnd(*models.Session, time.Time) EndCheck { return EndCheck{} }

func infectionEnd(s *models.Session, now time.Time) EndCheck {
	for _, p := range s.Players {
		if alive(p) && !p.IsIt {
			return EndCheck{}
		}
	}
	return EndCheck{ShouldEnd: true, Reason: "Everyone was infected"}
}

func freezeTagEnd(s *models.Session, now time.Time) EndCheck {
	for _, p := range s.Players {
		if alive(p) && !p.IsIt && !p.IsFrozen {
			return EndCheck{}
		}
	}
	return EndCheck{ShouldEnd: true, Reason: "Every runner was frozen"}
}

func teamEnd(s *models.Session, now time.Time) EndCheck {
	red, blue := 0, 0
	for _, p := range s.Players {
		if !alive(p) {
			continue
		}
		switch p.Team {
		case models.TeamRed:
			red++
		case models.TeamBlue:
			blue++
		}
	}
	if red == 0 {
		return EndCheck{ShouldEnd: true, Reason: "Red team was eliminated"}
	}
	if blue == 0 {
		return EndCheck{ShouldEnd: true, Reason: "Blue team was eliminated"}
	}
	return EndCheck{}
}

func lastStandingEnd(s *models.Session, now time.Time) EndCheck {
	remaining := 0
	for _, p := range s.Players {
		if alive(p) {
			remaining++
		}
	}
	if remaining <= 1 {
		return EndCheck{ShouldEnd: true, Reason: "Last player standing"}
	}
	return EndCheck{}
}

func hideAndSeekEnd(s *models.Session, now time.Time) EndCheck {
	if s.Status == models.StatusHiding {
		return EndCheck{}
	}
	for _, p := range s.Players {
		if alive(p) && !p.IsIt {
			return EndCheck{}
		}
	}
	return EndCheck{ShouldEnd: true, Reason: "All hiders were found"}
}

func hillEnd(s *models.Session, now time.Time) EndCheck {
	if s.Settings.WinScore <= 0 {
		return EndCheck{}
	}
	target := time.Duration(s.Settings.WinScore) * time.Second
	for _, p := range s.Players {
		if p.HillTime >= target {
			return EndCheck{ShouldEnd: true, Reason: "Hill held for the winning score"}
		}
	}
	return EndCheck{}
}
