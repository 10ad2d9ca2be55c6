package models

import "time"

// Location is a player's last reported GPS fix.
type Location struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  float64   `json:"accuracy,omitempty"` // meters
	Timestamp time.Time `json:"timestamp"`
}

// Player is one roster entry. Owned by exactly one Session and discarded
// with it.
type Player struct {
	ID       string
	Name     string
	Avatar   string
	Location *Location
	IsOnline bool
	JoinedAt time.Time

	IsIt         bool
	BecameItAt   time.Time // zero if never held the IT role
	IsFrozen     bool
	IsEliminated bool
	Team         string // teamTag only, "" otherwise
	TagCount     int
	HillTime     time.Duration // kingOfTheHill cumulative control time
	AssassinTargetID string    // assassin only
}

// CanHoldIt reports whether the player may currently receive the IT role.
func (p *Player) CanHoldIt() bool {
	return !p.IsEliminated
}
