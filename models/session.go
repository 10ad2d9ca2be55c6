package models

import "time"

// GameMode identifies one of the supported rule sets.
type GameMode string

const (
	ModeClassic       GameMode = "classic"
	ModeManhunt       GameMode = "manhunt"
	ModeFreezeTag     GameMode = "freezeTag"
	ModeInfection     GameMode = "infection"
	ModeTeamTag       GameMode = "teamTag"
	ModeHotPotato     GameMode = "hotPotato"
	ModeHideAndSeek   GameMode = "hideAndSeek"
	ModeAssassin      GameMode = "assassin"
	ModeBattleRoyale  GameMode = "battleRoyale"
	ModeKingOfTheHill GameMode = "kingOfTheHill"
)

// Modes lists every supported game mode.
var Modes = []GameMode{
	ModeClassic, ModeManhunt, ModeFreezeTag, ModeInfection, ModeTeamTag,
	ModeHotPotato, ModeHideAndSeek, ModeAssassin, ModeBattleRoyale, ModeKingOfTheHill,
}

// SessionStatus is the lifecycle state of a session. Transitions are
// monotonic: a session never returns to an earlier status.
type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting"
	StatusHiding  SessionStatus = "hiding"
	StatusActive  SessionStatus = "active"
	StatusEnded   SessionStatus = "ended"
)

// Team labels for teamTag.
const (
	TeamRed  = "red"
	TeamBlue = "blue"
)

// Zone is a circular geofence.
type Zone struct {
	Name   string  `json:"name,omitempty"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius float64 `json:"radius"` // meters
}

// TimeWindow is a daily wall-clock interval ("HH:MM"). A window whose end
// precedes its start wraps past midnight.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SessionSettings are host-configured game parameters.
type SessionSettings struct {
	TagRadius    float64      `json:"tagRadius"`  // meters, 1..1000
	MaxPlayers   int          `json:"maxPlayers"` // 2..50
	DurationSec  int          `json:"durationSec,omitempty"`
	WinScore     int          `json:"winScore,omitempty"` // kingOfTheHill: seconds of hill control
	NoTagZones   []Zone       `json:"noTagZones,omitempty"`
	NoTagWindows []TimeWindow `json:"noTagWindows,omitempty"`
	Hill         *Zone        `json:"hill,omitempty"`         // kingOfTheHill objective
	HidePhaseSec int          `json:"hidePhaseSec,omitempty"` // hideAndSeek head start
	PotatoSec    int          `json:"potatoSec,omitempty"`    // hotPotato fuse length
}

// Session is the authoritative in-memory state of one live game. It is
// owned by a single session goroutine; nothing outside that goroutine may
// mutate it.
type Session struct {
	ID        string
	Code      string // short join code, uppercase, unique among live sessions
	HostID    string
	HostName  string
	Mode      GameMode
	Status    SessionStatus
	Settings  SessionSettings
	Players   map[string]*Player
	Tags      []TagRecord // append-only accepted-tag history
	CreatedAt time.Time
	StartedAt time.Time // zero until start
	EndedAt   time.Time // zero until ended

	HidePhaseEndAt  time.Time // hideAndSeek only
	PotatoExpiresAt time.Time // hotPotato only
	CurrentItID     string    // single-IT modes

	// Outcome is set exactly once, on transition to ended.
	Outcome *Outcome
}

// Outcome is the final result of a session.
type Outcome struct {
	WinnerID   string // empty for team wins or no-winner endings
	WinnerName string
	Reason     string
	Extra      map[string]int // mode-specific numbers (team scores, hill seconds)
}

// PlayerCount returns the roster size.
func (s *Session) PlayerCount() int { return len(s.Players) }

// ActiveCount returns the number of online, non-eliminated players.
func (s *Session) ActiveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.IsOnline && !p.IsEliminated {
			n++
		}
	}
	return n
}
