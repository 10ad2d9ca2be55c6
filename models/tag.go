package models

import "time"

// TagAttempt is one submitted tag action. Attempts are ephemeral: they are
// arbitrated and either become a TagRecord or are discarded.
type TagAttempt struct {
	TaggerID  string    `json:"taggerId"`
	TaggedID  string    `json:"taggedId"`
	Timestamp time.Time `json:"timestamp"` // client clock, used for tie-breaking
	Location  *Location `json:"location,omitempty"`
}

// TagRecord is one accepted tag in a session's append-only history.
type TagRecord struct {
	ID        string        `json:"id"`
	TaggerID  string        `json:"taggerId"`
	TaggedID  string        `json:"taggedId"`
	Timestamp time.Time     `json:"timestamp"` // server acceptance time
	TagTime   time.Duration `json:"tagTime"`   // held-IT duration before this tag, 0 if n/a
	Location  *Location     `json:"location,omitempty"`
}
