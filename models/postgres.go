package models

import "gorm.io/gorm"

// GameResult is the persisted summary of a finished session.
type GameResult struct {
	gorm.Model
	SessionID   string `gorm:"uniqueIndex;not null"`
	Code        string `gorm:"not null"`
	Mode        string `gorm:"not null"`
	WinnerID    string
	WinnerName  string
	Reason      string
	PlayerCount int
	TagCount    int
	DurationSec int
}

// PlayerStat accumulates per-player totals across games.
type PlayerStat struct {
	gorm.Model
	PlayerID string `gorm:"uniqueIndex;not null"`
	Tags     int
	Wins     int
	Games    int
}

// StatDelta is one increment applied to a player's totals.
type StatDelta struct {
	Tags  int
	Wins  int
	Games int
}
