package session

import (
	"tagserver/game"
	"tagserver/game/geo"
	"tagserver/game/modes"
	"tagserver/models"
)

const (
	minTagRadius  = 1
	maxTagRadius  = 1000
	minPlayers    = 2
	maxPlayers    = 50
	maxNoTagZones = 10
)

// ValidateSettings checks host-supplied settings and returns a normalized
// copy. Out-of-range tagRadius/maxPlayers and zone-count overflows are
// validation errors; individually malformed zones are silently dropped.
func ValidateSettings(mode models.GameMode, in models.SessionSettings) (models.SessionSettings, error) {
	if !modes.Known(mode) {
		return in, game.Validationf("unknown game mode %q", mode)
	}
	if in.TagRadius < minTagRadius || in.TagRadius > maxTagRadius {
		return in, game.Validationf("tagRadius must be between %d and %d meters", minTagRadius, maxTagRadius)
	}
	if in.MaxPlayers < minPlayers || in.MaxPlayers > maxPlayers {
		return in, game.Validationf("maxPlayers must be between %d and %d", minPlayers, maxPlayers)
	}
	if len(in.NoTagZones) > maxNoTagZones {
		return in, game.Validationf("at most %d no-tag zones allowed", maxNoTagZones)
	}
	if in.DurationSec < 0 {
		return in, game.Validationf("duration cannot be negative")
	}
	if in.WinScore < 0 {
		return in, game.Validationf("winScore cannot be negative")
	}
	if in.Hill != nil && !geo.ValidZone(*in.Hill) {
		return in, game.Validationf("hill zone has invalid coordinates")
	}
	if mode == models.ModeKingOfTheHill && in.Hill == nil {
		return in, game.Validationf("kingOfTheHill requires a hill zone")
	}

	out := in
	out.NoTagZones = nil
	for _, z := range in.NoTagZones {
		if geo.ValidZone(z) {
			out.NoTagZones = append(out.NoTagZones, z)
		}
	}
	return out, nil
}
