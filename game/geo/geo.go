// Package geo provides the pure geometry and wall-clock helpers the engine
// uses to validate tags. It holds no state.
package geo

import (
	"math"
	"time"

	"tagserver/models"
)

const earthRadiusM = 6371000.0

// Haversine returns the great-circle distance in meters between two
// lat/lng points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// WithinRadius reports whether two locations are within radius meters of
// each other. Either location being unknown counts as out of range.
func WithinRadius(a, b *models.Location, radius float64) bool {
	if a == nil || b == nil {
		return false
	}
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng) <= radius
}

// InZone reports whether loc falls inside the circular zone.
func InZone(loc *models.Location, z models.Zone) bool {
	if loc == nil {
		return false
	}
	return Haversine(loc.Lat, loc.Lng, z.Lat, z.Lng) <= z.Radius
}

// InAnyZone reports whether loc falls inside any of the zones.
func InAnyZone(loc *models.Location, zones []models.Zone) bool {
	for _, z := range zones {
		if InZone(loc, z) {
			return true
		}
	}
	return false
}

// ValidZone reports whether a zone has plausible coordinates and a positive
// radius. Invalid zones are dropped at session creation, not rejected.
func ValidZone(z models.Zone) bool {
	return z.Lat >= -90 && z.Lat <= 90 && z.Lng >= -180 && z.Lng <= 180 && z.Radius > 0
}

// InWindow reports whether the wall-clock time of now falls inside the
// daily window. A window whose end precedes its start wraps past midnight.
// Malformed windows never match.
func InWindow(now time.Time, w models.TimeWindow) bool {
	start, okS := parseClock(w.Start)
	end, okE := parseClock(w.End)
	if !okS || !okE {
		return false
	}
	minute := now.Hour()*60 + now.Minute()
	if start <= end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

// InAnyWindow reports whether now falls inside any of the windows.
func InAnyWindow(now time.Time, windows []models.TimeWindow) bool {
	for _, w := range windows {
		if InWindow(now, w) {
			return true
		}
	}
	return false
}

// parseClock parses "HH:MM" into minutes past midnight.
func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
