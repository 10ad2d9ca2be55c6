package geo

import (
	"math"
	"testing"
	"time"

	"tagserver/models"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64 // meters
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: 52.52, lng1: 13.405, lat2: 52.52, lng2: 13.405,
			want: 0, tolerance: 0.01,
		},
		{
			name: "one degree latitude",
			lat1: 0, lng1: 0, lat2: 1, lng2: 0,
			want: 111195, tolerance: 100,
		},
		{
			name: "short urban hop",
			lat1: 52.5200, lng1: 13.4050, lat2: 52.5201, lng2: 13.4050,
			want: 11.1, tolerance: 0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Fatalf("Haversine = %.2f, want %.2f +-%.2f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestWithinRadius(t *testing.T) {
	a := &models.Location{Lat: 52.5200, Lng: 13.4050}
	b := &models.Location{Lat: 52.5201, Lng: 13.4050} // ~11m apart

	if !WithinRadius(a, b, 15) {
		t.Errorf("expected points ~11m apart to be within 15m")
	}
	if WithinRadius(a, b, 5) {
		t.Errorf("expected points ~11m apart to be outside 5m")
	}
	if WithinRadius(nil, b, 1000) {
		t.Errorf("unknown location must count as out of range")
	}
}

func TestZones(t *testing.T) {
	zone := models.Zone{Lat: 52.52, Lng: 13.405, Radius: 50}
	inside := &models.Location{Lat: 52.5201, Lng: 13.4050}
	outside := &models.Location{Lat: 52.53, Lng: 13.405}

	if !InAnyZone(inside, []models.Zone{zone}) {
		t.Errorf("expected location inside zone")
	}
	if InAnyZone(outside, []models.Zone{zone}) {
		t.Errorf("expected location outside zone")
	}
	if InAnyZone(nil, []models.Zone{zone}) {
		t.Errorf("nil location is never in a zone")
	}
}

func TestValidZone(t *testing.T) {
	tests := []struct {
		name string
		zone models.Zone
		want bool
	}{
		{"ok", models.Zone{Lat: 45, Lng: 90, Radius: 10}, true},
		{"lat out of range", models.Zone{Lat: 91, Lng: 0, Radius: 10}, false},
		{"lng out of range", models.Zone{Lat: 0, Lng: -181, Radius: 10}, false},
		{"zero radius", models.Zone{Lat: 0, Lng: 0, Radius: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidZone(tt.zone); got != tt.want {
				t.Fatalf("ValidZone = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInWindow(t *testing.T) {
	at := func(hhmm string) time.Time {
		parsed, err := time.Parse("15:04", hhmm)
		if err != nil {
			t.Fatalf("bad test clock %q", hhmm)
		}
		return time.Date(2024, 6, 1, parsed.Hour(), parsed.Minute(), 0, 0, time.Local)
	}

	tests := []struct {
		name   string
		window models.TimeWindow
		now    string
		want   bool
	}{
		{"inside plain window", models.TimeWindow{Start: "09:00", End: "17:00"}, "12:30", true},
		{"before plain window", models.TimeWindow{Start: "09:00", End: "17:00"}, "08:59", false},
		{"end is exclusive", models.TimeWindow{Start: "09:00", End: "17:00"}, "17:00", false},
		{"overnight late side", models.TimeWindow{Start: "22:00", End: "06:00"}, "23:30", true},
		{"overnight early side", models.TimeWindow{Start: "22:00", End: "06:00"}, "05:00", true},
		{"overnight gap", models.TimeWindow{Start: "22:00", End: "06:00"}, "12:00", false},
		{"malformed never matches", models.TimeWindow{Start: "9am", End: "5pm"}, "12:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InWindow(at(tt.now), tt.window); got != tt.want {
				t.Fatalf("InWindow = %v, want %v", got, tt.want)
			}
		})
	}
}
