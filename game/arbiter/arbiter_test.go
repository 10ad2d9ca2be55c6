package arbiter

import (
	"testing"
	"time"

	"tagserver/models"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func classicSession(players ...*models.Player) *models.Session {
	s := &models.Session{
		ID:        "s1",
		Mode:      models.ModeClassic,
		Status:    models.StatusActive,
		StartedAt: t0,
		Settings:  models.SessionSettings{TagRadius: 50, MaxPlayers: 10},
		Players:   map[string]*models.Player{},
	}
	for _, p := range players {
		p.IsOnline = true
		s.Players[p.ID] = p
	}
	return s
}

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func TestEarliestValidAttemptWins(t *testing.T) {
	it := &models.Player{ID: "it", IsIt: true, BecameItAt: t0}
	bystander := &models.Player{ID: "by"}
	victim := &models.Player{ID: "v"}
	s := classicSession(it, bystander, victim)

	attempts := []models.TagAttempt{
		// Earlier claim, but the tagger does not hold IT: invalid.
		{TaggerID: "by", TaggedID: "v", Timestamp: at(100)},
		// Later but valid: this one must be accepted.
		{TaggerID: "it", TaggedID: "v", Timestamp: at(105)},
	}
	res := Resolve(s, attempts, at(200))
	if res.Record == nil {
		t.Fatalf("expected an accepted tag")
	}
	if res.Record.TaggerID != "it" {
		t.Fatalf("accepted tagger = %q, want the t=105 attempt", res.Record.TaggerID)
	}
	if len(res.Verdicts) != 2 || res.Verdicts[0].Accepted || !res.Verdicts[1].Accepted {
		t.Fatalf("unexpected verdicts: %+v", res.Verdicts)
	}
}

func TestLaterAttemptsSuperseded(t *testing.T) {
	it := &models.Player{ID: "it", IsIt: true, BecameItAt: t0}
	a := &models.Player{ID: "a"}
	b := &models.Player{ID: "b"}
	s := classicSession(it, a, b)

	// Submitted out of order: arbitration must sort by claim time.
	attempts := []models.TagAttempt{
		{TaggerID: "it", TaggedID: "b", Timestamp: at(120)},
		{TaggerID: "it", TaggedID: "a", Timestamp: at(80)},
	}
	res := Resolve(s, attempts, at(200))
	if res.Record == nil || res.Record.TaggedID != "a" {
		t.Fatalf("earliest claim must win, got %+v", res.Record)
	}
	var superseded int
	for _, v := range res.Verdicts {
		if v.Reason == ReasonSuperseded {
			superseded++
		}
	}
	if superseded != 1 {
		t.Fatalf("want exactly one superseded verdict, got %+v", res.Verdicts)
	}
}

func TestNoValidAttemptIsNotAnError(t *testing.T) {
	it := &models.Player{ID: "it", IsIt: true}
	out := &models.Player{ID: "out", IsEliminated: true}
	s := classicSession(it, out)

	res := Resolve(s, []models.TagAttempt{
		{TaggerID: "it", TaggedID: "out", Timestamp: at(10)},
	}, at(50))
	if res.Record != nil {
		t.Fatalf("eliminated target must not be taggable")
	}
	if res.Verdicts[0].Reason != ReasonTargetOut {
		t.Fatalf("reason = %q", res.Verdicts[0].Reason)
	}
}

func TestNoTagZoneProtectsTarget(t *testing.T) {
	it := &models.Player{ID: "it", IsIt: true,
		Location: &models.Location{Lat: 52.5200, Lng: 13.4050}}
	victim := &models.Player{ID: "v",
		Location: &models.Location{Lat: 52.5201, Lng: 13.4050}}
	s := classicSession(it, victim)
	s.Settings.NoTagZones = []models.Zone{{Lat: 52.5201, Lng: 13.4050, Radius: 30}}

	res := Resolve(s, []models.TagAttempt{
		{TaggerID: "it", TaggedID: "v", Timestamp: at(10)},
	}, at(50))
	if res.Record != nil || res.Verdicts[0].Reason != ReasonProtectedZone {
		t.Fatalf("got %+v", res.Verdicts)
	}
}

func TestNoTagWindowRejectsAll(t *testing.T) {
	it := &models.Player{ID: "it", IsIt: true}
	victim := &models.Player{ID: "v"}
	s := classicSession(it, victim)
	s.Settings.NoTagWindows = []models.TimeWindow{{Start: "00:00", End: "23:59"}}

	res := Resolve(s, []models.TagAttempt{
		{TaggerID: "it", TaggedID: "v", Timestamp: at(10)},
	}, time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local))
	if res.Record != nil || res.Verdicts[0].Reason != ReasonProtectedTime {
		t.Fatalf("got %+v", res.Verdicts)
	}
}

func TestOutOfRangeRejected(t *testing.T) {
	it := &models.Player{ID: "it", IsIt: true,
		Location: &models.Location{Lat: 52.52, Lng: 13.405}}
	victim := &models.Player{ID: "v",
		Location: &models.Location{Lat: 52.53, Lng: 13.405}} // >1km away
	s := classicSession(it, victim)

	res := Resolve(s, []models.TagAttempt{
		{TaggerID: "it", TaggedID: "v", Timestamp: at(10)},
	}, at(50))
	if res.Record != nil || res.Verdicts[0].Reason != ReasonOutOfRange {
		t.Fatalf("got %+v", res.Verdicts)
	}
}

func TestTagTimeMeasuredFromBecameItAt(t *testing.T) {
	it := &models.Player{ID: "it", IsIt: true, BecameItAt: t0}
	victim := &models.Player{ID: "v"}
	s := classicSession(it, victim)

	res := Resolve(s, []models.TagAttempt{
		{TaggerID: "it", TaggedID: "v", Timestamp: at(10)},
	}, t0.Add(42*time.Second))
	if res.Record == nil {
		t.Fatalf("expected accepted tag")
	}
	if res.Record.TagTime != 42*time.Second {
		t.Fatalf("tagTime = %v, want 42s", res.Record.TagTime)
	}
}

func TestAssassinOnlyAssignedTarget(t *testing.T) {
	a := &models.Player{ID: "a", AssassinTargetID: "b"}
	b := &models.Player{ID: "b", AssassinTargetID: "c"}
	c := &models.Player{ID: "c", AssassinTargetID: "a"}
	s := classicSession(a, b, c)
	s.Mode = models.ModeAssassin

	res := Resolve(s, []models.TagAttempt{
		{TaggerID: "a", TaggedID: "c", Timestamp: at(5)},
		{TaggerID: "a", TaggedID: "b", Timestamp: at(9)},
	}, at(50))
	if res.Record == nil || res.Record.TaggedID != "b" {
		t.Fatalf("only the assigned contract may be tagged, got %+v", res.Record)
	}
}
