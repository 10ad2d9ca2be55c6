package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"tagserver/game"
	"tagserver/models"
)

func testSettings() models.SessionSettings {
	return models.SessionSettings{TagRadius: 50, MaxPlayers: 10}
}

func newTestSession(t *testing.T, mode models.GameMode, settings models.SessionSettings) *Session {
	t.Helper()
	host := &models.Player{ID: "host", Name: "Host"}
	s := New(host, mode, settings, "TEST01", Deps{}, zap.NewNop(), nil)
	t.Cleanup(s.Close)
	return s
}

func join(t *testing.T, s *Session, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := s.Join(context.Background(), &models.Player{ID: id, Name: id}); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
}

func snapshot(t *testing.T, s *Session) View {
	t.Helper()
	v, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return v
}

func itPlayer(t *testing.T, v View) PlayerView {
	t.Helper()
	for _, p := range v.Players {
		if p.IsIt {
			return p
		}
	}
	t.Fatalf("no IT player in %+v", v.Players)
	return PlayerView{}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name     string
		mode     models.GameMode
		settings models.SessionSettings
		wantErr  bool
	}{
		{"ok", models.ModeClassic, models.SessionSettings{TagRadius: 10, MaxPlayers: 4}, false},
		{"radius too small", models.ModeClassic, models.SessionSettings{TagRadius: 0.5, MaxPlayers: 4}, true},
		{"radius too large", models.ModeClassic, models.SessionSettings{TagRadius: 1001, MaxPlayers: 4}, true},
		{"one player max", models.ModeClassic, models.SessionSettings{TagRadius: 10, MaxPlayers: 1}, true},
		{"too many players", models.ModeClassic, models.SessionSettings{TagRadius: 10, MaxPlayers: 51}, true},
		{"unknown mode", models.GameMode("lava"), models.SessionSettings{TagRadius: 10, MaxPlayers: 4}, true},
		{"hill required", models.ModeKingOfTheHill, models.SessionSettings{TagRadius: 10, MaxPlayers: 4}, true},
		{"hill provided", models.ModeKingOfTheHill, models.SessionSettings{
			TagRadius: 10, MaxPlayers: 4,
			Hill: &models.Zone{Lat: 52.5, Lng: 13.4, Radius: 40},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateSettings(tt.mode, tt.settings)
			if tt.wantErr {
				if !game.IsKind(err, game.KindValidation) {
					t.Fatalf("want validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateSettingsDropsInvalidZones(t *testing.T) {
	in := models.SessionSettings{
		TagRadius:  10,
		MaxPlayers: 4,
		NoTagZones: []models.Zone{
			{Lat: 52.5, Lng: 13.4, Radius: 30},
			{Lat: 95, Lng: 13.4, Radius: 30},  // bad latitude, dropped
			{Lat: 52.5, Lng: 13.4, Radius: 0}, // bad radius, dropped
		},
	}
	out, err := ValidateSettings(models.ModeClassic, in)
	if err != nil {
		t.Fatalf("invalid zones must be dropped, not rejected: %v", err)
	}
	if len(out.NoTagZones) != 1 {
		t.Fatalf("kept %d zones, want 1", len(out.NoTagZones))
	}
}

func TestJoinRejectedWhenFull(t *testing.T) {
	s := newTestSession(t, models.ModeClassic, models.SessionSettings{TagRadius: 50, MaxPlayers: 2})
	join(t, s, "p2")

	err := s.Join(context.Background(), &models.Player{ID: "p3"})
	if !game.IsKind(err, game.KindState) {
		t.Fatalf("join on a full session must be a state error, got %v", err)
	}
}

func TestJoinRejectedAfterStart(t *testing.T) {
	s := newTestSession(t, models.ModeClassic, testSettings())
	join(t, s, "p2")
	if err := s.Start(context.Background(), "host"); err != nil {
		t.Fatalf("start: %v", err)
	}

	err := s.Join(context.Background(), &models.Player{ID: "late"})
	if !game.IsKind(err, game.KindState) {
		t.Fatalf("want state error, got %v", err)
	}
}

func TestStartRequiresHostAndTwoPlayers(t *testing.T) {
	s := newTestSession(t, models.ModeClassic, testSettings())

	if err := s.Start(context.Background(), "host"); !game.IsKind(err, game.KindState) {
		t.Fatalf("start with one player must be a state error, got %v", err)
	}
	join(t, s, "p2")
	if err := s.Start(context.Background(), "p2"); !game.IsKind(err, game.KindAuthorization) {
		t.Fatalf("non-host start must be an authorization error, got %v", err)
	}
	if err := s.Start(context.Background(), "host"); err != nil {
		t.Fatalf("host start: %v", err)
	}
	v := snapshot(t, s)
	if v.Status != models.StatusActive {
		t.Fatalf("status = %s, want active", v.Status)
	}
	if v.StartedAt == nil {
		t.Fatalf("startedAt must be recorded")
	}
	itPlayer(t, v) // exactly-one-IT invariant entry point
}

func TestSingleItInvariantAfterTag(t *testing.T) {
	s := newTestSession(t, models.ModeClassic, testSettings())
	join(t, s, "p2", "p3")
	if err := s.Start(context.Background(), "host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	v := snapshot(t, s)
	it := itPlayer(t, v)
	var victim PlayerView
	for _, p := range v.Players {
		if !p.IsIt {
			victim = p
			break
		}
	}

	out, err := s.SubmitTag(context.Background(), models.TagAttempt{
		TaggerID: it.ID, TaggedID: victim.ID, Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("submit tag: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("tag rejected: %s", out.Reason)
	}

	v = snapshot(t, s)
	itCount := 0
	for _, p := range v.Players {
		if p.IsIt {
			itCount++
			if p.ID != victim.ID {
				t.Fatalf("IT = %s, want tagged player %s", p.ID, victim.ID)
			}
		}
	}
	if itCount != 1 {
		t.Fatalf("IT count = %d, want exactly 1", itCount)
	}
	if v.TagCount != 1 {
		t.Fatalf("tag history length = %d, want 1", v.TagCount)
	}
}

func TestRejectedTagIsNotAnError(t *testing.T) {
	s := newTestSession(t, models.ModeClassic, testSettings())
	join(t, s, "p2", "p3")
	if err := s.Start(context.Background(), "host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	v := snapshot(t, s)
	var nonIt []PlayerView
	for _, p := range v.Players {
		if !p.IsIt {
			nonIt = append(nonIt, p)
		}
	}

	out, err := s.SubmitTag(context.Background(), models.TagAttempt{
		TaggerID: nonIt[0].ID, TaggedID: nonIt[1].ID, Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("a failed arbitration must not surface as an error: %v", err)
	}
	if out.Accepted || out.Reason == "" {
		t.Fatalf("want rejection with reason, got %+v", out)
	}
}

func TestTagBeforeStartIsStateError(t *testing.T) {
	s := newTestSession(t, models.ModeClassic, testSettings())
	join(t, s, "p2")

	_, err := s.SubmitTag(context.Background(), models.TagAttempt{
		TaggerID: "host", TaggedID: "p2", Timestamp: time.Now(),
	})
	if !game.IsKind(err, game.KindState) {
		t.Fatalf("want state error, got %v", err)
	}
}

func TestEndGameIdempotent(t *testing.T) {
	s := newTestSession(t, models.ModeClassic, testSettings())
	join(t, s, "p2")
	if err := s.Start(context.Background(), "host"); err != nil {
		t.Fatalf("start: %v", err)
	}

	first, err := s.End(context.Background(), "host")
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if first == nil {
		t.Fatalf("end must produce an outcome")
	}
	endedAt := snapshot(t, s).EndedAt

	second, err := s.End(context.Background(), "host")
	if err != nil {
		t.Fatalf("second end: %v", err)
	}
	if second != first {
		t.Fatalf("repeated end must return the stored outcome")
	}
	if got := snapshot(t, s).EndedAt; got == nil || !got.Equal(*endedAt) {
		t.Fatalf("second end mutated endedAt: %v -> %v", endedAt, got)
	}
}

func TestEndGameHostOnly(t *testing.T) {
	s := newTestSession(t, models.ModeClassic, testSettings())
	join(t, s, "p2")
	if err := s.Start(context.Background(), "host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.End(context.Background(), "p2"); !game.IsKind(err, game.KindAuthorization) {
		t.Fatalf("want authorization error, got %v", err)
	}
}

func TestHostLeaveTransfersToEarliestJoiner(t *testing.T) {
	s := newTestSession(t, models.ModeClassic, testSettings())
	join(t, s, "early", "late")
	if err := s.Start(context.Background(), "host"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := s.Leave(context.Background(), "host"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	v := snapshot(t, s)
	if v.HostID != "early" {
		t.Fatalf("new host = %q, want earliest joiner", v.HostID)
	}
}

func TestHostLeaveWithNobodyEligibleEndsGame(t *testing.T) {
	s := newTestSession(t, models.ModeClassic, testSettings())
	if err := s.Leave(context.Background(), "host"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	v := snapshot(t, s)
	if v.Status != models.StatusEnded {
		t.Fatalf("status = %s, want ended when no eligible host remains", v.Status)
	}
	if v.HostID != "host" {
		t.Fatalf("host must not change when nobody is eligible")
	}
}

func TestItLeaveReassignsRole(t *testing.T) {
	s := newTestSession(t, models.ModeClassic, testSettings())
	join(t, s, "p2", "p3")
	if err := s.Start(context.Background(), "host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	it := itPlayer(t, snapshot(t, s))

	if err := s.Leave(context.Background(), it.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	v := snapshot(t, s)
	if v.Status != models.StatusActive {
		t.Fatalf("game should continue with 2 players, got %s", v.Status)
	}
	next := itPlayer(t, v)
	if next.ID == it.ID {
		t.Fatalf("IT role must move off the departed player")
	}
}

func TestInfectionRunsToPatientZeroWin(t *testing.T) {
	s := newTestSession(t, models.ModeInfection, testSettings())
	join(t, s, "p2", "p3")
	if err := s.Start(context.Background(), "host"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Infect everyone; each accepted tag re-arbitrates against current
	// state, so any infected player may tag any survivor.
	for {
		v := snapshot(t, s)
		if v.Status == models.StatusEnded {
			break
		}
		var infected, survivor string
		for _, p := range v.Players {
			if p.IsIt && infected == "" {
				infected = p.ID
			}
			if !p.IsIt && survivor == "" {
				survivor = p.ID
			}
		}
		out, err := s.SubmitTag(context.Background(), models.TagAttempt{
			TaggerID: infected, TaggedID: survivor, Timestamp: time.Now(),
		})
		if err != nil || !out.Accepted {
			t.Fatalf("infection tag failed: out=%+v err=%v", out, err)
		}
	}

	v := snapshot(t, s)
	if v.Outcome == nil || v.Outcome.Reason != "Patient zero - infected everyone" {
		t.Fatalf("outcome = %+v", v.Outcome)
	}
}

func TestHideAndSeekEntersHidingPhase(t *testing.T) {
	settings := testSettings()
	settings.HidePhaseSec = 3600 // far in the future, phase must hold
	s := newTestSession(t, models.ModeHideAndSeek, settings)
	join(t, s, "p2")
	if err := s.Start(context.Background(), "host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	v := snapshot(t, s)
	if v.Status != models.StatusHiding {
		t.Fatalf("status = %s, want hiding", v.Status)
	}

	_, err := s.SubmitTag(context.Background(), models.TagAttempt{
		TaggerID: v.CurrentItID, TaggedID: "p2", Timestamp: time.Now(),
	})
	if !game.IsKind(err, game.KindState) {
		t.Fatalf("seeker must not tag during the hiding phase, got %v", err)
	}
}

func TestPermissionDenialIsRateLimited(t *testing.T) {
	host := &models.Player{ID: "host", Name: "Host"}
	deny := denyChecker{retryAfter: 7 * time.Second}
	s := New(host, models.ModeClassic, testSettings(), "TEST02",
		Deps{Permissions: deny}, zap.NewNop(), nil)
	defer s.Close()

	err := s.Join(context.Background(), &models.Player{ID: "p2"})
	if !game.IsKind(err, game.KindRateLimited) {
		t.Fatalf("want rate-limited error, got %v", err)
	}
	var ge *game.Error
	if !errors.As(err, &ge) || ge.RetryAfter != 7*time.Second {
		t.Fatalf("retryAfter not propagated: %v", err)
	}
}

type denyChecker struct{ retryAfter time.Duration }

func (d denyChecker) Allow(context.Context, string, string) (game.Decision, error) {
	return game.Decision{Allowed: false, RetryAfter: d.retryAfter}, nil
}
