package session

import (
	"sort"

	"go.uber.org/zap"

	"tagserver/models"
)

// SelectReplacementHost returns the online, non-eliminated player with the
// earliest join time, excluding the departing host. Earliest joiner wins
// because it is stable and deterministic. Returns nil when nobody is
// eligible.
func SelectReplacementHost(s *models.Session, departingID string) *models.Player {
	var eligible []*models.Player
	for _, p := range s.Players {
		if p.ID == departingID || !p.IsOnline || p.IsEliminated {
			continue
		}
		eligible = append(eligible, p)
	}
	if len(eligible) == 0 {
		return nil
	}
	sortByJoin(eligible)
	return eligible[0]
}

// failoverHost transfers host authority after the current host left.
// Returns false when the game must end for lack of an eligible host. Host
// transfer changes hostId/hostName only; role state is untouched.
func (s *Session) failoverHost(departingID string) bool {
	next := SelectReplacementHost(s.state, departingID)
	if next == nil {
		return false
	}
	s.state.HostID = next.ID
	s.state.HostName = next.Name
	s.logger.Info("host transferred",
		zap.String("session", s.id),
		zap.String("from", departingID), zap.String("to", next.ID))
	s.publish(models.EventHostChanged, map[string]any{
		"hostId": next.ID, "hostName": next.Name,
	})
	return true
}

func sortByJoin(ps []*models.Player) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].JoinedAt.Equal(ps[j].JoinedAt) {
			return ps[i].JoinedAt.Before(ps[j].JoinedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}
