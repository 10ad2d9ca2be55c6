package session

import (
	"time"

	"tagserver/models"
)

// PlayerView is the externally visible slice of a player's state.
type PlayerView struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Avatar       string           `json:"avatar,omitempty"`
	IsOnline     bool             `json:"isOnline"`
	IsIt         bool             `json:"isIt"`
	IsFrozen     bool             `json:"isFrozen"`
	IsEliminated bool             `json:"isEliminated"`
	Team         string           `json:"team,omitempty"`
	TagCount     int              `json:"tagCount"`
	HillSeconds  int              `json:"hillSeconds,omitempty"`
	Location     *models.Location `json:"location,omitempty"`
	JoinedAt     time.Time        `json:"joinedAt"`
}

// View is a copy of a session's externally visible state, safe to hold
// after the snapshot call returns.
type View struct {
	ID          string                 `json:"id"`
	Code        string                 `json:"code"`
	HostID      string                 `json:"hostId"`
	HostName    string                 `json:"hostName"`
	Mode        models.GameMode        `json:"mode"`
	Status      models.SessionStatus   `json:"status"`
	Settings    models.SessionSettings `json:"settings"`
	Players     []PlayerView           `json:"players"`
	TagCount    int                    `json:"tagCount"`
	CurrentItID string                 `json:"currentItPlayerId,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	StartedAt   *time.Time             `json:"startedAt,omitempty"`
	EndedAt     *time.Time             `json:"endedAt,omitempty"`
	Outcome     *models.Outcome        `json:"outcome,omitempty"`
}

// view builds a snapshot. Must run on the actor goroutine.
func (s *Session) view() View {
	st := s.state
	v := View{
		ID:          st.ID,
		Code:        st.Code,
		HostID:      st.HostID,
		HostName:    st.HostName,
		Mode:        st.Mode,
		Status:      st.Status,
		Settings:    st.Settings,
		TagCount:    len(st.Tags),
		CurrentItID: st.CurrentItID,
		CreatedAt:   st.CreatedAt,
	}
	if !st.StartedAt.IsZero() {
		t := st.StartedAt
		v.StartedAt = &t
	}
	if !st.EndedAt.IsZero() {
		t := st.EndedAt
		v.EndedAt = &t
	}
	if st.Outcome != nil {
		o := *st.Outcome
		v.Outcome = &o
	}
	ps := make([]*models.Player, 0, len(st.Players))
	for _, p := range st.Players {
		ps = append(ps, p)
	}
	sortByJoin(ps)
	for _, p := range ps {
		pv := PlayerView{
			ID:           p.ID,
			Name:         p.Name,
			Avatar:       p.Avatar,
			IsOnline:     p.IsOnline,
			IsIt:         p.IsIt,
			IsFrozen:     p.IsFrozen,
			IsEliminated: p.IsEliminated,
			Team:         p.Team,
			TagCount:     p.TagCount,
			HillSeconds:  int(p.HillTime / time.Second),
			JoinedAt:     p.JoinedAt,
		}
		if p.Location != nil {
			loc := *p.Location
			pv.Location = &loc
		}
		v.Players = append(v.Players, pv)
	}
	return v
}
