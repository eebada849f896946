package models

import (
	"strings"
	"time"
)

// Room represents a code-addressed match and its roster. A room is only ever
// touched by the session that owns it, so it carries no lock of its own.
type Room struct {
	Code         string
	Host         string
	Players      []*Player // insertion order; index 0 becomes Mr. X
	Status       RoomStatus
	Game         *Game // nil until the first start
	CreatedAt    time.Time
	LastActivity time.Time
	Rematches    int
	Scores       map[string]*PlayerScore // playerID -> PlayerScore (persistent)
}

// NewRoom creates a waiting room with host as its only member.
func NewRoom(code string, host *Player, now time.Time) *Room {
	return &Room{
		Code:         code,
		Host:         host.ID,
		Players:      []*Player{host},
		Scores:       map[string]*PlayerScore{host.ID: {}},
		Status:       StatusWaiting,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Player finds a member by id
func (r *Room) Player(id string) (*Player, bool) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// PlayerByName finds a member by display name, ignoring case
func (r *Room) PlayerByName(name string) (*Player, bool) {
	for _, p := range r.Players {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return nil, false
}

// AddPlayer appends a new member
func (r *Room) AddPlayer(p *Player) {
	r.Players = append(r.Players, p)
	if r.Scores == nil {
		r.Scores = make(map[string]*PlayerScore)
	}
	if _, ok := r.Scores[p.ID]; !ok {
		r.Scores[p.ID] = &PlayerScore{}
	}
}

// RemovePlayer drops a member, handing the host role to the next player in
// line when the host leaves. It reports whether the player was present.
func (r *Room) RemovePlayer(id string) bool {
	for i, p := range r.Players {
		if p.ID != id {
			continue
		}
		r.Players = append(r.Players[:i], r.Players[i+1:]...)
		delete(r.Scores, id)
		if r.Host == id {
			r.Host = ""
			if len(r.Players) > 0 {
				r.Host = r.Players[0].ID
			}
		}
		return true
	}
	return false
}

// OnlineCount returns the number of members with a live connection
func (r *Room) OnlineCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Online {
			n++
		}
	}
	return n
}

func (r *Room) IsHost(id string) bool { return r.Host == id }
