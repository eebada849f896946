package session

import (
	"github.com/aaronzipp/catch-mister-x/internal/models"
	"github.com/aaronzipp/catch-mister-x/internal/render"
)

func (s *Session) subscribe(sub Subscriber) {
	s.subs[sub] = struct{}{}
}

// unsubscribePlayer detaches every subscriber of playerID without closing them.
func (s *Session) unsubscribePlayer(playerID string) []Subscriber {
	var out []Subscriber
	for sub := range s.subs {
		if sub.PlayerID() == playerID {
			delete(s.subs, sub)
			out = append(out, sub)
		}
	}
	return out
}

func (s *Session) hasSubscriber(playerID string) bool {
	for sub := range s.subs {
		if sub.PlayerID() == playerID {
			return true
		}
	}
	return false
}

// send delivers ev to one subscriber, dropping it if its buffer is full.
func (s *Session) send(sub Subscriber, ev Event) {
	if sub.Send(ev) {
		return
	}
	s.drop(sub)
}

// broadcast sends an event to every subscriber, building each payload for
// its recipient. Slow subscribers are dropped after the fan-out so every
// remaining subscriber sees the same sequence.
func (s *Session) broadcast(name string, payload func(viewerID string) any) {
	var slow []Subscriber
	for sub := range s.subs {
		if !sub.Send(Event{Name: name, Data: payload(sub.PlayerID())}) {
			slow = append(slow, sub)
		}
	}
	for _, sub := range slow {
		s.drop(sub)
	}
}

// broadcastRoom sends the recipient's room view under name.
func (s *Session) broadcastRoom(name string) {
	s.broadcast(name, func(viewer string) any {
		return RoomPayload{Room: render.Room(s.room, s.cfg.Graph, viewer)}
	})
}

func (s *Session) drop(sub Subscriber) {
	if _, ok := s.subs[sub]; !ok {
		return
	}
	delete(s.subs, sub)
	sub.Close()
	s.log.Warn().Str("player_id", sub.PlayerID()).Msg("subscriber too slow, dropped")
	s.markOffline(sub.PlayerID())
}

// markOffline flags a member offline once their last subscriber is gone and
// tells the rest of the room.
func (s *Session) markOffline(playerID string) {
	p, ok := s.room.Player(playerID)
	if !ok || !p.Online || s.hasSubscriber(playerID) {
		return
	}
	p.Online = false
	p.OfflineSince = s.cfg.Clock.Now()
	s.broadcast(EventPlayerDisconnected, func(string) any {
		return PlayerDisconnected{PlayerID: p.ID, PlayerName: p.Name}
	})
	if s.room.Status == models.StatusFinished && s.room.OnlineCount() == 0 {
		s.log.Info().Msg("last observer left finished room")
		s.closing = true
	}
}
