package session

import (
	"github.com/aaronzipp/catch-mister-x/internal/game"
	"github.com/aaronzipp/catch-mister-x/internal/models"
	"github.com/aaronzipp/catch-mister-x/internal/render"
)

// Command is an operation applied by a room session. Commands are only ever
// applied on the session goroutine, one at a time.
type Command interface {
	apply(s *Session) error
}

// CreateRoom attaches the host's connection to a freshly created room and
// confirms the room code to them.
type CreateRoom struct {
	PlayerID string
	Sub      Subscriber
}

// JoinRoom adds a new member, or re-attaches an existing one presenting the
// member's secret.
type JoinRoom struct {
	PlayerID string
	Name     string
	Secret   string
	Sub      Subscriber
}

type LeaveRoom struct {
	PlayerID string
}

type StartGame struct {
	PlayerID string
}

// Rematch starts a new game with the current roster once the previous one
// has finished.
type Rematch struct {
	PlayerID string
}

type Move struct {
	Move models.Move
}

// Disconnect detaches one connection of a player. The player stays in the
// room and keeps their seat.
type Disconnect struct {
	PlayerID string
	Sub      Subscriber
}

// Reconnect re-subscribes a member and resends the room snapshot. Token must
// match the secret the member joined with.
type Reconnect struct {
	PlayerID string
	Token    string
	Sub      Subscriber
}

type AdminKick struct {
	PlayerName string
}

type AdminClose struct {
	Reason string
}

type Heartbeat struct {
	PlayerID string
}

func (c CreateRoom) apply(s *Session) error {
	p, ok := s.room.Player(c.PlayerID)
	if !ok {
		return models.NewError(models.ErrPlayerNotFound, "player %s is not in room %s", c.PlayerID, s.code)
	}
	p.Online = true
	if c.Sub == nil {
		return nil
	}
	s.subscribe(c.Sub)
	s.send(c.Sub, Event{Name: EventRoomCreated, Data: RoomCreated{
		RoomCode: s.code,
		Room:     render.Room(s.room, s.cfg.Graph, c.PlayerID),
	}})
	return nil
}

func (c JoinRoom) apply(s *Session) error {
	if p, ok := s.room.Player(c.PlayerID); ok {
		if !p.Authenticates(c.Secret) {
			return models.NewError(models.ErrPlayerNotFound, "player %s is not in room %s", c.PlayerID, s.code)
		}
		return s.attach(p, c.Sub, EventRoomUpdated)
	}
	if s.room.Status == models.StatusPlaying {
		return models.NewError(models.ErrRoomAlreadyStarted, "game in room %s has already started", s.code)
	}
	if len(s.room.Players) >= s.cfg.MaxPlayers {
		return models.NewError(models.ErrRoomFull, "room %s is full", s.code)
	}
	p := &models.Player{ID: c.PlayerID, Name: c.Name, Secret: c.Secret, Online: true}
	s.room.AddPlayer(p)
	if c.Sub != nil {
		s.subscribe(c.Sub)
	}
	s.log.Info().Str("player_id", p.ID).Str("player_name", p.Name).Msg("player joined")
	s.broadcastRoom(EventRoomUpdated)
	return nil
}

func (c LeaveRoom) apply(s *Session) error {
	if _, ok := s.room.Player(c.PlayerID); !ok {
		return models.NewError(models.ErrPlayerNotFound, "player %s is not in room %s", c.PlayerID, s.code)
	}
	s.removePlayer(c.PlayerID)
	return nil
}

func (c StartGame) apply(s *Session) error {
	if err := game.Start(s.room, c.PlayerID, s.cfg.Graph, s.rng, s.cfg.Clock.Now(), s.cfg.Options); err != nil {
		return err
	}
	st := s.room.Game
	s.log.Info().
		Int("players", len(st.Seats)).
		Int("rematch", s.room.Rematches).
		Str("mrx", st.MrX().PlayerID).
		Msg("game started")
	s.broadcastRoom(EventGameStarted)
	s.skipAbsent()
	return nil
}

func (c Rematch) apply(s *Session) error {
	return StartGame(c).apply(s)
}

func (c Move) apply(s *Session) error {
	if _, ok := s.room.Player(c.Move.PlayerID); !ok {
		return models.NewError(models.ErrPlayerNotFound, "player %s is not in room %s", c.Move.PlayerID, s.code)
	}
	if s.room.Game == nil {
		return models.NewError(models.ErrMoveNotYourTurn, "no game in progress")
	}

	before := s.room.Game.Clone()
	rec, err := game.Apply(s.room.Game, s.cfg.Graph, c.Move, s.cfg.Clock.Now())
	if err == nil {
		err = game.CheckInvariants(s.room.Game)
	}
	if err != nil {
		if _, typed := err.(*models.Error); typed {
			return err
		}
		s.room.Game = before
		s.log.Error().Err(err).Str("player_id", c.Move.PlayerID).Msg("move aborted, state restored")
		return models.NewError(models.ErrInternal, "move could not be applied")
	}

	s.log.Debug().
		Str("player_id", rec.PlayerID).
		Str("role", string(rec.Role)).
		Int("round", rec.Round).
		Str("ticket", string(rec.Ticket)).
		Msg("move applied")
	s.afterStateChange(&rec)
	return nil
}

func (c Disconnect) apply(s *Session) error {
	if c.Sub != nil {
		delete(s.subs, c.Sub)
	} else {
		s.unsubscribePlayer(c.PlayerID)
	}
	s.markOffline(c.PlayerID)
	return nil
}

func (c Reconnect) apply(s *Session) error {
	p, ok := s.room.Player(c.PlayerID)
	if !ok || !p.Authenticates(c.Token) {
		s.log.Debug().Str("player_id", c.PlayerID).Msg("reconnect refused")
		return models.NewError(models.ErrPlayerNotFound, "player %s is not in room %s", c.PlayerID, s.code)
	}
	return s.attach(p, c.Sub, EventRoomSnapshot)
}

func (c AdminKick) apply(s *Session) error {
	p, ok := s.room.PlayerByName(c.PlayerName)
	if !ok {
		return models.NewError(models.ErrPlayerNotFound, "no player named %q in room %s", c.PlayerName, s.code)
	}
	kicked := PlayerKicked{RoomCode: s.code, PlayerID: p.ID, PlayerName: p.Name}
	for sub := range s.subs {
		if sub.PlayerID() == p.ID {
			s.send(sub, Event{Name: EventPlayerKicked, Data: kicked})
		}
	}
	s.log.Info().Str("player_id", p.ID).Msg("player kicked")
	s.removePlayer(p.ID)
	return nil
}

func (c AdminClose) apply(s *Session) error {
	reason := c.Reason
	if reason == "" {
		reason = "closed by admin"
	}
	s.broadcast(EventRoomClosed, func(string) any {
		return RoomClosed{RoomCode: s.code, Reason: reason}
	})
	s.closing = true
	return nil
}

func (c Heartbeat) apply(s *Session) error {
	if _, ok := s.room.Player(c.PlayerID); !ok {
		return models.NewError(models.ErrPlayerNotFound, "player %s is not in room %s", c.PlayerID, s.code)
	}
	return nil
}

// attach marks an existing member online, updates the rest of the room and
// then subscribes sub, sending it the snapshot under event.
func (s *Session) attach(p *models.Player, sub Subscriber, event string) error {
	p.Online = true
	s.log.Info().Str("player_id", p.ID).Msg("player attached")
	s.broadcastRoom(EventRoomUpdated)
	if sub != nil {
		s.subscribe(sub)
		s.send(sub, Event{Name: event, Data: RoomPayload{Room: render.Room(s.room, s.cfg.Graph, p.ID)}})
	}
	return nil
}

// removePlayer takes a member out of the room. A seated player keeps their
// seat in a running game and their turns are skipped from then on. The room
// closes when its last member leaves.
func (s *Session) removePlayer(playerID string) {
	s.unsubscribePlayer(playerID)
	s.room.RemovePlayer(playerID)
	s.log.Info().Str("player_id", playerID).Msg("player left")
	if len(s.room.Players) == 0 {
		s.closing = true
		return
	}
	s.broadcastRoom(EventRoomUpdated)
	if s.room.Status == models.StatusPlaying {
		s.skipAbsent()
	}
}
