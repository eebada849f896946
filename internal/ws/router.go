package ws

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/catch-mister-x/internal/clock"
	"github.com/aaronzipp/catch-mister-x/internal/game"
	"github.com/aaronzipp/catch-mister-x/internal/models"
	"github.com/aaronzipp/catch-mister-x/internal/session"
	"github.com/aaronzipp/catch-mister-x/internal/store"
	"github.com/aaronzipp/catch-mister-x/internal/ticket"
)

// disconnectTimeout bounds the bookkeeping done after a connection drops.
const disconnectTimeout = 5 * time.Second

// Router maps inbound events to room commands. It holds no room state of its
// own; every mutation goes through a session.
type Router struct {
	Rooms      *store.RoomStore
	Clock      clock.Clock
	AdminToken string
	BufferSize int
}

// Serve runs a client for conn until the connection closes.
func (r *Router) Serve(ctx context.Context, conn *websocket.Conn) {
	c := newClient(conn, r.BufferSize)
	c.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("connection opened")
	go c.writePump()
	c.readPump(ctx, r)
	c.log.Debug().Str("player_id", c.PlayerID()).Msg("connection closed")
}

func errInvalid(msg string) error {
	return models.NewError(models.ErrInvalidRequest, "%s", msg)
}

func decode(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return errInvalid("malformed " + env.Event + " payload")
	}
	return nil
}

func (r *Router) handle(ctx context.Context, c *Client, env Envelope) {
	var err error
	switch env.Event {
	case EventJoinLobby:
		err = r.joinLobby(c, env)
	case EventRoomCreate:
		err = r.createRoom(ctx, c, env)
	case EventRoomJoin:
		err = r.joinRoom(ctx, c, env)
	case EventRoomLeave:
		err = r.leaveRoom(ctx, c, env)
	case EventRoomReconnect:
		err = r.reconnect(ctx, c, env)
	case EventGameStart:
		err = r.roomCommand(ctx, c, env, func(id string) session.Command { return session.StartGame{PlayerID: id} })
	case EventGameRematch:
		err = r.roomCommand(ctx, c, env, func(id string) session.Command { return session.Rematch{PlayerID: id} })
	case EventGameMove:
		err = r.move(ctx, c, env)
	case EventHeartbeat:
		err = r.heartbeat(ctx, c)
	case EventAdminFetch, EventAdminKick, EventAdminClose:
		err = r.admin(ctx, c, env)
	default:
		err = errInvalid("unknown event " + env.Event)
	}
	if err != nil {
		r.reject(c, env.Event, err)
	}
}

// reject sends a typed error to the originating connection only.
func (r *Router) reject(c *Client, event string, err error) {
	code := models.CodeOf(err)
	msg := err.Error()
	var me *models.Error
	if errors.As(err, &me) {
		msg = me.Message
	}
	c.log.Debug().Str("event", event).Str("code", string(code)).Str("player_id", c.PlayerID()).Msg(msg)
	r.reply(c, EventError, ErrorPayload{Message: msg, Code: string(code)})
}

func (r *Router) reply(c *Client, name string, data any) {
	if !c.Send(session.Event{Name: name, Data: data}) {
		c.log.Warn().Str("event", name).Msg("outbound buffer full, closing")
		c.Close()
	}
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errInvalid("player name is required")
	}
	if len([]rune(name)) > game.MaxNameLength {
		return "", errInvalid("player name is too long")
	}
	return name, nil
}

// identify gives the connection a player identity, keeping an existing id.
func (r *Router) identify(c *Client, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if c.PlayerID() == "" {
		c.setPlayerID(uuid.NewString())
		c.secret = uuid.NewString()
	}
	c.playerName = name
	r.reply(c, EventLobbyJoined, LobbyJoined{PlayerID: c.PlayerID(), PlayerName: name, ReconnectToken: c.secret})
	return nil
}

func (r *Router) joinLobby(c *Client, env Envelope) error {
	var req LobbyRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	return r.identify(c, req.PlayerName)
}

// createRoom joins the lobby and creates a room in one step.
func (r *Router) createRoom(ctx context.Context, c *Client, env Envelope) error {
	var req LobbyRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	if err := r.identify(c, req.PlayerName); err != nil {
		return err
	}
	r.leaveCurrent(ctx, c, "")

	sess, err := r.Rooms.Create(&models.Player{ID: c.PlayerID(), Name: c.playerName, Secret: c.secret})
	if err != nil {
		return err
	}
	if err := sess.Do(ctx, session.CreateRoom{PlayerID: c.PlayerID(), Sub: c}); err != nil {
		return err
	}
	c.roomCode = sess.Code()
	return nil
}

// joinRoom joins the lobby and a room in one step.
func (r *Router) joinRoom(ctx context.Context, c *Client, env Envelope) error {
	var req RoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	code := game.NormalizeRoomCode(req.RoomCode)
	if !game.ValidRoomCode(code) {
		return models.NewError(models.ErrRoomNotFound, "room %s not found", code)
	}
	sess, err := r.Rooms.Find(code)
	if err != nil {
		return err
	}
	if err := r.identify(c, req.PlayerName); err != nil {
		return err
	}
	r.leaveCurrent(ctx, c, code)

	if err := sess.Do(ctx, session.JoinRoom{PlayerID: c.PlayerID(), Name: c.playerName, Secret: c.secret, Sub: c}); err != nil {
		return err
	}
	c.roomCode = code
	return nil
}

func (r *Router) leaveRoom(ctx context.Context, c *Client, env Envelope) error {
	var req RoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	sess, err := r.target(c, req.RoomCode)
	if err != nil {
		return err
	}
	if err := sess.Do(ctx, session.LeaveRoom{PlayerID: c.PlayerID()}); err != nil {
		return err
	}
	if c.roomCode == sess.Code() {
		c.roomCode = ""
	}
	return nil
}

// reconnect resumes a known identity on this connection. The identity is
// only adopted once the room has accepted the reconnect token.
func (r *Router) reconnect(ctx context.Context, c *Client, env Envelope) error {
	var req RoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	if req.PlayerID == "" || req.Token == "" {
		return errInvalid("playerId and reconnectToken are required")
	}
	sess, err := r.Rooms.Find(req.RoomCode)
	if err != nil {
		return err
	}
	if c.PlayerID() != req.PlayerID || c.roomCode != sess.Code() {
		r.detach(ctx, c)
	}
	prevID := c.PlayerID()
	c.setPlayerID(req.PlayerID)
	if err := sess.Do(ctx, session.Reconnect{PlayerID: req.PlayerID, Token: req.Token, Sub: c}); err != nil {
		c.setPlayerID(prevID)
		return err
	}
	c.secret = req.Token
	c.roomCode = sess.Code()
	return nil
}

func (r *Router) roomCommand(ctx context.Context, c *Client, env Envelope, build func(playerID string) session.Command) error {
	var req RoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	sess, err := r.target(c, req.RoomCode)
	if err != nil {
		return err
	}
	return sess.Do(ctx, build(c.PlayerID()))
}

func (r *Router) move(ctx context.Context, c *Client, env Envelope) error {
	var req MoveRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	sess, err := r.target(c, req.RoomCode)
	if err != nil {
		return err
	}
	kind, ok := ticket.ParseKind(req.TicketType)
	if !ok {
		return models.NewError(models.ErrMoveNoTicket, "unknown ticket type %q", req.TicketType)
	}
	return sess.Do(ctx, session.Move{Move: models.Move{
		PlayerID:      c.PlayerID(),
		From:          req.From,
		To:            req.To,
		Ticket:        kind,
		UseDoubleMove: req.UseDoubleMove,
	}})
}

func (r *Router) heartbeat(ctx context.Context, c *Client) error {
	if c.roomCode != "" && c.PlayerID() != "" {
		if sess, err := r.Rooms.Find(c.roomCode); err == nil {
			if err := sess.Do(ctx, session.Heartbeat{PlayerID: c.PlayerID()}); err != nil {
				return err
			}
		}
	}
	r.reply(c, EventHeartbeatAck, HeartbeatAck{ServerTime: r.now()})
	return nil
}

func (r *Router) admin(ctx context.Context, c *Client, env Envelope) error {
	var req AdminRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	if !r.Authorized(req.Token) {
		return models.NewError(models.ErrUnauthorized, "admin token required")
	}
	if env.Event == EventAdminFetch {
		r.reply(c, EventAdminRooms, AdminRooms{Rooms: r.Rooms.Snapshot()})
		return nil
	}
	sess, err := r.Rooms.Find(req.RoomCode)
	if err != nil {
		return err
	}
	var cmd session.Command = session.AdminClose{}
	if env.Event == EventAdminKick {
		cmd = session.AdminKick{PlayerName: req.PlayerName}
	}
	log.Info().Str("event", env.Event).Str("room_code", sess.Code()).Str("player_name", req.PlayerName).Msg("admin command")
	if err := sess.Do(ctx, cmd); err != nil {
		return err
	}
	r.reply(c, EventAdminRooms, AdminRooms{Rooms: r.Rooms.Snapshot()})
	return nil
}

// Authorized checks an admin token. Without a configured token every caller
// is trusted.
func (r *Router) Authorized(token string) bool {
	if r.AdminToken == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(r.AdminToken)) == 1
}

// target resolves the room a command is addressed to, defaulting to the
// connection's current room.
func (r *Router) target(c *Client, code string) (*session.Session, error) {
	if c.PlayerID() == "" {
		return nil, errInvalid("join the lobby first")
	}
	if strings.TrimSpace(code) == "" {
		code = c.roomCode
	}
	if code == "" {
		return nil, models.NewError(models.ErrRoomNotFound, "not in a room")
	}
	return r.Rooms.Find(code)
}

// leaveCurrent leaves the connection's room unless it is keep.
func (r *Router) leaveCurrent(ctx context.Context, c *Client, keep string) {
	if c.roomCode == "" || c.roomCode == keep {
		return
	}
	if sess, err := r.Rooms.Find(c.roomCode); err == nil {
		_ = sess.Do(ctx, session.LeaveRoom{PlayerID: c.PlayerID()})
	}
	c.roomCode = ""
}

// detach drops this connection from its room without leaving it.
func (r *Router) detach(ctx context.Context, c *Client) {
	if c.roomCode == "" {
		return
	}
	if sess, err := r.Rooms.Find(c.roomCode); err == nil {
		_ = sess.Do(ctx, session.Disconnect{PlayerID: c.PlayerID(), Sub: c})
	}
	c.roomCode = ""
}

// disconnect runs once the connection is gone. The request context may
// already be cancelled, so the bookkeeping gets its own deadline.
func (r *Router) disconnect(c *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	r.detach(ctx, c)
}

func (r *Router) now() time.Time {
	if r.Clock == nil {
		return time.Now()
	}
	return r.Clock.Now()
}
