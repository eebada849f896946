package ws

import (
	"encoding/json"
	"time"

	"github.com/aaronzipp/catch-mister-x/internal/render"
)

// Inbound event names
const (
	EventJoinLobby     = "join:lobby"
	EventRoomCreate    = "room:create"
	EventRoomJoin      = "room:join"
	EventRoomLeave     = "room:leave"
	EventRoomReconnect = "room:reconnect"
	EventGameStart     = "game:start"
	EventGameMove      = "game:move"
	EventGameRematch   = "game:rematch"
	EventHeartbeat     = "heartbeat"
	EventAdminFetch    = "admin:fetch"
	EventAdminKick     = "admin:kick-player"
	EventAdminClose    = "admin:close-room"
)

// Outbound event names answered by the router itself. Room events are named
// in the session package.
const (
	EventLobbyJoined  = "lobby:joined"
	EventHeartbeatAck = "heartbeat:ack"
	EventAdminRooms   = "admin:rooms"
	EventError        = "error"
)

// Envelope is the frame of every message in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// LobbyRequest is the payload of join:lobby and room:create
type LobbyRequest struct {
	PlayerName string `json:"playerName"`
}

// RoomRequest covers every room-addressed command
type RoomRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName,omitempty"`
	PlayerID   string `json:"playerId,omitempty"`
	Token      string `json:"reconnectToken,omitempty"`
}

type MoveRequest struct {
	RoomCode      string `json:"roomCode"`
	From          int    `json:"from"`
	To            int    `json:"to"`
	TicketType    string `json:"ticketType"`
	UseDoubleMove bool   `json:"useDoubleMove,omitempty"`
}

// AdminRequest is the payload of the admin commands. Token is only checked
// when the server has one configured.
type AdminRequest struct {
	Token      string `json:"token,omitempty"`
	RoomCode   string `json:"roomCode,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
}

// LobbyJoined confirms an identity. ReconnectToken is only ever sent to the
// connection that owns it; room:reconnect must present it.
type LobbyJoined struct {
	PlayerID       string `json:"playerId"`
	PlayerName     string `json:"playerName"`
	ReconnectToken string `json:"reconnectToken"`
}

type HeartbeatAck struct {
	ServerTime time.Time `json:"serverTime"`
}

type AdminRooms struct {
	Rooms []render.Summary `json:"rooms"`
}

// ErrorPayload is sent to the originator of a rejected command only
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}
