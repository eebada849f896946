package session

import "github.com/aaronzipp/catch-mister-x/internal/render"

// Outbound event names produced by a room session
const (
	EventRoomCreated        = "room:created"
	EventRoomUpdated        = "room:updated"
	EventRoomSnapshot       = "room:snapshot"
	EventRoomClosed         = "room:closed"
	EventGameStarted        = "game:started"
	EventGameStateUpdated   = "game:state:updated"
	EventGameOver           = "game:over"
	EventPlayerDisconnected = "player:disconnected"
	EventPlayerKicked       = "player:kicked"
)

// Event is one outbound message. Data is built per recipient and never
// shared between subscribers.
type Event struct {
	Name string
	Data any
}

// RoomCreated is sent to the creator only
type RoomCreated struct {
	RoomCode string          `json:"roomCode"`
	Room     render.RoomView `json:"room"`
}

// RoomPayload carries the recipient's view of the room
type RoomPayload struct {
	Room render.RoomView `json:"room"`
}

// StateUpdated follows every accepted move. LastMove is nil when the cursor
// moved without a move, e.g. a skipped turn.
type StateUpdated struct {
	Room     render.RoomView  `json:"room"`
	LastMove *render.MoveView `json:"lastMove"`
}

type PlayerDisconnected struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type RoomClosed struct {
	RoomCode string `json:"roomCode"`
	Reason   string `json:"reason"`
}

type PlayerKicked struct {
	RoomCode   string `json:"roomCode"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}
