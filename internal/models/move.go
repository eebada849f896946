package models

import (
	"time"

	"github.com/aaronzipp/catch-mister-x/internal/ticket"
)

// Visibility says who may see the stations of a recorded move.
type Visibility string

const (
	VisibleAll     Visibility = "all"
	VisibleMrXOnly Visibility = "mrX-only"
)

// MoveRecord is one accepted move. Records are append-only.
type MoveRecord struct {
	Round     int
	PlayerID  string
	Role      Role
	From      int
	To        int
	Ticket    ticket.Kind
	Double    bool // first leg of a double move
	Timestamp time.Time
	VisibleTo Visibility
}

// Move is a move request as received from a player.
type Move struct {
	PlayerID      string
	From          int
	To            int
	Ticket        ticket.Kind
	UseDoubleMove bool
}
