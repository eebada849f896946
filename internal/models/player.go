package models

import (
	"crypto/subtle"
	"time"

	"github.com/aaronzipp/catch-mister-x/internal/ticket"
)

// Player represents a member of a room
type Player struct {
	ID           string
	Name         string
	Online       bool
	OfflineSince time.Time
	Secret       string // reconnect token, never rendered
}

// Authenticates reports whether token is the player's reconnect secret. A
// player without a secret cannot be resumed.
func (p *Player) Authenticates(token string) bool {
	return p.Secret != "" && subtle.ConstantTimeCompare([]byte(p.Secret), []byte(token)) == 1
}

// PlayerScore tracks wins and losses across rematches in the same room
type PlayerScore struct {
	GamesWon  int
	GamesLost int
}

// Seat contains game-specific player information
type Seat struct {
	PlayerID    string
	Name        string
	Role        Role
	Position    int
	Tickets     ticket.Inventory
	DoubleMoves int // Mr. X only
}

func (s *Seat) IsMrX() bool { return s.Role.IsMrX() }
