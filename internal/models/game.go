package models

import "time"

// DoubleMoveLatch tracks Mr. X's double move within a round.
type DoubleMoveLatch struct {
	Active       bool
	FirstLegDone bool
}

// Game represents the state of one match. It is owned by a single room
// session and replaced wholesale on rematch.
type Game struct {
	Phase        Phase
	Round        int
	Turn         int     // index into Seats; Mr. X is always seat 0
	Seats        []*Seat // Mr. X first, then detectives in fixed order
	History      []MoveRecord
	DoubleMove   DoubleMoveLatch
	LastRevealed *int
	Verdict      *Verdict
	RevealRounds map[int]bool
	FinalRound   int
	StartedAt    time.Time
	TurnStarted  time.Time
}

// MrX returns Mr. X's seat.
func (g *Game) MrX() *Seat {
	if len(g.Seats) == 0 {
		return nil
	}
	return g.Seats[0]
}

// Detectives returns the detective seats in turn order.
func (g *Game) Detectives() []*Seat {
	if len(g.Seats) < 2 {
		return nil
	}
	return g.Seats[1:]
}

// Current returns the seat whose turn it is.
func (g *Game) Current() *Seat {
	if g.Turn < 0 || g.Turn >= len(g.Seats) {
		return nil
	}
	return g.Seats[g.Turn]
}

// SeatOf finds the seat held by playerID.
func (g *Game) SeatOf(playerID string) (*Seat, bool) {
	for _, s := range g.Seats {
		if s.PlayerID == playerID {
			return s, true
		}
	}
	return nil, false
}

func (g *Game) Terminated() bool { return g.Phase == PhaseTerminated }

// Clone returns a deep copy, used to roll back a command that broke an invariant.
func (g *Game) Clone() *Game {
	out := *g
	out.Seats = make([]*Seat, len(g.Seats))
	for i, s := range g.Seats {
		cp := *s
		cp.Tickets = s.Tickets.Clone()
		out.Seats[i] = &cp
	}
	out.History = append([]MoveRecord(nil), g.History...)
	if g.LastRevealed != nil {
		v := *g.LastRevealed
		out.LastRevealed = &v
	}
	if g.Verdict != nil {
		v := *g.Verdict
		out.Verdict = &v
	}
	out.RevealRounds = make(map[int]bool, len(g.RevealRounds))
	for r, ok := range g.RevealRounds {
		out.RevealRounds[r] = ok
	}
	return &out
}
