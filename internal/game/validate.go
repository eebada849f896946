package game

import (
	"github.com/aaronzipp/catch-mister-x/internal/graph"
	"github.com/aaronzipp/catch-mister-x/internal/models"
	"github.com/aaronzipp/catch-mister-x/internal/ticket"
)

// Validate decides whether m is legal in the current state. The client's
// declared origin is checked against the server-side position and never
// trusted. Checks run in a fixed order so every rejection maps to exactly one
// error code.
func Validate(st *models.Game, g *graph.Graph, m models.Move) error {
	if st == nil || st.Phase != models.PhaseInPlay {
		return models.NewError(models.ErrMoveNotYourTurn, "no game in play")
	}
	seat := st.Current()
	if seat == nil || seat.PlayerID != m.PlayerID {
		return models.NewError(models.ErrMoveNotYourTurn, "it is not your turn")
	}
	if m.From != seat.Position {
		return models.NewError(models.ErrMoveInvalidFrom, "you are at station %d, not %d", seat.Position, m.From)
	}
	if m.From == m.To {
		return models.NewError(models.ErrMoveSameStation, "origin and destination are the same station")
	}
	for _, station := range []int{m.From, m.To} {
		if !g.Has(station) {
			return models.NewError(models.ErrMoveUnknownStation, "station %d is not on the map", station)
		}
	}
	// Checked before possession: detectives are told black is off limits even
	// if an inventory somehow holds one.
	if m.Ticket == ticket.Black && !seat.IsMrX() {
		return models.NewError(models.ErrMoveBlackNotAllowed, "only Mr. X may use black tickets")
	}
	if !seat.Tickets.Has(m.Ticket) {
		return models.NewError(models.ErrMoveNoTicket, "no %s ticket left", m.Ticket)
	}

	switch m.Ticket {
	case ticket.Taxi, ticket.Bus, ticket.Underground:
		if !g.Connected(m.From, m.To, m.Ticket) {
			return models.NewError(models.ErrMoveNotConnected, "no %s route from %d to %d", m.Ticket, m.From, m.To)
		}
	case ticket.Black:
		if !g.Adjacent(m.From, m.To) {
			return models.NewError(models.ErrMoveNotConnected, "no route from %d to %d", m.From, m.To)
		}
	default:
		return models.NewError(models.ErrMoveNotConnected, "%q cannot pay for a move", m.Ticket)
	}

	if blocker := occupant(st, m.To, seat); blocker != nil {
		return models.NewError(models.ErrMoveOccupied, "station %d is occupied by %s", m.To, blocker.Name)
	}

	if m.UseDoubleMove {
		switch {
		case !seat.IsMrX():
			return models.NewError(models.ErrMoveDoubleNotAllowed, "only Mr. X may double move")
		case seat.DoubleMoves <= 0:
			return models.NewError(models.ErrMoveDoubleNotAllowed, "no double-move cards left")
		case st.DoubleMove.Active:
			return models.NewError(models.ErrMoveDoubleNotAllowed, "a double move is already in progress")
		}
	}
	return nil
}

// occupant returns the detective that blocks mover from entering station.
// Mr. X is blocked by any detective; a detective only by another detective,
// since moving onto Mr. X is a capture.
func occupant(st *models.Game, station int, mover *models.Seat) *models.Seat {
	for _, d := range st.Detectives() {
		if d == mover {
			continue
		}
		if d.Position == station {
			return d
		}
	}
	return nil
}

// LegalMoves enumerates every move the seat could make right now, ignoring
// whose turn it is and double-move cards.
func LegalMoves(st *models.Game, g *graph.Graph, seat *models.Seat) []models.Move {
	var out []models.Move
	for _, n := range g.Neighbors(seat.Position) {
		if occupant(st, n.Station, seat) != nil {
			continue
		}
		for _, k := range n.Modes.Kinds() {
			if k != ticket.Ferry && seat.Tickets.Has(k) {
				out = append(out, models.Move{PlayerID: seat.PlayerID, From: seat.Position, To: n.Station, Ticket: k})
			}
		}
		if seat.IsMrX() && seat.Tickets.Has(ticket.Black) {
			out = append(out, models.Move{PlayerID: seat.PlayerID, From: seat.Position, To: n.Station, Ticket: ticket.Black})
		}
	}
	return out
}

// HasLegalMove reports whether the seat has at least one move available.
func HasLegalMove(st *models.Game, g *graph.Graph, seat *models.Seat) bool {
	for _, n := range g.Neighbors(seat.Position) {
		if occupant(st, n.Station, seat) != nil {
			continue
		}
		if seat.IsMrX() && seat.Tickets.Has(ticket.Black) {
			return true
		}
		for _, k := range n.Modes.Kinds() {
			if k != ticket.Ferry && seat.Tickets.Has(k) {
				return true
			}
		}
	}
	return false
}
