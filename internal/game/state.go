package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/aaronzipp/catch-mister-x/internal/graph"
	"github.com/aaronzipp/catch-mister-x/internal/models"
	"github.com/aaronzipp/catch-mister-x/internal/ticket"
)

// Options are the per-room rule parameters.
type Options struct {
	RevealRounds []int
	FinalRound   int
}

// OptionsFor takes the reveal schedule and final round from the map
// definition, falling back to the classic rules.
func OptionsFor(g *graph.Graph) Options {
	def := g.Definition()
	opts := Options{RevealRounds: def.RevealRounds, FinalRound: def.FinalRound}
	if len(opts.RevealRounds) == 0 {
		opts.RevealRounds = DefaultRevealRounds
	}
	if opts.FinalRound <= 0 {
		opts.FinalRound = DefaultFinalRound
	}
	return opts
}

// Start assigns roles and starting stations and puts the room in play. It is
// used for both the first game and rematches; a rematch replaces the previous
// game wholesale.
func Start(room *models.Room, playerID string, g *graph.Graph, rng *rand.Rand, now time.Time, opts Options) error {
	if !room.IsHost(playerID) {
		return models.NewError(models.ErrRoomNotHost, "only the host can start the game")
	}
	if room.Status == models.StatusPlaying {
		return models.NewError(models.ErrRoomAlreadyStarted, "game already in progress")
	}
	if len(room.Players) < MinPlayers {
		return models.NewError(models.ErrRoomTooFewPlayers, "need at least %d players", MinPlayers)
	}
	starts := g.StartingStations()
	if len(starts) < len(room.Players) {
		return models.NewError(models.ErrInternal, "map has %d starting stations for %d players", len(starts), len(room.Players))
	}

	st := &models.Game{
		Phase:        models.PhaseAssigning,
		RevealRounds: make(map[int]bool, len(opts.RevealRounds)),
		FinalRound:   opts.FinalRound,
		StartedAt:    now,
	}
	for _, r := range opts.RevealRounds {
		st.RevealRounds[r] = true
	}

	// Starting stations are drawn without replacement.
	perm := rng.Perm(len(starts))
	detectives := len(room.Players) - 1
	for i, p := range room.Players {
		seat := &models.Seat{
			PlayerID: p.ID,
			Name:     p.Name,
			Position: starts[perm[i]],
		}
		if i == 0 {
			seat.Role = models.RoleMrX
			seat.Tickets = ticket.MrXInventory(detectives)
			seat.DoubleMoves = MrXDoubleMoves
		} else {
			seat.Role = models.DetectiveRole(i - 1)
			seat.Tickets = ticket.DetectiveInventory()
		}
		st.Seats = append(st.Seats, seat)
	}

	st.Round = 1
	st.Turn = 0
	st.TurnStarted = now
	st.Phase = models.PhaseInPlay

	if room.Game != nil {
		room.Rematches++
	}
	room.Game = st
	room.Status = models.StatusPlaying
	return nil
}

// IsRevealRound reports whether Mr. X's position is disclosed after moving in round.
func IsRevealRound(st *models.Game, round int) bool {
	return st.RevealRounds[round]
}

// Apply validates m against the current state and, if it is legal, spends the
// ticket, records the move, advances the turn and evaluates the end of the game.
// A rejected move leaves the state untouched.
func Apply(st *models.Game, g *graph.Graph, m models.Move, now time.Time) (models.MoveRecord, error) {
	if err := Validate(st, g, m); err != nil {
		return models.MoveRecord{}, err
	}
	seat := st.Current()
	mrx := st.MrX()

	if seat.IsMrX() {
		if err := seat.Tickets.Debit(m.Ticket); err != nil {
			return models.MoveRecord{}, fmt.Errorf("debit after validation: %w", err)
		}
	} else {
		// Spent detective tickets go to Mr. X.
		if err := ticket.Transfer(seat.Tickets, mrx.Tickets, m.Ticket); err != nil {
			return models.MoveRecord{}, fmt.Errorf("transfer after validation: %w", err)
		}
	}

	firstLeg := false
	if m.UseDoubleMove {
		seat.DoubleMoves--
		st.DoubleMove = models.DoubleMoveLatch{Active: true}
		firstLeg = true
	}

	rec := models.MoveRecord{
		Round:     st.Round,
		PlayerID:  seat.PlayerID,
		Role:      seat.Role,
		From:      m.From,
		To:        m.To,
		Ticket:    m.Ticket,
		Double:    firstLeg,
		Timestamp: now,
		VisibleTo: models.VisibleAll,
	}
	seat.Position = m.To
	if seat.IsMrX() {
		if IsRevealRound(st, st.Round) {
			to := m.To
			st.LastRevealed = &to
		} else {
			rec.VisibleTo = models.VisibleMrXOnly
		}
	}
	st.History = append(st.History, rec)

	advance(st, g, seat, firstLeg, now)
	return rec, nil
}

// SkipTurn forfeits the current player's turn without recording a move. Used
// when the player whose turn it is stays offline past the turn timeout.
func SkipTurn(st *models.Game, g *graph.Graph, now time.Time) {
	if st.Phase != models.PhaseInPlay {
		return
	}
	seat := st.Current()
	if seat.IsMrX() {
		st.DoubleMove = models.DoubleMoveLatch{}
	}
	finishTurn(st, g, now)
}

func advance(st *models.Game, g *graph.Graph, moved *models.Seat, firstLeg bool, now time.Time) {
	if captured(st) {
		terminate(st, models.WinnerDetectives, models.ReasonCapture)
		return
	}
	if moved.IsMrX() {
		if firstLeg {
			st.DoubleMove.FirstLegDone = true
			if HasLegalMove(st, g, moved) {
				st.TurnStarted = now
				return
			}
			// Nowhere to go for the second leg; it is forfeited.
		}
		st.DoubleMove = models.DoubleMoveLatch{}
	}
	finishTurn(st, g, now)
}

// finishTurn moves the cursor past the current seat, silently skipping
// detectives that cannot move, and evaluates the game once it settles.
func finishTurn(st *models.Game, g *graph.Graph, now time.Time) {
	overflow := false
	for {
		st.Turn++
		if st.Turn >= len(st.Seats) {
			st.Turn = 0
			if st.Round >= st.FinalRound {
				overflow = true
			} else {
				st.Round++
			}
			break
		}
		if HasLegalMove(st, g, st.Seats[st.Turn]) {
			break
		}
	}
	st.TurnStarted = now
	if v := Evaluate(st, g, overflow); v != nil {
		terminate(st, v.Winner, v.Reason)
	}
}

func terminate(st *models.Game, w models.Winner, r models.Reason) {
	st.Phase = models.PhaseTerminated
	st.Verdict = &models.Verdict{Winner: w, Reason: r}
	st.DoubleMove = models.DoubleMoveLatch{}
}

// CheckInvariants reports the first broken state invariant, if any.
func CheckInvariants(st *models.Game) error {
	seen := map[int]string{}
	for _, s := range st.Seats {
		if !s.Tickets.Valid() {
			return fmt.Errorf("seat %s has invalid tickets %s", s.Role, s.Tickets)
		}
		if s.DoubleMoves < 0 {
			return fmt.Errorf("seat %s has negative double moves", s.Role)
		}
		if s.IsMrX() {
			continue
		}
		if other, ok := seen[s.Position]; ok {
			return fmt.Errorf("detectives %s and %s share station %d", other, s.Role, s.Position)
		}
		seen[s.Position] = string(s.Role)
	}
	if mrx := st.MrX(); mrx != nil && st.Phase == models.PhaseInPlay {
		if other, ok := seen[mrx.Position]; ok {
			return fmt.Errorf("mrX shares station %d with %s outside a capture", mrx.Position, other)
		}
	}
	if st.Phase == models.PhaseInPlay && (st.Round < 1 || st.Round > st.FinalRound) {
		return fmt.Errorf("round %d out of range", st.Round)
	}
	if (st.Phase == models.PhaseTerminated) != (st.Verdict != nil) {
		return fmt.Errorf("phase %s inconsistent with verdict", st.Phase)
	}
	return nil
}

// RecordResult closes out a terminated game: the room is marked finished and
// the scores of every seated player still in the room are updated. Calling it
// again for the same game is a no-op.
func RecordResult(room *models.Room) {
	st := room.Game
	if st == nil || st.Verdict == nil || room.Status == models.StatusFinished {
		return
	}
	room.Status = models.StatusFinished
	for _, s := range st.Seats {
		score, ok := room.Scores[s.PlayerID]
		if !ok {
			continue
		}
		if s.IsMrX() == (st.Verdict.Winner == models.WinnerMrX) {
			score.GamesWon++
		} else {
			score.GamesLost++
		}
	}
}
