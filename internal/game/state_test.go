package game

import (
	"errors"
	"math/rand"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/aaronzipp/catch-mister-x/internal/graph"
	"github.com/aaronzipp/catch-mister-x/internal/models"
	"github.com/aaronzipp/catch-mister-x/internal/ticket"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newRoom(code string, names ...string) *models.Room {
	host := &models.Player{ID: names[0], Name: names[0], Online: true}
	room := models.NewRoom(code, host, t0)
	for _, n := range names[1:] {
		room.AddPlayer(&models.Player{ID: n, Name: n, Online: true})
	}
	return room
}

func startGame(t *testing.T, names ...string) (*models.Room, *models.Game, *graph.Graph) {
	t.Helper()
	g := graph.Small()
	room := newRoom("ABCDEF", names...)
	if err := Start(room, names[0], g, NewRand(room.Code), t0, OptionsFor(g)); err != nil {
		t.Fatalf("start: %v", err)
	}
	return room, room.Game, g
}

// place puts seats on fixed stations, in seat order.
func place(st *models.Game, stations ...int) {
	for i, s := range stations {
		st.Seats[i].Position = s
	}
}

func mustApply(t *testing.T, st *models.Game, g *graph.Graph, m models.Move) models.MoveRecord {
	t.Helper()
	rec, err := Apply(st, g, m, t0)
	if err != nil {
		t.Fatalf("move %+v rejected: %v", m, err)
	}
	return rec
}

func expectCode(t *testing.T, err error, want models.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want)
	}
	if got := models.CodeOf(err); got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}
}

func TestStartAssignsRolesAndStations(t *testing.T) {
	room, st, g := startGame(t, "alice", "bob")

	if room.Status != models.StatusPlaying || st.Phase != models.PhaseInPlay {
		t.Fatalf("expected playing/inPlay, got %s/%s", room.Status, st.Phase)
	}
	if st.Seats[0].PlayerID != "alice" || st.Seats[0].Role != models.RoleMrX {
		t.Fatalf("expected alice to be mrX, got %+v", st.Seats[0])
	}
	if st.Seats[1].PlayerID != "bob" || st.Seats[1].Role != "detective0" {
		t.Fatalf("expected bob to be detective0, got %+v", st.Seats[1])
	}
	if st.Round != 1 || st.Turn != 0 {
		t.Fatalf("expected round 1 turn 0, got %d/%d", st.Round, st.Turn)
	}
	if st.Seats[0].Position == st.Seats[1].Position {
		t.Fatalf("players share a starting station")
	}
	for _, s := range st.Seats {
		if !slices.Contains(g.StartingStations(), s.Position) {
			t.Fatalf("station %d is not a starting station", s.Position)
		}
	}
	mrx := st.MrX()
	if mrx.Tickets.Count(ticket.Taxi) != 4 || mrx.Tickets.Count(ticket.Black) != 1 || mrx.DoubleMoves != 2 {
		t.Fatalf("unexpected mrX inventory %s double=%d", mrx.Tickets, mrx.DoubleMoves)
	}
	det := st.Seats[1]
	if det.Tickets.Count(ticket.Taxi) != 10 || det.Tickets.Count(ticket.Bus) != 8 || det.Tickets.Count(ticket.Underground) != 4 {
		t.Fatalf("unexpected detective inventory %s", det.Tickets)
	}
}

func TestStartRejections(t *testing.T) {
	g := graph.Small()

	room := newRoom("ABCDEF", "alice", "bob")
	expectCode(t, Start(room, "bob", g, NewRand(room.Code), t0, OptionsFor(g)), models.ErrRoomNotHost)

	solo := newRoom("ABCDEF", "alice")
	expectCode(t, Start(solo, "alice", g, NewRand(solo.Code), t0, OptionsFor(g)), models.ErrRoomTooFewPlayers)

	if err := Start(room, "alice", g, NewRand(room.Code), t0, OptionsFor(g)); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectCode(t, Start(room, "alice", g, NewRand(room.Code), t0, OptionsFor(g)), models.ErrRoomAlreadyStarted)
}

func TestStartIsDeterministicPerRoomCode(t *testing.T) {
	g := graph.Small()
	positions := func() []int {
		room := newRoom("QWERTY", "a", "b", "c", "d", "e", "f")
		if err := Start(room, "a", g, NewRand(room.Code), t0, OptionsFor(g)); err != nil {
			t.Fatalf("start: %v", err)
		}
		var out []int
		for _, s := range room.Game.Seats {
			out = append(out, s.Position)
		}
		return out
	}
	first, second := positions(), positions()
	if !slices.Equal(first, second) {
		t.Fatalf("same room code gave different starts: %v vs %v", first, second)
	}
	seen := map[int]bool{}
	for _, p := range first {
		if seen[p] {
			t.Fatalf("starting station %d assigned twice", p)
		}
		seen[p] = true
	}
}

func TestLegalTaxiThenWrongTurn(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob")
	place(st, 1, 10)

	rec := mustApply(t, st, g, models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi})
	if st.MrX().Tickets.Count(ticket.Taxi) != 3 {
		t.Fatalf("expected mrX taxi 3, got %d", st.MrX().Tickets.Count(ticket.Taxi))
	}
	if rec.VisibleTo != models.VisibleMrXOnly {
		t.Fatalf("round 1 move should be hidden, got %s", rec.VisibleTo)
	}
	if st.LastRevealed != nil {
		t.Fatalf("nothing should be revealed in round 1")
	}
	if st.Turn != 1 {
		t.Fatalf("expected bob's turn, got %d", st.Turn)
	}

	_, err := Apply(st, g, models.Move{PlayerID: "alice", From: 2, To: 9, Ticket: ticket.Taxi}, t0)
	expectCode(t, err, models.ErrMoveNotYourTurn)
}

func TestDetectiveTicketsGoToMrX(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob")
	place(st, 1, 10)
	mustApply(t, st, g, models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi})
	mustApply(t, st, g, models.Move{PlayerID: "bob", From: 10, To: 18, Ticket: ticket.Underground})

	if got := st.Seats[1].Tickets.Count(ticket.Underground); got != 3 {
		t.Fatalf("expected bob underground 3, got %d", got)
	}
	if got := st.MrX().Tickets.Count(ticket.Underground); got != 4 {
		t.Fatalf("expected mrX underground 4, got %d", got)
	}
	if st.Round != 2 || st.Turn != 0 {
		t.Fatalf("expected round 2 mrX turn, got %d/%d", st.Round, st.Turn)
	}
}

func TestCapture(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob")
	place(st, 5, 2)
	st.Turn = 1

	mustApply(t, st, g, models.Move{PlayerID: "bob", From: 2, To: 5, Ticket: ticket.Taxi})
	if st.Phase != models.PhaseTerminated {
		t.Fatalf("expected game over, got %s", st.Phase)
	}
	if st.Verdict.Winner != models.WinnerDetectives || st.Verdict.Reason != models.ReasonCapture {
		t.Fatalf("unexpected verdict %+v", st.Verdict)
	}
	if st.Round != 1 {
		t.Fatalf("expected final round 1, got %d", st.Round)
	}
	if err := CheckInvariants(st); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestRevealRound(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob")
	place(st, 8, 12)
	st.Round = 3

	rec := mustApply(t, st, g, models.Move{PlayerID: "alice", From: 8, To: 6, Ticket: ticket.Bus})
	if rec.VisibleTo != models.VisibleAll {
		t.Fatalf("round 3 move should be public, got %s", rec.VisibleTo)
	}
	if st.LastRevealed == nil || *st.LastRevealed != 6 {
		t.Fatalf("expected last revealed 6, got %v", st.LastRevealed)
	}
}

func TestBlackTicketOverFerry(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob")
	place(st, 17, 1)
	st.Round = 2
	before := st.MrX().Tickets.Clone()

	rec := mustApply(t, st, g, models.Move{PlayerID: "alice", From: 17, To: 18, Ticket: ticket.Black})
	after := st.MrX().Tickets
	if after.Count(ticket.Black) != before.Count(ticket.Black)-1 {
		t.Fatalf("black not debited: %s -> %s", before, after)
	}
	for _, k := range []ticket.Kind{ticket.Taxi, ticket.Bus, ticket.Underground} {
		if after.Count(k) != before.Count(k) {
			t.Fatalf("%s changed on a black move", k)
		}
	}
	if rec.VisibleTo != models.VisibleMrXOnly {
		t.Fatalf("round 2 move should be hidden")
	}
}

func TestDoubleMove(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob")
	place(st, 5, 1)
	st.Round = 5

	mustApply(t, st, g, models.Move{PlayerID: "alice", From: 5, To: 17, Ticket: ticket.Bus, UseDoubleMove: true})
	if st.Turn != 0 || !st.DoubleMove.Active || !st.DoubleMove.FirstLegDone {
		t.Fatalf("expected latch set and mrX to move again, turn=%d latch=%+v", st.Turn, st.DoubleMove)
	}
	if st.Round != 5 {
		t.Fatalf("round must not advance mid double move")
	}

	_, err := Apply(st, g, models.Move{PlayerID: "alice", From: 17, To: 18, Ticket: ticket.Black, UseDoubleMove: true}, t0)
	expectCode(t, err, models.ErrMoveDoubleNotAllowed)

	mustApply(t, st, g, models.Move{PlayerID: "alice", From: 17, To: 18, Ticket: ticket.Black})
	if st.Turn != 1 || st.DoubleMove.Active {
		t.Fatalf("expected detective turn and cleared latch, turn=%d latch=%+v", st.Turn, st.DoubleMove)
	}
	if st.MrX().DoubleMoves != 1 {
		t.Fatalf("expected one double move left, got %d", st.MrX().DoubleMoves)
	}
	if st.Round != 5 || len(st.History) != 2 {
		t.Fatalf("unexpected round %d history %d", st.Round, len(st.History))
	}
}

func TestValidationRejections(t *testing.T) {
	cases := []struct {
		name  string
		setup func(st *models.Game)
		move  models.Move
		want  models.ErrorCode
	}{
		{
			name: "invalid from",
			move: models.Move{PlayerID: "alice", From: 3, To: 4, Ticket: ticket.Taxi},
			want: models.ErrMoveInvalidFrom,
		},
		{
			name: "same station",
			move: models.Move{PlayerID: "alice", From: 1, To: 1, Ticket: ticket.Taxi},
			want: models.ErrMoveSameStation,
		},
		{
			name: "unknown station",
			move: models.Move{PlayerID: "alice", From: 1, To: 99, Ticket: ticket.Taxi},
			want: models.ErrMoveUnknownStation,
		},
		{
			name:  "no ticket",
			setup: func(st *models.Game) { st.MrX().Tickets[ticket.Taxi] = 0 },
			move:  models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi},
			want:  models.ErrMoveNoTicket,
		},
		{
			name: "ferry is not a ticket",
			move: models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Ferry},
			want: models.ErrMoveNoTicket,
		},
		{
			name: "not connected",
			move: models.Move{PlayerID: "alice", From: 1, To: 9, Ticket: ticket.Taxi},
			want: models.ErrMoveNotConnected,
		},
		{
			name: "black needs an edge",
			move: models.Move{PlayerID: "alice", From: 1, To: 15, Ticket: ticket.Black},
			want: models.ErrMoveNotConnected,
		},
		{
			name:  "mrX onto detective",
			setup: func(st *models.Game) { st.Seats[1].Position = 2 },
			move:  models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi},
			want:  models.ErrMoveOccupied,
		},
		{
			name:  "detective black even when held",
			setup: func(st *models.Game) { st.Turn = 1; st.Seats[1].Tickets[ticket.Black] = 1 },
			move:  models.Move{PlayerID: "bob", From: 10, To: 9, Ticket: ticket.Black},
			want:  models.ErrMoveBlackNotAllowed,
		},
		{
			name:  "detective onto detective",
			setup: func(st *models.Game) { st.Turn = 1; st.Seats[2].Position = 9 },
			move:  models.Move{PlayerID: "bob", From: 10, To: 9, Ticket: ticket.Taxi},
			want:  models.ErrMoveOccupied,
		},
		{
			name:  "detective double move",
			setup: func(st *models.Game) { st.Turn = 1 },
			move:  models.Move{PlayerID: "bob", From: 10, To: 9, Ticket: ticket.Taxi, UseDoubleMove: true},
			want:  models.ErrMoveDoubleNotAllowed,
		},
		{
			name:  "no double move cards",
			setup: func(st *models.Game) { st.MrX().DoubleMoves = 0 },
			move:  models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi, UseDoubleMove: true},
			want:  models.ErrMoveDoubleNotAllowed,
		},
		{
			name:  "game over",
			setup: func(st *models.Game) { terminate(st, models.WinnerMrX, models.ReasonEscaped) },
			move:  models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi},
			want:  models.ErrMoveNotYourTurn,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, st, g := startGame(t, "alice", "bob", "carol")
			place(st, 1, 10, 14)
			if c.setup != nil {
				c.setup(st)
			}
			before := len(st.History)
			_, err := Apply(st, g, c.move, t0)
			expectCode(t, err, c.want)
			if len(st.History) != before {
				t.Fatalf("rejected move was recorded")
			}
		})
	}
}

func TestUnknownStationNamesMissingStation(t *testing.T) {
	cases := []struct {
		name     string
		position int
		move     models.Move
		missing  string
	}{
		{"destination", 1, models.Move{PlayerID: "alice", From: 1, To: 99, Ticket: ticket.Taxi}, "station 99 "},
		{"origin", 77, models.Move{PlayerID: "alice", From: 77, To: 2, Ticket: ticket.Taxi}, "station 77 "},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, st, g := startGame(t, "alice", "bob", "carol")
			place(st, c.position, 10, 14)
			err := Validate(st, g, c.move)
			expectCode(t, err, models.ErrMoveUnknownStation)
			var me *models.Error
			if !errors.As(err, &me) || !strings.Contains(me.Message, c.missing) {
				t.Fatalf("message %q does not name %q", err, c.missing)
			}
		})
	}
}

func TestDetectiveCaptureIsNotOccupied(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob", "carol")
	place(st, 9, 10, 14)
	st.Turn = 1
	if err := Validate(st, g, models.Move{PlayerID: "bob", From: 10, To: 9, Ticket: ticket.Taxi}); err != nil {
		t.Fatalf("detective should be allowed onto mrX: %v", err)
	}
}

func TestStuckDetectiveForfeits(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob", "carol")
	place(st, 1, 10, 14)
	st.Seats[1].Tickets = ticket.Inventory{}

	mustApply(t, st, g, models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi})
	if st.Turn != 2 {
		t.Fatalf("expected bob to be skipped, turn=%d", st.Turn)
	}
	if st.Phase != models.PhaseInPlay {
		t.Fatalf("game should continue while one detective can move")
	}
}

func TestAllDetectivesStuck(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob")
	place(st, 1, 10)
	st.Seats[1].Tickets = ticket.Inventory{}

	mustApply(t, st, g, models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi})
	if st.Verdict == nil || st.Verdict.Winner != models.WinnerMrX || st.Verdict.Reason != models.ReasonDetectivesStuck {
		t.Fatalf("expected mrX to win by stuck detectives, got %+v", st.Verdict)
	}
}

func TestEscapeAfterFinalRound(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob")
	place(st, 1, 10)
	st.Round = 24

	mustApply(t, st, g, models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi})
	if st.Phase != models.PhaseInPlay {
		t.Fatalf("detectives still get their final move")
	}
	if st.LastRevealed == nil || *st.LastRevealed != 2 {
		t.Fatalf("round 24 is a reveal round")
	}
	mustApply(t, st, g, models.Move{PlayerID: "bob", From: 10, To: 9, Ticket: ticket.Taxi})
	if st.Verdict == nil || st.Verdict.Reason != models.ReasonEscaped || st.Verdict.Winner != models.WinnerMrX {
		t.Fatalf("expected escape, got %+v", st.Verdict)
	}
	if st.Round != 24 {
		t.Fatalf("round must not exceed 24, got %d", st.Round)
	}
}

func TestMrXCornered(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob", "carol", "dave")
	place(st, 17, 16, 5, 13)
	st.Turn = 3

	mustApply(t, st, g, models.Move{PlayerID: "dave", From: 13, To: 18, Ticket: ticket.Taxi})
	if st.Verdict == nil || st.Verdict.Reason != models.ReasonMrXCornered {
		t.Fatalf("expected mrX cornered, got %+v", st.Verdict)
	}
}

func TestSkipTurnClearsDoubleMove(t *testing.T) {
	_, st, g := startGame(t, "alice", "bob")
	place(st, 5, 1)
	mustApply(t, st, g, models.Move{PlayerID: "alice", From: 5, To: 17, Ticket: ticket.Bus, UseDoubleMove: true})

	SkipTurn(st, g, t0)
	if st.Turn != 1 || st.DoubleMove.Active {
		t.Fatalf("expected detective turn with cleared latch, turn=%d latch=%+v", st.Turn, st.DoubleMove)
	}
}

// playRandom plays legal moves picked by rng until the game ends or limit moves
// were made, checking the state invariants after every move.
func playRandom(t *testing.T, st *models.Game, g *graph.Graph, rng *rand.Rand, limit int) {
	t.Helper()
	for i := 0; i < limit && st.Phase == models.PhaseInPlay; i++ {
		seat := st.Current()
		moves := LegalMoves(st, g, seat)
		if len(moves) == 0 {
			t.Fatalf("seat %s has the turn but no legal move", seat.Role)
		}
		m := moves[rng.Intn(len(moves))]
		if seat.IsMrX() && !st.DoubleMove.Active && seat.DoubleMoves > 0 && rng.Intn(6) == 0 {
			m.UseDoubleMove = true
		}

		mover := seat
		beforeMover := mover.Tickets.Count(m.Ticket)
		beforeMrX := st.MrX().Tickets.Count(m.Ticket)
		beforeLen := len(st.History)

		if _, err := Apply(st, g, m, t0); err != nil {
			t.Fatalf("legal move %+v rejected: %v", m, err)
		}
		if err := CheckInvariants(st); err != nil {
			t.Fatalf("after move %d: %v", i, err)
		}
		if len(st.History) != beforeLen+1 {
			t.Fatalf("history grew by %d", len(st.History)-beforeLen)
		}
		if mover.IsMrX() {
			if mover.Tickets.Count(m.Ticket) != beforeMover-1 {
				t.Fatalf("mrX %s not debited", m.Ticket)
			}
		} else {
			if mover.Tickets.Count(m.Ticket) != beforeMover-1 || st.MrX().Tickets.Count(m.Ticket) != beforeMrX+1 {
				t.Fatalf("detective %s not transferred to mrX", m.Ticket)
			}
		}
	}
}

func TestRandomPlayKeepsInvariants(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		_, st, g := startGame(t, "a", "b", "c", "d", "e", "f")
		playRandom(t, st, g, rand.New(rand.NewSource(seed)), 500)
		if st.Phase != models.PhaseTerminated {
			t.Fatalf("seed %d: game did not finish", seed)
		}
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	run := func() *models.Game {
		_, st, g := startGame(t, "a", "b", "c")
		playRandom(t, st, g, rand.New(rand.NewSource(7)), 500)
		return st
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("replaying the same commands produced different states")
	}
}
