package render

import (
	"reflect"
	"testing"
	"time"

	"github.com/aaronzipp/catch-mister-x/internal/game"
	"github.com/aaronzipp/catch-mister-x/internal/graph"
	"github.com/aaronzipp/catch-mister-x/internal/models"
	"github.com/aaronzipp/catch-mister-x/internal/ticket"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func startedRoom(t *testing.T) (*models.Room, *graph.Graph) {
	t.Helper()
	g := graph.Small()
	room := models.NewRoom("ABCDEF", &models.Player{ID: "alice", Name: "Alice", Online: true}, t0)
	room.AddPlayer(&models.Player{ID: "bob", Name: "Bob", Online: true})
	if err := game.Start(room, "alice", g, game.NewRand(room.Code), t0, game.OptionsFor(g)); err != nil {
		t.Fatalf("start: %v", err)
	}
	room.Game.Seats[0].Position = 1
	room.Game.Seats[1].Position = 16
	return room, g
}

func TestLobbyProjection(t *testing.T) {
	room := models.NewRoom("ABCDEF", &models.Player{ID: "alice", Name: "Alice", Online: true}, t0)
	room.AddPlayer(&models.Player{ID: "bob", Name: "Bob"})

	v := Room(room, nil, "bob")
	if v.Game != nil {
		t.Fatalf("lobby view must not carry a game")
	}
	if len(v.Players) != 2 || !v.Players[0].IsHost || v.Players[1].IsHost {
		t.Fatalf("unexpected roster %+v", v.Players)
	}
	if v.You != "bob" {
		t.Fatalf("viewer id not echoed: %q", v.You)
	}
}

func TestDetectiveDoesNotSeeHiddenMove(t *testing.T) {
	room, g := startedRoom(t)
	if _, err := game.Apply(room.Game, g, models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi}, t0); err != nil {
		t.Fatalf("apply: %v", err)
	}

	det := Room(room, g, "bob")
	if det.Game.MrX.Position != nil {
		t.Fatalf("detective sees mrX at %d before any reveal", *det.Game.MrX.Position)
	}
	last := det.Game.MoveHistory[0]
	if !last.Hidden || last.To != nil || last.From != nil || last.TicketType != ticket.Taxi {
		t.Fatalf("hidden move leaked: %+v", last)
	}
	if det.YourRole != models.DetectiveRole(0) {
		t.Fatalf("yourRole = %q", det.YourRole)
	}
	if len(det.Game.LegalMoves) == 0 {
		t.Fatalf("current player should get move hints")
	}

	mrx := Room(room, g, "alice")
	if mrx.Game.MrX.Position == nil || *mrx.Game.MrX.Position != 2 {
		t.Fatalf("mrX must see his own position")
	}
	if mrx.Game.MoveHistory[0].Hidden || *mrx.Game.MoveHistory[0].To != 2 {
		t.Fatalf("mrX must see his own move")
	}
	if len(mrx.Game.LegalMoves) != 0 {
		t.Fatalf("hints only go to the player whose turn it is")
	}
}

func TestRevealedPositionShownToDetectives(t *testing.T) {
	room, g := startedRoom(t)
	st := room.Game
	st.Round = 3
	st.Seats[0].Position = 8
	if _, err := game.Apply(st, g, models.Move{PlayerID: "alice", From: 8, To: 6, Ticket: ticket.Bus}, t0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	v := Room(room, g, "bob")
	if v.Game.MrX.Position == nil || *v.Game.MrX.Position != 6 {
		t.Fatalf("expected revealed position 6, got %v", v.Game.MrX.Position)
	}
	if v.Game.LastRevealed == nil || *v.Game.LastRevealed != 6 {
		t.Fatalf("lastRevealedPosition not 6")
	}
	if v.Game.MoveHistory[0].Hidden {
		t.Fatalf("reveal-round move must be public")
	}
}

func TestProjectionIsStable(t *testing.T) {
	room, g := startedRoom(t)
	if _, err := game.Apply(room.Game, g, models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi}, t0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	a := History(room.Game.History, false)
	b := History(room.Game.History, false)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("reprojection differs")
	}
}

func TestGameOverRevealsEverything(t *testing.T) {
	room, g := startedRoom(t)
	st := room.Game
	if _, err := game.Apply(st, g, models.Move{PlayerID: "alice", From: 1, To: 2, Ticket: ticket.Taxi}, t0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	st.Seats[1].Position = 5
	st.Seats[0].Position = 2
	if _, err := game.Apply(st, g, models.Move{PlayerID: "bob", From: 5, To: 2, Ticket: ticket.Taxi}, t0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	over := GameOver(room)
	if over.Winner != models.WinnerDetectives || over.Reason != models.ReasonCapture || over.FinalRound != 1 {
		t.Fatalf("unexpected verdict %+v", over)
	}
	for _, mv := range over.MoveHistory {
		if mv.Hidden || mv.To == nil {
			t.Fatalf("game over must reveal every move: %+v", mv)
		}
	}
	if !CanSeeAll(st, "bob") {
		t.Fatalf("detectives see everything once the game ends")
	}
	if v := Room(room, g, "bob"); v.Game.MrX.Position == nil {
		t.Fatalf("terminated room must show mrX")
	}
}

func TestSummarize(t *testing.T) {
	room, _ := startedRoom(t)
	s := Summarize(room)
	if s.Code != "ABCDEF" || s.Status != models.StatusPlaying || s.Online != 2 || s.Round != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !reflect.DeepEqual(s.Players, []string{"Alice", "Bob"}) {
		t.Fatalf("players = %v", s.Players)
	}
}
