package render

import (
	"slices"
	"time"

	"github.com/aaronzipp/catch-mister-x/internal/game"
	"github.com/aaronzipp/catch-mister-x/internal/graph"
	"github.com/aaronzipp/catch-mister-x/internal/models"
	"github.com/aaronzipp/catch-mister-x/internal/ticket"
)

// PlayerView is a room member as shown in the roster
type PlayerView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Online    bool        `json:"online"`
	IsHost    bool        `json:"isHost"`
	Role      models.Role `json:"role,omitempty"`
	GamesWon  int         `json:"gamesWon"`
	GamesLost int         `json:"gamesLost"`
}

// SeatView is one side of the board. Position is nil when the viewer may not
// know it.
type SeatView struct {
	PlayerID    string              `json:"playerId"`
	Name        string              `json:"name"`
	Role        models.Role         `json:"role"`
	Position    *int                `json:"position"`
	Tickets     map[ticket.Kind]int `json:"tickets"`
	DoubleMoves *int                `json:"doubleMovesRemaining,omitempty"`
}

// MoveView is a move record projected for one recipient. Hidden moves keep
// only the ticket.
type MoveView struct {
	Round      int         `json:"round"`
	PlayerID   string      `json:"playerId"`
	Role       models.Role `json:"role"`
	From       *int        `json:"from"`
	To         *int        `json:"to"`
	TicketType ticket.Kind `json:"ticketType"`
	Double     bool        `json:"double,omitempty"`
	Hidden     bool        `json:"hidden,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// LegalMove is a move hint for the player whose turn it is
type LegalMove struct {
	To         int         `json:"to"`
	TicketType ticket.Kind `json:"ticketType"`
}

// GameView is the game state as one recipient may see it
type GameView struct {
	Phase                models.Phase    `json:"phase"`
	Round                int             `json:"currentRound"`
	FinalRound           int             `json:"finalRound"`
	RevealRounds         []int           `json:"revealRounds"`
	CurrentPlayerID      string          `json:"currentPlayerId,omitempty"`
	CurrentRole          models.Role     `json:"currentRole,omitempty"`
	DoubleMoveInProgress bool            `json:"doubleMoveInProgress"`
	MrX                  SeatView        `json:"mrX"`
	Detectives           []SeatView      `json:"detectives"`
	LastRevealed         *int            `json:"lastRevealedPosition"`
	MoveHistory          []MoveView      `json:"moveHistory"`
	Verdict              *models.Verdict `json:"verdict,omitempty"`
	LegalMoves           []LegalMove     `json:"legalMoves,omitempty"`
}

// RoomView is the room object every outbound event carries
type RoomView struct {
	Code      string            `json:"code"`
	Host      string            `json:"hostId"`
	Status    models.RoomStatus `json:"status"`
	Players   []PlayerView      `json:"players"`
	Rematches int               `json:"rematches"`
	CreatedAt time.Time         `json:"createdAt"`
	Game      *GameView         `json:"game,omitempty"`
	You       string            `json:"you,omitempty"`
	YourRole  models.Role       `json:"yourRole,omitempty"`
}

// GameOverView is the payload of game:over. Every move is revealed.
type GameOverView struct {
	Winner      models.Winner `json:"winner"`
	Reason      models.Reason `json:"reason"`
	MoveHistory []MoveView    `json:"moveHistory"`
	FinalRound  int           `json:"finalRound"`
}

// Summary is the admin listing entry for a room
type Summary struct {
	Code         string            `json:"roomCode"`
	Status       models.RoomStatus `json:"status"`
	Players      []string          `json:"players"`
	Online       int               `json:"online"`
	Round        int               `json:"round,omitempty"`
	Rematches    int               `json:"rematches"`
	CreatedAt    time.Time         `json:"createdAt"`
	LastActivity time.Time         `json:"lastActivity"`
}

// Room projects the room for viewerID. Mr. X, and everyone once the game is
// over, sees the whole board; detectives see Mr. X only where he was last
// revealed. g may be nil, in which case no move hints are attached.
func Room(room *models.Room, g *graph.Graph, viewerID string) RoomView {
	v := RoomView{
		Code:      room.Code,
		Host:      room.Host,
		Status:    room.Status,
		Rematches: room.Rematches,
		CreatedAt: room.CreatedAt,
		You:       viewerID,
	}
	for _, p := range room.Players {
		pv := PlayerView{
			ID:     p.ID,
			Name:   p.Name,
			Online: p.Online,
			IsHost: room.IsHost(p.ID),
		}
		if score, ok := room.Scores[p.ID]; ok {
			pv.GamesWon = score.GamesWon
			pv.GamesLost = score.GamesLost
		}
		if room.Game != nil {
			if s, ok := room.Game.SeatOf(p.ID); ok {
				pv.Role = s.Role
			}
		}
		v.Players = append(v.Players, pv)
	}
	if room.Game == nil {
		return v
	}

	st := room.Game
	viewer, seated := st.SeatOf(viewerID)
	if seated {
		v.YourRole = viewer.Role
	}
	full := (seated && viewer.IsMrX()) || st.Terminated()

	gv := &GameView{
		Phase:                st.Phase,
		Round:                st.Round,
		FinalRound:           st.FinalRound,
		RevealRounds:         revealRounds(st),
		DoubleMoveInProgress: st.DoubleMove.Active,
		Verdict:              st.Verdict,
		LastRevealed:         intPtr(st.LastRevealed),
	}
	if cur := st.Current(); cur != nil && st.Phase == models.PhaseInPlay {
		gv.CurrentPlayerID = cur.PlayerID
		gv.CurrentRole = cur.Role
		if g != nil && seated && cur == viewer {
			for _, m := range game.LegalMoves(st, g, cur) {
				gv.LegalMoves = append(gv.LegalMoves, LegalMove{To: m.To, TicketType: m.Ticket})
			}
		}
	}
	if mrx := st.MrX(); mrx != nil {
		gv.MrX = seat(mrx)
		if !full {
			gv.MrX.Position = intPtr(st.LastRevealed)
		}
	}
	for _, d := range st.Detectives() {
		gv.Detectives = append(gv.Detectives, seat(d))
	}
	gv.MoveHistory = History(st.History, full)
	v.Game = gv
	return v
}

// Move projects one record. With full set every station is shown; otherwise
// Mr. X's hidden moves carry only the ticket kind.
func Move(rec models.MoveRecord, full bool) MoveView {
	mv := MoveView{
		Round:      rec.Round,
		PlayerID:   rec.PlayerID,
		Role:       rec.Role,
		TicketType: rec.Ticket,
		Double:     rec.Double,
		Timestamp:  rec.Timestamp,
	}
	if full || rec.VisibleTo == models.VisibleAll {
		from, to := rec.From, rec.To
		mv.From, mv.To = &from, &to
	} else {
		mv.Hidden = true
	}
	return mv
}

// History projects a move history in order.
func History(recs []models.MoveRecord, full bool) []MoveView {
	out := make([]MoveView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Move(rec, full))
	}
	return out
}

// CanSeeAll reports whether viewerID is entitled to the unprojected board.
func CanSeeAll(st *models.Game, viewerID string) bool {
	if st.Terminated() {
		return true
	}
	s, ok := st.SeatOf(viewerID)
	return ok && s.IsMrX()
}

// GameOver builds the final payload for a terminated game.
func GameOver(room *models.Room) GameOverView {
	st := room.Game
	return GameOverView{
		Winner:      st.Verdict.Winner,
		Reason:      st.Verdict.Reason,
		MoveHistory: History(st.History, true),
		FinalRound:  st.Round,
	}
}

// Summarize builds the admin summary of a room.
func Summarize(room *models.Room) Summary {
	s := Summary{
		Code:         room.Code,
		Status:       room.Status,
		Online:       room.OnlineCount(),
		Rematches:    room.Rematches,
		CreatedAt:    room.CreatedAt,
		LastActivity: room.LastActivity,
	}
	for _, p := range room.Players {
		s.Players = append(s.Players, p.Name)
	}
	if room.Game != nil {
		s.Round = room.Game.Round
	}
	return s
}

func seat(s *models.Seat) SeatView {
	pos := s.Position
	v := SeatView{
		PlayerID: s.PlayerID,
		Name:     s.Name,
		Role:     s.Role,
		Position: &pos,
		Tickets:  s.Tickets.Clone(),
	}
	if s.IsMrX() {
		dm := s.DoubleMoves
		v.DoubleMoves = &dm
	}
	return v
}

func revealRounds(st *models.Game) []int {
	out := make([]int, 0, len(st.RevealRounds))
	for r, ok := range st.RevealRounds {
		if ok {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}

func intPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
