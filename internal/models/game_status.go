package models

import "strconv"

// RoomStatus represents where a room is in its lifecycle
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

// Phase represents the current state of a game
type Phase string

const (
	PhaseInLobby    Phase = "inLobby"
	PhaseAssigning  Phase = "assigning"
	PhaseInPlay     Phase = "inPlay"
	PhaseTerminated Phase = "terminated"
)

// Role is a seat's side in the game: "mrX" or "detective<i>"
type Role string

const RoleMrX Role = "mrX"

// DetectiveRole returns the role of the i-th detective, counting from zero.
func DetectiveRole(i int) Role {
	return Role("detective" + strconv.Itoa(i))
}

func (r Role) IsMrX() bool { return r == RoleMrX }

type Winner string

const (
	WinnerMrX        Winner = "mrX"
	WinnerDetectives Winner = "detectives"
)

type Reason string

const (
	ReasonCapture         Reason = "capture"
	ReasonEscaped         Reason = "escaped"
	ReasonDetectivesStuck Reason = "detectivesStuck"
	ReasonMrXCornered     Reason = "mrXCornered"
)

// Verdict is the outcome of a finished game
type Verdict struct {
	Winner Winner `json:"winner"`
	Reason Reason `json:"reason"`
}
