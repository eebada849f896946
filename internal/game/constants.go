package game

const (
	// MinPlayers is the minimum number of players required to start a game
	MinPlayers = 2

	// DefaultMaxPlayers is the default room capacity
	DefaultMaxPlayers = 6

	// DefaultFinalRound is the last round detectives get to catch Mr. X
	DefaultFinalRound = 24

	// MrXDoubleMoves is how many double-move cards Mr. X starts with
	MrXDoubleMoves = 2

	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6

	// RoomCodeChars are the characters used for generating room codes (excluding ambiguous chars).
	// 32^6 = 2^30 distinct codes.
	RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// MaxNameLength caps display names
	MaxNameLength = 24

	// MaxRoomCodeAttempts bounds collision retries when allocating a room code
	MaxRoomCodeAttempts = 16
)

// DefaultRevealRounds are the rounds after which Mr. X's position is shown to detectives
var DefaultRevealRounds = []int{3, 8, 13, 18, 24}
