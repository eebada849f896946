package game

import (
	crand "crypto/rand"
	"hash/fnv"
	"math/big"
	"math/rand"
	"strings"
)

// GenerateRoomCode creates a random room code
func GenerateRoomCode() string {
	code := make([]byte, RoomCodeLength)
	for i := range RoomCodeLength {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(RoomCodeChars))))
		if err != nil {
			// fallback to math/rand if crypto fails
			code[i] = RoomCodeChars[rand.Intn(len(RoomCodeChars))]
			continue
		}
		code[i] = RoomCodeChars[n.Int64()]
	}
	return string(code)
}

// NormalizeRoomCode upper-cases and trims a client supplied room code
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidRoomCode reports whether code has the shape of a generated room code
func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(RoomCodeChars, code[i]) < 0 {
			return false
		}
	}
	return true
}

// SeedFor derives the room's RNG seed from its code, so replaying a room's
// commands reproduces the same starting positions.
func SeedFor(code string) int64 {
	h := fnv.New64a()
	h.Write([]byte(code))
	return int64(h.Sum64())
}

// NewRand returns the deterministic random source for a room
func NewRand(code string) *rand.Rand {
	return rand.New(rand.NewSource(SeedFor(code)))
}
