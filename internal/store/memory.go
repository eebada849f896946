package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/catch-mister-x/internal/game"
	"github.com/aaronzipp/catch-mister-x/internal/models"
	"github.com/aaronzipp/catch-mister-x/internal/render"
	"github.com/aaronzipp/catch-mister-x/internal/session"
)

// RoomStore maps room codes to their running sessions. The lock only guards
// the map; it is never held while talking to a session.
type RoomStore struct {
	rooms map[string]*session.Session
	mu    sync.RWMutex

	ctx     context.Context
	cfg     session.Config
	newCode func() string
}

// NewRoomStore creates a store whose sessions run until ctx is cancelled.
func NewRoomStore(ctx context.Context, cfg session.Config) *RoomStore {
	return &RoomStore{
		rooms:   make(map[string]*session.Session),
		ctx:     ctx,
		cfg:     cfg,
		newCode: game.GenerateRoomCode,
	}
}

// Create allocates a fresh code and starts a session hosted by host.
// Collisions are retried a bounded number of times.
func (s *RoomStore) Create(host *models.Player) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < game.MaxRoomCodeAttempts; attempt++ {
		code := s.newCode()
		if _, taken := s.rooms[code]; taken {
			continue
		}
		var sess *session.Session
		cfg := s.cfg
		cfg.OnClose = func(code string) { s.forget(code, sess) }
		sess = session.New(code, host, cfg)
		s.rooms[code] = sess
		go sess.Run(s.ctx)
		log.Info().Str("room_code", code).Str("player_id", host.ID).Msg("room created")
		return sess, nil
	}
	log.Error().Int("attempts", game.MaxRoomCodeAttempts).Msg("room code space exhausted")
	return nil, models.NewError(models.ErrInternal, "could not allocate a room code")
}

// Find looks a room up by code, ignoring case and surrounding spaces.
func (s *RoomStore) Find(code string) (*session.Session, error) {
	code = game.NormalizeRoomCode(code)
	s.mu.RLock()
	sess, ok := s.rooms[code]
	s.mu.RUnlock()
	if !ok {
		return nil, models.NewError(models.ErrRoomNotFound, "room %s not found", code)
	}
	return sess, nil
}

// Destroy removes a room from the store and stops its session.
func (s *RoomStore) Destroy(code string) {
	s.mu.Lock()
	sess, ok := s.rooms[code]
	delete(s.rooms, code)
	s.mu.Unlock()
	if ok {
		sess.Close()
	}
}

// forget drops code if it still maps to sess.
func (s *RoomStore) forget(code string, sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rooms[code] == sess {
		delete(s.rooms, code)
	}
}

// Snapshot lists every room's summary, ordered by code.
func (s *RoomStore) Snapshot() []render.Summary {
	s.mu.RLock()
	sessions := make([]*session.Session, 0, len(s.rooms))
	for _, sess := range s.rooms {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	out := make([]render.Summary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Summary())
	}
	slices.SortFunc(out, func(a, b render.Summary) int { return strings.Compare(a.Code, b.Code) })
	return out
}

// Len returns the number of live rooms
func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// CloseAll stops every session, used on shutdown.
func (s *RoomStore) CloseAll() {
	s.mu.Lock()
	sessions := make([]*session.Session, 0, len(s.rooms))
	for code, sess := range s.rooms {
		sessions = append(sessions, sess)
		delete(s.rooms, code)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
}
