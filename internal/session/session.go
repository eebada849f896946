package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/catch-mister-x/internal/clock"
	"github.com/aaronzipp/catch-mister-x/internal/game"
	"github.com/aaronzipp/catch-mister-x/internal/graph"
	"github.com/aaronzipp/catch-mister-x/internal/models"
	"github.com/aaronzipp/catch-mister-x/internal/render"
)

// Subscriber receives a room's outbound events. Send must never block: it
// returns false when the subscriber's buffer is full, after which the session
// drops and closes it.
type Subscriber interface {
	PlayerID() string
	Send(Event) bool
	Close()
}

// Config holds the dependencies and limits shared by every session
type Config struct {
	Graph          *graph.Graph
	Clock          clock.Clock
	Options        game.Options
	MaxPlayers     int
	QueueSize      int
	EnqueueTimeout time.Duration
	IdleTimeout    time.Duration
	TurnTimeout    time.Duration // 0 disables auto-skip
	TickInterval   time.Duration

	// OnClose is called once from the session goroutine after it stops.
	OnClose func(code string)
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = clock.System()
	}
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = game.DefaultMaxPlayers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = DefaultEnqueueTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Options.FinalRound <= 0 {
		c.Options = game.OptionsFor(c.Graph)
	}
	return c
}

const (
	DefaultQueueSize      = 64
	DefaultEnqueueTimeout = 2 * time.Second
	DefaultIdleTimeout    = 10 * time.Minute
	DefaultTickInterval   = time.Second
)

type request struct {
	cmd   Command
	reply chan error
}

// Session is the single writer for one room. All state lives on the Run
// goroutine; other goroutines only enqueue commands or read the summary.
type Session struct {
	code string
	cfg  Config
	log  zerolog.Logger

	room *models.Room
	rng  *rand.Rand
	subs map[Subscriber]struct{}

	queue    chan request
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	closing  bool

	mu      sync.Mutex
	summary render.Summary
}

// New creates a session for a fresh room hosted by host. Nothing runs until
// Run is called.
func New(code string, host *models.Player, cfg Config) *Session {
	cfg = cfg.withDefaults()
	if !host.Online && host.OfflineSince.IsZero() {
		host.OfflineSince = cfg.Clock.Now()
	}
	s := &Session{
		code:  code,
		cfg:   cfg,
		log:   log.With().Str("room_code", code).Logger(),
		room:  models.NewRoom(code, host, cfg.Clock.Now()),
		rng:   game.NewRand(code),
		subs:  make(map[Subscriber]struct{}),
		queue: make(chan request, cfg.QueueSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	s.refreshSummary()
	return s
}

func (s *Session) Code() string { return s.code }

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close asks the session to stop. It does not wait.
func (s *Session) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Summary returns the latest admin summary without going through the queue.
func (s *Session) Summary() render.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Do enqueues cmd and waits for it to be applied. If the queue stays full
// for longer than the enqueue timeout the command fails with internal.busy.
func (s *Session) Do(ctx context.Context, cmd Command) error {
	req := request{cmd: cmd, reply: make(chan error, 1)}

	timer := time.NewTimer(s.cfg.EnqueueTimeout)
	defer timer.Stop()
	select {
	case s.queue <- req:
	case <-timer.C:
		s.log.Warn().Msg("command queue full")
		return models.NewError(models.ErrBusy, "room %s is busy, retry", s.code)
	case <-s.done:
		return s.closedErr()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-s.done:
		select {
		case err := <-req.reply:
			return err
		default:
			return s.closedErr()
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) closedErr() error {
	return models.NewError(models.ErrRoomNotFound, "room %s not found", s.code)
}

// Run processes commands until the room closes or ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer func() {
		ticker.Stop()
		s.subs = map[Subscriber]struct{}{}
		close(s.done)
		if s.cfg.OnClose != nil {
			s.cfg.OnClose(s.code)
		}
		s.log.Info().Msg("room closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case req := <-s.queue:
			req.reply <- s.apply(req.cmd)
		case <-ticker.C:
			s.tick()
		}
		if s.closing {
			return
		}
	}
}

func (s *Session) apply(cmd Command) error {
	err := cmd.apply(s)
	if err != nil {
		s.log.Debug().Err(err).Str("code", string(models.CodeOf(err))).Msgf("%T rejected", cmd)
	} else {
		s.room.LastActivity = s.cfg.Clock.Now()
	}
	s.refreshSummary()
	return err
}

func (s *Session) refreshSummary() {
	sum := render.Summarize(s.room)
	s.mu.Lock()
	s.summary = sum
	s.mu.Unlock()
}

// tick runs idle collection and the offline turn timeout.
func (s *Session) tick() {
	now := s.cfg.Clock.Now()
	switch s.room.Status {
	case models.StatusWaiting:
		if s.idleSince(now) {
			s.log.Info().Msg("waiting room idle, closing")
			s.closing = true
		}
	case models.StatusFinished:
		if s.room.OnlineCount() == 0 {
			s.log.Info().Msg("finished room has no observers, closing")
			s.closing = true
		}
	case models.StatusPlaying:
		s.checkTurnTimeout(now)
	}
	s.refreshSummary()
}

// idleSince reports whether every member has been offline for at least the
// idle timeout.
func (s *Session) idleSince(now time.Time) bool {
	for _, p := range s.room.Players {
		if p.Online || now.Sub(p.OfflineSince) < s.cfg.IdleTimeout {
			return false
		}
	}
	return true
}

func (s *Session) checkTurnTimeout(now time.Time) {
	st := s.room.Game
	if s.cfg.TurnTimeout <= 0 || st == nil || st.Phase != models.PhaseInPlay {
		return
	}
	cur := st.Current()
	p, ok := s.room.Player(cur.PlayerID)
	if !ok || p.Online {
		return
	}
	since := st.TurnStarted
	if p.OfflineSince.After(since) {
		since = p.OfflineSince
	}
	if now.Sub(since) < s.cfg.TurnTimeout {
		return
	}
	s.log.Info().Str("player_id", cur.PlayerID).Str("role", string(cur.Role)).Msg("turn timed out, skipping")
	s.skip(now)
}

// skip forfeits the current turn and publishes the result.
func (s *Session) skip(now time.Time) {
	game.SkipTurn(s.room.Game, s.cfg.Graph, now)
	s.afterStateChange(nil)
}

// afterStateChange publishes the new state and, if the game ended, the final
// result. Turns of players who left the room are skipped here.
func (s *Session) afterStateChange(rec *models.MoveRecord) {
	s.publishState(rec)
	if s.room.Game.Terminated() {
		s.finish()
		return
	}
	s.skipAbsent()
}

func (s *Session) publishState(rec *models.MoveRecord) {
	st := s.room.Game
	s.broadcast(EventGameStateUpdated, func(viewer string) any {
		payload := StateUpdated{Room: render.Room(s.room, s.cfg.Graph, viewer)}
		if rec != nil {
			mv := render.Move(*rec, render.CanSeeAll(st, viewer))
			payload.LastMove = &mv
		}
		return payload
	})
}

func (s *Session) finish() {
	game.RecordResult(s.room)
	st := s.room.Game
	s.log.Info().
		Str("winner", string(st.Verdict.Winner)).
		Str("reason", string(st.Verdict.Reason)).
		Int("round", st.Round).
		Msg("game over")
	s.broadcast(EventGameOver, func(string) any { return render.GameOver(s.room) })
}

// skipAbsent forfeits turns of seats whose player has left the room.
func (s *Session) skipAbsent() {
	st := s.room.Game
	if st == nil {
		return
	}
	skipped := false
	for limit := len(st.Seats) * (st.FinalRound + 1); limit > 0 && st.Phase == models.PhaseInPlay; limit-- {
		if _, ok := s.room.Player(st.Current().PlayerID); ok {
			break
		}
		game.SkipTurn(st, s.cfg.Graph, s.cfg.Clock.Now())
		skipped = true
	}
	if !skipped {
		return
	}
	s.publishState(nil)
	if st.Terminated() {
		s.finish()
	}
}
