package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/catch-mister-x/internal/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size
	maxMessageSize = 8 << 10

	// DefaultBufferSize is the per-connection outbound buffer
	DefaultBufferSize = 32
)

// Client is one websocket connection. It implements session.Subscriber.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan session.Event
	log  zerolog.Logger

	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	playerID string

	// Only touched by the read pump.
	playerName string
	secret     string
	roomCode   string
}

func newClient(conn *websocket.Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	id := uuid.NewString()
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan session.Event, buffer),
		log:  log.With().Str("conn_id", id).Logger(),
		done: make(chan struct{}),
	}
}

func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

func (c *Client) setPlayerID(id string) {
	c.mu.Lock()
	c.playerID = id
	c.mu.Unlock()
}

// Send queues ev without blocking. It reports false once the buffer is full
// or the connection is closed.
func (c *Client) Send(ev session.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Close shuts the connection down; the pumps exit on their own.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// readPump decodes inbound frames and hands them to the router until the
// connection fails. Commands from one connection are handled in order.
func (c *Client) readPump(ctx context.Context, r *Router) {
	defer func() {
		r.disconnect(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("read failed")
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			r.reject(c, "", errInvalid("malformed message"))
			continue
		}
		r.handle(ctx, c, env)
	}
}

// writePump serializes queued events onto the socket and keeps the peer
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			data, err := json.Marshal(outbound{Event: ev.Name, Data: ev.Data})
			if err != nil {
				c.log.Error().Err(err).Str("event", ev.Name).Msg("encode failed")
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
