package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/aaronzipp/catch-mister-x/internal/graph"
	"github.com/aaronzipp/catch-mister-x/internal/store"
	"github.com/aaronzipp/catch-mister-x/internal/ws"
)

// Context holds shared application dependencies
type Context struct {
	Rooms    *store.RoomStore
	Router   *ws.Router
	Graph    *graph.Graph
	Upgrader websocket.Upgrader
	Started  time.Time
}

// NewContext wires the handlers. An empty allowlist accepts any origin.
func NewContext(rooms *store.RoomStore, router *ws.Router, g *graph.Graph, allowedOrigins []string) *Context {
	return &Context{
		Rooms:  rooms,
		Router: router,
		Graph:  g,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		Started: time.Now(),
	}
}

// Routes builds the HTTP surface
func (ctx *Context) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", ctx.HandleWS)
	r.Get("/health", ctx.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/map", ctx.HandleMap)
		r.Get("/rooms/{code}/qr", ctx.HandleRoomQR)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(ctx.requireAdmin)
		r.Get("/rooms", ctx.HandleAdminRooms)
		r.Post("/rooms/{code}/kick", ctx.HandleAdminKick)
		r.Post("/rooms/{code}/close", ctx.HandleAdminClose)
	})
	return r
}

// HandleHealth reports liveness and the number of open rooms
func (ctx *Context) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  ctx.Rooms.Len(),
		"uptime": time.Since(ctx.Started).Round(time.Second).String(),
	})
}
