package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/catch-mister-x/internal/models"
	"github.com/aaronzipp/catch-mister-x/internal/session"
)

// requireAdmin checks the admin token from X-Admin-Token or a bearer header
func (ctx *Context) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Admin-Token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if !ctx.Router.Authorized(token) {
			writeError(w, models.NewError(models.ErrUnauthorized, "admin token required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleAdminRooms lists every open room
func (ctx *Context) HandleAdminRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": ctx.Rooms.Snapshot()})
}

// HandleAdminKick removes a player from a room by display name
func (ctx *Context) HandleAdminKick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string `json:"playerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.PlayerName) == "" {
		writeError(w, models.NewError(models.ErrInvalidRequest, "playerName is required"))
		return
	}
	ctx.adminCommand(w, r, session.AdminKick{PlayerName: req.PlayerName})
}

// HandleAdminClose closes a room and disconnects its members from it
func (ctx *Context) HandleAdminClose(w http.ResponseWriter, r *http.Request) {
	ctx.adminCommand(w, r, session.AdminClose{})
}

func (ctx *Context) adminCommand(w http.ResponseWriter, r *http.Request, cmd session.Command) {
	sess, err := ctx.Rooms.Find(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	log.Info().Str("room_code", sess.Code()).Msgf("admin %T", cmd)
	if err := sess.Do(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "roomCode": sess.Code()})
}
