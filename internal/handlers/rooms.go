package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/aaronzipp/catch-mister-x/internal/models"
)

const (
	qrDefaultSize = 256
	qrMaxSize     = 1024
)

// HandleMap serves the loaded map definition so clients can draw the board
func (ctx *Context) HandleMap(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, ctx.Graph.Definition())
}

// HandleRoomQR renders an invite link for a room as a PNG QR code. The link
// points at ?base= when given, otherwise at the requesting host.
func (ctx *Context) HandleRoomQR(w http.ResponseWriter, r *http.Request) {
	sess, err := ctx.Rooms.Find(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}

	size := qrDefaultSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > qrMaxSize {
			writeError(w, models.NewError(models.ErrInvalidRequest, "size must be between 64 and %d", qrMaxSize))
			return
		}
		size = n
	}

	link, err := inviteURL(r, sess.Code())
	if err != nil {
		writeError(w, err)
		return
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		log.Error().Err(err).Str("room_code", sess.Code()).Msg("qr encode failed")
		writeError(w, models.NewError(models.ErrInternal, "could not render invite"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func inviteURL(r *http.Request, code string) (string, error) {
	base := r.URL.Query().Get("base")
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host + "/"
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", models.NewError(models.ErrInvalidRequest, "base must be an http(s) URL")
	}
	q := u.Query()
	q.Set("room", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
