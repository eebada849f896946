package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// HandleWS upgrades the request and serves the connection until it closes
func (ctx *Context) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := ctx.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Debug().Err(err).Str("origin", r.Header.Get("Origin")).Msg("websocket upgrade failed")
		return
	}
	ctx.Router.Serve(r.Context(), conn)
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and browsers whose origin is allowlisted.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[strings.ToLower(o)] = true
		}
	}
	return func(r *http.Request) bool {
		if len(set) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return set[strings.ToLower(u.Scheme+"://"+u.Host)]
	}
}
