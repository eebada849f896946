package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/aaronzipp/catch-mister-x/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("writing response")
	}
}

// writeError renders a typed error as {message, code} with a matching status
func writeError(w http.ResponseWriter, err error) {
	code := models.CodeOf(err)
	msg := err.Error()
	var me *models.Error
	if errors.As(err, &me) {
		msg = me.Message
	}
	writeJSON(w, statusFor(code), map[string]string{"message": msg, "code": string(code)})
}

func statusFor(code models.ErrorCode) int {
	switch code {
	case models.ErrRoomNotFound, models.ErrPlayerNotFound:
		return http.StatusNotFound
	case models.ErrInvalidRequest:
		return http.StatusBadRequest
	case models.ErrUnauthorized:
		return http.StatusUnauthorized
	case models.ErrBusy:
		return http.StatusServiceUnavailable
	case models.ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusConflict
	}
}
