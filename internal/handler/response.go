package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/conquestlab/landgrab/internal/service"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// gameStatus maps service and rules errors to HTTP status codes. Rule
// rejections that produce a failed Outcome never reach this path; only
// protocol-level errors do.
func gameStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound), errors.Is(err, conquest.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, conquest.ErrNotYourTurn),
		errors.Is(err, conquest.ErrInvalidTurn),
		errors.Is(err, service.ErrGameFinished):
		return http.StatusConflict
	case errors.Is(err, conquest.ErrInvalidAction),
		errors.Is(err, conquest.ErrNoPlayers),
		errors.Is(err, service.ErrGameNotWaiting),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrNameTaken):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrWrongRoomPassword),
		errors.Is(err, service.ErrWrongPlayerPassword),
		errors.Is(err, service.ErrNotCreator):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCatalogDisabled), errors.Is(err, service.ErrJournalDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeGameError writes an error response with the status derived from
// the error chain.
func writeGameError(w http.ResponseWriter, err error) {
	writeError(w, gameStatus(err), err.Error())
}
