package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/conquestlab/landgrab/internal/auth"
	"github.com/conquestlab/landgrab/internal/model"
	"github.com/conquestlab/landgrab/internal/service"
	"github.com/conquestlab/landgrab/pkg/conquest"
)

const defaultHistoryLimit = 200

// GameHandler handles room and turn endpoints.
type GameHandler struct {
	gameSvc   *service.GameService
	actionSvc *service.ActionService
	gameMap   *conquest.Map
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService, actionSvc *service.ActionService, gameMap *conquest.Map) *GameHandler {
	return &GameHandler{gameSvc: gameSvc, actionSvc: actionSvc, gameMap: gameMap}
}

// CreateOrJoin handles POST /api/v1/games. The same endpoint creates a
// room and joins an existing one: whoever names an unused id becomes the
// creator. Answers 201 when the room was created, 200 when joined.
func (h *GameHandler) CreateOrJoin(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		ID           string `json:"id,omitempty"`
		Name         string `json:"name"`
		Password     string `json:"password,omitempty"`
		RoomPassword string `json:"room_password,omitempty"`
		Color        string `json:"color,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gameID := req.ID
	if gameID == "" {
		gameID = uuid.NewString()
	}

	doc, created, err := h.gameSvc.CreateOrJoin(r.Context(), gameID, userID, req.Name, req.Password, req.RoomPassword, req.Color)
	if err != nil {
		writeGameError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, struct {
		ID    string         `json:"id"`
		State *model.GameDoc `json:"state"`
	}{ID: gameID, State: doc})
}

// ListGames handles GET /api/v1/games. The ?filter= parameter selects
// "my" or "finished" listings; the default lists open rooms.
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	filter := r.URL.Query().Get("filter")
	games, err := h.gameSvc.ListGames(r.Context(), userID, filter)
	if err != nil {
		writeGameError(w, err)
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	doc, err := h.gameSvc.GetGame(r.Context(), gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// SetupCountries handles POST /api/v1/games/{id}/setup. It freezes the
// lobby roster and deals the map out for starting claims. Calling it on
// a room that is already set up returns the current document unchanged.
func (h *GameHandler) SetupCountries(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	doc, err := h.gameSvc.SetupCountries(r.Context(), gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Claim handles POST /api/v1/games/{id}/claim. The ok flag in the
// response reports whether the claim stuck; losing a race for a
// territory is not an error.
func (h *GameHandler) Claim(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req struct {
		Player      string `json:"player"`
		TerritoryID int    `json:"territory_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Player == "" {
		writeError(w, http.StatusBadRequest, "player is required")
		return
	}

	doc, claimed, err := h.gameSvc.ClaimStartingTerritory(r.Context(), gameID, req.Player, req.TerritoryID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		OK    bool           `json:"ok"`
		State *model.GameDoc `json:"state"`
	}{OK: claimed, State: doc})
}

// SubmitAction handles POST /api/v1/games/{id}/actions. A rules
// rejection comes back 200 with ok=false and a reason; only protocol
// errors (wrong turn, unknown game, malformed action) use error codes.
func (h *GameHandler) SubmitAction(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req struct {
		Player string `json:"player"`
		Kind   string `json:"kind"`
		Buy    int    `json:"buy,omitempty"`
		Src    int    `json:"src,omitempty"`
		Tgt    int    `json:"tgt,omitempty"`
		Send   int    `json:"send,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Player == "" {
		writeError(w, http.StatusBadRequest, "player is required")
		return
	}

	act := conquest.Action{Kind: conquest.Kind(req.Kind), Buy: req.Buy, Src: req.Src, Tgt: req.Tgt, Send: req.Send}
	outcome, doc, err := h.actionSvc.Submit(r.Context(), gameID, req.Player, act)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		conquest.Outcome
		State *model.GameDoc `json:"state"`
	}{Outcome: *outcome, State: doc})
}

// AddBot handles POST /api/v1/games/{id}/bots
func (h *GameHandler) AddBot(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req struct {
		Name      string `json:"name,omitempty"`
		Playstyle string `json:"playstyle,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, botName, err := h.gameSvc.AddBot(r.Context(), gameID, req.Name, req.Playstyle)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Name  string         `json:"name"`
		State *model.GameDoc `json:"state"`
	}{Name: botName, State: doc})
}

// History handles GET /api/v1/games/{id}/history. Optional ?limit=
// caps the number of records, oldest first. Board snapshots stay in the
// journal; the response carries only the actions and their outcomes.
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = n
	}

	records, err := h.actionSvc.History(r.Context(), gameID, limit)
	if err != nil {
		writeGameError(w, err)
		return
	}
	if records == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	for i := range records {
		records[i].StateAfter = nil
	}
	writeJSON(w, http.StatusOK, records)
}

// FinishGame handles POST /api/v1/games/{id}/finish. An empty winner
// records a draw.
func (h *GameHandler) FinishGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		Winner string `json:"winner,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.gameSvc.FinishGame(r.Context(), gameID, userID, req.Winner)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteGame handles DELETE /api/v1/games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.gameSvc.DeleteGame(r.Context(), gameID, userID); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// StandardMap handles GET /api/v1/maps/standard. Clients need the
// adjacency list and crossing costs to plan moves; serving the same map
// the resolver validates against keeps the two from drifting.
func (h *GameHandler) StandardMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gameMap)
}
