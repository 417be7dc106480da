package handler

import (
	"net/http"

	"github.com/conquestlab/landgrab/internal/auth"
	"github.com/conquestlab/landgrab/internal/repository"
)

// maxDisplayNameLen bounds display names; they render in lobby listings.
const maxDisplayNameLen = 32

// UserHandler handles user profile endpoints. Profiles live in Postgres,
// so every endpoint answers 503 when the server runs without it.
type UserHandler struct {
	userRepo repository.UserRepository
}

// NewUserHandler creates a UserHandler. userRepo may be nil.
func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

func (h *UserHandler) available(w http.ResponseWriter) bool {
	if h.userRepo == nil {
		writeError(w, http.StatusServiceUnavailable, "user store unavailable")
		return false
	}
	return true
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	user, err := h.userRepo.FindByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}
	if len(req.DisplayName) > maxDisplayNameLen {
		writeError(w, http.StatusBadRequest, "display_name too long")
		return
	}

	if err := h.userRepo.UpdateDisplayName(r.Context(), userID, req.DisplayName); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user, _ := h.userRepo.FindByID(r.Context(), userID)
	writeJSON(w, http.StatusOK, user)
}

// GetUser handles GET /api/v1/users/{id}. Other users see only the
// public profile, not the linked provider identity.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	id := r.PathValue("id")
	user, err := h.userRepo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           user.ID,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
		"created_at":   user.CreatedAt,
	})
}
