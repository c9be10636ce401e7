package preferences

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/middleware"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/model/chat"
	"github.com/pranav-p-pathak/mental-health-chatbot/pkg/utils"
)

// Store is the preference persistence surface.
type Store interface {
	UpsertPreferences(ctx context.Context, prefs chat.Preferences) error
	LoadPreferences(ctx context.Context, userID string) (chat.Preferences, error)
}

// Handler serves per-user preference reads and writes.
type Handler struct {
	store Store
	log   *logger.Logger
}

// New creates the preferences handler.
func New(store Store, log *logger.Logger) *Handler {
	return &Handler{store: store, log: log.With("handler", "preferences")}
}

// RegisterRoutes mounts the authenticated preference routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/preferences", h.handleLoad)
	r.Put("/preferences", h.handleUpsert)
}

func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	prefs, err := h.store.LoadPreferences(r.Context(), userID)
	if err != nil {
		h.log.Error("preferences load failed", "user_id", userID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}

	utils.RespondJSON(w, http.StatusOK, prefs)
}

type upsertRequest struct {
	SelectedPersona string         `json:"selected_persona"`
	Preferences     map[string]any `json:"preferences"`
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SelectedPersona == "" {
		utils.RespondError(w, http.StatusBadRequest, "selected_persona is required")
		return
	}
	if payload.Preferences == nil {
		payload.Preferences = map[string]any{}
	}

	prefs := chat.Preferences{
		UserID:          userID,
		SelectedPersona: payload.SelectedPersona,
		Preferences:     payload.Preferences,
		UpdatedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.store.UpsertPreferences(r.Context(), prefs); err != nil {
		h.log.Error("preferences upsert failed", "user_id", userID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to save preferences")
		return
	}

	utils.RespondJSON(w, http.StatusOK, prefs)
}
