package history

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/middleware"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/model/chat"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/service/mood"
	"github.com/pranav-p-pathak/mental-health-chatbot/pkg/utils"
)

// Store is the read surface the history routes need.
type Store interface {
	LoadRecentMessages(ctx context.Context, userID string, limit int) ([]chat.Message, error)
	LoadMoodHistory(ctx context.Context, userID string, limit int) ([]chat.MoodSample, error)
}

// Handler serves conversation and mood history reads.
type Handler struct {
	store            Store
	trend            *mood.Tracker
	historyLimit     int
	moodHistoryLimit int
	log              *logger.Logger
}

// New creates the history handler with the configured default windows.
func New(store Store, trend *mood.Tracker, historyLimit, moodHistoryLimit int, log *logger.Logger) *Handler {
	return &Handler{
		store:            store,
		trend:            trend,
		historyLimit:     historyLimit,
		moodHistoryLimit: moodHistoryLimit,
		log:              log.With("handler", "history"),
	}
}

// RegisterRoutes mounts the authenticated history routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/messages", h.handleMessages)
	r.Get("/mood-history", h.handleMoodHistory)
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := limitParam(r, h.historyLimit)
	messages, err := h.store.LoadRecentMessages(r.Context(), userID, limit)
	if err != nil {
		h.log.Error("message history load failed", "user_id", userID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	if messages == nil {
		messages = []chat.Message{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) handleMoodHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := limitParam(r, h.moodHistoryLimit)
	samples, err := h.store.LoadMoodHistory(r.Context(), userID, limit)
	if err != nil {
		h.log.Error("mood history load failed", "user_id", userID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load mood history")
		return
	}

	if samples == nil {
		samples = []chat.MoodSample{}
	}

	payload := map[string]any{"moods": samples}
	if h.trend != nil {
		payload["trend"] = h.trend.Recent(userID)
	}
	utils.RespondJSON(w, http.StatusOK, payload)
}

// limitParam reads ?limit= and clamps it to (0, fallback]. The configured
// window is the ceiling, not just the default.
func limitParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}

	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 || val > fallback {
		return fallback
	}
	return val
}
