package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/middleware"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/service/conversation"
	"github.com/pranav-p-pathak/mental-health-chatbot/pkg/utils"
)

// Orchestrator is the conversation surface this handler drives.
type Orchestrator interface {
	HandleChat(ctx context.Context, userID, message, clientTimestamp, personaID string) (conversation.Result, error)
	ClearHistory(ctx context.Context, userID string) error
}

// Handler exposes the chat turn and clear-history routes.
type Handler struct {
	orchestrator Orchestrator
	log          *logger.Logger
}

// New creates the chat handler.
func New(orchestrator Orchestrator, log *logger.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, log: log.With("handler", "chat")}
}

// RegisterRoutes mounts the authenticated chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Delete("/clear-messages", h.handleClearMessages)
}

type chatRequest struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Persona   string `json:"persona"`
}

type chatResponse struct {
	Response        string         `json:"response"`
	Timestamp       string         `json:"timestamp"`
	Sentiment       string         `json:"sentiment"`
	RawGeminiOutput map[string]any `json:"rawGeminiOutput"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.orchestrator.HandleChat(r.Context(), userID, payload.Message, payload.Timestamp, payload.Persona)
	if err != nil {
		h.log.Error("chat turn failed", "user_id", userID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "chat failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{
		Response:        result.Response,
		Timestamp:       result.Timestamp,
		Sentiment:       string(result.Sentiment),
		RawGeminiOutput: result.Diagnostics,
	})
}

func (h *Handler) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.orchestrator.ClearHistory(r.Context(), userID); err != nil {
		h.log.Error("clear history failed", "user_id", userID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to delete messages")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Messages deleted"})
}
