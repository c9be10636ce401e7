package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	personaModel "github.com/pranav-p-pathak/mental-health-chatbot/internal/model/persona"
	"github.com/pranav-p-pathak/mental-health-chatbot/pkg/utils"
)

// Handler exposes the closed persona table to the frontend picker.
type Handler struct {
	store personaModel.Store
}

// New creates the persona handler.
func New(store personaModel.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the public persona routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"personas": h.store.List()})
}
