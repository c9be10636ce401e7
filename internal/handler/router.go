package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/pranav-p-pathak/mental-health-chatbot/internal/handler/chat"
	historyHandler "github.com/pranav-p-pathak/mental-health-chatbot/internal/handler/history"
	personaHandler "github.com/pranav-p-pathak/mental-health-chatbot/internal/handler/persona"
	preferencesHandler "github.com/pranav-p-pathak/mental-health-chatbot/internal/handler/preferences"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/middleware"
	"github.com/pranav-p-pathak/mental-health-chatbot/pkg/utils"
)

// Deps collects everything the router mounts.
type Deps struct {
	Auth        *middleware.Auth
	Chat        *chatHandler.Handler
	History     *historyHandler.Handler
	Preferences *preferencesHandler.Handler
	Persona     *personaHandler.Handler
}

// NewRouter wires HTTP routes to core services. The chat surface sits behind
// the identity gate; persona list and liveness stay public.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	deps.Persona.RegisterRoutes(r)

	r.Group(func(protected chi.Router) {
		protected.Use(deps.Auth.RequireAuth)
		deps.Chat.RegisterRoutes(protected)
		deps.History.RegisterRoutes(protected)
		deps.Preferences.RegisterRoutes(protected)
	})

	return r
}
