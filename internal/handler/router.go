package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/mock-interview/backend/internal/handler/interview"
	"github.com/zhouzirui/mock-interview/backend/internal/handler/persona"
	"github.com/zhouzirui/mock-interview/backend/internal/handler/session"
	middlewarePkg "github.com/zhouzirui/mock-interview/backend/internal/middleware"
	personaModel "github.com/zhouzirui/mock-interview/backend/internal/model/persona"
	"github.com/zhouzirui/mock-interview/backend/pkg/utils"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "interview"

// Deps groups the services the HTTP layer depends on.
type Deps struct {
	Persona      personaModel.Persona
	Orchestrator interview.Orchestrator
	Transcripts  session.TranscriptReader
	Logger       *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/health", handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handleHealth)

		persona.New(deps.Persona).RegisterRoutes(api)
		interview.New(deps.Orchestrator, logger).RegisterRoutes(api)

		if deps.Transcripts != nil {
			session.New(deps.Transcripts, logger).RegisterRoutes(api)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}
