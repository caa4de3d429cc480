package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	apimiddleware "github.com/phrazzld/scry-study/internal/api/middleware"
	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/phrazzld/scry-study/internal/service/study"
)

// DefaultRequestTimeout bounds a single API request.
const DefaultRequestTimeout = 30 * time.Second

// RouterDeps holds what the router needs to build its handlers.
type RouterDeps struct {
	StudyService   study.Service
	JWTService     auth.JWTService
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP router with all routes and middleware.
//
//	POST /api/units/{unitID}/sessions
//	GET  /api/units/{unitID}/status
//	POST /api/cards/{cardID}/answer
//	POST /api/cards/{cardID}/study-again
//	POST /api/cards/{cardID}/remove
//	POST /api/cards/{cardID}/reinstate
//	POST /api/cards/{cardID}/postpone
//	GET  /api/cards/{cardID}/reviews
//	GET  /health
//
// Every /api route requires a bearer token and accepts ?tz=<IANA zone>.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	studyHandler := NewStudyHandler(deps.StudyService, log)
	authMiddleware := apimiddleware.NewAuthMiddleware(deps.JWTService)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(apimiddleware.TraceMiddleware(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/units/{unitID}", func(r chi.Router) {
			r.Post("/sessions", studyHandler.StartSession)
			r.Get("/status", studyHandler.GetStatus)
		})

		r.Route("/cards/{cardID}", func(r chi.Router) {
			r.Post("/answer", studyHandler.SubmitAnswer)
			r.Post("/study-again", studyHandler.StudyAgain)
			r.Post("/remove", studyHandler.RemoveCard)
			r.Post("/reinstate", studyHandler.ReinstateCard)
			r.Post("/postpone", studyHandler.PostponeCard)
			r.Get("/reviews", studyHandler.ListReviews)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
	})

	return r
}
