package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bondly/bondly/internal/classifications"
	"github.com/bondly/bondly/internal/dashboard"
	"github.com/bondly/bondly/internal/observability"
	"github.com/bondly/bondly/internal/partners"
	"github.com/bondly/bondly/internal/platform/httpx"
	"github.com/bondly/bondly/internal/professions"
	"github.com/bondly/bondly/internal/search"
	"github.com/bondly/bondly/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	PartnersHandler        *partners.Handler
	ClassificationsHandler *classifications.Handler
	SearchHandler          *search.Handler
	DashboardHandler       *dashboard.Handler
	ProfessionsHandler     *professions.Handler
	JobHandler             *jobs.Handler
}

// NewRouter constructs the chi.Router with Bondly defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "NOT_FOUND", "Route non trouvée", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusMethodNotAllowed, "BAD_REQUEST", "Méthode non autorisée", nil)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.PartnersHandler != nil {
			r.Route("/partners", params.PartnersHandler.MountRoutes)
		}
		if params.ClassificationsHandler != nil {
			r.Route("/classifications", params.ClassificationsHandler.MountRoutes)
		}
		if params.SearchHandler != nil {
			r.Route("/search", params.SearchHandler.MountRoutes)
		}
		if params.DashboardHandler != nil {
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		}
		if params.ProfessionsHandler != nil {
			r.Route("/professions", params.ProfessionsHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
