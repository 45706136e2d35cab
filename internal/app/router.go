package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/accessd/accessd/internal/auth"
	"github.com/accessd/accessd/internal/demo"
	"github.com/accessd/accessd/internal/observability"
	"github.com/accessd/accessd/internal/platform/httpx"
	"github.com/accessd/accessd/internal/rbac"
	"github.com/accessd/accessd/internal/users"
	"github.com/accessd/accessd/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	AuthService  *auth.Service
	AuthHandler  *auth.Handler
	UsersHandler *users.Handler
	AdminHandler *rbac.Handler
	DemoHandler  *demo.Handler
	JobHandler   *jobs.Handler
	Metrics      *observability.Metrics
}

// NewRouter constructs the chi.Router with accessd defaults.
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

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		env := ""
		if params.Config != nil {
			env = params.Config.AppEnv
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "env": env})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	requireUser := auth.Middleware{Service: params.AuthService, Logger: params.Logger}.RequireUser

	r.Route("/users", func(r chi.Router) {
		r.Use(requireUser)
		params.UsersHandler.MountRoutes(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireUser)
		params.AdminHandler.MountRoutes(r)
	})

	if params.DemoHandler != nil {
		r.Route("/demo", func(r chi.Router) {
			r.Use(requireUser)
			params.DemoHandler.MountRoutes(r)
		})
	}

	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(requireUser)
			params.JobHandler.MountRoutes(r)
		})
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
