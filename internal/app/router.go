package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/planwise-crm/planwise-crm/internal/accessrules"
	"github.com/planwise-crm/planwise-crm/internal/authn"
	"github.com/planwise-crm/planwise-crm/internal/invoices"
	"github.com/planwise-crm/planwise-crm/internal/leads"
	"github.com/planwise-crm/planwise-crm/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Gate               authn.Gate
	AuthHandler        *authn.Handler
	LeadsHandler       *leads.Handler
	InvoicesHandler    *invoices.Handler
	AccessRulesHandler *accessrules.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Planwise defaults. The gate runs
// ahead of every protected route group; the authorization middlewares are
// mounted inside each handler's MountRoutes.
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
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	if params.LeadsHandler != nil {
		r.Route("/leads", func(r chi.Router) {
			r.Use(params.Gate.Require())
			params.LeadsHandler.MountRoutes(r)
		})
	}
	if params.InvoicesHandler != nil {
		r.Route("/invoices", func(r chi.Router) {
			r.Use(params.Gate.Require())
			params.InvoicesHandler.MountRoutes(r)
		})
	}
	if params.AccessRulesHandler != nil {
		r.Route("/access-rules", func(r chi.Router) {
			r.Use(params.Gate.Require())
			params.AccessRulesHandler.MountRoutes(r)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
