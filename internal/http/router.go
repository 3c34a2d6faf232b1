// Package httpapi assembles the intake gateway's HTTP surface: the public
// mail webhook, the token-guarded admin API, and the operational endpoints.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	clienthandler "docuflow/internal/client/handler"
	doctypehandler "docuflow/internal/doctype/handler"
	"docuflow/internal/intake"
	requirementhandler "docuflow/internal/requirement/handler"
	"docuflow/pkg/platform/httputil"
	adminmw "docuflow/pkg/platform/middleware/admin"
	"docuflow/pkg/platform/middleware/requestid"
	"docuflow/pkg/platform/middleware/requesttime"
)

// Deps carries everything the router mounts. Webhook may be nil when the
// gateway runs admin-only (no mail source configured).
type Deps struct {
	Webhook      *intake.WebhookHandler
	Clients      clienthandler.Service
	DocTypes     doctypehandler.Service
	Requirements requirementhandler.Service
	AdminToken   string
	Logger       *slog.Logger
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if deps.Webhook != nil {
		deps.Webhook.Register(r)
	}

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(deps.AdminToken, logger))
		clienthandler.New(deps.Clients, logger).Register(r)
		doctypehandler.New(deps.DocTypes, logger).Register(r)
		requirementhandler.New(deps.Requirements, logger).Register(r)
	})

	return r
}
