package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/clients"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/deals"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/invoices"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/payments"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/quotations"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/stats"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/workorders"
	"github.com/queenscorner/queenscorner-erp/internal/observability"
	"github.com/queenscorner/queenscorner-erp/internal/platform/idempotency"
	"github.com/queenscorner/queenscorner-erp/jobs"
	"github.com/queenscorner/queenscorner-erp/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	ClientsHandler    *clients.Handler
	QuotationsHandler *quotations.Handler
	DealsHandler      *deals.Handler
	WorkOrdersHandler *workorders.Handler
	InvoicesHandler   *invoices.Handler
	PaymentsHandler   *payments.Handler
	StatsHandler      *stats.Handler

	ReportHandler *report.Handler
	JobHandler    *jobs.Handler
	Metrics       *observability.Metrics
	Idempotency   *idempotency.Store
}

// NewRouter constructs the chi.Router for the JSON API.
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

	r.Route("/api/v1", func(r chi.Router) {
		if params.Idempotency != nil {
			r.Use(idempotency.Middleware(params.Idempotency, "api"))
		}
		params.ClientsHandler.MountRoutes(r)
		params.QuotationsHandler.MountRoutes(r)
		params.DealsHandler.MountRoutes(r)
		params.WorkOrdersHandler.MountRoutes(r)
		params.InvoicesHandler.MountRoutes(r)
		params.PaymentsHandler.MountRoutes(r)
		if params.StatsHandler != nil {
			params.StatsHandler.MountRoutes(r)
		}
	})

	if params.ReportHandler != nil {
		r.Route("/reports", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
