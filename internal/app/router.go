package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/printdesk/printdesk/internal/auth"
	"github.com/printdesk/printdesk/internal/dashboard"
	"github.com/printdesk/printdesk/internal/delivery"
	"github.com/printdesk/printdesk/internal/masterdata/products"
	"github.com/printdesk/printdesk/internal/observability"
	"github.com/printdesk/printdesk/internal/platform/httpx"
	"github.com/printdesk/printdesk/internal/production"
	"github.com/printdesk/printdesk/internal/sales/clients"
	"github.com/printdesk/printdesk/internal/sales/orders"
	"github.com/printdesk/printdesk/internal/shared"
	"github.com/printdesk/printdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	AuthService       *auth.Service
	AuthHandler       *auth.Handler
	ClientsHandler    *clients.Handler
	ProductsHandler   *products.Handler
	OrdersHandler     *orders.Handler
	ProductionHandler *production.Handler
	DeliveryHandler   *delivery.Handler
	DashboardHandler  *dashboard.Handler
	QueueHandler      *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with printdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, HealthReport(params.Config, time.Now()))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			AuthService:    params.AuthService,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}
		if params.Config == nil || !params.Config.IsProduction() {
			r.Use(chimw.Logger)
		}

		r.Route("/auth", params.AuthHandler.MountRoutes)
		mount := func(h interface{ MountRoutes(chi.Router) }) {
			h.MountRoutes(r)
		}
		if params.DashboardHandler != nil {
			mount(params.DashboardHandler)
		}
		if params.ClientsHandler != nil {
			mount(params.ClientsHandler)
		}
		if params.ProductsHandler != nil {
			mount(params.ProductsHandler)
		}
		if params.OrdersHandler != nil {
			mount(params.OrdersHandler)
		}
		if params.ProductionHandler != nil {
			mount(params.ProductionHandler)
		}
		if params.DeliveryHandler != nil {
			mount(params.DeliveryHandler)
		}
		if params.QueueHandler != nil {
			r.Route("/queue", params.QueueHandler.MountRoutes)
		}
	})

	return r
}
