package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/printdesk/printdesk/internal/auth"
	"github.com/printdesk/printdesk/internal/dashboard"
	"github.com/printdesk/printdesk/internal/delivery"
	jobmetrics "github.com/printdesk/printdesk/internal/jobs"
	"github.com/printdesk/printdesk/internal/masterdata/products"
	"github.com/printdesk/printdesk/internal/observability"
	"github.com/printdesk/printdesk/internal/platform/latency"
	"github.com/printdesk/printdesk/internal/production"
	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/sales/clients"
	"github.com/printdesk/printdesk/internal/sales/orders"
	"github.com/printdesk/printdesk/internal/shared"
	"github.com/printdesk/printdesk/jobs"
)

// Deps are the external resources the container is built on.
type Deps struct {
	Redis *redis.Client
	// Audit defaults to an in-memory trail.
	Audit shared.AuditTrail
	// Queue receives order sync tasks when ORDER_SYNC_MODE=queue.
	Queue *jobs.Client
	// Inspector backs the queue health endpoint. Optional.
	Inspector jobs.QueueInspector
	// Events receives order lifecycle events. Optional.
	Events orders.EventPublisher
}

// Container holds the wired services of one printdesk process.
type Container struct {
	Config   *Config
	Logger   *slog.Logger
	Money    dashboard.Money
	Sessions *shared.SessionManager
	CSRF     *shared.CSRFManager
	Metrics  *observability.Metrics
	Tasks    *jobmetrics.Metrics
	Cache    *dashboard.Cache
	RBAC     rbac.Middleware

	Auth       *auth.Service
	Products   *products.Service
	Clients    *clients.Service
	Orders     *orders.Service
	Production *production.Service
	Delivery   *delivery.Service
	Dashboard  *dashboard.Service
	PDF        *dashboard.PDFExporter

	inspector jobs.QueueInspector
}

// NewContainer wires every service against the given resources.
func NewContainer(cfg *Config, logger *slog.Logger, deps Deps) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	audit := deps.Audit
	if audit == nil {
		audit = shared.NewMemoryAuditTrail()
	}
	money, err := NewMoneyFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Money:     money,
		Sessions:  shared.NewSessionManager(deps.Redis, "printdesk_session", cfg.SessionTTL, cfg.IsProduction()),
		CSRF:      shared.NewCSRFManager(cfg.CSRFSecret),
		Metrics:   observability.NewMetrics(),
		Cache:     dashboard.NewCache(deps.Redis, cfg.DashboardCacheTTL),
		inspector: deps.Inspector,
	}
	c.Tasks = jobmetrics.NewMetrics(c.Metrics.Registerer())

	c.Auth, err = auth.NewServiceWithPassword(auth.NewDirectory(auth.DemoUsers()), cfg.DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("init auth: %w", err)
	}
	c.RBAC = rbac.Middleware{
		Resolve: func(r *http.Request) rbac.Principal { return auth.PrincipalFromContext(r.Context()) },
		Logger:  logger,
	}

	sim := latency.New(cfg.MockLatency)
	c.Products = products.NewService(products.NewMemoryRepository(sim), logger)
	c.Clients = clients.NewService(clients.NewMemoryRepository(sim), c.Cache, logger)
	c.Orders = orders.NewService(orders.NewMemoryRepository(sim), c.Clients, c.Products, audit, c.Cache, logger)
	c.Clients.UseOrderCounter(c.Orders)
	if deps.Events != nil {
		c.Orders.WithEvents(deps.Events)
	}

	var sync production.OrderSync = c.Orders
	if cfg.OrderSyncMode == SyncQueue {
		if deps.Queue == nil {
			return nil, fmt.Errorf("ORDER_SYNC_MODE=%s needs a queue client", SyncQueue)
		}
		sync = deps.Queue
	}
	matcher, err := production.MatcherFor(cfg.PhaseRoleMatching)
	if err != nil {
		return nil, err
	}
	c.Production = production.NewService(production.ServiceParams{
		Repo:        production.NewMemoryRepository(sim),
		Engine:      production.NewEngine(production.WithMatcher(matcher)),
		Orders:      c.Orders,
		Sync:        sync,
		SyncMode:    cfg.OrderSyncMode,
		Audit:       audit,
		Idempotency: shared.NewIdempotencyStore(deps.Redis, cfg.IdempotencyTTL),
		Metrics:     c.Metrics,
		Cache:       c.Cache,
		Logger:      logger,
	})

	c.Delivery = delivery.NewService(c.Orders, logger)
	c.Delivery.SetStockKeeper(c.Products)
	c.Dashboard = dashboard.NewService(c.Orders, c.Production, c.Cache, money, logger)
	c.PDF = dashboard.NewPDFExporter(cfg.GotenbergURL, &http.Client{Timeout: 30 * time.Second})
	return c, nil
}

// NewMoneyFromConfig resolves the CURRENCY setting.
func NewMoneyFromConfig(cfg *Config) (dashboard.Money, error) {
	code := "IDR"
	if cfg != nil && cfg.Currency != "" {
		code = cfg.Currency
	}
	return dashboard.NewMoney(code)
}

// Seed loads the demo data set.
func (c *Container) Seed(ctx context.Context) error {
	return SeedDemo(ctx, SeedServices{
		Products:   c.Products,
		Clients:    c.Clients,
		Orders:     c.Orders,
		Production: c.Production,
		Logger:     c.Logger,
	})
}

// WorkerConfig lists the task handlers and cron entries served in process.
func (c *Container) WorkerConfig(base jobs.WorkerConfig) jobs.WorkerConfig {
	base.Logger = c.Logger
	base.Handlers = append(base.Handlers,
		jobs.TaskHandler{Type: jobs.TaskOrderSync, Handler: jobs.NewOrderSyncJob(c.Orders, c.Logger, c.Tasks).Handle},
		jobs.TaskHandler{Type: jobs.TaskDashboardWarmup, Handler: jobs.NewDashboardWarmupJob(c.Dashboard, c.Logger, c.Tasks).Handle},
	)
	if c.Config.DashboardWarmupCron != "" {
		base.Cron = append(base.Cron, jobs.CronRegistration{Spec: c.Config.DashboardWarmupCron, Task: jobs.NewDashboardWarmupTask()})
	}
	return base
}

// Router builds the HTTP handler tree.
func (c *Container) Router() http.Handler {
	params := RouterParams{
		Logger:            c.Logger,
		Config:            c.Config,
		SessionManager:    c.Sessions,
		CSRFManager:       c.CSRF,
		AuthService:       c.Auth,
		AuthHandler:       auth.NewHandler(c.Logger, c.Auth, c.CSRF, c.RBAC),
		ClientsHandler:    clients.NewHandler(c.Logger, c.Clients, c.RBAC),
		ProductsHandler:   products.NewHandler(c.Logger, c.Products, c.RBAC),
		OrdersHandler:     orders.NewHandler(c.Logger, c.Orders, c.RBAC),
		ProductionHandler: production.NewHandler(c.Logger, c.Production, c.RBAC),
		DeliveryHandler:   delivery.NewHandler(c.Logger, c.Delivery, c.RBAC),
		DashboardHandler:  dashboard.NewHandler(c.Logger, c.Dashboard, c.PDF, c.RBAC),
		Metrics:           c.Metrics,
	}
	if c.inspector != nil {
		params.QueueHandler = jobs.NewHandler(c.inspector, c.Logger)
	}
	return NewRouter(params)
}
