package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmorales/channelstock-backend/api/controllers"
	"github.com/danmorales/channelstock-backend/api/middleware"
	"github.com/danmorales/channelstock-backend/internal/alerts"
	"github.com/danmorales/channelstock-backend/internal/blocks"
	"github.com/danmorales/channelstock-backend/internal/integrations"
	"github.com/danmorales/channelstock-backend/internal/inventory"
	"github.com/danmorales/channelstock-backend/internal/orders"
	"github.com/danmorales/channelstock-backend/pkg/config"
	"github.com/danmorales/channelstock-backend/pkg/logger"
	pkgredis "github.com/danmorales/channelstock-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        *pkgredis.Client
	Idempotency  pkgredis.IdempotencyStore
	Checker      *inventory.Checker
	Ledger       inventory.LedgerRepository
	Blocks       blocks.Service
	Orders       orders.Processor
	Alerts       alerts.Service
	Integrations integrations.Repository
}

// NewRouter assembles the API router.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	deps := map[string]controllers.Pinger{}
	if p.DB != nil {
		deps["database"] = p.DB
	}
	if p.Redis != nil {
		deps["redis"] = p.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, deps))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(p.Idempotency, p.Logger))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.ProcessOrder(p.Orders, p.Logger))
			r.Get("/", controllers.ListOrders(p.Orders, p.Logger))
			r.Get("/{orderRef}", controllers.OrderDetail(p.Orders, p.Logger))
		})

		r.Route("/inventory/{platform}/{productId}", func(r chi.Router) {
			r.Get("/availability", controllers.CheckAvailability(p.Checker, p.Logger))
			r.Post("/block", controllers.BlockOrders(p.Blocks, p.Logger))
			r.Post("/unblock", controllers.UnblockOrders(p.Blocks, p.Logger))
			r.Get("/blocks", controllers.BlockHistory(p.Blocks, p.Logger))
			r.Get("/transactions", controllers.ListTransactions(p.Ledger, p.Logger))
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", controllers.ListAlerts(p.Alerts, p.Logger))
			r.Post("/{alertId}/read", controllers.MarkAlertRead(p.Alerts, p.Logger))
			r.Post("/{alertId}/resolve", controllers.MarkAlertResolved(p.Alerts, p.Logger))
			r.Post("/read-all", controllers.MarkAllAlertsRead(p.Alerts, p.Logger))
		})

		r.Route("/platforms", func(r chi.Router) {
			r.Get("/", controllers.ListIntegrations(p.Integrations, p.Logger))
			r.Get("/{platform}/integration", controllers.GetIntegration(p.Integrations, p.Logger))
			r.Put("/{platform}/integration", controllers.UpsertIntegration(p.Integrations, p.Logger))
		})
	})

	return r
}
