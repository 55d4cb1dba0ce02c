package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/propdesk/propdesk-backend/api/controllers"
	billingcontrollers "github.com/propdesk/propdesk-backend/api/controllers/billing"
	webhookcontrollers "github.com/propdesk/propdesk-backend/api/controllers/webhooks"
	"github.com/propdesk/propdesk-backend/api/middleware"
	"github.com/propdesk/propdesk-backend/pkg/config"
	"github.com/propdesk/propdesk-backend/pkg/cryptopay"
	"github.com/propdesk/propdesk-backend/pkg/db"
	"github.com/propdesk/propdesk-backend/pkg/logger"
	"github.com/propdesk/propdesk-backend/pkg/metrics"
	"github.com/propdesk/propdesk-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	paymentService billingcontrollers.PaymentService,
	subscriptionService billingcontrollers.SubscriptionService,
	webhookService webhookcontrollers.CryptopayWebhookService,
	webhookMetrics *metrics.WebhookMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	// plan catalog is public; no auth required to browse pricing
	r.Get("/api/v1/billing/plans", billingcontrollers.PlansList())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/cryptopay", webhookcontrollers.CryptopayWebhook(
			webhookService,
			cryptopay.NewIPNSecrets(cfg.Cryptopay.IPNSecret),
			webhookMetrics,
			logg,
		))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/billing", func(r chi.Router) {
			r.Post("/payments", billingcontrollers.PaymentsCreate(paymentService, logg))
			r.Get("/payments", billingcontrollers.PaymentsList(paymentService, logg))
			r.Get("/subscription", billingcontrollers.SubscriptionGet(subscriptionService, logg))
			r.Post("/subscription/cancel", billingcontrollers.SubscriptionCancel(subscriptionService, logg))
		})
	})

	return r
}
