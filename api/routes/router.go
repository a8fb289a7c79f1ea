package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/artx-bot/api/controllers"
	webhookcontrollers "github.com/angelmondragon/artx-bot/api/controllers/webhooks"
	"github.com/angelmondragon/artx-bot/api/middleware"
	"github.com/angelmondragon/artx-bot/pkg/config"
	"github.com/angelmondragon/artx-bot/pkg/logger"
	"github.com/angelmondragon/artx-bot/pkg/metrics"
)

const (
	PathRoot       = "/"
	PathWebhook    = "/webhook"
	PathHealthLive = "/health/live"
	PathMetrics    = "/metrics"
)

// signingSecretSource exposes the webhook signing secret; *stripe.Client satisfies it.
type signingSecretSource interface {
	SigningSecret() string
}

type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	WebhookService webhookcontrollers.StripeWebhookService
	Stripe         signingSecretSource
	Gatherer       prometheus.Gatherer
	Metrics        *metrics.BotMetrics
}

func NewRouter(params RouterParams) http.Handler {
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg, params.Metrics),
		middleware.RequestID(logg),
		middleware.Logging(logg, PathRoot, PathHealthLive, PathMetrics),
	)

	r.Get(PathRoot, controllers.Root(params.Config))
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
	})

	// The signature is computed over the exact bytes received, so nothing
	// upstream of this handler may read or rewrite the body.
	r.Post(PathWebhook, webhookcontrollers.StripeWebhook(params.WebhookService, params.Stripe, logg))

	if params.Gatherer != nil {
		r.Method(http.MethodGet, PathMetrics, promhttp.HandlerFor(params.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
