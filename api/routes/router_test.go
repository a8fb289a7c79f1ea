package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	stripewebhook "github.com/angelmondragon/artx-bot/internal/webhooks/stripe"
	"github.com/angelmondragon/artx-bot/pkg/config"
	"github.com/angelmondragon/artx-bot/pkg/logger"
	"github.com/angelmondragon/artx-bot/pkg/metrics"
)

type stubWebhookService struct {
	calls int
}

func (s *stubWebhookService) HandleEvent(ctx context.Context, event *stripe.Event) (stripewebhook.Outcome, error) {
	s.calls++
	return stripewebhook.OutcomeIgnored, nil
}

type stubSecret string

func (s stubSecret) SigningSecret() string { return string(s) }

func newTestRouter(t *testing.T, svc *stubWebhookService) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewBotMetrics(reg)
	m.IncWebhook("checkout.session.completed", "granted")

	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:         &config.Config{App: config.AppConfig{Env: "dev"}},
		Logger:         logg,
		WebhookService: svc,
		Stripe:         stubSecret("whsec_test"),
		Gatherer:       reg,
	})
}

func TestRootBanner(t *testing.T) {
	router := newTestRouter(t, &stubWebhookService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Artx bot is running ✅", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHealthLiveRoute(t *testing.T) {
	router := newTestRouter(t, &stubWebhookService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRouteRejectsUnsignedRequests(t *testing.T) {
	svc := &stubWebhookService{}
	router := newTestRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"type":"checkout.session.completed"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestWebhookRouteIsPostOnly(t *testing.T) {
	router := newTestRouter(t, &stubWebhookService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsRouteExposesBotMetrics(t *testing.T) {
	router := newTestRouter(t, &stubWebhookService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bot_webhook_events_total")
}

func TestMetricsRouteOmittedWithoutGatherer(t *testing.T) {
	router := NewRouter(RouterParams{Logger: logger.Nop()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
