package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BotMetrics records command, webhook and grant outcomes.
type BotMetrics struct {
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
	webhooks *prometheus.CounterVec
	grants   *prometheus.CounterVec
	panics   *prometheus.CounterVec
}

// NewBotMetrics registers the bot collectors on the provided registerer.
// A nil registerer yields a recorder that drops every observation.
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	if reg == nil {
		return &BotMetrics{}
	}
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_commands_total",
		Help: "Slash command invocations by outcome.",
	}, []string{"command", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bot_command_duration_seconds",
		Help:    "Time spent handling a slash command.",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_webhook_events_total",
		Help: "Authenticated payment events by type and outcome.",
	}, []string{"type", "outcome"})
	grants := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_entitlement_grants_total",
		Help: "Role grants by tier and outcome.",
	}, []string{"tier", "outcome"})
	panics := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_http_panics_total",
		Help: "HTTP handler panics recovered, by route pattern.",
	}, []string{"route"})
	reg.MustRegister(commands, duration, webhooks, grants, panics)
	return &BotMetrics{
		commands: commands,
		duration: duration,
		webhooks: webhooks,
		grants:   grants,
		panics:   panics,
	}
}

// ObserveCommand records one finished invocation.
func (m *BotMetrics) ObserveCommand(command, outcome string, elapsed time.Duration) {
	if m == nil || m.commands == nil {
		return
	}
	command = normalizeLabel(command)
	m.commands.WithLabelValues(command, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// IncWebhook counts an authenticated webhook event.
func (m *BotMetrics) IncWebhook(eventType, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// IncGrant counts a role grant attempt.
func (m *BotMetrics) IncGrant(tier, outcome string) {
	if m == nil || m.grants == nil {
		return
	}
	m.grants.WithLabelValues(normalizeLabel(tier), normalizeLabel(outcome)).Inc()
}

// IncHTTPPanic counts a panic recovered while serving route.
func (m *BotMetrics) IncHTTPPanic(route string) {
	if m == nil || m.panics == nil {
		return
	}
	m.panics.WithLabelValues(normalizeLabel(route)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
