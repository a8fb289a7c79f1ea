package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/artx-bot/pkg/config"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
	"github.com/angelmondragon/artx-bot/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)

// Client wraps Stripe's API client plus env-specific metadata. Either half may
// be unconfigured: checkout needs the API key, webhooks need the signing secret.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
}

// NewClient validates whatever credentials are present. Missing credentials are
// not an error here; the operations that need them report a configuration error.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	client := &Client{
		environment:   env,
		signingSecret: strings.TrimSpace(cfg.Secret),
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey != "" {
		if err := validateAPIKey(env, apiKey); err != nil {
			return nil, err
		}
		client.api = stripe.NewClient(apiKey)
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"stripe_env":        env,
			"checkout_enabled":  client.api != nil,
			"webhook_verifying": client.signingSecret != "",
		})
		logg.Info(ctx, "stripe client initialized")
	}

	return client, nil
}

// CreateCheckoutSession creates a hosted checkout session.
func (c *Client) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	if c == nil || c.api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "stripe api key not configured")
	}
	return c.api.V1CheckoutSessions.Create(ctx, params)
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
