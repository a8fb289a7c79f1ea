package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/artx-bot/api/responses"
	stripewebhook "github.com/angelmondragon/artx-bot/internal/webhooks/stripe"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
	"github.com/angelmondragon/artx-bot/pkg/logger"
	"github.com/angelmondragon/artx-bot/pkg/types"
)

// Stripe recommends capping webhook bodies at 64 KiB.
const maxBodyBytes = int64(65536)

const signatureHeader = "Stripe-Signature"

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) (stripewebhook.Outcome, error)
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook verifies the raw body against the signing secret before any
// parsing, then hands the event to the router. Authentic events are always
// acknowledged with 200 unless the router hits an internal error.
func StripeWebhook(svc StripeWebhookService, client stripeClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		secret := ""
		if client != nil {
			secret = strings.TrimSpace(client.SigningSecret())
		}
		if secret == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConfiguration, "stripe webhook secret not configured"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}
		if int64(len(payload)) > maxBodyBytes {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeVerification, "request body too large"))
			return
		}

		sigHeader := r.Header.Get(signatureHeader)
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeVerification, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeVerification, err, "verify signature"))
			return
		}

		outcome, err := svc.HandleEvent(ctx, &event)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"event_id":   event.ID,
				"event_type": string(event.Type),
				"outcome":    string(outcome),
			})
			logg.Info(ctx, "stripe.event.acknowledged")
		}
		responses.WriteJSON(w, http.StatusOK, types.WebhookAck{Received: true})
	}
}
