package stripewebhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/artx-bot/internal/checkout"
	"github.com/angelmondragon/artx-bot/internal/entitlements"
	"github.com/angelmondragon/artx-bot/internal/grants"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
	"github.com/angelmondragon/artx-bot/pkg/logger"
	"github.com/angelmondragon/artx-bot/pkg/metrics"
)

// Outcome describes what happened to an authenticated event.
type Outcome string

const (
	OutcomeGranted        Outcome = "granted"
	OutcomeIgnored        Outcome = "ignored"
	OutcomeUnattributable Outcome = "unattributable"
	OutcomeGrantFailed    Outcome = "grant_failed"
)

type ServiceParams struct {
	Grantor grants.Service
	GuildID string
	Logger  *logger.Logger
	Metrics *metrics.BotMetrics
}

// Service routes verified Stripe events by type.
type Service struct {
	grantor grants.Service
	guildID string
	logg    *logger.Logger
	metrics *metrics.BotMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Grantor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "entitlement grantor required")
	}
	return &Service{
		grantor: params.Grantor,
		guildID: strings.TrimSpace(params.GuildID),
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// HandleEvent processes an already verified event. Only an undecodable payload
// is returned as an error; grant failures are logged and reported via Outcome
// so the provider is not asked to redeliver.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (Outcome, error) {
	if event == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "stripe event required")
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"event_id":   event.ID,
			"event_type": string(event.Type),
		})
		s.logg.Info(ctx, "stripe.event.received")
	}

	var (
		outcome Outcome
		err     error
	)
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		outcome, err = s.checkoutCompleted(ctx, event)
	default:
		outcome = OutcomeIgnored
	}
	if err == nil {
		s.metrics.IncWebhook(string(event.Type), string(outcome))
	} else {
		s.metrics.IncWebhook(string(event.Type), "error")
	}
	return outcome, err
}

func (s *Service) checkoutCompleted(ctx context.Context, event *stripe.Event) (Outcome, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "checkout session payload missing")
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session")
	}

	userID := strings.TrimSpace(session.Metadata[checkout.MetadataUserID])
	plan := entitlements.ParseTier(session.Metadata[checkout.MetadataPlan])

	if s.logg != nil {
		fields := map[string]any{
			"checkout_session_id": session.ID,
			"discord_user_id":     userID,
			"plan":                string(plan),
		}
		if session.CustomerDetails != nil {
			fields["customer_email"] = session.CustomerDetails.Email
		}
		ctx = s.logg.WithFields(ctx, fields)
	}

	if userID == "" || plan == entitlements.TierNone {
		if s.logg != nil {
			s.logg.Warn(ctx, "checkout.session.completed missing discord_user_id or plan metadata")
		}
		return OutcomeUnattributable, nil
	}

	if err := s.grantor.GrantEntitlement(ctx, s.guildID, userID, plan); err != nil {
		if s.logg != nil {
			ctx = s.logg.WithField(ctx, "error_code", string(pkgerrors.CodeOf(err)))
			s.logg.Error(ctx, "entitlement grant failed; manual reconciliation required", err)
		}
		return OutcomeGrantFailed, nil
	}
	return OutcomeGranted, nil
}
