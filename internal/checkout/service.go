package checkout

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/artx-bot/internal/entitlements"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
	"github.com/angelmondragon/artx-bot/pkg/logger"
)

// Metadata keys written on every session. The webhook grantor correlates on them.
const (
	MetadataUserID = "discord_user_id"
	MetadataPlan   = "plan"
)

const defaultReturnURL = "https://discord.com/channels/@me"

// SessionCreator is the subset of the Stripe client used to start checkout.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
}

// Service starts subscription checkouts for Discord users.
type Service interface {
	CreateCheckoutSession(ctx context.Context, userID string, tier entitlements.Tier) (string, error)
}

type ServiceParams struct {
	Stripe     SessionCreator
	Catalog    *entitlements.Catalog
	SuccessURL string
	CancelURL  string
	Logger     *logger.Logger
}

type service struct {
	stripe     SessionCreator
	catalog    *entitlements.Catalog
	successURL string
	cancelURL  string
	logg       *logger.Logger
}

// NewService builds the checkout initiator. A nil Stripe client is allowed;
// every call then fails with a configuration error.
func NewService(params ServiceParams) (Service, error) {
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tier catalog required")
	}
	return &service{
		stripe:     params.Stripe,
		catalog:    params.Catalog,
		successURL: firstNonEmpty(params.SuccessURL, defaultReturnURL),
		cancelURL:  firstNonEmpty(params.CancelURL, defaultReturnURL),
		logg:       params.Logger,
	}, nil
}

func (s *service) CreateCheckoutSession(ctx context.Context, userID string, tier entitlements.Tier) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	tier = entitlements.ParseTier(string(tier))
	if tier == entitlements.TierNone {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "tier is required")
	}
	priceID, ok := s.catalog.PriceID(tier)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "no price configured for tier "+tier.String())
	}
	if s.stripe == nil {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "stripe client not configured")
	}

	metadata := map[string]string{
		MetadataUserID: userID,
		MetadataPlan:   string(tier),
	}
	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		ClientReferenceID: stripe.String(userID),
		Metadata:          metadata,
		SubscriptionData: &stripe.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: copyMetadata(metadata),
		},
	}
	params.SetIdempotencyKey("checkout-" + uuid.NewString())

	session, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeConfiguration) {
			return "", err
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	if session == nil || session.URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "checkout session has no url")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"checkout_session_id": session.ID,
			"discord_user_id":     userID,
			"plan":                string(tier),
		})
		s.logg.Info(logCtx, "checkout.session.created")
	}
	return session.URL, nil
}

func copyMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
