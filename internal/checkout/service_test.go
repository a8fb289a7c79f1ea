package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/artx-bot/internal/entitlements"
	pkgerrors "github.com/angelmondragon/artx-bot/pkg/errors"
)

type fakeSessionCreator struct {
	calls  []*stripe.CheckoutSessionCreateParams
	result *stripe.CheckoutSession
	err    error
}

func (f *fakeSessionCreator) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newCatalog(t *testing.T) *entitlements.Catalog {
	t.Helper()
	catalog, err := entitlements.NewCatalog(
		entitlements.TierSpec{Tier: "pro", RoleID: "R1", PriceID: "price_pro"},
		entitlements.TierSpec{Tier: "elite", RoleID: "R9", PriceID: "price_elite"},
		entitlements.TierSpec{Tier: "legacy", RoleID: "R5"},
	)
	require.NoError(t, err)
	return catalog
}

func newService(t *testing.T, creator SessionCreator) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Stripe: creator, Catalog: newCatalog(t)})
	require.NoError(t, err)
	return svc
}

func TestCreateCheckoutSessionTagsMetadataForEveryPricedTier(t *testing.T) {
	for _, tier := range []entitlements.Tier{"pro", "elite"} {
		t.Run(string(tier), func(t *testing.T) {
			creator := &fakeSessionCreator{result: &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}}
			svc := newService(t, creator)

			url, err := svc.CreateCheckoutSession(context.Background(), "U1", tier)
			require.NoError(t, err)
			assert.Equal(t, "https://checkout.stripe.com/c/cs_1", url)

			require.Len(t, creator.calls, 1)
			params := creator.calls[0]
			assert.Equal(t, map[string]string{"discord_user_id": "U1", "plan": string(tier)}, params.Metadata)
			assert.Equal(t, params.Metadata, params.SubscriptionData.Metadata)
			assert.Equal(t, "subscription", stripe.StringValue(params.Mode))
			require.Len(t, params.LineItems, 1)
			assert.Equal(t, "price_"+string(tier), stripe.StringValue(params.LineItems[0].Price))
			assert.Equal(t, int64(1), stripe.Int64Value(params.LineItems[0].Quantity))
			assert.Equal(t, "U1", stripe.StringValue(params.ClientReferenceID))
			assert.Equal(t, defaultReturnURL, stripe.StringValue(params.SuccessURL))
			assert.NotEmpty(t, stripe.StringValue(params.IdempotencyKey))
		})
	}
}

func TestCreateCheckoutSessionValidatesInputs(t *testing.T) {
	creator := &fakeSessionCreator{result: &stripe.CheckoutSession{URL: "https://x"}}
	svc := newService(t, creator)
	ctx := context.Background()

	_, err := svc.CreateCheckoutSession(ctx, "  ", "pro")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.CreateCheckoutSession(ctx, "U1", entitlements.TierNone)
	assert.Equal(t, pkgerrors.CodeConfiguration, pkgerrors.CodeOf(err))

	_, err = svc.CreateCheckoutSession(ctx, "U1", "legacy")
	assert.Equal(t, pkgerrors.CodeConfiguration, pkgerrors.CodeOf(err), "tier without price")

	_, err = svc.CreateCheckoutSession(ctx, "U1", "platinum")
	assert.Equal(t, pkgerrors.CodeConfiguration, pkgerrors.CodeOf(err), "unknown tier")

	assert.Empty(t, creator.calls, "no remote call for invalid input")
}

func TestCreateCheckoutSessionWithoutStripeIsConfigurationError(t *testing.T) {
	svc := newService(t, nil)
	_, err := svc.CreateCheckoutSession(context.Background(), "U1", "pro")
	assert.Equal(t, pkgerrors.CodeConfiguration, pkgerrors.CodeOf(err))
}

func TestCreateCheckoutSessionSurfacesUpstreamError(t *testing.T) {
	svc := newService(t, &fakeSessionCreator{err: errors.New("api down")})
	_, err := svc.CreateCheckoutSession(context.Background(), "U1", "pro")
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))

	svc = newService(t, &fakeSessionCreator{result: &stripe.CheckoutSession{ID: "cs"}})
	_, err = svc.CreateCheckoutSession(context.Background(), "U1", "pro")
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err), "session without url")
}

func TestCreateCheckoutSessionKeepsConfigurationErrorFromClient(t *testing.T) {
	svc := newService(t, &fakeSessionCreator{err: pkgerrors.New(pkgerrors.CodeConfiguration, "no key")})
	_, err := svc.CreateCheckoutSession(context.Background(), "U1", "pro")
	assert.Equal(t, pkgerrors.CodeConfiguration, pkgerrors.CodeOf(err))
}

func TestNewServiceRequiresCatalog(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
