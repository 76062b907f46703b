package billing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/le10del10/paybridge/internal/pkg/config"
)

type fakeSessionCreator struct {
	calls  int
	params *stripe.CheckoutSessionParams
	url    string
	err    error
}

func (f *fakeSessionCreator) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.calls++
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: f.url}, nil
}

func testStripeConfig() config.StripeConfig {
	return config.StripeConfig{
		PriceID:    "price_default",
		ProductID:  "prod_default",
		SuccessURL: "https://app.example/success",
		CancelURL:  "https://app.example/cancel",
	}
}

func TestCreateSession_MissingUIDSkipsProvider(t *testing.T) {
	fake := &fakeSessionCreator{url: "https://pay.example/s1"}
	_, err := NewCheckout(fake, testStripeConfig()).CreateSession(context.Background(), " ", "")
	assert.ErrorIs(t, err, ErrMissingUID)
	assert.Equal(t, 0, fake.calls)
}

func TestCreateSession_DefaultPrice(t *testing.T) {
	fake := &fakeSessionCreator{url: "https://pay.example/s1"}
	url, err := NewCheckout(fake, testStripeConfig()).CreateSession(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/s1", url)

	p := fake.params
	require.NotNil(t, p)
	assert.Equal(t, "payment", stripe.StringValue(p.Mode))
	require.Len(t, p.LineItems, 1)
	assert.Equal(t, "price_default", stripe.StringValue(p.LineItems[0].Price))
	assert.Equal(t, int64(1), stripe.Int64Value(p.LineItems[0].Quantity))
	assert.Equal(t, "u1", stripe.StringValue(p.ClientReferenceID))
	assert.Equal(t, "u1", p.Metadata["uid"])
	assert.Equal(t, "price_default", p.Metadata["priceId"])
	assert.Equal(t, "prod_default", p.Metadata["productId"])
	assert.Equal(t, "https://app.example/cancel", stripe.StringValue(p.CancelURL))

	success := stripe.StringValue(p.SuccessURL)
	assert.Equal(t, 1, strings.Count(success, CheckoutSessionPlaceholder))
	assert.Equal(t, 1, strings.Count(success, "return_to_app"))
}

func TestCreateSession_PriceOverride(t *testing.T) {
	fake := &fakeSessionCreator{url: "https://pay.example/s2"}
	_, err := NewCheckout(fake, testStripeConfig()).CreateSession(context.Background(), "u1", "price_override")
	require.NoError(t, err)
	assert.Equal(t, "price_override", stripe.StringValue(fake.params.LineItems[0].Price))
	assert.Equal(t, "price_override", fake.params.Metadata["priceId"])
}

func TestCreateSession_RepeatedCallsNeverDuplicateMarkers(t *testing.T) {
	cfg := testStripeConfig()
	cfg.SuccessURL = "https://app.example/success?session_id={CHECKOUT_SESSION_ID}&return_to_app=true"
	fake := &fakeSessionCreator{url: "https://pay.example/s1"}
	checkout := NewCheckout(fake, cfg)

	for i := 0; i < 3; i++ {
		_, err := checkout.CreateSession(context.Background(), "u1", "")
		require.NoError(t, err)
		assert.Equal(t, cfg.SuccessURL, stripe.StringValue(fake.params.SuccessURL))
	}
}

func TestCreateSession_ProviderError(t *testing.T) {
	fake := &fakeSessionCreator{err: errors.New("stripe: card declined")}
	_, err := NewCheckout(fake, testStripeConfig()).CreateSession(context.Background(), "u1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "u1")
	assert.Equal(t, 1, fake.calls)
}
