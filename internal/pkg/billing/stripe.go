package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/le10del10/paybridge/app/models"
	"github.com/le10del10/paybridge/internal/pkg/config"
)

// Amount recorded when a completed session reports neither total nor subtotal.
const fallbackAmountMinor int64 = 700

// CheckoutSessionCreator is the part of the Stripe API used to start a checkout.
type CheckoutSessionCreator interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeClient wraps an explicitly keyed Stripe API client.
type StripeClient struct {
	api *client.API
}

func NewStripeClient(secretKey string) *StripeClient {
	return &StripeClient{api: client.New(secretKey, nil)}
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return c.api.CheckoutSessions.New(params)
}

// ConstructStripeEvent verifies the Stripe-Signature header against the
// endpoint secret and decodes the event.
func ConstructStripeEvent(payload []byte, signatureHeader, webhookSecret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signatureHeader, webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// IsCheckoutCompleted reports whether the event is the only kind the relay acts on.
func IsCheckoutCompleted(event stripe.Event) bool {
	return event.Type == stripe.EventTypeCheckoutSessionCompleted
}

type stripeCheckoutSession struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	AmountTotal       *int64            `json:"amount_total"`
	AmountSubtotal    *int64            `json:"amount_subtotal"`
	Currency          string            `json:"currency"`
	Metadata          map[string]string `json:"metadata"`
}

// PaymentFromCheckoutSession maps a checkout.session.completed event to the
// payment record to write. The returned record has an empty UID when the
// session carries no payer identity.
func PaymentFromCheckoutSession(event stripe.Event, defaults config.StripeConfig) (models.PaymentRecord, error) {
	if event.Data == nil {
		return models.PaymentRecord{}, fmt.Errorf("stripe event %s has no data", event.ID)
	}
	var session stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return models.PaymentRecord{}, fmt.Errorf("decode checkout.session: %w", err)
	}

	uid := strings.TrimSpace(session.Metadata["uid"])
	if uid == "" {
		uid = strings.TrimSpace(session.ClientReferenceID)
	}

	amount := fallbackAmountMinor
	switch {
	case session.AmountTotal != nil:
		amount = *session.AmountTotal
	case session.AmountSubtotal != nil:
		amount = *session.AmountSubtotal
	}

	return models.PaymentRecord{
		UID:         uid,
		Provider:    models.BillingProviderStripe,
		ExternalID:  session.ID,
		SessionID:   session.ID,
		AmountMinor: &amount,
		Currency:    session.Currency,
		PriceID:     firstNonEmpty(session.Metadata["priceId"], defaults.PriceID),
		ProductID:   firstNonEmpty(session.Metadata["productId"], defaults.ProductID),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
