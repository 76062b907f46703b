package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"

	"github.com/le10del10/paybridge/internal/pkg/config"
)

// Checkout starts hosted Stripe checkout sessions. It never touches the
// document store: payment state is only written on webhook confirmation.
type Checkout struct {
	sessions CheckoutSessionCreator
	cfg      config.StripeConfig
}

func NewCheckout(sessions CheckoutSessionCreator, cfg config.StripeConfig) *Checkout {
	return &Checkout{sessions: sessions, cfg: cfg}
}

// CreateSession creates a single-item payment session for uid and returns
// the URL the client should open. priceID overrides the configured price.
func (c *Checkout) CreateSession(ctx context.Context, uid, priceID string) (string, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", ErrMissingUID
	}
	selectedPrice := firstNonEmpty(priceID, c.cfg.PriceID)

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(selectedPrice),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(SuccessURLWithSession(c.cfg.SuccessURL)),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		ClientReferenceID: stripe.String(uid),
	}
	params.AddMetadata("uid", uid)
	params.AddMetadata("priceId", selectedPrice)
	params.AddMetadata("productId", c.cfg.ProductID)

	session, err := c.sessions.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create stripe checkout session for uid %s: %w", uid, err)
	}
	return session.URL, nil
}
