package models

import (
	"strings"

	"github.com/le10del10/paybridge/internal/pkg/docstore"
)

const (
	BillingProviderStripe      = "stripe"
	BillingProviderMercadoPago = "mercadopago"
)

const PaymentStatusPaid = "paid"

// PaymentRecord is the payments/{uid} document. Only confirmed payments are
// ever written, so Status is always "paid".
type PaymentRecord struct {
	UID        string
	Provider   string
	ExternalID string // Stripe checkout session id or Mercado Pago payment id

	// Optional details, written only when known.
	AmountMinor *int64
	Currency    string
	PriceID     string
	ProductID   string
	SessionID   string
}

// Fields returns the merge-write payload. paidAt is resolved by the store.
func (p PaymentRecord) Fields() map[string]any {
	fields := map[string]any{
		"uid":        p.UID,
		"status":     PaymentStatusPaid,
		"provider":   p.Provider,
		"externalId": p.ExternalID,
		"paidAt":     docstore.ServerTimestamp,
	}
	if p.AmountMinor != nil {
		fields["amount"] = *p.AmountMinor
	}
	if c := strings.ToLower(strings.TrimSpace(p.Currency)); c != "" {
		fields["currency"] = c
	}
	if p.PriceID != "" {
		fields["priceId"] = p.PriceID
	}
	if p.ProductID != "" {
		fields["productId"] = p.ProductID
	}
	if p.SessionID != "" {
		fields["sessionId"] = p.SessionID
	}
	return fields
}

// PremiumFlag is applied to an existing users/{uid} document.
type PremiumFlag struct {
	UID string
}

func (PremiumFlag) Fields() map[string]any {
	return map[string]any{
		"premium":   true,
		"updatedAt": docstore.ServerTimestamp,
	}
}
