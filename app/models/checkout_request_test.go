package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutSessionRequestValidate(t *testing.T) {
	req := CheckoutSessionRequest{UID: "  u1 ", PriceID: " price_x "}
	assert.NoError(t, req.Validate())
	assert.Equal(t, "u1", req.UID)
	assert.Equal(t, "price_x", req.PriceID)

	blank := CheckoutSessionRequest{UID: "   "}
	assert.Error(t, blank.Validate())
}

func TestPreferenceRequestValidate(t *testing.T) {
	assert.NoError(t, (&PreferenceRequest{UID: "u1"}).Validate())
	assert.NoError(t, (&PreferenceRequest{UID: "u1", Email: "a@b.com"}).Validate())
	assert.Error(t, (&PreferenceRequest{UID: "u1", Email: "not-an-email"}).Validate())
	assert.Error(t, (&PreferenceRequest{Email: "a@b.com"}).Validate())
}
