package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// CheckoutSessionRequest is the body of POST /create-checkout-session.
type CheckoutSessionRequest struct {
	UID     string `json:"uid" validate:"required,max=128"`
	PriceID string `json:"priceId" validate:"omitempty,max=255"`
}

func (r *CheckoutSessionRequest) Validate() error {
	r.UID = strings.TrimSpace(r.UID)
	r.PriceID = strings.TrimSpace(r.PriceID)

	v := validator.New()
	return v.Struct(r)
}

// PreferenceRequest is the body of POST /provider-a/create-preference.
type PreferenceRequest struct {
	UID   string `json:"uid" validate:"required,max=128"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (r *PreferenceRequest) Validate() error {
	r.UID = strings.TrimSpace(r.UID)
	r.Email = strings.TrimSpace(r.Email)

	v := validator.New()
	return v.Struct(r)
}
