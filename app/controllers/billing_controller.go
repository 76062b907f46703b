package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/le10del10/paybridge/app/models"
	"github.com/le10del10/paybridge/internal/pkg/billing"
	"github.com/le10del10/paybridge/internal/pkg/config"
	"github.com/le10del10/paybridge/internal/pkg/docstore"
)

// CheckoutStarter creates a hosted checkout and returns its URL.
type CheckoutStarter interface {
	CreateSession(ctx context.Context, uid, priceID string) (string, error)
}

type BillingController struct {
	service     *billing.Service
	checkout    CheckoutStarter
	preferences billing.PreferenceCreator
	payments    billing.PaymentLookup
	stripe      config.StripeConfig
}

func NewBillingController(
	service *billing.Service,
	checkout CheckoutStarter,
	preferences billing.PreferenceCreator,
	payments billing.PaymentLookup,
	stripe config.StripeConfig,
) *BillingController {
	return &BillingController{
		service:     service,
		checkout:    checkout,
		preferences: preferences,
		payments:    payments,
		stripe:      stripe,
	}
}

func (h *BillingController) HandleCreateCheckoutSession(c *fiber.Ctx) error {
	var req models.CheckoutSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "Invalid request body.")
		}
	}
	if err := req.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, invalidRequestMessage(req.UID, err))
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	url, err := h.checkout.CreateSession(ctx, req.UID, req.PriceID)
	if err != nil {
		if errors.Is(err, billing.ErrMissingUID) {
			return jsonError(c, fiber.StatusBadRequest, "Missing uid in request body.")
		}
		log.Errorf("[Billing] Checkout session failed uid=%s provider=%s: %v", req.UID, models.BillingProviderStripe, err)
		return jsonError(c, fiber.StatusInternalServerError, "Unable to create checkout session.")
	}

	return c.JSON(fiber.Map{"url": url})
}

func (h *BillingController) HandleCreatePreference(c *fiber.Ctx) error {
	var req models.PreferenceRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "Invalid request body.")
		}
	}
	if err := req.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, invalidRequestMessage(req.UID, err))
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	pref, err := h.preferences.CreatePreference(ctx, req.UID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrMissingUID):
			return jsonError(c, fiber.StatusBadRequest, "Missing uid in request body.")
		case errors.Is(err, billing.ErrProviderNotConfigured):
			log.Errorf("[Billing] Preference requested but Mercado Pago is not configured uid=%s", req.UID)
			return jsonError(c, fiber.StatusInternalServerError, "Mercado Pago is not configured on the server.")
		}
		log.Errorf("[Billing] Preference failed uid=%s provider=%s: %v", req.UID, models.BillingProviderMercadoPago, err)
		return jsonError(c, fiber.StatusInternalServerError, "Unable to create preference.")
	}

	return c.JSON(fiber.Map{
		"redirect":        pref.Redirect,
		"sandboxRedirect": pref.SandboxRedirect,
		"preferenceId":    pref.PreferenceID,
	})
}

// HandleStripeWebhook acts on signed checkout.session.completed events.
// Store write failures answer 500 so Stripe redelivers.
func (h *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	const provider = models.BillingProviderStripe

	secret := strings.TrimSpace(h.stripe.WebhookSecret)
	if secret == "" {
		log.Error("[Billing] Stripe webhook received but STRIPE_WEBHOOK_SECRET is not configured")
		return c.Status(fiber.StatusInternalServerError).SendString("Webhook secret is not configured on the server.")
	}

	rawBody := append([]byte(nil), c.Body()...)
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	event, err := billing.ConstructStripeEvent(rawBody, c.Get("Stripe-Signature"), secret)
	if err != nil {
		log.Warnf("[Billing] Stripe webhook signature verification failed: %v", err)
		stored := h.recordWebhook(ctx, billing.WebhookEventInput{
			Provider:    provider,
			PayloadJSON: string(rawBody),
		})
		h.service.MarkWebhookProcessed(ctx, provider, stored, "", billing.OutcomeInvalidSignature, err)
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: " + err.Error())
	}

	stored := h.recordWebhook(ctx, billing.WebhookEventInput{
		Provider:        provider,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})

	if !billing.IsCheckoutCompleted(event) {
		h.service.MarkWebhookProcessed(ctx, provider, stored, "", billing.OutcomeIgnored, nil)
		return received(c)
	}

	rec, err := billing.PaymentFromCheckoutSession(event, h.stripe)
	if err != nil {
		log.Errorf("[Billing] Stripe event %s could not be decoded: %v", event.ID, err)
		h.service.MarkWebhookProcessed(ctx, provider, stored, "", billing.OutcomeFailed, err)
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: " + err.Error())
	}
	if rec.UID == "" {
		log.Warnf("[Billing] checkout.session.completed %s received without uid metadata", rec.SessionID)
		h.service.MarkWebhookProcessed(ctx, provider, stored, "", billing.OutcomeMissingUID, billing.ErrMissingUID)
		return received(c)
	}

	if !h.service.StoreAvailable() {
		log.Errorf("[Billing] Payment for uid=%s session=%s not recorded: document store disabled", rec.UID, rec.SessionID)
		h.service.MarkWebhookProcessed(ctx, provider, stored, rec.UID, billing.OutcomeStoreUnavailable, docstore.ErrUnavailable)
		return jsonError(c, fiber.StatusServiceUnavailable, msgStoreUnavailable)
	}

	if err := h.service.ConfirmPayment(ctx, rec); err != nil {
		log.Errorf("[Billing] Payment for uid=%s provider=%s session=%s not recorded: %v", rec.UID, provider, rec.SessionID, err)
		h.service.MarkWebhookProcessed(ctx, provider, stored, rec.UID, billing.OutcomeFailed, err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to record payment.")
	}

	h.service.MarkWebhookProcessed(ctx, provider, stored, rec.UID, billing.OutcomeProcessed, nil)
	return received(c)
}

// HandleMercadoPagoWebhook re-fetches the notified payment and records it
// when approved. Every failure after the store check is logged and answered
// with 200 so Mercado Pago stops renotifying.
func (h *BillingController) HandleMercadoPagoWebhook(c *fiber.Ctx) error {
	const provider = models.BillingProviderMercadoPago

	if !h.service.StoreAvailable() {
		log.Error("[Billing] Mercado Pago notification received but the document store is disabled")
		return jsonError(c, fiber.StatusServiceUnavailable, msgStoreUnavailable)
	}

	rawBody := append([]byte(nil), c.Body()...)
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	paymentID := billing.NotificationPaymentID(rawBody, queryLookup(c))
	stored := h.recordWebhook(ctx, billing.WebhookEventInput{
		Provider:        provider,
		ProviderEventID: paymentID,
		EventType:       "payment",
		PayloadJSON:     string(rawBody),
	})

	if paymentID == "" {
		log.Warnf("[Billing] Mercado Pago notification without payment id: %s", truncate(string(rawBody), 256))
		h.service.MarkWebhookProcessed(ctx, provider, stored, "", billing.OutcomeMissingID, nil)
		return received(c)
	}

	payment, err := h.payments.GetPayment(ctx, paymentID)
	if err != nil {
		log.Errorf("[Billing] Mercado Pago payment %s lookup failed: %v", paymentID, err)
		h.service.MarkWebhookProcessed(ctx, provider, stored, "", billing.OutcomeLookupFailed, err)
		return received(c)
	}

	uid := payment.PayerUID()
	if uid == "" {
		log.Warnf("[Billing] Mercado Pago payment %s has no external_reference or metadata uid", paymentID)
		h.service.MarkWebhookProcessed(ctx, provider, stored, "", billing.OutcomeMissingUID, billing.ErrMissingUID)
		return received(c)
	}

	if !payment.Approved() {
		log.Infof("[Billing] Mercado Pago payment %s for uid=%s is %s (%s), nothing to record", paymentID, uid, payment.Status, payment.StatusDetail)
		h.service.MarkWebhookProcessed(ctx, provider, stored, uid, billing.OutcomeNotApproved, nil)
		return received(c)
	}

	if err := h.service.ConfirmPayment(ctx, payment.PaymentRecord()); err != nil {
		log.Errorf("[Billing] Payment for uid=%s provider=%s payment=%s not recorded: %v", uid, provider, paymentID, err)
		h.service.MarkWebhookProcessed(ctx, provider, stored, uid, billing.OutcomeFailed, err)
		return received(c)
	}

	h.service.MarkWebhookProcessed(ctx, provider, stored, uid, billing.OutcomeProcessed, nil)
	return received(c)
}

func (h *BillingController) recordWebhook(ctx context.Context, in billing.WebhookEventInput) *models.BillingWebhookEvent {
	stored, err := h.service.RecordWebhookEvent(ctx, in)
	if err != nil {
		log.Warnf("[Billing] Journaling %s webhook failed: %v", in.Provider, err)
		return nil
	}
	return stored
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
