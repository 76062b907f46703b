package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/le10del10/paybridge/internal/pkg/constants"
)

// ApiRouter installs the checkout and webhook routes.
type ApiRouter struct {
	deps Dependencies
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	checkoutLimiter := limiter.New(limiter.Config{
		Max:        h.deps.Config.RateLimitMax,
		Expiration: time.Minute,
		Storage:    h.deps.LimiterStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests."})
		},
	})

	app.Post(constants.CheckoutSessionRoute, checkoutLimiter, h.deps.Billing.HandleCreateCheckoutSession)
	app.Post(constants.CreatePreferenceRoute, checkoutLimiter, h.deps.Billing.HandleCreatePreference)

	// Providers retry on their own schedule; webhooks are not rate limited.
	app.Post(constants.StripeWebhookRoute, h.deps.Billing.HandleStripeWebhook)
	app.Post(constants.MercadoPagoWebhookRoute, h.deps.Billing.HandleMercadoPagoWebhook)
}
