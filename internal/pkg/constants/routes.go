package constants

// Route constants
const (
	HealthRoute    = "/health"
	StorePingRoute = "/debug/store-ping"
	CountersRoute  = "/debug/webhook-counters"

	CheckoutSessionRoute  = "/create-checkout-session"
	CreatePreferenceRoute = "/provider-a/create-preference"

	// Provider callbacks; these paths are registered in the provider dashboards.
	StripeWebhookRoute      = "/webhook"
	MercadoPagoWebhookRoute = "/provider-b/webhook"

	DocsBasePath = "/docs/api/"
	DocsPath     = "v1"
)
