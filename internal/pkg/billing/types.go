package billing

import "errors"

var (
	// ErrMissingUID rejects a request before any provider is contacted.
	ErrMissingUID = errors.New("missing uid")
	// ErrProviderNotConfigured is returned when the provider credentials are absent.
	ErrProviderNotConfigured = errors.New("payment provider is not configured")
)

// Webhook processing outcomes, used for journal entries and counters.
const (
	OutcomeProcessed        = "processed"
	OutcomeIgnored          = "ignored"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeMissingUID       = "missing_uid"
	OutcomeMissingID        = "missing_id"
	OutcomeLookupFailed     = "lookup_failed"
	OutcomeNotApproved      = "not_approved"
	OutcomeStoreUnavailable = "store_unavailable"
	OutcomeFailed           = "failed"
)

// WebhookEventInput is the normalized input for webhook journal entries.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// PreferenceResult is what the client needs to open a Mercado Pago checkout.
type PreferenceResult struct {
	PreferenceID    string
	Redirect        string
	SandboxRedirect string
}
