package billing

import "strings"

const (
	CheckoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"
	returnToAppMarker          = "return_to_app"
)

// SuccessURLWithSession makes sure the success URL carries the session id
// placeholder and the return_to_app marker exactly once. Applying it to its
// own output is a no-op.
func SuccessURLWithSession(successURL string) string {
	u := successURL
	if !strings.Contains(u, CheckoutSessionPlaceholder) {
		u = appendQuery(u, "session_id="+CheckoutSessionPlaceholder)
	}
	return appendReturnToApp(u)
}

func appendReturnToApp(targetURL string) string {
	if strings.Contains(targetURL, returnToAppMarker) {
		return targetURL
	}
	return appendQuery(targetURL, returnToAppMarker+"=true")
}

// The placeholder must stay unescaped for Stripe to substitute it.
func appendQuery(targetURL, pair string) string {
	glue := "?"
	if strings.Contains(targetURL, "?") {
		glue = "&"
	}
	return targetURL + glue + pair
}
