package billing

import (
	"strings"
	"testing"
)

func TestSuccessURLWithSession(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			in:   "https://example.com/checkout-success?session_id={CHECKOUT_SESSION_ID}&return_to_app=true",
			want: "https://example.com/checkout-success?session_id={CHECKOUT_SESSION_ID}&return_to_app=true",
		},
		{
			in:   "https://example.com/done",
			want: "https://example.com/done?session_id={CHECKOUT_SESSION_ID}&return_to_app=true",
		},
		{
			in:   "https://example.com/done?lang=pt",
			want: "https://example.com/done?lang=pt&session_id={CHECKOUT_SESSION_ID}&return_to_app=true",
		},
		{
			in:   "https://example.com/done?session_id={CHECKOUT_SESSION_ID}",
			want: "https://example.com/done?session_id={CHECKOUT_SESSION_ID}&return_to_app=true",
		},
		{
			in:   "https://example.com/done?return_to_app=1",
			want: "https://example.com/done?return_to_app=1&session_id={CHECKOUT_SESSION_ID}",
		},
	}

	for _, tt := range tests {
		if got := SuccessURLWithSession(tt.in); got != tt.want {
			t.Fatalf("SuccessURLWithSession(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSuccessURLWithSession_Idempotent(t *testing.T) {
	for _, in := range []string{
		"https://example.com/done",
		"https://example.com/done?lang=pt",
		"https://example.com/done?session_id={CHECKOUT_SESSION_ID}",
	} {
		once := SuccessURLWithSession(in)
		twice := SuccessURLWithSession(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q != %q", in, once, twice)
		}
		if n := strings.Count(twice, CheckoutSessionPlaceholder); n != 1 {
			t.Fatalf("expected exactly one placeholder in %q, got %d", twice, n)
		}
		if n := strings.Count(twice, "return_to_app"); n != 1 {
			t.Fatalf("expected exactly one return_to_app marker in %q, got %d", twice, n)
		}
	}
}
