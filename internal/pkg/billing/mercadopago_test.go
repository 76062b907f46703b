package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/le10del10/paybridge/app/models"
	"github.com/le10del10/paybridge/internal/pkg/config"
)

func newTestMercadoPagoClient(baseURL string) *MercadoPagoClient {
	return NewMercadoPagoClient(config.MercadoPagoConfig{
		AccessToken:     "TEST-token",
		APIBaseURL:      baseURL,
		ItemTitle:       "Premium",
		UnitPrice:       7,
		CurrencyID:      "BRL",
		SuccessURL:      "https://app.example/success",
		FailureURL:      "https://app.example/failure",
		PendingURL:      "https://app.example/pending",
		NotificationURL: "https://relay.example/provider-b/webhook",
	})
}

func TestCreatePreference(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"id":"pref_1","init_point":"https://mp.example/init","sandbox_init_point":"https://sandbox.mp.example/init"}`))
	}))
	defer srv.Close()

	res, err := newTestMercadoPagoClient(srv.URL).CreatePreference(context.Background(), "u1", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "pref_1", res.PreferenceID)
	assert.Equal(t, "https://mp.example/init", res.Redirect)
	assert.Equal(t, "https://sandbox.mp.example/init", res.SandboxRedirect)

	assert.Equal(t, "u1", got["external_reference"])
	assert.Equal(t, "approved", got["auto_return"])
	assert.Equal(t, "https://relay.example/provider-b/webhook", got["notification_url"])
	assert.Equal(t, map[string]any{"uid": "u1"}, got["metadata"])
	assert.Equal(t, map[string]any{"email": "ana@example.com"}, got["payer"])
	items, ok := got["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
}

func TestCreatePreference_Validation(t *testing.T) {
	c := newTestMercadoPagoClient("http://127.0.0.1:0")
	_, err := c.CreatePreference(context.Background(), "", "ana@example.com")
	assert.ErrorIs(t, err, ErrMissingUID)

	c.AccessToken = ""
	_, err = c.CreatePreference(context.Background(), "u1", "")
	assert.True(t, errors.Is(err, ErrProviderNotConfigured))
}

func TestCreatePreference_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid access token"}`))
	}))
	defer srv.Close()

	_, err := newTestMercadoPagoClient(srv.URL).CreatePreference(context.Background(), "u1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/123", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":123,"status":"approved","status_detail":"accredited","external_reference":"u1","metadata":{"uid":"u-meta"},"transaction_amount":7.5,"currency_id":"BRL"}`))
	}))
	defer srv.Close()

	p, err := newTestMercadoPagoClient(srv.URL).GetPayment(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", p.ID)
	assert.True(t, p.Approved())
	assert.Equal(t, "u1", p.PayerUID())

	rec := p.PaymentRecord()
	assert.Equal(t, "u1", rec.UID)
	assert.Equal(t, models.BillingProviderMercadoPago, rec.Provider)
	require.NotNil(t, rec.AmountMinor)
	assert.Equal(t, int64(750), *rec.AmountMinor)
}

func TestMercadoPagoPayment_PayerUIDFallsBackToMetadata(t *testing.T) {
	p := &MercadoPagoPayment{MetadataUID: "u-meta", Status: "pending"}
	assert.Equal(t, "u-meta", p.PayerUID())
	assert.False(t, p.Approved())
}

func TestNotificationPaymentID(t *testing.T) {
	noQuery := func(string) string { return "" }
	tests := []struct {
		name  string
		body  string
		query url.Values
		want  string
	}{
		{name: "webhook data id string", body: `{"type":"payment","data":{"id":"123"}}`, want: "123"},
		{name: "webhook data id number", body: `{"action":"payment.created","data":{"id":456}}`, want: "456"},
		{name: "top level id", body: `{"id":789}`, want: "789"},
		{name: "query data.id", body: ``, query: url.Values{"data.id": {"321"}, "type": {"payment"}}, want: "321"},
		{name: "ipn query", body: ``, query: url.Values{"id": {"654"}, "topic": {"payment"}}, want: "654"},
		{name: "merchant order ignored", body: `{"topic":"merchant_order","id":"999"}`, want: ""},
		{name: "missing", body: `{}`, want: ""},
		{name: "garbage body", body: `not json`, want: ""},
	}

	for _, tt := range tests {
		query := noQuery
		if tt.query != nil {
			query = tt.query.Get
		}
		if got := NotificationPaymentID([]byte(tt.body), query); got != tt.want {
			t.Fatalf("%s: NotificationPaymentID() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
