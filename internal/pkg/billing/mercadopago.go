package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/le10del10/paybridge/app/models"
	"github.com/le10del10/paybridge/internal/pkg/config"
)

const MercadoPagoStatusApproved = "approved"

// PreferenceCreator starts a Mercado Pago checkout.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, uid, email string) (*PreferenceResult, error)
}

// PaymentLookup fetches the authoritative state of a Mercado Pago payment.
type PaymentLookup interface {
	GetPayment(ctx context.Context, paymentID string) (*MercadoPagoPayment, error)
}

type MercadoPagoClient struct {
	AccessToken string
	APIBaseURL  string

	ItemTitle  string
	UnitPrice  float64
	CurrencyID string

	SuccessURL      string
	FailureURL      string
	PendingURL      string
	NotificationURL string

	HTTPClient *http.Client
}

// MercadoPagoPayment is the subset of /v1/payments/{id} the relay reads.
type MercadoPagoPayment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	MetadataUID       string
	TransactionAmount float64
	CurrencyID        string
}

// PayerUID resolves the payer from the payment's reference field, falling
// back to the metadata copy.
func (p *MercadoPagoPayment) PayerUID() string {
	return firstNonEmpty(p.ExternalReference, p.MetadataUID)
}

func (p *MercadoPagoPayment) Approved() bool {
	return strings.EqualFold(strings.TrimSpace(p.Status), MercadoPagoStatusApproved)
}

// PaymentRecord maps an approved payment to the document the relay writes.
func (p *MercadoPagoPayment) PaymentRecord() models.PaymentRecord {
	rec := models.PaymentRecord{
		UID:        p.PayerUID(),
		Provider:   models.BillingProviderMercadoPago,
		ExternalID: p.ID,
		Currency:   p.CurrencyID,
	}
	if p.TransactionAmount > 0 {
		minor := int64(math.Round(p.TransactionAmount * 100))
		rec.AmountMinor = &minor
	}
	return rec
}

func NewMercadoPagoClient(cfg config.MercadoPagoConfig) *MercadoPagoClient {
	return &MercadoPagoClient{
		AccessToken:     cfg.AccessToken,
		APIBaseURL:      strings.TrimRight(cfg.APIBaseURL, "/"),
		ItemTitle:       cfg.ItemTitle,
		UnitPrice:       cfg.UnitPrice,
		CurrencyID:      cfg.CurrencyID,
		SuccessURL:      cfg.SuccessURL,
		FailureURL:      cfg.FailureURL,
		PendingURL:      cfg.PendingURL,
		NotificationURL: cfg.NotificationURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *MercadoPagoClient) CreatePreference(ctx context.Context, uid, email string) (*PreferenceResult, error) {
	if strings.TrimSpace(c.AccessToken) == "" {
		return nil, fmt.Errorf("MP_ACCESS_TOKEN is not configured: %w", ErrProviderNotConfigured)
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrMissingUID
	}

	type item struct {
		Title      string  `json:"title"`
		Quantity   int     `json:"quantity"`
		UnitPrice  float64 `json:"unit_price"`
		CurrencyID string  `json:"currency_id"`
	}
	type payer struct {
		Email string `json:"email,omitempty"`
	}
	type backURLs struct {
		Success string `json:"success,omitempty"`
		Failure string `json:"failure,omitempty"`
		Pending string `json:"pending,omitempty"`
	}
	body := struct {
		Items             []item            `json:"items"`
		Payer             *payer            `json:"payer,omitempty"`
		ExternalReference string            `json:"external_reference"`
		Metadata          map[string]string `json:"metadata"`
		BackURLs          backURLs          `json:"back_urls"`
		AutoReturn        string            `json:"auto_return,omitempty"`
		NotificationURL   string            `json:"notification_url,omitempty"`
	}{
		Items: []item{{
			Title:      c.ItemTitle,
			Quantity:   1,
			UnitPrice:  c.UnitPrice,
			CurrencyID: c.CurrencyID,
		}},
		ExternalReference: uid,
		Metadata:          map[string]string{"uid": uid},
		BackURLs: backURLs{
			Success: c.SuccessURL,
			Failure: c.FailureURL,
			Pending: c.PendingURL,
		},
		NotificationURL: c.NotificationURL,
	}
	if e := strings.TrimSpace(email); e != "" {
		body.Payer = &payer{Email: e}
	}
	// Mercado Pago rejects auto_return without a success URL.
	if body.BackURLs.Success != "" {
		body.AutoReturn = MercadoPagoStatusApproved
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	respBody, err := c.do(ctx, http.MethodPost, c.APIBaseURL+"/checkout/preferences", payload)
	if err != nil {
		return nil, fmt.Errorf("mercadopago create preference: %w", err)
	}

	var out struct {
		ID               string `json:"id"`
		InitPoint        string `json:"init_point"`
		SandboxInitPoint string `json:"sandbox_init_point"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("mercadopago preference response missing id")
	}
	return &PreferenceResult{
		PreferenceID:    out.ID,
		Redirect:        out.InitPoint,
		SandboxRedirect: out.SandboxInitPoint,
	}, nil
}

func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*MercadoPagoPayment, error) {
	if strings.TrimSpace(c.AccessToken) == "" {
		return nil, fmt.Errorf("MP_ACCESS_TOKEN is not configured: %w", ErrProviderNotConfigured)
	}
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, errors.New("payment id is required")
	}

	respBody, err := c.do(ctx, http.MethodGet, c.APIBaseURL+"/v1/payments/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("mercadopago get payment %s: %w", id, err)
	}

	var raw struct {
		ID                json.RawMessage `json:"id"`
		Status            string          `json:"status"`
		StatusDetail      string          `json:"status_detail"`
		ExternalReference string          `json:"external_reference"`
		Metadata          map[string]any  `json:"metadata"`
		TransactionAmount float64         `json:"transaction_amount"`
		CurrencyID        string          `json:"currency_id"`
	}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, err
	}

	out := &MercadoPagoPayment{
		ID:                firstNonEmpty(rawID(raw.ID), id),
		Status:            strings.TrimSpace(raw.Status),
		StatusDetail:      strings.TrimSpace(raw.StatusDetail),
		ExternalReference: strings.TrimSpace(raw.ExternalReference),
		TransactionAmount: raw.TransactionAmount,
		CurrencyID:        strings.TrimSpace(raw.CurrencyID),
	}
	if v, ok := raw.Metadata["uid"].(string); ok {
		out.MetadataUID = strings.TrimSpace(v)
	}
	return out, nil
}

func (c *MercadoPagoClient) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}
	return body, nil
}

// NotificationPaymentID extracts the payment id from a Mercado Pago
// notification. Both the webhook shape {"type":"payment","data":{"id":..}}
// and the IPN shape {"id":..,"topic":"payment"} are accepted, in the body or
// the query string. Notifications for other topics yield "".
func NotificationPaymentID(body []byte, query func(key string) string) string {
	var raw struct {
		Type  string `json:"type"`
		Topic string `json:"topic"`
		Data  struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
		ID json.RawMessage `json:"id"`
	}
	if len(bytes.TrimSpace(body)) > 0 {
		// Unparseable bodies fall through to the query string.
		_ = json.Unmarshal(body, &raw)
	}

	topic := firstNonEmpty(raw.Type, raw.Topic, query("type"), query("topic"))
	if topic != "" && !strings.EqualFold(topic, "payment") {
		return ""
	}

	return firstNonEmpty(
		rawID(raw.Data.ID),
		rawID(raw.ID),
		query("data.id"),
		query("id"),
	)
}

// rawID accepts ids sent either as JSON strings or numbers.
func rawID(v json.RawMessage) string {
	s := strings.TrimSpace(string(v))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(v, &str); err == nil {
		return strings.TrimSpace(str)
	}
	var num json.Number
	if err := json.Unmarshal(v, &num); err == nil {
		return num.String()
	}
	return ""
}
