package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/le10del10/paybridge/internal/pkg/env"
)

const (
	DefaultStripePriceID   = "price_1SUPoC0gHm7588JBwmURM2tn"
	DefaultStripeProductID = "prod_TRlOBJq9wPumoW"
	DefaultSuccessURL      = "https://example.com/checkout-success?session_id={CHECKOUT_SESSION_ID}&return_to_app=true"
	DefaultCancelURL       = "https://example.com/checkout-cancel"
	DefaultMPAPIBaseURL    = "https://api.mercadopago.com"
)

// ErrMissingStripeSecret aborts startup: nothing useful can run without it.
var ErrMissingStripeSecret = errors.New("missing STRIPE_SECRET_KEY in environment configuration")

type Config struct {
	// HTTP
	Host             string
	Port             string
	CORSAllowOrigins string
	RateLimitMax     int
	DebugAPIKey      string

	Stripe      StripeConfig
	MercadoPago MercadoPagoConfig
	Firestore   FirestoreConfig
	Cache       CacheConfig
	Journal     JournalConfig
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	ProductID     string
	SuccessURL    string
	CancelURL     string
}

type MercadoPagoConfig struct {
	AccessToken     string
	APIBaseURL      string
	ItemTitle       string
	UnitPrice       float64
	CurrencyID      string
	SuccessURL      string
	FailureURL      string
	PendingURL      string
	NotificationURL string
}

// Enabled reports whether preference creation and payment lookups can run.
func (c MercadoPagoConfig) Enabled() bool {
	return strings.TrimSpace(c.AccessToken) != ""
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsJSON string
	CredentialsFile string
	EmulatorHost    string
}

// Enabled is false when no credential bundle (and no emulator) is configured.
// The relay then runs with the document store switched off.
func (c FirestoreConfig) Enabled() bool {
	return c.CredentialsJSON != "" || c.CredentialsFile != "" || c.EmulatorHost != ""
}

type CacheConfig struct {
	Host     string
	Port     int
	Password string
}

func (c CacheConfig) Enabled() bool {
	return c.Host != ""
}

func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type JournalConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func (c JournalConfig) Enabled() bool {
	return c.Host != "" && c.Name != ""
}

// DSN returns the MySQL DSN used by gorm.
func (c JournalConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// Load builds the configuration from the environment. env.SetupEnvFile should
// run first so values from .env are visible.
func Load() (*Config, error) {
	cfg := &Config{
		Host:             env.GetEnv("APP_HOST", "0.0.0.0"),
		Port:             env.GetEnv("PORT", env.GetEnv("APP_PORT", "3000")),
		CORSAllowOrigins: env.GetEnv("CORS_ALLOW_ORIGINS", "*"),
		DebugAPIKey:      strings.TrimSpace(env.GetEnv("DEBUG_API_KEY", "")),

		Stripe: StripeConfig{
			SecretKey:     strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
			WebhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
			PriceID:       env.GetEnv("STRIPE_PRICE_ID", DefaultStripePriceID),
			ProductID:     env.GetEnv("STRIPE_PRODUCT_ID", DefaultStripeProductID),
			SuccessURL:    env.GetEnv("SUCCESS_URL", DefaultSuccessURL),
			CancelURL:     env.GetEnv("CANCEL_URL", DefaultCancelURL),
		},

		MercadoPago: MercadoPagoConfig{
			AccessToken:     strings.TrimSpace(env.GetEnv("MP_ACCESS_TOKEN", "")),
			APIBaseURL:      strings.TrimRight(env.GetEnv("MP_API_BASE_URL", DefaultMPAPIBaseURL), "/"),
			ItemTitle:       env.GetEnv("MP_ITEM_TITLE", "Premium"),
			CurrencyID:      env.GetEnv("MP_CURRENCY_ID", "BRL"),
			SuccessURL:      env.GetEnv("MP_SUCCESS_URL", env.GetEnv("SUCCESS_URL", DefaultSuccessURL)),
			FailureURL:      env.GetEnv("MP_FAILURE_URL", env.GetEnv("CANCEL_URL", DefaultCancelURL)),
			PendingURL:      env.GetEnv("MP_PENDING_URL", env.GetEnv("CANCEL_URL", DefaultCancelURL)),
			NotificationURL: strings.TrimSpace(env.GetEnv("MP_NOTIFICATION_URL", "")),
		},

		Firestore: FirestoreConfig{
			ProjectID:       strings.TrimSpace(env.GetEnv("FIREBASE_PROJECT_ID", env.GetEnv("GOOGLE_CLOUD_PROJECT", ""))),
			CredentialsJSON: strings.TrimSpace(env.GetEnv("FIREBASE_CREDENTIALS_JSON", "")),
			CredentialsFile: strings.TrimSpace(env.GetEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
			EmulatorHost:    strings.TrimSpace(env.GetEnv("FIRESTORE_EMULATOR_HOST", "")),
		},

		Cache: CacheConfig{
			Host:     strings.TrimSpace(env.GetEnv("CACHE_HOST", "")),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
		},

		Journal: JournalConfig{
			Host:     strings.TrimSpace(env.GetEnv("DB_HOST", "")),
			Port:     env.GetEnv("DB_PORT", "3306"),
			User:     env.GetEnv("DB_USER", ""),
			Password: env.GetEnv("DB_PASSWORD", ""),
			Name:     env.GetEnv("DB_NAME", ""),
		},
	}

	if cfg.Stripe.SecretKey == "" {
		return nil, ErrMissingStripeSecret
	}

	var err error
	if cfg.RateLimitMax, err = intFromEnv("RATE_LIMIT_MAX", 30); err != nil {
		return nil, err
	}
	if cfg.Cache.Port, err = intFromEnv("CACHE_PORT", 6379); err != nil {
		return nil, err
	}
	if cfg.MercadoPago.UnitPrice, err = floatFromEnv("MP_UNIT_PRICE", 7); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intFromEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func floatFromEnv(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
