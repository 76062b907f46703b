package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/le10del10/paybridge/app/controllers"
	"github.com/le10del10/paybridge/internal/pkg/billing"
	"github.com/le10del10/paybridge/internal/pkg/cache"
	"github.com/le10del10/paybridge/internal/pkg/config"
	"github.com/le10del10/paybridge/internal/pkg/database"
	"github.com/le10del10/paybridge/internal/pkg/docstore"
	"github.com/le10del10/paybridge/internal/pkg/env"
	"github.com/le10del10/paybridge/internal/pkg/metrics/counter"
	"github.com/le10del10/paybridge/internal/pkg/router"
	"github.com/le10del10/paybridge/internal/pkg/s3backup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	env.SetupEnvFile()
	if env.IsDev() {
		log.SetLevel(log.LevelDebug)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}

	app, cleanup := NewApplication(cfg)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if err := serve(app, fmt.Sprintf("%s:%s", cfg.Host, cfg.Port), quit); err != nil {
		cleanup()
		log.Fatalf("[Server] %v", err)
	}
	cleanup()
}

// serve listens on addr until a signal arrives on quit, then shuts down.
// A listen failure is returned so the process exits instead of idling.
func serve(app *fiber.App, addr string, quit <-chan os.Signal) error {
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		if err == nil {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case sig := <-quit:
		log.Infof("[Server] Received %s, shutting down", sig)
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// NewApplication wires the optional backends around the required Stripe
// client. A backend that is not configured, or fails to start, is left out
// and the relay keeps serving without it.
func NewApplication(cfg *config.Config) (*fiber.App, func()) {
	ctx := context.Background()
	var closers []func()

	// A nil interface, not a typed nil, marks the store as disabled.
	var store docstore.Store
	fs, err := docstore.NewFirestoreStore(ctx, cfg.Firestore)
	switch {
	case errors.Is(err, docstore.ErrUnavailable):
		log.Warn("[Docstore] No Firestore credentials configured, document store disabled")
	case err != nil:
		log.Errorf("[Docstore] %v, document store disabled", err)
	default:
		store = fs
		closers = append(closers, func() { _ = fs.Close() })
	}

	var opts []billing.Option

	// Limiter storage is only attached once Redis answered a ping.
	var limiterStorage fiber.Storage
	var snapshots controllers.CounterSnapshotter
	if redisClient := cache.NewClient(cfg.Cache); redisClient != nil {
		counters := counter.NewWebhookCounters(redisClient)
		opts = append(opts, billing.WithCounters(counters))
		snapshots = counters
		limiterStorage = router.NewLimiterStorage(cfg.Cache)
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	db, err := database.SetupJournal(cfg.Journal)
	if err != nil {
		log.Errorf("[Journal] %v, webhook journal disabled", err)
	} else if db != nil {
		opts = append(opts, billing.WithJournal(billing.NewRepository(db)))
	}

	archiveCfg, err := s3backup.LoadConfig()
	if err != nil {
		log.Errorf("[S3Archive] %v, webhook archive disabled", err)
	} else if archiveCfg.IsEnabled() {
		archive, err := s3backup.NewClient(ctx, archiveCfg)
		if err != nil {
			log.Errorf("[S3Archive] %v, webhook archive disabled", err)
		} else {
			opts = append(opts, billing.WithArchive(archive))
		}
	}

	service := billing.NewService(store, opts...)
	mercadoPago := billing.NewMercadoPagoClient(cfg.MercadoPago)
	if !cfg.MercadoPago.Enabled() {
		log.Warn("[Billing] MP_ACCESS_TOKEN not set, Mercado Pago routes will fail")
	}
	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("[Billing] STRIPE_WEBHOOK_SECRET not set, Stripe webhooks will be rejected")
	}

	app := fiber.New(fiber.Config{
		AppName:   "paybridge",
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	router.InstallRouter(app, router.Dependencies{
		Config: cfg,
		Billing: controllers.NewBillingController(
			service,
			billing.NewCheckout(billing.NewStripeClient(cfg.Stripe.SecretKey), cfg.Stripe),
			mercadoPago,
			mercadoPago,
			cfg.Stripe,
		),
		Health:         controllers.NewHealthController(store, snapshots),
		LimiterStorage: limiterStorage,
		OpenAPIFile:    env.GetEnv("OPENAPI_FILE", "docs/openapi.yml"),
	})

	return app, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}
