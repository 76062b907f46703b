package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/le10del10/paybridge/app/controllers"
	"github.com/le10del10/paybridge/internal/pkg/config"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the controllers and settings the route table is built from.
type Dependencies struct {
	Config  *config.Config
	Billing *controllers.BillingController
	Health  *controllers.HealthController
	// LimiterStorage backs the checkout rate limiter. Nil keeps counters in memory.
	LimiterStorage fiber.Storage
	// OpenAPIFile is served under /docs/api/v1 when it exists.
	OpenAPIFile string
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// Ops routes first so CORS and docs apply before the payment routes.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
