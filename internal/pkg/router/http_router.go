package router

import (
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/le10del10/paybridge/internal/pkg/constants"
	"github.com/le10del10/paybridge/internal/pkg/middleware"
)

// HttpRouter installs CORS, API docs and the operational routes.
type HttpRouter struct {
	deps Dependencies
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: h.deps.Config.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key, Stripe-Signature",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	// SWAGGER / OPENAPI
	if h.deps.OpenAPIFile != "" {
		if _, err := os.Stat(h.deps.OpenAPIFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: constants.DocsBasePath,
				FilePath: h.deps.OpenAPIFile,
				Path:     constants.DocsPath,
			}))
		} else {
			log.Warnf("[Router] OpenAPI file %s not found, /docs/api/v1 disabled", h.deps.OpenAPIFile)
		}
	}

	app.Get(constants.HealthRoute, h.deps.Health.HandleHealth)
	debugGuard := middleware.APIKeyGuard(h.deps.Config.DebugAPIKey)
	app.Get(constants.StorePingRoute, debugGuard, h.deps.Health.HandleStorePing)
	app.Get(constants.CountersRoute, debugGuard, h.deps.Health.HandleWebhookCounters)
}
