package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/payfox/PayFox/app/controllers"
	"github.com/payfox/PayFox/internal/pkg/env"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Initialize webhook controller with the shared DB handle
	controllers.InitializeWebhookController()

	// Provider webhooks (no CSRF, signature-verified in the pipeline)
	app.Post("/webhooks/flowpay", controllers.HandleFlowPayWebhook)

	app.Get("/health", controllers.HandleHealth)

	// Operational counters, guarded like the fiber monitor endpoint
	app.Get("/api/v1/metrics/webhooks", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), controllers.HandleWebhookMetrics)
}
