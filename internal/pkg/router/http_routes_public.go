package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/ManuelReschke/PixCheckout/app/controllers"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/database"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/env"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/healthz", handleHealth)

	// Gateway webhooks (unauthenticated, reconciled idempotently)
	app.Post("/webhook", controllers.HandlePaymentWebhook)
	app.Post("/webhooks/pushinpay", controllers.HandlePaymentWebhook)

	// fiber metrics
	user := env.GetEnv("METRICS_USER", "")
	password := env.GetEnv("METRICS_PASSWORD", "")
	if user == "" || password == "" {
		log.Warn("[Router] METRICS_USER/METRICS_PASSWORD not set, /metrics is disabled")
		return
	}
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			user: password,
		},
	}), monitor.New(monitor.Config{Title: "PixCheckout Metrics"}))
}

func handleHealth(c *fiber.Ctx) error {
	if err := database.Ping(); err != nil {
		log.Errorf("[Health] Database ping failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
