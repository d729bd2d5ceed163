package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixCheckout/app/controllers"
)

// ApiRouter serves the storefront JSON API and the admin endpoints.
type ApiRouter struct {
	limiterStorage fiber.Storage
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	rateLimit := newAPILimiter(h.limiterStorage)

	api := app.Group("/api", rateLimit)
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})
	api.Get("/products", controllers.HandleListProducts)
	api.Post("/orders", controllers.HandleCreateOrder)
	api.Get("/orders/status", controllers.HandleOrderStatus)

	// Paths used by the first storefront release
	app.Get("/get_products.php", rateLimit, controllers.HandleListProducts)
	app.Post("/save_customer.php", rateLimit, controllers.HandleCreateOrder)
	app.Get("/check_status.php", rateLimit, controllers.HandleOrderStatus)

	h.registerAdminRoutes(api)
}

// NewApiRouter creates the API router. A nil storage keeps rate limit
// counters in memory.
func NewApiRouter(limiterStorage fiber.Storage) *ApiRouter {
	return &ApiRouter{limiterStorage: limiterStorage}
}
