package router

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/ManuelReschke/PixCheckout/app/controllers"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/env"
)

func (h ApiRouter) registerAdminRoutes(api fiber.Router) {
	requireAdmin := adminAuth()

	adminGroup := api.Group("/admin", requireAdmin)
	adminGroup.Get("/dashboard", controllers.HandleAdminDashboard)
	adminGroup.Post("/products", controllers.HandleAdminProduct)

	// Legacy back-office paths
	api.Get("/admin-data", requireAdmin, controllers.HandleAdminDashboard)
	api.Post("/admin-product", requireAdmin, controllers.HandleAdminProduct)
}

// adminAuth protects the back office with basic auth when ADMIN_USER and
// ADMIN_PASSWORD are configured. ADMIN_PASSWORD may be a bcrypt hash.
func adminAuth() fiber.Handler {
	user := env.GetEnv("ADMIN_USER", "")
	password := env.GetEnv("ADMIN_PASSWORD", "")
	if user == "" || password == "" {
		log.Warn("[Router] ADMIN_USER/ADMIN_PASSWORD not set, admin endpoints are unauthenticated")
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return basicauth.New(basicauth.Config{
		Realm:      "PixCheckout Admin",
		Authorizer: adminAuthorizer(user, password),
	})
}

func adminAuthorizer(user, password string) func(string, string) bool {
	hashed := isBcryptHash(password)
	return func(u, p string) bool {
		if subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 {
			return false
		}
		if hashed {
			return bcrypt.CompareHashAndPassword([]byte(password), []byte(p)) == nil
		}
		return subtle.ConstantTimeCompare([]byte(p), []byte(password)) == 1
	}
}

func isBcryptHash(s string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
