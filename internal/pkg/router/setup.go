package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router registers a set of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App) {
	// HttpRouter goes first: it installs the app-wide CORS middleware that the
	// storefront routes registered by ApiRouter rely on.
	setup(app, NewHttpRouter(), NewApiRouter(newLimiterStorage()))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
