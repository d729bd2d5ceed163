package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixCheckout/app/repository"
	"github.com/ManuelReschke/PixCheckout/internal/pkg/payment"
)

// Global controller instances
var (
	checkoutController *CheckoutController
	productController  *ProductController
	adminController    *AdminController
)

// InitializeControllers wires the global controllers. The repository factory
// must be initialized first. outcomes may be nil.
func InitializeControllers(payments *payment.Service, outcomes OutcomeReader) {
	repos := repository.GetGlobalRepositories()
	checkoutController = NewCheckoutController(payments)
	productController = NewProductController(repos)
	adminController = NewAdminController(repos)
	if outcomes != nil {
		adminController.WithOutcomes(outcomes)
	}
}

// GetCheckoutController returns the global checkout controller instance
func GetCheckoutController() *CheckoutController {
	if checkoutController == nil {
		panic("Checkout controller not initialized. Call InitializeControllers first.")
	}
	return checkoutController
}

// GetProductController returns the global product controller instance
func GetProductController() *ProductController {
	if productController == nil {
		productController = NewProductController(repository.GetGlobalRepositories())
	}
	return productController
}

// GetAdminController returns the global admin controller instance
func GetAdminController() *AdminController {
	if adminController == nil {
		adminController = NewAdminController(repository.GetGlobalRepositories())
	}
	return adminController
}

// Adapter functions used by the router

func HandleCreateOrder(c *fiber.Ctx) error {
	return GetCheckoutController().HandleCreateOrder(c)
}

func HandleOrderStatus(c *fiber.Ctx) error {
	return GetCheckoutController().HandleOrderStatus(c)
}

func HandlePaymentWebhook(c *fiber.Ctx) error {
	return GetCheckoutController().HandleWebhook(c)
}

func HandleListProducts(c *fiber.Ctx) error {
	return GetProductController().HandleListProducts(c)
}

func HandleAdminProduct(c *fiber.Ctx) error {
	return GetProductController().HandleAdminProduct(c)
}

func HandleAdminDashboard(c *fiber.Ctx) error {
	return GetAdminController().HandleDashboard(c)
}
