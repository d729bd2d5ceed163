package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixCheckout/internal/pkg/payment"
)

// requestTimeout bounds the work a single checkout or webhook request may do.
// The gateway client carries its own, shorter timeout.
const requestTimeout = 20 * time.Second

// CheckoutController handles order creation, status polling and gateway
// webhooks.
type CheckoutController struct {
	payments *payment.Service
}

// NewCheckoutController creates a new checkout controller
func NewCheckoutController(payments *payment.Service) *CheckoutController {
	return &CheckoutController{
		payments: payments,
	}
}

// HandleCreateOrder records a pending order and answers with the PIX charge
// augmented with the local order id.
func (cc *CheckoutController) HandleCreateOrder(c *fiber.Ctx) error {
	var in payment.CreateOrderInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	res, err := cc.payments.CreateOrder(ctx, in)
	if err != nil {
		var gwErr *payment.GatewayError
		switch {
		case payment.IsValidation(err):
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		case errors.As(err, &gwErr):
			return jsonError(c, fiber.StatusInternalServerError, gwErr.Message)
		default:
			log.Errorf("[Checkout] Failed to create order: %v", err)
			return jsonError(c, fiber.StatusInternalServerError, "failed to create order")
		}
	}

	return c.Status(fiber.StatusOK).JSON(res.Body())
}

// HandleOrderStatus answers status polls. It always answers 200 so that
// storefront polling loops keep going; unknown orders report "erro".
func (cc *CheckoutController) HandleOrderStatus(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(fiber.Map{"status": payment.StatusUnknown})
	}

	status, err := cc.payments.OrderStatus(c.UserContext(), id)
	if err != nil {
		log.Errorf("[Checkout] Status lookup for order %d failed: %v", id, err)
	}
	return c.JSON(fiber.Map{"status": status})
}

// HandleWebhook reconciles a gateway notification. Only persistence failures
// are answered with a non-success status so that the gateway retries.
func (cc *CheckoutController) HandleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	contentType := string(c.Request().Header.ContentType())

	notification, err := payment.ParseNotification(contentType, rawBody)
	if err != nil {
		log.Warnf("[Webhook] Rejected payload from %s: %v", GetClientIP(c), err)
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	res, err := cc.payments.HandleWebhook(ctx, rawBody, notification)
	if err != nil {
		log.Errorf("[Webhook] Processing transaction %q from %s failed: %v", notification.TransactionID, GetClientIP(c), err)
		return jsonError(c, fiber.StatusInternalServerError, "webhook_processing_failed")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "outcome": res.Outcome})
}
