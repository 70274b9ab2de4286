package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/qwinza/tani-web/internal/checkout"
	"github.com/qwinza/tani-web/internal/payment"
	"github.com/qwinza/tani-web/metrics"
	"github.com/qwinza/tani-web/models"
	"github.com/qwinza/tani-web/utils"
)

type PaymentHandler struct {
	DB      *gorm.DB
	Engine  *checkout.Engine
	Service *payment.Service
}

func NewPaymentHandler(db *gorm.DB, engine *checkout.Engine, service *payment.Service) *PaymentHandler {
	return &PaymentHandler{DB: db, Engine: engine, Service: service}
}

// PaymentCheckoutRequest is the single-product pay-now flow.
type PaymentCheckoutRequest struct {
	ProductID       uint   `json:"product_id"`
	Quantity        int    `json:"quantity"`
	ShippingAddress string `json:"shipping_address"`
	PhoneNumber     string `json:"phone_number"`
}

// Checkout - POST /api/payment/checkout
// Reserves stock through the checkout engine, then opens a hosted payment
// session. If the gateway call fails the order stays pending without a
// token and the session can be retried.
func (h *PaymentHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user session"})
	}

	var req PaymentCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	orders, err := h.Engine.Checkout(c.Context(), userID,
		[]checkout.Item{{ProductID: req.ProductID, Quantity: req.Quantity}},
		req.ShippingAddress, req.PhoneNumber)
	if err != nil {
		var valErr *checkout.ValidationError
		var stockErr *checkout.InsufficientStockError
		switch {
		case errors.As(err, &valErr):
			metrics.RecordCheckout("validation")
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": valErr.Message})
		case errors.As(err, &stockErr):
			metrics.RecordCheckout("insufficient_stock")
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": stockErr.Error()})
		case errors.Is(err, checkout.ErrProductNotFound):
			metrics.RecordCheckout("error")
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product not found"})
		default:
			metrics.RecordCheckout("error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Checkout failed"})
		}
	}
	metrics.RecordCheckout("ok")
	order := orders[0]

	var buyer models.User
	if err := h.DB.First(&buyer, userID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to create payment"})
	}
	var product models.Product
	if err := h.DB.First(&product, order.ProductID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to create payment"})
	}

	snapToken, err := h.Service.CreateSession(c.Context(), order, &buyer, &product)
	if err != nil {
		// The order is committed and retryable; surface the gateway
		// failure to the caller.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":  false,
			"message":  "Failed to create payment: " + err.Error(),
			"order_id": order.ID,
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"snap_token": snapToken,
		"order_id":   order.ID,
	})
}

// Callback - POST /api/payment/callback
// Public webhook for the provider's server-to-server notifications. The
// signature check is the only authentication; a mismatch is rejected with a
// deliberately uninformative message.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	var n payment.Notification
	if err := c.BodyParser(&n); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid payload"})
	}

	order, err := h.Service.HandleNotification(c.Context(), n)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrSignatureMismatch):
			metrics.RecordPaymentCallback("bad_signature")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Invalid signature"})
		case errors.Is(err, payment.ErrOrderNotFound):
			metrics.RecordPaymentCallback("not_found")
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Order not found"})
		default:
			metrics.RecordPaymentCallback("error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Callback failed"})
		}
	}

	metrics.RecordPaymentCallback("ok")
	metrics.RecordTransition(string(order.Status))
	return c.JSON(fiber.Map{"message": "Callback processed successfully"})
}
