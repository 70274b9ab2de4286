package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/qwinza/tani-web/internal/checkout"
	"github.com/qwinza/tani-web/internal/ledger"
	"github.com/qwinza/tani-web/metrics"
	"github.com/qwinza/tani-web/models"
	"github.com/qwinza/tani-web/utils"
)

type OrderHandler struct {
	DB     *gorm.DB
	Engine *checkout.Engine
}

func NewOrderHandler(db *gorm.DB, engine *checkout.Engine) *OrderHandler {
	return &OrderHandler{DB: db, Engine: engine}
}

// CheckoutRequest is the cart submission payload.
type CheckoutRequest struct {
	Items           []checkout.Item `json:"items"`
	ShippingAddress string          `json:"shipping_address"`
	PhoneNumber     string          `json:"phone_number"`
}

// Checkout - POST /api/orders
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user session"})
	}

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	orders, err := h.Engine.Checkout(c.Context(), userID, req.Items, req.ShippingAddress, req.PhoneNumber)
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
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Checkout successful",
		"orders":  orders,
	})
}

// MyOrders - GET /api/orders
// Order history for the current buyer.
func (h *OrderHandler) MyOrders(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user session"})
	}

	var orders []models.Order
	err := h.DB.Preload("Product").Preload("Product.Farmer", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, name")
	}).Where("user_id = ?", userID).Order("created_at desc").Find(&orders).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch orders"})
	}

	return c.JSON(fiber.Map{"data": orders})
}

// FarmerOrders - GET /api/farmer/orders
// Incoming orders for all of the farmer's products.
func (h *OrderHandler) FarmerOrders(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user session"})
	}

	var orders []models.Order
	err := h.DB.Preload("Buyer", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, name")
	}).Preload("Product").
		Joins("JOIN products ON products.id = orders.product_id").
		Where("products.user_id = ?", userID).
		Order("orders.created_at desc").
		Find(&orders).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch orders"})
	}

	return c.JSON(fiber.Map{"data": orders})
}

// GetOrder - GET /api/orders/:id
// Visible to the order's buyer and the farmer owning the product.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user session"})
	}

	order, ferr := h.loadOrder(c)
	if ferr != nil {
		return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	}

	if order.UserID != userID && order.Product.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	}

	return c.JSON(fiber.Map{"data": order})
}

// UpdateStatusRequest
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// UpdateStatus - PATCH /api/orders/:id/status
// Farmer-driven direct transitions. Shipping and completion carry side data
// and go through their dedicated endpoints.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	switch req.Status {
	case models.OrderStatusProcessing, models.OrderStatusCancelled:
	case models.OrderStatusShipped, models.OrderStatusCompleted:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "This status requires its dedicated endpoint",
		})
	default:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Unknown status"})
	}

	return h.transition(c, func(order *models.Order, actor ledger.Actor) error {
		return ledger.Transition(order, actor, req.Status)
	})
}

// Approve - POST /api/orders/:id/approve
func (h *OrderHandler) Approve(c *fiber.Ctx) error {
	return h.transition(c, ledger.Approve)
}

// Ship - POST /api/orders/:id/ship
// Multipart request carrying the proof-of-shipment image.
func (h *OrderHandler) Ship(c *fiber.Ctx) error {
	file, err := c.FormFile("shipping_proof")
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Shipping proof image is required"})
	}

	order, actor, ferr := h.loadForTransition(c)
	if ferr != nil {
		return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	}

	// Run the guards before the image is written, so a rejected request
	// leaves nothing behind under ./uploads.
	if err := shipGuard(*order, actor, file.Filename); err != nil {
		return h.ledgerError(c, err)
	}

	proofPath, err := saveImage(c, file, "shipping_proofs")
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	if err := ledger.Ship(order, actor, proofPath); err != nil {
		return h.ledgerError(c, err)
	}
	return h.persistTransition(c, order)
}

// shipGuard checks the ship move against a copy of the order, leaving the
// original untouched.
func shipGuard(order models.Order, actor ledger.Actor, filename string) error {
	return ledger.Ship(&order, actor, filename)
}

// CompleteRequest
type CompleteRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// Complete - POST /api/orders/:id/complete
func (h *OrderHandler) Complete(c *fiber.Ctx) error {
	var req CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	return h.transition(c, func(order *models.Order, actor ledger.Actor) error {
		return ledger.Complete(order, actor, req.Rating, req.Review)
	})
}

// loadOrder fetches the order in the :id param with its product preloaded so
// ownership checks can run.
func (h *OrderHandler) loadOrder(c *fiber.Ctx) (*models.Order, *fiber.Error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
	}

	var order models.Order
	if err := h.DB.Preload("Product").Preload("Buyer").First(&order, id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Order not found")
	}
	return &order, nil
}

// transition runs one guarded ledger move and persists the result.
func (h *OrderHandler) transition(c *fiber.Ctx, fn func(order *models.Order, actor ledger.Actor) error) error {
	order, actor, ferr := h.loadForTransition(c)
	if ferr != nil {
		return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	}

	if err := fn(order, actor); err != nil {
		return h.ledgerError(c, err)
	}
	return h.persistTransition(c, order)
}

// loadForTransition resolves the acting user and the order in the :id param.
func (h *OrderHandler) loadForTransition(c *fiber.Ctx) (*models.Order, ledger.Actor, *fiber.Error) {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return nil, ledger.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid user session")
	}
	role, _ := c.Locals("role").(string)

	order, ferr := h.loadOrder(c)
	if ferr != nil {
		return nil, ledger.Actor{}, ferr
	}
	return order, ledger.Actor{UserID: userID, Role: role}, nil
}

func (h *OrderHandler) ledgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	case errors.Is(err, ledger.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrRatingRequired), errors.Is(err, ledger.ErrProofRequired):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update order"})
	}
}

// persistTransition writes the transition outcome in one update.
func (h *OrderHandler) persistTransition(c *fiber.Ctx, order *models.Order) error {
	updates := map[string]interface{}{
		"status":         order.Status,
		"shipping_proof": order.ShippingProof,
		"rating":         order.Rating,
		"review":         order.Review,
	}
	if err := h.DB.Model(order).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update order"})
	}

	metrics.RecordTransition(string(order.Status))
	return c.JSON(fiber.Map{
		"message": "Order updated",
		"order":   order,
	})
}
