// Package checkout converts a buyer's cart into committed orders while
// guaranteeing stock is never oversold. All stock mutation in the system goes
// through this engine.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qwinza/tani-web/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// ValidationError is a malformed-input rejection raised before any
// transaction is opened.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// InsufficientStockError aborts the whole checkout batch. It names the first
// under-stocked product so the buyer can correct the cart.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s", e.ProductName)
}

// Item is one cart line.
type Item struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Store is the persistence boundary for checkout. Transact runs fn inside a
// single atomic unit of work; every mutation made through the Store handed to
// fn is committed together or not at all. LockProduct must grant the caller
// exclusive access to the row until the transaction ends.
type Store interface {
	Transact(ctx context.Context, fn func(tx Store) error) error
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	LockProduct(ctx context.Context, id uint) (*models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	SetStock(ctx context.Context, productID uint, stock int) error
}

// Engine is the reservation engine.
type Engine struct {
	store       Store
	lockTimeout time.Duration
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, lockTimeout: 5 * time.Second}
}

// validate rejects malformed carts before any transaction is opened. Minimum
// order quantities are checked here against an unlocked read; the
// authoritative stock check happens under the row lock.
func (e *Engine) validate(ctx context.Context, items []Item, shippingAddress, phone string) error {
	if len(items) == 0 {
		return &ValidationError{Message: "at least one item is required"}
	}
	if shippingAddress == "" {
		return &ValidationError{Message: "shipping address is required"}
	}
	if phone == "" {
		return &ValidationError{Message: "phone number is required"}
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return &ValidationError{Message: "quantity must be at least 1"}
		}
		product, err := e.store.GetProduct(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if item.Quantity < product.MinOrder {
			return &ValidationError{
				Message: fmt.Sprintf("minimum order for %s is %d %s", product.Name, product.MinOrder, product.Unit),
			}
		}
	}
	return nil
}

// Checkout creates one pending order per cart line and decrements stock, all
// inside a single transaction. Line items are processed in submission order;
// the first shortage aborts the whole batch and no stock is touched. The lock
// wait is bounded: if rows cannot be acquired in time the transaction aborts
// with the context error and nothing is persisted.
func (e *Engine) Checkout(ctx context.Context, buyerID uint, items []Item, shippingAddress, phone string) ([]*models.Order, error) {
	if err := e.validate(ctx, items, shippingAddress, phone); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	defer cancel()

	var orders []*models.Order
	err := e.store.Transact(ctx, func(tx Store) error {
		for _, item := range items {
			product, err := tx.LockProduct(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product.Stock < item.Quantity {
				return &InsufficientStockError{ProductName: product.Name}
			}

			order := &models.Order{
				UserID:          buyerID,
				ProductID:       product.ID,
				Quantity:        item.Quantity,
				TotalPrice:      product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
				Status:          models.OrderStatusPending,
				ShippingAddress: shippingAddress,
				PhoneNumber:     phone,
			}
			if err := tx.CreateOrder(ctx, order); err != nil {
				return err
			}
			if err := tx.SetStock(ctx, product.ID, product.Stock-item.Quantity); err != nil {
				return err
			}
			orders = append(orders, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}
