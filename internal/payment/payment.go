// Package payment bridges orders to the Midtrans-style hosted payment page
// and reconciles the provider's asynchronous server-to-server notifications
// into order state.
package payment

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qwinza/tani-web/models"
)

var (
	// ErrSignatureMismatch means the notification failed authentication.
	// It is the sole defense on the public callback endpoint, so it is
	// surfaced as a bare denial and never retried.
	ErrSignatureMismatch = errors.New("notification signature mismatch")
	ErrOrderNotFound     = errors.New("order not found")
)

// GatewayError wraps provider failures during session creation. The order is
// already committed when it occurs, so retrying the session is safe.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("payment gateway: %v", e.Err) }
func (e *GatewayError) Unwrap() error { return e.Err }

// Config carries the gateway settings. It is built once at startup and
// injected here; nothing in this package holds process-global state.
type Config struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
	// SnapBaseURL overrides the endpoint derived from IsProduction.
	// Tests point it at a local server.
	SnapBaseURL string
}

// BaseURL resolves the snap endpoint for the configured environment.
func (c Config) BaseURL() string {
	if c.SnapBaseURL != "" {
		return c.SnapBaseURL
	}
	if c.IsProduction {
		return "https://app.midtrans.com"
	}
	return "https://app.sandbox.midtrans.com"
}

// SnapClient creates hosted payment sessions at the provider.
type SnapClient interface {
	CreateTransaction(ctx context.Context, req SnapRequest) (string, error)
}

// OrderStore is the slice of persistence the adapter needs.
type OrderStore interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
}

// Notification is the provider's callback payload.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	PaymentType       string `json:"payment_type"`
}

type Service struct {
	cfg    Config
	snap   SnapClient
	orders OrderStore
	now    func() time.Time
}

func NewService(cfg Config, snap SnapClient, orders OrderStore) *Service {
	return &Service{cfg: cfg, snap: snap, orders: orders, now: time.Now}
}

// CreateSession synthesizes the gateway-facing order reference, requests a
// snap token and persists both on the order. The external id is saved before
// the provider call: if the call fails the order stays pending without a
// token, which is a retryable state, never a half-initialized one.
func (s *Service) CreateSession(ctx context.Context, order *models.Order, buyer *models.User, product *models.Product) (string, error) {
	if order.ExternalID == "" {
		order.ExternalID = fmt.Sprintf("ORDER-%d-%d", s.now().Unix(), order.UserID)
		if err := s.orders.Save(ctx, order); err != nil {
			return "", err
		}
	}

	unitPrice := order.TotalPrice.Div(decimal.NewFromInt(int64(order.Quantity)))
	req := SnapRequest{
		TransactionDetails: TransactionDetails{
			OrderID:     order.ExternalID,
			GrossAmount: order.TotalPrice.IntPart(),
		},
		CustomerDetails: CustomerDetails{
			FirstName: buyer.Name,
			Email:     buyer.Email,
		},
		ItemDetails: []ItemDetail{{
			ID:       fmt.Sprintf("%d", order.ProductID),
			Price:    unitPrice.IntPart(),
			Quantity: order.Quantity,
			Name:     product.Name,
		}},
	}

	token, err := s.snap.CreateTransaction(ctx, req)
	if err != nil {
		return "", &GatewayError{Err: err}
	}

	order.SnapToken = token
	if err := s.orders.Save(ctx, order); err != nil {
		return "", err
	}
	return token, nil
}

// HandleNotification authenticates and reconciles a callback. Reconciliation
// only ever sets absolute state, so replaying the same payload is harmless.
func (s *Service) HandleNotification(ctx context.Context, n Notification) (*models.Order, error) {
	expected := s.Signature(n.OrderID, n.StatusCode, n.GrossAmount)
	if expected != n.SignatureKey {
		return nil, ErrSignatureMismatch
	}

	order, err := s.orders.FindByExternalID(ctx, n.OrderID)
	if err != nil {
		return nil, err
	}

	switch n.TransactionStatus {
	case "capture", "settlement", "pending":
		// Payment confirmed or in flight: the order stays pending for
		// the farmer; the recorded payment type disambiguates it.
		order.Status = models.OrderStatusPending
		order.PaymentType = n.PaymentType
	case "deny", "expire", "cancel":
		order.Status = models.OrderStatusCancelled
		order.PaymentType = n.PaymentType
	default:
		// Unknown status: acknowledge without mutating so the provider
		// stops retrying.
		return order, nil
	}

	// Status and payment type land in one write.
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Signature recomputes the provider's sha512 hex digest over the order id,
// numeric status code, gross amount and the shared server key.
func (s *Service) Signature(orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + s.cfg.ServerKey))
	return hex.EncodeToString(sum[:])
}
