package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qwinza/tani-web/models"
)

const testServerKey = "SB-Mid-server-testkey"

type fakeOrderStore struct {
	orders map[string]*models.Order
	saves  int
}

func newFakeOrderStore(orders ...*models.Order) *fakeOrderStore {
	s := &fakeOrderStore{orders: make(map[string]*models.Order)}
	for _, o := range orders {
		s.orders[o.ExternalID] = o
	}
	return s
}

func (s *fakeOrderStore) FindByExternalID(ctx context.Context, externalID string) (*models.Order, error) {
	o, ok := s.orders[externalID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) Save(ctx context.Context, order *models.Order) error {
	s.saves++
	cp := *order
	s.orders[order.ExternalID] = &cp
	return nil
}

type fakeSnapClient struct {
	token   string
	err     error
	lastReq SnapRequest
}

func (c *fakeSnapClient) CreateTransaction(ctx context.Context, req SnapRequest) (string, error) {
	c.lastReq = req
	if c.err != nil {
		return "", c.err
	}
	return c.token, nil
}

func pendingOrder(externalID string) *models.Order {
	return &models.Order{
		ID:         1,
		UserID:     7,
		ProductID:  3,
		Quantity:   3,
		TotalPrice: decimal.NewFromInt(30000),
		Status:     models.OrderStatusPending,
		ExternalID: externalID,
	}
}

func sign(orderID, statusCode, grossAmount string) string {
	svc := NewService(Config{ServerKey: testServerKey}, nil, nil)
	return svc.Signature(orderID, statusCode, grossAmount)
}

func notification(externalID, txStatus string) Notification {
	return Notification{
		OrderID:           externalID,
		StatusCode:        "200",
		GrossAmount:       "30000.00",
		SignatureKey:      sign(externalID, "200", "30000.00"),
		TransactionStatus: txStatus,
		PaymentType:       "bank_transfer",
	}
}

func TestCreateSession(t *testing.T) {
	order := pendingOrder("")
	store := newFakeOrderStore()
	store.orders[""] = order
	snap := &fakeSnapClient{token: "snap-token-123"}
	svc := NewService(Config{ServerKey: testServerKey}, snap, store)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	token, err := svc.CreateSession(context.Background(), order,
		&models.User{ID: 7, Name: "Budi", Email: "budi@example.com"},
		&models.Product{ID: 3, Name: "Beras Organik"})
	if err != nil {
		t.Fatalf("expected session creation to succeed, got: %v", err)
	}

	if token != "snap-token-123" {
		t.Errorf("expected snap token, got %q", token)
	}
	if want := "ORDER-1700000000-7"; order.ExternalID != want {
		t.Errorf("expected external id %q, got %q", want, order.ExternalID)
	}
	if order.SnapToken != "snap-token-123" {
		t.Errorf("expected snap token persisted on order, got %q", order.SnapToken)
	}
	if snap.lastReq.TransactionDetails.GrossAmount != 30000 {
		t.Errorf("expected gross amount 30000, got %d", snap.lastReq.TransactionDetails.GrossAmount)
	}
	if len(snap.lastReq.ItemDetails) != 1 || snap.lastReq.ItemDetails[0].Price != 10000 {
		t.Errorf("expected one item at unit price 10000, got %+v", snap.lastReq.ItemDetails)
	}
}

func TestCreateSession_GatewayFailure(t *testing.T) {
	order := pendingOrder("")
	store := newFakeOrderStore()
	store.orders[""] = order
	snap := &fakeSnapClient{err: fmt.Errorf("connection refused")}
	svc := NewService(Config{ServerKey: testServerKey}, snap, store)

	_, err := svc.CreateSession(context.Background(), order,
		&models.User{ID: 7, Name: "Budi"}, &models.Product{ID: 3, Name: "Beras Organik"})

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got: %v", err)
	}
	// The order keeps its external id but no token: retryable, not broken.
	if order.ExternalID == "" {
		t.Error("external id must be assigned before the provider call")
	}
	if order.SnapToken != "" {
		t.Errorf("no token may be stored on failure, got %q", order.SnapToken)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("order must stay pending, got %s", order.Status)
	}
}

func TestHandleNotification_Settlement(t *testing.T) {
	order := pendingOrder("ORDER-1-7")
	store := newFakeOrderStore(order)
	svc := NewService(Config{ServerKey: testServerKey}, nil, store)

	got, err := svc.HandleNotification(context.Background(), notification("ORDER-1-7", "settlement"))
	if err != nil {
		t.Fatalf("expected notification to be accepted, got: %v", err)
	}

	if got.Status != models.OrderStatusPending {
		t.Errorf("settlement keeps the order pending, got %s", got.Status)
	}
	if got.PaymentType != "bank_transfer" {
		t.Errorf("expected payment type recorded, got %q", got.PaymentType)
	}
}

func TestHandleNotification_Expire(t *testing.T) {
	order := pendingOrder("ORDER-1-7")
	store := newFakeOrderStore(order)
	svc := NewService(Config{ServerKey: testServerKey}, nil, store)

	got, err := svc.HandleNotification(context.Background(), notification("ORDER-1-7", "expire"))
	if err != nil {
		t.Fatalf("expected notification to be accepted, got: %v", err)
	}
	if got.Status != models.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
}

func TestHandleNotification_Idempotent(t *testing.T) {
	order := pendingOrder("ORDER-1-7")
	store := newFakeOrderStore(order)
	svc := NewService(Config{ServerKey: testServerKey}, nil, store)
	n := notification("ORDER-1-7", "settlement")

	first, err := svc.HandleNotification(context.Background(), n)
	if err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	second, err := svc.HandleNotification(context.Background(), n)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if first.Status != second.Status || first.PaymentType != second.PaymentType {
		t.Errorf("replay must converge to the same state: %+v vs %+v", first, second)
	}
}

func TestHandleNotification_TamperedAmount(t *testing.T) {
	order := pendingOrder("ORDER-1-7")
	store := newFakeOrderStore(order)
	svc := NewService(Config{ServerKey: testServerKey}, nil, store)

	n := notification("ORDER-1-7", "settlement")
	n.GrossAmount = "1.00" // signature was computed over 30000.00

	_, err := svc.HandleNotification(context.Background(), n)
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got: %v", err)
	}
	if store.saves != 0 {
		t.Errorf("a rejected notification must not mutate anything, saves=%d", store.saves)
	}

	stored, _ := store.FindByExternalID(context.Background(), "ORDER-1-7")
	if stored.PaymentType != "" || stored.Status != models.OrderStatusPending {
		t.Errorf("order must be untouched, got %+v", stored)
	}
}

func TestHandleNotification_BadSignature(t *testing.T) {
	svc := NewService(Config{ServerKey: testServerKey}, nil, newFakeOrderStore(pendingOrder("ORDER-1-7")))

	n := notification("ORDER-1-7", "settlement")
	n.SignatureKey = "deadbeef"

	if _, err := svc.HandleNotification(context.Background(), n); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got: %v", err)
	}
}

func TestHandleNotification_UnknownOrder(t *testing.T) {
	svc := NewService(Config{ServerKey: testServerKey}, nil, newFakeOrderStore())

	_, err := svc.HandleNotification(context.Background(), notification("ORDER-404-1", "settlement"))
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestHandleNotification_UnknownStatus(t *testing.T) {
	order := pendingOrder("ORDER-1-7")
	store := newFakeOrderStore(order)
	svc := NewService(Config{ServerKey: testServerKey}, nil, store)

	got, err := svc.HandleNotification(context.Background(), notification("ORDER-1-7", "refund"))
	if err != nil {
		t.Fatalf("unknown status must be acknowledged, got: %v", err)
	}
	if store.saves != 0 {
		t.Errorf("unknown status must not mutate, saves=%d", store.saves)
	}
	if got.Status != models.OrderStatusPending {
		t.Errorf("order must be untouched, got %s", got.Status)
	}
}

func TestConfigBaseURL(t *testing.T) {
	if got := (Config{}).BaseURL(); got != "https://app.sandbox.midtrans.com" {
		t.Errorf("sandbox default, got %q", got)
	}
	if got := (Config{IsProduction: true}).BaseURL(); got != "https://app.midtrans.com" {
		t.Errorf("production url, got %q", got)
	}
	if got := (Config{SnapBaseURL: "http://127.0.0.1:9090"}).BaseURL(); got != "http://127.0.0.1:9090" {
		t.Errorf("override wins, got %q", got)
	}
}
