package ledger

import (
	"errors"
	"testing"

	"github.com/qwinza/tani-web/models"
)

func newOrder(status models.OrderStatus) *models.Order {
	return &models.Order{
		UserID:    1, // buyer
		ProductID: 10,
		Status:    status,
		Product: models.Product{
			ID:     10,
			UserID: 2, // farmer
		},
	}
}

func farmer() Actor { return Actor{UserID: 2, Role: models.RoleFarmer} }
func buyer() Actor  { return Actor{UserID: 1, Role: models.RoleBuyer} }

func TestApprove(t *testing.T) {
	order := newOrder(models.OrderStatusPending)

	if err := Approve(order, farmer()); err != nil {
		t.Fatalf("expected approve to succeed, got: %v", err)
	}
	if order.Status != models.OrderStatusProcessing {
		t.Errorf("expected status processing, got %s", order.Status)
	}
}

func TestApprove_WrongFarmer(t *testing.T) {
	order := newOrder(models.OrderStatusPending)
	stranger := Actor{UserID: 99, Role: models.RoleFarmer}

	err := Approve(order, stranger)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("order must not be mutated on failure, got %s", order.Status)
	}
}

func TestApprove_ByBuyer(t *testing.T) {
	order := newOrder(models.OrderStatusPending)

	if err := Approve(order, buyer()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
}

func TestShip(t *testing.T) {
	order := newOrder(models.OrderStatusProcessing)

	if err := Ship(order, farmer(), "uploads/proofs/abc.jpg"); err != nil {
		t.Fatalf("expected ship to succeed, got: %v", err)
	}
	if order.Status != models.OrderStatusShipped {
		t.Errorf("expected status shipped, got %s", order.Status)
	}
	if order.ShippingProof != "uploads/proofs/abc.jpg" {
		t.Errorf("expected shipping proof to be stored, got %q", order.ShippingProof)
	}
}

func TestShip_WithoutProof(t *testing.T) {
	order := newOrder(models.OrderStatusProcessing)

	if err := Ship(order, farmer(), ""); !errors.Is(err, ErrProofRequired) {
		t.Fatalf("expected ErrProofRequired, got: %v", err)
	}
}

func TestComplete(t *testing.T) {
	order := newOrder(models.OrderStatusShipped)

	if err := Complete(order, buyer(), 5, "fresh and fast"); err != nil {
		t.Fatalf("expected complete to succeed, got: %v", err)
	}
	if order.Status != models.OrderStatusCompleted {
		t.Errorf("expected status completed, got %s", order.Status)
	}
	if order.Rating == nil || *order.Rating != 5 {
		t.Errorf("expected rating 5, got %v", order.Rating)
	}
	if order.Review != "fresh and fast" {
		t.Errorf("expected review to be stored, got %q", order.Review)
	}
}

func TestComplete_ByFarmer(t *testing.T) {
	order := newOrder(models.OrderStatusShipped)

	if err := Complete(order, farmer(), 5, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
}

func TestComplete_RatingOutOfRange(t *testing.T) {
	order := newOrder(models.OrderStatusShipped)

	for _, rating := range []int{0, -1, 6} {
		if err := Complete(order, buyer(), rating, ""); !errors.Is(err, ErrRatingRequired) {
			t.Errorf("rating %d: expected ErrRatingRequired, got: %v", rating, err)
		}
	}
}

func TestCancel_ByGateway(t *testing.T) {
	order := newOrder(models.OrderStatusPending)

	if err := Cancel(order, GatewayActor()); err != nil {
		t.Fatalf("expected gateway cancel to succeed, got: %v", err)
	}
	if order.Status != models.OrderStatusCancelled {
		t.Errorf("expected status cancelled, got %s", order.Status)
	}
}

func TestGateway_CannotAdvance(t *testing.T) {
	order := newOrder(models.OrderStatusPending)

	err := Transition(order, GatewayActor(), models.OrderStatusProcessing)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
}

func TestTransition_Backward(t *testing.T) {
	order := newOrder(models.OrderStatusShipped)

	err := Transition(order, farmer(), models.OrderStatusProcessing)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestTransition_Skip(t *testing.T) {
	order := newOrder(models.OrderStatusPending)

	err := Transition(order, buyer(), models.OrderStatusCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestTerminalStates(t *testing.T) {
	for _, status := range []models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled} {
		for _, target := range []models.OrderStatus{
			models.OrderStatusPending,
			models.OrderStatusProcessing,
			models.OrderStatusShipped,
			models.OrderStatusCompleted,
			models.OrderStatusCancelled,
		} {
			if CanTransition(status, target) {
				t.Errorf("%s must be terminal, but %s -> %s is allowed", status, status, target)
			}
		}
	}
}
