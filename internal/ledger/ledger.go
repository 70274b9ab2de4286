// Package ledger holds the order state machine. Every status change to an
// order goes through Transition, which checks both the legality of the move
// and the capability of the actor requesting it.
package ledger

import (
	"errors"
	"fmt"

	"github.com/qwinza/tani-web/models"
)

var (
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrUnauthorized      = errors.New("actor is not allowed to perform this transition")
	ErrRatingRequired    = errors.New("rating between 1 and 5 is required to complete an order")
	ErrProofRequired     = errors.New("shipping proof is required to ship an order")
)

// Actor identifies who is requesting a transition. Gateway is the payment
// provider acting through the verified callback.
type Actor struct {
	UserID  uint
	Role    string
	Gateway bool
}

// GatewayActor is the implicit actor behind payment notifications.
func GatewayActor() Actor { return Actor{Gateway: true} }

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusCompleted},
	models.OrderStatusCompleted:  {},
	models.OrderStatusCancelled:  {},
}

// CanTransition reports whether the move is legal, ignoring the actor.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// allowed checks the capability of the actor for the requested target state.
// The order's product must be preloaded so farmer ownership can be checked.
func allowed(order *models.Order, actor Actor, to models.OrderStatus) bool {
	if actor.Gateway {
		// The gateway only ever cancels; confirmed payments keep the
		// order pending and are recorded outside the state machine.
		return to == models.OrderStatusCancelled
	}

	ownsProduct := actor.Role == models.RoleFarmer && actor.UserID == order.Product.UserID
	isBuyer := actor.Role == models.RoleBuyer && actor.UserID == order.UserID

	switch to {
	case models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusCancelled:
		return ownsProduct
	case models.OrderStatusCompleted:
		return isBuyer
	default:
		return false
	}
}

// Transition moves the order to the target status after validating the move
// and the actor. The order is mutated in place; persisting it is the caller's
// job. The ledger never coerces an illegal move.
func Transition(order *models.Order, actor Actor, to models.OrderStatus) error {
	if !CanTransition(order.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, to)
	}
	if !allowed(order, actor, to) {
		return ErrUnauthorized
	}
	order.Status = to
	return nil
}

// Approve moves a pending order to processing. Farmer only.
func Approve(order *models.Order, actor Actor) error {
	return Transition(order, actor, models.OrderStatusProcessing)
}

// Ship attaches the proof-of-shipment reference and moves the order to
// shipped. Farmer only; the proof is mandatory.
func Ship(order *models.Order, actor Actor, proofPath string) error {
	if proofPath == "" {
		return ErrProofRequired
	}
	if err := Transition(order, actor, models.OrderStatusShipped); err != nil {
		return err
	}
	order.ShippingProof = proofPath
	return nil
}

// Complete records the buyer's rating and optional review and closes the
// order. Buyer only; the rating is mandatory.
func Complete(order *models.Order, actor Actor, rating int, review string) error {
	if rating < 1 || rating > 5 {
		return ErrRatingRequired
	}
	if err := Transition(order, actor, models.OrderStatusCompleted); err != nil {
		return err
	}
	order.Rating = &rating
	order.Review = review
	return nil
}

// Cancel rejects the order. Reachable from pending or processing, by the
// owning farmer or by the payment gateway.
func Cancel(order *models.Order, actor Actor) error {
	return Transition(order, actor, models.OrderStatusCancelled)
}
