package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment vocabulary for an order. A paid but not yet
// approved order stays pending with a non-empty PaymentType.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order is a financial record: rows are never hard-deleted.
type Order struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	UserID    uint `gorm:"index;not null" json:"user_id"` // buyer
	ProductID uint `gorm:"index;not null" json:"product_id"`

	Quantity   int             `gorm:"not null" json:"quantity"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"` // snapshot price x qty
	Status     OrderStatus     `gorm:"size:20;not null;default:'pending'" json:"status"`

	ShippingAddress string `gorm:"type:text;not null" json:"shipping_address"`
	PhoneNumber     string `gorm:"size:30;not null" json:"phone_number"`

	// Buyer feedback, set on completion.
	Rating *int   `json:"rating"`
	Review string `gorm:"type:text" json:"review"`

	// Farmer proof-of-shipment file reference.
	ShippingProof string `json:"shipping_proof"`

	// Payment correlation triad. Nullable: an order can exist without a
	// payment session, and a session without a confirmed payment.
	ExternalID  string `gorm:"size:100;index" json:"external_id"`
	SnapToken   string `gorm:"size:100" json:"snap_token"`
	PaymentType string `gorm:"size:50" json:"payment_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Buyer   User    `gorm:"foreignKey:UserID" json:"buyer"`
	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}
